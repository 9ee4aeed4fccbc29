package vocab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_TriageKnownBypassesToMastered(t *testing.T) {
	l := NewLifecycle(DefaultConfig())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	result := l.Triage(1, 42, NewProgressEntry(1, 42, DefaultConfig().EFMax), TriageKnown, now)

	assert.Equal(t, StatusMastered, result.Status)
	assert.Equal(t, 1, result.RepetitionNumber)
	assert.Equal(t, DefaultConfig().MasterySeed, result.IntervalDays)
	require.NotNil(t, result.NextReviewAt)
	assert.Equal(t, now.AddDate(0, 0, DefaultConfig().MasterySeed), *result.NextReviewAt)
}

func TestLifecycle_TriageUnknownEntersLearning(t *testing.T) {
	l := NewLifecycle(DefaultConfig())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	result := l.Triage(1, 42, NewProgressEntry(1, 42, DefaultConfig().EFMax), TriageUnknown, now)

	assert.Equal(t, StatusLearning, result.Status)
	assert.Equal(t, 0, result.RepetitionNumber)
	assert.Equal(t, 1, result.IntervalDays)
}

func TestLifecycle_AdvanceNewToReviewOnFirstSuccess(t *testing.T) {
	l := NewLifecycle(DefaultConfig())
	scheduled := ProgressEntry{RepetitionNumber: 1, IntervalDays: 1}
	got := l.Advance(StatusNew, scheduled, QualityPerfect)
	assert.Equal(t, StatusReview, got)
}

func TestLifecycle_AdvanceLearningNeedsTwoSuccesses(t *testing.T) {
	l := NewLifecycle(DefaultConfig())

	afterFirst := l.Advance(StatusLearning, ProgressEntry{RepetitionNumber: 1}, QualityPerfect)
	assert.Equal(t, StatusLearning, afterFirst)

	afterSecond := l.Advance(StatusLearning, ProgressEntry{RepetitionNumber: 2}, QualityPerfect)
	assert.Equal(t, StatusReview, afterSecond)
}

func TestLifecycle_AdvanceAnyFailureGoesToLearning(t *testing.T) {
	l := NewLifecycle(DefaultConfig())
	for _, prior := range []Status{StatusNew, StatusLearning, StatusReview, StatusMastered} {
		got := l.Advance(prior, ProgressEntry{RepetitionNumber: 0, IntervalDays: 1}, QualityIncorrect)
		assert.Equal(t, StatusLearning, got, "prior=%s", prior)
	}
}

func TestLifecycle_AdvanceReviewToMasteredOnceIntervalReachesThreshold(t *testing.T) {
	l := NewLifecycle(DefaultConfig())

	below := l.Advance(StatusReview, ProgressEntry{IntervalDays: DefaultConfig().MasteryThreshold - 1}, QualityPerfect)
	assert.Equal(t, StatusReview, below)

	atThreshold := l.Advance(StatusReview, ProgressEntry{IntervalDays: DefaultConfig().MasteryThreshold}, QualityPerfect)
	assert.Equal(t, StatusMastered, atThreshold)
}

func TestLifecycle_MasteredStaysMasteredOnSuccess(t *testing.T) {
	l := NewLifecycle(DefaultConfig())
	got := l.Advance(StatusMastered, ProgressEntry{IntervalDays: 999}, QualityPerfect)
	assert.Equal(t, StatusMastered, got)
}
