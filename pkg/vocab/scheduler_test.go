package vocab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_FirstThreePasses(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prior := NewProgressEntry(1, 1, DefaultConfig().EFMax)
	prior.EasinessFactor = 2.5

	r1 := s.Advance(prior, QualityPerfect, now)
	require.Equal(t, 1, r1.IntervalDays)
	require.Equal(t, 1, r1.RepetitionNumber)

	r2 := s.Advance(r1, QualityPerfect, now.AddDate(0, 0, 1))
	require.Equal(t, 6, r2.IntervalDays)
	require.Equal(t, 2, r2.RepetitionNumber)

	r3 := s.Advance(r2, QualityPerfect, now.AddDate(0, 0, 7))
	// starting EF is already EF_MAX, and a perfect review only ever
	// increases EF, so it stays clamped at 2.5 throughout.
	assert.Equal(t, roundHalfUp(6*2.5), r3.IntervalDays)
	assert.Equal(t, 3, r3.RepetitionNumber)
}

func TestScheduler_FailureResetsRepetition(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prior := NewProgressEntry(1, 1, DefaultConfig().EFMax)
	prior.RepetitionNumber = 4
	prior.IntervalDays = 30
	prior.EasinessFactor = 2.2

	result := s.Advance(prior, QualityIncorrect, now)
	assert.Equal(t, 0, result.RepetitionNumber)
	assert.Equal(t, 1, result.IntervalDays)
	assert.Less(t, result.EasinessFactor, prior.EasinessFactor)
}

func TestScheduler_EasinessFactorClampsToMin(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prior := NewProgressEntry(1, 1, DefaultConfig().EFMax)
	prior.EasinessFactor = 1.3

	for i := 0; i < 5; i++ {
		prior = s.Advance(prior, QualityBlackout, now)
	}
	assert.GreaterOrEqual(t, prior.EasinessFactor, DefaultConfig().EFMin)
}

func TestScheduler_NextReviewAtIsDayBoundaryInLocation(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	prior := NewProgressEntry(1, 1, DefaultConfig().EFMax)
	result := s.Advance(prior, QualityPerfect, now)

	require.NotNil(t, result.NextReviewAt)
	assert.Equal(t, 0, result.NextReviewAt.Hour())
	assert.Equal(t, 0, result.NextReviewAt.Minute())
	assert.Equal(t, loc, result.NextReviewAt.Location())
}

func TestScheduler_ZeroEasinessTreatedAsMax(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prior := ProgressEntry{} // EasinessFactor left at zero value
	result := s.Advance(prior, QualityHesitant, now)
	assert.InDelta(t, DefaultConfig().EFMax, result.EasinessFactor, 0.2)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, roundHalfUp(2.5))
	assert.Equal(t, 2, roundHalfUp(2.4))
	assert.Equal(t, 4, roundHalfUp(3.5))
}
