package vocab

import "time"

// TriageEvent is the two-way classification offered outside spaced
// repetition review.
type TriageEvent int

const (
	TriageKnown TriageEvent = iota
	TriageUnknown
)

// Lifecycle centralizes every status transition a word's progress can make.
// It never fails: the pair (current status, event) always yields exactly
// one next status.
type Lifecycle struct {
	cfg Config
}

// NewLifecycle builds a Lifecycle bound to MASTERY_THRESHOLD/MASTERY_SEED.
func NewLifecycle(cfg Config) Lifecycle {
	return Lifecycle{cfg: cfg}
}

// Triage applies a triage ("known"/"unknown") event to any prior entry and
// returns the resulting entry, independent of the SM-2 scheduler.
func (l Lifecycle) Triage(learnerID, wordID int64, prior ProgressEntry, event TriageEvent, now time.Time) ProgressEntry {
	next := prior
	next.LearnerID = learnerID
	next.WordID = wordID

	switch event {
	case TriageKnown:
		next.Status = StatusMastered
		next.RepetitionNumber = 1
		next.IntervalDays = l.cfg.MasterySeed
		seed := now.AddDate(0, 0, l.cfg.MasterySeed)
		next.NextReviewAt = &seed
	case TriageUnknown:
		next.Status = StatusLearning
		next.RepetitionNumber = 0
		next.IntervalDays = 1
		tomorrow := now.AddDate(0, 0, 1)
		next.NextReviewAt = &tomorrow
	}
	return next
}

// Advance computes the post-review status for an entry whose SM-2 fields
// have already been updated by Scheduler.Advance. It must be called with
// the PRE-review status (prior.Status) and the scheduler's resulting
// IntervalDays/RepetitionNumber so the Review->Mastered promotion can see
// the just-computed interval.
func (l Lifecycle) Advance(priorStatus Status, scheduled ProgressEntry, q Quality) Status {
	if !q.Passed() {
		// review with q < 3 -> {Learning, Review, Mastered} -> Learning
		return StatusLearning
	}

	switch priorStatus {
	case StatusNew:
		return StatusReview
	case StatusLearning:
		// Two consecutive successes promote Learning -> Review; the
		// scheduler increments RepetitionNumber on every pass, so
		// reaching 2 is "two consecutive successes" because a single
		// failure resets RepetitionNumber to 0.
		if scheduled.RepetitionNumber >= 2 {
			return StatusReview
		}
		return StatusLearning
	case StatusReview:
		if scheduled.IntervalDays >= l.cfg.MasteryThreshold {
			return StatusMastered
		}
		return StatusReview
	case StatusMastered:
		return StatusMastered
	default:
		return StatusReview
	}
}
