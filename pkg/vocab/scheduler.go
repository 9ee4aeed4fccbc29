package vocab

import (
	"math"
	"time"
)

// Scheduler implements the SM-2 spaced-repetition recurrence. It is a pure
// function over its inputs: no I/O, no wall-clock reads beyond the `now`
// it is handed. The easiness-factor recurrence and repetition-indexed
// interval table are cross-checked against a reference SM2Algorithm.UpdateState
// implementation.
type Scheduler struct {
	cfg Config
}

// NewScheduler builds a Scheduler bound to the given threshold
// configuration (EF_MIN/EF_MAX).
func NewScheduler(cfg Config) Scheduler {
	return Scheduler{cfg: cfg}
}

// Advance computes the next ProgressEntry state from prior and a recall
// quality, at instant now. prior may be the synthetic "never reviewed"
// zero-state; EasinessFactor == 0 is treated as EF_MAX for that edge case.
func (s Scheduler) Advance(prior ProgressEntry, q Quality, now time.Time) ProgressEntry {
	next := prior

	ef := prior.EasinessFactor
	if ef == 0 {
		ef = s.cfg.EFMax
	}

	qf := float64(q)
	ef = ef + (0.1 - (5-qf)*(0.08+(5-qf)*0.02))
	ef = clamp(ef, s.cfg.EFMin, s.cfg.EFMax)
	next.EasinessFactor = ef

	if !q.Passed() {
		next.RepetitionNumber = 0
		next.IntervalDays = 1
	} else {
		switch prior.RepetitionNumber {
		case 0:
			next.IntervalDays = 1
		case 1:
			next.IntervalDays = 6
		default:
			next.IntervalDays = roundHalfUp(float64(prior.IntervalDays) * ef)
		}
		next.RepetitionNumber = prior.RepetitionNumber + 1
	}

	// adding half a day before truncating rounds to the nearest midnight.
	nextReview := dayBoundary(now.AddDate(0, 0, next.IntervalDays).Add(12 * time.Hour))
	next.NextReviewAt = &nextReview
	lastReviewed := now
	next.LastReviewedAt = &lastReviewed

	return next
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// roundHalfUp rounds v to the nearest integer, ties rounding up (toward
// +Inf), matching interval rounding to whole days.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// dayBoundary truncates t to midnight of its calendar day in its own
// location. The core always passes `now` already converted to the
// learner's timezone location so this truncates in that zone.
func dayBoundary(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
