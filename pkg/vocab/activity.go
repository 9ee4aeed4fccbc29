package vocab

import (
	"context"
	"time"
)

// ActivityStore is the persistence boundary for Daily Activity.
type ActivityStore interface {
	Get(ctx context.Context, learnerID int64) (DailyActivity, error)
	Save(ctx context.Context, a DailyActivity) error
}

// Activity implements the streak/daily-goal tracker, grounded on
// aliskhannn-asma-ul-husna-bot's entities.UserReminders
// timezone-aware day-boundary arithmetic (CalculateNextSendAt,
// ParseTimezoneLocation), adapted from "next reminder slot" to "is this the
// same calendar day as last time".
type Activity struct {
	cfg   Config
	store ActivityStore
}

// NewActivity builds an Activity tracker.
func NewActivity(cfg Config, store ActivityStore) *Activity {
	return &Activity{cfg: cfg, store: store}
}

// Observe records one review event (never a triage or placement event) at
// now, in loc (the learner's timezone, defaulting to UTC if unknown). It
// returns the updated activity and whether today's count just reached
// DAILY_GOAL for the first time.
func (a *Activity) Observe(ctx context.Context, learnerID int64, now time.Time, loc *time.Location) (DailyActivity, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := dayBoundary(local)

	activity, err := a.store.Get(ctx, learnerID)
	if err != nil {
		return DailyActivity{}, false, newErr("activity.observe", KindInternal, err)
	}
	if activity.LearnerID == 0 {
		activity.LearnerID = learnerID
	}

	goalReached := false

	if activity.TodayDay.Equal(today) {
		activity.TodayCount++
	} else {
		yesterday := today.AddDate(0, 0, -1)
		if activity.LastActiveDay.Equal(yesterday) {
			activity.Streak++
		} else {
			activity.Streak = 1
		}
		activity.TodayCount = 1
		activity.TodayDay = today
	}
	activity.LastActiveDay = today

	if activity.TodayCount == a.cfg.DailyGoal {
		goalReached = true
	}

	if err := a.store.Save(ctx, activity); err != nil {
		return DailyActivity{}, false, newErr("activity.observe", KindInternal, err)
	}
	return activity, goalReached, nil
}

// Stats returns the current streak, today's count, and the configured
// daily goal for stats.user.
func (a *Activity) Stats(ctx context.Context, learnerID int64) (streak, dailyCount, dailyGoal int, err error) {
	activity, getErr := a.store.Get(ctx, learnerID)
	if getErr != nil {
		return 0, 0, 0, newErr("stats.user", KindInternal, getErr)
	}
	return activity.Streak, activity.TodayCount, a.cfg.DailyGoal, nil
}
