package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/vocabhat/pkg/vocab"
)

// activityRow is the sqlx scan target for the daily_activity table.
type activityRow struct {
	LearnerID     int64     `db:"learner_id"`
	Streak        int       `db:"streak"`
	LastActiveDay time.Time `db:"last_active_day"`
	TodayCount    int       `db:"today_count"`
	TodayDay      time.Time `db:"today_day"`
}

func (r activityRow) toActivity() vocab.DailyActivity {
	return vocab.DailyActivity{
		LearnerID:     r.LearnerID,
		Streak:        r.Streak,
		LastActiveDay: r.LastActiveDay,
		TodayCount:    r.TodayCount,
		TodayDay:      r.TodayDay,
	}
}

// ActivityStore is the Postgres/sqlite-backed vocab.ActivityStore.
type ActivityStore struct {
	db *DB
}

// NewActivityStore builds an ActivityStore.
func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Get implements vocab.ActivityStore. A learner with no row yet gets the
// zero-value DailyActivity (LearnerID 0), which Activity.Observe treats as
// "first ever activity" rather than an error.
func (s *ActivityStore) Get(ctx context.Context, learnerID int64) (vocab.DailyActivity, error) {
	var row activityRow
	err := s.db.GetContext(ctx, &row, s.db.bindVar(
		`SELECT learner_id, streak, last_active_day, today_count, today_day FROM daily_activity WHERE learner_id = ?`), learnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.DailyActivity{}, nil
	}
	if err != nil {
		return vocab.DailyActivity{}, vocabInternal("activity.get", err)
	}
	return row.toActivity(), nil
}

// Save implements vocab.ActivityStore, upserting on learner_id.
func (s *ActivityStore) Save(ctx context.Context, a vocab.DailyActivity) error {
	if s.db.driver == "postgres" {
		_, err := s.db.ExecContext(ctx, s.db.bindVar(
			`INSERT INTO daily_activity (learner_id, streak, last_active_day, today_count, today_day)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (learner_id) DO UPDATE SET streak = EXCLUDED.streak, last_active_day = EXCLUDED.last_active_day,
				today_count = EXCLUDED.today_count, today_day = EXCLUDED.today_day`),
			a.LearnerID, a.Streak, a.LastActiveDay, a.TodayCount, a.TodayDay)
		if err != nil {
			return vocabInternal("activity.save", err)
		}
		return nil
	}

	// sqlite3: emulate upsert for drivers without RETURNING support, with
	// an existence check first.
	var exists int
	err := s.db.GetContext(ctx, &exists, s.db.bindVar(`SELECT COUNT(*) FROM daily_activity WHERE learner_id = ?`), a.LearnerID)
	if err != nil {
		return vocabInternal("activity.save", err)
	}
	if exists == 0 {
		_, err = s.db.ExecContext(ctx, s.db.bindVar(
			`INSERT INTO daily_activity (learner_id, streak, last_active_day, today_count, today_day) VALUES (?, ?, ?, ?, ?)`),
			a.LearnerID, a.Streak, a.LastActiveDay, a.TodayCount, a.TodayDay)
	} else {
		_, err = s.db.ExecContext(ctx, s.db.bindVar(
			`UPDATE daily_activity SET streak = ?, last_active_day = ?, today_count = ?, today_day = ? WHERE learner_id = ?`),
			a.Streak, a.LastActiveDay, a.TodayCount, a.TodayDay, a.LearnerID)
	}
	if err != nil {
		return vocabInternal("activity.save", err)
	}
	return nil
}
