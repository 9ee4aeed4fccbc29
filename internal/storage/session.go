package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/vocabhat/pkg/vocab"
)

// sessionRow is the sqlx scan target for the placement_sessions table.
type sessionRow struct {
	ID            string    `db:"id"`
	LearnerID     int64     `db:"learner_id"`
	Min           int       `db:"current_min"`
	Max           int       `db:"current_max"`
	QuestionCount int       `db:"question_count"`
	Active        bool      `db:"is_active"`
	FinalLevel    *int      `db:"final_level"`
	Log           []byte    `db:"log"`
	Version       int64     `db:"version"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r sessionRow) toSession() (vocab.PlacementSession, error) {
	var log []vocab.PlacementLogEntry
	if len(r.Log) > 0 {
		if err := json.Unmarshal(r.Log, &log); err != nil {
			return vocab.PlacementSession{}, err
		}
	}
	return vocab.PlacementSession{
		ID:            r.ID,
		LearnerID:     r.LearnerID,
		Min:           r.Min,
		Max:           r.Max,
		QuestionCount: r.QuestionCount,
		Active:        r.Active,
		FinalLevel:    r.FinalLevel,
		Log:           log,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

// SessionStore is the Postgres/sqlite-backed vocab.SessionStore. CAS is
// implemented with an optimistic version column: a single
// UPDATE ... WHERE id = ? AND version = ? statement, with no explicit
// transaction or row lock, where zero affected rows means a conflict.
type SessionStore struct {
	db *DB
}

// NewSessionStore builds a SessionStore.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// ActiveFor implements vocab.SessionStore.
func (s *SessionStore) ActiveFor(ctx context.Context, learnerID int64) (*vocab.PlacementSession, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, s.db.bindVar(
		`SELECT id, learner_id, current_min, current_max, question_count, is_active, final_level, log, version, created_at, updated_at
		 FROM placement_sessions WHERE learner_id = ? AND is_active = true`), learnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, vocabInternal("placement.active_for", err)
	}
	sess, err := row.toSession()
	if err != nil {
		return nil, vocabInternal("placement.active_for", err)
	}
	return &sess, nil
}

// Create implements vocab.SessionStore.
func (s *SessionStore) Create(ctx context.Context, sess vocab.PlacementSession) (vocab.PlacementSession, error) {
	logJSON, err := json.Marshal(sess.Log)
	if err != nil {
		return vocab.PlacementSession{}, vocabInternal("placement.create", err)
	}

	_, err = s.db.ExecContext(ctx, s.db.bindVar(
		`INSERT INTO placement_sessions (id, learner_id, current_min, current_max, question_count, is_active, final_level, log, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`),
		sess.ID, sess.LearnerID, sess.Min, sess.Max, sess.QuestionCount, sess.Active, sess.FinalLevel, logJSON, sess.CreatedAt, sess.CreatedAt,
	)
	if err != nil {
		return vocab.PlacementSession{}, vocabConflict("placement.create", err)
	}
	sess.Version = 0
	sess.UpdatedAt = sess.CreatedAt
	return sess, nil
}

// CompareAndSwap implements vocab.SessionStore.
func (s *SessionStore) CompareAndSwap(ctx context.Context, sess vocab.PlacementSession) (vocab.PlacementSession, error) {
	logJSON, err := json.Marshal(sess.Log)
	if err != nil {
		return vocab.PlacementSession{}, vocabInternal("placement.compare_and_swap", err)
	}

	res, err := s.db.ExecContext(ctx, s.db.bindVar(
		`UPDATE placement_sessions
		 SET current_min = ?, current_max = ?, question_count = ?, is_active = ?, final_level = ?, log = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`),
		sess.Min, sess.Max, sess.QuestionCount, sess.Active, sess.FinalLevel, logJSON, sess.UpdatedAt, sess.ID, sess.Version,
	)
	if err != nil {
		return vocab.PlacementSession{}, vocabInternal("placement.compare_and_swap", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return vocab.PlacementSession{}, vocabInternal("placement.compare_and_swap", err)
	}
	if n == 0 {
		return vocab.PlacementSession{}, vocabConflict("placement.compare_and_swap", nil)
	}
	sess.Version++
	return sess, nil
}
