package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabhat/pkg/vocab"
)

// progressRow is the sqlx scan target for the progress table.
type progressRow struct {
	LearnerID        int64      `db:"learner_id"`
	WordID           int64      `db:"word_id"`
	Status           string     `db:"status"`
	RepetitionNumber int        `db:"repetition_number"`
	EasinessFactor   float64    `db:"easiness_factor"`
	IntervalDays     int        `db:"interval_days"`
	NextReviewAt     *time.Time `db:"next_review_at"`
	LastReviewedAt   *time.Time `db:"last_reviewed_at"`
}

func (r progressRow) toEntry() vocab.ProgressEntry {
	return vocab.ProgressEntry{
		LearnerID:        r.LearnerID,
		WordID:           r.WordID,
		Status:           vocab.Status(r.Status),
		RepetitionNumber: r.RepetitionNumber,
		EasinessFactor:   r.EasinessFactor,
		IntervalDays:     r.IntervalDays,
		NextReviewAt:     r.NextReviewAt,
		LastReviewedAt:   r.LastReviewedAt,
	}
}

// ProgressStore is the Postgres/sqlite-backed vocab.ProgressStore: plain
// sqlx Select/Get against a single table, plus the get-or-create and
// locked-read paths a concurrent-writer spaced-repetition schedule needs.
type ProgressStore struct {
	db    *DB
	efMax float64
}

// NewProgressStore builds a ProgressStore. efMax seeds the EasinessFactor
// synthesized for a word the learner has never touched (the "absent"
// lifecycle state), mirroring vocab.NewProgressEntry's seed so a
// VOCAB_EF_MAX override is honored here too.
func NewProgressStore(db *DB, efMax float64) *ProgressStore {
	return &ProgressStore{db: db, efMax: efMax}
}

// Revise implements vocab.ProgressStore. The read, fn, and write happen
// inside one transaction with the row locked (Postgres: SELECT ... FOR
// UPDATE; SQLite: the single-writer connection pool in Open already
// serializes it), so a second Revise on the same pair blocks until the
// first commits instead of racing it.
func (s *ProgressStore) Revise(ctx context.Context, learnerID, wordID int64, orInsert *vocab.ProgressEntry, fn func(vocab.ProgressEntry) vocab.ProgressEntry) (vocab.ProgressEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return vocab.ProgressEntry{}, vocabInternal("progress.revise", err)
	}
	defer tx.Rollback()

	lockClause := ""
	if s.db.driver == "postgres" {
		lockClause = " FOR UPDATE"
	}
	var row progressRow
	err = tx.GetContext(ctx, &row, s.db.bindVar(
		`SELECT learner_id, word_id, status, repetition_number, easiness_factor, interval_days, next_review_at, last_reviewed_at
		 FROM progress WHERE learner_id = ? AND word_id = ?`+lockClause),
		learnerID, wordID)

	var prior vocab.ProgressEntry
	existed := true
	switch {
	case err == nil:
		prior = row.toEntry()
	case errors.Is(err, sql.ErrNoRows):
		if orInsert == nil {
			return vocab.ProgressEntry{}, vocabNotFound("progress.revise", nil)
		}
		existed = false
		prior = *orInsert
	default:
		return vocab.ProgressEntry{}, vocabInternal("progress.revise", err)
	}

	next := fn(prior)

	if existed {
		res, err := tx.ExecContext(ctx, s.db.bindVar(
			`UPDATE progress SET status = ?, repetition_number = ?, easiness_factor = ?, interval_days = ?, next_review_at = ?, last_reviewed_at = ?
			 WHERE learner_id = ? AND word_id = ?`),
			string(next.Status), next.RepetitionNumber, next.EasinessFactor, next.IntervalDays,
			next.NextReviewAt, next.LastReviewedAt, learnerID, wordID,
		)
		if err != nil {
			return vocab.ProgressEntry{}, vocabInternal("progress.revise", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return vocab.ProgressEntry{}, vocabInternal("progress.revise", err)
		} else if n == 0 {
			return vocab.ProgressEntry{}, vocabNotFound("progress.revise", nil)
		}
	} else {
		if _, err := tx.ExecContext(ctx, s.db.bindVar(
			`INSERT INTO progress (learner_id, word_id, status, repetition_number, easiness_factor, interval_days, next_review_at, last_reviewed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			learnerID, wordID, string(next.Status), next.RepetitionNumber,
			next.EasinessFactor, next.IntervalDays, next.NextReviewAt, next.LastReviewedAt,
		); err != nil {
			return vocab.ProgressEntry{}, vocabInternal("progress.revise", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return vocab.ProgressEntry{}, vocabInternal("progress.revise", err)
	}
	return next, nil
}

// Get implements vocab.ProgressStore.
func (s *ProgressStore) Get(ctx context.Context, learnerID, wordID int64) (vocab.ProgressEntry, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row, s.db.bindVar(
		`SELECT learner_id, word_id, status, repetition_number, easiness_factor, interval_days, next_review_at, last_reviewed_at
		 FROM progress WHERE learner_id = ? AND word_id = ?`),
		learnerID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.ProgressEntry{}, vocabNotFound("progress.get", err)
	}
	if err != nil {
		return vocab.ProgressEntry{}, vocabInternal("progress.get", err)
	}
	return row.toEntry(), nil
}

// QueryDue implements vocab.ProgressStore.
func (s *ProgressStore) QueryDue(ctx context.Context, learnerID int64, at time.Time, limit int, filter vocab.ProgressFilter) ([]vocab.ProgressEntry, error) {
	statuses := make([]string, 0, len(filter))
	for st := range filter {
		statuses = append(statuses, string(st))
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT learner_id, word_id, status, repetition_number, easiness_factor, interval_days, next_review_at, last_reviewed_at
		 FROM progress
		 WHERE learner_id = ? AND status IN (?) AND (status = 'new' OR next_review_at <= ?)
		 ORDER BY
			CASE status WHEN 'learning' THEN 0 WHEN 'review' THEN 1 WHEN 'new' THEN 2 ELSE 3 END,
			COALESCE(next_review_at, '0001-01-01'), word_id
		 LIMIT ?`,
		learnerID, statuses, at, limit)
	if err != nil {
		return nil, vocabInternal("progress.query_due", err)
	}

	var rows []progressRow
	if err := s.db.SelectContext(ctx, &rows, s.db.bindVar(query), args...); err != nil {
		return nil, vocabInternal("progress.query_due", err)
	}
	out := make([]vocab.ProgressEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toEntry()
	}
	return out, nil
}

// ByUnitExcludingMastered implements vocab.ProgressStore. The triage/
// unit-filter pool is {absent, New, Learning}: a word with no progress row
// yet (absent) is as eligible as one already New or Learning, and both
// Review and Mastered words are excluded. The query is rooted at words, not
// progress, with a LEFT JOIN, so a word the learner has never touched
// still produces a row (synthesized as status 'new' with this store's
// configured efMax) instead of silently vanishing the way an INNER JOIN
// would drop it.
func (s *ProgressStore) ByUnitExcludingMastered(ctx context.Context, learnerID int64, unit int) ([]vocab.ProgressEntry, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows, s.db.bindVar(
		`SELECT ? AS learner_id, w.id AS word_id, COALESCE(p.status, 'new') AS status,
			COALESCE(p.repetition_number, 0) AS repetition_number,
			COALESCE(p.easiness_factor, ?) AS easiness_factor,
			COALESCE(p.interval_days, 0) AS interval_days,
			p.next_review_at AS next_review_at, p.last_reviewed_at AS last_reviewed_at
		 FROM words w
		 LEFT JOIN progress p ON p.word_id = w.id AND p.learner_id = ?
		 WHERE w.unit = ? AND (p.status IS NULL OR p.status IN ('new', 'learning'))`),
		learnerID, s.efMax, learnerID, unit)
	if err != nil {
		return nil, vocabInternal("progress.by_unit_excluding_mastered", err)
	}
	out := make([]vocab.ProgressEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toEntry()
	}
	return out, nil
}

// ByUnitLearned implements vocab.ProgressStore.
func (s *ProgressStore) ByUnitLearned(ctx context.Context, learnerID int64, unit int) ([]vocab.ProgressEntry, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows, s.db.bindVar(
		`SELECT p.learner_id, p.word_id, p.status, p.repetition_number, p.easiness_factor, p.interval_days, p.next_review_at, p.last_reviewed_at
		 FROM progress p JOIN words w ON w.id = p.word_id
		 WHERE p.learner_id = ? AND w.unit = ? AND p.status IN ('review', 'mastered')`),
		learnerID, unit)
	if err != nil {
		return nil, vocabInternal("progress.by_unit_learned", err)
	}
	out := make([]vocab.ProgressEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toEntry()
	}
	return out, nil
}

// CountByUnit implements vocab.ProgressStore.
func (s *ProgressStore) CountByUnit(ctx context.Context, learnerID int64) (map[int]vocab.UnitCounts, error) {
	var totalRows []struct {
		Unit  int `db:"unit"`
		Total int `db:"total"`
	}
	if err := s.db.SelectContext(ctx, &totalRows, s.db.bindVar(
		`SELECT unit, COUNT(*) AS total FROM words GROUP BY unit`)); err != nil {
		return nil, vocabInternal("stats.by_unit", err)
	}

	counts := make(map[int]vocab.UnitCounts, len(totalRows))
	for _, r := range totalRows {
		counts[r.Unit] = vocab.UnitCounts{Unit: r.Unit, Total: r.Total}
	}

	var progressRows []struct {
		Unit   int    `db:"unit"`
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &progressRows, s.db.bindVar(
		`SELECT w.unit AS unit, p.status AS status, COUNT(*) AS n
		 FROM progress p JOIN words w ON w.id = p.word_id
		 WHERE p.learner_id = ? GROUP BY w.unit, p.status`), learnerID); err != nil {
		return nil, vocabInternal("stats.by_unit", err)
	}
	for _, r := range progressRows {
		uc := counts[r.Unit]
		switch vocab.Status(r.Status) {
		case vocab.StatusReview:
			uc.Reviewed = r.N
		case vocab.StatusMastered:
			uc.Mastered = r.N
		}
		counts[r.Unit] = uc
	}
	return counts, nil
}
