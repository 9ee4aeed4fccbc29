package storage

// sqliteSchema mirrors schema.sql's four tables in SQLite's dialect (no
// BIGSERIAL/JSONB/TIMESTAMPTZ, partial unique indexes expressed the same
// way SQLite supports them). Used for local dev and for tests that want a
// real SQL engine instead of the in-memory stores.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS words (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	unit            INTEGER NOT NULL,
	difficulty_rank INTEGER NOT NULL,
	source_form     TEXT NOT NULL,
	target_form     TEXT NOT NULL,
	audio_ref       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_words_unit ON words (unit);
CREATE INDEX IF NOT EXISTS idx_words_difficulty ON words (difficulty_rank, id);

CREATE TABLE IF NOT EXISTS progress (
	learner_id        INTEGER NOT NULL,
	word_id           INTEGER NOT NULL REFERENCES words (id),
	status            TEXT NOT NULL,
	repetition_number INTEGER NOT NULL DEFAULT 0,
	easiness_factor   REAL NOT NULL DEFAULT 2.5,
	interval_days     INTEGER NOT NULL DEFAULT 0,
	next_review_at    DATETIME,
	last_reviewed_at  DATETIME,
	PRIMARY KEY (learner_id, word_id)
);

CREATE INDEX IF NOT EXISTS idx_progress_due
	ON progress (learner_id, status, next_review_at, word_id);

CREATE TABLE IF NOT EXISTS placement_sessions (
	id             TEXT PRIMARY KEY,
	learner_id     INTEGER NOT NULL,
	current_min    INTEGER NOT NULL,
	current_max    INTEGER NOT NULL,
	question_count INTEGER NOT NULL DEFAULT 0,
	is_active      BOOLEAN NOT NULL DEFAULT 1,
	final_level    INTEGER,
	log            TEXT NOT NULL DEFAULT '[]',
	version        INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_placement_one_active
	ON placement_sessions (learner_id) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS daily_activity (
	learner_id      INTEGER PRIMARY KEY,
	streak          INTEGER NOT NULL DEFAULT 0,
	last_active_day DATETIME,
	today_count     INTEGER NOT NULL DEFAULT 0,
	today_day       DATETIME
);
`
