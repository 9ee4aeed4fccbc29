// Package storage holds the sqlx/lib/pq-backed persistence layer that
// implements the narrow store interfaces declared in pkg/vocab, plus an
// in-memory variant of each (the sqlite-backed local dev mode uses the SQL
// stores, not these): a single connection wrapper, one file per aggregate, a
// CREATE TABLE IF NOT EXISTS schema bootstrap.
package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a sqlx connection shared by every repository in this package.
// Unlike a package-level *sqlx.DB global, this is passed explicitly into
// each repository constructor so tests can swap in a throwaway sqlite
// connection without touching shared state.
type DB struct {
	*sqlx.DB
	driver string
}

// Open connects to driver ("postgres" or "sqlite3") at dsn and applies the
// schema. Postgres is the production driver; sqlite3 backs local dev and
// integration tests, with every query dispatched on db.driver so the same
// repository code serves both.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("storage: enable foreign keys: %w", err)
		}
		conn.SetMaxOpenConns(1)
	}

	db := &DB{DB: conn, driver: driver}
	if err := db.migrate(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	stmt := schemaSQL
	if db.driver == "sqlite3" {
		stmt = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.DB.Close()
}

// bindVar rewrites a "?"-placeholder query to the driver's native bind
// style, centralized so every repository shares one implementation instead
// of each repeating its own driver-name dispatch.
func (db *DB) bindVar(query string) string {
	return sqlx.Rebind(sqlx.BindType(db.driver), query)
}
