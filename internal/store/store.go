// Package store contains the SQLite-backed request and knowledge stores.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no record exists for the given ID.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when a lifecycle transition is illegal,
	// e.g. resolving a request that is no longer pending.
	ErrInvalidState = errors.New("invalid state")
)

const schema = `
CREATE TABLE IF NOT EXISTS help_requests (
	id                TEXT PRIMARY KEY,
	question          TEXT NOT NULL,
	customer_id       TEXT NOT NULL,
	customer_phone    TEXT,
	customer_name     TEXT,
	context           TEXT NOT NULL DEFAULT '{}',
	status            TEXT NOT NULL DEFAULT 'pending',
	supervisor_answer TEXT,
	supervisor_id     TEXT,
	created_at        TIMESTAMP NOT NULL,
	resolved_at       TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_help_requests_status ON help_requests(status);
CREATE INDEX IF NOT EXISTS idx_help_requests_created ON help_requests(created_at);

CREATE TABLE IF NOT EXISTS knowledge_entries (
	id          TEXT PRIMARY KEY,
	question    TEXT NOT NULL,
	answer      TEXT NOT NULL,
	source      TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '[]',
	usage_count INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_knowledge_created ON knowledge_entries(created_at);
`

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. The parent directory is created if missing.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}
