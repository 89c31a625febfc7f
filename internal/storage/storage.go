package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id           TEXT PRIMARY KEY,
    type         TEXT NOT NULL,
    payload      TEXT NOT NULL DEFAULT '{}',
    status       TEXT NOT NULL DEFAULT 'pending',
    priority     INTEGER NOT NULL DEFAULT 100,
    retry_count  INTEGER NOT NULL DEFAULT 0,
    max_retries  INTEGER NOT NULL DEFAULT 3,
    next_run_at  TEXT NOT NULL,
    last_error   TEXT,
    started_at   TEXT,
    completed_at TEXT,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs (status, next_run_at, priority);

CREATE TABLE IF NOT EXISTS catalog_entries (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    url                  TEXT NOT NULL UNIQUE,
    source_type          TEXT NOT NULL DEFAULT 'unknown',
    topics               TEXT NOT NULL DEFAULT '[]',
    approved             INTEGER NOT NULL DEFAULT 0,
    active               INTEGER NOT NULL DEFAULT 1,
    consecutive_failures INTEGER NOT NULL DEFAULT 0,
    last_fetched_at      TEXT,
    capabilities         TEXT NOT NULL DEFAULT '{}',
    metadata             TEXT NOT NULL DEFAULT '{}',
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_catalog_active ON catalog_entries (active, consecutive_failures);

CREATE TABLE IF NOT EXISTS items (
    id           TEXT PRIMARY KEY,
    entry_id     TEXT NOT NULL REFERENCES catalog_entries(id),
    title        TEXT NOT NULL,
    url          TEXT NOT NULL,
    excerpt      TEXT NOT NULL DEFAULT '',
    full_content TEXT NOT NULL DEFAULT '',
    doi          TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    source_type  TEXT NOT NULL DEFAULT 'unknown',
    published_at TEXT,
    metrics      TEXT NOT NULL DEFAULT '{}',
    score        TEXT NOT NULL DEFAULT '{}',
    scored_at    TEXT,
    created_at   TEXT NOT NULL,
    UNIQUE (entry_id, url)
);
`

// Open initializes or connects to the embedded database and applies the schema.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

// OpenMemory opens a throwaway in-memory database, used by tests.
func OpenMemory() (*sqlx.DB, error) {
	return Open(":memory:")
}
