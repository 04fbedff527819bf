// Package store archives output tables in SQLite so runs can be listed and
// reloaded later.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	mode       TEXT NOT NULL DEFAULT '',
	records    INTEGER NOT NULL DEFAULT 0,
	columns    TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS results (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	taxsimid INTEGER NOT NULL,
	field    TEXT NOT NULL,
	value    REAL,
	UNIQUE(run_id, position, field)
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
`

// DB wraps a sql.DB with archive operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite archive and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	err = conn.Ping()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	_, err = conn.Exec(schemaSQL)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
