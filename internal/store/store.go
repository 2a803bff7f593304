// Package store keeps the process-lifetime run ledger and text cache in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a named in-memory database shared by every connection of the process.
const DefaultDSN = "file:docintel?mode=memory&cache=shared"

// DB wraps the sqlite handle used by Ledger and TextCache.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens dsn, applies pragmas and creates the tables.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		dsn = DefaultDSN
	}
	logger.Debug("store.open", "dsn", dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:") {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &DB{db: db, logger: logger}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	task        TEXT NOT NULL,
	documents   INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS transitions (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id    TEXT NOT NULL REFERENCES batches(id),
	file        TEXT NOT NULL,
	state       TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	recorded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS text_cache (
	hash       TEXT PRIMARY KEY,
	method     TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transitions_batch_file ON transitions(batch_id, file);
`

// Ledger returns the run ledger view.
func (d *DB) Ledger() *Ledger { return &Ledger{db: d.db, logger: d.logger} }

// TextCache returns the sha256-keyed extraction cache.
func (d *DB) TextCache() *TextCache { return &TextCache{db: d.db} }

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) Close() error {
	d.logger.Debug("store.close")
	return d.db.Close()
}
