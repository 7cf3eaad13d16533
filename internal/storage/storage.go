package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS guests (
	phone           TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	opted_in        INTEGER NOT NULL DEFAULT 1,
	language        TEXT,
	side            TEXT,
	rsvp_status     TEXT NOT NULL DEFAULT '',
	rsvp_count      INTEGER,
	first_seen_at   INTEGER NOT NULL,
	last_inbound_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS broadcasts (
	id           TEXT PRIMARY KEY,
	topic        TEXT NOT NULL,
	message      TEXT NOT NULL,
	translations TEXT NOT NULL DEFAULT '{}',
	status       TEXT NOT NULL,
	sent_count   INTEGER NOT NULL DEFAULT 0,
	failed_count INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS message_logs (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	phone               TEXT NOT NULL,
	direction           TEXT NOT NULL,
	body                TEXT NOT NULL,
	provider_message_id TEXT,
	status              TEXT,
	broadcast_id        TEXT,
	error               TEXT,
	created_at          INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_logs_phone ON message_logs (phone, created_at);
CREATE INDEX IF NOT EXISTS idx_message_logs_provider ON message_logs (provider_message_id);
CREATE INDEX IF NOT EXISTS idx_message_logs_broadcast ON message_logs (broadcast_id);
`

// Storage persists guests, broadcasts and the delivery log in SQLite
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// NewStorage opens (creating if needed) the SQLite database at filePath
func NewStorage(filePath string) (*Storage, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	// Ensure directory exists
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", filepath.Clean(filePath))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time keeps SQLite free of SQLITE_BUSY under concurrent webhooks
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, now: time.Now}, nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
