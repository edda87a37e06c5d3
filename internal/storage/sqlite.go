// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SchemaVersion tracks the kv schema for future migrations.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    collection TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL  -- Unix milliseconds
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore keeps every collection as one row of a kv table.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// pointing at the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, opError("get", collection, ErrUnavailable)
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE collection = ?", collection).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, opError("get", collection, ErrNotFound)
	}
	if err != nil {
		return nil, opError("get", collection, classify(err))
	}
	return value, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, collection string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return opError("set", collection, ErrUnavailable)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (collection, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		collection, value, time.Now().UnixMilli())
	if err != nil {
		return opError("set", collection, classify(err))
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, collection string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return opError("delete", collection, ErrUnavailable)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE collection = ?", collection); err != nil {
		return opError("delete", collection, classify(err))
	}
	return nil
}

// Close implements Store. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// classify maps SQLite result codes onto the package sentinels so callers
// can branch with errors.Is.
func classify(err error) error {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return err
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_FULL:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
