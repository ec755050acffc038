// Package db provides the SQLite-backed job history for the current session.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the history in memory for the lifetime of the process
const MemoryDSN = ":memory:"

// Sentinel errors
var (
	ErrNotFound     = errors.New("job not found")
	ErrJobFinalized = errors.New("job already finalized")
)

// DB wraps the SQLite connection
type DB struct {
	sql *sql.DB
}

// Open opens dsn (MemoryDSN when empty) and applies migrations
func Open(ctx context.Context, dsn string) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = MemoryDSN
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// an in-memory database exists per connection, so everything shares one
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if dsn != MemoryDSN {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	db := &DB{sql: conn}
	if err := db.applyMigrations(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection
func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	return db.sql.Close()
}
