package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/dietdash/internal/contracts"
)

var _ Store = (*SQLite)(nil)

// SQLite stores entries in a local database file (the default backend)
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and its schema
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapErr("open sqlite", err)
	}
	// a single writer connection avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapErr("ping sqlite", err)
	}

	s := &SQLite{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS chart_cache (
			cache_key  TEXT PRIMARY KEY,
			data_json  TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return wrapErr("create chart_cache", err)
	}
	return nil
}

// Upsert writes key in a single INSERT ... ON CONFLICT statement
func (s *SQLite) Upsert(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO chart_cache (cache_key, data_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			data_json = excluded.data_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, query, key, string(data), now); err != nil {
		return wrapErr(fmt.Sprintf("upsert %s", key), err)
	}
	return nil
}

// Get reads the entry for key
func (s *SQLite) Get(ctx context.Context, key string) (*contracts.CacheEntry, error) {
	query := `SELECT cache_key, data_json, updated_at FROM chart_cache WHERE cache_key = ?`

	var entry contracts.CacheEntry
	var data, updated string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get %s", key), err)
	}

	entry.Data = []byte(data)
	entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("parse updated_at of %s", key), err)
	}
	return &entry, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
