package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/database"
)

var _ Store = (*Postgres)(nil)

// Postgres stores entries in the chart_cache table
type Postgres struct {
	db *database.DB
}

// NewPostgres wraps an open connection pool
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the chart_cache table when it does not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS chart_cache (
			cache_key  VARCHAR(100) PRIMARY KEY,
			data_json  TEXT        NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.db.Pool.Exec(ctx, query); err != nil {
		return wrapErr("create chart_cache", err)
	}
	return nil
}

// Upsert writes key in a single INSERT ... ON CONFLICT statement
func (p *Postgres) Upsert(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO chart_cache (cache_key, data_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (cache_key) DO UPDATE SET
			data_json = EXCLUDED.data_json,
			updated_at = NOW()
	`

	if _, err := p.db.Pool.Exec(ctx, query, key, string(data)); err != nil {
		return wrapErr(fmt.Sprintf("upsert %s", key), err)
	}
	return nil
}

// Get reads the entry for key
func (p *Postgres) Get(ctx context.Context, key string) (*contracts.CacheEntry, error) {
	query := `
		SELECT cache_key, data_json, updated_at
		FROM chart_cache
		WHERE cache_key = $1
	`

	var entry contracts.CacheEntry
	var data string
	err := p.db.Pool.QueryRow(ctx, query, key).Scan(&entry.Key, &data, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get %s", key), err)
	}

	entry.Data = []byte(data)
	return &entry, nil
}

// Close closes the pool
func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
