// Package store persists aggregate fragments in a durable key/value store.
//
// Every backend writes one key with a single atomic statement (an upsert or a
// whole-value SET), so concurrent writers race as last-writer-wins and a
// reader never sees a partially written entry.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/database"
	"github.com/wonny/dietdash/pkg/logger"
	"github.com/wonny/dietdash/pkg/redis"
)

// ErrNotFound is returned by Get when the key has never been written
var ErrNotFound = errors.New("cache entry not found")

// Store is the durable key/value persistence used by the freshness cache
// ⭐ SSOT: persisted aggregates are read and written only through this interface
type Store interface {
	// Upsert creates or overwrites the entry for key
	Upsert(ctx context.Context, key string, data []byte) error

	// Get returns the entry for key or ErrNotFound
	Get(ctx context.Context, key string) (*contracts.CacheEntry, error)

	// Close releases the backend connection
	Close() error
}

// Open creates the backend selected by cfg.Store.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	log = log.WithField("driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s := NewPostgres(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Durable store ready")
		return s, nil

	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.Store.SQLitePath).Info("Durable store ready")
		return s, nil

	case "redis":
		rcfg := cfg.Redis
		rcfg.Enabled = true
		client, err := redis.New(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("Durable store ready")
		return NewRedis(client, "dietdash"), nil

	case "memory":
		log.Warn("Using in-memory store; aggregates will not survive restarts")
		return NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, contracts.ErrDurableStore, err)
}
