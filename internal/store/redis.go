package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/redis"
)

var _ Store = (*Redis)(nil)

// Redis stores each entry as one JSON envelope so data and updated_at are
// always replaced together
type Redis struct {
	client *redis.Client
	cache  *redis.Cache
}

type envelope struct {
	Data      string    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRedis creates a store on an enabled client
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		cache:  redis.NewCache(client, prefix),
	}
}

// Upsert overwrites key with a single SET and no expiry
func (r *Redis) Upsert(ctx context.Context, key string, data []byte) error {
	env := envelope{Data: string(data), UpdatedAt: time.Now().UTC()}
	if err := r.cache.Set(ctx, key, env, 0); err != nil {
		return wrapErr(fmt.Sprintf("upsert %s", key), err)
	}
	return nil
}

// Get reads the envelope for key
func (r *Redis) Get(ctx context.Context, key string) (*contracts.CacheEntry, error) {
	var env envelope
	found, err := r.cache.Get(ctx, key, &env)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get %s", key), err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return &contracts.CacheEntry{
		Key:       key,
		Data:      []byte(env.Data),
		UpdatedAt: env.UpdatedAt,
	}, nil
}

// Close closes the client
func (r *Redis) Close() error {
	return r.client.Close()
}
