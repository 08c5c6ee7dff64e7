package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Cache operations on a disabled client
var ErrDisabled = errors.New("redis disabled")

// Cache stores JSON values under a key prefix
// ⭐ SSOT: key layout is "<prefix>:cache:<key>"
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the full Redis key for key
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get decodes the value stored under key into dest.
// found is false when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, ErrDisabled
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores value under key in one SET command. ttl 0 means no expiry.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return ErrDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	if err := c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}
