package store

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/dietdash/internal/contracts"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local Store
type Memory struct {
	mu      sync.RWMutex
	entries map[string]contracts.CacheEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]contracts.CacheEntry),
		now:     time.Now,
	}
}

// Upsert stores a private copy of data under key
func (m *Memory) Upsert(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("upsert", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = contracts.CacheEntry{
		Key:       key,
		Data:      append([]byte(nil), data...),
		UpdatedAt: m.now().UTC(),
	}
	return nil
}

// Get returns a copy of the entry for key
func (m *Memory) Get(ctx context.Context, key string) (*contracts.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("get", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	entry.Data = append([]byte(nil), entry.Data...)
	return &entry, nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
