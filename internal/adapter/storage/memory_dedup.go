package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryDedupCache is the single-instance default dedup store: a
// mutex-guarded map with lazy expiry. Stale entries stay inert until
// overwritten; no eviction goroutine runs.
type MemoryDedupCache struct {
	mu  sync.RWMutex
	m   map[string]time.Time
	ttl time.Duration
	now func() time.Time
}

func NewMemoryDedupCache(ttl time.Duration) *MemoryDedupCache {
	return &MemoryDedupCache{
		m:   make(map[string]time.Time),
		ttl: ttl,
		now: time.Now,
	}
}

func (c *MemoryDedupCache) WasRecentlyUpdated(_ context.Context, inventoryItemID string) (bool, error) {
	c.mu.RLock()
	markedAt, ok := c.m[inventoryItemID]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return c.now().Sub(markedAt) < c.ttl, nil
}

func (c *MemoryDedupCache) MarkUpdated(_ context.Context, inventoryItemID string) error {
	c.mu.Lock()
	c.m[inventoryItemID] = c.now()
	c.mu.Unlock()
	return nil
}
