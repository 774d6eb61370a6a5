package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "dedup:item:"

// RedisDedupCache is the shared dedup store for multi-instance
// deployments, where a per-process map would weaken loop suppression
// to per-instance only. Expiry is delegated to Redis key TTLs.
type RedisDedupCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedupCache(client *redis.Client, ttl time.Duration) *RedisDedupCache {
	return &RedisDedupCache{client: client, ttl: ttl}
}

func (r *RedisDedupCache) WasRecentlyUpdated(ctx context.Context, inventoryItemID string) (bool, error) {
	n, err := r.client.Exists(ctx, dedupKeyPrefix+inventoryItemID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisDedupCache) MarkUpdated(ctx context.Context, inventoryItemID string) error {
	return r.client.Set(ctx, dedupKeyPrefix+inventoryItemID, 1, r.ttl).Err()
}
