package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storelinehq/storeline-api/internal/obs"
)

// Cache wraps Redis helpers for JSON payloads. A nil client disables caching,
// which keeps tests and degraded deployments working against the store alone.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a cache helper with the given default TTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key
// existed. Unmarshal failures are treated as misses so a stale shape never
// poisons reads.
func (c *Cache) GetJSON(ctx context.Context, entity, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			lookupResult(entity, "miss")
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		lookupResult(entity, "miss")
		return false, nil
	}
	lookupResult(entity, "hit")
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate removes the given keys, ignoring missing entries.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func lookupResult(entity, result string) {
	if obs.CacheLookupTotal == nil || entity == "" {
		return
	}
	obs.CacheLookupTotal.WithLabelValues(entity, result).Inc()
}
