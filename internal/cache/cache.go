// Package cache provides a small read-through cache for dashboard
// stats. Redis is used when configured; otherwise an in-process map
// with the same TTL semantics keeps single-node deployments working
// without extra infrastructure.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"genome-ai/internal/logging"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache stores JSON-serializable values with a TTL
type Cache struct {
	redis *redis.Client

	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// New connects to Redis at redisURL, or falls back to in-memory when
// the URL is empty or the connection fails.
func New(ctx context.Context, redisURL string) *Cache {
	c := &Cache{entries: make(map[string]memEntry)}

	if redisURL == "" {
		logging.L().Info("Cache running in-memory (REDIS_URL not set)")
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logging.L().Warn("Invalid REDIS_URL, using in-memory cache", zap.Error(err))
		return c
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.L().Warn("Redis unreachable, using in-memory cache", zap.Error(err))
		_ = client.Close()
		return c
	}

	logging.L().Info("Cache connected to Redis")
	c.redis = client
	return c
}

// Get unmarshals the cached value for key into dest. Returns false on
// miss or decode failure.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	var data []byte

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err != nil {
			return false
		}
		data = raw
	} else {
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if !ok || time.Now().After(entry.expiresAt) {
			return false
		}
		data = entry.data
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

// Set stores value under key for the given TTL. Failures are logged
// and otherwise ignored; the cache is never load-bearing.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.L().Warn("Cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
			logging.L().Warn("Cache set failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	c.entries[key] = memEntry{data: data, expiresAt: time.Now().Add(ttl)}
	// opportunistic cleanup of expired neighbors
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Delete removes a key
func (c *Cache) Delete(ctx context.Context, key string) {
	if c.redis != nil {
		_ = c.redis.Del(ctx, key).Err()
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Close releases the Redis connection if one exists
func (c *Cache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
