// Package cache deduplicates VLM work across identical screens: descriptions
// are keyed by frame fingerprint and task so a request for a screen that has
// not changed is served from Redis instead of the model. Only derived text
// is cached, never pixels.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "vision:describe:"

type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New returns a description cache. A nil redis client disables caching;
// every lookup misses and every store is a no-op.
func New(redisClient *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
	}
}

func (c *Cache) Enabled() bool {
	return c.redis != nil
}

// Key builds the cache key for a fingerprint hash and task focus.
func Key(fingerprintHash, task string) string {
	if task == "" {
		return keyPrefix + fingerprintHash
	}
	return fmt.Sprintf("%s%s:%s", keyPrefix, fingerprintHash, task)
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c.redis == nil {
		return "", false
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Warn("cache lookup failed", "error", err)
		return "", false
	}

	c.logger.Debug("cache hit", "key", key)
	return val, true
}

func (c *Cache) Set(ctx context.Context, key, description string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, description, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", "error", err)
	}
}

// Clear drops all cached descriptions.
func (c *Cache) Clear(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
