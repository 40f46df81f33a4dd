package pagecache

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "page:"

// Cache stores fully rendered page bodies in Redis for a short window so
// that repeated reads of hot listings skip templating and the database.
// A nil client disables caching entirely; every lookup is then a miss and
// writes are dropped.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is wired in.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Key builds the cache key for a request. The query string participates so
// that /?page=2 and /?page=1 are cached independently.
func (c *Cache) Key(path, query string) string {
	if query == "" {
		return keyPrefix + path
	}
	return keyPrefix + path + "?" + query
}

// Get returns the cached body for key, or ok=false on a miss. Redis errors
// are treated as misses so the page still renders.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	body, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			middleware.RedisErrors.WithLabelValues("pagecache_get").Inc()
			slog.Warn("page cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return body, true
}

// Set stores body under key for the configured TTL. Failures are logged and
// swallowed; serving the page matters more than caching it.
func (c *Cache) Set(ctx context.Context, key string, body []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("pagecache_set").Inc()
		slog.Warn("page cache write failed", "key", key, "error", err)
	}
}

// Clear removes every cached page. Keys are discovered with SCAN so a large
// cache does not block Redis the way KEYS would.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("pagecache_clear").Inc()
		return err
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}
