package gen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"campusnet/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache memoizes successful generations in Redis. A nil client (Redis
// unreachable at startup) turns every operation into a no-op; the caller
// degrades to direct generation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis at addr and returns the cache. When Redis is
// unreachable the returned cache is disabled rather than failing startup.
func NewCache(addr string, ttl time.Duration) *Cache {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
			return &Cache{ttl: ttl}
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		return &Cache{ttl: ttl}
	}

	return &Cache{client: client, ttl: ttl}
}

// NewCacheWithClient wraps an existing client. Used by tests.
func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func key(kind, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "gen:" + kind + ":" + hex.EncodeToString(sum[:8])
}

// Get returns the memoized text for the prompt, if present.
func (c *Cache) Get(ctx context.Context, kind, prompt string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	text, err := c.client.Get(ctx, key(kind, prompt)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues("get").Inc()
		}
		return "", false
	}
	return text, true
}

// Put memoizes the text for the prompt. Failures are counted and ignored.
func (c *Cache) Put(ctx context.Context, kind, prompt, text string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key(kind, prompt), text, c.ttl).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("set").Inc()
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
