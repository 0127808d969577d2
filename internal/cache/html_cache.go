package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the go-redis client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// HTMLCache keeps fetched pages in Redis for a fixed TTL.
type HTMLCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewHTMLCache(client RedisClient, ttl time.Duration) *HTMLCache {
	return &HTMLCache{client: client, ttl: ttl}
}

// Get reports found=false with a nil error on a miss.
func (c *HTMLCache) Get(ctx context.Context, url string) (string, bool, error) {
	html, err := c.client.Get(ctx, Key(url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return html, true, nil
}

func (c *HTMLCache) Set(ctx context.Context, url, html string) error {
	return c.client.Set(ctx, Key(url), html, c.ttl).Err()
}

// Key is the Redis key a page is stored under.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "html:" + hex.EncodeToString(hash[:])
}
