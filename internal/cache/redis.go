// Package cache wraps the redis client with the key layouts the API relies on:
// one-time passwords, revoked tokens, rate limit counters and read-through
// copies of catalog and wishlist data.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Client() *redis.Client {
	return c.rdb
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// --- Blacklist JWT ---

func (c *Cache) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, "blacklist:"+tokenID, "revoked", ttl).Err()
}

func (c *Cache) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, "blacklist:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Rate limiting ---

// IncrementRateLimit bumps the counter at key and returns the new value. The
// window starts with the first hit.
func (c *Cache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *Cache) RateLimitTTL(ctx context.Context, key string) time.Duration {
	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

// --- JSON values ---

func (c *Cache) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// getJSON reports false on a miss or an undecodable value.
func (c *Cache) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if json.Unmarshal(data, v) != nil {
		return false, nil
	}
	return true, nil
}

func (c *Cache) del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func key(prefix, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}
