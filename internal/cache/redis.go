package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "recommend:"

	// invalidateBatch bounds how many keys a single UNLINK carries.
	invalidateBatch = 500
)

var _ Cache = (*RedisCache)(nil)

// RedisCache keeps recommendations as JSON strings under keyPrefix.
type RedisCache struct {
	rdb redis.UniversalClient
}

// NewRedisCache connects to addr and fails fast if the server does not answer PING.
func NewRedisCache(addr, password string) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisCacheFromClient(rdb), nil
}

// NewRedisCacheFromClient wraps an existing client, e.g. a cluster or sentinel client.
func NewRedisCacheFromClient(rdb redis.UniversalClient) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) GetRecommendation(ctx context.Context, key string) (*Recommendation, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis get: %w", err)
	}

	rec := new(Recommendation)
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode cached recommendation: %w", err)
	}
	return rec, nil
}

// SetRecommendation stores rec; a zero ttl keeps it until the next InvalidateAll.
func (c *RedisCache) SetRecommendation(ctx context.Context, key string, rec *Recommendation, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode recommendation: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	batch := make([]string, 0, invalidateBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.rdb.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	it := c.rdb.Scan(ctx, 0, keyPrefix+"*", invalidateBatch).Iterator()
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == invalidateBatch {
			if err := flush(); err != nil {
				return fmt.Errorf("redis unlink: %w", err)
			}
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("redis unlink: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
