package cache

import (
	"context"
	"time"
)

// NoOpCache is the default when CACHE_PROVIDER=none: every lookup misses.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetRecommendation(ctx context.Context, key string) (*Recommendation, error) {
	return nil, nil
}

func (c *NoOpCache) SetRecommendation(ctx context.Context, key string, rec *Recommendation, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
