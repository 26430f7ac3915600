package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache stores recommendation results as ordered isbn13 lists.
type Cache interface {
	// GetRecommendation returns nil, nil on a miss.
	GetRecommendation(ctx context.Context, key string) (*Recommendation, error)

	SetRecommendation(ctx context.Context, key string, rec *Recommendation, ttl time.Duration) error

	// InvalidateAll drops every cached recommendation, e.g. after the index is rebuilt.
	InvalidateAll(ctx context.Context) error

	Close() error
}

// Recommendation is a cached, already filtered and ordered result.
type Recommendation struct {
	ISBNs []int64 `json:"isbns"`
}

// GenerateCacheKey hashes every input that affects a recommendation's order.
// query must be the exact text that gets embedded: embeddings are sensitive to
// case and spacing, so no normalisation happens here.
func GenerateCacheKey(query, category, tone string, initialK, finalK int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d", query, category, tone, initialK, finalK)))
	return hex.EncodeToString(sum[:])
}
