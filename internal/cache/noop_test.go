package cache

import (
	"context"
	"testing"
	"time"
)

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	var c Cache = NewNoOpCache()
	ctx := context.Background()

	result, err := c.GetRecommendation(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (cache miss), got %v", result)
	}

	err = c.SetRecommendation(ctx, "test-key", &Recommendation{ISBNs: []int64{9780002005883}}, time.Hour)
	if err != nil {
		t.Errorf("Expected no error on SetRecommendation, got %v", err)
	}

	// Still a miss: nothing was stored
	result, err = c.GetRecommendation(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (no-op cache doesn't store), got %v", result)
	}

	if err := c.InvalidateAll(ctx); err != nil {
		t.Errorf("Expected no error on InvalidateAll, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected no error on Close, got %v", err)
	}
}

func TestGenerateCacheKey(t *testing.T) {
	base := GenerateCacheKey("A story about forgiveness", "All", "Happy", 50, 16)

	if got := GenerateCacheKey("A story about forgiveness", "All", "Happy", 50, 16); got != base {
		t.Errorf("expected stable key, got %s vs %s", got, base)
	}

	variants := []string{
		GenerateCacheKey("a story about forgiveness", "All", "Happy", 50, 16),
		GenerateCacheKey("A STORY ABOUT FORGIVENESS", "All", "Happy", 50, 16),
		GenerateCacheKey("A story  about forgiveness", "All", "Happy", 50, 16),
		GenerateCacheKey("A story about revenge", "All", "Happy", 50, 16),
		GenerateCacheKey("A story about forgiveness", "Fiction", "Happy", 50, 16),
		GenerateCacheKey("A story about forgiveness", "All", "Sad", 50, 16),
		GenerateCacheKey("A story about forgiveness", "All", "Happy", 40, 16),
		GenerateCacheKey("A story about forgiveness", "All", "Happy", 50, 8),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
	if len(base) != 64 {
		t.Errorf("expected hex sha256 key, got %q", base)
	}
}
