package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetRecommendation(ctx context.Context, key string) (*Recommendation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Recommendation), args.Error(1)
}

func (m *MockCache) SetRecommendation(ctx context.Context, key string, rec *Recommendation, ttl time.Duration) error {
	args := m.Called(ctx, key, rec, ttl)
	return args.Error(0)
}

func (m *MockCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
