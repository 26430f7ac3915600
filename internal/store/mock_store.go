package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"book-recommender/internal/embeddings"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveDocuments(ctx context.Context, docs []Document) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockStore) TopK(ctx context.Context, vector embeddings.Vector, k int) ([]SearchResult, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SearchResult), args.Error(1)
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Digest(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
