package store

import (
	"context"
	"sort"
	"sync"

	"book-recommender/internal/embeddings"
)

// MemoryStore is an exact cosine-similarity index held in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveDocuments(_ context.Context, docs []Document) error {
	cp := make([]Document, len(docs))
	copy(cp, docs)
	s.mu.Lock()
	s.docs = cp
	s.mu.Unlock()
	return nil
}

// TopK scans every document. Equal scores keep insertion order.
func (s *MemoryStore) TopK(ctx context.Context, vector embeddings.Vector, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.docs))
	for i, d := range s.docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results = append(results, SearchResult{
			Document: d,
			Score:    embeddings.CosineSimilarity(vector, d.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *MemoryStore) Digest(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Digest(s.docs), nil
}
