package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"book-recommender/internal/embeddings"
)

// Document is one embedded tagged description.
type Document struct {
	Index  int
	Text   string
	Vector embeddings.Vector
	Model  string
}

type SearchResult struct {
	Document Document
	Score    float32
}

// Store is the vector index contract. TopK returns results by descending similarity.
type Store interface {
	// SaveDocuments replaces the stored set with docs.
	SaveDocuments(ctx context.Context, docs []Document) error
	TopK(ctx context.Context, vector embeddings.Vector, k int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	// Digest fingerprints the stored documents, see Digest.
	Digest(ctx context.Context) (string, error)
}

// Digest hashes the index, model and text of docs in order. Vectors are left out:
// the same text and model always embed to the same vector.
func Digest(docs []Document) string {
	h := sha256.New()
	for _, d := range docs {
		fmt.Fprintf(h, "%d\x00%s\x00%s\n", d.Index, d.Model, d.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
