package embeddings

import (
	"context"
	"math"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder defines the embedding interface. EmbedBatch returns vectors in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths, empty or zero vectors score 0.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
