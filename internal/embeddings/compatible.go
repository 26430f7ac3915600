package embeddings

import (
	"context"
	"fmt"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompatibleEmbedder talks to any OpenAI-compatible embeddings endpoint
// (Ollama, LM Studio, vLLM) through langchaingo.
type CompatibleEmbedder struct {
	embedder lcembeddings.Embedder
}

// NewCompatibleEmbedder builds an embedder for host. An empty token is sent as "none"
// because local servers usually ignore it but the client requires one.
func NewCompatibleEmbedder(host, token, model string) (*CompatibleEmbedder, error) {
	if host == "" {
		return nil, fmt.Errorf("embedding host required")
	}
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := lcembeddings.NewEmbedder(client, lcembeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}
	return &CompatibleEmbedder{embedder: embedder}, nil
}

func (e *CompatibleEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return Vector(vec), nil
}

func (e *CompatibleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	raw, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("embedding host returned %d vectors for %d inputs", len(raw), len(texts))
	}
	out := make([]Vector, len(raw))
	for i, v := range raw {
		out[i] = Vector(v)
	}
	return out, nil
}
