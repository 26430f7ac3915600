package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedder calls OpenAI's embeddings API.
type OpenAIEmbedder struct {
	model  openai.EmbeddingModel
	client *openai.Client
}

const defaultEmbeddingTimeout = 60 * time.Second

// NewOpenAIEmbedder creates a new OpenAI embedder. Extra request options are
// appended after the API key, e.g. option.WithBaseURL for a proxy.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(2)}, opts...)...)
	return &OpenAIEmbedder{
		model:  model,
		client: &cli,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	if e == nil || e.client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultEmbeddingTimeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(reqCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([]Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		vec := make(Vector, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
