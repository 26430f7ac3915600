package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"book-recommender/internal/corpus"
	"book-recommender/internal/embeddings"
	"book-recommender/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleChunks() []corpus.Chunk {
	return corpus.SplitLines("1 first book\n2 second book\n3 third book\n")
}

func TestBuildEmbedsInBatchesAndSavesAll(t *testing.T) {
	e := new(embeddings.MockEmbedder)
	e.On("EmbedBatch", mock.Anything, []string{"1 first book", "2 second book"}).
		Return([]embeddings.Vector{{1, 0}, {0, 1}}, nil).Once()
	e.On("EmbedBatch", mock.Anything, []string{"3 third book"}).
		Return([]embeddings.Vector{{1, 1}}, nil).Once()

	st := store.NewMemory()
	built, err := Build(context.Background(), discardLogger(), e, st, sampleChunks(), Options{BatchSize: 2, Concurrency: 2, Model: "test-model"})
	require.NoError(t, err)
	assert.True(t, built)
	e.AssertExpectations(t)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := st.TopK(context.Background(), embeddings.Vector{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2 second book", results[0].Document.Text)
	assert.Equal(t, "test-model", results[0].Document.Model)
}

func TestBuildEmbeddingFailureLeavesStoreUntouched(t *testing.T) {
	e := new(embeddings.MockEmbedder)
	e.On("EmbedBatch", mock.Anything, mock.Anything).Return(nil, errors.New("provider unreachable"))

	st := new(store.MockStore)
	_, err := Build(context.Background(), discardLogger(), e, st, sampleChunks(), Options{BatchSize: 1, Concurrency: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unreachable")
	st.AssertNotCalled(t, "SaveDocuments", mock.Anything, mock.Anything)
}

func TestBuildRejectsShortBatch(t *testing.T) {
	e := new(embeddings.MockEmbedder)
	e.On("EmbedBatch", mock.Anything, mock.Anything).Return([]embeddings.Vector{{1}}, nil)

	st := new(store.MockStore)
	_, err := Build(context.Background(), discardLogger(), e, st, sampleChunks(), Options{BatchSize: 3})
	require.Error(t, err)
	st.AssertNotCalled(t, "SaveDocuments", mock.Anything, mock.Anything)
}

func TestBuildEmptyCorpus(t *testing.T) {
	_, err := Build(context.Background(), discardLogger(), new(embeddings.MockEmbedder), store.NewMemory(), nil, Options{})
	assert.Error(t, err)
}

// digestOf is the digest of chunks as they would be stored with model.
func digestOf(chunks []corpus.Chunk, model string) string {
	docs := make([]store.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = store.Document{Index: c.Index, Text: c.Text, Model: model}
	}
	return store.Digest(docs)
}

func TestBuildReusesStoredEmbeddings(t *testing.T) {
	e := new(embeddings.MockEmbedder)
	st := new(store.MockStore)
	st.On("Count", mock.Anything).Return(3, nil).Once()
	st.On("Digest", mock.Anything).Return(digestOf(sampleChunks(), "test-model"), nil).Once()

	built, err := Build(context.Background(), discardLogger(), e, st, sampleChunks(), Options{Reuse: true, Model: "test-model"})
	require.NoError(t, err)
	assert.False(t, built)
	st.AssertExpectations(t)
	e.AssertNotCalled(t, "EmbedBatch", mock.Anything, mock.Anything)
}

func TestBuildReindexesStaleStore(t *testing.T) {
	edited := corpus.SplitLines("1 first book\n2 second book, revised\n3 third book\n")

	tests := []struct {
		name   string
		count  int
		digest string
	}{
		{name: "count differs", count: 1},
		{name: "model changed", count: 3, digest: digestOf(sampleChunks(), "old-model")},
		{name: "corpus edited in place", count: 3, digest: digestOf(edited, "test-model")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := new(embeddings.MockEmbedder)
			e.On("EmbedBatch", mock.Anything, mock.Anything).
				Return([]embeddings.Vector{{1}, {2}, {3}}, nil).Once()
			st := new(store.MockStore)
			st.On("Count", mock.Anything).Return(tt.count, nil).Once()
			if tt.digest != "" {
				st.On("Digest", mock.Anything).Return(tt.digest, nil).Once()
			}
			st.On("SaveDocuments", mock.Anything, mock.MatchedBy(func(docs []store.Document) bool {
				return len(docs) == 3 && docs[2].Text == "3 third book" && docs[0].Model == "test-model"
			})).Return(nil).Once()

			built, err := Build(context.Background(), discardLogger(), e, st, sampleChunks(), Options{Reuse: true, Model: "test-model"})
			require.NoError(t, err)
			assert.True(t, built)
			st.AssertExpectations(t)
			e.AssertExpectations(t)
		})
	}
}

func TestBuildReuseAgainstMemoryStore(t *testing.T) {
	e := new(embeddings.MockEmbedder)
	e.On("EmbedBatch", mock.Anything, mock.Anything).
		Return([]embeddings.Vector{{1}, {2}, {3}}, nil).Twice()
	st := store.NewMemory()
	ctx := context.Background()

	built, err := Build(ctx, discardLogger(), e, st, sampleChunks(), Options{Reuse: true, Model: "model-a"})
	require.NoError(t, err)
	assert.True(t, built)

	built, err = Build(ctx, discardLogger(), e, st, sampleChunks(), Options{Reuse: true, Model: "model-a"})
	require.NoError(t, err)
	assert.False(t, built)

	built, err = Build(ctx, discardLogger(), e, st, sampleChunks(), Options{Reuse: true, Model: "model-b"})
	require.NoError(t, err)
	assert.True(t, built)
	e.AssertExpectations(t)
}
