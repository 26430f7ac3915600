// Package index embeds the description corpus and loads it into a vector store.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"book-recommender/internal/corpus"
	"book-recommender/internal/embeddings"
	"book-recommender/internal/store"
)

// Options tunes Build.
type Options struct {
	BatchSize   int
	Concurrency int
	Model       string
	// Reuse skips embedding when the store already holds exactly these chunks
	// embedded with Model.
	Reuse bool
}

// Build embeds every chunk and writes the full set to st with a single SaveDocuments call.
// It reports whether st was rewritten. An embedding failure returns before st is modified.
func Build(ctx context.Context, log *slog.Logger, embedder embeddings.Embedder, st store.Store, chunks []corpus.Chunk, opts Options) (bool, error) {
	if len(chunks) == 0 {
		return false, fmt.Errorf("description corpus is empty")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 256
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	if opts.Reuse {
		current, err := upToDate(ctx, st, chunks, opts.Model)
		if err != nil {
			return false, err
		}
		if current {
			log.Info("reusing stored embeddings", "documents", len(chunks), "model", opts.Model)
			return false, nil
		}
		log.Info("stored embeddings out of date, rebuilding", "model", opts.Model)
	}

	start := time.Now()
	docs := make([]store.Document, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for from := 0; from < len(chunks); from += opts.BatchSize {
		to := min(from+opts.BatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, to-from)
			for i, c := range chunks[from:to] {
				texts[i] = c.Text
			}
			vectors, err := embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed documents %d-%d: %w", from, to, err)
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("embed documents %d-%d: got %d vectors", from, to, len(vectors))
			}
			for i, c := range chunks[from:to] {
				docs[from+i] = store.Document{
					Index:  c.Index,
					Text:   c.Text,
					Vector: vectors[i],
					Model:  opts.Model,
				}
			}
			log.Debug("embedded batch", "from", from, "to", to)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	if err := st.SaveDocuments(ctx, docs); err != nil {
		return false, fmt.Errorf("save documents: %w", err)
	}
	log.Info("embedding index built", "documents", len(docs), "duration_ms", time.Since(start).Milliseconds())
	return true, nil
}

// upToDate reports whether st holds exactly chunks embedded with model.
func upToDate(ctx context.Context, st store.Store, chunks []corpus.Chunk, model string) (bool, error) {
	n, err := st.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count stored documents: %w", err)
	}
	if n != len(chunks) {
		return false, nil
	}
	stored, err := st.Digest(ctx)
	if err != nil {
		return false, fmt.Errorf("digest stored documents: %w", err)
	}
	want := make([]store.Document, len(chunks))
	for i, c := range chunks {
		want[i] = store.Document{Index: c.Index, Text: c.Text, Model: model}
	}
	return stored == store.Digest(want), nil
}
