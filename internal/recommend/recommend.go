// Package recommend turns a free-text description into an ordered list of catalog books.
//
// A Recommender is built once at startup from a loaded catalog, an embedder and a populated
// vector store, and is read-only afterwards. Each call to Recommend:
//
//  1. embeds the query and fetches InitialTopK nearest descriptions, keeping index order;
//  2. joins each description's leading isbn13 to the catalog, silently dropping misses;
//  3. keeps only the requested category (unless CategoryAll) and caps to FinalTopK;
//  4. re-sorts by the tone's emotion score, descending and stable.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"book-recommender/internal/cache"
	"book-recommender/internal/catalog"
	"book-recommender/internal/corpus"
	"book-recommender/internal/embeddings"
	"book-recommender/internal/store"
)

const (
	DefaultInitialTopK = 50
	DefaultFinalTopK   = 16
)

// Options sizes the candidate and result sets.
type Options struct {
	InitialTopK int
	FinalTopK   int
	CacheTTL    time.Duration
}

// Query is one recommendation request.
type Query struct {
	Text     string
	Category Category
	Tone     Tone
}

type Recommender struct {
	catalog  *catalog.Catalog
	embedder embeddings.Embedder
	store    store.Store
	cache    cache.Cache
	log      *slog.Logger
	opts     Options
}

// New builds a Recommender. A nil cache disables caching.
func New(cat *catalog.Catalog, embedder embeddings.Embedder, st store.Store, c cache.Cache, log *slog.Logger, opts Options) *Recommender {
	if opts.InitialTopK <= 0 {
		opts.InitialTopK = DefaultInitialTopK
	}
	if opts.FinalTopK <= 0 {
		opts.FinalTopK = DefaultFinalTopK
	}
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Recommender{
		catalog:  cat,
		embedder: embedder,
		store:    st,
		cache:    c,
		log:      log,
		opts:     opts,
	}
}

// Categories returns CategoryAll followed by the catalog's sorted categories.
func (r *Recommender) Categories() []Category {
	names := r.catalog.Categories()
	out := make([]Category, 0, len(names)+1)
	out = append(out, CategoryAll)
	for _, n := range names {
		out = append(out, Category(n))
	}
	return out
}

// ParseCategory accepts CategoryAll, empty (treated as CategoryAll) or a category present in the catalog.
func (r *Recommender) ParseCategory(s string) (Category, error) {
	if s == "" || s == string(CategoryAll) {
		return CategoryAll, nil
	}
	if !r.catalog.HasCategory(s) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return Category(s), nil
}

// Recommend returns at most FinalTopK books for q.
func (r *Recommender) Recommend(ctx context.Context, q Query) ([]catalog.Book, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	key := cache.GenerateCacheKey(text, string(q.Category), string(q.Tone), r.opts.InitialTopK, r.opts.FinalTopK)
	if cached, err := r.cache.GetRecommendation(ctx, key); err != nil {
		r.log.Warn("cache lookup failed", "err", err)
	} else if cached != nil {
		r.log.Debug("cache hit", "query", text)
		return r.lookupAll(cached.ISBNs), nil
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.store.TopK(ctx, vec, r.opts.InitialTopK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	candidates := r.join(results)
	books := Rank(candidates, q.Category, q.Tone, r.opts.FinalTopK)

	rec := &cache.Recommendation{ISBNs: make([]int64, len(books))}
	for i, b := range books {
		rec.ISBNs[i] = b.ISBN13
	}
	if err := r.cache.SetRecommendation(ctx, key, rec, r.opts.CacheTTL); err != nil {
		r.log.Warn("failed to cache recommendation", "err", err)
	}
	return books, nil
}

// join maps search results to catalog rows in similarity order, capped to InitialTopK.
// Unparsable, unknown and repeated identifiers are dropped.
func (r *Recommender) join(results []store.SearchResult) []catalog.Book {
	books := make([]catalog.Book, 0, len(results))
	seen := make(map[int64]bool, len(results))
	dropped := 0
	for _, res := range results {
		if len(books) == r.opts.InitialTopK {
			break
		}
		isbn, err := corpus.ISBN(res.Document.Text)
		if err != nil || seen[isbn] {
			dropped++
			continue
		}
		b, ok := r.catalog.Lookup(isbn)
		if !ok {
			dropped++
			continue
		}
		seen[isbn] = true
		books = append(books, b)
	}
	if dropped > 0 {
		r.log.Debug("dropped unmatched search results", "count", dropped)
	}
	return books
}

func (r *Recommender) lookupAll(isbns []int64) []catalog.Book {
	books := make([]catalog.Book, 0, len(isbns))
	for _, isbn := range isbns {
		if b, ok := r.catalog.Lookup(isbn); ok {
			books = append(books, b)
		}
	}
	return books
}

// Rank applies the category filter, caps to finalK and re-sorts by tone.
// candidates must already be in similarity order; ties in tone score keep that order.
// Rows with an empty category never match a specific category.
func Rank(candidates []catalog.Book, category Category, tone Tone, finalK int) []catalog.Book {
	out := make([]catalog.Book, 0, min(len(candidates), max(finalK, 0)))
	for _, b := range candidates {
		if len(out) >= finalK {
			break
		}
		if category != "" && category != CategoryAll && b.Category != string(category) {
			continue
		}
		out = append(out, b)
	}
	if tone.ranks() {
		sort.SliceStable(out, func(i, j int) bool {
			si, _ := tone.score(out[i])
			sj, _ := tone.score(out[j])
			return si > sj
		})
	}
	return out
}
