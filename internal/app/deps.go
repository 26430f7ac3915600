package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"book-recommender/internal/cache"
	"book-recommender/internal/catalog"
	"book-recommender/internal/config"
	"book-recommender/internal/corpus"
	"book-recommender/internal/embeddings"
	"book-recommender/internal/index"
	"book-recommender/internal/logger"
	"book-recommender/internal/recommend"
	"book-recommender/internal/store"
)

// Deps bundles the read-only state the dashboard serves from.
type Deps struct {
	Config      config.Config
	Log         *slog.Logger
	Catalog     *catalog.Catalog
	Store       store.Store
	Embedder    embeddings.Embedder
	Cache       cache.Cache
	Recommender *recommend.Recommender
}

// Build loads env and config, reads the catalog and corpus, builds the embedding
// index and wires the recommender. Any failure aborts startup and releases
// whatever connections were already opened.
func Build(ctx context.Context) (deps Deps, err error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}
	deps = Deps{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = Deps{}
		}
	}()

	deps.Catalog, err = catalog.Load(cfg.CatalogPath)
	if err != nil {
		return deps, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("catalog loaded", "path", cfg.CatalogPath, "books", deps.Catalog.Len(), "categories", len(deps.Catalog.Categories()))

	chunks, err := corpus.Load(ctx, cfg.DescriptionsPath)
	if err != nil {
		return deps, fmt.Errorf("failed to load descriptions: %w", err)
	}
	log.Info("descriptions loaded", "path", cfg.DescriptionsPath, "documents", len(chunks))

	if deps.Embedder, err = buildEmbedder(cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if deps.Store, err = buildStore(ctx, cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize store: %w", err)
	}
	if deps.Cache, err = buildCache(cfg, log); err != nil {
		return deps, fmt.Errorf("failed to initialize cache: %w", err)
	}

	rebuilt, err := index.Build(ctx, log, deps.Embedder, deps.Store, chunks, index.Options{
		BatchSize:   cfg.EmbedBatchSize,
		Concurrency: cfg.EmbedConcurrency,
		Model:       cfg.EmbeddingModel,
		Reuse:       cfg.StoreProvider == "postgres" && !cfg.Reindex,
	})
	if err != nil {
		return deps, fmt.Errorf("failed to build embedding index: %w", err)
	}
	// Results cached against a previous index are stale once it is rebuilt.
	if rebuilt {
		if err := deps.Cache.InvalidateAll(ctx); err != nil {
			log.Warn("failed to invalidate cache", "err", err)
		}
	}

	deps.Recommender = recommend.New(deps.Catalog, deps.Embedder, deps.Store, deps.Cache, log, recommend.Options{
		InitialTopK: cfg.InitialTopK,
		FinalTopK:   cfg.FinalTopK,
		CacheTTL:    time.Duration(cfg.CacheTTL) * time.Second,
	})
	return deps, nil
}

// Close releases the cache client and, when it holds one, the store's connection pool.
func (d Deps) Close() error {
	var errs []error
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	if c, ok := d.Store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if err := errors.Join(errs...); err != nil {
		if d.Log != nil {
			d.Log.Warn("failed to release resources", "err", err)
		}
		return err
	}
	return nil
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		return embedder, nil
	case "compatible":
		if cfg.EmbeddingHost == "" {
			return nil, fmt.Errorf("EMBEDDING_HOST is required when EMBEDDING_PROVIDER=compatible")
		}
		embedder, err := embeddings.NewCompatibleEmbedder(cfg.EmbeddingHost, cfg.OpenAIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize compatible embedder: %w", err)
		}
		log.Info("using OpenAI-compatible embedder", "host", cfg.EmbeddingHost, "model", cfg.EmbeddingModel)
		return embedder, nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, compatible)", cfg.EmbeddingProvider)
	}
}

func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "memory":
		log.Info("using in-memory vector store")
		return store.NewMemory(), nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(ctx, cfg.DBURL, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres vector store", "dimensions", cfg.EmbeddingDimensions)
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: memory, postgres)", cfg.StoreProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "none":
		return cache.NewNoOpCache(), nil
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr, "ttl_s", cfg.CacheTTL)
		return c, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: none, redis)", cfg.CacheProvider)
	}
}
