package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration for the dashboard.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"7860" validate:"min=1,max=65535"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Data files
	CatalogPath      string `env:"CATALOG_PATH" envDefault:"books_with_emotions.csv" validate:"required"`
	DescriptionsPath string `env:"DESCRIPTIONS_PATH" envDefault:"tagged_description.txt" validate:"required"`

	// Recommendation sizes
	InitialTopK int `env:"INITIAL_TOP_K" envDefault:"50" validate:"min=1"`
	FinalTopK   int `env:"FINAL_TOP_K" envDefault:"16" validate:"min=1,ltefield=InitialTopK"`

	// Embeddings
	EmbeddingProvider   string `env:"EMBEDDING_PROVIDER" envDefault:"openai" validate:"oneof=openai compatible"` // "openai" (api.openai.com) or "compatible" (any OpenAI-compatible host)
	OpenAIKey           string `env:"OPENAI_API_KEY"`
	EmbeddingHost       string `env:"EMBEDDING_HOST"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536" validate:"min=1"`
	EmbedBatchSize      int    `env:"EMBED_BATCH_SIZE" envDefault:"256" validate:"min=1"`
	EmbedConcurrency    int    `env:"EMBED_CONCURRENCY" envDefault:"4" validate:"min=1"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"memory" validate:"oneof=memory postgres"` // "memory" (rebuilt every start) or "postgres" (pgvector)
	DBURL         string `env:"DB_URL"`
	Reindex       bool   `env:"REINDEX" envDefault:"false"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none" validate:"oneof=none redis"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600" validate:"min=0"` // seconds
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// Validate checks field constraints that env defaults cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
