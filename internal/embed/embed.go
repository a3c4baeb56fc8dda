// Package embed converts text to float32 vectors through any
// OpenAI-compatible /v1/embeddings server.
package embed

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/logger"
)

// Embedder converts text to vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension, or 0 if not yet detected.
	Dimension() int

	// Model returns the model name.
	Model() string
}

// Config configures the embedding client.
type Config struct {
	// Endpoint is the base URL of the embedding server (e.g. "https://api.openai.com").
	Endpoint string
	Model    string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Dimension is the expected vector dimension. 0 means auto-detect on first call.
	Dimension int
	// BatchSize is the maximum number of texts per API request. Default: 32.
	BatchSize int
	// Timeout per API request. Default: 30s.
	Timeout time.Duration
	Logger  logger.Logger
}

func (c *Config) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
}

// FromConfig maps application configuration onto client configuration.
func FromConfig(cfg config.EmbeddingConfig, log logger.Logger) Config {
	return Config{
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		Dimension: cfg.Dimension,
		BatchSize: cfg.BatchSize,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		Logger:    log,
	}
}

// New creates an Embedder from config.
func New(cfg Config) Embedder {
	cfg.defaults()
	return newOpenAIClient(cfg)
}

// Flatten replaces line breaks with spaces; embeddings are computed on single-line input.
func Flatten(text string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
}
