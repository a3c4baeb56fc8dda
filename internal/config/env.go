package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvEmbeddingEndpoint = "BRAIN_EMBEDDING_ENDPOINT"
	EnvEmbeddingModel    = "BRAIN_EMBEDDING_MODEL"
	EnvAnalysisModel     = "BRAIN_ANALYSIS_MODEL"
	EnvAPIKey            = "OPENAI_API_KEY"
	EnvVectorBackend     = "BRAIN_VECTOR_BACKEND"
	EnvQdrantURL         = "BRAIN_QDRANT_URL"
	EnvLogLevel          = "BRAIN_LOG_LEVEL"
)

// ApplyEnv overlays environment values onto cfg. Values from baseDir/.env are
// read first; variables set in the process environment win over the file.
// The process environment itself is never modified.
func ApplyEnv(cfg *Config, baseDir string) (*Config, error) {
	fileEnv, err := godotenv.Read(filepath.Join(baseDir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(fileEnv[key])
	}

	overlay := &Config{
		LogLevel: lookup(EnvLogLevel),
		Embedding: EmbeddingConfig{
			Endpoint: lookup(EnvEmbeddingEndpoint),
			Model:    lookup(EnvEmbeddingModel),
			APIKey:   lookup(EnvAPIKey),
		},
		Analysis: AnalysisConfig{
			Model: lookup(EnvAnalysisModel),
		},
		VectorStore: VectorStoreConfig{
			Backend: lookup(EnvVectorBackend),
			URL:     lookup(EnvQdrantURL),
		},
	}
	return Merge(cfg, overlay), nil
}

// LoadAll loads defaults, global and repo config files, then the environment.
func LoadAll(globalDir, startDir string) (*Config, error) {
	cfg, err := LoadWithRepo(globalDir, startDir)
	if err != nil {
		return nil, err
	}
	return ApplyEnv(cfg, globalDir)
}
