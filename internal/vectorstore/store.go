// Package vectorstore stores note embeddings and answers nearest-neighbour queries.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/brain/internal/config"
)

// Store is a vector database for note embeddings.
type Store interface {
	// EnsureCollection prepares storage for vectors of the given dimension and
	// fails if existing vectors have a different one.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert adds or replaces records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to topK records most similar to vector, best first.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error
}

// Record is a vector with its metadata.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a single query result.
type Match struct {
	ID string
	// Score is the cosine similarity (higher = more similar).
	Score    float64
	Metadata map[string]any
}

// New builds the Store selected by cfg. The sqlite backend keeps vectors in database.
func New(cfg *config.Config, database *sql.DB) (Store, error) {
	switch cfg.VectorStore.Backend {
	case "", config.BackendSQLite:
		return NewSQLiteStore(database, cfg.Embedding.Model), nil
	case config.BackendQdrant:
		return NewQdrantStore(QdrantConfig{
			BaseURL:    cfg.VectorStore.URL,
			Collection: cfg.VectorStore.Collection,
			Timeout:    time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStore.Backend)
	}
}
