// Package ops implements the note operations shared by the CLI, the MCP
// server and the HTTP API.
package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/brain/internal/analyze"
	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/embed"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/logger"
	"github.com/hpungsan/brain/internal/vectorstore"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
	Total   int  `json:"total"`
}

// Service carries the collaborators of operations that reach beyond the
// database: extraction, embeddings, the analysis model and the vector store.
type Service struct {
	DB        *sql.DB
	Config    *config.Config
	Embedder  embed.Embedder
	Analyzer  analyze.Analyzer
	Vectors   vectorstore.Store
	Extractor *extract.Extractor
	Log       logger.Logger
}

// NewService wires a Service from configuration. restricted limits file
// extraction to allowed directories (MCP and HTTP callers).
func NewService(database *sql.DB, cfg *config.Config, log logger.Logger, restricted bool) (*Service, error) {
	if log == nil {
		log = logger.NewNop()
	}
	vectors, err := vectorstore.New(cfg, database)
	if err != nil {
		return nil, err
	}
	return &Service{
		DB:        database,
		Config:    cfg,
		Embedder:  embed.New(embed.FromConfig(cfg.Embedding, log)),
		Analyzer:  analyze.New(analyze.FromConfig(cfg, log)),
		Vectors:   vectors,
		Extractor: extract.New(extract.FromConfig(cfg, restricted, log)),
		Log:       log,
	}, nil
}

// Restricted returns a copy of s whose extractor enforces the path policy.
// MCP and HTTP callers use it.
func (s *Service) Restricted() *Service {
	c := *s
	c.Extractor = extract.New(extract.FromConfig(s.Config, true, s.log()))
	return &c
}

// EnsureVectors prepares the vector store for the embedder's dimension.
// Embedders that learn their dimension on first use are skipped.
func (s *Service) EnsureVectors(ctx context.Context) error {
	dim := s.Embedder.Dimension()
	if dim <= 0 {
		return nil
	}
	if err := s.Vectors.EnsureCollection(ctx, dim); err != nil {
		return errors.NewVectorStoreFailed(err)
	}
	return nil
}

func (s *Service) log() logger.Logger {
	if s.Log == nil {
		return logger.NewNop()
	}
	return s.Log
}

func (s *Service) extractor() *extract.Extractor {
	if s.Extractor == nil {
		return extract.New(extract.Config{Logger: s.log()})
	}
	return s.Extractor
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// clampLimit applies the default and maximum to a requested page size.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
