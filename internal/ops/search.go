package ops

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/embed"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/logger"
	"github.com/hpungsan/brain/internal/vectorstore"
)

// Search limits
const (
	DefaultSearchTopK = 5
	MaxSearchTopK     = 50
	MaxQueryLength    = 2000
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query string // required
	TopK  int    // default: 5, max: 50
}

// SearchResult is one semantic match.
type SearchResult struct {
	ID        string   `json:"id"`
	Score     float64  `json:"score"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Category  string   `json:"category"`
	Source    string   `json:"source"`
	CreatedAt string   `json:"createdAt"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Results []SearchResult `json:"results"`
}

// Search embeds the query and returns the closest notes, best first.
// Matches whose note is deleted or missing are dropped.
func (s *Service) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}
	topK := clampLimit(input.TopK, DefaultSearchTopK, MaxSearchTopK)

	start := time.Now()
	vector, err := s.Embedder.Embed(ctx, embed.Flatten(query))
	if err != nil {
		return nil, errors.NewEmbeddingFailed(err)
	}

	matches, err := s.Vectors.Query(ctx, vector, topK)
	if err != nil {
		return nil, errors.NewVectorStoreFailed(err)
	}

	results, err := s.hydrate(ctx, matches)
	if err != nil {
		return nil, err
	}

	s.log().Info("search",
		logger.Int("top_k", topK),
		logger.Int("matches", len(matches)),
		logger.Int("results", len(results)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return &SearchOutput{Results: results}, nil
}

// hydrate joins vector matches with their active note rows.
func (s *Service) hydrate(ctx context.Context, matches []vectorstore.Match) ([]SearchResult, error) {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	summaries, err := db.GetSummariesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		n, ok := summaries[m.ID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			ID:        n.ID,
			Score:     m.Score,
			Title:     n.Title,
			Summary:   n.Summary,
			Tags:      n.Tags,
			Category:  n.Category,
			Source:    n.Source,
			CreatedAt: n.CreatedAt,
		})
	}
	return results, nil
}
