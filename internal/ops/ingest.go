package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/embed"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/logger"
	"github.com/hpungsan/brain/internal/note"
	"github.com/hpungsan/brain/internal/vectorstore"
)

// IngestInput contains a validated note. Blank fields take the note defaults.
type IngestInput struct {
	NormalizedText string   `json:"normalizedText"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Tags           []string `json:"tags"`
	Category       string   `json:"category"`
	OriginalText   string   `json:"originalText"`
	Source         string   `json:"source"`
}

// IngestOutput contains the result of the Ingest operation.
type IngestOutput struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Message   string `json:"message"`
}

// Ingest embeds a note and stores it with its vector.
//
// The note row is written first so a failed upsert leaves no orphan vector;
// on upsert failure the row is removed again.
func (s *Service) Ingest(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	originalText := input.OriginalText
	if strings.TrimSpace(originalText) == "" {
		originalText = input.NormalizedText
	}

	lint := note.Lint(note.LintInput{
		Title:        input.Title,
		Summary:      input.Summary,
		OriginalText: originalText,
		MaxChars:     s.Config.NoteMaxChars,
	})
	if lint.Empty {
		return nil, errors.NewInvalidRequest("a title, summary or original text is required")
	}
	if lint.TooLarge {
		return nil, errors.NewNoteTooLarge(lint.MaxChars, lint.ActualChars)
	}

	title := orDefault(input.Title, note.DefaultTitle)
	summary := strings.TrimSpace(input.Summary)
	category := orDefault(input.Category, note.DefaultCategory)
	source := orDefault(input.Source, note.DefaultSource)
	tags := note.NormalizeTags(input.Tags)

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	embedText := note.EmbedText(title, summary, originalText)
	start := time.Now()
	vector, err := s.Embedder.Embed(ctx, embed.Flatten(embedText))
	if err != nil {
		s.log().Error("embedding failed", logger.String("id", id), logger.Error(err))
		return nil, errors.NewEmbeddingFailed(err)
	}

	now := time.Now().Unix()
	n := &note.Note{
		ID:             id,
		Title:          title,
		Summary:        summary,
		Category:       category,
		Source:         source,
		Tags:           tags,
		NormalizedText: input.NormalizedText,
		OriginalText:   originalText,
		NoteChars:      lint.ActualChars,
		TokensEstimate: note.EstimateTokens(embedText),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Insert(ctx, s.DB, n); err != nil {
		return nil, err
	}

	record := vectorstore.Record{ID: id, Values: vector, Metadata: vectorMetadata(n)}
	if err := s.Vectors.Upsert(ctx, []vectorstore.Record{record}); err != nil {
		s.log().Error("vector upsert failed", logger.String("id", id), logger.Error(err))
		if _, purgeErr := db.DeleteByID(ctx, s.DB, id); purgeErr != nil {
			s.log().Warn("could not roll back note row", logger.String("id", id), logger.Error(purgeErr))
		}
		return nil, errors.NewVectorStoreFailed(err)
	}

	s.log().Info("note ingested",
		logger.String("id", id),
		logger.String("category", category),
		logger.Int("chars", lint.ActualChars),
		logger.Duration("elapsed", time.Since(start)),
	)

	return &IngestOutput{
		ID:        id,
		CreatedAt: note.FormatTime(now),
		Message:   "note stored",
	}, nil
}

// vectorMetadata is the payload stored next to each vector.
func vectorMetadata(n *note.Note) map[string]any {
	return map[string]any{
		"title":     n.Title,
		"summary":   n.Summary,
		"tags":      n.Tags,
		"category":  n.Category,
		"source":    n.Source,
		"createdAt": note.FormatTime(n.CreatedAt),
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
