package ops

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hpungsan/brain/internal/analyze"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/logger"
	"github.com/hpungsan/brain/internal/note"
)

// AnalyzeInput contains the text to analyze.
type AnalyzeInput struct {
	NormalizedText string `json:"normalizedText"`
}

// AnalyzeOutput contains the metadata suggested by the analysis model.
type AnalyzeOutput struct {
	analyze.Analysis
	Model string `json:"model"`
}

// Analyze asks the analysis model for a title, summary, tags and category.
// Nothing is stored; the caller validates the suggestion before ingesting.
func (s *Service) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error) {
	text := strings.TrimSpace(input.NormalizedText)
	if text == "" {
		return nil, errors.NewInvalidRequest("normalizedText is required")
	}
	if chars := note.CountChars(text); s.Config.NoteMaxChars > 0 && chars > s.Config.NoteMaxChars {
		return nil, errors.NewNoteTooLarge(s.Config.NoteMaxChars, chars)
	}
	if s.Analyzer == nil {
		return nil, errors.NewAnalysisFailed(stderrors.New("no analysis model configured"))
	}

	start := time.Now()
	analysis, err := s.Analyzer.Analyze(ctx, text)
	if err != nil {
		s.log().Error("analysis failed", logger.String("model", s.Analyzer.Model()), logger.Error(err))
		return nil, errors.NewAnalysisFailed(err)
	}
	analysis.Tags = note.NormalizeTags(analysis.Tags)

	s.log().Info("note analyzed",
		logger.String("model", s.Analyzer.Model()),
		logger.Int("chars", note.CountChars(text)),
		logger.Duration("duration", time.Since(start)))

	return &AnalyzeOutput{Analysis: *analysis, Model: s.Analyzer.Model()}, nil
}
