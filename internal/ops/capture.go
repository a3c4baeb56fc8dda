package ops

import (
	"context"

	"github.com/hpungsan/brain/internal/content"
	"github.com/hpungsan/brain/internal/extract"
)

// Overrides replaces individual extracted fields before a captured note is
// stored. Nil fields keep the extracted value.
type Overrides struct {
	Title    *string  `json:"title,omitempty"`
	Summary  *string  `json:"summary,omitempty"`
	Category *string  `json:"category,omitempty"`
	Source   *string  `json:"source,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// CaptureOutput contains the pipeline result and the stored note's ID.
type CaptureOutput struct {
	Processed *ProcessOutput `json:"processed"`
	Ingested  *IngestOutput  `json:"ingested"`
}

// Capture runs Process on src and ingests the outcome in one step.
func (s *Service) Capture(ctx context.Context, src extract.Source, overrides Overrides, progress extract.ProgressFunc) (*CaptureOutput, error) {
	processed, err := s.Process(ctx, src, progress)
	if err != nil {
		return nil, err
	}

	ingested, err := s.Ingest(ctx, IngestFromResult(processed, overrides))
	if err != nil {
		return nil, err
	}
	return &CaptureOutput{Processed: processed, Ingested: ingested}, nil
}

// IngestFromResult maps pipeline output onto ingest fields. An unknown content
// type falls back to the default category.
func IngestFromResult(p *ProcessOutput, o Overrides) IngestInput {
	in := IngestInput{
		NormalizedText: p.NormalizedText,
		Title:          p.Metadata.SuggestedTitle,
		Summary:        p.Metadata.Summary,
		Tags:           p.Metadata.Tags,
		OriginalText:   p.OriginalContent,
		Source:         p.Source,
	}
	if p.Metadata.ContentType != content.TypeUnknown {
		in.Category = p.Metadata.ContentType
	}

	if o.Title != nil {
		in.Title = *o.Title
	}
	if o.Summary != nil {
		in.Summary = *o.Summary
	}
	if o.Category != nil {
		in.Category = *o.Category
	}
	if o.Source != nil {
		in.Source = *o.Source
	}
	if o.Tags != nil {
		in.Tags = o.Tags
	}
	return in
}
