// Package note defines the stored note record and its size rules.
package note

import (
	"fmt"
	"strings"
)

// Defaults applied to missing ingest fields.
const (
	DefaultTitle    = "Sem Título"
	DefaultCategory = "Geral"
	DefaultSource   = "Desconhecida"
)

// Note is a validated piece of knowledge kept in the store.
type Note struct {
	// ID is a ULID that uniquely identifies this note
	ID string

	Title    string
	Summary  string
	Category string
	Source   string

	// Tags is a list of tags for categorization (stored as JSON in DB)
	Tags []string

	// NormalizedText is the reconstructed text the metadata was derived from (may be empty)
	NormalizedText string

	// OriginalText is the text as captured, before normalization
	OriginalText string

	// NoteChars is the character count of the embedded text (runes, not bytes)
	NoteChars int

	// TokensEstimate is the estimated token count for LLM context budgeting
	TokensEstimate int

	// CreatedAt is the Unix timestamp when the note was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the note was last updated
	UpdatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// EmbedText builds the text whose embedding represents a note:
// title, summary and the original text, trimmed.
func EmbedText(title, summary, originalText string) string {
	return strings.TrimSpace(fmt.Sprintf("Título: %s\nResumo: %s\n\n%s", title, summary, originalText))
}

// HasContent reports whether any of the embeddable fields carries text.
func HasContent(title, summary, originalText string) bool {
	return strings.TrimSpace(title) != "" ||
		strings.TrimSpace(summary) != "" ||
		strings.TrimSpace(originalText) != ""
}
