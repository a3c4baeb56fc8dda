package note

import "time"

// NoteSummary represents a note's metadata without its text content.
// Used for browse and search results to reduce data transfer.
type NoteSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Category       string   `json:"category"`
	Source         string   `json:"source"`
	Tags           []string `json:"tags"`
	NoteChars      int      `json:"noteChars"`
	TokensEstimate int      `json:"tokensEstimate"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
	DeletedAt      *string  `json:"deletedAt,omitempty"`
}

// ToSummary converts a Note to a NoteSummary by stripping the text content.
func (n *Note) ToSummary() NoteSummary {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	s := NoteSummary{
		ID:             n.ID,
		Title:          n.Title,
		Summary:        n.Summary,
		Category:       n.Category,
		Source:         n.Source,
		Tags:           tags,
		NoteChars:      n.NoteChars,
		TokensEstimate: n.TokensEstimate,
		CreatedAt:      FormatTime(n.CreatedAt),
		UpdatedAt:      FormatTime(n.UpdatedAt),
	}
	if n.DeletedAt != nil {
		d := FormatTime(*n.DeletedAt)
		s.DeletedAt = &d
	}
	return s
}

// FormatTime renders a Unix timestamp as RFC 3339 in UTC.
func FormatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
