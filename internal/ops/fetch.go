package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/note"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
	IncludeText    *bool // default: true (nil means default)
}

// FetchOutput is a full note.
type FetchOutput struct {
	note.NoteSummary
	NormalizedText string `json:"normalizedText,omitempty"`
	OriginalText   string `json:"originalText,omitempty"`
}

// Fetch retrieves a note by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	n, err := db.GetByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{NoteSummary: n.ToSummary()}
	if input.IncludeText == nil || *input.IncludeText {
		output.NormalizedText = n.NormalizedText
		output.OriginalText = n.OriginalText
	}
	return output, nil
}
