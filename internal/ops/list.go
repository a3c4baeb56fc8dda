package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/note"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Category       string // optional filter
	Tag            string // optional filter
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []note.NoteSummary `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// List retrieves note summaries, newest first.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	offset := max(input.Offset, 0)

	filters := db.ListFilters{
		Category:       strings.TrimSpace(input.Category),
		Tag:            note.NormalizeTag(input.Tag),
		IncludeDeleted: input.IncludeDeleted,
	}
	summaries, total, err := db.List(ctx, database, filters, limit, offset)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []note.NoteSummary{}
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
