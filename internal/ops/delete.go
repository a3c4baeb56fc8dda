package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/logger"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes a note and removes its vector so it no longer matches
// searches. The row stays until Purge.
func (s *Service) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.SoftDelete(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if err := s.Vectors.Delete(ctx, []string{id}); err != nil {
		// Search drops matches for deleted rows; purge retries the removal.
		s.log().Warn("vector delete failed", logger.String("id", id), logger.Error(err))
	}

	return &DeleteOutput{Deleted: true, ID: id}, nil
}

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes soft-deleted notes and any vectors left behind.
func (s *Service) Purge(ctx context.Context, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be >= 0")
	}

	ids, err := db.PurgeDeleted(ctx, s.DB, input.OlderThanDays)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := s.Vectors.Delete(ctx, ids); err != nil {
			return nil, errors.NewVectorStoreFailed(err)
		}
	}

	return &PurgeOutput{
		Purged:  len(ids),
		Message: formatPurgeMessage(len(ids), input.OlderThanDays),
	}, nil
}

func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No deleted notes to purge"
	}

	noteWord := "note"
	if count > 1 {
		noteWord = "notes"
	}
	msg := fmt.Sprintf("Permanently deleted %d %s", count, noteWord)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}
	return msg
}
