package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/note"
)

const noteColumns = `
	id, title, summary, category, source, tags_json,
	normalized_text, original_text, note_chars, tokens_estimate,
	created_at, updated_at, deleted_at`

const summaryColumns = `
	id, title, summary, category, source, tags_json,
	note_chars, tokens_estimate, created_at, updated_at, deleted_at`

// Insert stores a new note in the database.
func Insert(ctx context.Context, db *sql.DB, n *note.Note) error {
	tagsJSON, err := marshalTags(n.Tags)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO notes (` + noteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = db.ExecContext(ctx, query,
		n.ID, n.Title, n.Summary, n.Category, n.Source, tagsJSON,
		n.NormalizedText, n.OriginalText, n.NoteChars, n.TokensEstimate,
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetByID retrieves a note by its ULID.
// If includeDeleted is false, soft-deleted notes are excluded.
func GetByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*note.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	n, err := scanNote(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return n, nil
}

// GetSummariesByIDs returns summaries of the active notes among ids, keyed by id.
// Missing and soft-deleted ids are absent from the map.
func GetSummariesByIDs(ctx context.Context, db *sql.DB, ids []string) (map[string]note.NoteSummary, error) {
	result := make(map[string]note.NoteSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + summaryColumns + ` FROM notes
		WHERE id IN (` + placeholders + `) AND deleted_at IS NULL`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		result[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return result, nil
}

// ListFilters narrows a List query.
type ListFilters struct {
	Category       string // exact match, optional
	Tag            string // normalized tag, optional
	IncludeDeleted bool
}

// List returns note summaries, newest first, with the total count matching filters.
func List(ctx context.Context, db *sql.DB, filters ListFilters, limit, offset int) ([]note.NoteSummary, int, error) {
	var (
		where []string
		args  []any
	)
	if !filters.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filters.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filters.Category)
	}
	if filters.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(notes.tags_json) WHERE json_each.value = ?)")
		args = append(args, filters.Tag)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes"+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + summaryColumns + ` FROM notes` + clause +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var summaries []note.NoteSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return summaries, total, nil
}

// SoftDelete marks a note as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	now := time.Now().Unix()

	result, err := db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// DeleteByID permanently removes a note regardless of its deleted state.
func DeleteByID(ctx context.Context, db *sql.DB, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// PurgeDeleted permanently removes soft-deleted notes and returns their ids.
// If olderThanDays is set, only notes deleted before (now - N days) are removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays *int) ([]string, error) {
	where := "deleted_at IS NOT NULL"
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		where += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM notes WHERE "+where, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE "+where, args...); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNote scans a single row into a Note struct.
func scanNote(row scanner) (*note.Note, error) {
	var (
		n         note.Note
		tagsJSON  sql.NullString
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&n.ID, &n.Title, &n.Summary, &n.Category, &n.Source, &tagsJSON,
		&n.NormalizedText, &n.OriginalText, &n.NoteChars, &n.TokensEstimate,
		&n.CreatedAt, &n.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		n.DeletedAt = &deletedAt.Int64
	}
	if n.Tags, err = unmarshalTags(tagsJSON); err != nil {
		return nil, err
	}
	return &n, nil
}

// scanSummary scans a summary row.
func scanSummary(row scanner) (note.NoteSummary, error) {
	var (
		n         note.Note
		tagsJSON  sql.NullString
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&n.ID, &n.Title, &n.Summary, &n.Category, &n.Source, &tagsJSON,
		&n.NoteChars, &n.TokensEstimate, &n.CreatedAt, &n.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return note.NoteSummary{}, err
	}

	if deletedAt.Valid {
		n.DeletedAt = &deletedAt.Int64
	}
	if n.Tags, err = unmarshalTags(tagsJSON); err != nil {
		return note.NoteSummary{}, err
	}
	return n.ToSummary(), nil
}

// marshalTags stores tags as a JSON array, or NULL when there are none.
func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalTags(ns sql.NullString) ([]string, error) {
	tags := []string{}
	if ns.Valid && ns.String != "" {
		if err := json.Unmarshal([]byte(ns.String), &tags); err != nil {
			return nil, err
		}
	}
	return tags, nil
}
