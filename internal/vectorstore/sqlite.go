package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/brain/internal/embed"
)

// SQLiteStore keeps vectors as little-endian float32 BLOBs in the note_vectors
// table and scores them by brute-force cosine similarity.
type SQLiteStore struct {
	db    *sql.DB
	model string
}

// NewSQLiteStore creates a store over an initialized brain database.
func NewSQLiteStore(db *sql.DB, model string) *SQLiteStore {
	return &SQLiteStore{db: db, model: model}
}

// EnsureCollection checks that stored vectors match the expected dimension.
func (s *SQLiteStore) EnsureCollection(ctx context.Context, dimensions int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT dim FROM note_vectors`)
	if err != nil {
		return fmt.Errorf("read vector dimensions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dim int
		if err := rows.Scan(&dim); err != nil {
			return err
		}
		if dim != dimensions {
			return fmt.Errorf("stored vectors have dimension %d, embedding model produces %d", dim, dimensions)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, r := range records {
		if len(r.Values) == 0 {
			return fmt.Errorf("record %s: empty vector", r.ID)
		}
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: marshal metadata: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO note_vectors (id, model, dim, vector, metadata_json, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
			  model = excluded.model, dim = excluded.dim, vector = excluded.vector,
			  metadata_json = excluded.metadata_json, updated_at = excluded.updated_at`,
			r.ID, s.model, len(r.Values), embed.SerializeVector(r.Values), string(meta), now)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vector, metadata_json FROM note_vectors WHERE dim = ?`, len(vector))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var (
			id   string
			blob []byte
			meta sql.NullString
		)
		if err := rows.Scan(&id, &blob, &meta); err != nil {
			return nil, err
		}
		m := Match{ID: id, Score: embed.CosineSimilarity(vector, embed.DeserializeVector(blob))}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("record %s: decode metadata: %w", id, err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM note_vectors WHERE id IN (`+placeholders+`)`, args...)
	return err
}
