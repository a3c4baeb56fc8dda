package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// noteIDKey holds the note ULID in every point payload; Qdrant point IDs must be UUIDs.
const noteIDKey = "note_id"

// QdrantStore implements Store using Qdrant's REST API.
type QdrantStore struct {
	baseURL    string
	collection string
	client     *http.Client
}

// QdrantConfig configures the Qdrant store.
type QdrantConfig struct {
	// BaseURL is the Qdrant REST API base URL (default: http://localhost:6333).
	BaseURL    string
	Collection string
	// Timeout is the HTTP request timeout (default: 30s).
	Timeout time.Duration
}

// NewQdrantStore creates a new Qdrant store.
func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:6333"
	}
	if cfg.Collection == "" {
		cfg.Collection = "brain_notes"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &QdrantStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

// PointID maps a note ID onto a Qdrant point ID. ULIDs share the UUID byte
// layout, so they convert losslessly; other IDs get a name-based UUID.
func PointID(noteID string) string {
	if id, err := ulid.ParseStrict(noteID); err == nil {
		return uuid.UUID(id).String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(noteID)).String()
}

// EnsureCollection creates the collection if missing, or checks its dimension.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dimensions int) error {
	resp, err := s.doRequestRaw(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		body := map[string]any{
			"vectors": map[string]any{"size": dimensions, "distance": "Cosine"},
		}
		_, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.collection, body)
		return err
	case http.StatusOK:
		var info struct {
			Result struct {
				Config struct {
					Params struct {
						Vectors struct {
							Size int `json:"size"`
						} `json:"vectors"`
					} `json:"params"`
				} `json:"config"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return fmt.Errorf("decode collection info: %w", err)
		}
		if size := info.Result.Config.Params.Vectors.Size; size != dimensions {
			return fmt.Errorf("collection %q has dimension %d, embedding model produces %d", s.collection, size, dimensions)
		}
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant error (status %d): %s", resp.StatusCode, string(body))
	}
}

func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	points := make([]map[string]any, len(records))
	for i, r := range records {
		payload := make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[noteIDKey] = r.ID
		points[i] = map[string]any{
			"id":      PointID(r.ID),
			"vector":  r.Values,
			"payload": payload,
		}
	}

	_, err := s.doRequest(ctx, http.MethodPut,
		"/collections/"+s.collection+"/points?wait=true", map[string]any{"points": points})
	return err
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := Match{Score: r.Score, Metadata: r.Payload}
		if id, ok := r.Payload[noteIDKey].(string); ok {
			m.ID = id
			delete(m.Metadata, noteIDKey)
		} else {
			m.ID = fmt.Sprint(r.ID)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = PointID(id)
	}
	_, err := s.doRequest(ctx, http.MethodPost,
		"/collections/"+s.collection+"/points/delete?wait=true", map[string]any{"points": points})
	return err
}

// doRequest sends an HTTP request and decodes the JSON response.
func (s *QdrantStore) doRequest(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var result map[string]any
	if err := s.doJSON(ctx, method, path, body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *QdrantStore) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := s.doRequestRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRequestRaw sends an HTTP request and returns the raw response.
func (s *QdrantStore) doRequestRaw(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.client.Do(req)
}
