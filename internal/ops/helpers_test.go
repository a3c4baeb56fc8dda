package ops

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/vectorstore"
)

// vocab gives the keyword embedder one dimension per word; the last
// dimension is constant so no vector is zero.
var vocab = []string{"orçamento", "viagem", "receita", "reunião", "projeto"}

// keywordEmbedder counts vocabulary words. Deterministic and collision free.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}

	v := make([]float32, len(vocab)+1)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;!?#")
		for i, word := range vocab {
			if w == word {
				v[i]++
			}
		}
	}
	v[len(vocab)] = 0.1
	return v, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int { return len(vocab) + 1 }
func (e *keywordEmbedder) Model() string  { return "keyword-test" }

// failingStore fails every write and query.
type failingStore struct{}

var errStoreDown = stderrors.New("store down")

func (failingStore) EnsureCollection(ctx context.Context, dimensions int) error { return errStoreDown }
func (failingStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	return errStoreDown
}
func (failingStore) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	return nil, errStoreDown
}
func (failingStore) Delete(ctx context.Context, ids []string) error { return errStoreDown }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestService(t *testing.T) (*Service, *keywordEmbedder) {
	t.Helper()
	database := openTestDB(t)
	emb := &keywordEmbedder{}
	return &Service{
		DB:        database,
		Config:    config.DefaultConfig(),
		Embedder:  emb,
		Vectors:   vectorstore.NewSQLiteStore(database, emb.Model()),
		Extractor: extract.New(extract.Config{}),
	}, emb
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}
