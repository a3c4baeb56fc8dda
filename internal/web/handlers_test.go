package web

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/brain/internal/analyze"
	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/ops"
	"github.com/hpungsan/brain/internal/vectorstore"
)

var vocab = []string{"viagem", "receita", "reunião"}

// wordEmbedder counts vocabulary words; the last dimension keeps vectors non-zero.
type wordEmbedder struct {
	err error
}

func (e *wordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	v := make([]float32, len(vocab)+1)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;!?")
		for i, word := range vocab {
			if w == word {
				v[i]++
			}
		}
	}
	v[len(vocab)] = 0.1
	return v, nil
}

func (e *wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *wordEmbedder) Dimension() int { return len(vocab) + 1 }
func (e *wordEmbedder) Model() string  { return "word-test" }

type testServer struct {
	handler http.Handler
	svc     *ops.Service
	emb     *wordEmbedder
}

func setupTest(t *testing.T) *testServer {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	emb := &wordEmbedder{}
	svc := &ops.Service{
		DB:        database,
		Config:    config.DefaultConfig(),
		Embedder:  emb,
		Vectors:   vectorstore.NewSQLiteStore(database, emb.Model()),
		Extractor: extract.New(extract.Config{Policy: &extract.PathPolicy{AllowAnyDir: true}}),
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	require.NoError(t, err)
	staticSub, err := fs.Sub(staticFS, "static")
	require.NoError(t, err)

	h := NewHandlers(svc, NewRenderer(templateSub, "test", nil))
	return &testServer{
		handler: securityHeaders(requestLogger(nil, routes(h, staticSub))),
		svc:     svc,
		emb:     emb,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// seedNote ingests a note through the API and returns its ID.
func (s *testServer) seedNote(t *testing.T, title, text string) string {
	t.Helper()
	rec := s.do(t, "POST", "/api/ingest", map[string]any{
		"title":          title,
		"normalizedText": text,
		"tags":           []string{"teste"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	return out["id"].(string)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	out := decodeBody(t, rec)
	errObj, ok := out["error"].(map[string]any)
	require.True(t, ok, "no error object in %s", rec.Body.String())
	return errObj["code"].(string)
}

// --- JSON API ---

func TestAPIAnalyze(t *testing.T) {
	s := setupTest(t)

	chat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "c1", "object": "chat.completion", "created": 1, "model": "m",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"title":"Receita de bolo","summary":"Bolo simples.","tags":["receita","bolo"],"category":"Culinária"}`,
				},
			}},
		})
	}))
	defer chat.Close()
	s.svc.Analyzer = analyze.New(analyze.Config{Endpoint: chat.URL, Model: "m"})

	rec := s.do(t, "POST", "/api/analyze", map[string]any{"normalizedText": "Receita de bolo de cenoura."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	require.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	require.Equal(t, "Receita de bolo", data["title"])
	require.Equal(t, "Culinária", data["category"])
	require.Equal(t, []any{"receita", "bolo"}, data["tags"])
}

func TestAPIAnalyze_Errors(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "POST", "/api/analyze", map[string]any{"normalizedText": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_REQUEST", errorCode(t, rec))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer down.Close()
	s.svc.Analyzer = analyze.New(analyze.Config{Endpoint: down.URL, Model: "m"})

	rec = s.do(t, "POST", "/api/analyze", map[string]any{"normalizedText": "texto"})
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	require.Equal(t, "ANALYSIS_FAILED", errorCode(t, rec))
}

func TestAPIIngest(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "POST", "/api/ingest", map[string]any{
		"title":          "Plano de viagem",
		"summary":        "Roteiro de férias",
		"normalizedText": "Roteiro da viagem para Lisboa.",
		"category":       "Diário",
		"source":         "Texto",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	require.Equal(t, true, out["success"])
	require.NotEmpty(t, out["id"])
	require.NotEmpty(t, out["createdAt"])
}

func TestAPIIngest_Errors(t *testing.T) {
	s := setupTest(t)

	t.Run("nothing to embed", func(t *testing.T) {
		rec := s.do(t, "POST", "/api/ingest", map[string]any{"title": ""})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
		require.Equal(t, false, decodeBody(t, rec)["success"])
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := s.do(t, "POST", "/api/ingest", "{not json")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("embedding failure", func(t *testing.T) {
		s.emb.err = stderrors.New("provider down")
		defer func() { s.emb.err = nil }()

		rec := s.do(t, "POST", "/api/ingest", map[string]any{"normalizedText": "algo"})
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, "EMBEDDING_FAILED", errorCode(t, rec))
	})
}

func TestAPISearch(t *testing.T) {
	s := setupTest(t)
	tripID := s.seedNote(t, "Plano de viagem", "Roteiro da viagem para Lisboa.")
	s.seedNote(t, "Bolo de cenoura", "Receita com cobertura.")

	rec := s.do(t, "GET", "/api/search?q=viagem&topK=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decodeBody(t, rec)["results"].([]any)
	require.Len(t, results, 1)
	top := results[0].(map[string]any)
	require.Equal(t, tripID, top["id"])
	require.Equal(t, "Plano de viagem", top["title"])
	require.Contains(t, top, "score")

	rec = s.do(t, "GET", "/api/search", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIProcess_Text(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "POST", "/api/process", map[string]any{
		"text": "Lista de tarefas\n\n- comprar pão\n- pagar conta",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	md := out["metadata"].(map[string]any)
	require.Equal(t, "Lista de tarefas", md["suggestedTitle"])
	require.Equal(t, "Tarefa", md["contentType"])
	require.Len(t, md["listItems"], 2)
}

func TestAPIProcess_Upload(t *testing.T) {
	s := setupTest(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "ata.md")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Ata da reunião\n\nPresentes: todos."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	require.Equal(t, "ata.md", out["source"])
	require.Equal(t, "Reunião", out["metadata"].(map[string]any)["contentType"])
}

func TestAPIProcess_BatchKeepsItemContext(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "POST", "/api/process", map[string]any{
		"sources": []map[string]any{{"text": "um"}, {"name": "vazio"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errObj := decodeBody(t, rec)["error"].(map[string]any)
	require.Contains(t, errObj["message"], "sources[1]")
}

func TestAPIProcess_Vault(t *testing.T) {
	s := setupTest(t)
	vault := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(vault, "Estudos", "Go"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(vault, "Estudos", "Go", "canais.md"), []byte("Canais e goroutines"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(vault, "leia.txt"), []byte("ignorado"), 0o600))

	rec := s.do(t, "POST", "/api/process", map[string]any{"vault": vault})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	require.Equal(t, float64(1), out["succeeded"])
	items := out["items"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, "Estudos/Go/canais.md", items[0].(map[string]any)["result"].(map[string]any)["source"])

	rec = s.do(t, "POST", "/api/process", map[string]any{"vault": filepath.Join(vault, "nada")})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "FILE_NOT_FOUND", errorCode(t, rec))
}

func TestAPICapture(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "POST", "/api/capture", map[string]any{
		"text":  "Reunião de equipe\n\nDefinimos a viagem.",
		"title": "Reunião semanal",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ingested := decodeBody(t, rec)["ingested"].(map[string]any)
	id := ingested["id"].(string)

	rec = s.do(t, "GET", "/api/notes/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	require.Equal(t, "Reunião semanal", out["title"])
	require.Equal(t, "Reunião", out["category"])
}

func TestAPINotes_ListFetchDelete(t *testing.T) {
	s := setupTest(t)
	id := s.seedNote(t, "Primeira", "texto um")
	s.seedNote(t, "Segunda", "texto dois")

	rec := s.do(t, "GET", "/api/notes?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	require.Len(t, out["items"], 1)
	pagination := out["pagination"].(map[string]any)
	require.Equal(t, float64(2), pagination["total"])
	require.Equal(t, true, pagination["hasMore"])

	rec = s.do(t, "GET", "/api/notes/"+id+"?include_text=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, decodeBody(t, rec), "normalizedText")

	rec = s.do(t, "DELETE", "/api/notes/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["deleted"])

	rec = s.do(t, "GET", "/api/notes/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = s.do(t, "GET", "/api/notes/"+id+"?include_deleted=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["deletedAt"])
}

func TestAPIPurge(t *testing.T) {
	s := setupTest(t)
	id := s.seedNote(t, "Antiga", "texto")
	require.Equal(t, http.StatusOK, s.do(t, "DELETE", "/api/notes/"+id, nil).Code)

	rec := s.do(t, "POST", "/api/purge?older_than_days=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "POST", "/api/purge", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), decodeBody(t, rec)["purged"])
}

func TestAPIHealth(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}

// --- Pages ---

func TestHandleList_Page(t *testing.T) {
	s := setupTest(t)
	s.seedNote(t, "Plano de viagem", "texto")

	rec := s.do(t, "GET", "/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Plano de viagem")
	require.Contains(t, body, "teste")
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestHandleList_Empty(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "GET", "/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Nenhuma nota encontrada")
}

func TestRootRedirects(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "GET", "/", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/notes", rec.Header().Get("Location"))
}

func TestHandleDetail_RendersMarkdown(t *testing.T) {
	s := setupTest(t)
	id := s.seedNote(t, "Markdown", "Texto **importante**\n\n<script>alert(1)</script>")

	rec := s.do(t, "GET", "/notes/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<strong>importante</strong>")
	require.NotContains(t, body, "<script>alert(1)</script>")
}

func TestHandleDetail_NotFound(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "GET", "/notes/01NOPE", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Erro 404")

	req := httptest.NewRequest("GET", "/notes/01NOPE", nil)
	req.Header.Set("Accept", "application/json")
	jsonRec := httptest.NewRecorder()
	s.handler.ServeHTTP(jsonRec, req)
	require.Equal(t, http.StatusNotFound, jsonRec.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, jsonRec))
}

func TestSearchPage(t *testing.T) {
	s := setupTest(t)
	s.seedNote(t, "Plano de viagem", "Roteiro da viagem.")

	rec := s.do(t, "GET", "/notes/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Nada encontrado")

	rec = s.do(t, "GET", "/notes/search?q=viagem", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Plano de viagem")
}

func TestSecurityHeadersAndStatic(t *testing.T) {
	s := setupTest(t)

	rec := s.do(t, "GET", "/static/style.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

// --- Helpers ---

func TestFormatTime(t *testing.T) {
	require.Equal(t, "2024-05-01 13:04", formatTime("2024-05-01T10:04:00-03:00"))
	require.Equal(t, "ontem", formatTime("ontem"))
}

func TestFormatChars(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{1234567, "1.234.567"},
		{-1500, "-1.500"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatChars(tt.in))
	}
}
