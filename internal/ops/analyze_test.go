package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/brain/internal/analyze"
	"github.com/hpungsan/brain/internal/errors"
)

// stubAnalyzer returns a fixed analysis and records the text it saw.
type stubAnalyzer struct {
	result *analyze.Analysis
	err    error
	got    string
}

func (a *stubAnalyzer) Analyze(ctx context.Context, text string) (*analyze.Analysis, error) {
	a.got = text
	if a.err != nil {
		return nil, a.err
	}
	r := *a.result
	return &r, nil
}

func (a *stubAnalyzer) Model() string { return "stub" }

func TestAnalyze(t *testing.T) {
	s, _ := newTestService(t)
	stub := &stubAnalyzer{result: &analyze.Analysis{
		Title:    "Viagem a Lisboa",
		Summary:  "Plano da viagem.",
		Tags:     []string{"Viagem", "#lisboa", "viagem"},
		Category: "Pessoal",
	}}
	s.Analyzer = stub

	out, err := s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "  Roteiro da viagem.  "})
	require.NoError(t, err)
	require.Equal(t, "Roteiro da viagem.", stub.got)
	require.Equal(t, "Viagem a Lisboa", out.Title)
	require.Equal(t, []string{"viagem", "lisboa"}, out.Tags)
	require.Equal(t, "Pessoal", out.Category)
	require.Equal(t, "stub", out.Model)
}

func TestAnalyze_Errors(t *testing.T) {
	s, _ := newTestService(t)
	s.Analyzer = &stubAnalyzer{err: stderrors.New("model down")}

	_, err := s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "  "})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)

	s.Config.NoteMaxChars = 5
	_, err = s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "texto longo"})
	require.True(t, errors.Is(err, errors.ErrNoteTooLarge), "got %v", err)
	s.Config.NoteMaxChars = 200000

	_, err = s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "texto"})
	require.True(t, errors.Is(err, errors.ErrAnalysisFailed), "got %v", err)

	s.Analyzer = nil
	_, err = s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "texto"})
	require.True(t, errors.Is(err, errors.ErrAnalysisFailed), "got %v", err)
}

func TestAnalyze_ChatServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		content := `{\"title\":\"Lista de compras\",\"summary\":\"Itens do mercado.\",\"tags\":[\"mercado\"],\"category\":\"Pessoal\"}`
		fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"%s"}}]}`, content)
	}))
	defer srv.Close()

	s, _ := newTestService(t)
	s.Analyzer = analyze.New(analyze.Config{Endpoint: srv.URL, Model: "m"})

	out, err := s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "- leite\n- pão"})
	require.NoError(t, err)
	require.Equal(t, "Lista de compras", out.Title)
	require.Equal(t, []string{"mercado"}, out.Tags)

	// Answers that are not a JSON object surface as ANALYSIS_FAILED
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c2","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"desculpe"}}]}`)
	}))
	defer bad.Close()
	s.Analyzer = analyze.New(analyze.Config{Endpoint: bad.URL, Model: "m"})

	_, err = s.Analyze(context.Background(), AnalyzeInput{NormalizedText: "texto"})
	require.True(t, errors.Is(err, errors.ErrAnalysisFailed), "got %v", err)
	require.True(t, strings.HasPrefix(err.Error(), "ANALYSIS_FAILED"), "got %v", err)
}
