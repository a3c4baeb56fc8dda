package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/ops"
)

// Handlers contains HTTP route handlers for the browser pages and the JSON API.
type Handlers struct {
	svc      *ops.Service
	renderer *Renderer
}

// NewHandlers creates handlers over svc.
func NewHandlers(svc *ops.Service, renderer *Renderer) *Handlers {
	return &Handlers{svc: svc, renderer: renderer}
}

// HandleList handles GET /notes, newest notes first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		Category:       q.Get("category"),
		Tag:            q.Get("tag"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.List(r.Context(), h.svc.DB, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Notas",
			Version: h.renderer.version,
			Nav:     "notes",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Category:   input.Category,
		Tag:        input.Tag,
		Deleted:    input.IncludeDeleted,
	})
}

// HandleSearchPage handles GET /notes/search, semantic search from the browser.
func (h *Handlers) HandleSearchPage(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := SearchPageData{
		PageData: PageData{
			Title:   "Busca",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query != "" {
		result, err := h.svc.Search(r.Context(), ops.SearchInput{
			Query: query,
			TopK:  parseIntParam(r, "topK", ops.DefaultSearchTopK),
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Results = result.Results
	}

	h.renderer.renderPage(w, "search", data)
}

// HandleDetail handles GET /notes/{id}, the note rendered as HTML.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	n, err := ops.Fetch(r.Context(), h.svc.DB, ops.FetchInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	body := n.NormalizedText
	if strings.TrimSpace(body) == "" {
		body = n.OriginalText
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   n.Title,
			Version: h.renderer.version,
			Nav:     "notes",
		},
		Note:         n,
		RenderedHTML: renderMarkdown(body),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
