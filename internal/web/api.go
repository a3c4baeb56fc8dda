package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/ops"
)

// maxJSONBytes bounds JSON request bodies.
const maxJSONBytes = 8 << 20

type sourceRequest struct {
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
}

type processRequest struct {
	sourceRequest
	Sources     []sourceRequest `json:"sources,omitempty"`
	Vault       string          `json:"vault,omitempty"`
	Concurrency int             `json:"concurrency,omitempty"`
}

type captureRequest struct {
	sourceRequest
	ops.Overrides
}

// HandleAPIProcess handles POST /api/process. It accepts a JSON body with
// text, path, sources or vault, or a multipart upload in the "file" field.
func (h *Handlers) HandleAPIProcess(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		h.processUpload(w, r)
		return
	}

	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.apiError(w, err)
		return
	}

	if req.Vault != "" {
		result, err := h.svc.ProcessVault(r.Context(), req.Vault, req.Concurrency)
		if err != nil {
			h.apiError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, result)
		return
	}

	if len(req.Sources) > 0 {
		sources := make([]extract.Source, len(req.Sources))
		for i, s := range req.Sources {
			src, err := extract.SourceFor(s.Text, s.Path, s.Name)
			if err != nil {
				h.apiError(w, fmt.Errorf("sources[%d]: %w", i, err))
				return
			}
			sources[i] = src
		}
		result, err := h.svc.ProcessBatch(r.Context(), sources, req.Concurrency)
		if err != nil {
			h.apiError(w, err)
			return
		}
		renderJSON(w, http.StatusOK, result)
		return
	}

	src, err := extract.SourceFor(req.Text, req.Path, req.Name)
	if err != nil {
		h.apiError(w, err)
		return
	}
	result, err := h.svc.Process(r.Context(), src, nil)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func (h *Handlers) processUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit())
	file, header, err := r.FormFile("file")
	if err != nil {
		h.apiError(w, errors.NewInvalidRequest(fmt.Sprintf("file upload: %v", err)))
		return
	}
	defer file.Close()

	result, err := h.svc.ProcessUpload(r.Context(), header.Filename, file)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPICapture handles POST /api/capture: process and ingest in one call.
func (h *Handlers) HandleAPICapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.apiError(w, err)
		return
	}
	src, err := extract.SourceFor(req.Text, req.Path, req.Name)
	if err != nil {
		h.apiError(w, err)
		return
	}

	result, err := h.svc.Capture(r.Context(), src, req.Overrides, nil)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleAPIAnalyze handles POST /api/analyze: suggested metadata for
// normalized text, from the analysis model.
func (h *Handlers) HandleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	var input ops.AnalyzeInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.apiError(w, err)
		return
	}

	result, err := h.svc.Analyze(r.Context(), input)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, struct {
		Success bool               `json:"success"`
		Data    *ops.AnalyzeOutput `json:"data"`
	}{true, result})
}

// HandleAPIIngest handles POST /api/ingest.
func (h *Handlers) HandleAPIIngest(w http.ResponseWriter, r *http.Request) {
	var input ops.IngestInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.apiError(w, err)
		return
	}

	result, err := h.svc.Ingest(r.Context(), input)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, struct {
		Success bool `json:"success"`
		*ops.IngestOutput
	}{true, result})
}

// HandleAPISearch handles GET /api/search?q=&topK=.
func (h *Handlers) HandleAPISearch(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Search(r.Context(), ops.SearchInput{
		Query: r.URL.Query().Get("q"),
		TopK:  parseIntParam(r, "topK", ops.DefaultSearchTopK),
	})
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIList handles GET /api/notes.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.List(r.Context(), h.svc.DB, ops.ListInput{
		Category:       q.Get("category"),
		Tag:            q.Get("tag"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIFetch handles GET /api/notes/{id}.
func (h *Handlers) HandleAPIFetch(w http.ResponseWriter, r *http.Request) {
	input := ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}
	if s := r.URL.Query().Get("include_text"); s != "" {
		includeText := s == "true" || s == "1"
		input.IncludeText = &includeText
	}

	result, err := ops.Fetch(r.Context(), h.svc.DB, input)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIDelete handles DELETE /api/notes/{id}.
func (h *Handlers) HandleAPIDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Delete(r.Context(), ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIPurge handles POST /api/purge?older_than_days=N.
func (h *Handlers) HandleAPIPurge(w http.ResponseWriter, r *http.Request) {
	var input ops.PurgeInput
	if days := r.URL.Query().Get("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.apiError(w, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := h.svc.Purge(r.Context(), input)
	if err != nil {
		h.apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.renderer.version,
	})
}

func (h *Handlers) apiError(w http.ResponseWriter, err error) {
	bErr := h.renderer.brainError(err)
	if msg := err.Error(); bErr.Code != errors.ErrInternal && msg != bErr.Error() {
		// Keep wrapper context such as "sources[2]: ".
		copied := *bErr
		copied.Message = strings.Replace(msg, bErr.Error(), bErr.Message, 1)
		bErr = &copied
	}
	writeError(w, bErr)
}

func (h *Handlers) uploadLimit() int64 {
	limit := int64(extract.DefaultMaxFileBytes)
	if h.svc.Config != nil && h.svc.Config.FileMaxBytes > 0 {
		limit = int64(h.svc.Config.FileMaxBytes)
	}
	return limit + 1<<20
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
