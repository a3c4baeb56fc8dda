package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// SourceRequest identifies raw input: text, or a file path.
type SourceRequest struct {
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
}

// ProcessRequest represents the arguments for note_process.
type ProcessRequest struct {
	SourceRequest
	Sources     []SourceRequest `json:"sources,omitempty"`
	Vault       string          `json:"vault,omitempty"`
	Concurrency int             `json:"concurrency,omitempty"`
}

// CaptureRequest represents the arguments for note_capture.
type CaptureRequest struct {
	SourceRequest
	Title    *string  `json:"title,omitempty"`
	Summary  *string  `json:"summary,omitempty"`
	Category *string  `json:"category,omitempty"`
	Source   *string  `json:"source,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// AnalyzeRequest represents the arguments for note_analyze.
type AnalyzeRequest = ops.AnalyzeInput

// IngestRequest represents the arguments for note_ingest.
type IngestRequest = ops.IngestInput

// SearchRequest represents the arguments for note_search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// FetchRequest represents the arguments for note_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	IncludeText    *bool  `json:"include_text,omitempty"`
}

// ListRequest represents the arguments for note_list.
type ListRequest struct {
	Category       string `json:"category,omitempty"`
	Tag            string `json:"tag,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// DeleteRequest represents the arguments for note_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// PurgeRequest represents the arguments for note_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

func (r SourceRequest) toSource() (extract.Source, error) {
	return extract.SourceFor(r.Text, r.Path, r.Name)
}

// Handler implementations

// HandleProcess handles the note_process tool call.
func (h *Handlers) HandleProcess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProcessRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if input.Vault != "" {
		result, err := h.svc.ProcessVault(ctx, input.Vault, input.Concurrency)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	}

	if len(input.Sources) > 0 {
		sources := make([]extract.Source, len(input.Sources))
		for i, s := range input.Sources {
			src, err := s.toSource()
			if err != nil {
				return errorResult(err), nil
			}
			sources[i] = src
		}
		result, err := h.svc.ProcessBatch(ctx, sources, input.Concurrency)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	}

	src, err := input.toSource()
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.svc.Process(ctx, src, nil)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCapture handles the note_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	src, err := input.toSource()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Capture(ctx, src, ops.Overrides{
		Title:    input.Title,
		Summary:  input.Summary,
		Category: input.Category,
		Source:   input.Source,
		Tags:     input.Tags,
	}, nil)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAnalyze handles the note_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Analyze(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleIngest handles the note_ingest tool call.
func (h *Handlers) HandleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IngestRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Ingest(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSearch handles the note_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Search(ctx, ops.SearchInput{
		Query: input.Query,
		TopK:  input.TopK,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the note_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.svc.DB, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
		IncludeText:    input.IncludeText,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the note_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.svc.DB, ops.ListInput{
		Category:       input.Category,
		Tag:            input.Tag,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the note_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Delete(ctx, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePurge handles the note_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.Purge(ctx, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any
	if bErr, ok := errors.As(err); ok {
		msg := bErr.Message
		if err != error(bErr) {
			// Keep wrapper context such as "items[2]: ".
			msg = strings.Replace(err.Error(), bErr.Error(), bErr.Message, 1)
		}
		errorObj := map[string]any{
			"code":    bErr.Code,
			"message": msg,
			"status":  bErr.Status,
		}
		if bErr.Code != errors.ErrInternal && bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
