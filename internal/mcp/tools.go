package mcp

import "github.com/mark3labs/mcp-go/mcp"

var sourceOptions = []mcp.ToolOption{
	mcp.WithString("text", mcp.Description("Raw text to process (pasted or from the clipboard)")),
	mcp.WithString("path", mcp.Description("Local file to read: .txt/.md, .docx, .pdf or an image (OCR). Must be in ~/.brain/inbox or allowed_paths")),
	mcp.WithString("name", mcp.Description("Display name recorded as the note source")),
}

var processToolDef = mcp.NewTool("note_process",
	append([]mcp.ToolOption{
		mcp.WithDescription("Normalize raw text or a file and extract metadata (title, type, date, tags, links, emails, list items, summary). Stores nothing. Pass sources for a batch or vault for a folder of Markdown notes."),
		mcp.WithArray("sources",
			mcp.Description("Batch of sources, each {text} or {path}; results keep input order"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{"type": "string"},
					"path": map[string]any{"type": "string"},
					"name": map[string]any{"type": "string"},
				},
			}),
		),
		mcp.WithString("vault", mcp.Description("Directory whose .md notes are processed recursively, e.g. an Obsidian vault")),
		mcp.WithNumber("concurrency", mcp.Description("Batch workers (default 4, max 16)")),
	}, sourceOptions...)...,
)

var captureToolDef = mcp.NewTool("note_capture",
	append([]mcp.ToolOption{
		mcp.WithDescription("Process a source and store the result as a note. Optional fields replace the extracted values."),
		mcp.WithString("title", mcp.Description("Replaces the suggested title")),
		mcp.WithString("summary", mcp.Description("Replaces the extractive summary")),
		mcp.WithString("category", mcp.Description("Replaces the detected content type")),
		mcp.WithString("source", mcp.Description("Replaces the source name")),
		mcp.WithArray("tags", mcp.Description("Replaces the extracted tags"), mcp.Items(map[string]any{"type": "string"})),
	}, sourceOptions...)...,
)

var analyzeToolDef = mcp.NewTool("note_analyze",
	mcp.WithDescription("Ask the analysis model to suggest title, summary, tags and category for normalized text. Stores nothing."),
	mcp.WithString("normalizedText", mcp.Required(), mcp.Description("Text returned by note_process")),
)

var ingestToolDef = mcp.NewTool("note_ingest",
	mcp.WithDescription("Store a validated note. Blank fields default to title \"Sem Título\", category \"Geral\", source \"Desconhecida\"."),
	mcp.WithString("title"),
	mcp.WithString("summary"),
	mcp.WithString("category"),
	mcp.WithString("source"),
	mcp.WithString("originalText", mcp.Description("Text as captured")),
	mcp.WithString("normalizedText", mcp.Description("Reconstructed text; used for embedding when originalText is empty")),
	mcp.WithArray("tags", mcp.Items(map[string]any{"type": "string"})),
)

var searchToolDef = mcp.NewTool("note_search",
	mcp.WithDescription("Semantic search over stored notes, best match first."),
	mcp.WithString("query", mcp.Required(), mcp.Description("What to look for")),
	mcp.WithNumber("top_k", mcp.Description("Number of results (default 5, max 50)")),
)

var fetchToolDef = mcp.NewTool("note_fetch",
	mcp.WithDescription("Fetch a note by ID."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithBoolean("include_text", mcp.Description("Include normalized and original text (default true)")),
	mcp.WithBoolean("include_deleted"),
)

var listToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List note summaries, newest first."),
	mcp.WithString("category"),
	mcp.WithString("tag"),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset"),
	mcp.WithBoolean("include_deleted"),
)

var deleteToolDef = mcp.NewTool("note_delete",
	mcp.WithDescription("Soft-delete a note and drop it from search."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithDestructiveHintAnnotation(true),
)

var purgeToolDef = mcp.NewTool("note_purge",
	mcp.WithDescription("Permanently remove soft-deleted notes."),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge notes deleted more than N days ago")),
	mcp.WithDestructiveHintAnnotation(true),
)
