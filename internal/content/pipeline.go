// Package content turns raw captured text into normalized paragraphs and
// best-effort metadata. Every function here is pure and safe for concurrent use.
package content

// Result is the output of one pipeline run.
type Result struct {
	OriginalContent string   `json:"originalContent"`
	NormalizedText  string   `json:"normalizedText"`
	Metadata        Metadata `json:"metadata"`
}

// Process normalizes raw text, extracts its metadata and summarizes it.
// It never fails: empty input degrades to the documented fallbacks.
func Process(raw string) Result {
	normalized := Normalize(raw)

	metadata := Extract(normalized)
	metadata.Summary = Summarize(normalized)

	return Result{
		OriginalContent: raw,
		NormalizedText:  normalized,
		Metadata:        metadata,
	}
}
