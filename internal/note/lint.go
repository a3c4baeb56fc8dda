package note

// LintInput contains parameters for linting a note before ingestion.
type LintInput struct {
	Title        string
	Summary      string
	OriginalText string
	MaxChars     int
}

// LintResult contains the results of linting a note.
type LintResult struct {
	Valid       bool
	Empty       bool // nothing to embed
	TooLarge    bool
	ActualChars int
	MaxChars    int
}

// Lint validates note content and returns a LintResult.
// Size is measured on the text that will be embedded.
func Lint(input LintInput) *LintResult {
	result := &LintResult{
		Valid:    true,
		MaxChars: input.MaxChars,
	}

	if !HasContent(input.Title, input.Summary, input.OriginalText) {
		result.Empty = true
		result.Valid = false
		return result
	}

	result.ActualChars = CountChars(EmbedText(input.Title, input.Summary, input.OriginalText))
	if input.MaxChars > 0 && result.ActualChars > input.MaxChars {
		result.TooLarge = true
		result.Valid = false
	}

	return result
}
