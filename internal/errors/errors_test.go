package errors

import (
	"fmt"
	"testing"
)

func TestBrainError_Error(t *testing.T) {
	err := &BrainError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "note not found",
	}

	expected := "NOT_FOUND: note not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("query is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "query is required" {
		t.Errorf("Message = %q, want %q", err.Message, "query is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01HZX")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["id"] != "01HZX" {
		t.Errorf("Details[id] = %v, want %q", err.Details["id"], "01HZX")
	}
}

func TestNewNoteTooLarge(t *testing.T) {
	err := NewNoteTooLarge(12000, 15000)

	if err.Code != ErrNoteTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrNoteTooLarge)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_chars"] != 12000 {
		t.Errorf("Details[max_chars] = %v, want 12000", err.Details["max_chars"])
	}
	if err.Details["actual_chars"] != 15000 {
		t.Errorf("Details[actual_chars] = %v, want 15000", err.Details["actual_chars"])
	}
}

func TestNewFileTooLarge(t *testing.T) {
	err := NewFileTooLarge(10*1024*1024, 15*1024*1024)

	// File limits are reported in bytes, distinct from note limits
	if err.Code != ErrFileTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileTooLarge)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_bytes"] != int64(10*1024*1024) {
		t.Errorf("Details[max_bytes] = %v, want %v", err.Details["max_bytes"], int64(10*1024*1024))
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *BrainError
		code   ErrorCode
		status int
	}{
		{NewUnsupportedSource("gdrive"), ErrUnsupportedSource, 415},
		{NewExtractionFailed("scan.pdf", fmt.Errorf("corrupt xref")), ErrExtractionFailed, 422},
		{NewEmbeddingFailed(fmt.Errorf("timeout")), ErrEmbeddingFailed, 502},
		{NewAnalysisFailed(fmt.Errorf("bad json")), ErrAnalysisFailed, 502},
		{NewVectorStoreFailed(fmt.Errorf("refused")), ErrVectorStoreFailed, 502},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
		}
		if tt.err.Status != tt.status {
			t.Errorf("%s: Status = %d, want %d", tt.code, tt.err.Status, tt.status)
		}
	}
}

func TestNewExtractionFailed_Message(t *testing.T) {
	err := NewExtractionFailed("scan.pdf", fmt.Errorf("corrupt xref"))

	want := "could not extract text from scan.pdf: corrupt xref"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
	if err.Details["source"] != "scan.pdf" {
		t.Errorf("Details[source] = %v, want %q", err.Details["source"], "scan.pdf")
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("x"), ErrInternal) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("non-BrainError", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for non-BrainError")
		}
	})

	t.Run("wrapped BrainError", func(t *testing.T) {
		wrapped := fmt.Errorf("items[0]: %w", NewEmbeddingFailed(fmt.Errorf("boom")))
		if !Is(wrapped, ErrEmbeddingFailed) {
			t.Error("Is() = false, want true for wrapped BrainError")
		}
		if _, ok := As(wrapped); !ok {
			t.Error("As() = false, want true for wrapped BrainError")
		}
	})
}
