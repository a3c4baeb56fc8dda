package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Brain error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrNoteTooLarge      ErrorCode = "NOTE_TOO_LARGE"      // 413
	ErrFileTooLarge      ErrorCode = "FILE_TOO_LARGE"      // 413
	ErrUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"  // 415
	ErrExtractionFailed  ErrorCode = "EXTRACTION_FAILED"   // 422
	ErrEmbeddingFailed   ErrorCode = "EMBEDDING_FAILED"    // 502
	ErrAnalysisFailed    ErrorCode = "ANALYSIS_FAILED"     // 502
	ErrVectorStoreFailed ErrorCode = "VECTOR_STORE_FAILED" // 502
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// BrainError represents a structured error with code, status, and details.
type BrainError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BrainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BrainError {
	return &BrainError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a note cannot be found.
func NewNotFound(id string) *BrainError {
	return &BrainError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("note not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a source file that does not exist.
func NewFileNotFound(path string) *BrainError {
	return &BrainError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNoteTooLarge creates a 413 error when a note exceeds the size limit.
func NewNoteTooLarge(max, actual int) *BrainError {
	return &BrainError{
		Code:    ErrNoteTooLarge,
		Status:  413,
		Message: fmt.Sprintf("note exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewFileTooLarge creates a 413 error when a source file exceeds the read limit.
func NewFileTooLarge(max, actual int64) *BrainError {
	return &BrainError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewUnsupportedSource creates a 415 error for sources that cannot be read locally.
func NewUnsupportedSource(kind string) *BrainError {
	return &BrainError{
		Code:    ErrUnsupportedSource,
		Status:  415,
		Message: fmt.Sprintf("unsupported source: %s", kind),
		Details: map[string]any{"kind": kind},
	}
}

// NewExtractionFailed creates a 422 error when raw text cannot be obtained from a source.
func NewExtractionFailed(name string, err error) *BrainError {
	msg := fmt.Sprintf("could not extract text from %s", name)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &BrainError{
		Code:    ErrExtractionFailed,
		Status:  422,
		Message: msg,
		Details: map[string]any{"source": name},
	}
}

// NewEmbeddingFailed creates a 502 error when the embedding provider fails.
func NewEmbeddingFailed(err error) *BrainError {
	return &BrainError{
		Code:    ErrEmbeddingFailed,
		Status:  502,
		Message: fmt.Sprintf("embedding failed: %v", err),
	}
}

// NewAnalysisFailed creates a 502 error when the analysis model fails or
// answers with something other than the expected JSON object.
func NewAnalysisFailed(err error) *BrainError {
	return &BrainError{
		Code:    ErrAnalysisFailed,
		Status:  502,
		Message: fmt.Sprintf("analysis failed: %v", err),
	}
}

// NewVectorStoreFailed creates a 502 error when the vector store fails.
func NewVectorStoreFailed(err error) *BrainError {
	return &BrainError{
		Code:    ErrVectorStoreFailed,
		Status:  502,
		Message: fmt.Sprintf("vector store failed: %v", err),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *BrainError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &BrainError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a BrainError with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *BrainError
	if stderrors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}

// As returns the BrainError in err's chain, if any.
func As(err error) (*BrainError, bool) {
	var bErr *BrainError
	ok := stderrors.As(err, &bErr)
	return bErr, ok
}
