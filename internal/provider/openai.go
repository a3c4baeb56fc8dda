// Package provider builds clients for OpenAI-compatible APIs (OpenAI itself,
// vLLM, Ollama and similar servers).
package provider

import (
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig holds the connection settings shared by every OpenAI client.
type OpenAIConfig struct {
	// Endpoint is the server root, with or without the /v1 suffix.
	Endpoint string
	// APIKey is sent as a bearer token when set.
	APIKey  string
	Timeout time.Duration
}

// NewOpenAIClient creates a client for cfg. Requests are not retried.
func NewOpenAIClient(cfg OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(BaseURL(cfg.Endpoint)),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return openai.NewClient(opts...)
}

// BaseURL returns the API base for endpoint: trailing slashes removed, /v1
// appended when missing, and a final slash for relative request paths.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

// StatusCode returns the HTTP status of an API error, or 0 when err did not
// come from an HTTP response.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
