package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// NoteMaxChars is the maximum character count for a stored note.
	NoteMaxChars int `json:"note_max_chars"`

	// FileMaxBytes is the largest source file extraction will read.
	FileMaxBytes int `json:"file_max_bytes,omitempty"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories that MCP and HTTP callers may
	// read source files from. Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction for MCP and HTTP callers.
	// Symlink checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	Embedding   EmbeddingConfig   `json:"embedding"`
	Analysis    AnalysisConfig    `json:"analysis"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	OCR         OCRConfig         `json:"ocr"`
	Web         WebConfig         `json:"web"`
}

// EmbeddingConfig configures the OpenAI-compatible embeddings endpoint.
type EmbeddingConfig struct {
	Endpoint       string `json:"endpoint,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	Dimension      int    `json:"dimension,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	BatchSize      int    `json:"batch_size,omitempty"`
}

// AnalysisConfig configures the OpenAI-compatible chat model that suggests
// note metadata. Endpoint and APIKey fall back to the embedding settings.
type AnalysisConfig struct {
	Endpoint       string  `json:"endpoint,omitempty"`
	Model          string  `json:"model,omitempty"`
	APIKey         string  `json:"api_key,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
}

// VectorStoreConfig selects where note vectors live.
type VectorStoreConfig struct {
	// Backend is "sqlite" (vectors in brain.db) or "qdrant".
	Backend    string `json:"backend,omitempty"`
	URL        string `json:"url,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// OCRConfig configures the external OCR command.
type OCRConfig struct {
	Command   string `json:"command,omitempty"`
	Languages string `json:"languages,omitempty"`
}

// WebConfig configures the HTTP server.
type WebConfig struct {
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Vector store backends.
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		NoteMaxChars: 200000,
		FileMaxBytes: 25 << 20,
		LogLevel:     "info",
		Embedding: EmbeddingConfig{
			Endpoint:       "https://api.openai.com",
			Model:          "text-embedding-3-small",
			Dimension:      1536,
			TimeoutSeconds: 30,
			BatchSize:      64,
		},
		Analysis: AnalysisConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			Temperature:    0.5,
		},
		VectorStore: VectorStoreConfig{
			Backend:    BackendSQLite,
			URL:        "http://localhost:6333",
			Collection: "brain_notes",
		},
		OCR: OCRConfig{
			Command:   "tesseract",
			Languages: "por+eng",
		},
		Web: WebConfig{
			Bind: "127.0.0.1",
			Port: 8377,
		},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.brain) and repo (.brain) directories.
// Repo config is found by walking upward from startDir to find the nearest .brain/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .brain/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".brain", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.NoteMaxChars = pickInt(overlay.NoteMaxChars, base.NoteMaxChars)
	result.FileMaxBytes = pickInt(overlay.FileMaxBytes, base.FileMaxBytes)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.Embedding = EmbeddingConfig{
		Endpoint:       pickString(overlay.Embedding.Endpoint, base.Embedding.Endpoint),
		Model:          pickString(overlay.Embedding.Model, base.Embedding.Model),
		APIKey:         pickString(overlay.Embedding.APIKey, base.Embedding.APIKey),
		Dimension:      pickInt(overlay.Embedding.Dimension, base.Embedding.Dimension),
		TimeoutSeconds: pickInt(overlay.Embedding.TimeoutSeconds, base.Embedding.TimeoutSeconds),
		BatchSize:      pickInt(overlay.Embedding.BatchSize, base.Embedding.BatchSize),
	}
	result.Analysis = AnalysisConfig{
		Endpoint:       pickString(overlay.Analysis.Endpoint, base.Analysis.Endpoint),
		Model:          pickString(overlay.Analysis.Model, base.Analysis.Model),
		APIKey:         pickString(overlay.Analysis.APIKey, base.Analysis.APIKey),
		TimeoutSeconds: pickInt(overlay.Analysis.TimeoutSeconds, base.Analysis.TimeoutSeconds),
		Temperature:    pickFloat(overlay.Analysis.Temperature, base.Analysis.Temperature),
	}
	result.VectorStore = VectorStoreConfig{
		Backend:    pickString(overlay.VectorStore.Backend, base.VectorStore.Backend),
		URL:        pickString(overlay.VectorStore.URL, base.VectorStore.URL),
		Collection: pickString(overlay.VectorStore.Collection, base.VectorStore.Collection),
	}
	result.OCR = OCRConfig{
		Command:   pickString(overlay.OCR.Command, base.OCR.Command),
		Languages: pickString(overlay.OCR.Languages, base.OCR.Languages),
	}
	result.Web = WebConfig{
		Bind: pickString(overlay.Web.Bind, base.Web.Bind),
		Port: pickInt(overlay.Web.Port, base.Web.Port),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// pickInt returns overlay if non-zero, else base.
func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// pickFloat returns overlay if non-zero, else base.
func pickFloat(overlay, base float64) float64 {
	if overlay != 0 {
		return overlay
	}
	return base
}

// pickString returns overlay if non-blank, else base.
func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
