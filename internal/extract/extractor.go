// Package extract turns a Source (pasted text or a local file) into raw text
// for the content pipeline.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/logger"
)

// Format is a file format recognised by extension.
type Format string

const (
	FormatText  Format = "text"
	FormatDocx  Format = "docx"
	FormatPDF   Format = "pdf"
	FormatImage Format = "image"
)

// DefaultMaxFileBytes bounds file reads when no limit is configured.
const DefaultMaxFileBytes = 25 << 20

// DetectFormat maps a file name to its Format. Unknown extensions read as text.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return FormatDocx
	case ".pdf":
		return FormatPDF
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif":
		return FormatImage
	default:
		return FormatText
	}
}

// Config configures an Extractor.
type Config struct {
	// OCR reads images and scanned PDFs. Nil disables OCR.
	OCR OCR
	// MaxFileBytes is the largest file that will be read.
	MaxFileBytes int64
	// Policy restricts readable paths. Nil trusts every path.
	Policy *PathPolicy
	Logger logger.Logger
}

func (c *Config) defaults() {
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = DefaultMaxFileBytes
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
}

// FromConfig builds extractor configuration. Restricted callers (MCP, HTTP)
// are limited to the inbox and allowed_paths.
func FromConfig(cfg *config.Config, restricted bool, log logger.Logger) Config {
	c := Config{
		OCR:          &Tesseract{Command: cfg.OCR.Command, Languages: cfg.OCR.Languages},
		MaxFileBytes: int64(cfg.FileMaxBytes),
		Logger:       log,
	}
	if restricted {
		c.Policy = &PathPolicy{AllowedDirs: cfg.AllowedPaths, AllowAnyDir: cfg.AllowUnsafePaths}
	}
	return c
}

// Extractor acquires raw text from sources.
type Extractor struct {
	cfg Config
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg}
}

// Extract returns the raw text of src. Failures are EXTRACTION_FAILED unless a
// more specific error applies (bad path, unsupported source, file too large).
func (e *Extractor) Extract(ctx context.Context, src Source, progress ProgressFunc) (string, error) {
	if err := src.Validate(); err != nil {
		return "", err
	}
	if src.Kind == KindText {
		return src.Text, nil
	}

	start := time.Now()
	var path string
	var err error
	if src.root != "" {
		path, err = validateVaultFile(src.Path, src.root)
	} else {
		path, err = ValidatePath(src.Path, e.cfg.Policy)
	}
	if err != nil {
		return "", err
	}

	text, err := e.extractFile(ctx, path, progress)
	return e.finish(src.DisplayName(), path, text, err, start)
}

// ExtractUpload copies an uploaded file into a private temp file and extracts
// it like a local file. The path policy does not apply to the server's copy.
func (e *Extractor) ExtractUpload(ctx context.Context, name string, r io.Reader, progress ProgressFunc) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.NewInvalidRequest("file name is required")
	}

	start := time.Now()
	tmp, err := os.CreateTemp("", "brain-upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, e.cfg.MaxFileBytes+1))
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		return "", errors.NewInternal(closeErr)
	}
	if err != nil {
		return "", errors.NewExtractionFailed(name, err)
	}
	if n > e.cfg.MaxFileBytes {
		return "", errors.NewFileTooLarge(e.cfg.MaxFileBytes, n)
	}

	text, err := e.extractFile(ctx, tmp.Name(), progress)
	return e.finish(name, tmp.Name(), text, err, start)
}

func (e *Extractor) finish(name, path, text string, err error, start time.Time) (string, error) {
	if err != nil {
		if _, ok := errors.As(err); ok {
			return "", err
		}
		e.cfg.Logger.Warn("extraction failed",
			logger.String("path", path),
			logger.Error(err),
		)
		return "", errors.NewExtractionFailed(name, err)
	}

	e.cfg.Logger.Debug("extracted text",
		logger.String("path", path),
		logger.String("format", string(DetectFormat(path))),
		logger.Int("chars", len([]rune(text))),
		logger.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

func (e *Extractor) extractFile(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	f, err := e.open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() > e.cfg.MaxFileBytes {
		return "", errors.NewFileTooLarge(e.cfg.MaxFileBytes, info.Size())
	}

	format := DetectFormat(path)
	progress.report(Progress{Stage: StageRead, Message: filepath.Base(path)})

	switch format {
	case FormatDocx:
		progress.report(Progress{Stage: StageExtract, Message: "docx"})
		return extractDocx(f, info.Size())

	case FormatPDF:
		progress.report(Progress{Stage: StageExtract, Message: "pdf"})
		pdfCtx, err := readPDF(f)
		if err != nil {
			return "", err
		}
		if text := pdfText(pdfCtx); strings.TrimSpace(text) != "" {
			return text, nil
		}
		if e.cfg.OCR == nil {
			return "", fmt.Errorf("pdf has no text layer and OCR is disabled")
		}
		e.cfg.Logger.Info("pdf has no text layer, running OCR", logger.String("path", path))
		return ocrPDF(ctx, pdfCtx, e.cfg.OCR, progress)

	case FormatImage:
		if e.cfg.OCR == nil {
			return "", fmt.Errorf("OCR is disabled")
		}
		return e.cfg.OCR.Recognize(ctx, path, progress)

	default:
		data, err := io.ReadAll(io.LimitReader(f, e.cfg.MaxFileBytes))
		if err != nil {
			return "", err
		}
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
}

// open refuses a symlinked final component for restricted callers.
func (e *Extractor) open(path string) (*os.File, error) {
	if e.cfg.Policy != nil {
		return openNoFollow(path)
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}
