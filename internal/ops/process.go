package ops

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/brain/internal/content"
	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/extract"
	"github.com/hpungsan/brain/internal/logger"
)

// Batch limits
const (
	DefaultBatchConcurrency = 4
	MaxBatchConcurrency     = 16
	MaxBatchItems           = 100
)

// ProcessOutput is a pipeline result for one source. Nothing is stored.
type ProcessOutput struct {
	content.Result
	Source string `json:"source"`
}

// Process acquires raw text from src and runs the content pipeline on it.
func (s *Service) Process(ctx context.Context, src extract.Source, progress extract.ProgressFunc) (*ProcessOutput, error) {
	raw, err := s.extractor().Extract(ctx, src, progress)
	if err != nil {
		return nil, err
	}
	return &ProcessOutput{
		Result: content.Process(raw),
		Source: src.DisplayName(),
	}, nil
}

// ProcessUpload runs the content pipeline on an uploaded file.
func (s *Service) ProcessUpload(ctx context.Context, name string, r io.Reader) (*ProcessOutput, error) {
	raw, err := s.extractor().ExtractUpload(ctx, name, r, nil)
	if err != nil {
		return nil, err
	}
	return &ProcessOutput{
		Result: content.Process(raw),
		Source: filepath.Base(name),
	}, nil
}

// BatchItem is the outcome for one source of a batch; exactly one of Result
// and Error is set.
type BatchItem struct {
	Index  int            `json:"index"`
	Result *ProcessOutput `json:"result,omitempty"`
	Error  *ItemError     `json:"error,omitempty"`
}

// ItemError describes why one batch item failed.
type ItemError struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// ProcessBatchOutput holds batch results in input order.
type ProcessBatchOutput struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// ProcessBatch processes sources concurrently. A failing item does not stop
// the others; only context cancellation aborts the batch.
func (s *Service) ProcessBatch(ctx context.Context, sources []extract.Source, concurrency int) (*ProcessBatchOutput, error) {
	if len(sources) == 0 {
		return nil, errors.NewInvalidRequest("at least one source is required")
	}
	if len(sources) > MaxBatchItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("batch exceeds maximum of %d sources", MaxBatchItems))
	}
	return s.processAll(ctx, sources, concurrency)
}

// ProcessVaultOutput holds the results for every note of a vault.
type ProcessVaultOutput struct {
	Vault string `json:"vault"`
	ProcessBatchOutput
}

// ProcessVault runs the content pipeline on every Markdown note under dir,
// nested folders included. Items are in lexical path order and each result's
// source is the note's path relative to the vault.
func (s *Service) ProcessVault(ctx context.Context, dir string, concurrency int) (*ProcessVaultOutput, error) {
	sources, err := s.extractor().VaultSources(dir)
	if err != nil {
		return nil, err
	}
	out, err := s.processAll(ctx, sources, concurrency)
	if err != nil {
		return nil, err
	}
	s.log().Info("vault processed",
		logger.String("vault", dir),
		logger.Int("succeeded", out.Succeeded),
		logger.Int("failed", out.Failed),
	)
	return &ProcessVaultOutput{Vault: dir, ProcessBatchOutput: *out}, nil
}

func (s *Service) processAll(ctx context.Context, sources []extract.Source, concurrency int) (*ProcessBatchOutput, error) {
	concurrency = clampLimit(concurrency, DefaultBatchConcurrency, MaxBatchConcurrency)

	items := make([]BatchItem, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = BatchItem{Index: i}
			out, err := s.Process(gctx, src, nil)
			if err != nil {
				items[i].Error = toItemError(err)
				s.log().Warn("batch item failed",
					logger.Int("index", i),
					logger.String("source", src.DisplayName()),
					logger.Error(err),
				)
				return nil
			}
			items[i].Result = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output := &ProcessBatchOutput{Items: items}
	for _, item := range items {
		if item.Error != nil {
			output.Failed++
		} else {
			output.Succeeded++
		}
	}
	return output, nil
}

func toItemError(err error) *ItemError {
	if bErr, ok := errors.As(err); ok {
		return &ItemError{Code: bErr.Code, Message: bErr.Message}
	}
	return &ItemError{Code: errors.ErrInternal, Message: err.Error()}
}
