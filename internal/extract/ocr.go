package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Progress stages.
const (
	StageRead    = "read"
	StageExtract = "extract"
	StageOCR     = "ocr"
)

// Progress is a status event emitted while raw text is being acquired.
type Progress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// ProgressFunc receives progress events. A nil ProgressFunc discards them.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(p Progress) {
	if f != nil {
		f(p)
	}
}

// OCR recognises text in an image file.
type OCR interface {
	Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error)
}

// Tesseract runs the tesseract command line tool.
type Tesseract struct {
	// Command is the executable name or path. Default: "tesseract".
	Command string
	// Languages is passed to -l, e.g. "por+eng".
	Languages string
}

// Recognize runs `tesseract <path> stdout -l <languages>` and returns stdout.
func (t *Tesseract) Recognize(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	command := t.Command
	if command == "" {
		command = "tesseract"
	}
	args := []string{path, "stdout"}
	if t.Languages != "" {
		args = append(args, "-l", t.Languages)
	}

	progress.report(Progress{Stage: StageOCR, Percent: 0, Message: "recognizing text"})

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s: %w", command, err)
		}
		return "", fmt.Errorf("%s: %w: %s", command, err, msg)
	}

	progress.report(Progress{Stage: StageOCR, Percent: 100, Message: "done"})
	return stdout.String(), nil
}
