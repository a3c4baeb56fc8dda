package extract

import (
	"path/filepath"
	"strings"

	"github.com/hpungsan/brain/internal/errors"
)

// Kind identifies where raw text comes from.
type Kind string

const (
	// KindText is text pasted or captured from the clipboard.
	KindText Kind = "text"
	// KindFile is a file on the local filesystem.
	KindFile Kind = "file"

	KindOneDrive Kind = "onedrive"
	KindGDrive   Kind = "gdrive"
	KindTrello   Kind = "trello"
	KindNotion   Kind = "notion"
	KindOneNote  Kind = "onenote"
)

// cloudKinds are recognised but need provider clients this build does not ship.
var cloudKinds = map[Kind]bool{
	KindOneDrive: true,
	KindGDrive:   true,
	KindTrello:   true,
	KindNotion:   true,
	KindOneNote:  true,
}

// Source describes raw input for the content pipeline.
// Text is used for KindText, Path for KindFile. Name overrides the display
// name; Provider records the originating app for cloud kinds.
type Source struct {
	Kind     Kind   `json:"kind"`
	Text     string `json:"text,omitempty"`
	Path     string `json:"path,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`

	// root is the vault a note was found in; see VaultSources.
	root string
}

// TextSource wraps pasted text.
func TextSource(text string) Source {
	return Source{Kind: KindText, Text: text}
}

// FileSource wraps a local file path.
func FileSource(path string) Source {
	return Source{Kind: KindFile, Path: path}
}

// SourceFor builds a source from request fields. A path wins over text.
func SourceFor(text, path, name string) (Source, error) {
	switch {
	case strings.TrimSpace(path) != "":
		return Source{Kind: KindFile, Path: path, Name: name}, nil
	case text != "":
		return Source{Kind: KindText, Text: text, Name: name}, nil
	default:
		return Source{}, errors.NewInvalidRequest("text or path is required")
	}
}

// Validate checks that the source is well formed and locally readable.
func (s Source) Validate() error {
	switch {
	case s.Kind == KindText:
		return nil
	case s.Kind == KindFile:
		if strings.TrimSpace(s.Path) == "" {
			return errors.NewInvalidRequest("path is required for file sources")
		}
		return nil
	case cloudKinds[s.Kind]:
		return errors.NewUnsupportedSource(string(s.Kind))
	case s.Kind == "":
		return errors.NewInvalidRequest("source kind is required")
	default:
		return errors.NewInvalidRequest("unknown source kind: " + string(s.Kind))
	}
}

// DisplayName is the label stored as a note's source.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Kind {
	case KindFile:
		return filepath.Base(s.Path)
	case KindText:
		return "Texto"
	}
	if s.Provider != "" {
		return s.Provider
	}
	return string(s.Kind)
}
