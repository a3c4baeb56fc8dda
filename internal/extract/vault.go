package extract

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/brain/internal/errors"
	"github.com/hpungsan/brain/internal/logger"
)

// MaxVaultNotes bounds how many notes one vault import reads.
const MaxVaultNotes = 500

var errTooManyNotes = stderrors.New("too many notes")

// VaultSources walks a Markdown vault (an Obsidian folder, for example) and
// returns a file source for every .md note, in lexical path order. Each
// source is named by its path relative to the vault.
//
// Dot-directories (.obsidian, .trash, .git) and symlinks are skipped. Under a
// path policy the vault must be an allowed directory or lie beneath one.
func (e *Extractor) VaultSources(dir string) ([]Source, error) {
	root, err := ValidateDir(dir, e.cfg.Policy)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		if len(sources) == MaxVaultNotes {
			return errTooManyNotes
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sources = append(sources, Source{
			Kind: KindFile,
			Path: path,
			Name: filepath.ToSlash(rel),
			root: root,
		})
		return nil
	})
	if stderrors.Is(walkErr, errTooManyNotes) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("vault has more than %d Markdown notes", MaxVaultNotes))
	}
	if walkErr != nil {
		return nil, errors.NewExtractionFailed(dir, walkErr)
	}
	if len(sources) == 0 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("no Markdown notes found in %s", dir))
	}

	e.cfg.Logger.Debug("vault expanded",
		logger.String("vault", root),
		logger.Int("notes", len(sources)),
	)
	return sources, nil
}

// ValidateDir checks a vault directory before it is walked.
//
// Under a policy the directory must be an allowed directory or sit beneath
// one, and no component below the allowed directory may be a symlink.
func ValidateDir(path string, policy *PathPolicy) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(absPath)
	if os.IsNotExist(err) {
		return "", errors.NewFileNotFound(path)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if policy != nil && info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("path must not be a symlink")
	}
	if !info.IsDir() {
		return "", errors.NewInvalidRequest("path is not a directory")
	}

	if policy != nil && !policy.AllowAnyDir {
		allowedDirs, err := policy.resolvedDirs()
		if err != nil {
			return "", err
		}
		base, ok := enclosingAllowedDir(absPath, allowedDirs)
		if !ok {
			return "", errors.NewInvalidRequest(
				fmt.Sprintf("directory must be an allowed directory or inside one; allowed: %v", allowedDirs))
		}
		if hasSymlinkBelow(base, absPath) {
			return "", errors.NewInvalidRequest("directory path must not contain symlinks")
		}
	}

	return absPath, nil
}

// validateVaultFile checks a note found by VaultSources before it is opened.
func validateVaultFile(path, root string) (string, error) {
	absPath := filepath.Clean(path)
	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.NewInvalidRequest("path is outside the vault")
	}

	info, err := os.Lstat(absPath)
	if os.IsNotExist(err) {
		return "", errors.NewFileNotFound(path)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("path must not be a symlink")
	}
	if info.IsDir() {
		return "", errors.NewInvalidRequest("path is a directory")
	}
	return absPath, nil
}

// enclosingAllowedDir returns the allowed directory that is path or one of its ancestors.
func enclosingAllowedDir(path string, allowedDirs []string) (string, bool) {
	for _, dir := range allowedDirs {
		dir = filepath.Clean(dir)
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return dir, true
		}
	}
	return "", false
}

// hasSymlinkBelow reports whether any component of path under base is a symlink.
func hasSymlinkBelow(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." {
		return false
	}
	cur := base
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		if info, err := os.Lstat(cur); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return true
		}
	}
	return false
}
