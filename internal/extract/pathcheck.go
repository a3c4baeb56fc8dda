package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/brain/internal/errors"
)

// PathPolicy restricts which files untrusted callers (MCP, HTTP) may read.
// A nil policy means the caller is trusted (the local CLI).
type PathPolicy struct {
	// AllowedDirs are absolute directories whose direct children may be read.
	// The inbox directory (~/.brain/inbox) is always allowed.
	AllowedDirs []string
	// AllowAnyDir lifts the directory restriction; symlink checks still apply.
	AllowAnyDir bool
}

// ValidatePath checks a source path before it is opened.
//
// Under a policy the file must sit directly in an allowed directory (no
// subdirectories), so no intermediate component can be swapped for a symlink
// between validation and open. The final component is opened with O_NOFOLLOW.
func ValidatePath(path string, policy *PathPolicy) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}

	if policy != nil && !policy.AllowAnyDir {
		allowedDirs, err := policy.resolvedDirs()
		if err != nil {
			return "", err
		}
		parentDir := filepath.Dir(absPath)
		if !isDirectlyInAllowedDir(parentDir, allowedDirs) {
			return "", errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
					allowedDirs))
		}
		if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", errors.NewInvalidRequest("parent directory must not be a symlink")
		}
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
	if info.IsDir() {
		return "", errors.NewInvalidRequest("path is a directory")
	}

	return absPath, nil
}

// cleanAbs rejects blank and traversing paths and returns the absolute form.
func cleanAbs(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	return absPath, nil
}

// DefaultInboxDir returns ~/.brain/inbox.
func DefaultInboxDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".brain", "inbox"), nil
}

// resolvedDirs returns the inbox plus configured absolute directories, with
// symlinked entries resolved to their targets.
func (p *PathPolicy) resolvedDirs() ([]string, error) {
	inbox, err := DefaultInboxDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{inbox}
	for _, d := range p.AllowedDirs {
		if filepath.IsAbs(d) {
			dirs = append(dirs, filepath.Clean(d))
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if info, err := os.Lstat(d); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(d)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			d = resolved
		}
		result = append(result, d)
	}
	return result, nil
}

func isDirectlyInAllowedDir(parentDir string, allowedDirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	for _, dir := range allowedDirs {
		if parentDir == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
