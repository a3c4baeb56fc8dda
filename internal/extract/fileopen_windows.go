//go:build windows

package extract

import (
	"os"

	"github.com/hpungsan/brain/internal/errors"
)

// openNoFollow opens a source file for extraction. Windows has no O_NOFOLLOW,
// so the handle is compared with an Lstat of path after opening: a symlinked
// final component, or one swapped since validation, is refused.
func openNoFollow(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}

	linkInfo, err := os.Lstat(path)
	if err != nil {
		f.Close()
		return nil, err
	}
	if linkInfo.Mode()&os.ModeSymlink != 0 {
		f.Close()
		return nil, errors.NewInvalidRequest("cannot read from symlink")
	}
	openedInfo, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !os.SameFile(linkInfo, openedInfo) {
		f.Close()
		return nil, errors.NewInvalidRequest("file changed while opening")
	}
	return f, nil
}
