package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Mover relocates stored files between resolved paths on one volume.
type Mover struct {
	dirPerm os.FileMode
}

// NewMover returns a Mover creating missing directories with 0o755.
func NewMover() *Mover {
	return &Mover{dirPerm: 0o755}
}

// Relocate moves the file at oldPath to newPath, creating the parent directory
// of newPath when needed. An existing file at newPath is never overwritten:
// the file is hard-linked into place, which fails if newPath exists, and only
// then unlinked from oldPath. Both paths must be on one volume. A directory
// left behind by a failed call is harmless and reused by the next one.
func (m *Mover) Relocate(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if oldPath == newPath {
		if _, err := os.Lstat(oldPath); err != nil {
			return statError(oldPath, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(newPath), m.dirPerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", newPath, err)
	}

	if err := os.Link(oldPath, newPath); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return fmt.Errorf("%w: %s", ErrDestinationConflict, newPath)
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: %s", ErrSourceMissing, oldPath)
		default:
			return fmt.Errorf("link %s: %w", oldPath, err)
		}
	}

	if err := os.Remove(oldPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Someone else unlinked the source; the file now lives at newPath only.
			return nil
		}
		_ = os.Remove(newPath)
		return fmt.Errorf("unlink %s: %w", oldPath, err)
	}
	return nil
}

func statError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, path)
	}
	return fmt.Errorf("stat %s: %w", path, err)
}
