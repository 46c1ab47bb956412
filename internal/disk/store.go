package disk

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists uploaded bytes at resolved paths under a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root, creating the directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: filepath.Clean(root)}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// WriteFile copies data to path through a sibling ".partial" file so readers
// never observe a half-written file. It returns the number of bytes written.
func (s *Store) WriteFile(path string, data io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	if _, err := os.Lstat(path); err == nil {
		return 0, fmt.Errorf("%w: %s", ErrDestinationConflict, path)
	}

	tmpPath := path + ".partial"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := file.Sync(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return written, nil
}

// Open opens a stored file for reading.
func (s *Store) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Exists reports whether a regular file is present at path.
func (s *Store) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
