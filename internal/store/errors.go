package store

import "errors"

var (
	// ErrFileNotFound indicates no file record matched the lookup.
	ErrFileNotFound = errors.New("file not found")

	// ErrReferenceChanged indicates a conditional reference update matched no row
	// because the record no longer carries the expected reference.
	ErrReferenceChanged = errors.New("file reference changed concurrently")

	// ErrUnsupportedDriver indicates an unknown DB_DRIVER value.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
