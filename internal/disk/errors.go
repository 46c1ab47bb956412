package disk

import "errors"

var (
	// ErrSourceMissing indicates the file to relocate is not at its expected path.
	ErrSourceMissing = errors.New("source file missing")

	// ErrDestinationConflict indicates a file already occupies the relocation target.
	ErrDestinationConflict = errors.New("destination already exists")

	// ErrInvalidComponent indicates a value cannot be used as a single path segment.
	ErrInvalidComponent = errors.New("invalid path component")
)
