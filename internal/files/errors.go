package files

import (
	"context"
	"errors"
	"fmt"

	"filedepot-backend/internal/disk"
)

// Error kinds returned by Service. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	ErrMissingParameter    = errors.New("missing parameter")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNotFound            = errors.New("file not found")
	ErrSourceMissing       = errors.New("source file missing")
	ErrDestinationConflict = errors.New("destination already exists")
	ErrIOFailure           = errors.New("storage failure")
	ErrInconsistentState   = errors.New("inconsistent state")
)

func missing(name string) error {
	return fmt.Errorf("%w: %s is required", ErrMissingParameter, name)
}

func invalid(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidParameter, name, err)
}

// relocateError maps a disk.Mover failure to an error kind.
func relocateError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, disk.ErrSourceMissing):
		return fmt.Errorf("%w: %w", ErrSourceMissing, err)
	case errors.Is(err, disk.ErrDestinationConflict):
		return fmt.Errorf("%w: %w", ErrDestinationConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
}

// resultLabel names the outcome of an operation for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrMissingParameter), errors.Is(err, ErrInvalidParameter):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSourceMissing):
		return "source_missing"
	case errors.Is(err, ErrDestinationConflict):
		return "destination_conflict"
	case errors.Is(err, ErrInconsistentState):
		return "inconsistent"
	default:
		return "io_failure"
	}
}
