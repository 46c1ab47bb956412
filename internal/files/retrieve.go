package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"

	"filedepot-backend/internal/domain"
	"filedepot-backend/internal/store"
)

// Download is an open file together with its record. Callers close Content.
type Download struct {
	Record  *domain.FileRecord
	Content io.ReadCloser
}

// Details returns the record matching both fileID and referenceObjID.
func (s *Service) Details(ctx context.Context, fileID, referenceObjID string) (*domain.FileRecord, error) {
	rec, err := s.find(ctx, fileID, referenceObjID)
	retrievalsTotal.WithLabelValues("details", resultLabel(err)).Inc()
	return rec, err
}

// Retrieve opens the bytes of the file matching both fileID and referenceObjID.
func (s *Service) Retrieve(ctx context.Context, fileID, referenceObjID string) (*Download, error) {
	d, err := s.retrieve(ctx, fileID, referenceObjID)
	retrievalsTotal.WithLabelValues("download", resultLabel(err)).Inc()
	return d, err
}

func (s *Service) retrieve(ctx context.Context, fileID, referenceObjID string) (*Download, error) {
	rec, err := s.find(ctx, fileID, referenceObjID)
	if err != nil {
		return nil, err
	}

	f, err := s.disk.Open(rec.Path)
	if errors.Is(err, fs.ErrNotExist) {
		// An Index may have moved the file after the lookup. Look again with
		// the file locked so record and bytes are read as one state.
		s.locks.Lock(rec.ID)
		defer s.locks.Unlock(rec.ID)

		if rec, err = s.find(ctx, fileID, referenceObjID); err != nil {
			return nil, err
		}
		f, err = s.disk.Open(rec.Path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("record points at missing bytes",
			slog.String("file_id", rec.ID.String()),
			slog.String("path", rec.Path),
		)
		return nil, fmt.Errorf("%w: bytes of file %s missing at %s", ErrIOFailure, rec.ID, rec.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open file %s: %w", ErrIOFailure, rec.ID, err)
	}
	return &Download{Record: rec, Content: f}, nil
}

func (s *Service) find(ctx context.Context, fileID, referenceObjID string) (*domain.FileRecord, error) {
	if fileID == "" {
		return nil, missing("fileId")
	}
	if referenceObjID == "" {
		return nil, missing("referenceObjId")
	}
	id, err := uuid.Parse(fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}

	rec, err := s.store.FindFile(ctx, id, referenceObjID)
	if errors.Is(err, store.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s under %q", ErrNotFound, fileID, referenceObjID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find file %s: %w", ErrIOFailure, fileID, err)
	}
	return rec, nil
}
