package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"filedepot-backend/internal/disk"
	"filedepot-backend/internal/domain"
	"filedepot-backend/internal/journal"
	"filedepot-backend/internal/store"
)

// Index moves a file to the owner named by target and updates its record.
// Indexing to the owner the file already has returns the record unchanged.
// When several calls race on one file exactly one of them relocates it; the
// others fail with ErrSourceMissing.
func (s *Service) Index(ctx context.Context, fileID string, target domain.ReferenceObj) (*domain.FileRecord, error) {
	rec, err := s.index(ctx, fileID, target)
	indexOperationsTotal.WithLabelValues(resultLabel(err)).Inc()
	return rec, err
}

func (s *Service) index(ctx context.Context, fileID string, target domain.ReferenceObj) (*domain.FileRecord, error) {
	if fileID == "" {
		return nil, missing("fileId")
	}
	if target.ID == "" {
		return nil, missing("referenceObj.id")
	}
	if err := disk.ValidateComponent(target.ID); err != nil {
		return nil, invalid("referenceObj.id", err)
	}
	id, err := uuid.Parse(fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}

	snapshot, err := s.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	return s.transition(ctx, snapshot, target.ID)
}

// transition performs the move described by snapshot -> target. The caller
// holds the lock for snapshot.ID.
func (s *Service) transition(ctx context.Context, snapshot *domain.FileRecord, target string) (*domain.FileRecord, error) {
	current, err := s.loadRecord(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}
	if current.ReferenceObjID == target {
		return current, nil
	}
	if current.ReferenceObjID != snapshot.ReferenceObjID {
		return nil, fmt.Errorf("%w: file %s was moved from %q to %q concurrently",
			ErrSourceMissing, current.ID, snapshot.ReferenceObjID, current.ReferenceObjID)
	}

	oldPath := s.resolver.Resolve(current.AppSource, current.ReferenceObjID, current.Name)
	if current.Path != oldPath {
		return nil, fmt.Errorf("%w: record path %q of file %s does not match %q",
			ErrInconsistentState, current.Path, current.ID, oldPath)
	}
	newPath := s.resolver.Resolve(current.AppSource, target, current.Name)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := s.journal.Begin(journal.Intent{
		FileID:        current.ID,
		FromReference: current.ReferenceObjID,
		ToReference:   target,
		FromPath:      oldPath,
		ToPath:        newPath,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	log := s.logger.With(
		slog.String("file_id", current.ID.String()),
		slog.String("from", current.ReferenceObjID),
		slog.String("to", target),
		slog.String("journal_entry", entry.ID),
	)

	if err := s.mover.Relocate(ctx, oldPath, newPath); err != nil {
		if rbErr := s.journal.Rollback(entry.ID); rbErr != nil {
			log.Warn("journal rollback failed", slog.String("error", rbErr.Error()))
		}
		return nil, relocateError(err)
	}

	// The bytes have moved; the record must follow even if the caller is gone.
	updated, err := s.store.UpdateReference(context.WithoutCancel(ctx), store.UpdateReferenceParams{
		FileID:        current.ID,
		FromReference: current.ReferenceObjID,
		ToReference:   target,
		Path:          newPath,
	})
	if err != nil {
		log.Error("file relocated but record not updated; journal entry left pending",
			slog.String("old_path", oldPath),
			slog.String("new_path", newPath),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, store.ErrReferenceChanged) {
			return nil, fmt.Errorf("%w: record of file %s changed during relocation", ErrInconsistentState, current.ID)
		}
		return nil, fmt.Errorf("%w: update record of file %s: %w", ErrInconsistentState, current.ID, err)
	}

	if err := s.journal.Commit(entry.ID); err != nil {
		log.Warn("journal commit failed", slog.String("error", err.Error()))
	}
	log.Info("file indexed", slog.String("path", newPath))
	return updated, nil
}

// loadRecord fetches a record by id, mapping store failures to error kinds.
func (s *Service) loadRecord(ctx context.Context, id uuid.UUID) (*domain.FileRecord, error) {
	rec, err := s.store.GetFile(ctx, id)
	if errors.Is(err, store.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load file %s: %w", ErrIOFailure, id, err)
	}
	return rec, nil
}
