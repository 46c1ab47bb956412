package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filedepot-backend/internal/journal"
	"filedepot-backend/internal/store"
)

// ReconcileReport summarizes one pass over the pending journal entries.
type ReconcileReport struct {
	Committed  int `json:"committed"`
	Completed  int `json:"completed"`
	RolledBack int `json:"rolledBack"`
	Unresolved int `json:"unresolved"`
	Pruned     int `json:"pruned"`
}

type outcome string

const (
	outcomeCommitted  outcome = "committed"
	outcomeCompleted  outcome = "completed"
	outcomeRolledBack outcome = "rolled_back"
	outcomeUnresolved outcome = "unresolved"
	outcomeSkipped    outcome = "skipped"
)

// Reconcile settles relocations whose record update never landed. Entries it
// cannot settle from the state of the record and the disk stay pending.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	pending, err := s.journal.Pending()
	if err != nil {
		return nil, fmt.Errorf("%w: list journal: %w", ErrIOFailure, err)
	}

	report := &ReconcileReport{}
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		s.locks.Lock(e.FileID)
		out, err := s.reconcileEntry(ctx, e.ID)
		s.locks.Unlock(e.FileID)
		if err != nil {
			return report, err
		}

		reconcileEntriesTotal.WithLabelValues(string(out)).Inc()
		switch out {
		case outcomeCommitted:
			report.Committed++
		case outcomeCompleted:
			report.Completed++
		case outcomeRolledBack:
			report.RolledBack++
		case outcomeUnresolved:
			report.Unresolved++
		}
	}

	if report.Pruned, err = s.journal.Prune(); err != nil {
		return report, fmt.Errorf("%w: prune journal: %w", ErrIOFailure, err)
	}

	s.logger.Info("reconciliation finished",
		slog.Int("committed", report.Committed),
		slog.Int("completed", report.Completed),
		slog.Int("rolled_back", report.RolledBack),
		slog.Int("unresolved", report.Unresolved),
		slog.Int("pruned", report.Pruned),
	)
	return report, nil
}

// reconcileEntry settles one entry. The caller holds the lock for its file.
func (s *Service) reconcileEntry(ctx context.Context, entryID string) (outcome, error) {
	// Re-read under the lock; an Index call may have finished it meanwhile.
	e, err := s.journal.Get(entryID)
	if err != nil {
		return "", fmt.Errorf("%w: read journal entry %s: %w", ErrIOFailure, entryID, err)
	}
	if e.Status != journal.StatusPending {
		return outcomeSkipped, nil
	}

	log := s.logger.With(
		slog.String("journal_entry", e.ID),
		slog.String("file_id", e.FileID.String()),
		slog.String("from", e.FromReference),
		slog.String("to", e.ToReference),
	)

	rec, err := s.store.GetFile(ctx, e.FileID)
	if errors.Is(err, store.ErrFileNotFound) {
		log.Warn("journal entry refers to a missing record, left pending")
		return outcomeUnresolved, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: load file %s: %w", ErrIOFailure, e.FileID, err)
	}

	if rec.ReferenceObjID == e.ToReference && rec.Path == e.ToPath {
		return outcomeCommitted, s.settle(e.ID, s.journal.Commit)
	}
	if rec.ReferenceObjID != e.FromReference {
		log.Warn("record matches neither side of the journal entry, left pending",
			slog.String("record_reference", rec.ReferenceObjID))
		return outcomeUnresolved, nil
	}

	atFrom, err := s.disk.Exists(e.FromPath)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %w", ErrIOFailure, e.FromPath, err)
	}
	atTo, err := s.disk.Exists(e.ToPath)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %w", ErrIOFailure, e.ToPath, err)
	}

	switch {
	case atTo && !atFrom:
		if _, err := s.store.UpdateReference(ctx, store.UpdateReferenceParams{
			FileID:        e.FileID,
			FromReference: e.FromReference,
			ToReference:   e.ToReference,
			Path:          e.ToPath,
		}); err != nil {
			log.Error("completing relocation failed, left pending", slog.String("error", err.Error()))
			return outcomeUnresolved, nil
		}
		log.Info("relocation completed from journal")
		return outcomeCompleted, s.settle(e.ID, s.journal.Commit)
	case atFrom && !atTo:
		log.Info("relocation never happened, rolling back")
		return outcomeRolledBack, s.settle(e.ID, s.journal.Rollback)
	default:
		log.Warn("cannot determine relocation state, left pending",
			slog.Bool("bytes_at_from", atFrom),
			slog.Bool("bytes_at_to", atTo))
		return outcomeUnresolved, nil
	}
}

func (s *Service) settle(id string, finish func(string) error) error {
	if err := finish(id); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
