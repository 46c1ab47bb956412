package files

import (
	"context"
	"log/slog"

	"github.com/im7mortal/kmutex"

	"filedepot-backend/internal/config"
	"filedepot-backend/internal/disk"
	"filedepot-backend/internal/journal"
	"filedepot-backend/internal/store"
)

// Service stores uploaded files, moves them between owners and serves them
// back. Calls touching the same file are serialized; calls on different files
// run in parallel.
type Service struct {
	cfg      *config.Config
	store    store.Store
	disk     *disk.Store
	resolver disk.Resolver
	mover    *disk.Mover
	journal  *journal.Journal
	locks    *kmutex.Kmutex
	logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg *config.Config, st store.Store, ds *disk.Store, j *journal.Journal, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		disk:     ds,
		resolver: disk.NewResolver(ds.Root()),
		mover:    disk.NewMover(),
		journal:  j,
		locks:    kmutex.New(),
		logger:   logger.With(slog.String("component", "files")),
	}
}

// ProvisionalReference is the reference assigned to uploads made without one.
func (s *Service) ProvisionalReference() string {
	return s.cfg.ProvisionalReference
}

// Ping checks that the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
