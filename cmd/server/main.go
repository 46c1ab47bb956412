package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"filedepot-backend/internal/api"
	"filedepot-backend/internal/config"
	"filedepot-backend/internal/disk"
	"filedepot-backend/internal/files"
	"filedepot-backend/internal/journal"
	"filedepot-backend/internal/logger"
	"filedepot-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.IsDevelopment(), cfg.SentryDSN)
	if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	diskStore, err := disk.NewStore(cfg.StorageRoot)
	if err != nil {
		return err
	}
	j, err := journal.Open(cfg.JournalDir, log)
	if err != nil {
		return err
	}

	svc := files.NewService(cfg, db, diskStore, j, log)
	if _, err := svc.Reconcile(ctx); err != nil {
		log.Error("startup reconciliation failed", "error", err)
	}

	handler := api.NewHandler(cfg, svc, log)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("file service listening",
			"addr", server.Addr,
			"driver", cfg.DBDriver,
			"storage_root", diskStore.Root(),
			"journal_dir", j.Dir(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return err
	}
	log.Info("shutting down file service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", "error", err)
	}
	return nil
}
