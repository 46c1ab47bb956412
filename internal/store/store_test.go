package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"filedepot-backend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRecord(appSource, ref, name string) *domain.FileRecord {
	return &domain.FileRecord{
		ID:             uuid.New(),
		AppSource:      appSource,
		ReferenceObjID: ref,
		Path:           "/files/" + appSource + "/" + ref + "/" + name,
		Name:           name,
		OriginalName:   "original-" + name,
		ContentType:    "text/plain",
		FileLength:     10,
	}
}

// runStoreSuite exercises the Store contract against any backend.
func runStoreSuite(t *testing.T, s Store) {
	t.Run("insert and get", func(t *testing.T) {
		ctx := context.Background()
		a := newRecord("Teste", "temp", "a.txt")
		b := newRecord("Teste", "temp", "b.txt")
		if err := s.InsertFiles(ctx, []*domain.FileRecord{a, b}); err != nil {
			t.Fatalf("insert: %v", err)
		}

		got, err := s.GetFile(ctx, a.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.ID != a.ID || got.Path != a.Path || got.ReferenceObjID != "temp" {
			t.Fatalf("unexpected record %+v", got)
		}
		if got.FileLength != 10 || got.OriginalName != "original-a.txt" || got.ContentType != "text/plain" {
			t.Fatalf("unexpected metadata %+v", got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Fatalf("timestamps not set: %+v", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.GetFile(context.Background(), uuid.New())
		if !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("find requires matching reference", func(t *testing.T) {
		ctx := context.Background()
		r := newRecord("Teste", "temp", "c.txt")
		if err := s.InsertFiles(ctx, []*domain.FileRecord{r}); err != nil {
			t.Fatal(err)
		}

		if _, err := s.FindFile(ctx, r.ID, "temp"); err != nil {
			t.Fatalf("find with right reference: %v", err)
		}
		if _, err := s.FindFile(ctx, r.ID, "other"); !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("expected ErrFileNotFound for wrong reference, got %v", err)
		}
	})

	t.Run("batch insert is atomic", func(t *testing.T) {
		ctx := context.Background()
		a := newRecord("Teste", "temp", "d.txt")
		dup := newRecord("Teste", "temp", "e.txt")
		dup.ID = a.ID

		if err := s.InsertFiles(ctx, []*domain.FileRecord{a, dup}); err == nil {
			t.Fatal("expected duplicate id to fail the batch")
		}
		if _, err := s.GetFile(ctx, a.ID); !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("first record of failed batch persisted: %v", err)
		}
	})

	t.Run("update reference", func(t *testing.T) {
		ctx := context.Background()
		r := newRecord("Teste", "temp", "f.txt")
		if err := s.InsertFiles(ctx, []*domain.FileRecord{r}); err != nil {
			t.Fatal(err)
		}

		updated, err := s.UpdateReference(ctx, UpdateReferenceParams{
			FileID:        r.ID,
			FromReference: "temp",
			ToReference:   "abc123",
			Path:          "/files/Teste/abc123/f.txt",
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.ReferenceObjID != "abc123" || updated.Path != "/files/Teste/abc123/f.txt" {
			t.Fatalf("unexpected record %+v", updated)
		}
		if updated.AppSource != r.AppSource || updated.Name != r.Name || updated.FileLength != r.FileLength {
			t.Fatalf("immutable fields changed: %+v", updated)
		}

		if _, err := s.FindFile(ctx, r.ID, "temp"); !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("old reference still matches: %v", err)
		}
		if _, err := s.FindFile(ctx, r.ID, "abc123"); err != nil {
			t.Fatalf("new reference does not match: %v", err)
		}
	})

	t.Run("update reference is conditional", func(t *testing.T) {
		ctx := context.Background()
		r := newRecord("Teste", "temp", "g.txt")
		if err := s.InsertFiles(ctx, []*domain.FileRecord{r}); err != nil {
			t.Fatal(err)
		}

		_, err := s.UpdateReference(ctx, UpdateReferenceParams{
			FileID:        r.ID,
			FromReference: "stale",
			ToReference:   "abc123",
			Path:          "/files/Teste/abc123/g.txt",
		})
		if !errors.Is(err, ErrReferenceChanged) {
			t.Fatalf("expected ErrReferenceChanged, got %v", err)
		}

		got, err := s.GetFile(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.ReferenceObjID != "temp" || got.Path != r.Path {
			t.Fatalf("record changed by failed update: %+v", got)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := s.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}
