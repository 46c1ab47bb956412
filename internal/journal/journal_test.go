package journal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testIntent() Intent {
	return Intent{
		FileID:        uuid.New(),
		FromReference: "temp",
		ToReference:   "abc123",
		FromPath:      "/files/Teste/temp/f.bin",
		ToPath:        "/files/Teste/abc123/f.bin",
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j, err := Open(dir, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if j.Dir() != dir {
		t.Fatalf("expected %s, got %s", dir, j.Dir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("journal directory not created: %v", err)
	}
}

func TestBeginCommit(t *testing.T) {
	j, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	intent := testIntent()
	entry, err := j.Begin(intent)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if entry.Status != StatusPending || entry.FileID != intent.FileID {
		t.Fatalf("unexpected entry %+v", entry)
	}

	pending, err := j.Pending()
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d (%v)", len(pending), err)
	}
	if pending[0].ToPath != intent.ToPath {
		t.Fatalf("intent not persisted: %+v", pending[0])
	}

	if err := j.Commit(entry.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err := j.Get(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCommitted || got.CompletedAt == nil {
		t.Fatalf("entry not committed: %+v", got)
	}

	pending, _ = j.Pending()
	if len(pending) != 0 {
		t.Fatalf("expected no pending entries, got %d", len(pending))
	}
}

func TestFinishRequiresPending(t *testing.T) {
	j, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	entry, err := j.Begin(testIntent())
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Rollback(entry.ID); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if err := j.Commit(entry.ID); err == nil {
		t.Fatal("expected commit of rolled back entry to fail")
	}
	if err := j.Commit("missing"); err == nil {
		t.Fatal("expected commit of unknown entry to fail")
	}
}

func TestPendingSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	first, _ := j.Begin(testIntent())
	second, _ := j.Begin(testIntent())

	reopened, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	pending, err := reopened.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	ids := map[string]bool{pending[0].ID: true, pending[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Fatalf("unexpected pending entries %v", ids)
	}
}

func TestPruneKeepsPending(t *testing.T) {
	j, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	done, _ := j.Begin(testIntent())
	abandoned, _ := j.Begin(testIntent())
	open, _ := j.Begin(testIntent())
	_ = j.Commit(done.ID)
	_ = j.Rollback(abandoned.ID)

	n, err := j.Prune()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 pruned, got %d", n)
	}
	if _, err := j.Get(open.ID); err != nil {
		t.Fatalf("pending entry removed: %v", err)
	}
	if _, err := j.Get(done.ID); err == nil {
		t.Fatal("committed entry still present")
	}
}

func TestUnreadableEntryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.journal.json"), []byte("{"), 0o640); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Begin(testIntent()); err != nil {
		t.Fatal(err)
	}

	pending, err := j.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 readable pending entry, got %d", len(pending))
	}
}
