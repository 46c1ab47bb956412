package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Journal is a directory of relocation intents.
type Journal struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// Open creates the journal directory if needed and checks it is writable.
func Open(dir string, logger *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create journal directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o640); err != nil {
		return nil, fmt.Errorf("journal directory %s is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)

	return &Journal{
		dir:    dir,
		logger: logger.With(slog.String("component", "journal")),
	}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Begin persists a pending entry for intent.
func (j *Journal) Begin(intent Intent) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := &Entry{
		ID:        uuid.New().String(),
		Intent:    intent,
		Status:    StatusPending,
		StartedAt: time.Now().UTC(),
	}
	if err := j.write(entry); err != nil {
		return nil, fmt.Errorf("write journal entry: %w", err)
	}

	j.logger.Debug("relocation intent recorded",
		slog.String("entry_id", entry.ID),
		slog.String("file_id", intent.FileID.String()),
		slog.String("from", intent.FromReference),
		slog.String("to", intent.ToReference),
	)
	return entry, nil
}

// Commit marks a pending entry as applied.
func (j *Journal) Commit(id string) error {
	return j.finish(id, StatusCommitted)
}

// Rollback marks a pending entry as abandoned.
func (j *Journal) Rollback(id string) error {
	return j.finish(id, StatusRolledBack)
}

func (j *Journal) finish(id string, status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, err := j.read(id)
	if err != nil {
		return fmt.Errorf("read journal entry %s: %w", id, err)
	}
	if entry.Status != StatusPending {
		return fmt.Errorf("journal entry %s is %s, expected %s", id, entry.Status, StatusPending)
	}

	now := time.Now().UTC()
	entry.Status = status
	entry.CompletedAt = &now
	if err := j.write(entry); err != nil {
		return fmt.Errorf("update journal entry %s: %w", id, err)
	}
	return nil
}

// Get reads one entry.
func (j *Journal) Get(id string) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read(id)
}

// Pending returns every pending entry, oldest first.
func (j *Journal) Pending() ([]*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.scan()
	if err != nil {
		return nil, err
	}

	var pending []*Entry
	for _, e := range entries {
		if e.Status == StatusPending {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(a, b int) bool {
		return pending[a].StartedAt.Before(pending[b].StartedAt)
	})
	return pending, nil
}

// Prune removes committed and rolled back entries and returns how many went.
func (j *Journal) Prune() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.scan()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, e := range entries {
		if e.Status == StatusPending {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entryFileName(e.ID))); err != nil {
			j.logger.Warn("failed to remove journal entry",
				slog.String("entry_id", e.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		pruned++
	}
	return pruned, nil
}

func (j *Journal) scan() ([]*Entry, error) {
	paths, err := filepath.Glob(filepath.Join(j.dir, "*.journal.json"))
	if err != nil {
		return nil, fmt.Errorf("scan journal directory: %w", err)
	}

	entries := make([]*Entry, 0, len(paths))
	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), ".journal.json")
		entry, err := j.read(id)
		if err != nil {
			j.logger.Warn("skipping unreadable journal entry",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// write stores entry atomically: temp file, fsync, rename.
func (j *Journal) write(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	target := filepath.Join(j.dir, entryFileName(entry.ID))
	tmp := target + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (j *Journal) read(id string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, entryFileName(id)))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &entry, nil
}
