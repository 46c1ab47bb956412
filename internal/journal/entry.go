// Package journal records relocation intents on disk so that a move whose
// record update never landed can be finished or rolled back later.
// Each entry is one JSON file {id}.journal.json in the journal directory.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a journal entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCommitted  Status = "committed"
	StatusRolledBack Status = "rolled_back"
)

// Intent describes one planned relocation of a stored file.
type Intent struct {
	FileID        uuid.UUID `json:"fileId"`
	FromReference string    `json:"fromReference"`
	ToReference   string    `json:"toReference"`
	FromPath      string    `json:"fromPath"`
	ToPath        string    `json:"toPath"`
}

// Entry is an Intent plus its bookkeeping.
type Entry struct {
	ID string `json:"id"`
	Intent
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func entryFileName(id string) string {
	return id + ".journal.json"
}
