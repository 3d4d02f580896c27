package domain

import (
	"context"
	"time"
)

// Snapshot sources.
const (
	SourceAutosave = "autosave"
	SourceManual   = "manual"
	SourceImport   = "import" // graph state replaced by an import
)

// Snapshot is a saved copy of the whole flow document, written by autosave
// or on demand. Taking one never bumps the revision.
type Snapshot struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Source       string    `json:"source"`
	Revision     int       `json:"revision"`
	BlockCount   int       `json:"blockCount"`
	DocumentJSON string    `json:"documentJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
	PruneSnapshots(ctx context.Context, keep int) error
}
