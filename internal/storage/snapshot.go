package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flowboard/internal/domain"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore implements domain.SnapshotStore using SQLite.
type SnapshotStore struct {
	db *DB
}

func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveSnapshot inserts s, filling in the id and timestamp when empty.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	if snap.Source == "" {
		snap.Source = domain.SourceManual
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO snapshots (id, label, source, revision, block_count, document_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Label, snap.Source, snap.Revision, snap.BlockCount, snap.DocumentJSON, snap.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) GetSnapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, label, source, revision, block_count, document_json, created_at
		 FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.ID, &snap.Label, &snap.Source, &snap.Revision, &snap.BlockCount, &snap.DocumentJSON, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get snapshot %s: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns up to limit snapshots, newest first. The document
// body is left out; fetch it with GetSnapshot.
func (s *SnapshotStore) ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, label, source, revision, block_count, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Label, &snap.Source, &snap.Revision, &snap.BlockCount, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps only the newest keep snapshots.
func (s *SnapshotStore) PruneSnapshots(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
