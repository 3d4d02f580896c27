package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrApprovalNotPending = errors.New("approval is not pending")

// Approval statuses. A standalone MCP server inserts pending rows and polls
// until another process flips them.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// PendingApproval is one row of mcp_approvals.
type PendingApproval struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Metadata    string    `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ApprovalStore is the resolving side of the cross-process approval queue.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// ListPending returns pending approvals, oldest first.
func (s *ApprovalStore) ListPending(ctx context.Context) ([]PendingApproval, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, tool, description, metadata, created_at
		 FROM mcp_approvals WHERE status = 'pending' ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []PendingApproval
	for rows.Next() {
		var a PendingApproval
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Resolve approves or rejects a pending action.
func (s *ApprovalStore) Resolve(ctx context.Context, id string, approved bool) error {
	status := ApprovalRejected
	if approved {
		status = ApprovalApproved
	}
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = 'pending'`, status, id)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("resolve approval %s: %w", id, ErrApprovalNotPending)
	}
	return nil
}

// Create inserts a pending approval. The standalone MCP server calls it and
// then polls Status.
func (s *ApprovalStore) Create(ctx context.Context, id, tool, description, metadata string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES (?, ?, ?, ?, ?)`,
		id, tool, description, ApprovalPending, metadata)
	if err != nil {
		return fmt.Errorf("create approval: %w", err)
	}
	return nil
}

// Status returns the status of id.
func (s *ApprovalStore) Status(ctx context.Context, id string) (string, error) {
	var status string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT status FROM mcp_approvals WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("approval status %s: %w", id, err)
	}
	return status, nil
}

// Delete removes id whatever its status.
func (s *ApprovalStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM mcp_approvals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete approval: %w", err)
	}
	return nil
}
