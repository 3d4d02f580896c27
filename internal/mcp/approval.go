package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRejected        = errors.New("action rejected by user")
	ErrApprovalTimeout = errors.New("approval timed out")
)

// Events the in-process queue sends to the desktop frontend.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// Statuses an ApprovalBackend reports.
const (
	statusApproved = "approved"
	statusRejected = "rejected"
)

// EventEmitter allows the approval queue to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// ApprovalBackend stores requests where another process can answer them.
// storage.ApprovalStore is the SQLite implementation.
type ApprovalBackend interface {
	Create(ctx context.Context, id, tool, description, metadata string) error
	Status(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// PendingAction is a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // {"blockIds":[...]} for highlighting
}

// ApprovalQueue asks a person before destructive tool calls run. With a
// backend, requests are stored and polled (standalone server, answered by
// the desktop app or the CLI). Without one, they go to the emitter and are
// answered through Approve and Reject. Auto mode lets everything through.
type ApprovalQueue struct {
	emitter EventEmitter
	backend ApprovalBackend
	timeout time.Duration
	poll    time.Duration
	auto    bool

	mu      sync.Mutex
	waiting map[string]chan bool
}

func NewApprovalQueue(emitter EventEmitter, backend ApprovalBackend) *ApprovalQueue {
	return &ApprovalQueue{
		emitter: emitter,
		backend: backend,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
		waiting: make(map[string]chan bool),
	}
}

// SetAutoApprove makes every request pass without asking.
func (q *ApprovalQueue) SetAutoApprove(auto bool) {
	q.auto = auto
}

// SetTimeout bounds how long a request waits for an answer.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request blocks until the action is approved, rejected or times out.
// blockIDs name the blocks the action touches.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, blockIDs ...int) error {
	if q.auto {
		return nil
	}

	action := PendingAction{
		ID:          uuid.New().String(),
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    "{}",
	}
	if len(blockIDs) > 0 {
		raw, _ := json.Marshal(map[string][]int{"blockIds": blockIDs})
		action.Metadata = string(raw)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	answer := make(chan bool, 1)
	if q.backend != nil {
		if err := q.backend.Create(ctx, action.ID, tool, description, action.Metadata); err != nil {
			return fmt.Errorf("store approval: %w", err)
		}
		defer q.backend.Delete(context.Background(), action.ID)
		go q.pollBackend(waitCtx, action.ID, answer)
	} else {
		q.mu.Lock()
		q.waiting[action.ID] = answer
		q.mu.Unlock()
		defer q.forget(action.ID)
		q.emitter.Emit(ctx, EventApprovalRequired, action)
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()
	select {
	case approved := <-answer:
		if !approved {
			return fmt.Errorf("%w: %s", ErrRejected, tool)
		}
		return nil
	case <-timer.C:
		if q.backend == nil {
			q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		}
		return fmt.Errorf("%w after %s: %s", ErrApprovalTimeout, q.timeout, tool)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pollBackend reports the first final status of id.
func (q *ApprovalQueue) pollBackend(ctx context.Context, id string, answer chan<- bool) {
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		status, err := q.backend.Status(ctx, id)
		if err != nil {
			continue
		}
		switch status {
		case statusApproved:
			answer <- true
			return
		case statusRejected:
			answer <- false
			return
		}
	}
}

// Approve answers an in-process request.
func (q *ApprovalQueue) Approve(actionID string) {
	q.answer(actionID, true)
}

// Reject answers an in-process request.
func (q *ApprovalQueue) Reject(actionID string) {
	q.answer(actionID, false)
}

func (q *ApprovalQueue) answer(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.waiting[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- approved:
	default: // already answered
	}
}

func (q *ApprovalQueue) forget(id string) {
	q.mu.Lock()
	delete(q.waiting, id)
	q.mu.Unlock()
}
