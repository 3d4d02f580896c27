package app

import (
	"context"
	"sync"
	"time"

	"flowboard/internal/storage"
)

// Event the frontend listens on to show the approval dialog.
const EventApprovalRequired = "mcp:approval-required"

// approvalLister is the read side of storage.ApprovalStore.
type approvalLister interface {
	ListPending(ctx context.Context) ([]storage.PendingApproval, error)
}

// approvalWatcher polls the database for approvals a standalone MCP server
// is waiting on and emits each new one once, so the frontend can ask the
// user.
type approvalWatcher struct {
	ctx      context.Context
	store    approvalLister
	emit     func(event string, data any)
	interval time.Duration

	mu      sync.Mutex
	emitted map[string]bool
	stopCh  chan struct{}
}

func newApprovalWatcher(ctx context.Context, store approvalLister, emit func(string, any)) *approvalWatcher {
	return &approvalWatcher{
		ctx:      ctx,
		store:    store,
		emit:     emit,
		interval: 2 * time.Second,
		emitted:  map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *approvalWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *approvalWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *approvalWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

// check emits approvals not seen before and forgets ones that are no longer
// pending. It returns how many were emitted.
func (w *approvalWatcher) check() int {
	pending, err := w.store.ListPending(w.ctx)
	if err != nil {
		return 0
	}

	live := make(map[string]bool, len(pending))
	var fresh []storage.PendingApproval
	w.mu.Lock()
	for _, p := range pending {
		live[p.ID] = true
		if !w.emitted[p.ID] {
			w.emitted[p.ID] = true
			fresh = append(fresh, p)
		}
	}
	for id := range w.emitted {
		if !live[id] {
			delete(w.emitted, id)
		}
	}
	w.mu.Unlock()

	for _, p := range fresh {
		w.emit(EventApprovalRequired, map[string]any{
			"id":          p.ID,
			"tool":        p.Tool,
			"description": p.Description,
			"metadata":    p.Metadata,
			"createdAt":   p.CreatedAt,
		})
	}
	return len(fresh)
}

// forget drops an id once the user resolved it here.
func (w *approvalWatcher) forget(id string) {
	w.mu.Lock()
	delete(w.emitted, id)
	w.mu.Unlock()
}
