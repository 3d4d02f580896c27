package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// jobGuard: one run per job name, and a way to wait them out
// ─────────────────────────────────────────────────────────────

// jobGuard keeps background work from overlapping with itself. Autosave
// uses one fixed name; the inbox uses the file path.
type jobGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// begin marks name as running. It returns false if a run is in flight.
func (g *jobGuard) begin(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, busy := g.running[name]; busy {
		return false
	}
	g.running[name] = struct{}{}
	g.wg.Add(1)
	return true
}

// end must follow a successful begin.
func (g *jobGuard) end(name string) {
	g.mu.Lock()
	delete(g.running, name)
	g.mu.Unlock()
	g.wg.Done()
}

// busy reports how many runs are in flight.
func (g *jobGuard) busy() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.running)
}

// wait blocks until nothing runs or ctx is done.
func (g *jobGuard) wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
