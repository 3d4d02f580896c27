package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"flowboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Autosave: periodic snapshots of the live graph
// ─────────────────────────────────────────────────────────────

const autosaveJob = "autosave"

// Autosaver snapshots the editor on a cron schedule. A run is skipped when
// the graph has not changed since the last saved snapshot or when the
// previous run is still going.
type Autosaver struct {
	editor   *Editor
	schedule string
	keep     int
	guard    jobGuard

	mu        sync.Mutex
	lastSaved uint64
	saved     bool
	cronSched *cron.Cron
}

// NewAutosaver creates an Autosaver. keep bounds the history; 0 keeps
// everything.
func NewAutosaver(editor *Editor, schedule string, keep int) *Autosaver {
	return &Autosaver{editor: editor, schedule: schedule, keep: keep}
}

// Start schedules the job. Calling Start twice replaces the schedule.
func (a *Autosaver) Start(ctx context.Context) error {
	a.Stop()

	c := cron.New()
	if _, err := c.AddFunc(a.schedule, func() {
		if _, err := a.RunOnce(ctx); err != nil {
			log.Printf("[AUTOSAVE] run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("autosave: invalid schedule %q: %w", a.schedule, err)
	}
	c.Start()

	a.mu.Lock()
	a.cronSched = c
	a.mu.Unlock()
	log.Printf("[AUTOSAVE] scheduled %q (keep %d)", a.schedule, a.keep)
	return nil
}

// RunOnce takes a snapshot if the graph changed. It reports whether one was
// written.
func (a *Autosaver) RunOnce(ctx context.Context) (bool, error) {
	if !a.guard.begin(autosaveJob) {
		return false, nil
	}
	defer a.guard.end(autosaveJob)

	gen := a.editor.Generation()
	a.mu.Lock()
	unchanged := a.saved && gen == a.lastSaved
	a.mu.Unlock()
	if unchanged {
		return false, nil
	}

	snap, err := a.editor.Snapshot(ctx, "autosave", domain.SourceAutosave)
	if err != nil {
		return false, err
	}
	a.mu.Lock()
	a.lastSaved, a.saved = gen, true
	a.mu.Unlock()
	log.Printf("[AUTOSAVE] saved snapshot %s (%d blocks)", snap.ID, snap.BlockCount)

	if a.keep > 0 && a.editor.snaps != nil {
		if err := a.editor.snaps.PruneSnapshots(ctx, a.keep); err != nil {
			log.Printf("[AUTOSAVE] prune failed: %v", err)
		}
	}
	return true, nil
}

// WaitRunning blocks until an in-flight run finishes or ctx is cancelled.
func (a *Autosaver) WaitRunning(ctx context.Context) {
	a.guard.wait(ctx)
}

// Stop removes the schedule. It is safe to call more than once.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cronSched != nil {
		a.cronSched.Stop()
		a.cronSched = nil
	}
}
