package service

import (
	"context"
	"testing"
	"time"
)

func TestJobGuard_OneRunPerName(t *testing.T) {
	var g jobGuard

	if !g.begin("autosave") {
		t.Fatal("expected first begin to succeed")
	}
	if g.begin("autosave") {
		t.Fatal("expected second begin for the same job to fail")
	}
	if !g.begin("/inbox/a.json") {
		t.Fatal("expected a different job to start")
	}
	if n := g.busy(); n != 2 {
		t.Fatalf("busy = %d, want 2", n)
	}
	g.end("autosave")
	g.end("/inbox/a.json")

	if !g.begin("autosave") {
		t.Fatal("expected begin to succeed after end")
	}
	g.end("autosave")
}

func TestJobGuard_Wait(t *testing.T) {
	var g jobGuard
	g.begin("autosave")

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.wait(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("wait returned while the job was running")
	default:
	}
	g.end("autosave")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after end")
	}
}

func TestJobGuard_WaitHonoursContext(t *testing.T) {
	var g jobGuard
	g.begin("stuck")
	defer g.end("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	g.wait(ctx)
	if time.Since(start) > time.Second {
		t.Fatal("wait ignored the context deadline")
	}
}
