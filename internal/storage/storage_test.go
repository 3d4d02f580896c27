package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"flowboard/internal/domain"
	"flowboard/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "nested", "flowboard.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────

func TestSettingsStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewSettingsStore(openDB(t))

	if _, ok, err := kv.Get(ctx, "flowboard.revision"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "flowboard.revision", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "flowboard.revision", "2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := kv.Get(ctx, "flowboard.revision")
	if err != nil || !ok || v != "2" {
		t.Fatalf("expected 2, got %q ok=%v err=%v", v, ok, err)
	}

	if err := kv.Delete(ctx, "flowboard.revision"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "flowboard.revision"); ok {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowboard.db")
	for i := 0; i < 2; i++ {
		db, err := storage.New(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		db.Close()
	}
}

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()

	kv.Set(ctx, "a", "1")
	if v, ok, _ := kv.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q ok=%v", v, ok)
	}
	kv.Delete(ctx, "a")
	if _, ok, _ := kv.Get(ctx, "a"); ok {
		t.Fatal("expected a to be deleted")
	}
}

// ─────────────────────────────────────────────────────────────
// Snapshots
// ─────────────────────────────────────────────────────────────

func TestSnapshotStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := storage.NewSnapshotStore(openDB(t))
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, label := range []string{"first", "second", "third"} {
		snap := &domain.Snapshot{
			Label:        label,
			Source:       domain.SourceAutosave,
			Revision:     i,
			BlockCount:   i + 1,
			DocumentJSON: `{"blocks":[],"connections":[]}`,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("save %s: %v", label, err)
		}
		if snap.ID == "" {
			t.Fatal("expected SaveSnapshot to assign an id")
		}
	}

	list, err := s.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(list))
	}
	if list[0].Label != "third" || list[1].Label != "second" {
		t.Errorf("expected newest first, got %q, %q", list[0].Label, list[1].Label)
	}
	if list[0].DocumentJSON != "" {
		t.Error("expected list to omit document bodies")
	}

	got, err := s.GetSnapshot(ctx, list[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BlockCount != 2 || got.DocumentJSON == "" || got.Source != domain.SourceAutosave {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestSnapshotStore_NotFound(t *testing.T) {
	s := storage.NewSnapshotStore(openDB(t))
	_, err := s.GetSnapshot(context.Background(), "missing")
	if !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := storage.NewSnapshotStore(openDB(t))
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		snap := &domain.Snapshot{DocumentJSON: "{}", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := s.PruneSnapshots(ctx, 2); err != nil {
		t.Fatalf("prune: %v", err)
	}

	list, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 snapshots after prune, got %d", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Errorf("expected the newest snapshots to survive")
	}
}

// ─────────────────────────────────────────────────────────────
// Approvals
// ─────────────────────────────────────────────────────────────

func TestApprovalStore_ListAndResolve(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	store := storage.NewApprovalStore(db)

	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, id, "clear_canvas", "wipe", "{}"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 || pending[0].Tool != "clear_canvas" || pending[0].Metadata != "{}" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := store.Resolve(ctx, "a", true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	status, err := store.Status(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if status != storage.ApprovalApproved {
		t.Errorf("status = %q, want approved", status)
	}

	pending, _ = store.ListPending(ctx)
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Errorf("pending after resolve = %+v", pending)
	}

	if err := store.Resolve(ctx, "a", false); !errors.Is(err, storage.ErrApprovalNotPending) {
		t.Errorf("second resolve: got %v, want ErrApprovalNotPending", err)
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Status(ctx, "a"); err == nil {
		t.Error("status of a deleted approval succeeded")
	}
}
