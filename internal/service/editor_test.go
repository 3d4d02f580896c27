package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flowboard/internal/canvas"
	"flowboard/internal/codec"
	"flowboard/internal/domain"
	"flowboard/internal/geometry"
	"flowboard/internal/graph"
	"flowboard/internal/interaction"
	"flowboard/internal/service"
	"flowboard/internal/storage"
)

type fixture struct {
	editor  *service.Editor
	kv      *storage.MemoryKV
	scene   *canvas.Scene
	emitter *service.MockEmitter
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	t.Helper()
	f := &fixture{kv: storage.NewMemoryKV(), scene: canvas.NewScene(), emitter: &service.MockEmitter{}}
	opts := service.EditorOptions{
		Width:    800,
		Height:   600,
		KV:       f.kv,
		Renderer: f.scene,
		Emitter:  f.emitter,
		Clock:    func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	if withHistory {
		db, err := storage.New(filepath.Join(t.TempDir(), "flowboard.db"))
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		opts.Snapshots = storage.NewSnapshotStore(db)
	}
	ed, err := service.NewEditor(opts)
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}
	f.editor = ed
	return f
}

func (f *fixture) block(t *testing.T, kind domain.BlockKind, title string) domain.Block {
	t.Helper()
	b, err := f.editor.CreateBlock(context.Background(), graph.NewBlock{Kind: kind, Title: &title})
	if err != nil {
		t.Fatalf("create block: %v", err)
	}
	return b
}

// ─────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────

func TestNewEditor_RequiresKV(t *testing.T) {
	if _, err := service.NewEditor(service.EditorOptions{}); err == nil {
		t.Fatal("expected an error without a key/value store")
	}
}

func TestEditor_CreateConnectDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	a := f.block(t, domain.KindIntro, "A")
	b := f.block(t, domain.KindBody, "B")

	added, err := f.editor.Connect(ctx, a.ID, b.ID)
	if err != nil || !added {
		t.Fatalf("connect: added=%v err=%v", added, err)
	}
	if _, err := f.editor.Connect(ctx, a.ID, 99); !errors.Is(err, graph.ErrUnknownBlock) {
		t.Fatalf("expected ErrUnknownBlock, got %v", err)
	}

	st := f.editor.State()
	if st.Views[a.ID].Summary != "To: B" || !st.Views[b.ID].Connected {
		t.Errorf("unexpected views %+v", st.Views)
	}
	if _, ok := f.scene.Line(domain.ConnKey{From: a.ID, To: b.ID}); !ok {
		t.Error("expected the renderer to hold the line")
	}

	if !f.editor.DeleteBlock(ctx, a.ID) {
		t.Fatal("expected delete to succeed")
	}
	n, _ := f.scene.Node(b.ID)
	if n.View.Summary != geometry.NoConnections || n.View.Connected {
		t.Errorf("expected B disconnected, got %+v", n.View)
	}
	if len(f.scene.Lines()) != 0 {
		t.Error("expected the line to be removed with its connection")
	}
	if f.emitter.Count(service.EventChanged) != 4 {
		t.Errorf("expected 4 change events, got %d", f.emitter.Count(service.EventChanged))
	}
}

func TestEditor_NoOpsDoNotEmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	a := f.block(t, domain.KindIntro, "A")
	before := f.editor.Generation()

	f.editor.DeleteBlock(ctx, 42)
	f.editor.Connect(ctx, a.ID, a.ID)
	f.editor.RenameBlock(ctx, 42, "x")

	if f.editor.Generation() != before {
		t.Error("expected no-ops to leave the generation alone")
	}
}

func TestEditor_SetColor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	a := f.block(t, domain.KindIntro, "A")

	if _, err := f.editor.SetColor(ctx, a.ID, "chartreuse"); err == nil {
		t.Fatal("expected an invalid color to be rejected")
	}
	ok, err := f.editor.SetColor(ctx, a.ID, "rgb(0, 0, 0)")
	if err != nil || !ok {
		t.Fatalf("set color: ok=%v err=%v", ok, err)
	}
	n, _ := f.scene.Node(a.ID)
	if n.View.TextColor != (domain.Color{R: 0xff, G: 0xff, B: 0xff}) {
		t.Errorf("expected white text on black, got %v", n.View.TextColor)
	}
}

func TestEditor_PointerDrag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	pos := domain.Point{X: 100, Y: 100}
	b, _ := f.editor.CreateBlock(ctx, graph.NewBlock{Kind: domain.KindBody, Position: &pos})

	f.editor.PointerDown(ctx, interaction.PointerEvent{
		Screen: domain.Point{X: 150, Y: 150},
		Target: interaction.Target{Kind: interaction.TargetBlock, BlockID: b.ID},
	})
	if f.editor.State().Interaction != "dragging" {
		t.Fatalf("expected dragging, got %s", f.editor.State().Interaction)
	}
	f.editor.PointerMove(ctx, interaction.PointerEvent{Screen: domain.Point{X: 190, Y: 170}})
	f.editor.PointerUp(ctx, interaction.PointerEvent{Screen: domain.Point{X: 190, Y: 170}})

	got, _ := f.editor.Block(b.ID)
	if got.Position != (domain.Point{X: 140, Y: 120}) {
		t.Errorf("expected (140,120), got %+v", got.Position)
	}
	n, _ := f.scene.Node(b.ID)
	if n.Block.Position != got.Position || n.Dragging {
		t.Errorf("renderer out of step: %+v", n)
	}
}

func TestEditor_WheelAndResize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	f.editor.Wheel(ctx, -1)
	f.editor.Resize(1000, 500)

	vp := f.editor.State().Viewport
	if vp.Width != 1000 || vp.Height != 500 {
		t.Errorf("expected 1000x500, got %vx%v", vp.Width, vp.Height)
	}
	if vp.Scale < 1.09 || vp.Scale > 1.11 {
		t.Errorf("expected scale 1.1, got %v", vp.Scale)
	}
}

// ─────────────────────────────────────────────────────────────
// Persistence
// ─────────────────────────────────────────────────────────────

func TestEditor_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, false)
	a := src.block(t, domain.KindIntro, "A")
	b := src.block(t, domain.KindBody, "B")
	src.editor.Connect(ctx, a.ID, b.ID)

	doc, raw, err := src.editor.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Meta.Version != "1.0" || doc.Meta.ProjectName != "Flowboard_Flow_v1" {
		t.Errorf("unexpected meta %+v", doc.Meta)
	}
	if src.emitter.Count(service.EventExported) != 1 {
		t.Error("expected an export event")
	}

	dst := newFixture(t, false)
	if _, err := dst.editor.Import(ctx, raw); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(dst.editor.Blocks()) != 2 || len(dst.editor.Connections()) != 1 {
		t.Fatalf("unexpected graph after import: %+v", dst.editor.State())
	}
	if len(dst.scene.Nodes()) != 2 || len(dst.scene.Lines()) != 1 {
		t.Error("expected the renderer to be rebuilt from the import")
	}
	if rev, _ := dst.editor.Revision(ctx); rev != 1 {
		t.Errorf("expected revision baseline 1, got %d", rev)
	}
	if dst.emitter.Count(service.EventImported) != 1 {
		t.Error("expected an import event")
	}
}

func TestEditor_ImportMalformedLeavesGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.block(t, domain.KindIntro, "keep")

	_, err := f.editor.Import(ctx, []byte(`{"blocks":[{"id":1,"type":"intro","data":{}}],"connections":[{"from":1,"to":2}]}`))
	if !errors.Is(err, codec.ErrDanglingConnection) {
		t.Fatalf("expected ErrDanglingConnection, got %v", err)
	}
	if blocks := f.editor.Blocks(); len(blocks) != 1 || blocks[0].Title != "keep" {
		t.Errorf("expected the graph untouched, got %+v", blocks)
	}
}

func TestEditor_ClearAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.block(t, domain.KindIntro, "A")
	f.editor.Export(ctx)
	f.editor.Wheel(ctx, -1)

	if err := f.editor.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}

	st := f.editor.State()
	if len(st.Blocks) != 0 || st.NextID != 1 {
		t.Errorf("expected an empty graph with next id 1, got %+v", st)
	}
	if st.Viewport.Scale != 1 || st.Viewport.Pan != (domain.Point{}) {
		t.Errorf("expected a reset viewport, got %+v", st.Viewport)
	}
	if _, ok, _ := f.kv.Get(ctx, "flowboard.revision"); ok {
		t.Error("expected the revision key to be deleted")
	}
	if len(f.scene.Nodes()) != 0 {
		t.Error("expected the renderer to be emptied")
	}
}

func TestEditor_SnapshotsNeedHistory(t *testing.T) {
	f := newFixture(t, false)
	if _, err := f.editor.Snapshot(context.Background(), "x", domain.SourceManual); !errors.Is(err, service.ErrNoSnapshots) {
		t.Fatalf("expected ErrNoSnapshots, got %v", err)
	}
}

func TestEditor_SnapshotRestoreKeepsRevision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.block(t, domain.KindIntro, "first")

	snap, err := f.editor.Snapshot(ctx, "checkpoint", domain.SourceManual)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	f.block(t, domain.KindBody, "second")
	f.editor.Export(ctx)
	f.editor.Export(ctx)

	if err := f.editor.RestoreSnapshot(ctx, snap.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if blocks := f.editor.Blocks(); len(blocks) != 1 || blocks[0].Title != "first" {
		t.Errorf("expected the checkpoint graph, got %+v", blocks)
	}
	if rev, _ := f.editor.Revision(ctx); rev != 2 {
		t.Errorf("expected revision 2 to survive restore, got %d", rev)
	}
}

func TestEditor_ImportSnapshotsReplacedGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.block(t, domain.KindIntro, "old")

	if _, err := f.editor.Import(ctx, []byte(`{"meta":{"projectName":"X_v3","version":"3.0"},"blocks":[],"connections":[]}`)); err != nil {
		t.Fatalf("import: %v", err)
	}

	list, err := f.editor.Snapshots(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Source != domain.SourceImport || list[0].BlockCount != 1 {
		t.Fatalf("expected one import snapshot, got %+v", list)
	}
}

// ─────────────────────────────────────────────────────────────
// Autosave, inbox, window settings
// ─────────────────────────────────────────────────────────────

func TestAutosaver_SkipsUnchangedGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.block(t, domain.KindIntro, "A")
	a := service.NewAutosaver(f.editor, "@every 1h", 2)

	for i, want := range []bool{true, false} {
		saved, err := a.RunOnce(ctx)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if saved != want {
			t.Errorf("run %d: expected saved=%v", i, want)
		}
	}

	f.block(t, domain.KindBody, "B")
	if saved, _ := a.RunOnce(ctx); !saved {
		t.Error("expected a snapshot after the graph changed")
	}
	f.block(t, domain.KindBody, "C")
	a.RunOnce(ctx)

	list, _ := f.editor.Snapshots(ctx, 0)
	if len(list) != 2 {
		t.Errorf("expected history pruned to 2, got %d", len(list))
	}
}

func TestAutosaver_StartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t, true)
	a := service.NewAutosaver(f.editor, "every tuesday", 0)
	if err := a.Start(context.Background()); err == nil {
		a.Stop()
		t.Fatal("expected an invalid schedule to fail")
	}
	a.Stop()
}

func TestWatchInbox_ImportsAndMarksFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	dir := t.TempDir()

	w, err := service.WatchInbox(ctx, f.editor, dir, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	doc := `{"meta":{"version":"5.0"},"blocks":[{"id":3,"type":"intro","position":{"x":0,"y":0},"data":{"title":"dropped","body":"","color":"#3498db"}}],"connections":[]}`
	path := filepath.Join(dir, "drop.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path + ".imported"); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if b, ok := f.editor.Block(3); !ok || b.Title != "dropped" {
		t.Fatalf("expected the dropped document to be imported, got %+v", f.editor.Blocks())
	}
	if _, err := os.Stat(path + ".imported"); err != nil {
		t.Errorf("expected the file to be marked imported: %v", err)
	}
}

func TestWindowSettings(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := service.NewWindowSettingsService(kv, "flowboard")

	if got := s.LoadWindowSize(ctx); got.Width != 1280 || got.Height != 800 {
		t.Errorf("expected defaults, got %+v", got)
	}
	if err := s.SaveWindowSize(ctx, 1600, 900); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := s.LoadWindowSize(ctx); got.Width != 1600 || got.Height != 900 {
		t.Errorf("expected 1600x900, got %+v", got)
	}
	if v, _, _ := kv.Get(ctx, "flowboard.window_width"); v != "1600" {
		t.Errorf("expected namespaced key, got %q", v)
	}
}
