package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"flowboard/internal/canvas"
	"flowboard/internal/codec"
	"flowboard/internal/domain"
	"flowboard/internal/geometry"
	"flowboard/internal/graph"
	"flowboard/internal/interaction"
)

// ─────────────────────────────────────────────────────────────
// Editor: the application context every host talks to
// ─────────────────────────────────────────────────────────────
//
// The engine packages are single-threaded. Editor owns one instance of each
// and serializes every call arriving from host goroutines (terminal loop,
// desktop bindings, MCP handlers, autosave, inbox watcher) behind one mutex,
// so no caller ever observes a half-applied operation.

// Events emitted to hosts.
const (
	EventChanged  = "flow:changed"
	EventImported = "flow:imported"
	EventExported = "flow:exported"
	EventCleared  = "flow:cleared"
)

var ErrNoSnapshots = errors.New("snapshot history is not configured")

// EditorOptions configures NewEditor. Zero values take defaults.
type EditorOptions struct {
	Width, Height float64
	Identity      string // prefix of the durable revision key
	ProjectPrefix string // exported projectName is "<prefix>_v<rev>"
	KV            domain.KVStore
	Snapshots     domain.SnapshotStore // nil disables history
	Renderer      canvas.Renderer
	Emitter       EventEmitter
	Clock         func() time.Time
}

const (
	DefaultIdentity      = "flowboard"
	DefaultProjectPrefix = "Flowboard_Flow"
)

// Editor wires viewport, graph store, geometry updater, interaction machine
// and codec together.
type Editor struct {
	mu sync.Mutex

	vp      *canvas.Viewport
	store   *graph.Store
	up      *geometry.Updater
	machine *interaction.Machine
	codec   *codec.Codec
	snaps   domain.SnapshotStore
	emitter EventEmitter

	generation uint64 // bumped by every graph mutation
}

// NewEditor builds an empty editor. KV is required.
func NewEditor(opts EditorOptions) (*Editor, error) {
	if opts.KV == nil {
		return nil, fmt.Errorf("new editor: no key/value store")
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.Identity == "" {
		opts.Identity = DefaultIdentity
	}
	if opts.ProjectPrefix == "" {
		opts.ProjectPrefix = DefaultProjectPrefix
	}
	if opts.Emitter == nil {
		opts.Emitter = noopEmitter{}
	}

	vp := canvas.NewViewport(opts.Width, opts.Height)
	store := graph.NewStore(vp)
	up := geometry.NewUpdater(store, vp, opts.Renderer)

	var codecOpts []codec.Option
	if opts.Clock != nil {
		codecOpts = append(codecOpts, codec.WithClock(opts.Clock))
	}

	return &Editor{
		vp:      vp,
		store:   store,
		up:      up,
		machine: interaction.NewMachine(vp, store, up),
		codec:   codec.New(store, codec.NewRevisions(opts.KV, opts.Identity), opts.ProjectPrefix, codecOpts...),
		snaps:   opts.Snapshots,
		emitter: opts.Emitter,
	}, nil
}

// Inspect runs fn while holding the editor lock. Hosts use it to read a
// retained renderer consistently.
func (e *Editor) Inspect(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Generation changes whenever the graph does.
func (e *Editor) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// commitLocked pushes pending graph changes to the renderer and notifies
// hosts when anything changed.
func (e *Editor) commitLocked(ctx context.Context) {
	if !e.store.Pending() {
		return
	}
	e.up.Sync()
	e.generation++
	e.emitter.Emit(ctx, EventChanged, e.generation)
}

// ── Commands ───────────────────────────────────────────────

func (e *Editor) CreateBlock(ctx context.Context, nb graph.NewBlock) (domain.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.store.CreateBlock(nb)
	if err != nil {
		return domain.Block{}, fmt.Errorf("create block: %w", err)
	}
	e.commitLocked(ctx)
	return b, nil
}

// DeleteBlock removes a block and its connections. Unknown ids are a no-op.
func (e *Editor) DeleteBlock(ctx context.Context, id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.store.DeleteBlock(id)
	e.commitLocked(ctx)
	return ok
}

// Connect links from → to. Self-loops and duplicates report false.
func (e *Editor) Connect(ctx context.Context, from, to int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	added, err := e.store.CreateConnection(from, to)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	e.commitLocked(ctx)
	return added, nil
}

func (e *Editor) RenameBlock(ctx context.Context, id int, title string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.store.RenameBlock(id, title)
	e.commitLocked(ctx)
	return ok
}

func (e *Editor) SetBody(ctx context.Context, id int, body string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.store.SetBody(id, body)
	e.commitLocked(ctx)
	return ok
}

// SetColor parses color ("#rgb", "#rrggbb" or "rgb(r, g, b)") and applies it.
func (e *Editor) SetColor(ctx context.Context, id int, color string) (bool, error) {
	c, err := domain.ParseColor(color)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.store.SetColor(id, c)
	e.commitLocked(ctx)
	return ok, nil
}

func (e *Editor) MoveBlock(ctx context.Context, id int, pos domain.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.store.MoveBlock(id, pos)
	e.commitLocked(ctx)
	return ok
}

// ClearAll empties the canvas, resets the viewport and the id counter, and
// forgets the revision so the next export is revision 1.
func (e *Editor) ClearAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Reset()
	e.store.Clear()
	e.vp.Reset()
	e.up.ViewportChanged()
	e.commitLocked(ctx)
	if err := e.codec.Revisions().Reset(ctx); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	e.emitter.Emit(ctx, EventCleared, nil)
	return nil
}

// ── Pointer input ──────────────────────────────────────────

func (e *Editor) PointerDown(ctx context.Context, ev interaction.PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.PointerDown(ev)
	e.commitLocked(ctx)
}

func (e *Editor) PointerMove(ctx context.Context, ev interaction.PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.PointerMove(ev)
	e.commitLocked(ctx)
}

func (e *Editor) PointerUp(ctx context.Context, ev interaction.PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.PointerUp(ev)
	e.commitLocked(ctx)
}

func (e *Editor) Wheel(_ context.Context, deltaY float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Wheel(deltaY)
}

func (e *Editor) Resize(width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vp.Resize(width, height)
}

// ScreenToWorld maps a host pointer position into world space.
func (e *Editor) ScreenToWorld(p domain.Point) domain.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp.ScreenToWorld(p)
}

// ── Persistence ────────────────────────────────────────────

// Export bumps the revision and returns the document with its encoding.
func (e *Editor) Export(ctx context.Context) (codec.Document, []byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, err := e.codec.Export(ctx)
	if err != nil {
		return codec.Document{}, nil, err
	}
	raw, err := codec.Encode(doc)
	if err != nil {
		return codec.Document{}, nil, err
	}
	e.emitter.Emit(ctx, EventExported, doc.Meta)
	return doc, raw, nil
}

// Document captures the graph without bumping the revision.
func (e *Editor) Document(ctx context.Context) (codec.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.codec.Snapshot(ctx)
}

// Import replaces the graph with the document in raw. A non-empty graph is
// saved to snapshot history first. On error nothing changes.
func (e *Editor) Import(ctx context.Context, raw []byte) (codec.Document, error) {
	doc, err := codec.Decode(raw)
	if err != nil {
		return codec.Document{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snaps != nil && e.store.Len() > 0 {
		if _, err := e.snapshotLocked(ctx, "before import of "+doc.Meta.ProjectName, domain.SourceImport); err != nil {
			log.Printf("[EDITOR] snapshot before import failed: %v", err)
		}
	}
	e.machine.Reset()
	if err := e.codec.Apply(ctx, doc); err != nil {
		return codec.Document{}, err
	}
	e.commitLocked(ctx)
	e.emitter.Emit(ctx, EventImported, doc.Meta)
	return doc, nil
}

// Snapshot writes the current graph to history without bumping the revision.
func (e *Editor) Snapshot(ctx context.Context, label, source string) (*domain.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(ctx, label, source)
}

func (e *Editor) snapshotLocked(ctx context.Context, label, source string) (*domain.Snapshot, error) {
	if e.snaps == nil {
		return nil, ErrNoSnapshots
	}
	doc, err := e.codec.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := codec.Encode(doc)
	if err != nil {
		return nil, err
	}
	rev, _ := doc.Revision()
	snap := &domain.Snapshot{
		Label:        label,
		Source:       source,
		Revision:     rev,
		BlockCount:   len(doc.Blocks),
		DocumentJSON: string(raw),
	}
	if err := e.snaps.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

func (e *Editor) Snapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if e.snaps == nil {
		return nil, ErrNoSnapshots
	}
	return e.snaps.ListSnapshots(ctx, limit)
}

// RestoreSnapshot replaces the graph with a saved snapshot. The revision
// counter is not rewound.
func (e *Editor) RestoreSnapshot(ctx context.Context, id string) error {
	if e.snaps == nil {
		return ErrNoSnapshots
	}
	snap, err := e.snaps.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	doc, err := codec.Decode([]byte(snap.DocumentJSON))
	if err != nil {
		return fmt.Errorf("restore snapshot %s: %w", id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Reset()
	if err := e.codec.Restore(doc); err != nil {
		return err
	}
	e.commitLocked(ctx)
	return nil
}

// Revision returns the stored export revision.
func (e *Editor) Revision(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.codec.Revisions().Current(ctx)
}

// SetRevision overwrites the stored export revision.
func (e *Editor) SetRevision(ctx context.Context, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.codec.Revisions().Set(ctx, n)
}

// ── Queries ────────────────────────────────────────────────

func (e *Editor) Block(id int) (domain.Block, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Block(id)
}

func (e *Editor) Blocks() []domain.Block {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Blocks()
}

func (e *Editor) Connections() []domain.Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Connections()
}

func (e *Editor) Viewport() domain.ViewportState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp.State()
}

// RefreshLines redraws every connection line from the renderer's current
// connector measurements. Hosts call it after their layout settles.
func (e *Editor) RefreshLines() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.up.RedrawLines()
}

// Rebuild pushes the whole graph to the renderer again.
func (e *Editor) Rebuild() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.up.Rebuild()
}

// State returns everything a host needs to draw the canvas from scratch.
func (e *Editor) State() domain.FlowState {
	e.mu.Lock()
	defer e.mu.Unlock()

	blocks := e.store.Blocks()
	views := make(map[int]domain.NodeView, len(blocks))
	for _, b := range blocks {
		views[b.ID] = geometry.View(e.store, b)
	}
	return domain.FlowState{
		Blocks:      blocks,
		Connections: e.store.Connections(),
		Views:       views,
		Viewport:    e.vp.State(),
		Interaction: e.machine.State().Name(),
		NextID:      e.store.NextID(),
	}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, any) {}
