package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"flowboard/internal/canvas"
	"flowboard/internal/codec"
	"flowboard/internal/config"
	"flowboard/internal/domain"
	"flowboard/internal/graph"
	"flowboard/internal/interaction"
	"flowboard/internal/service"
	"flowboard/internal/storage"
)

// App is the desktop host. All exported methods are available as Wails
// bindings.
type App struct {
	ctx context.Context
	cfg *config.Config

	backend  *Backend
	editor   *service.Editor
	renderer *eventRenderer
	bg       *Background
	watcher  *approvalWatcher
	window   *service.WindowSettingsService
}

// New creates a new App.
func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// wailsEmitter forwards editor notifications to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	backend, err := OpenBackend(ctx, a.cfg)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open storage: %v", err)
		return
	}
	a.backend = backend

	a.renderer = newEventRenderer(func(event string, data any) {
		wailsRuntime.EventsEmit(ctx, event, data)
	})
	editor, err := backend.Editor(a.cfg, a.renderer, wailsEmitter{})
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to create editor: %v", err)
		return
	}
	a.editor = editor

	bg, err := StartBackground(ctx, a.cfg, backend, editor)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start background workers: %v", err)
		bg = &Background{}
	}
	a.bg = bg

	if backend.Approvals != nil {
		a.watcher = newApprovalWatcher(ctx, backend.Approvals, func(event string, data any) {
			wailsRuntime.EventsEmit(ctx, event, data)
		})
		a.watcher.Start()
	}

	a.window = service.NewWindowSettingsService(backend.KV, a.cfg.App.Identity)
	size := a.window.LoadWindowSize(ctx)
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(ctx, w, h); err != nil {
			log.Printf("[EDITOR] save window size: %v", err)
		}
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.bg != nil {
		a.bg.Stop()
	}
	if a.backend != nil {
		a.backend.Close()
	}
}

// ── State ──────────────────────────────────────────────────

// GetState returns everything the frontend needs to draw from scratch.
func (a *App) GetState() domain.FlowState {
	return a.editor.State()
}

// Redraw pushes every node and line through the render events again.
func (a *App) Redraw() {
	a.renderer.ForgetAllBounds()
	a.editor.Rebuild()
}

// ── Blocks ─────────────────────────────────────────────────

// CreateBlock adds a block of kind at the centre of the visible canvas.
func (a *App) CreateBlock(kind string) (domain.Block, error) {
	k, err := domain.ParseBlockKind(kind)
	if err != nil {
		return domain.Block{}, err
	}
	return a.editor.CreateBlock(a.ctx, graph.NewBlock{Kind: k})
}

// CreateBlockAt adds a block of kind whose top-left corner sits under the
// given screen point.
func (a *App) CreateBlockAt(kind string, screenX, screenY float64) (domain.Block, error) {
	k, err := domain.ParseBlockKind(kind)
	if err != nil {
		return domain.Block{}, err
	}
	pos := a.editor.ScreenToWorld(domain.Point{X: screenX, Y: screenY})
	return a.editor.CreateBlock(a.ctx, graph.NewBlock{Kind: k, Position: &pos})
}

func (a *App) DeleteBlock(id int) bool {
	return a.editor.DeleteBlock(a.ctx, id)
}

func (a *App) Connect(from, to int) (bool, error) {
	return a.editor.Connect(a.ctx, from, to)
}

func (a *App) RenameBlock(id int, title string) bool {
	return a.editor.RenameBlock(a.ctx, id, title)
}

func (a *App) SetBody(id int, body string) bool {
	return a.editor.SetBody(a.ctx, id, body)
}

func (a *App) SetColor(id int, color string) (bool, error) {
	return a.editor.SetColor(a.ctx, id, color)
}

// ClearAll removes every block after saving a snapshot.
func (a *App) ClearAll() error {
	return a.editor.ClearAll(a.ctx)
}

// ── Pointer input ──────────────────────────────────────────

// ParseTarget maps the frontend's element classes to interaction targets.
func ParseTarget(kind string, blockID int) interaction.Target {
	switch kind {
	case "block":
		return interaction.Target{Kind: interaction.TargetBlock, BlockID: blockID}
	case "control":
		return interaction.Target{Kind: interaction.TargetControl, BlockID: blockID}
	case "output":
		return interaction.Target{Kind: interaction.TargetOutput, BlockID: blockID}
	case "input":
		return interaction.Target{Kind: interaction.TargetInput, BlockID: blockID}
	default:
		return interaction.Target{Kind: interaction.TargetBackground}
	}
}

func pointerEvent(x, y float64, target string, blockID int) interaction.PointerEvent {
	return interaction.PointerEvent{
		Screen: domain.Point{X: x, Y: y},
		Target: ParseTarget(target, blockID),
	}
}

func (a *App) PointerDown(x, y float64, target string, blockID int) {
	a.editor.PointerDown(a.ctx, pointerEvent(x, y, target, blockID))
}

func (a *App) PointerMove(x, y float64, target string, blockID int) {
	a.editor.PointerMove(a.ctx, pointerEvent(x, y, target, blockID))
}

func (a *App) PointerUp(x, y float64, target string, blockID int) {
	a.editor.PointerUp(a.ctx, pointerEvent(x, y, target, blockID))
}

// Wheel zooms. The frontend redraws from the returned viewport and reports
// connector bounds again.
func (a *App) Wheel(deltaY float64) domain.ViewportState {
	a.editor.Wheel(a.ctx, deltaY)
	return a.editor.Viewport()
}

// Resize reports the canvas element's size.
func (a *App) Resize(width, height float64) {
	a.editor.Resize(width, height)
}

// ConnectorBounds is one measured connector rect in screen space.
type ConnectorBounds struct {
	BlockID int     `json:"blockId"`
	Output  bool    `json:"output"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}

// ReportConnectorBounds records where the frontend drew connectors and
// reroutes every line to them.
func (a *App) ReportConnectorBounds(bounds []ConnectorBounds) {
	for _, b := range bounds {
		c := canvas.ConnectorInput
		if b.Output {
			c = canvas.ConnectorOutput
		}
		a.renderer.measure(b.BlockID, c, canvas.Rect{X: b.X, Y: b.Y, W: b.W, H: b.H})
	}
	a.editor.RefreshLines()
}

// ── Persistence ────────────────────────────────────────────

// ExportResult tells the frontend where a document was written.
type ExportResult struct {
	Path     string `json:"path"`
	Revision int    `json:"revision"`
	JSON     string `json:"json"`
}

// Export bumps the revision and writes the document into the export
// directory.
func (a *App) Export() (ExportResult, error) {
	doc, raw, err := a.editor.Export(a.ctx)
	if err != nil {
		return ExportResult{}, err
	}
	rev, _ := doc.Revision()
	path := filepath.Join(a.cfg.Export.Dir, codec.FileName(rev))
	if err := os.MkdirAll(a.cfg.Export.Dir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("export dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return ExportResult{}, fmt.Errorf("write export: %w", err)
	}
	log.Printf("[EDITOR] exported %s", path)
	return ExportResult{Path: path, Revision: rev, JSON: string(raw)}, nil
}

// Import replaces the flow with a document's JSON text.
func (a *App) Import(text string) (codec.Meta, error) {
	doc, err := a.editor.Import(a.ctx, []byte(text))
	if err != nil {
		return codec.Meta{}, err
	}
	return doc.Meta, nil
}

// OpenDocument asks for a file and imports it. An empty result means the
// dialog was cancelled.
func (a *App) OpenDocument() (string, error) {
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title:   "Open flow",
		Filters: []wailsRuntime.FileFilter{{DisplayName: "Flow documents", Pattern: "*.json"}},
	})
	if err != nil || path == "" {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if _, err := a.editor.Import(a.ctx, raw); err != nil {
		return "", err
	}
	return path, nil
}

func (a *App) Revision() (int, error) {
	return a.editor.Revision(a.ctx)
}

func (a *App) ListSnapshots(limit int) ([]domain.Snapshot, error) {
	return a.editor.Snapshots(a.ctx, limit)
}

func (a *App) RestoreSnapshot(id string) error {
	return a.editor.RestoreSnapshot(a.ctx, id)
}

// ── MCP approvals ──────────────────────────────────────────

func (a *App) ListPendingApprovals() ([]storage.PendingApproval, error) {
	if a.backend.Approvals == nil {
		return nil, nil
	}
	return a.backend.Approvals.ListPending(a.ctx)
}

func (a *App) ApproveAction(id string) error {
	return a.resolveApproval(id, true)
}

func (a *App) RejectAction(id string) error {
	return a.resolveApproval(id, false)
}

func (a *App) resolveApproval(id string, approved bool) error {
	if a.backend.Approvals == nil {
		return fmt.Errorf("approvals need the sqlite store")
	}
	if err := a.backend.Approvals.Resolve(a.ctx, id, approved); err != nil {
		return err
	}
	if a.watcher != nil {
		a.watcher.forget(id)
	}
	return nil
}
