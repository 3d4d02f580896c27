// Package geometry turns graph changes into renderer calls: line endpoints,
// neighbor summaries and connected status.
package geometry

import (
	"strconv"
	"strings"

	"flowboard/internal/canvas"
	"flowboard/internal/domain"
	"flowboard/internal/graph"
)

const NoConnections = "No connections"

// Transform maps a screen point into world space.
type Transform interface {
	ScreenToWorld(p domain.Point) domain.Point
}

// Updater keeps the renderer in step with the store. It owns the line
// registry; the Connection records never hold a render handle.
type Updater struct {
	store   *graph.Store
	view    Transform
	render  canvas.Renderer
	locator canvas.ConnectorLocator // nil when the renderer cannot report bounds

	lines map[domain.ConnKey]struct{}
}

func NewUpdater(store *graph.Store, view Transform, r canvas.Renderer) *Updater {
	if r == nil {
		r = canvas.NopRenderer{}
	}
	loc, _ := r.(canvas.ConnectorLocator)
	return &Updater{
		store:   store,
		view:    view,
		render:  r,
		locator: loc,
		lines:   make(map[domain.ConnKey]struct{}),
	}
}

// Renderer returns the collaborator the updater draws into.
func (u *Updater) Renderer() canvas.Renderer { return u.render }

// Sync drains the store journal and pushes the consequences to the renderer.
// Ids that no longer exist are skipped.
func (u *Updater) Sync() {
	ch := u.store.Drain()
	if ch.Empty() {
		return
	}

	for _, k := range ch.RemovedConns {
		u.removeLine(k)
	}
	for _, id := range ch.Removed {
		u.render.RemoveNode(id)
	}
	for _, id := range ch.Created {
		if b, ok := u.store.Block(id); ok {
			u.render.CreateNode(b)
		}
	}
	for _, k := range ch.AddedConns {
		if u.store.HasConnection(k.From, k.To) {
			u.drawLine(k)
		}
	}
	for _, id := range ch.Moved {
		if u.locator != nil {
			u.locator.ForgetBounds(id)
		}
		u.RefreshConnectionLines(id)
	}

	seen := make(map[int]bool)
	for _, list := range [][]int{ch.Created, ch.Touched, ch.Moved} {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			u.refreshNode(id)
		}
	}
}

// Rebuild pushes the whole graph to the renderer, e.g. after a host attaches
// a fresh surface. The journal is discarded.
func (u *Updater) Rebuild() {
	u.store.Drain()
	for k := range u.lines {
		u.render.RemoveLine(k)
	}
	clear(u.lines)

	for _, b := range u.store.Blocks() {
		u.render.CreateNode(b)
		u.render.UpdateNode(b, View(u.store, b))
	}
	for _, c := range u.store.Connections() {
		u.drawLine(c.Key())
	}
}

// RefreshConnectionLines redraws every line touching id.
func (u *Updater) RefreshConnectionLines(id int) {
	for _, c := range u.store.ConnectionsOf(id) {
		u.drawLine(c.Key())
	}
}

// ViewportChanged must be called after pan or zoom. Lines are kept in world
// space, so only measured anchors go stale: they are dropped and the lines
// fall back to the block geometry until the renderer measures again.
func (u *Updater) ViewportChanged() {
	if u.locator == nil {
		return
	}
	u.locator.ForgetAllBounds()
	u.RedrawLines()
}

// RedrawLines redraws every line from the current anchors, e.g. after the
// renderer reported fresh connector bounds.
func (u *Updater) RedrawLines() {
	for _, c := range u.store.Connections() {
		u.drawLine(c.Key())
	}
}

// HasLine reports whether the registry holds a line for k.
func (u *Updater) HasLine(k domain.ConnKey) bool {
	_, ok := u.lines[k]
	return ok
}

func (u *Updater) LineCount() int { return len(u.lines) }

func (u *Updater) refreshNode(id int) {
	b, ok := u.store.Block(id)
	if !ok {
		return
	}
	u.render.UpdateNode(b, View(u.store, b))
}

func (u *Updater) drawLine(k domain.ConnKey) {
	from, ok := u.store.Block(k.From)
	if !ok {
		return
	}
	to, ok := u.store.Block(k.To)
	if !ok {
		return
	}
	u.render.DrawLine(k, u.anchor(from, canvas.ConnectorOutput), u.anchor(to, canvas.ConnectorInput))
	u.lines[k] = struct{}{}
}

func (u *Updater) removeLine(k domain.ConnKey) {
	if _, ok := u.lines[k]; !ok {
		return
	}
	u.render.RemoveLine(k)
	delete(u.lines, k)
}

// Anchor returns the world position of a block's connector, or false when
// the block is gone.
func (u *Updater) Anchor(id int, c canvas.Connector) (domain.Point, bool) {
	b, ok := u.store.Block(id)
	if !ok {
		return domain.Point{}, false
	}
	return u.anchor(b, c), true
}

// anchor prefers where the renderer says the connector is and falls back to
// the fixed block geometry.
func (u *Updater) anchor(b domain.Block, c canvas.Connector) domain.Point {
	if u.locator != nil && u.view != nil {
		if r, ok := u.locator.ConnectorBounds(b.ID, c); ok {
			return u.view.ScreenToWorld(r.Center())
		}
	}
	if c == canvas.ConnectorOutput {
		return b.OutputAnchor()
	}
	return b.InputAnchor()
}

// ── Derived text ───────────────────────────────────────────

// View computes the derived presentation of b.
func View(s *graph.Store, b domain.Block) domain.NodeView {
	return domain.NodeView{
		Summary:   NeighborSummary(s, b.ID),
		Connected: Connected(s, b.ID),
		TextColor: TextColor(b.Color),
	}
}

// NeighborSummary renders "To: A, B | From: C" from the titles of the
// blocks id links to and from. A title that cannot be resolved falls back
// to the numeric id.
func NeighborSummary(s *graph.Store, id int) string {
	var parts []string
	if out := s.Outgoing(id); len(out) > 0 {
		parts = append(parts, "To: "+titles(s, out))
	}
	if in := s.Incoming(id); len(in) > 0 {
		parts = append(parts, "From: "+titles(s, in))
	}
	if len(parts) == 0 {
		return NoConnections
	}
	return strings.Join(parts, " | ")
}

func titles(s *graph.Store, ids []int) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		if b, ok := s.Block(id); ok {
			names[i] = b.Title
		} else {
			names[i] = strconv.Itoa(id)
		}
	}
	return strings.Join(names, ", ")
}

// Connected reports whether id is an endpoint of at least one connection.
func Connected(s *graph.Store, id int) bool {
	return len(s.ConnectionsOf(id)) > 0
}

// TextColor is black on light headers and white on dark ones.
func TextColor(c domain.Color) domain.Color { return c.Contrast() }
