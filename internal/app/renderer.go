package app

import (
	"sync"

	"flowboard/internal/canvas"
	"flowboard/internal/domain"
)

// Events the desktop frontend draws from.
const (
	EventNodeCreate       = "canvas:node-create"
	EventNodeUpdate       = "canvas:node-update"
	EventNodeRemove       = "canvas:node-remove"
	EventNodeRaise        = "canvas:node-raise"
	EventNodeDragging     = "canvas:node-dragging"
	EventLineDraw         = "canvas:line-draw"
	EventLineRemove       = "canvas:line-remove"
	EventProvisionalDraw  = "canvas:provisional-draw"
	EventProvisionalClear = "canvas:provisional-clear"
)

// NodePayload is sent with node create/update events.
type NodePayload struct {
	Block domain.Block    `json:"block"`
	View  domain.NodeView `json:"view"`
}

// LinePayload is sent with line events. Points are in world space.
type LinePayload struct {
	From int          `json:"from"`
	To   int          `json:"to"`
	A    domain.Point `json:"a"`
	B    domain.Point `json:"b"`
}

type connectorKey struct {
	blockID int
	c       canvas.Connector
}

// eventRenderer forwards engine draw calls to the frontend as runtime
// events and remembers connector rects the frontend measured, so lines end
// where the connectors were actually drawn.
type eventRenderer struct {
	emit func(event string, data any)

	mu     sync.RWMutex
	bounds map[connectorKey]canvas.Rect
}

func newEventRenderer(emit func(event string, data any)) *eventRenderer {
	return &eventRenderer{emit: emit, bounds: make(map[connectorKey]canvas.Rect)}
}

func (r *eventRenderer) CreateNode(b domain.Block) {
	r.emit(EventNodeCreate, NodePayload{Block: b})
}

func (r *eventRenderer) UpdateNode(b domain.Block, view domain.NodeView) {
	r.emit(EventNodeUpdate, NodePayload{Block: b, View: view})
}

func (r *eventRenderer) RemoveNode(id int) {
	r.ForgetBounds(id)
	r.emit(EventNodeRemove, id)
}

func (r *eventRenderer) RaiseNode(id int) {
	r.emit(EventNodeRaise, id)
}

func (r *eventRenderer) SetDragging(id int, dragging bool) {
	r.emit(EventNodeDragging, map[string]any{"id": id, "dragging": dragging})
}

func (r *eventRenderer) DrawLine(key domain.ConnKey, from, to domain.Point) {
	r.emit(EventLineDraw, LinePayload{From: key.From, To: key.To, A: from, B: to})
}

func (r *eventRenderer) RemoveLine(key domain.ConnKey) {
	r.emit(EventLineRemove, LinePayload{From: key.From, To: key.To})
}

func (r *eventRenderer) DrawProvisional(from, to domain.Point) {
	r.emit(EventProvisionalDraw, LinePayload{A: from, B: to})
}

func (r *eventRenderer) ClearProvisional() {
	r.emit(EventProvisionalClear, nil)
}

// ConnectorBounds implements canvas.ConnectorLocator.
func (r *eventRenderer) ConnectorBounds(blockID int, c canvas.Connector) (canvas.Rect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rect, ok := r.bounds[connectorKey{blockID, c}]
	return rect, ok
}

// measure records where the frontend drew a connector, in screen space.
func (r *eventRenderer) measure(blockID int, c canvas.Connector, rect canvas.Rect) {
	r.mu.Lock()
	r.bounds[connectorKey{blockID, c}] = rect
	r.mu.Unlock()
}

// ForgetBounds implements canvas.ConnectorLocator.
func (r *eventRenderer) ForgetBounds(blockID int) {
	r.mu.Lock()
	delete(r.bounds, connectorKey{blockID, canvas.ConnectorInput})
	delete(r.bounds, connectorKey{blockID, canvas.ConnectorOutput})
	r.mu.Unlock()
}

// ForgetAllBounds implements canvas.ConnectorLocator.
func (r *eventRenderer) ForgetAllBounds() {
	r.mu.Lock()
	r.bounds = make(map[connectorKey]canvas.Rect)
	r.mu.Unlock()
}
