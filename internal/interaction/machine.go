package interaction

import (
	"math"

	"flowboard/internal/canvas"
	"flowboard/internal/domain"
	"flowboard/internal/geometry"
	"flowboard/internal/graph"
)

// InputHitRadius is how close, in world units, a release point must be to an
// input connector's center to count as a drop on it when the host could not
// name the struck element.
const InputHitRadius = 12.0

// Machine owns the gesture state and applies it to the viewport and store.
type Machine struct {
	vp    *canvas.Viewport
	store *graph.Store
	up    *geometry.Updater
	state State
}

func NewMachine(vp *canvas.Viewport, store *graph.Store, up *geometry.Updater) *Machine {
	return &Machine{vp: vp, store: store, up: up, state: Idle{}}
}

func (m *Machine) State() State { return m.state }

// PointerDown starts a gesture. It is ignored unless the machine is idle.
func (m *Machine) PointerDown(ev PointerEvent) {
	if _, idle := m.state.(Idle); !idle {
		return
	}

	switch ev.Target.Kind {
	case TargetBackground:
		m.state = Panning{Anchor: ev.Screen}

	case TargetBlock:
		b, ok := m.store.Block(ev.Target.BlockID)
		if !ok {
			return
		}
		r := m.up.Renderer()
		r.RaiseNode(b.ID)
		r.SetDragging(b.ID, true)
		m.state = DraggingBlock{BlockID: b.ID, PointerAnchor: ev.Screen, BlockOrigin: b.Position}

	case TargetOutput:
		origin, ok := m.up.Anchor(ev.Target.BlockID, canvas.ConnectorOutput)
		if !ok {
			return
		}
		m.up.Renderer().DrawProvisional(origin, origin)
		m.state = Connecting{SourceID: ev.Target.BlockID, Origin: origin, Cursor: origin}
	}
}

// PointerMove advances the active gesture.
func (m *Machine) PointerMove(ev PointerEvent) {
	switch st := m.state.(type) {
	case Panning:
		m.vp.PanBy(ev.Screen.Sub(st.Anchor))
		m.state = Panning{Anchor: ev.Screen}
		m.up.ViewportChanged()

	case DraggingBlock:
		delta := ev.Screen.Sub(st.PointerAnchor).Div(m.vp.Scale())
		if m.store.MoveBlock(st.BlockID, st.BlockOrigin.Add(delta)) {
			m.up.Sync()
		}

	case Connecting:
		st.Cursor = m.vp.ScreenToWorld(ev.Screen)
		m.up.Renderer().DrawProvisional(st.Origin, st.Cursor)
		m.state = st
	}
}

// PointerUp ends whatever gesture is active. A connection gesture released
// over the input connector of another block creates that connection.
func (m *Machine) PointerUp(ev PointerEvent) {
	switch st := m.state.(type) {
	case DraggingBlock:
		m.up.Renderer().SetDragging(st.BlockID, false)

	case Connecting:
		m.up.Renderer().ClearProvisional()
		if target, ok := m.dropTarget(ev); ok && target != st.SourceID {
			// The source may have been deleted mid-gesture; that is a soft miss.
			if added, err := m.store.CreateConnection(st.SourceID, target); err == nil && added {
				m.up.Sync()
			}
		}
	}
	m.state = Idle{}
}

// Wheel zooms in when the wheel scrolls up (negative delta).
func (m *Machine) Wheel(deltaY float64) {
	before := m.vp.Scale()
	m.vp.Zoom(-deltaY)
	if m.vp.Scale() != before {
		m.up.ViewportChanged()
	}
}

// Reset abandons any gesture without side effects on the graph.
func (m *Machine) Reset() {
	r := m.up.Renderer()
	switch st := m.state.(type) {
	case DraggingBlock:
		r.SetDragging(st.BlockID, false)
	case Connecting:
		r.ClearProvisional()
	}
	m.state = Idle{}
}

func (m *Machine) dropTarget(ev PointerEvent) (int, bool) {
	if ev.Target.Kind == TargetInput {
		return ev.Target.BlockID, true
	}
	return m.HitInput(m.vp.ScreenToWorld(ev.Screen))
}

// HitInput returns the block whose input connector is nearest to the world
// point p, within InputHitRadius.
func (m *Machine) HitInput(p domain.Point) (int, bool) {
	best, bestDist := 0, math.Inf(1)
	for _, b := range m.store.Blocks() {
		a, ok := m.up.Anchor(b.ID, canvas.ConnectorInput)
		if !ok {
			continue
		}
		d := math.Hypot(a.X-p.X, a.Y-p.Y)
		if d <= InputHitRadius && d < bestDist {
			best, bestDist = b.ID, d
		}
	}
	return best, bestDist <= InputHitRadius
}
