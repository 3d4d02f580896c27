package canvas

import "flowboard/internal/domain"

// Renderer is the visual collaborator. The engine tells it what changed; it
// owns the actual shapes and the line handles, keyed by connection identity.
type Renderer interface {
	CreateNode(b domain.Block)
	UpdateNode(b domain.Block, view domain.NodeView)
	RemoveNode(id int)
	// RaiseNode moves the node to the top of the visual stack.
	RaiseNode(id int)
	SetDragging(id int, dragging bool)

	// DrawLine creates or updates the line for key. Points are in world space.
	DrawLine(key domain.ConnKey, from, to domain.Point)
	RemoveLine(key domain.ConnKey)

	// DrawProvisional shows the rubber-band line of a connection drag.
	DrawProvisional(from, to domain.Point)
	ClearProvisional()
}

// Rect is a screen-space bounding box.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Center() domain.Point {
	return domain.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Connector names one of the two anchors every block exposes.
type Connector int

const (
	ConnectorInput Connector = iota
	ConnectorOutput
)

// ConnectorLocator is implemented by renderers that can report where a
// connector was actually drawn. ok is false when the block is gone or the
// connector has not been measured since it last moved on screen.
type ConnectorLocator interface {
	ConnectorBounds(blockID int, c Connector) (r Rect, ok bool)
	// ForgetBounds drops what was measured for one block after it moved.
	ForgetBounds(blockID int)
	// ForgetAllBounds drops every measurement after a pan or zoom.
	ForgetAllBounds()
}

// NopRenderer draws nothing. Headless hosts (CLI, MCP) use it.
type NopRenderer struct{}

func (NopRenderer) CreateNode(domain.Block)                             {}
func (NopRenderer) UpdateNode(domain.Block, domain.NodeView)            {}
func (NopRenderer) RemoveNode(int)                                      {}
func (NopRenderer) RaiseNode(int)                                       {}
func (NopRenderer) SetDragging(int, bool)                               {}
func (NopRenderer) DrawLine(domain.ConnKey, domain.Point, domain.Point) {}
func (NopRenderer) RemoveLine(domain.ConnKey)                           {}
func (NopRenderer) DrawProvisional(domain.Point, domain.Point)          {}
func (NopRenderer) ClearProvisional()                                   {}
