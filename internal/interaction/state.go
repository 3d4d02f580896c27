// Package interaction interprets pointer and wheel input as pan, drag and
// connect gestures.
package interaction

import "flowboard/internal/domain"

// State is the current gesture. Exactly one is active at a time; the
// variants below are the only implementations.
type State interface {
	isState()
	Name() string
}

// Idle waits for a pointer-down.
type Idle struct{}

// Panning follows the pointer across the background. Anchor is the last
// screen point seen.
type Panning struct {
	Anchor domain.Point
}

// DraggingBlock moves one block. PointerAnchor is the screen point of the
// pointer-down, BlockOrigin the block's world position at that moment.
type DraggingBlock struct {
	BlockID       int
	PointerAnchor domain.Point
	BlockOrigin   domain.Point
}

// Connecting draws a provisional line from a block's output connector.
// Origin and Cursor are world points.
type Connecting struct {
	SourceID int
	Origin   domain.Point
	Cursor   domain.Point
}

func (Idle) isState()          {}
func (Panning) isState()       {}
func (DraggingBlock) isState() {}
func (Connecting) isState()    {}

func (Idle) Name() string          { return "idle" }
func (Panning) Name() string       { return "panning" }
func (DraggingBlock) Name() string { return "dragging" }
func (Connecting) Name() string    { return "connecting" }

// TargetKind classifies the element under the pointer.
type TargetKind int

const (
	TargetBackground TargetKind = iota
	TargetBlock                 // block chrome that may start a drag
	TargetControl               // buttons, pickers and text regions inside a block
	TargetOutput                // output connector
	TargetInput                 // input connector
)

// Target is the element a pointer event struck. BlockID is meaningless for
// TargetBackground.
type Target struct {
	Kind    TargetKind
	BlockID int
}

// PointerEvent carries the screen position and the struck element.
type PointerEvent struct {
	Screen domain.Point
	Target Target
}
