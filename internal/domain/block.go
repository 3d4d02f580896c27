package domain

import (
	"fmt"
	"strings"
)

// BlockKind is the role a block plays in a flow.
type BlockKind string

const (
	KindIntro      BlockKind = "intro"
	KindBody       BlockKind = "body"
	KindConclusion BlockKind = "conclusion"
)

// Fixed render extent of every block, in world units.
const (
	BlockWidth  = 200.0
	BlockHeight = 140.0
)

// legacyKinds maps the tags written by the first browser editor.
var legacyKinds = map[string]BlockKind{
	"giris":   KindIntro,
	"gelisme": KindBody,
	"sonuc":   KindConclusion,
}

// ParseBlockKind accepts the canonical tags and their legacy spellings.
func ParseBlockKind(s string) (BlockKind, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	switch BlockKind(tag) {
	case KindIntro, KindBody, KindConclusion:
		return BlockKind(tag), nil
	}
	if k, ok := legacyKinds[tag]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown block kind %q", s)
}

// Valid reports whether k is one of the three known kinds.
func (k BlockKind) Valid() bool {
	return k == KindIntro || k == KindBody || k == KindConclusion
}

// DefaultColor is the header color a new block of this kind starts with.
func (k BlockKind) DefaultColor() Color {
	switch k {
	case KindIntro:
		return Color{R: 0x34, G: 0x98, B: 0xdb}
	case KindBody:
		return Color{R: 0xf1, G: 0xc4, B: 0x0f}
	default:
		return Color{R: 0x9b, G: 0x59, B: 0xb6}
	}
}

// Point is a 2D coordinate. Whether it is in screen or world space depends on
// where it came from.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) Div(f float64) Point   { return Point{p.X / f, p.Y / f} }

// Block is a positioned, typed, styled node of the diagram.
type Block struct {
	ID       int       `json:"id"`
	Kind     BlockKind `json:"kind"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Color    Color     `json:"color"`
	Position Point     `json:"position"` // world space, top-left corner
}

// OutputAnchor is the world-space center of the block's output connector.
func (b Block) OutputAnchor() Point {
	return Point{X: b.Position.X + BlockWidth, Y: b.Position.Y + BlockHeight/2}
}

// InputAnchor is the world-space center of the block's input connector.
func (b Block) InputAnchor() Point {
	return Point{X: b.Position.X, Y: b.Position.Y + BlockHeight/2}
}
