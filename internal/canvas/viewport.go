// Package canvas holds the screen/world transform of the single editing
// canvas and the contract the engine expects from whatever draws it.
package canvas

import "flowboard/internal/domain"

const (
	MinScale  = 0.2
	MaxScale  = 3.0
	ZoomStep  = 0.1
	baseScale = 1.0
)

// Viewport maps screen space (pointer pixels) to world space (where block
// positions are stored). Zoom is about the world origin, not the cursor;
// keeping a point of interest still while zooming takes a pan.
type Viewport struct {
	scale  float64
	pan    domain.Point
	width  float64
	height float64
}

// NewViewport returns a viewport at scale 1 with no pan for a screen of the
// given size.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{scale: baseScale, width: width, height: height}
}

func (v *Viewport) Scale() float64    { return v.scale }
func (v *Viewport) Pan() domain.Point { return v.pan }

// ScreenToWorld computes (p - pan) / scale.
func (v *Viewport) ScreenToWorld(p domain.Point) domain.Point {
	return p.Sub(v.pan).Div(v.scale)
}

// WorldToScreen computes p * scale + pan.
func (v *Viewport) WorldToScreen(p domain.Point) domain.Point {
	return p.Scale(v.scale).Add(v.pan)
}

// Zoom steps the scale by ZoomStep in the direction of the sign of
// direction, clamped to [MinScale, MaxScale]. A zero direction is a no-op.
func (v *Viewport) Zoom(direction float64) {
	switch {
	case direction > 0:
		v.scale += ZoomStep
	case direction < 0:
		v.scale -= ZoomStep
	default:
		return
	}
	v.scale = clamp(v.scale, MinScale, MaxScale)
}

// PanBy moves the pan offset by a screen-space delta. The delta is not
// scaled.
func (v *Viewport) PanBy(delta domain.Point) {
	v.pan = v.pan.Add(delta)
}

// Resize records the on-screen size of the canvas.
func (v *Viewport) Resize(width, height float64) {
	v.width, v.height = width, height
}

// VisibleCenter is the world point under the middle of the screen.
func (v *Viewport) VisibleCenter() domain.Point {
	return v.ScreenToWorld(domain.Point{X: v.width / 2, Y: v.height / 2})
}

// Reset returns to scale 1 and no pan. The screen size is kept.
func (v *Viewport) Reset() {
	v.scale = baseScale
	v.pan = domain.Point{}
}

// Set restores a saved transform; the scale is clamped.
func (v *Viewport) Set(scale float64, pan domain.Point) {
	v.scale = clamp(scale, MinScale, MaxScale)
	v.pan = pan
}

func (v *Viewport) State() domain.ViewportState {
	return domain.ViewportState{Scale: v.scale, Pan: v.pan, Width: v.width, Height: v.height}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
