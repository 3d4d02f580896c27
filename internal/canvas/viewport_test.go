package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowboard/internal/canvas"
	"flowboard/internal/domain"
)

func TestViewport_InverseTransform(t *testing.T) {
	points := []domain.Point{{X: 0, Y: 0}, {X: 12.5, Y: -3}, {X: -400, Y: 920.25}}
	pans := []domain.Point{{}, {X: 35, Y: -80}, {X: -1200, Y: 44.4}}

	for _, scale := range []float64{0.2, 0.7, 1, 2.3, 3} {
		for _, pan := range pans {
			v := canvas.NewViewport(800, 600)
			v.Set(scale, pan)
			for _, w := range points {
				got := v.ScreenToWorld(v.WorldToScreen(w))
				assert.InDelta(t, w.X, got.X, 1e-9, "scale=%v pan=%v", scale, pan)
				assert.InDelta(t, w.Y, got.Y, 1e-9, "scale=%v pan=%v", scale, pan)
			}
		}
	}
}

func TestViewport_ScreenToWorld(t *testing.T) {
	v := canvas.NewViewport(800, 600)
	v.PanBy(domain.Point{X: 100, Y: 50})
	v.Zoom(1)

	got := v.ScreenToWorld(domain.Point{X: 210, Y: 160})
	assert.InDelta(t, 100, got.X, 1e-9)
	assert.InDelta(t, 100, got.Y, 1e-9)
}

func TestViewport_ZoomClamps(t *testing.T) {
	v := canvas.NewViewport(800, 600)
	for i := 0; i < 100; i++ {
		v.Zoom(1)
		require.LessOrEqual(t, v.Scale(), canvas.MaxScale)
	}
	assert.Equal(t, canvas.MaxScale, v.Scale())

	for i := 0; i < 100; i++ {
		v.Zoom(-5)
		require.GreaterOrEqual(t, v.Scale(), canvas.MinScale)
	}
	assert.Equal(t, canvas.MinScale, v.Scale())
}

func TestViewport_ZoomZeroDirection(t *testing.T) {
	v := canvas.NewViewport(800, 600)
	v.Zoom(0)
	assert.Equal(t, 1.0, v.Scale())
}

func TestViewport_ZoomKeepsPan(t *testing.T) {
	v := canvas.NewViewport(800, 600)
	v.PanBy(domain.Point{X: 10, Y: 20})
	v.Zoom(1)
	assert.Equal(t, domain.Point{X: 10, Y: 20}, v.Pan())
}

func TestViewport_VisibleCenter(t *testing.T) {
	v := canvas.NewViewport(1000, 800)
	assert.Equal(t, domain.Point{X: 500, Y: 400}, v.VisibleCenter())

	v.PanBy(domain.Point{X: 100, Y: -200})
	v.Set(2, v.Pan())
	c := v.VisibleCenter()
	assert.InDelta(t, 200, c.X, 1e-9)
	assert.InDelta(t, 300, c.Y, 1e-9)
}

func TestViewport_Reset(t *testing.T) {
	v := canvas.NewViewport(640, 480)
	v.PanBy(domain.Point{X: 3, Y: 4})
	v.Zoom(1)
	v.Reset()

	st := v.State()
	assert.Equal(t, 1.0, st.Scale)
	assert.Equal(t, domain.Point{}, st.Pan)
	assert.Equal(t, 640.0, st.Width)
}

func TestScene_RaiseAndTopNode(t *testing.T) {
	s := canvas.NewScene()
	s.CreateNode(domain.Block{ID: 1, Position: domain.Point{X: 0, Y: 0}})
	s.CreateNode(domain.Block{ID: 2, Position: domain.Point{X: 50, Y: 50}})

	id, ok := s.TopNode(domain.Point{X: 60, Y: 60})
	require.True(t, ok)
	assert.Equal(t, 2, id)

	s.RaiseNode(1)
	id, _ = s.TopNode(domain.Point{X: 60, Y: 60})
	assert.Equal(t, 1, id)

	_, ok = s.TopNode(domain.Point{X: -10, Y: 0})
	assert.False(t, ok)
}
