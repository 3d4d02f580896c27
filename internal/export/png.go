// Package export renders a flow document to a PNG image.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"flowboard/internal/codec"
	"flowboard/internal/domain"
	"flowboard/internal/geometry"
	"flowboard/internal/graph"
)

var ErrEmpty = errors.New("nothing to export")

const (
	padding      = 40.0
	headerHeight = 30.0
	footerHeight = 24.0
	fontSize     = 12.0
	arrowSize    = 9.0
	arrowAngle   = 0.5 // radians
)

var (
	background = color.RGBA{0xf4, 0xf5, 0xf7, 0xff}
	cardFill   = color.White
	connected  = color.RGBA{0x2e, 0xcc, 0x71, 0xff}
	detached   = color.RGBA{0xe7, 0x4c, 0x3c, 0xff}
	lineColor  = color.RGBA{0x55, 0x5e, 0x6b, 0xff}
	mutedText  = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

// WritePNG renders doc at one pixel per world unit, cropped to the blocks
// plus a margin.
func WritePNG(w io.Writer, doc codec.Document) error {
	dc, err := render(doc)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG renders doc into the file at path.
func SavePNG(path string, doc codec.Document) error {
	dc, err := render(doc)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

func render(doc codec.Document) (*gg.Context, error) {
	store, err := load(doc)
	if err != nil {
		return nil, err
	}
	blocks := store.Blocks()
	if len(blocks) == 0 {
		return nil, ErrEmpty
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range blocks {
		minX = math.Min(minX, b.Position.X)
		minY = math.Min(minY, b.Position.Y)
		maxX = math.Max(maxX, b.Position.X+domain.BlockWidth)
		maxY = math.Max(maxY, b.Position.Y+domain.BlockHeight)
	}
	origin := domain.Point{X: minX - padding, Y: minY - padding}

	dc := gg.NewContext(int(math.Ceil(maxX-minX+2*padding)), int(math.Ceil(maxY-minY+2*padding)))
	dc.SetColor(background)
	dc.Clear()

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %v", err)
	}
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	// Connections first so they appear behind blocks
	for _, c := range store.Connections() {
		from, _ := store.Block(c.From)
		to, _ := store.Block(c.To)
		drawConnection(dc, from.OutputAnchor().Sub(origin), to.InputAnchor().Sub(origin))
	}
	for _, b := range blocks {
		drawBlock(dc, b, geometry.View(store, b), b.Position.Sub(origin))
	}
	return dc, nil
}

// load rebuilds the graph so summaries are computed exactly as the editor
// computes them.
func load(doc codec.Document) (*graph.Store, error) {
	blocks, err := codec.Validate(doc)
	if err != nil {
		return nil, err
	}
	store := graph.NewStore(nil)
	for _, b := range blocks {
		pos, title, body, col := b.Position, b.Title, b.Body, b.Color
		if _, err := store.CreateBlock(graph.NewBlock{
			Kind: b.Kind, ID: b.ID, Position: &pos, Title: &title, Body: &body, Color: &col,
		}); err != nil {
			return nil, err
		}
	}
	for _, c := range doc.Connections {
		if _, err := store.CreateConnection(c.From, c.To); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func drawConnection(dc *gg.Context, from, to domain.Point) {
	dc.SetLineWidth(2)
	dc.SetColor(lineColor)
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	dc.Stroke()
	drawArrow(dc, from, to)
}

func drawArrow(dc *gg.Context, from, to domain.Point) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-arrowSize*dx+arrowSize*dy*arrowAngle, to.Y-arrowSize*dy-arrowSize*dx*arrowAngle)
	dc.LineTo(to.X-arrowSize*dx-arrowSize*dy*arrowAngle, to.Y-arrowSize*dy+arrowSize*dx*arrowAngle)
	dc.ClosePath()
	dc.Fill()
}

func drawBlock(dc *gg.Context, b domain.Block, view domain.NodeView, at domain.Point) {
	w, h := domain.BlockWidth, domain.BlockHeight

	dc.SetColor(cardFill)
	dc.DrawRectangle(at.X, at.Y, w, h)
	dc.Fill()

	dc.SetColor(rgba(b.Color))
	dc.DrawRectangle(at.X, at.Y, w, headerHeight)
	dc.Fill()

	status := detached
	if view.Connected {
		status = connected
	}
	dc.SetLineWidth(2)
	dc.SetColor(status)
	dc.DrawRectangle(at.X, at.Y, w, h)
	dc.Stroke()

	dc.SetColor(rgba(view.TextColor))
	dc.DrawStringAnchored(fit(dc, b.Title, w-16), at.X+8, at.Y+headerHeight/2, 0, 0.35)

	dc.SetColor(color.Black)
	lineHeight := fontSize * 1.3
	maxLines := int((h - headerHeight - footerHeight - 8) / lineHeight)
	for i, line := range dc.WordWrap(b.Body, w-16) {
		if i == maxLines {
			break
		}
		dc.DrawString(line, at.X+8, at.Y+headerHeight+8+float64(i+1)*lineHeight-4)
	}

	dc.SetColor(mutedText)
	dc.DrawStringAnchored(fit(dc, view.Summary, w-16), at.X+8, at.Y+h-footerHeight/2, 0, 0.35)
}

// fit truncates s with an ellipsis so it is at most width pixels wide.
func fit(dc *gg.Context, s string, width float64) string {
	if tw, _ := dc.MeasureString(s); tw <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if tw, _ := dc.MeasureString(string(r) + "…"); tw <= width {
			return string(r) + "…"
		}
	}
	return ""
}

func rgba(c domain.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
