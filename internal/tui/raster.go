package tui

import (
	"math"
	"strings"

	"flowboard/internal/canvas"
	"flowboard/internal/domain"
	"flowboard/internal/interaction"
)

// One terminal cell stands for this many screen pixels, so the engine keeps
// working in the same units as the desktop host.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

// grid is a fixed-size rune buffer.
type grid struct {
	cols, rows int
	cells      [][]rune
}

func newGrid(cols, rows int) *grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g := &grid{cols: cols, rows: rows, cells: make([][]rune, rows)}
	for i := range g.cells {
		g.cells[i] = []rune(strings.Repeat(" ", cols))
	}
	return g
}

func (g *grid) set(col, row int, r rune) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row][col] = r
}

func (g *grid) text(col, row int, s string, max int) {
	i := 0
	for _, r := range s {
		if i >= max {
			break
		}
		g.set(col+i, row, r)
		i++
	}
}

func (g *grid) lines() []string {
	out := make([]string, g.rows)
	for i, row := range g.cells {
		out[i] = string(row)
	}
	return out
}

// ── Cell mapping ───────────────────────────────────────────

// cellAt maps a screen-space point to the cell that contains it.
func cellAt(p domain.Point) (int, int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// cellCenter is the screen-space point a mouse event in (col, row) stands for.
func cellCenter(col, row int) domain.Point {
	return domain.Point{
		X: float64(col)*CellWidth + CellWidth/2,
		Y: float64(row)*CellHeight + CellHeight/2,
	}
}

func toScreen(vs domain.ViewportState, p domain.Point) domain.Point {
	return p.Scale(vs.Scale).Add(vs.Pan)
}

func toWorld(vs domain.ViewportState, p domain.Point) domain.Point {
	return p.Sub(vs.Pan).Div(vs.Scale)
}

// box is the cell extent of a block, borders inclusive. The input connector
// sits on the left border and the output connector on the right one.
type box struct {
	left, top, right, bottom int
	anchorRow                int
}

func boxOf(vs domain.ViewportState, b domain.Block) box {
	l, t := cellAt(toScreen(vs, b.Position))
	r, bt := cellAt(toScreen(vs, b.Position.Add(domain.Point{X: domain.BlockWidth, Y: domain.BlockHeight})))
	_, ar := cellAt(toScreen(vs, b.InputAnchor()))
	if r <= l {
		r = l + 1
	}
	if bt <= t {
		bt = t + 1
	}
	return box{left: l, top: t, right: r, bottom: bt, anchorRow: ar}
}

func (b box) contains(col, row int) bool {
	return col >= b.left && col <= b.right && row >= b.top && row <= b.bottom
}

// ── Hit testing ────────────────────────────────────────────

// Locate classifies what lies under the cell, topmost block first.
func Locate(scene *canvas.Scene, vs domain.ViewportState, col, row int) interaction.Target {
	nodes := scene.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		b := boxOf(vs, nodes[i].Block)
		if !b.contains(col, row) {
			continue
		}
		id := nodes[i].Block.ID
		switch {
		case row == b.anchorRow && col == b.right:
			return interaction.Target{Kind: interaction.TargetOutput, BlockID: id}
		case row == b.anchorRow && col == b.left:
			return interaction.Target{Kind: interaction.TargetInput, BlockID: id}
		default:
			return interaction.Target{Kind: interaction.TargetBlock, BlockID: id}
		}
	}
	return interaction.Target{Kind: interaction.TargetBackground}
}

// ── Drawing ────────────────────────────────────────────────

var (
	plainBorder = [6]rune{'┌', '┐', '└', '┘', '─', '│'}
	dragBorder  = [6]rune{'╔', '╗', '╚', '╝', '═', '║'}
)

// Render draws the scene into rows of text: lines first, blocks on top in
// stacking order, the provisional line last.
func Render(scene *canvas.Scene, vs domain.ViewportState, cols, rows int) []string {
	g := newGrid(cols, rows)

	for _, l := range scene.Lines() {
		drawLine(g, vs, l.From, l.To, '·')
	}
	for _, n := range scene.Nodes() {
		drawNode(g, vs, n)
	}
	if l, ok := scene.Provisional(); ok {
		drawLine(g, vs, l.From, l.To, '•')
	}
	return g.lines()
}

func drawLine(g *grid, vs domain.ViewportState, from, to domain.Point, r rune) {
	c0, r0 := cellAt(toScreen(vs, from))
	c1, r1 := cellAt(toScreen(vs, to))

	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		g.set(c0, r0, r)
		if c0 == c1 && r0 == r1 {
			break
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

func drawNode(g *grid, vs domain.ViewportState, n canvas.Node) {
	b := boxOf(vs, n.Block)
	border := plainBorder
	if n.Dragging {
		border = dragBorder
	}

	for c := b.left; c <= b.right; c++ {
		for r := b.top; r <= b.bottom; r++ {
			g.set(c, r, ' ')
		}
		g.set(c, b.top, border[4])
		g.set(c, b.bottom, border[4])
	}
	for r := b.top; r <= b.bottom; r++ {
		g.set(b.left, r, border[5])
		g.set(b.right, r, border[5])
	}
	g.set(b.left, b.top, border[0])
	g.set(b.right, b.top, border[1])
	g.set(b.left, b.bottom, border[2])
	g.set(b.right, b.bottom, border[3])

	g.set(b.left, b.anchorRow, '○')
	out := '○'
	if n.View.Connected {
		out = '●'
	}
	g.set(b.right, b.anchorRow, out)

	inner := b.right - b.left - 1
	if inner < 1 {
		return
	}
	row := b.top + 1
	if row < b.bottom {
		g.text(b.left+1, row, "["+strings.ToUpper(string(n.Block.Kind))+"] "+n.Block.Title, inner)
		row++
	}
	for _, line := range strings.Split(n.Block.Body, "\n") {
		if row >= b.bottom-1 {
			break
		}
		g.text(b.left+1, row, line, inner)
		row++
	}
	if b.bottom-1 > b.top+1 {
		g.text(b.left+1, b.bottom-1, n.View.Summary, inner)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
