package mcpserver

import (
	"math"

	"flowboard/internal/domain"
)

const (
	GridSize = 20.0
	Padding  = 60.0 // 3 grid cells between blocks
	MaxRowW  = 1800.0
)

// LayoutEngine handles automatic placement of blocks on the canvas
// so that MCP-created blocks don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func blockRect(b domain.Block) rect {
	return rect{b.Position.X, b.Position.Y, domain.BlockWidth, domain.BlockHeight}
}

// NextPosition finds the next non-overlapping grid position for a new block
// given the blocks already on the canvas.
func (le *LayoutEngine) NextPosition(existing []domain.Block) domain.Point {
	if len(existing) == 0 {
		return domain.Point{}
	}

	occupied := make([]rect, len(existing))
	for i, b := range existing {
		r := blockRect(b)
		occupied[i] = rect{
			x: r.x - le.padding,
			y: r.y - le.padding,
			w: r.w + le.padding*2,
			h: r.h + le.padding*2,
		}
	}

	// Scan rows top-to-bottom, columns left-to-right
	candidate := rect{w: domain.BlockWidth, h: domain.BlockHeight}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x < le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return domain.Point{X: candidate.x, Y: candidate.y}
			}
		}
	}

	// Fallback: place below all existing blocks
	maxY := 0.0
	for _, b := range existing {
		if b.Position.Y+domain.BlockHeight > maxY {
			maxY = b.Position.Y + domain.BlockHeight
		}
	}
	return domain.Point{Y: le.snap(maxY + le.padding)}
}

// Arrange places blocks in columns by flow depth: blocks nothing points at
// go in the first column, their successors in the next, and so on. Blocks
// only reachable through a cycle land in the first column too. It returns the
// new position of every block id.
func (le *LayoutEngine) Arrange(blocks []domain.Block, conns []domain.Connection, start domain.Point) map[int]domain.Point {
	depth := layers(blocks, conns)

	x0, y0 := le.snap(start.X), le.snap(start.Y)
	colW := le.snap(domain.BlockWidth + le.padding*2)
	rowH := le.snap(domain.BlockHeight + le.padding)

	rows := make(map[int]int)
	out := make(map[int]domain.Point, len(blocks))
	for _, b := range blocks {
		d := depth[b.ID]
		out[b.ID] = domain.Point{X: x0 + float64(d)*colW, Y: y0 + float64(rows[d])*rowH}
		rows[d]++
	}
	return out
}

// layers assigns each block the length of the shortest path from a root.
func layers(blocks []domain.Block, conns []domain.Connection) map[int]int {
	indeg := make(map[int]int, len(blocks))
	next := make(map[int][]int)
	for _, c := range conns {
		if c.From == c.To {
			continue
		}
		indeg[c.To]++
		next[c.From] = append(next[c.From], c.To)
	}

	depth := make(map[int]int, len(blocks))
	var queue []int
	for _, b := range blocks {
		if indeg[b.ID] == 0 {
			depth[b.ID] = 0
			queue = append(queue, b.ID)
		}
	}

	visit := func() {
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, to := range next[id] {
				if _, seen := depth[to]; seen {
					continue
				}
				depth[to] = depth[id] + 1
				queue = append(queue, to)
			}
		}
	}
	visit()

	// Pure cycles have no root; seed them in document order.
	for _, b := range blocks {
		if _, seen := depth[b.ID]; !seen {
			depth[b.ID] = 0
			queue = append(queue, b.ID)
			visit()
		}
	}
	return depth
}
