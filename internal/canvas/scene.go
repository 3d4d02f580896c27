package canvas

import (
	"sort"

	"flowboard/internal/domain"
)

// Node is what a Scene retains for one block.
type Node struct {
	Block    domain.Block
	View     domain.NodeView
	Dragging bool
	z        int
}

// Line is a retained line primitive in world space.
type Line struct {
	Key      domain.ConnKey
	From, To domain.Point
}

// Scene is a retained-mode Renderer: it just remembers the latest state of
// every node and line. Terminal and test hosts draw from it.
type Scene struct {
	nodes       map[int]*Node
	lines       map[domain.ConnKey]Line
	provisional *Line
	nextZ       int
}

func NewScene() *Scene {
	return &Scene{
		nodes: make(map[int]*Node),
		lines: make(map[domain.ConnKey]Line),
	}
}

func (s *Scene) CreateNode(b domain.Block) {
	s.nextZ++
	s.nodes[b.ID] = &Node{Block: b, z: s.nextZ}
}

func (s *Scene) UpdateNode(b domain.Block, view domain.NodeView) {
	n, ok := s.nodes[b.ID]
	if !ok {
		return
	}
	n.Block = b
	n.View = view
}

func (s *Scene) RemoveNode(id int) { delete(s.nodes, id) }

func (s *Scene) RaiseNode(id int) {
	if n, ok := s.nodes[id]; ok {
		s.nextZ++
		n.z = s.nextZ
	}
}

func (s *Scene) SetDragging(id int, dragging bool) {
	if n, ok := s.nodes[id]; ok {
		n.Dragging = dragging
	}
}

func (s *Scene) DrawLine(key domain.ConnKey, from, to domain.Point) {
	s.lines[key] = Line{Key: key, From: from, To: to}
}

func (s *Scene) RemoveLine(key domain.ConnKey) { delete(s.lines, key) }

func (s *Scene) DrawProvisional(from, to domain.Point) {
	s.provisional = &Line{From: from, To: to}
}

func (s *Scene) ClearProvisional() { s.provisional = nil }

// Node returns a copy of the retained node.
func (s *Scene) Node(id int) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns every node bottom to top.
func (s *Scene) Nodes() []Node {
	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

func (s *Scene) Line(key domain.ConnKey) (Line, bool) {
	l, ok := s.lines[key]
	return l, ok
}

// Lines returns every connection line ordered by key.
func (s *Scene) Lines() []Line {
	out := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.From != out[j].Key.From {
			return out[i].Key.From < out[j].Key.From
		}
		return out[i].Key.To < out[j].Key.To
	})
	return out
}

func (s *Scene) Provisional() (Line, bool) {
	if s.provisional == nil {
		return Line{}, false
	}
	return *s.provisional, true
}

// TopNode returns the id of the highest node whose block contains the world
// point p.
func (s *Scene) TopNode(p domain.Point) (int, bool) {
	nodes := s.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		pos := nodes[i].Block.Position
		if p.X >= pos.X && p.X < pos.X+domain.BlockWidth &&
			p.Y >= pos.Y && p.Y < pos.Y+domain.BlockHeight {
			return nodes[i].Block.ID, true
		}
	}
	return 0, false
}
