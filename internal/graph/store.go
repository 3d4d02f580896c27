// Package graph owns the blocks and connections of a flow. It enforces
// identity and referential integrity and journals what changed so derived
// state can be recomputed by whoever drains the journal.
package graph

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"flowboard/internal/domain"
)

var (
	ErrUnknownBlock   = errors.New("graph: unknown block")
	ErrDuplicateBlock = errors.New("graph: block id already in use")
	ErrUnknownKind    = errors.New("graph: unknown block kind")
	ErrIDOutOfRange   = errors.New("graph: block id out of range")
)

const DefaultBody = "Content..."

// MaxBlockID is the largest id a block may carry. The counter always holds
// one past the highest id, so it must stay representable.
const MaxBlockID = math.MaxInt - 1

// Centerer supplies the world point a block without an explicit position is
// centered on. The viewport implements it.
type Centerer interface {
	VisibleCenter() domain.Point
}

// NewBlock describes a block to create. Zero/nil fields take defaults.
type NewBlock struct {
	Kind     domain.BlockKind
	ID       int // 0 assigns the next unused id
	Position *domain.Point
	Title    *string
	Body     *string
	Color    *domain.Color
}

// Store is the single owner of the flow graph.
type Store struct {
	center Centerer

	blocks []*domain.Block // creation order
	index  map[int]*domain.Block
	conns  []domain.Connection
	keys   map[domain.ConnKey]struct{}
	nextID int

	journal Changes
}

func NewStore(center Centerer) *Store {
	s := &Store{center: center}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.blocks = nil
	s.index = make(map[int]*domain.Block)
	s.conns = nil
	s.keys = make(map[domain.ConnKey]struct{})
	s.nextID = 1
}

// ── Blocks ─────────────────────────────────────────────────

// CreateBlock adds a block. Without a position the block is centered on the
// visible center of the viewport.
func (s *Store) CreateBlock(nb NewBlock) (domain.Block, error) {
	if !nb.Kind.Valid() {
		return domain.Block{}, fmt.Errorf("%w: %q", ErrUnknownKind, nb.Kind)
	}
	id := nb.ID
	if id == 0 {
		id = s.nextID
		for s.index[id] != nil && id < MaxBlockID {
			id++
		}
		if s.index[id] != nil {
			return domain.Block{}, fmt.Errorf("%w: no free id", ErrIDOutOfRange)
		}
	} else if _, exists := s.index[id]; exists {
		return domain.Block{}, fmt.Errorf("%w: %d", ErrDuplicateBlock, id)
	}
	if id < 1 || id > MaxBlockID {
		return domain.Block{}, fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}

	b := &domain.Block{
		ID:    id,
		Kind:  nb.Kind,
		Title: fmt.Sprintf("%s %d", strings.ToUpper(string(nb.Kind)), id),
		Body:  DefaultBody,
		Color: nb.Kind.DefaultColor(),
	}
	switch {
	case nb.Position != nil:
		b.Position = *nb.Position
	case s.center != nil:
		c := s.center.VisibleCenter()
		b.Position = domain.Point{X: c.X - domain.BlockWidth/2, Y: c.Y - domain.BlockHeight/2}
	}
	if nb.Title != nil {
		b.Title = *nb.Title
	}
	if nb.Body != nil {
		b.Body = *nb.Body
	}
	if nb.Color != nil {
		b.Color = *nb.Color
	}

	s.blocks = append(s.blocks, b)
	s.index[id] = b
	s.journal.created(id)
	return *b, nil
}

// DeleteBlock removes a block together with every connection touching it.
// Unknown ids are a no-op.
func (s *Store) DeleteBlock(id int) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}

	kept := s.conns[:0]
	for _, c := range s.conns {
		if !c.Touches(id) {
			kept = append(kept, c)
			continue
		}
		delete(s.keys, c.Key())
		s.journal.connRemoved(c.Key())
		if other := c.Other(id); other != id {
			s.journal.touch(other)
		}
	}
	s.conns = kept

	for i, b := range s.blocks {
		if b.ID == id {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			break
		}
	}
	delete(s.index, id)
	s.journal.removed(id)
	return true
}

// RenameBlock sets the title. Every neighbor's summary mentions this title,
// so all of them are journaled too.
func (s *Store) RenameBlock(id int, title string) bool {
	b, ok := s.index[id]
	if !ok {
		return false
	}
	b.Title = title
	s.journal.touch(id)
	for _, n := range s.Neighbors(id) {
		s.journal.touch(n)
	}
	return true
}

func (s *Store) SetBody(id int, body string) bool {
	b, ok := s.index[id]
	if !ok {
		return false
	}
	b.Body = body
	s.journal.touch(id)
	return true
}

func (s *Store) SetColor(id int, c domain.Color) bool {
	b, ok := s.index[id]
	if !ok {
		return false
	}
	b.Color = c
	s.journal.touch(id)
	return true
}

// MoveBlock sets the world position of a block's top-left corner.
func (s *Store) MoveBlock(id int, pos domain.Point) bool {
	b, ok := s.index[id]
	if !ok {
		return false
	}
	b.Position = pos
	s.journal.move(id)
	return true
}

// Block returns a copy of the block with the given id.
func (s *Store) Block(id int) (domain.Block, bool) {
	b, ok := s.index[id]
	if !ok {
		return domain.Block{}, false
	}
	return *b, true
}

func (s *Store) Has(id int) bool {
	_, ok := s.index[id]
	return ok
}

// Blocks returns copies of all blocks in creation order.
func (s *Store) Blocks() []domain.Block {
	out := make([]domain.Block, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = *b
	}
	return out
}

func (s *Store) Len() int { return len(s.blocks) }

// NextID is the id the next auto-numbered block will get.
func (s *Store) NextID() int { return s.nextID }

// SetNextID seeds the id counter, e.g. after restoring a document.
func (s *Store) SetNextID(n int) {
	s.nextID = min(max(n, 1), MaxBlockID+1)
}

// ── Connections ────────────────────────────────────────────

// CreateConnection adds the directed edge from → to. A self-loop or an
// existing ordered pair is a silent no-op reported as false.
func (s *Store) CreateConnection(from, to int) (bool, error) {
	if from == to {
		return false, nil
	}
	if !s.Has(from) {
		return false, fmt.Errorf("%w: %d", ErrUnknownBlock, from)
	}
	if !s.Has(to) {
		return false, fmt.Errorf("%w: %d", ErrUnknownBlock, to)
	}
	c := domain.Connection{From: from, To: to}
	if _, dup := s.keys[c.Key()]; dup {
		return false, nil
	}
	s.conns = append(s.conns, c)
	s.keys[c.Key()] = struct{}{}
	s.journal.connAdded(c.Key())
	s.journal.touch(from)
	s.journal.touch(to)
	return true, nil
}

func (s *Store) HasConnection(from, to int) bool {
	_, ok := s.keys[domain.ConnKey{From: from, To: to}]
	return ok
}

// Connections returns all connections in creation order.
func (s *Store) Connections() []domain.Connection {
	out := make([]domain.Connection, len(s.conns))
	copy(out, s.conns)
	return out
}

// ConnectionsOf returns every connection touching id.
func (s *Store) ConnectionsOf(id int) []domain.Connection {
	var out []domain.Connection
	for _, c := range s.conns {
		if c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}

// Outgoing returns target ids of connections leaving id, in creation order.
func (s *Store) Outgoing(id int) []int {
	var out []int
	for _, c := range s.conns {
		if c.From == id {
			out = append(out, c.To)
		}
	}
	return out
}

// Incoming returns source ids of connections arriving at id.
func (s *Store) Incoming(id int) []int {
	var in []int
	for _, c := range s.conns {
		if c.To == id {
			in = append(in, c.From)
		}
	}
	return in
}

// Neighbors returns the distinct ids connected to id in either direction.
func (s *Store) Neighbors(id int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range s.conns {
		if !c.Touches(id) {
			continue
		}
		if n := c.Other(id); !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// ── Whole graph ────────────────────────────────────────────

// Clear removes every block and connection and restarts ids at 1.
func (s *Store) Clear() {
	for _, c := range s.conns {
		s.journal.connRemoved(c.Key())
	}
	for _, b := range s.blocks {
		s.journal.removed(b.ID)
	}
	s.reset()
}

// Drain returns everything journaled since the last call and empties the
// journal.
func (s *Store) Drain() Changes {
	ch := s.journal
	s.journal = Changes{}
	return ch
}

// Pending reports whether the journal holds anything.
func (s *Store) Pending() bool { return !s.journal.Empty() }
