package graph

import (
	"slices"

	"flowboard/internal/domain"
)

// Changes is the journal of what happened to the graph since the last drain.
// Each list holds distinct entries in first-seen order. Consumers apply
// removals before creations, so an id removed and re-created in one batch
// ends up present.
type Changes struct {
	Created      []int // new blocks
	Removed      []int // deleted blocks
	Touched      []int // summary, status or appearance may have changed
	Moved        []int // connection lines need new endpoints
	AddedConns   []domain.ConnKey
	RemovedConns []domain.ConnKey
}

// Empty reports whether nothing was journaled.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Removed) == 0 && len(c.Touched) == 0 &&
		len(c.Moved) == 0 && len(c.AddedConns) == 0 && len(c.RemovedConns) == 0
}

func (c *Changes) created(id int)               { c.Created = appendUnique(c.Created, id) }
func (c *Changes) removed(id int)               { c.Removed = appendUnique(c.Removed, id) }
func (c *Changes) touch(id int)                 { c.Touched = appendUnique(c.Touched, id) }
func (c *Changes) move(id int)                  { c.Moved = appendUnique(c.Moved, id) }
func (c *Changes) connAdded(k domain.ConnKey)   { c.AddedConns = appendUnique(c.AddedConns, k) }
func (c *Changes) connRemoved(k domain.ConnKey) { c.RemovedConns = appendUnique(c.RemovedConns, k) }

func appendUnique[T comparable](list []T, v T) []T {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
