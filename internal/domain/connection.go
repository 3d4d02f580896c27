package domain

import "fmt"

// Connection is a directed edge between two blocks. It carries no payload;
// the rendered line is derived from it and owned elsewhere.
type Connection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ConnKey identifies a connection by its ordered endpoint pair.
type ConnKey struct {
	From, To int
}

func (c Connection) Key() ConnKey { return ConnKey{From: c.From, To: c.To} }

// Touches reports whether id is either endpoint.
func (c Connection) Touches(id int) bool { return c.From == id || c.To == id }

// Other returns the endpoint opposite to id.
func (c Connection) Other(id int) int {
	if c.From == id {
		return c.To
	}
	return c.From
}

func (k ConnKey) String() string { return fmt.Sprintf("%d->%d", k.From, k.To) }
