package codec

import (
	"context"
	"fmt"
	"time"

	"flowboard/internal/domain"
	"flowboard/internal/graph"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// Codec exports the live graph to documents and applies documents to it.
type Codec struct {
	store  *graph.Store
	revs   *Revisions
	prefix string
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New returns a codec over store. prefix names exported projects
// ("<prefix>_v<rev>").
func New(store *graph.Store, revs *Revisions, prefix string, opts ...Option) *Codec {
	c := &Codec{store: store, revs: revs, prefix: prefix, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Codec) Revisions() *Revisions { return c.revs }

// Export bumps the revision and snapshots the graph under it.
func (c *Codec) Export(ctx context.Context) (Document, error) {
	rev, err := c.revs.Next(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export: %w", err)
	}
	return c.document(rev), nil
}

// Snapshot captures the graph stamped with the current revision without
// bumping it.
func (c *Codec) Snapshot(ctx context.Context) (Document, error) {
	rev, err := c.revs.Current(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("snapshot: %w", err)
	}
	return c.document(rev), nil
}

func (c *Codec) document(rev int) Document {
	doc := Document{
		Meta: Meta{
			ProjectName: fmt.Sprintf("%s_v%d", c.prefix, rev),
			CreatedAt:   c.now().UTC().Format(timeLayout),
			Version:     fmt.Sprintf("%d.0", rev),
		},
		Blocks:      []BlockRecord{},
		Connections: []ConnectionRecord{},
	}
	for _, b := range c.store.Blocks() {
		doc.Blocks = append(doc.Blocks, recordOf(b))
	}
	for _, conn := range c.store.Connections() {
		doc.Connections = append(doc.Connections, ConnectionRecord{From: conn.From, To: conn.To})
	}
	return doc
}

// Apply replaces the graph with doc. The document is validated and the
// revision baseline stored before the graph is touched, so a failure leaves
// the graph as it was.
func (c *Codec) Apply(ctx context.Context, doc Document) error {
	blocks, err := Validate(doc)
	if err != nil {
		return err
	}
	if rev, ok := doc.Revision(); ok {
		if err := c.revs.Set(ctx, rev); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	return c.replace(blocks, doc.Connections)
}

// Restore replaces the graph with doc but leaves the revision counter
// alone. Snapshot history uses it so restoring an old state never rewinds
// the export revision.
func (c *Codec) Restore(doc Document) error {
	blocks, err := Validate(doc)
	if err != nil {
		return err
	}
	return c.replace(blocks, doc.Connections)
}

func (c *Codec) replace(blocks []domain.Block, conns []ConnectionRecord) error {
	c.store.Clear()
	maxID := 0
	for _, b := range blocks {
		pos, title, body, color := b.Position, b.Title, b.Body, b.Color
		if _, err := c.store.CreateBlock(graph.NewBlock{
			Kind: b.Kind, ID: b.ID, Position: &pos, Title: &title, Body: &body, Color: &color,
		}); err != nil {
			return fmt.Errorf("apply block %d: %w", b.ID, err)
		}
		maxID = max(maxID, b.ID)
	}
	c.store.SetNextID(maxID + 1)

	for _, conn := range conns {
		if _, err := c.store.CreateConnection(conn.From, conn.To); err != nil {
			return fmt.Errorf("apply connection %d -> %d: %w", conn.From, conn.To, err)
		}
	}
	return nil
}

// Import decodes raw and applies it.
func (c *Codec) Import(ctx context.Context, raw []byte) (Document, error) {
	doc, err := Decode(raw)
	if err != nil {
		return Document{}, err
	}
	if err := c.Apply(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
