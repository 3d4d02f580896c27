// Package codec converts between the live graph and the persisted JSON
// document, and keeps the durable revision counter.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"flowboard/internal/domain"
	"flowboard/internal/graph"
)

var (
	ErrMalformed          = errors.New("codec: malformed document")
	ErrDanglingConnection = errors.New("codec: connection references unknown block")
)

// Meta stamps a document. Version is "<revision>.0".
type Meta struct {
	ProjectName string `json:"projectName"`
	CreatedAt   string `json:"createdAt"`
	Version     string `json:"version"`
}

type BlockData struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Color string `json:"color"`
}

type BlockRecord struct {
	ID       int          `json:"id"`
	Type     string       `json:"type"`
	Position domain.Point `json:"position"`
	Data     BlockData    `json:"data"`
}

type ConnectionRecord struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Document is the persisted form of a flow.
type Document struct {
	Meta        Meta               `json:"meta"`
	Blocks      []BlockRecord      `json:"blocks"`
	Connections []ConnectionRecord `json:"connections"`
}

// Revision returns the revision declared by meta.version.
func (d Document) Revision() (int, bool) { return ParseRevision(d.Meta.Version) }

// ParseRevision reads "<int>" or "<int>.<anything>".
func ParseRevision(version string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// FileName is the download name of an export at revision rev.
func FileName(rev int) string {
	return fmt.Sprintf("flowboard-flow-v%d.json", rev)
}

// Encode writes doc as two-space indented JSON.
func Encode(doc Document) ([]byte, error) {
	if doc.Blocks == nil {
		doc.Blocks = []BlockRecord{}
	}
	if doc.Connections == nil {
		doc.Connections = []ConnectionRecord{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// rawDocument distinguishes a missing collection from an empty one.
type rawDocument struct {
	Meta        Meta                `json:"meta"`
	Blocks      *[]BlockRecord      `json:"blocks"`
	Connections *[]ConnectionRecord `json:"connections"`
}

// Decode parses and validates raw. Nothing is applied anywhere; a returned
// document is safe to Apply.
func Decode(raw []byte) (Document, error) {
	var rd rawDocument
	if err := json.Unmarshal(raw, &rd); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rd.Blocks == nil {
		return Document{}, fmt.Errorf("%w: missing blocks", ErrMalformed)
	}
	if rd.Connections == nil {
		return Document{}, fmt.Errorf("%w: missing connections", ErrMalformed)
	}
	doc := Document{Meta: rd.Meta, Blocks: *rd.Blocks, Connections: *rd.Connections}
	if _, err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks every record and returns the blocks in domain form, in
// document order.
func Validate(doc Document) ([]domain.Block, error) {
	blocks := make([]domain.Block, 0, len(doc.Blocks))
	seen := make(map[int]bool, len(doc.Blocks))
	for i, r := range doc.Blocks {
		if r.ID < 1 || r.ID > graph.MaxBlockID {
			return nil, fmt.Errorf("%w: block %d has invalid id %d", ErrMalformed, i, r.ID)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate block id %d", ErrMalformed, r.ID)
		}
		seen[r.ID] = true

		kind, err := domain.ParseBlockKind(r.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrMalformed, r.ID, err)
		}
		color := kind.DefaultColor()
		if r.Data.Color != "" {
			if color, err = domain.ParseColor(r.Data.Color); err != nil {
				return nil, fmt.Errorf("%w: block %d: %v", ErrMalformed, r.ID, err)
			}
		}
		blocks = append(blocks, domain.Block{
			ID:       r.ID,
			Kind:     kind,
			Title:    r.Data.Title,
			Body:     r.Data.Body,
			Color:    color,
			Position: r.Position,
		})
	}

	for _, c := range doc.Connections {
		if !seen[c.From] || !seen[c.To] {
			return nil, fmt.Errorf("%w: %d -> %d", ErrDanglingConnection, c.From, c.To)
		}
	}
	return blocks, nil
}

func recordOf(b domain.Block) BlockRecord {
	return BlockRecord{
		ID:       b.ID,
		Type:     string(b.Kind),
		Position: b.Position,
		Data:     BlockData{Title: b.Title, Body: b.Body, Color: b.Color.Hex()},
	}
}
