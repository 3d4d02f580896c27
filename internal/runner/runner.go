// Package runner walks a flow document from its intro block along the first
// outgoing connection of every block, the way a presenter reads it aloud.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"flowboard/internal/codec"
	"flowboard/internal/domain"
)

var (
	ErrNoIntro   = errors.New("flow has no intro block")
	ErrStepLimit = errors.New("flow exceeds the step limit")
)

const DefaultMaxSteps = 1000

// Trace returns the blocks visited from the first intro block (document
// order), following the first outgoing connection (document order) until a
// block has none. Cycles are legal, so the walk stops with ErrStepLimit after
// maxSteps blocks; the steps taken so far are returned with it.
func Trace(doc codec.Document, maxSteps int) ([]domain.Block, error) {
	blocks, err := codec.Validate(doc)
	if err != nil {
		return nil, err
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	byID := make(map[int]domain.Block, len(blocks))
	var start *domain.Block
	for i := range blocks {
		byID[blocks[i].ID] = blocks[i]
		if start == nil && blocks[i].Kind == domain.KindIntro {
			start = &blocks[i]
		}
	}
	if start == nil {
		return nil, ErrNoIntro
	}

	next := make(map[int]int)
	for _, c := range doc.Connections {
		if _, seen := next[c.From]; !seen && c.From != c.To {
			next[c.From] = c.To
		}
	}

	steps := []domain.Block{*start}
	cur := start.ID
	for {
		to, ok := next[cur]
		if !ok {
			return steps, nil
		}
		if len(steps) == maxSteps {
			return steps, fmt.Errorf("%w (%d)", ErrStepLimit, maxSteps)
		}
		steps = append(steps, byID[to])
		cur = to
	}
}

// Options tunes Run.
type Options struct {
	MaxSteps int
	Delay    time.Duration // pause after each block
}

// Run traces doc and prints every step to w. A cancelled ctx stops it
// between steps.
func Run(ctx context.Context, w io.Writer, doc codec.Document, opts Options) error {
	steps, err := Trace(doc, opts.MaxSteps)
	if steps == nil {
		return err
	}

	fmt.Fprintf(w, "Project: %s (v%s)\n", orDefault(doc.Meta.ProjectName, "untitled"), orDefault(doc.Meta.Version, "?.?"))
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for i, b := range steps {
		fmt.Fprintf(w, "[%s] -> %s\n", strings.ToUpper(string(b.Kind)), b.Title)
		fmt.Fprintf(w, "   └── %s\n", b.Body)

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.Delay):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		if i < len(steps)-1 {
			fmt.Fprintln(w, "      ↓")
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "      ■")
	fmt.Fprintln(w, "Flow finished.")
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
