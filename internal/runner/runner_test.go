package runner_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowboard/internal/codec"
	"flowboard/internal/runner"
)

func rec(id int, kind, title string) codec.BlockRecord {
	return codec.BlockRecord{ID: id, Type: kind, Data: codec.BlockData{Title: title, Body: title + " body"}}
}

func TestTrace_FollowsFirstOutgoing(t *testing.T) {
	doc := codec.Document{
		Blocks: []codec.BlockRecord{
			rec(4, "body", "middle"),
			rec(2, "intro", "start"),
			rec(7, "conclusion", "end"),
			rec(9, "body", "detour"),
			rec(3, "intro", "second intro"),
		},
		Connections: []codec.ConnectionRecord{
			{From: 2, To: 4}, {From: 2, To: 9}, {From: 4, To: 7},
		},
	}

	steps, err := runner.Trace(doc, 0)
	require.NoError(t, err)

	var titles []string
	for _, b := range steps {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"start", "middle", "end"}, titles)
}

func TestTrace_NoIntro(t *testing.T) {
	doc := codec.Document{Blocks: []codec.BlockRecord{rec(1, "body", "x")}}
	_, err := runner.Trace(doc, 0)
	assert.ErrorIs(t, err, runner.ErrNoIntro)
}

func TestTrace_CycleHitsStepLimit(t *testing.T) {
	doc := codec.Document{
		Blocks:      []codec.BlockRecord{rec(1, "intro", "a"), rec(2, "body", "b")},
		Connections: []codec.ConnectionRecord{{From: 1, To: 2}, {From: 2, To: 1}},
	}
	steps, err := runner.Trace(doc, 5)
	assert.ErrorIs(t, err, runner.ErrStepLimit)
	assert.Len(t, steps, 5)
}

func TestTrace_InvalidDocument(t *testing.T) {
	doc := codec.Document{
		Blocks:      []codec.BlockRecord{rec(1, "intro", "a")},
		Connections: []codec.ConnectionRecord{{From: 1, To: 3}},
	}
	_, err := runner.Trace(doc, 0)
	assert.ErrorIs(t, err, codec.ErrDanglingConnection)
}

func TestRun_Output(t *testing.T) {
	doc := codec.Document{
		Meta:        codec.Meta{ProjectName: "Talk_v2", Version: "2.0"},
		Blocks:      []codec.BlockRecord{rec(1, "giris", "Hook"), rec(2, "sonuc", "Close")},
		Connections: []codec.ConnectionRecord{{From: 1, To: 2}},
	}
	var out bytes.Buffer

	require.NoError(t, runner.Run(context.Background(), &out, doc, runner.Options{}))

	got := out.String()
	assert.Contains(t, got, "Project: Talk_v2 (v2.0)")
	assert.Contains(t, got, "[INTRO] -> Hook\n   └── Hook body\n      ↓\n[CONCLUSION] -> Close\n")
	assert.True(t, strings.HasSuffix(got, "Flow finished.\n"))
}

func TestRun_Cancelled(t *testing.T) {
	doc := codec.Document{Blocks: []codec.BlockRecord{rec(1, "intro", "a")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx, io.Discard, doc, runner.Options{Delay: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListDocuments_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"old.json", "new.json", "mid.JSON", "skip.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0644))
		age := map[int]time.Duration{0: 3 * time.Hour, 1: 0, 2: time.Hour, 3: 0}[i]
		require.NoError(t, os.Chtimes(p, now.Add(-age), now.Add(-age)))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.json"), 0755))

	files, err := runner.ListDocuments(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"new.json", "mid.JSON", "old.json"}, names)
}

func TestSelect(t *testing.T) {
	files := []runner.DocumentFile{{Name: "a.json"}, {Name: "b.json"}}
	var out bytes.Buffer

	got, err := runner.Select(strings.NewReader("x\n9\n2\n"), &out, files)
	require.NoError(t, err)
	assert.Equal(t, "b.json", got.Name)
	assert.Contains(t, out.String(), "Please enter a number.")
	assert.Contains(t, out.String(), "No such file, try again.")

	_, err = runner.Select(strings.NewReader(""), &out, files)
	assert.ErrorIs(t, err, io.EOF)

	_, err = runner.Select(strings.NewReader("1\n"), &out, nil)
	assert.ErrorIs(t, err, runner.ErrNoDocuments)
}
