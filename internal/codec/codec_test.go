package codec_test

import (
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowboard/internal/canvas"
	"flowboard/internal/codec"
	"flowboard/internal/domain"
	"flowboard/internal/geometry"
	"flowboard/internal/graph"
)

type mapKV map[string]string

func (m mapKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapKV) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapKV) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

type env struct {
	kv    mapKV
	store *graph.Store
	codec *codec.Codec
}

func newEnv() *env {
	kv := mapKV{}
	store := graph.NewStore(canvas.NewViewport(800, 600))
	c := codec.New(store, codec.NewRevisions(kv, "flowboard"), "Flowboard",
		codec.WithClock(func() time.Time { return fixedNow }))
	return &env{kv: kv, store: store, codec: c}
}

func (e *env) add(t *testing.T, kind domain.BlockKind, title string) int {
	t.Helper()
	b, err := e.store.CreateBlock(graph.NewBlock{Kind: kind, Title: &title})
	require.NoError(t, err)
	return b.ID
}

func TestExport_ScenarioThenDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	a := e.add(t, domain.KindIntro, "A")
	b := e.add(t, domain.KindBody, "B")
	_, err := e.store.CreateConnection(a, b)
	require.NoError(t, err)

	doc, err := e.codec.Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, codec.Meta{
		ProjectName: "Flowboard_v1",
		CreatedAt:   "2026-03-14T09:26:53.589Z",
		Version:     "1.0",
	}, doc.Meta)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, 1, doc.Blocks[0].ID)
	assert.Equal(t, "intro", doc.Blocks[0].Type)
	assert.Equal(t, "#3498db", doc.Blocks[0].Data.Color)
	assert.Equal(t, 2, doc.Blocks[1].ID)
	assert.Equal(t, []codec.ConnectionRecord{{From: 1, To: 2}}, doc.Connections)
	assert.Equal(t, "1", e.kv["flowboard.revision"])

	e.store.DeleteBlock(a)
	assert.Equal(t, geometry.NoConnections, geometry.NeighborSummary(e.store, b))
	assert.False(t, geometry.Connected(e.store, b))
}

func TestExport_RevisionIncrementsByOne(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	for want := 1; want <= 3; want++ {
		doc, err := e.codec.Export(ctx)
		require.NoError(t, err)
		rev, ok := doc.Revision()
		require.True(t, ok)
		assert.Equal(t, want, rev)
	}
	assert.Equal(t, "flowboard-flow-v3.json", codec.FileName(3))
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newEnv()
	a := src.add(t, domain.KindIntro, "Hook")
	b := src.add(t, domain.KindBody, "Point")
	c := src.add(t, domain.KindConclusion, "Wrap")
	src.store.SetColor(b, domain.Color{R: 0x12, G: 0x34, B: 0x56})
	src.store.SetBody(c, "Thanks\nfor reading")
	src.store.MoveBlock(a, domain.Point{X: -40.5, Y: 12.25})
	_, _ = src.store.CreateConnection(a, b)
	_, _ = src.store.CreateConnection(b, c)
	_, _ = src.store.CreateConnection(c, a)

	doc, err := src.codec.Export(ctx)
	require.NoError(t, err)
	raw, err := codec.Encode(doc)
	require.NoError(t, err)

	dst := newEnv()
	dst.add(t, domain.KindBody, "stale")
	_, err = dst.codec.Import(ctx, raw)
	require.NoError(t, err)

	assert.Equal(t, src.store.Blocks(), dst.store.Blocks())
	assert.ElementsMatch(t, src.store.Connections(), dst.store.Connections())
	rev, err := dst.codec.Revisions().Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rev)

	again, err := dst.codec.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.0", again.Meta.Version)
}

func TestImport_NextIDIsMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	raw := []byte(`{"meta":{"version":"4.0"},"blocks":[
		{"id":5,"type":"intro","position":{"x":0,"y":0},"data":{"title":"a","body":"","color":"#fff"}},
		{"id":9,"type":"body","position":{"x":1,"y":1},"data":{"title":"b","body":"","color":"#000000"}},
		{"id":2,"type":"conclusion","position":{"x":2,"y":2},"data":{"title":"c","body":"","color":"rgb(155, 89, 182)"}}
	],"connections":[]}`)

	_, err := e.codec.Import(ctx, raw)
	require.NoError(t, err)

	assert.Equal(t, 10, e.store.NextID())
	ids := []int{}
	for _, b := range e.store.Blocks() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []int{5, 9, 2}, ids)
	c, _ := e.store.Block(2)
	assert.Equal(t, domain.KindConclusion.DefaultColor(), c.Color)
	assert.Equal(t, "4", e.kv["flowboard.revision"])

	b, err := e.store.CreateBlock(graph.NewBlock{Kind: domain.KindBody})
	require.NoError(t, err)
	assert.Equal(t, 10, b.ID)
}

func TestImport_HighestIDKeepsIDsUnique(t *testing.T) {
	e := newEnv()
	raw := []byte(`{"blocks":[
		{"id":1,"type":"intro","data":{"title":"a"}},
		{"id":` + strconv.Itoa(graph.MaxBlockID) + `,"type":"body","data":{"title":"b"}}
	],"connections":[]}`)

	_, err := e.codec.Import(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, e.store.NextID())

	_, err = e.store.CreateBlock(graph.NewBlock{Kind: domain.KindBody})
	require.ErrorIs(t, err, graph.ErrIDOutOfRange)
	assert.Equal(t, 2, e.store.Len())
	a, _ := e.store.Block(1)
	assert.Equal(t, "a", a.Title)
}

func TestImport_EmptyDocumentResetsIDs(t *testing.T) {
	e := newEnv()
	e.add(t, domain.KindIntro, "x")

	_, err := e.codec.Import(context.Background(), []byte(`{"blocks":[],"connections":[]}`))
	require.NoError(t, err)

	assert.Zero(t, e.store.Len())
	assert.Equal(t, 1, e.store.NextID())
	_, stored := e.kv["flowboard.revision"]
	assert.False(t, stored)
}

func TestImport_LegacyTagsAndDuplicateConnections(t *testing.T) {
	e := newEnv()
	raw := []byte(`{"meta":{"projectName":"K1LLLY_Flow_v7","version":"7.0"},"blocks":[
		{"id":1,"type":"giris","position":{"x":0,"y":0},"data":{"title":"a","body":"","color":"rgb(52, 152, 219)"}},
		{"id":2,"type":"gelisme","position":{"x":0,"y":0},"data":{"title":"b","body":"","color":"#f1c40f"}},
		{"id":3,"type":"sonuc","position":{"x":0,"y":0},"data":{"title":"c","body":"","color":"#9b59b6"}}
	],"connections":[{"from":1,"to":2},{"from":1,"to":2},{"from":3,"to":3}]}`)

	_, err := e.codec.Import(context.Background(), raw)
	require.NoError(t, err)

	kinds := []domain.BlockKind{}
	for _, b := range e.store.Blocks() {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []domain.BlockKind{domain.KindIntro, domain.KindBody, domain.KindConclusion}, kinds)
	assert.Equal(t, []domain.Connection{{From: 1, To: 2}}, e.store.Connections())
}

func TestImport_FailuresLeaveGraphUntouched(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{"blocks": [`, codec.ErrMalformed},
		{"missing blocks", `{"connections": []}`, codec.ErrMalformed},
		{"null connections", `{"blocks": [], "connections": null}`, codec.ErrMalformed},
		{"unknown kind", `{"blocks":[{"id":1,"type":"aside","data":{}}],"connections":[]}`, codec.ErrMalformed},
		{"bad color", `{"blocks":[{"id":1,"type":"intro","data":{"color":"teal"}}],"connections":[]}`, codec.ErrMalformed},
		{"duplicate id", `{"blocks":[{"id":1,"type":"intro","data":{}},{"id":1,"type":"body","data":{}}],"connections":[]}`, codec.ErrMalformed},
		{"zero id", `{"blocks":[{"id":0,"type":"intro","data":{}}],"connections":[]}`, codec.ErrMalformed},
		{"id at int limit", `{"blocks":[{"id":` + strconv.Itoa(math.MaxInt) + `,"type":"intro","data":{}}],"connections":[]}`, codec.ErrMalformed},
		{"trailing garbage", `{"blocks":[],"connections":[]} this is not json`, codec.ErrMalformed},
		{"two documents", `{"blocks":[],"connections":[]}{"blocks":[],"connections":[]}`, codec.ErrMalformed},
		{"dangling", `{"meta":{"version":"9.0"},"blocks":[{"id":1,"type":"intro","data":{}}],"connections":[{"from":1,"to":4}]}`, codec.ErrDanglingConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			a := e.add(t, domain.KindIntro, "keep")
			b := e.add(t, domain.KindBody, "me")
			_, _ = e.store.CreateConnection(a, b)
			e.kv["flowboard.revision"] = "3"
			before := e.store.Blocks()

			_, err := e.codec.Import(context.Background(), []byte(tt.raw))

			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, e.store.Blocks())
			assert.Len(t, e.store.Connections(), 1)
			assert.Equal(t, "3", e.kv["flowboard.revision"])
		})
	}
}

func TestSnapshot_DoesNotBumpRevision(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	e.kv["flowboard.revision"] = "5"

	doc, err := e.codec.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, "5.0", doc.Meta.Version)
	assert.Equal(t, "5", e.kv["flowboard.revision"])
}

func TestRevisions(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	r := codec.NewRevisions(kv, "acme")
	assert.Equal(t, "acme.revision", r.Key())

	n, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, r.Set(ctx, 41))
	n, err = r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	require.NoError(t, r.Reset(ctx))
	n, _ = r.Current(ctx)
	assert.Zero(t, n)

	kv["acme.revision"] = "garbage"
	_, err = r.Current(ctx)
	assert.Error(t, err)
}

func TestParseRevision(t *testing.T) {
	for in, want := range map[string]int{"3.0": 3, "12": 12, " 7.2 ": 7} {
		got, ok := codec.ParseRevision(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "v3", "-1.0", "x.0"} {
		_, ok := codec.ParseRevision(in)
		assert.False(t, ok, in)
	}
}

func TestEncode_Indented(t *testing.T) {
	raw, err := codec.Encode(codec.Document{})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"blocks\": []")
	assert.Contains(t, string(raw), "\n  \"connections\": []")
}

func TestRestore_KeepsRevision(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	e.add(t, domain.KindIntro, "old")
	snap, err := e.codec.Snapshot(ctx)
	require.NoError(t, err)

	e.kv["flowboard.revision"] = "8"
	e.store.Clear()
	require.NoError(t, e.codec.Restore(snap))

	assert.Equal(t, 1, e.store.Len())
	assert.Equal(t, "8", e.kv["flowboard.revision"])
}
