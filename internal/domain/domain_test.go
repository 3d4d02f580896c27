package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#3498db", Color{0x34, 0x98, 0xdb}},
		{"#ABC", Color{0xaa, 0xbb, 0xcc}},
		{"  #000000 ", Color{}},
		{"rgb(52, 152, 219)", Color{52, 152, 219}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "3498db", "abc", "#", "#12345", "#zzzzzz", "rgb(1,2)", "rgb(1,2,300)"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestColor_HexAndJSON(t *testing.T) {
	c := Color{R: 0xf1, G: 0xc4, B: 0x0f}
	assert.Equal(t, "#f1c40f", c.Hex())

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `"#f1c40f"`, string(raw))

	var back Color
	require.NoError(t, json.Unmarshal([]byte(`"#9b59b6"`), &back))
	assert.Equal(t, Color{0x9b, 0x59, 0xb6}, back)
	assert.Error(t, json.Unmarshal([]byte(`"purple"`), &back))
}

func TestColor_Contrast(t *testing.T) {
	black := Color{}
	white := Color{0xff, 0xff, 0xff}

	assert.Equal(t, black, Color{0x34, 0x98, 0xdb}.Contrast(), "#3498db sits at YIQ 129")
	assert.Equal(t, black, Color{0xf1, 0xc4, 0x0f}.Contrast())
	assert.Equal(t, white, Color{0x9b, 0x59, 0xb6}.Contrast())
	assert.Equal(t, white, black.Contrast())
	assert.Equal(t, black, white.Contrast())
}

func TestParseBlockKind(t *testing.T) {
	for in, want := range map[string]BlockKind{
		"intro":       KindIntro,
		"BODY":        KindBody,
		" conclusion": KindConclusion,
		"giris":       KindIntro,
		"gelisme":     KindBody,
		"sonuc":       KindConclusion,
	} {
		got, err := ParseBlockKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBlockKind("outro")
	assert.Error(t, err)
	assert.False(t, BlockKind("outro").Valid())
	assert.True(t, KindBody.Valid())
}

func TestBlockAnchors(t *testing.T) {
	b := Block{Position: Point{X: 100, Y: 50}}
	assert.Equal(t, Point{X: 300, Y: 120}, b.OutputAnchor())
	assert.Equal(t, Point{X: 100, Y: 120}, b.InputAnchor())
}

func TestConnection(t *testing.T) {
	c := Connection{From: 1, To: 2}
	assert.True(t, c.Touches(2))
	assert.False(t, c.Touches(3))
	assert.Equal(t, 1, c.Other(2))
	assert.Equal(t, "1->2", c.Key().String())
}
