package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB color. It marshals as "#rrggbb".
type Color struct {
	R, G, B uint8
}

// Hex returns the "#rrggbb" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts "#rgb", "#rrggbb" and the "rgb(r, g, b)" form that a
// browser reports for inline styles.
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(s)
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		parts := strings.Split(v[4:len(v)-1], ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		var rgb [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			rgb[i] = uint8(n)
		}
		return Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
	}

	hex, ok := strings.CutPrefix(v, "#")
	if !ok {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// Contrast returns black or white, whichever reads better on top of c.
func (c Color) Contrast() Color {
	yiq := (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
	if yiq >= 128 {
		return Color{}
	}
	return Color{R: 0xff, G: 0xff, B: 0xff}
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
