package shading

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// RGBA is a linear color with components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque color.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// ParseHex parses "#RRGGBB" or "#RRGGBBAA" (the leading # is optional).
func ParseHex(s string) (RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return RGBA{}, fmt.Errorf("shading: color %q: want 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("shading: color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return RGBA{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// Hex formats c as "#RRGGBBAA".
func (c RGBA) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// Lerp linearly interpolates toward other by t. Alpha is interpolated too.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// Scale multiplies the color channels by f, leaving alpha.
func (c RGBA) Scale(f float64) RGBA {
	return RGBA{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A}
}

// AddRGB adds v to each color channel.
func (c RGBA) AddRGB(v float64) RGBA {
	return RGBA{R: c.R + v, G: c.G + v, B: c.B + v, A: c.A}
}

// NRGBA converts to an 8-bit color, clamping out-of-range channels.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

// Vec4 returns the components as float32 for uniform upload.
func (c RGBA) Vec4() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

func clamp01(x float64) float64 {
	switch {
	case x < 0 || x != x:
		return 0
	case x > 1:
		return 1
	}
	return x
}
