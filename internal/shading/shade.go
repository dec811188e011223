// Package shading defines the single highlight-aware shading routine used
// by every board surface, both as a CPU function (for snapshots and tests)
// and as the WGSL program drawn by the GPU renderer.
//
// Surfaces differ only by a ShapeTag, which selects the geometry of the
// flat edge band: an inset border for rectangles, an annulus for discs,
// side bands for ribbons and none for plain surfaces.
package shading

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ShapeTag selects the edge-band geometry. The values are shared with the
// WGSL program.
type ShapeTag uint32

// Shape tags.
const (
	TagRect ShapeTag = iota
	TagRound
	TagRibbon
	TagPlain
)

func (t ShapeTag) String() string {
	switch t {
	case TagRect:
		return "rect"
	case TagRound:
		return "round"
	case TagRibbon:
		return "ribbon"
	case TagPlain:
		return "plain"
	}
	return "unknown"
}

// NoSlot marks an unset batch signal.
const NoSlot = -1

// Signals are the two highlight inputs of a surface fragment.
type Signals struct {
	Hovered  bool
	Selected bool
}

// SlotSignals resolves batch-level slot signals for one instance.
func SlotSignals(slot, hovered, selected int) Signals {
	return Signals{Hovered: slot == hovered, Selected: slot == selected}
}

// Material parameterizes the routine for one surface.
type Material struct {
	Base   RGBA
	Hover  RGBA
	Select RGBA
	Edge   RGBA

	HoverMix  float64 // blend weight toward Hover when hovered
	SelectMix float64 // blend weight toward Select when selected
	Band      float64 // edge band width in UV units; 0 disables the band
}

// Stock materials.
var (
	Copper = Material{
		Base:      RGB(0.78, 0.52, 0.25),
		Hover:     RGB(1.00, 0.85, 0.40),
		Select:    RGB(0.30, 0.75, 1.00),
		Edge:      RGB(0.95, 0.78, 0.45),
		HoverMix:  0.35,
		SelectMix: 0.55,
		Band:      0.12,
	}
	TraceCopper = Material{
		Base:      RGB(0.72, 0.45, 0.20),
		Hover:     RGB(1.00, 0.85, 0.40),
		Select:    RGB(0.30, 0.75, 1.00),
		Edge:      RGB(0.90, 0.70, 0.40),
		HoverMix:  0.35,
		SelectMix: 0.55,
		Band:      0.15,
	}
	Drill = Material{
		Base:      RGB(0.75, 0.75, 0.72),
		Hover:     RGB(1.00, 0.85, 0.40),
		Select:    RGB(0.30, 0.75, 1.00),
		Edge:      RGB(0.15, 0.15, 0.15),
		HoverMix:  0.35,
		SelectMix: 0.55,
	}
	Substrate = Material{
		Base: RGB(0.10, 0.35, 0.18),
		Edge: RGB(0.10, 0.35, 0.18),
	}
	Gizmo = Material{
		Base: RGB(0.95, 0.95, 0.95),
		Edge: RGB(0.30, 0.75, 1.00),
		Band: 0.06,
	}
)

// Light is the single fixed directional light.
type Light struct {
	Dir       r3.Vec // toward the light
	Ambient   float64
	Specular  float64
	Shininess float64
	Brush     float64 // amplitude of the brushed-metal variation
}

// DefaultLight is a key light above and slightly in front of the board.
var DefaultLight = Light{
	Dir:       r3.Unit(r3.Vec{X: 0.3, Y: 1, Z: 0.5}),
	Ambient:   0.35,
	Specular:  0.35,
	Shininess: 32,
	Brush:     0.08,
}

// Fragment is one shaded sample of a surface.
type Fragment struct {
	World  r3.Vec
	Normal r3.Vec
	U, V   float64
	Tag    ShapeTag
	Eye    r3.Vec
}

// Shade computes the color of a fragment: lit base color, brushed
// variation, hover and selection tints, then the edge band.
func Shade(m Material, f Fragment, s Signals, l Light) RGBA {
	n := r3.Unit(f.Normal)
	ld := r3.Unit(l.Dir)
	// Surfaces are drawn two-sided.
	if r3.Dot(n, r3.Sub(f.Eye, f.World)) < 0 {
		n = r3.Scale(-1, n)
	}
	diffuse := math.Max(r3.Dot(n, ld), 0)
	view := r3.Unit(r3.Sub(f.Eye, f.World))
	half := r3.Unit(r3.Add(ld, view))
	spec := 0.0
	if diffuse > 0 {
		spec = l.Specular * math.Pow(math.Max(r3.Dot(n, half), 0), l.Shininess)
	}

	c := m.Base.Scale(l.Ambient + (1-l.Ambient)*diffuse).AddRGB(spec)
	c = c.Scale(1 + l.Brush*(2*brushed(f.World)-1))

	edge := m.Edge
	if s.Hovered {
		c = c.Lerp(m.Hover, m.HoverMix)
		edge = m.Hover
	}
	if s.Selected {
		c = c.Lerp(m.Select, m.SelectMix)
		edge = m.Select
	}
	if InBand(f.Tag, f.U, f.V, m.Band) {
		c = edge
	}
	c.A = 1
	return c
}

// InBand reports whether (u, v) lies in the edge band of the given shape.
func InBand(tag ShapeTag, u, v, band float64) bool {
	if band <= 0 {
		return false
	}
	switch tag {
	case TagRect:
		return u < band || u > 1-band || v < band || v > 1-band
	case TagRound:
		du, dv := u-0.5, v-0.5
		return 2*math.Sqrt(du*du+dv*dv) > 1-2*band
	case TagRibbon:
		return u < band || u > 1-band
	}
	return false
}

// brushed is a stateless hash of the world position in [0, 1), stretched
// along X so the variation reads as brush strokes.
func brushed(p r3.Vec) float64 {
	x := math.Floor(p.X*4) * 12.9898
	z := math.Floor(p.Z*64) * 78.233
	s := math.Sin(x+z) * 43758.5453
	return s - math.Floor(s)
}
