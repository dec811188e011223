// Package board defines the parametric circuit-board document consumed and
// produced by the engine: a substrate configuration plus a flat list of
// tagged components (pads, holes and traces).
//
// The document is plain data. The engine derives every renderable surface
// from it on each rebuild and writes drag results back into the position
// fields of the affected component.
package board

import (
	"errors"
	"fmt"
	"math"
)

// Kind tags a component record.
type Kind string

// Component kinds understood by the engine.
const (
	KindRect  Kind = "smd_rect"
	KindRound Kind = "smd_round"
	KindHole  Kind = "hole"
	KindTrace Kind = "trace"
)

// Known reports whether the engine knows how to render k.
func (k Kind) Known() bool {
	switch k {
	case KindRect, KindRound, KindHole, KindTrace:
		return true
	}
	return false
}

// Instanced reports whether components of kind k are drawn through a shared
// batch rather than a standalone mesh.
func (k Kind) Instanced() bool {
	return k == KindRect || k == KindRound || k == KindHole
}

// Positional reports whether k carries a pos field.
func (k Kind) Positional() bool { return k.Instanced() }

// Layer is the conductive plane a component lives on.
type Layer string

// Layers.
const (
	LayerTop    Layer = "top"
	LayerBottom Layer = "bottom"
)

// Normalize returns l with the empty value mapped to LayerTop.
func (l Layer) Normalize() Layer {
	if l == "" {
		return LayerTop
	}
	return l
}

// Valid reports whether l names a known layer (the empty string counts as top).
func (l Layer) Valid() bool {
	switch l.Normalize() {
	case LayerTop, LayerBottom:
		return true
	}
	return false
}

// BoardConfig describes the substrate. It does not change within a rebuild.
type BoardConfig struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Thickness float64 `json:"thickness"`
}

// Validate checks that all dimensions are positive and finite.
func (c BoardConfig) Validate() error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", c.Width}, {"height", c.Height}, {"thickness", c.Thickness}} {
		if !finite(d.v) || d.v <= 0 {
			return fmt.Errorf("board %s %v: %w", d.name, d.v, ErrDegenerate)
		}
	}
	return nil
}

// Sentinel errors returned by Validate. Callers test them with errors.Is.
var (
	ErrMissingID    = errors.New("board: component has no id")
	ErrUnknownKind  = errors.New("board: unknown component type")
	ErrInvalidLayer = errors.New("board: invalid layer")
	ErrMissingField = errors.New("board: missing required field")
	ErrDegenerate   = errors.New("board: degenerate geometry")
)

// degenerateEpsilon is the smallest extent treated as visible geometry.
const degenerateEpsilon = 1e-6

// Component is one record of the document. Which fields are meaningful
// depends on Type:
//
//	smd_rect  pos [x,y,z], size [w,h]
//	smd_round pos [x,y,z], size [r] or [rx,ry]
//	hole      pos [x,y,z], radius (or size [r])
//	trace     points [[x,z]...], width
//
// Rotation is decoded and saved but not applied to geometry. Fields the
// engine does not know are kept in Extra and written back by Save.
type Component struct {
	ID       string      `json:"id"`
	Type     Kind        `json:"type"`
	Layer    Layer       `json:"layer,omitempty"`
	Pos      []float64   `json:"pos,omitempty"`
	Size     []float64   `json:"size,omitempty"`
	Radius   float64     `json:"radius,omitempty"`
	Points   [][]float64 `json:"points,omitempty"`
	Width    float64     `json:"width,omitempty"`
	Rotation float64     `json:"rotation,omitempty"`

	Extra map[string]any `json:"-"`
}

// Validate reports why c cannot be rendered, or nil if it can.
// The returned error wraps one of the package sentinels.
func (c *Component) Validate() error {
	if c.ID == "" {
		return ErrMissingID
	}
	if !c.Type.Known() {
		return fmt.Errorf("component %q type %q: %w", c.ID, c.Type, ErrUnknownKind)
	}
	if !c.Layer.Valid() {
		return fmt.Errorf("component %q layer %q: %w", c.ID, c.Layer, ErrInvalidLayer)
	}
	if c.Type.Positional() {
		if len(c.Pos) < 3 {
			return fmt.Errorf("component %q pos: %w", c.ID, ErrMissingField)
		}
		if !finite(c.Pos[0]) || !finite(c.Pos[1]) || !finite(c.Pos[2]) {
			return fmt.Errorf("component %q pos not finite: %w", c.ID, ErrMissingField)
		}
	}
	switch c.Type {
	case KindRect:
		if len(c.Size) < 2 {
			return fmt.Errorf("component %q size: %w", c.ID, ErrMissingField)
		}
		if !visible(c.Size[0]) || !visible(c.Size[1]) {
			return fmt.Errorf("component %q size %v: %w", c.ID, c.Size, ErrDegenerate)
		}
	case KindRound:
		if len(c.Size) < 1 {
			return fmt.Errorf("component %q size: %w", c.ID, ErrMissingField)
		}
		rx, ry := c.RoundRadii()
		if !visible(rx) || !visible(ry) {
			return fmt.Errorf("component %q radius %v: %w", c.ID, c.Size, ErrDegenerate)
		}
	case KindHole:
		r, ok := c.HoleRadius()
		if !ok {
			return fmt.Errorf("component %q radius: %w", c.ID, ErrMissingField)
		}
		if !visible(r) {
			return fmt.Errorf("component %q radius %v: %w", c.ID, r, ErrDegenerate)
		}
	case KindTrace:
		if len(c.Points) < 2 {
			return fmt.Errorf("component %q points: %w", c.ID, ErrMissingField)
		}
		for i, p := range c.Points {
			if len(p) < 2 || !finite(p[0]) || !finite(p[1]) {
				return fmt.Errorf("component %q point %d: %w", c.ID, i, ErrMissingField)
			}
		}
		if !visible(c.Width) {
			return fmt.Errorf("component %q width %v: %w", c.ID, c.Width, ErrDegenerate)
		}
	}
	return nil
}

// Position returns the x, y, z position of a positional component.
// ok is false when pos is absent or short.
func (c *Component) Position() (x, y, z float64, ok bool) {
	if len(c.Pos) < 3 {
		return 0, 0, 0, false
	}
	return c.Pos[0], c.Pos[1], c.Pos[2], true
}

// SetPlanePosition writes the layer-plane coordinates x and z, keeping y.
func (c *Component) SetPlanePosition(x, z float64) {
	if len(c.Pos) < 3 {
		c.Pos = []float64{x, 0, z}
		return
	}
	c.Pos[0], c.Pos[2] = x, z
}

// RoundRadii returns the two radii of a round pad. A single size entry is
// used for both axes.
func (c *Component) RoundRadii() (rx, ry float64) {
	switch len(c.Size) {
	case 0:
		return 0, 0
	case 1:
		return c.Size[0], c.Size[0]
	default:
		return c.Size[0], c.Size[1]
	}
}

// HoleRadius returns the drill radius, falling back to size[0] when the
// radius field is unset.
func (c *Component) HoleRadius() (float64, bool) {
	if c.Radius != 0 {
		return c.Radius, true
	}
	if len(c.Size) > 0 {
		return c.Size[0], true
	}
	return 0, false
}

// TranslateTrace shifts every point of a trace by (dx, dz).
func (c *Component) TranslateTrace(dx, dz float64) {
	for _, p := range c.Points {
		if len(p) < 2 {
			continue
		}
		p[0] += dx
		p[1] += dz
	}
}

// Clone returns a deep copy of c.
func (c Component) Clone() Component {
	out := c
	if c.Pos != nil {
		out.Pos = append([]float64(nil), c.Pos...)
	}
	if c.Size != nil {
		out.Size = append([]float64(nil), c.Size...)
	}
	if c.Points != nil {
		out.Points = make([][]float64, len(c.Points))
		for i, p := range c.Points {
			out.Points[i] = append([]float64(nil), p...)
		}
	}
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Document is the full board description.
type Document struct {
	Board      BoardConfig `json:"board"`
	Components []Component `json:"components"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{Board: d.Board}
	if d.Components != nil {
		out.Components = make([]Component, len(d.Components))
		for i := range d.Components {
			out.Components[i] = d.Components[i].Clone()
		}
	}
	return out
}

// Find returns the index of the component with the given id, or -1.
func (d *Document) Find(id string) int {
	for i := range d.Components {
		if d.Components[i].ID == id {
			return i
		}
	}
	return -1
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func visible(v float64) bool { return finite(v) && math.Abs(v) > degenerateEpsilon }
