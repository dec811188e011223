package pick

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/xform"
)

// DefaultGizmoRadius is the handle radius in board units.
const DefaultGizmoRadius = 2.5

// Gizmo is the translation handle shown on the selection. It follows a
// target node; Pivot is the handle center in the target's local space.
// Translation is restricted to the layer plane.
type Gizmo struct {
	Radius float64

	target *layer.Node
	pivot  r3.Vec
}

// Attach places the gizmo on node at the given local pivot.
func (g *Gizmo) Attach(node *layer.Node, pivot r3.Vec) {
	g.target = node
	g.pivot = pivot
}

// Detach removes the gizmo from its target.
func (g *Gizmo) Detach() { g.target = nil }

// Attached reports whether the gizmo has a target.
func (g *Gizmo) Attached() bool { return g.target != nil }

// Target returns the node the gizmo follows, or nil.
func (g *Gizmo) Target() *layer.Node { return g.target }

// Center returns the handle center in board space.
func (g *Gizmo) Center() r3.Vec {
	return g.target.World().TransformPoint(g.pivot)
}

// Matrix places a unit disc template as the handle: centered on Center,
// lying in the layer plane, scaled to Radius.
func (g *Gizmo) Matrix() xform.Mat4 {
	t := xform.NewTRS()
	t.Translation = g.Center()
	t.Rotation = xform.AxisAngle(r3.Vec{X: 1}, -math.Pi/2)
	t.Scale = r3.Vec{X: g.Radius, Y: g.Radius, Z: 1}
	return t.Matrix()
}

// Hit intersects ray with the handle sphere and returns the entry
// parameter. A ray starting inside the sphere hits at its exit.
func (g *Gizmo) Hit(ray xform.Ray) (float64, bool) {
	if g.target == nil || g.Radius <= 0 {
		return 0, false
	}
	oc := r3.Sub(ray.Origin, g.Center())
	a := r3.Dot(ray.Dir, ray.Dir)
	b := r3.Dot(oc, ray.Dir)
	c := r3.Dot(oc, oc) - g.Radius*g.Radius
	disc := b*b - a*c
	if a == 0 || disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := (-b - sq) / a; t >= 0 {
		return t, true
	}
	if t := (-b + sq) / a; t >= 0 {
		return t, true
	}
	return 0, false
}
