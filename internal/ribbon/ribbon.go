// Package ribbon triangulates trace centerlines into variable-width strips.
//
// A ribbon is a single indexed triangle strip: two vertices per centerline
// point (one on each side, U = 0 and U = 1) joined by two triangles per
// segment. Interior points are mitered so consecutive segments share their
// edge vertices and the strip has no gaps or overlaps at corners.
//
// Ribbons are built in the layer plane (local y = 0). Input points are
// (x, z) pairs carried in r2.Vec as {X: x, Y: z}.
package ribbon

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/geom"
)

// DedupeEpsilon2 is the squared distance below which consecutive points
// are merged.
const DedupeEpsilon2 = 1e-6

// MinMiterDot floors |dot(miter, segment normal)| so that the miter length
// at near-reversal corners is bounded by ten half-widths.
const MinMiterDot = 0.1

// Points converts trace points to plane vectors. Entries with fewer than
// two coordinates are dropped.
func Points(c *board.Component) []r2.Vec {
	out := make([]r2.Vec, 0, len(c.Points))
	for _, p := range c.Points {
		if len(p) < 2 {
			continue
		}
		out = append(out, r2.Vec{X: p[0], Y: p[1]})
	}
	return out
}

// Dedupe returns pts with consecutive near-coincident points collapsed.
// The input slice is not modified.
func Dedupe(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && r2.Norm2(r2.Sub(p, out[n-1])) < DedupeEpsilon2 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// perp rotates v a quarter turn: (x, z) -> (-z, x).
func perp(v r2.Vec) r2.Vec { return r2.Vec{X: -v.Y, Y: v.X} }

// Offsets returns the side offset vector (already scaled) for every point
// of a deduplicated polyline. Adding it gives the U = 0 side, subtracting
// it the U = 1 side.
func Offsets(pts []r2.Vec, halfWidth float64) []r2.Vec {
	n := len(pts)
	out := make([]r2.Vec, n)
	if n < 2 {
		return out
	}
	for i := range pts {
		switch i {
		case 0:
			out[i] = r2.Scale(halfWidth, perp(r2.Unit(r2.Sub(pts[1], pts[0]))))
		case n - 1:
			out[i] = r2.Scale(halfWidth, perp(r2.Unit(r2.Sub(pts[n-1], pts[n-2]))))
		default:
			out[i] = miter(pts[i-1], pts[i], pts[i+1], halfWidth)
		}
	}
	return out
}

// miter returns the joint offset at b between segments a->b and b->c.
func miter(a, b, c r2.Vec, halfWidth float64) r2.Vec {
	d0 := r2.Unit(r2.Sub(b, a))
	d1 := r2.Unit(r2.Sub(c, b))
	tangent := r2.Add(d0, d1)
	if r2.Norm2(tangent) < 1e-12 {
		// Full reversal: the bisector is undefined, fall back to the
		// incoming segment.
		tangent = d0
	}
	tangent = r2.Unit(tangent)
	dir := perp(tangent)
	dot := math.Abs(r2.Dot(dir, perp(d0)))
	if dot < MinMiterDot {
		dot = MinMiterDot
	}
	return r2.Scale(halfWidth/dot, dir)
}

// Tessellate builds the ribbon mesh for a trace. Fewer than two distinct
// points, or a non-positive width, yield an empty mesh.
//
// Vertex 2i is the U = 0 side of point i, vertex 2i+1 the U = 1 side; V is
// the cumulative arc length along the centerline. Every triangle faces +Y.
func Tessellate(pts []r2.Vec, width float64) *geom.Mesh {
	pts = Dedupe(pts)
	m := &geom.Mesh{}
	if len(pts) < 2 || !(width > 0) {
		return m
	}
	offs := Offsets(pts, width/2)
	up := r3.Vec{Y: 1}

	m.Vertices = make([]geom.Vertex, 0, 2*len(pts))
	var arc float64
	for i, p := range pts {
		if i > 0 {
			arc += r2.Norm(r2.Sub(p, pts[i-1]))
		}
		l := r2.Add(p, offs[i])
		r := r2.Sub(p, offs[i])
		m.Vertices = append(m.Vertices,
			geom.Vertex{Pos: r3.Vec{X: l.X, Z: l.Y}, Normal: up, U: 0, V: arc},
			geom.Vertex{Pos: r3.Vec{X: r.X, Z: r.Y}, Normal: up, U: 1, V: arc},
		)
	}

	m.Indices = make([]uint32, 0, 6*(len(pts)-1))
	for i := 0; i+1 < len(pts); i++ {
		a := uint32(2 * i)
		m.Indices = append(m.Indices,
			a, a+2, a+1,
			a+1, a+2, a+3,
		)
	}
	return m
}

// Centroid returns the mean of the deduplicated points. It anchors the
// ribbon's manipulation handle.
func Centroid(pts []r2.Vec) r2.Vec {
	pts = Dedupe(pts)
	if len(pts) == 0 {
		return r2.Vec{}
	}
	var s r2.Vec
	for _, p := range pts {
		s = r2.Add(s, p)
	}
	return r2.Scale(1/float64(len(pts)), s)
}
