package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// discSegments is the rim resolution of round templates.
const discSegments = 32

// UnitRect returns a 1x1 quad centered on the origin in the XY plane,
// facing +Z. UV spans [0, 1] across the quad.
func UnitRect() *Mesh {
	n := r3.Vec{Z: 1}
	return &Mesh{
		Vertices: []Vertex{
			{Pos: r3.Vec{X: -0.5, Y: -0.5}, Normal: n, U: 0, V: 0},
			{Pos: r3.Vec{X: 0.5, Y: -0.5}, Normal: n, U: 1, V: 0},
			{Pos: r3.Vec{X: 0.5, Y: 0.5}, Normal: n, U: 1, V: 1},
			{Pos: r3.Vec{X: -0.5, Y: 0.5}, Normal: n, U: 0, V: 1},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// UnitDisc returns a radius-1 disc centered on the origin in the XY plane,
// facing +Z. UV maps the disc into [0, 1] so that (0.5, 0.5) is the center.
func UnitDisc() *Mesh {
	n := r3.Vec{Z: 1}
	m := &Mesh{Vertices: []Vertex{{Normal: n, U: 0.5, V: 0.5}}}
	for i := 0; i < discSegments; i++ {
		s, c := math.Sincos(2 * math.Pi * float64(i) / discSegments)
		m.Vertices = append(m.Vertices, Vertex{
			Pos:    r3.Vec{X: c, Y: s},
			Normal: n,
			U:      0.5 + c/2,
			V:      0.5 + s/2,
		})
	}
	for i := 0; i < discSegments; i++ {
		next := (i+1)%discSegments + 1
		m.Indices = append(m.Indices, 0, uint32(i+1), uint32(next))
	}
	return m
}

// UnitCylinder returns a capped radius-1 cylinder of height 1 centered on
// the origin with its axis along Y.
func UnitCylinder() *Mesh {
	m := &Mesh{}
	// Side wall: one bottom/top vertex pair per rim step, rim duplicated at
	// the seam so V wraps cleanly.
	for i := 0; i <= discSegments; i++ {
		a := 2 * math.Pi * float64(i) / discSegments
		s, c := math.Sincos(a)
		n := r3.Vec{X: c, Z: s}
		u := float64(i) / discSegments
		m.Vertices = append(m.Vertices,
			Vertex{Pos: r3.Vec{X: c, Y: -0.5, Z: s}, Normal: n, U: u, V: 0},
			Vertex{Pos: r3.Vec{X: c, Y: 0.5, Z: s}, Normal: n, U: u, V: 1},
		)
	}
	for i := 0; i < discSegments; i++ {
		b0, t0 := uint32(2*i), uint32(2*i+1)
		b1, t1 := b0+2, t0+2
		m.Indices = append(m.Indices, b0, t0, b1, b1, t0, t1)
	}
	addCap := func(y float64, up bool) {
		n := r3.Vec{Y: -1}
		if up {
			n = r3.Vec{Y: 1}
		}
		center := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, Vertex{Pos: r3.Vec{Y: y}, Normal: n, U: 0.5, V: 0.5})
		for i := 0; i < discSegments; i++ {
			s, c := math.Sincos(2 * math.Pi * float64(i) / discSegments)
			m.Vertices = append(m.Vertices, Vertex{Pos: r3.Vec{X: c, Y: y, Z: s}, Normal: n, U: 0.5 + c/2, V: 0.5 + s/2})
		}
		for i := 0; i < discSegments; i++ {
			cur := center + 1 + uint32(i)
			next := center + 1 + uint32((i+1)%discSegments)
			if up {
				m.Indices = append(m.Indices, center, next, cur)
			} else {
				m.Indices = append(m.Indices, center, cur, next)
			}
		}
	}
	addCap(0.5, true)
	addCap(-0.5, false)
	return m
}

// Box returns an axis-aligned box centered on the origin with the given
// extents along X, Y and Z, faces pointing outward.
func Box(sx, sy, sz float64) *Mesh {
	hx, hy, hz := sx/2, sy/2, sz/2
	faces := []struct {
		n    r3.Vec
		u, v r3.Vec
	}{
		{r3.Vec{X: 1}, r3.Vec{Z: -1}, r3.Vec{Y: 1}},
		{r3.Vec{X: -1}, r3.Vec{Z: 1}, r3.Vec{Y: 1}},
		{r3.Vec{Y: 1}, r3.Vec{X: 1}, r3.Vec{Z: -1}},
		{r3.Vec{Y: -1}, r3.Vec{X: 1}, r3.Vec{Z: 1}},
		{r3.Vec{Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{r3.Vec{Z: -1}, r3.Vec{X: -1}, r3.Vec{Y: 1}},
	}
	half := r3.Vec{X: hx, Y: hy, Z: hz}
	scale := func(v r3.Vec) r3.Vec { return r3.Vec{X: v.X * half.X, Y: v.Y * half.Y, Z: v.Z * half.Z} }
	m := &Mesh{}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := r3.Add(f.n, r3.Add(r3.Scale(c[0], f.u), r3.Scale(c[1], f.v)))
			m.Vertices = append(m.Vertices, Vertex{
				Pos:    scale(p),
				Normal: f.n,
				U:      (c[0] + 1) / 2,
				V:      (c[1] + 1) / 2,
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}
