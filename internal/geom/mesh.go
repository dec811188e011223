// Package geom holds indexed triangle meshes: the shared unit templates
// drawn by instanced batches, the substrate box, ray intersection and STL
// output.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/xform"
)

// Vertex is one mesh vertex.
type Vertex struct {
	Pos    r3.Vec
	Normal r3.Vec
	U, V   float64
}

// Mesh is an indexed triangle list with counter-clockwise front faces.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Empty reports whether the mesh has nothing to draw.
func (m *Mesh) Empty() bool { return m == nil || len(m.Indices) == 0 }

// Triangle returns the three corner positions of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c r3.Vec) {
	return m.Vertices[m.Indices[3*i]].Pos,
		m.Vertices[m.Indices[3*i+1]].Pos,
		m.Vertices[m.Indices[3*i+2]].Pos
}

// FaceNormal returns the unnormalized geometric normal of triangle i.
func (m *Mesh) FaceNormal(i int) r3.Vec {
	a, b, c := m.Triangle(i)
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Vertices[0].Pos, Max: m.Vertices[0].Pos}
	for _, v := range m.Vertices[1:] {
		b.Min = r3.Vec{X: math.Min(b.Min.X, v.Pos.X), Y: math.Min(b.Min.Y, v.Pos.Y), Z: math.Min(b.Min.Z, v.Pos.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, v.Pos.X), Y: math.Max(b.Max.Y, v.Pos.Y), Z: math.Max(b.Max.Z, v.Pos.Z)}
	}
	return b
}

// Transformed returns a copy of the mesh with positions mapped through m
// and normals through its inverse transpose.
func (m *Mesh) Transformed(tm xform.Mat4) *Mesh {
	out := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	nm := tm
	if inv, ok := tm.Inverse(); ok {
		// Transpose of the inverse, linear part only.
		nm = xform.Mat4{
			inv[0], inv[4], inv[8], 0,
			inv[1], inv[5], inv[9], 0,
			inv[2], inv[6], inv[10], 0,
			0, 0, 0, 1,
		}
	}
	for i, v := range m.Vertices {
		n := nm.TransformDir(v.Normal)
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		out.Vertices[i] = Vertex{Pos: tm.TransformPoint(v.Pos), Normal: n, U: v.U, V: v.V}
	}
	// A mirroring transform flips winding.
	if det3(tm) < 0 {
		for i := 0; i+2 < len(out.Indices); i += 3 {
			out.Indices[i+1], out.Indices[i+2] = out.Indices[i+2], out.Indices[i+1]
		}
	}
	return out
}

func det3(m xform.Mat4) float64 {
	cx := r3.Vec{X: m[0], Y: m[1], Z: m[2]}
	cy := r3.Vec{X: m[4], Y: m[5], Z: m[6]}
	cz := r3.Vec{X: m[8], Y: m[9], Z: m[10]}
	return r3.Dot(r3.Cross(cx, cy), cz)
}
