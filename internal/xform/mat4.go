// Package xform provides the 3D transform math shared by the scene, the
// batch manager and the picking resolver: column-major 4x4 matrices,
// translate/rotate/scale composition and decomposition, cameras and rays.
package xform

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat4 is a 4x4 matrix stored column-major, matching the layout WGSL
// expects for mat4x4<f32>:
//
//	| m[0] m[4] m[8]  m[12] |
//	| m[1] m[5] m[9]  m[13] |
//	| m[2] m[6] m[10] m[14] |
//	| m[3] m[7] m[11] m[15] |
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v r3.Vec) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale creates a scaling matrix.
func Scale(v r3.Vec) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// Rotate creates a rotation matrix from a unit quaternion.
func Rotate(q quat.Number) Mat4 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y), 0,
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x), 0,
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

// AxisAngle returns the unit quaternion rotating by angle radians about axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	return quat.Number(r3.NewRotation(angle, axis))
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 { return m[c*4+r] }

// Mul returns m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[k*4+r] * n[c*4+k]
			}
			out[c*4+r] = s
		}
	}
	return out
}

// TransformPoint applies m to p (w = 1), dividing by the resulting w when
// it is not 1.
func (m Mat4) TransformPoint(p r3.Vec) r3.Vec {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 1 && w != 0 {
		return r3.Vec{X: x / w, Y: y / w, Z: z / w}
	}
	return r3.Vec{X: x, Y: y, Z: z}
}

// TransformPoint4 applies m to (p, 1) and returns the homogeneous result.
func (m Mat4) TransformPoint4(p r3.Vec) (x, y, z, w float64) {
	x = m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y = m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z = m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w = m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	return x, y, z, w
}

// TransformDir applies the linear part of m to d (w = 0).
func (m Mat4) TransformDir(d r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		Y: m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		Z: m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() r3.Vec {
	return r3.Vec{X: m[12], Y: m[13], Z: m[14]}
}

// Inverse returns the inverse of m. ok is false when m is singular.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	// mat.NewDense is row-major; feeding it the column-major array yields
	// the transpose, and inverse(transpose) = transpose(inverse), so the
	// raw output is already column-major.
	src := mat.NewDense(4, 4, append([]float64(nil), m[:]...))
	var dst mat.Dense
	if err := dst.Inverse(src); err != nil {
		return Mat4{}, false
	}
	copy(inv[:], dst.RawMatrix().Data)
	for _, v := range inv {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Mat4{}, false
		}
	}
	return inv, true
}

// Float32 converts m for upload to the GPU.
func (m Mat4) Float32() [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// ApproxEqual reports whether every element of m and n differs by at most tol.
func (m Mat4) ApproxEqual(n Mat4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-n[i]) > tol {
			return false
		}
	}
	return true
}
