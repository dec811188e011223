package xform

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Quat is a rotation quaternion.
type Quat = quat.Number

// TRS is a transform split into translation, rotation and scale, applied
// in the order scale, rotate, translate.
type TRS struct {
	Translation r3.Vec
	Rotation    quat.Number
	Scale       r3.Vec
}

// NewTRS returns the identity transform.
func NewTRS() TRS {
	return TRS{Rotation: quat.Number{Real: 1}, Scale: r3.Vec{X: 1, Y: 1, Z: 1}}
}

// Matrix composes T * R * S.
func (t TRS) Matrix() Mat4 {
	m := Rotate(t.Rotation)
	// Scale the rotation columns in place instead of multiplying by S.
	for i := 0; i < 3; i++ {
		m[i] *= t.Scale.X
		m[4+i] *= t.Scale.Y
		m[8+i] *= t.Scale.Z
	}
	m[12], m[13], m[14] = t.Translation.X, t.Translation.Y, t.Translation.Z
	return m
}

// Decompose splits an affine matrix without shear into its TRS parts.
// A negative determinant is folded into the X scale.
func Decompose(m Mat4) TRS {
	cx := r3.Vec{X: m[0], Y: m[1], Z: m[2]}
	cy := r3.Vec{X: m[4], Y: m[5], Z: m[6]}
	cz := r3.Vec{X: m[8], Y: m[9], Z: m[10]}
	s := r3.Vec{X: r3.Norm(cx), Y: r3.Norm(cy), Z: r3.Norm(cz)}
	if r3.Dot(r3.Cross(cx, cy), cz) < 0 {
		s.X = -s.X
	}
	out := TRS{Translation: m.Translation(), Scale: s, Rotation: quat.Number{Real: 1}}
	if s.X == 0 || s.Y == 0 || s.Z == 0 {
		return out
	}
	cx = r3.Scale(1/s.X, cx)
	cy = r3.Scale(1/s.Y, cy)
	cz = r3.Scale(1/s.Z, cz)
	out.Rotation = quatFromBasis(cx, cy, cz)
	return out
}

// quatFromBasis converts an orthonormal basis (the columns of a rotation
// matrix) into a unit quaternion.
func quatFromBasis(cx, cy, cz r3.Vec) quat.Number {
	m00, m10, m20 := cx.X, cx.Y, cx.Z
	m01, m11, m21 := cy.X, cy.Y, cy.Z
	m02, m12, m22 := cz.X, cz.Y, cz.Z

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	return q
}
