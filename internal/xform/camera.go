package xform

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Perspective returns a right-handed projection with clip-space depth in
// [0, 1] (the WebGPU convention). fovY is in radians.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1
	m[14] = near * far / (near - far)
	return m
}

// LookAt returns a right-handed view matrix looking from eye to target.
func LookAt(eye, target, up r3.Vec) Mat4 {
	f := r3.Unit(r3.Sub(target, eye))
	s := r3.Cross(f, up)
	if r3.Norm2(s) < 1e-12 {
		// Looking straight along up; pick any perpendicular.
		s = r3.Cross(f, r3.Vec{Z: 1})
	}
	s = r3.Unit(s)
	u := r3.Cross(s, f)
	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-r3.Dot(s, eye), -r3.Dot(u, eye), r3.Dot(f, eye), 1,
	}
}

// Ray is a half-line. Dir need not be unit length; hit distances are in
// units of Dir.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// At returns the point at parameter t.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// Transform maps the ray through m without renormalizing Dir, so hit
// parameters stay comparable across spaces.
func (r Ray) Transform(m Mat4) Ray {
	return Ray{Origin: m.TransformPoint(r.Origin), Dir: m.TransformDir(r.Dir)}
}

// IntersectPlaneY returns the parameter where the ray crosses the
// horizontal plane at height y. ok is false for rays parallel to the plane
// or crossing behind the origin.
func (r Ray) IntersectPlaneY(y float64) (t float64, ok bool) {
	if math.Abs(r.Dir.Y) < 1e-12 {
		return 0, false
	}
	t = (y - r.Origin.Y) / r.Dir.Y
	return t, t >= 0
}

// PixelToNDC converts a viewport pixel position (origin top-left) into
// normalized device coordinates.
func PixelToNDC(px, py, width, height float64) (x, y float64) {
	return 2*px/width - 1, 1 - 2*py/height
}

// RayFromNDC unprojects a point in normalized device coordinates through
// the inverse view-projection into a world-space ray from the near plane
// toward the far plane. Dir is unit length.
func RayFromNDC(invViewProj Mat4, x, y float64) Ray {
	near := invViewProj.TransformPoint(r3.Vec{X: x, Y: y, Z: 0})
	far := invViewProj.TransformPoint(r3.Vec{X: x, Y: y, Z: 1})
	return Ray{Origin: near, Dir: r3.Unit(r3.Sub(far, near))}
}

// Project maps a world point to viewport pixels. ok is false when the
// point is behind the camera.
func Project(viewProj Mat4, p r3.Vec, width, height float64) (px, py, depth float64, ok bool) {
	x, y, z, w := viewProj.TransformPoint4(p)
	if w <= 0 {
		return 0, 0, 0, false
	}
	x, y, z = x/w, y/w, z/w
	return (x + 1) / 2 * width, (1 - y) / 2 * height, z, true
}
