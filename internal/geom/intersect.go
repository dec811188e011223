package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/xform"
)

// Hit describes the nearest intersection of a ray with a mesh.
type Hit struct {
	T        float64 // ray parameter, in units of the ray direction
	Triangle int
	Point    r3.Vec // in the mesh's space
}

// rayEpsilon rejects near-parallel triangles and hits at the ray origin.
const rayEpsilon = 1e-12

// Intersect returns the nearest hit of r against m, testing both faces of
// every triangle (Möller–Trumbore).
func (m *Mesh) Intersect(r xform.Ray) (Hit, bool) {
	best := Hit{T: math.Inf(1), Triangle: -1}
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		if t, ok := intersectTriangle(r, a, b, c); ok && t < best.T {
			best.T = t
			best.Triangle = i
		}
	}
	if best.Triangle < 0 {
		return Hit{}, false
	}
	best.Point = r.At(best.T)
	return best, true
}

// IntersectBox reports whether r enters box b at a non-negative parameter.
func IntersectBox(r xform.Ray, b r3.Box) bool {
	tmin, tmax := 0.0, math.Inf(1)
	for _, ax := range [3]struct{ o, d, lo, hi float64 }{
		{r.Origin.X, r.Dir.X, b.Min.X, b.Max.X},
		{r.Origin.Y, r.Dir.Y, b.Min.Y, b.Max.Y},
		{r.Origin.Z, r.Dir.Z, b.Min.Z, b.Max.Z},
	} {
		if math.Abs(ax.d) < rayEpsilon {
			if ax.o < ax.lo || ax.o > ax.hi {
				return false
			}
			continue
		}
		t0, t1 := (ax.lo-ax.o)/ax.d, (ax.hi-ax.o)/ax.d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin, tmax = math.Max(tmin, t0), math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}

func intersectTriangle(r xform.Ray, a, b, c r3.Vec) (float64, bool) {
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	p := r3.Cross(r.Dir, e2)
	det := r3.Dot(e1, p)
	if math.Abs(det) < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r3.Sub(r.Origin, a)
	u := r3.Dot(s, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, e1)
	v := r3.Dot(r.Dir, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := r3.Dot(e2, q) * inv
	if t <= rayEpsilon {
		return 0, false
	}
	return t, true
}
