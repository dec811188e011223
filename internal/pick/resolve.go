// Package pick resolves pointer rays against the scene and runs the
// hover / selection / drag state machine.
package pick

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/batch"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// Ref identifies one pickable surface: an instance slot of a batch, or a
// standalone mesh. ID is the component id in both cases.
type Ref struct {
	ID   string
	Key  batch.Key
	Slot int
	Mesh bool
}

// Batched reports whether r addresses a batch instance.
func (r Ref) Batched() bool { return !r.Mesh }

// Hit is the nearest pickable surface under a ray.
type Hit struct {
	Ref Ref
	T   float64
}

// Resolve returns the nearest pickable hit of ray over every batch
// instance and every pickable standalone mesh. The substrate is never
// pickable; the gizmo is tested separately by the controller.
func Resolve(s *scene.Scene, ray xform.Ray) (Hit, bool) {
	best := Hit{T: math.Inf(1)}
	found := false
	for _, b := range s.Manager().Batches() {
		mesh := b.Template.Mesh
		bounds := pad(mesh.Bounds())
		for slot := 0; slot < b.Count(); slot++ {
			t, ok := intersectLocal(ray, b.World(slot), mesh, bounds)
			if ok && t < best.T {
				best = Hit{Ref: Ref{ID: b.ID(slot), Key: b.Key, Slot: slot}, T: t}
				found = true
			}
		}
	}
	for _, m := range s.Ribbons() {
		if !m.Pickable {
			continue
		}
		t, ok := intersectLocal(ray, m.World(), m.Geometry, pad(m.Geometry.Bounds()))
		if ok && t < best.T {
			best = Hit{Ref: Ref{ID: m.ID, Slot: shading.NoSlot, Mesh: true}, T: t}
			found = true
		}
	}
	return best, found
}

// intersectLocal tests ray against mesh placed by world. The ray is moved
// into the mesh's space with its direction left unnormalized, so the
// returned parameter is directly comparable with hits from other surfaces.
func intersectLocal(ray xform.Ray, world xform.Mat4, mesh *geom.Mesh, bounds r3.Box) (float64, bool) {
	inv, ok := world.Inverse()
	if !ok {
		return 0, false
	}
	local := ray.Transform(inv)
	if !geom.IntersectBox(local, bounds) {
		return 0, false
	}
	h, ok := mesh.Intersect(local)
	if !ok {
		return 0, false
	}
	return h.T, true
}

// boundsPad widens flat templates so the slab test never rejects a ray
// through a zero-thickness box on rounding.
const boundsPad = 1e-6

func pad(b r3.Box) r3.Box {
	d := r3.Vec{X: boundsPad, Y: boundsPad, Z: boundsPad}
	return r3.Box{Min: r3.Sub(b.Min, d), Max: r3.Add(b.Max, d)}
}
