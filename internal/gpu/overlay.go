package gpu

import (
	"fmt"

	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// Overlay is a single surface drawn after the scene, such as the
// manipulation handle. It is not owned by the scene and is not picked.
type Overlay struct {
	Mesh     *geom.Mesh
	World    xform.Mat4
	Material shading.Material
	Tag      shading.ShapeTag
}

// overlayUnit keeps the overlay draw unit between frames. Geometry is
// uploaded once per mesh; the world matrix is rewritten only when it
// changed.
type overlayUnit struct {
	mesh  *geom.Mesh
	unit  *drawUnit
	world xform.Mat4
}

// SyncOverlay appends o to the draw list after the scene surfaces. Call
// it after Sync; pass nil when nothing should be drawn.
func (r *SurfaceRenderer) SyncOverlay(o *Overlay) error {
	if o == nil || o.Mesh.Empty() {
		return nil
	}
	if err := r.ensurePipeline(); err != nil {
		return err
	}
	ov := &r.overlay
	if ov.unit != nil && ov.mesh != o.Mesh {
		r.releaseOverlay()
	}
	if ov.unit == nil {
		geo, err := r.uploadMesh("overlay", o.Mesh)
		if err != nil {
			return err
		}
		inst := make([]byte, instanceStride)
		putMatrix(inst, o.World)
		surface := shading.PackSurface(o.Material, o.Tag, shading.NoSlot, shading.NoSlot)
		u, err := r.newDrawUnit("overlay", geo, true, inst, surface)
		if err != nil {
			geo.destroy(r.device, r.ledger)
			return err
		}
		ov.mesh, ov.unit, ov.world = o.Mesh, u, o.World
	} else if o.World != ov.world {
		data := make([]byte, instanceStride)
		putMatrix(data, o.World)
		if err := r.queue.WriteBuffer(ov.unit.instBuf, 0, data); err != nil {
			return fmt.Errorf("write overlay transform: %w", err)
		}
		ov.world = o.World
		r.stats.SlotUploads++
	}
	r.draws = append(r.draws, ov.unit)
	return nil
}

func (r *SurfaceRenderer) releaseOverlay() {
	if r.overlay.unit != nil {
		r.overlay.unit.destroy(r.device, r.ledger)
	}
	r.overlay = overlayUnit{}
}
