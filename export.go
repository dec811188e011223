package boardview

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/raster"
	"github.com/gogpu/boardview/internal/shading"
)

// gizmoDisc is the shared handle geometry.
var gizmoDisc = geom.UnitDisc()

// Snapshot rasterizes the current scene on the CPU into a w x h image,
// using the same shading as the GPU path. The camera's viewport is
// temporarily resized to match. Pending rebuilds run first.
func (e *Engine) Snapshot(w, h int) (*image.RGBA, error) {
	if !e.ready {
		return nil, ErrNoBoard
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("snapshot %dx%d: %w", w, h, ErrNoCamera)
	}
	e.flush()

	cam := e.Camera()
	if lc, ok := cam.(*LookAtCamera); ok {
		ow, oh := lc.Viewport()
		lc.SetViewport(float64(w), float64(h))
		defer lc.SetViewport(ow, oh)
	}
	v, ok := viewOf(cam)
	if !ok {
		return nil, ErrNoCamera
	}

	opts := raster.Options{Labels: e.opts.labels}
	if g := e.ctrl.Gizmo(); g.Attached() {
		opts.Overlays = append(opts.Overlays, raster.Surface{
			Mesh:     gizmoDisc,
			World:    g.Matrix(),
			Material: shading.Gizmo,
			Tag:      shading.TagRound,
		})
	}
	img := raster.Render(e.scene, raster.View{
		ViewProj: v.viewProj,
		Eye:      v.eye,
		Light:    shading.DefaultLight,
		Clear:    e.clear,
	}, w, h, opts)
	return img, nil
}

// ExportSTL writes every surface (substrate, pads, holes, ribbons) in
// board space as one ASCII STL solid.
func (e *Engine) ExportSTL(w io.Writer) error {
	if !e.ready {
		return ErrNoBoard
	}
	e.flush()
	var meshes []*geom.Mesh
	for _, s := range raster.Surfaces(e.scene) {
		meshes = append(meshes, s.Mesh.Transformed(s.World))
	}
	if err := geom.WriteSTL(w, "boardview", meshes...); err != nil {
		return fmt.Errorf("export stl: %w", err)
	}
	return nil
}
