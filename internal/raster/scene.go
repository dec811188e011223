package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/parallel"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/xform"
)

// Options tune a scene snapshot.
type Options struct {
	// Labels draws each component id at its projected center.
	Labels     bool
	LabelColor color.Color
	// Overlays are drawn after the scene, e.g. the manipulation gizmo.
	Overlays []Surface
	// Workers bounds the goroutines resolving rows. 0 uses GOMAXPROCS
	// and 1 renders on the calling goroutine.
	Workers int
}

// Surfaces flattens a scene into drawable surfaces in submission order:
// substrate, one surface per batch instance, then the ribbons.
func Surfaces(s *scene.Scene) []Surface {
	var out []Surface
	if m := s.Substrate(); m != nil {
		out = append(out, meshSurface(m))
	}
	for _, b := range s.Manager().Batches() {
		for slot := 0; slot < b.Count(); slot++ {
			out = append(out, Surface{
				Mesh:     b.Template.Mesh,
				World:    b.World(slot),
				Material: b.Template.Material,
				Tag:      b.Template.Tag,
				Signals:  b.Signals(slot),
			})
		}
	}
	for _, m := range s.Ribbons() {
		out = append(out, meshSurface(m))
	}
	return out
}

func meshSurface(m *scene.Mesh) Surface {
	return Surface{
		Mesh:     m.Geometry,
		World:    m.World(),
		Material: m.Material,
		Tag:      m.Tag,
		Signals:  m.Signals(),
	}
}

// Render draws the scene into a new width x height image.
func Render(s *scene.Scene, v View, width, height int, opts Options) *image.RGBA {
	r := NewRasterizer(width, height)
	if opts.Workers != 1 {
		pool := parallel.NewWorkerPool(opts.Workers)
		defer pool.Close()
		r.SetPool(pool)
	}
	r.Begin(v)
	for _, surf := range Surfaces(s) {
		r.Draw(surf)
	}
	for _, surf := range opts.Overlays {
		r.Draw(surf)
	}
	if opts.Labels {
		drawLabels(r.Image(), s, v.ViewProj, opts.LabelColor)
	}
	return r.Image()
}

// drawLabels writes component ids with the 7x13 bitmap face, centered on
// each component's projected position.
func drawLabels(img *image.RGBA, s *scene.Scene, viewProj xform.Mat4, c color.Color) {
	if c == nil {
		c = color.White
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	label := func(id string, p r3.Vec) {
		px, py, _, ok := xform.Project(viewProj, p, w, h)
		if !ok {
			return
		}
		adv := d.MeasureString(id)
		d.Dot = fixed.Point26_6{
			X: fixed.I(int(px)) - adv/2,
			Y: fixed.I(int(py) + basicfont.Face7x13.Ascent/2),
		}
		d.DrawString(id)
	}
	for _, b := range s.Manager().Batches() {
		for slot := 0; slot < b.Count(); slot++ {
			label(b.ID(slot), b.World(slot).Translation())
		}
	}
	for _, m := range s.Ribbons() {
		bb := m.Geometry.Bounds()
		center := r3.Scale(0.5, r3.Add(bb.Min, bb.Max))
		label(m.ID, m.World().TransformPoint(center))
	}
}
