// Package raster provides a CPU depth-buffered triangle rasterizer that
// shades every fragment with the same routine the GPU pipeline runs.
//
// Draw only transforms and queues triangles. The queue is resolved when
// the image or statistics are read, in row bands that may run on a
// parallel.WorkerPool. Every band walks the queue in submission order, so
// the output does not depend on the number of workers.
package raster

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/parallel"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// View is the camera and lighting of one rasterized frame.
type View struct {
	ViewProj xform.Mat4
	Eye      r3.Vec
	Light    shading.Light
	Clear    shading.RGBA
}

// Surface is one mesh placed in world space with its shading inputs.
type Surface struct {
	Mesh     *geom.Mesh
	World    xform.Mat4
	Material shading.Material
	Tag      shading.ShapeTag
	Signals  shading.Signals
}

// Rasterizer fills triangles into an RGBA image with a depth test.
type Rasterizer struct {
	width  int
	height int
	img    *image.RGBA
	depth  []float64
	view   View
	pool   *parallel.WorkerPool

	surfaces []Surface
	queue    []triangle

	triangles int
	fragments int
}

// triangle is a queued triangle of surfaces[surface].
type triangle struct {
	surface int
	a, b, c clipVertex
}

// NewRasterizer creates a rasterizer for the given dimensions.
func NewRasterizer(width, height int) *Rasterizer {
	return &Rasterizer{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		depth:  make([]float64, width*height),
	}
}

// SetPool makes later resolves split rows across p. A nil pool resolves
// on the calling goroutine.
func (r *Rasterizer) SetPool(p *parallel.WorkerPool) { r.pool = p }

// Image resolves queued triangles and returns the target image.
func (r *Rasterizer) Image() *image.RGBA {
	r.resolve()
	return r.img
}

// Stats returns the triangles submitted and fragments written since Begin.
func (r *Rasterizer) Stats() (triangles, fragments int) {
	r.resolve()
	return r.triangles, r.fragments
}

// Begin clears color and depth and fixes the view for subsequent draws.
func (r *Rasterizer) Begin(v View) {
	r.view = v
	c := v.Clear.NRGBA()
	for i := 0; i < len(r.img.Pix); i += 4 {
		r.img.Pix[i+0] = c.R
		r.img.Pix[i+1] = c.G
		r.img.Pix[i+2] = c.B
		r.img.Pix[i+3] = c.A
	}
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
	r.triangles, r.fragments = 0, 0
	r.surfaces, r.queue = r.surfaces[:0], r.queue[:0]
}

// clipVertex is a vertex after the view-projection, before the divide.
type clipVertex struct {
	sx, sy, z float64 // screen position and NDC depth
	invW      float64
	world     r3.Vec
	normal    r3.Vec
	u, v      float64
}

// Draw transforms one surface and queues its triangles.
func (r *Rasterizer) Draw(s Surface) {
	if s.Mesh.Empty() {
		return
	}
	m := s.Mesh.Transformed(s.World)
	verts := make([]clipVertex, len(m.Vertices))
	visible := make([]bool, len(m.Vertices))
	for i, v := range m.Vertices {
		x, y, z, w := r.view.ViewProj.TransformPoint4(v.Pos)
		if w <= 1e-9 {
			continue
		}
		visible[i] = true
		verts[i] = clipVertex{
			sx:     (x/w + 1) / 2 * float64(r.width),
			sy:     (1 - y/w) / 2 * float64(r.height),
			z:      z / w,
			invW:   1 / w,
			world:  v.Pos,
			normal: v.Normal,
			u:      v.U,
			v:      v.V,
		}
	}
	surface := len(r.surfaces)
	r.surfaces = append(r.surfaces, s)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		// Triangles crossing the camera plane are dropped whole.
		if !visible[a] || !visible[b] || !visible[c] {
			continue
		}
		r.triangles++
		r.queue = append(r.queue, triangle{surface: surface, a: verts[a], b: verts[b], c: verts[c]})
	}
}

// resolve fills every queued triangle band by band.
func (r *Rasterizer) resolve() {
	if len(r.queue) == 0 {
		return
	}
	counts := make([]int, r.pool.BandCount(r.height))
	r.pool.ForEachBand(r.height, func(i int, b parallel.Band) {
		for j := range r.queue {
			t := &r.queue[j]
			counts[i] += r.fill(b, &r.surfaces[t.surface], t.a, t.b, t.c)
		}
	})
	for _, n := range counts {
		r.fragments += n
	}
	r.surfaces, r.queue = r.surfaces[:0], r.queue[:0]
}

func edgeFn(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// fill scans the triangle's bounding box within band and shades covered
// pixel centers. Attributes are interpolated perspective-correct through
// 1/w. It returns the number of fragments written.
func (r *Rasterizer) fill(band parallel.Band, s *Surface, a, b, c clipVertex) int {
	area := edgeFn(a.sx, a.sy, b.sx, b.sy, c.sx, c.sy)
	if math.Abs(area) < 1e-12 {
		return 0
	}
	minX := max(int(math.Floor(min(a.sx, b.sx, c.sx))), 0)
	maxX := min(int(math.Ceil(max(a.sx, b.sx, c.sx))), r.width-1)
	minY := max(int(math.Floor(min(a.sy, b.sy, c.sy))), band.Y0)
	maxY := min(int(math.Ceil(max(a.sy, b.sy, c.sy))), band.Y1-1)

	written := 0
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edgeFn(b.sx, b.sy, c.sx, c.sy, px, py) / area
			w1 := edgeFn(c.sx, c.sy, a.sx, a.sy, px, py) / area
			w2 := edgeFn(a.sx, a.sy, b.sx, b.sy, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			if z < -1 || z > 1 {
				continue
			}
			idx := y*r.width + x
			if z >= r.depth[idx] {
				continue
			}
			r.depth[idx] = z

			p0, p1, p2 := w0*a.invW, w1*b.invW, w2*c.invW
			sum := p0 + p1 + p2
			p0, p1, p2 = p0/sum, p1/sum, p2/sum
			frag := shading.Fragment{
				World:  lerp3(a.world, b.world, c.world, p0, p1, p2),
				Normal: lerp3(a.normal, b.normal, c.normal, p0, p1, p2),
				U:      p0*a.u + p1*b.u + p2*c.u,
				V:      p0*a.v + p1*b.v + p2*c.v,
				Tag:    s.Tag,
				Eye:    r.view.Eye,
			}
			col := shading.Shade(s.Material, frag, s.Signals, r.view.Light).NRGBA()
			off := r.img.PixOffset(x, y)
			r.img.Pix[off+0] = col.R
			r.img.Pix[off+1] = col.G
			r.img.Pix[off+2] = col.B
			r.img.Pix[off+3] = col.A
			written++
		}
	}
	return written
}

func lerp3(a, b, c r3.Vec, wa, wb, wc float64) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(wa, a), r3.Scale(wb, b)), r3.Scale(wc, c))
}
