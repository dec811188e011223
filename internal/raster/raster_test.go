package raster

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/parallel"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

const size = 64

// frontView looks down -Z at the origin from z=10.
func frontView() View {
	eye := r3.Vec{Z: 10}
	return View{
		ViewProj: xform.Perspective(math.Pi/4, 1, 0.1, 100).Mul(xform.LookAt(eye, r3.Vec{}, r3.Vec{Y: 1})),
		Eye:      eye,
		Light:    shading.Light{Dir: r3.Vec{Z: 1}, Ambient: 1},
		Clear:    shading.RGB(0, 0, 0),
	}
}

func flat(c shading.RGBA) shading.Material {
	return shading.Material{Base: c, Hover: shading.RGB(0, 1, 0), HoverMix: 1}
}

func quad(z, scale float64, m shading.Material) Surface {
	return Surface{
		Mesh:     geom.UnitRect(),
		World:    xform.Translate(r3.Vec{Z: z}).Mul(xform.Scale(r3.Vec{X: scale, Y: scale, Z: 1})),
		Material: m,
		Tag:      shading.TagRect,
	}
}

func TestDrawCoversCenterOnly(t *testing.T) {
	r := NewRasterizer(size, size)
	r.Begin(frontView())
	r.Draw(quad(0, 2, flat(shading.RGB(1, 0, 0))))

	img := r.Image()
	if c := img.RGBAAt(size/2, size/2); c.R < 200 || c.B != 0 {
		t.Errorf("center = %v, want red", c)
	}
	if c := img.RGBAAt(0, 0); c != (color.RGBA{A: 255}) {
		t.Errorf("corner = %v, want clear color", c)
	}
	tris, frags := r.Stats()
	if tris != 2 || frags == 0 {
		t.Errorf("stats = %d triangles, %d fragments", tris, frags)
	}
}

func TestDepthTestKeepsNearest(t *testing.T) {
	tests := []struct {
		name  string
		order []Surface
	}{
		{"near last", []Surface{quad(0, 2, flat(shading.RGB(1, 0, 0))), quad(1, 2, flat(shading.RGB(0, 0, 1)))}},
		{"near first", []Surface{quad(1, 2, flat(shading.RGB(0, 0, 1))), quad(0, 2, flat(shading.RGB(1, 0, 0)))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRasterizer(size, size)
			r.Begin(frontView())
			for _, s := range tt.order {
				r.Draw(s)
			}
			if c := r.Image().RGBAAt(size/2, size/2); c.B < 200 || c.R != 0 {
				t.Errorf("center = %v, want the nearer blue quad", c)
			}
		})
	}
}

func TestSignalsTint(t *testing.T) {
	r := NewRasterizer(size, size)
	r.Begin(frontView())
	s := quad(0, 2, flat(shading.RGB(1, 0, 0)))
	s.Signals = shading.Signals{Hovered: true}
	r.Draw(s)
	if c := r.Image().RGBAAt(size/2, size/2); c.G < 200 || c.R != 0 {
		t.Errorf("hovered center = %v, want full hover tint", c)
	}
}

func TestBehindCameraDropped(t *testing.T) {
	r := NewRasterizer(size, size)
	r.Begin(frontView())
	r.Draw(quad(20, 2, flat(shading.RGB(1, 0, 0))))
	if tris, frags := r.Stats(); tris != 0 || frags != 0 {
		t.Errorf("stats = %d, %d; want nothing drawn", tris, frags)
	}
}

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New(scene.Config{})
	if err := s.InitBoard(board.BoardConfig{Width: 40, Height: 30, Thickness: 1.6}); err != nil {
		t.Fatal(err)
	}
	s.SetComponents([]board.Component{
		{ID: "p", Type: board.KindRect, Pos: []float64{0, 0, 0}, Size: []float64{6, 6}},
		{ID: "h", Type: board.KindHole, Pos: []float64{10, 0, 0}, Radius: 1},
		{ID: "t", Type: board.KindTrace, Points: [][]float64{{-10, 8}, {10, 8}}, Width: 1},
	})
	s.Rebuild()
	return s
}

func topView() View {
	eye := r3.Vec{Y: 60}
	return View{
		ViewProj: xform.Perspective(math.Pi/4, 1, 0.1, 200).Mul(xform.LookAt(eye, r3.Vec{}, r3.Vec{Z: -1})),
		Eye:      eye,
		Light:    shading.DefaultLight,
		Clear:    shading.RGB(0, 0, 0),
	}
}

func TestSurfacesOrder(t *testing.T) {
	s := testScene(t)
	got := Surfaces(s)
	// substrate, pad, hole, ribbon
	if len(got) != 4 {
		t.Fatalf("surfaces = %d, want 4", len(got))
	}
	if got[0].Material != s.Substrate().Material || got[3].Tag != shading.TagRibbon {
		t.Error("unexpected surface order")
	}
}

func TestRenderSceneAndLabels(t *testing.T) {
	s := testScene(t)
	plain := Render(s, topView(), size, size, Options{})
	if c := plain.RGBAAt(2, size/2); c != (color.RGBA{A: 255}) {
		t.Errorf("outside the board = %v, want clear", c)
	}
	if c := plain.RGBAAt(size/2, size/2); c == (color.RGBA{A: 255}) {
		t.Error("pad at the center was not drawn")
	}

	labeled := Render(s, topView(), size, size, Options{Labels: true, LabelColor: color.White})
	diff := 0
	for i := range plain.Pix {
		if plain.Pix[i] != labeled.Pix[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("labels changed no pixels")
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	s := testScene(t)
	serial := Render(s, topView(), size, size, Options{Workers: 1})
	for _, workers := range []int{2, 5, 0} {
		got := Render(s, topView(), size, size, Options{Workers: workers})
		if !bytes.Equal(serial.Pix, got.Pix) {
			t.Errorf("workers=%d: image differs from serial render", workers)
		}
	}

	r := NewRasterizer(size, size)
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()
	r.SetPool(pool)
	r.Begin(frontView())
	r.Draw(quad(0, 2, flat(shading.RGB(1, 0, 0))))
	tris, frags := r.Stats()
	if tris != 2 || frags == 0 {
		t.Errorf("stats = %d triangles, %d fragments", tris, frags)
	}
}
