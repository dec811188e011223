package boardview

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/xform"
)

// Camera supplies the view the engine draws and picks with. Orbit and zoom
// belong to the caller; the engine only reads the current matrix.
type Camera interface {
	// ViewProjection returns the column-major world-to-clip matrix.
	ViewProjection() [16]float64
	// Viewport returns the pointer coordinate space in pixels.
	Viewport() (w, h float64)
}

// eyeCamera is implemented by cameras that know their world position.
// Others get an eye recovered from the inverse view-projection.
type eyeCamera interface {
	Eye() [3]float64
}

// LookAtCamera is a fixed perspective camera.
type LookAtCamera struct {
	eye, target r3.Vec
	fovY        float64
	w, h        float64
	near, far   float64
}

// NewLookAtCamera creates a camera at eye looking at target with +Y up,
// a vertical field of view in radians and the given viewport.
func NewLookAtCamera(eye, target [3]float64, fovY, w, h float64) *LookAtCamera {
	return &LookAtCamera{
		eye:    r3.Vec{X: eye[0], Y: eye[1], Z: eye[2]},
		target: r3.Vec{X: target[0], Y: target[1], Z: target[2]},
		fovY:   fovY,
		w:      w,
		h:      h,
		near:   0.1,
		far:    10000,
	}
}

// DefaultCamera frames the whole board from above and slightly in front.
func DefaultCamera(cfg board.BoardConfig, w, h float64) *LookAtCamera {
	span := math.Max(math.Max(cfg.Width, cfg.Height), 1)
	return NewLookAtCamera([3]float64{0, span * 1.1, span * 0.6}, [3]float64{}, math.Pi/4, w, h)
}

// SetViewport changes the viewport size.
func (c *LookAtCamera) SetViewport(w, h float64) { c.w, c.h = w, h }

// Viewport implements Camera.
func (c *LookAtCamera) Viewport() (w, h float64) { return c.w, c.h }

// Eye returns the camera position.
func (c *LookAtCamera) Eye() [3]float64 { return [3]float64{c.eye.X, c.eye.Y, c.eye.Z} }

// ViewProjection implements Camera.
func (c *LookAtCamera) ViewProjection() [16]float64 {
	up := r3.Vec{Y: 1}
	// Looking straight down makes +Y degenerate as up.
	if d := r3.Unit(r3.Sub(c.target, c.eye)); math.Abs(r3.Dot(d, up)) > 0.999 {
		up = r3.Vec{Z: -1}
	}
	aspect := 1.0
	if c.h > 0 {
		aspect = c.w / c.h
	}
	return xform.Perspective(c.fovY, aspect, c.near, c.far).Mul(xform.LookAt(c.eye, c.target, up))
}

// view bundles what one frame and one raycast need from a camera.
type view struct {
	viewProj xform.Mat4
	inverse  xform.Mat4
	eye      r3.Vec
	w, h     float64
}

func viewOf(c Camera) (view, bool) {
	v := view{viewProj: xform.Mat4(c.ViewProjection())}
	v.w, v.h = c.Viewport()
	inv, ok := v.viewProj.Inverse()
	if !ok || v.w <= 0 || v.h <= 0 {
		return view{}, false
	}
	v.inverse = inv
	if ec, ok := c.(eyeCamera); ok {
		e := ec.Eye()
		v.eye = r3.Vec{X: e[0], Y: e[1], Z: e[2]}
	} else {
		v.eye = xform.RayFromNDC(inv, 0, 0).Origin
	}
	return v, true
}

// ray returns the world ray under a viewport pixel.
func (v view) ray(px, py float64) xform.Ray {
	x, y := xform.PixelToNDC(px, py, v.w, v.h)
	return xform.RayFromNDC(v.inverse, x, y)
}
