package shading

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/naga"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/xform"
)

//go:embed shaders/surface.wgsl
var surfaceSource string

// Entry points of the surface program.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Uniform block sizes in bytes, matching the WGSL structs.
const (
	GlobalsSize = 64 + 3*16 // view_proj + light_dir + eye + light_params
	SurfaceSize = 4*16 + 16 + 16
)

// Source returns the WGSL source of the surface program.
func Source() string { return surfaceSource }

var (
	spirvOnce sync.Once
	spirvCode []uint32
	spirvErr  error
)

// SPIRV compiles the surface program once and returns the SPIR-V words.
// A compile failure is sticky: the embedded source never changes.
func SPIRV() ([]uint32, error) {
	spirvOnce.Do(func() {
		spirvCode, spirvErr = Compile(surfaceSource)
	})
	return spirvCode, spirvErr
}

// Compile validates WGSL source with naga and returns SPIR-V words.
func Compile(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile surface shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile surface shader: SPIR-V length %d not word aligned", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// PackGlobals lays out the per-frame uniform block.
func PackGlobals(viewProj xform.Mat4, l Light, eye r3.Vec) []byte {
	buf := make([]byte, GlobalsSize)
	off := 0
	put := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range viewProj.Float32() {
		put(v)
	}
	d := r3.Unit(l.Dir)
	put(float32(d.X))
	put(float32(d.Y))
	put(float32(d.Z))
	put(float32(l.Ambient))
	put(float32(eye.X))
	put(float32(eye.Y))
	put(float32(eye.Z))
	put(1)
	put(float32(l.Specular))
	put(float32(l.Shininess))
	put(float32(l.Brush))
	put(0)
	return buf
}

// PackSurface lays out the per-surface uniform block. hovered and selected
// are instance indices, NoSlot for none.
func PackSurface(m Material, tag ShapeTag, hovered, selected int) []byte {
	buf := make([]byte, SurfaceSize)
	off := 0
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[off:], v)
		off += 4
	}
	for _, c := range []RGBA{m.Base, m.Hover, m.Select, m.Edge} {
		for _, v := range c.Vec4() {
			put(math.Float32bits(v))
		}
	}
	put(uint32(tag))
	put(uint32(int32(hovered)))
	put(uint32(int32(selected)))
	put(math.Float32bits(float32(m.Band)))
	put(math.Float32bits(float32(m.HoverMix)))
	put(math.Float32bits(float32(m.SelectMix)))
	put(0)
	put(0)
	return buf
}

// SurfaceSignalsOffset is the byte offset of the hovered/selected pair
// inside the surface block, for partial signal updates.
const SurfaceSignalsOffset = 4*16 + 4
