package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/xform"
)

// meshBuffers is uploaded geometry: interleaved vertices and uint32 indices.
type meshBuffers struct {
	vertBuf    hal.Buffer
	indexBuf   hal.Buffer
	indexCount uint32
}

func (m *meshBuffers) destroy(device hal.Device, ledger *memoryLedger) {
	ledger.destroyBuffer(device, m.indexBuf)
	ledger.destroyBuffer(device, m.vertBuf)
	m.indexBuf, m.vertBuf = nil, nil
}

// drawUnit is one DrawIndexed call: geometry, an instance buffer of world
// matrices, and a surface uniform block bound next to the frame globals.
type drawUnit struct {
	label        string
	geometry     *meshBuffers
	ownsGeometry bool
	instBuf      hal.Buffer
	surfaceBuf   hal.Buffer
	bindGroup    hal.BindGroup
	instances    uint32
}

func (u *drawUnit) destroy(device hal.Device, ledger *memoryLedger) {
	if u.bindGroup != nil {
		device.DestroyBindGroup(u.bindGroup)
		u.bindGroup = nil
	}
	ledger.destroyBuffer(device, u.surfaceBuf)
	ledger.destroyBuffer(device, u.instBuf)
	u.surfaceBuf, u.instBuf = nil, nil
	if u.ownsGeometry && u.geometry != nil {
		u.geometry.destroy(device, ledger)
	}
	u.geometry = nil
}

// packVertices interleaves mesh vertices into the 32-byte vertex layout.
func packVertices(m *geom.Mesh) []byte {
	buf := make([]byte, len(m.Vertices)*vertexStride)
	for i, v := range m.Vertices {
		off := i * vertexStride
		for j, f := range [8]float64{v.Pos.X, v.Pos.Y, v.Pos.Z, v.Normal.X, v.Normal.Y, v.Normal.Z, v.U, v.V} {
			binary.LittleEndian.PutUint32(buf[off+j*4:], math.Float32bits(float32(f)))
		}
	}
	return buf
}

// packIndices writes mesh indices as little-endian uint32.
func packIndices(m *geom.Mesh) []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// putMatrix writes m column-major as 16 float32 values.
func putMatrix(dst []byte, m xform.Mat4) {
	for i, f := range m.Float32() {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// packSignals encodes the hovered/selected slot pair of a surface block.
func packSignals(hovered, selected int) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:], uint32(int32(hovered)))  //nolint:gosec // slot indices fit int32
	binary.LittleEndian.PutUint32(buf[4:], uint32(int32(selected))) //nolint:gosec // slot indices fit int32
	return buf
}
