package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/geom"
)

func TestMemoryStatsString(t *testing.T) {
	s := MemoryStats{TotalBytes: 4096, UsedBytes: 1024, BufferCount: 2, Utilization: 0.25}
	if got, want := s.String(), "Memory[25.0% used, 1/4 KB, 2 buffers]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func floats(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func TestPackVertices(t *testing.T) {
	m := &geom.Mesh{
		Vertices: []geom.Vertex{
			{Pos: r3.Vec{X: 1, Y: 2, Z: 3}, Normal: r3.Vec{Y: 1}, U: 0.5, V: 0.25},
			{Pos: r3.Vec{X: -1}, Normal: r3.Vec{Z: -1}, U: 1, V: 0},
		},
		Indices: []uint32{0, 1, 0},
	}
	vb := packVertices(m)
	if len(vb) != 2*vertexStride {
		t.Fatalf("vertex bytes = %d, want %d", len(vb), 2*vertexStride)
	}
	want := []float32{1, 2, 3, 0, 1, 0, 0.5, 0.25, -1, 0, 0, 0, 0, -1, 1, 0}
	if diff := cmp.Diff(want, floats(vb)); diff != "" {
		t.Errorf("vertices (-want +got):\n%s", diff)
	}

	ib := packIndices(m)
	if got := []uint32{binary.LittleEndian.Uint32(ib), binary.LittleEndian.Uint32(ib[4:]), binary.LittleEndian.Uint32(ib[8:])}; !cmp.Equal(got, m.Indices) {
		t.Errorf("indices = %v", got)
	}
}

func TestPackSignals(t *testing.T) {
	tests := []struct {
		hovered, selected int
		want              [2]int32
	}{
		{-1, -1, [2]int32{-1, -1}},
		{3, -1, [2]int32{3, -1}},
		{0, 7, [2]int32{0, 7}},
	}
	for _, tt := range tests {
		b := packSignals(tt.hovered, tt.selected)
		got := [2]int32{int32(binary.LittleEndian.Uint32(b)), int32(binary.LittleEndian.Uint32(b[4:]))} //nolint:gosec // round trip of int32 values
		if got != tt.want {
			t.Errorf("packSignals(%d, %d) = %v, want %v", tt.hovered, tt.selected, got, tt.want)
		}
	}
}
