package ribbon

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
)

func pts(xy ...float64) []r2.Vec {
	out := make([]r2.Vec, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, r2.Vec{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestTessellateLShape(t *testing.T) {
	m := Tessellate(pts(0, 0, 10, 0, 10, 10), 2)
	if got := len(m.Vertices); got != 6 {
		t.Fatalf("vertices = %d, want 6", got)
	}
	if got := m.TriangleCount(); got != 4 {
		t.Fatalf("triangles = %d, want 4", got)
	}
	for i, v := range m.Vertices {
		if math.IsNaN(v.Pos.X) || math.IsNaN(v.Pos.Z) || math.IsInf(v.Pos.X, 0) || math.IsInf(v.Pos.Z, 0) {
			t.Fatalf("vertex %d not finite: %v", i, v.Pos)
		}
	}
	// The corner at (10, 0) is mitered: both sides sit on the diagonal,
	// sqrt(2) half-widths from the centerline.
	want := []r3.Vec{{X: 9, Z: 1}, {X: 11, Z: -1}}
	for k, w := range want {
		got := m.Vertices[2+k].Pos
		if math.Abs(got.X-w.X) > 1e-9 || math.Abs(got.Z-w.Z) > 1e-9 {
			t.Errorf("corner vertex %d = %v, want %v", 2+k, got, w)
		}
	}
	if v := m.Vertices[4].V; math.Abs(v-20) > 1e-9 {
		t.Errorf("arc length at end = %v, want 20", v)
	}
}

func TestTessellateCounts(t *testing.T) {
	tests := []struct {
		name string
		in   []r2.Vec
		n    int
	}{
		{"segment", pts(0, 0, 5, 0), 2},
		{"zigzag", pts(0, 0, 1, 1, 2, 0, 3, 1, 4, 0), 5},
		{"with duplicates", pts(0, 0, 0, 0, 1, 0, 1, 0.0001, 2, 3), 3},
		{"spiral", pts(0, 0, 4, 0, 4, 4, 1, 4, 1, 1, 3, 1), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Tessellate(tt.in, 0.5)
			if got := len(m.Vertices); got != 2*tt.n {
				t.Errorf("vertices = %d, want %d", got, 2*tt.n)
			}
			if got := m.TriangleCount(); got != 2*(tt.n-1) {
				t.Errorf("triangles = %d, want %d", got, 2*(tt.n-1))
			}
			used := make([]bool, len(m.Vertices))
			for _, idx := range m.Indices {
				used[idx] = true
			}
			for i, u := range used {
				if !u {
					t.Errorf("vertex %d unreferenced", i)
				}
			}
			for i := 0; i < m.TriangleCount(); i++ {
				if n := m.FaceNormal(i); n.Y <= 0 {
					t.Errorf("triangle %d normal %v does not face +Y", i, n)
				}
			}
		})
	}
}

func TestTessellateDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		in    []r2.Vec
		width float64
	}{
		{"empty", nil, 1},
		{"single", pts(1, 1), 1},
		{"collapsed", pts(1, 1, 1, 1.0005, 1.0002, 1), 1},
		{"zero width", pts(0, 0, 1, 0), 0},
		{"nan width", pts(0, 0, 1, 0), math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m := Tessellate(tt.in, tt.width); !m.Empty() || len(m.Vertices) != 0 {
				t.Errorf("expected empty mesh, got %d vertices", len(m.Vertices))
			}
		})
	}
}

func TestMiterIsBounded(t *testing.T) {
	// Near reversal: without the floor the miter would be enormous.
	in := pts(0, 0, 10, 0, 0, 0.01)
	offs := Offsets(in, 1)
	if l := r2.Norm(offs[1]); l > 1/MinMiterDot+1e-9 {
		t.Errorf("miter length %v exceeds bound %v", l, 1/MinMiterDot)
	}
	// Exact reversal falls back to the incoming normal.
	offs = Offsets(pts(0, 0, 10, 0, 0, 0), 1)
	if got := offs[1]; math.Abs(r2.Norm(got)-1) > 1e-9 || math.IsNaN(got.X) {
		t.Errorf("reversal offset = %v, want unit length", got)
	}
}

func TestStraightRunHasConstantWidth(t *testing.T) {
	offs := Offsets(pts(0, 0, 3, 0, 6, 0, 9, 0), 0.75)
	for i, o := range offs {
		if math.Abs(r2.Norm(o)-0.75) > 1e-12 {
			t.Errorf("offset %d length = %v, want 0.75", i, r2.Norm(o))
		}
	}
}

func TestPointsFromComponent(t *testing.T) {
	c := board.Component{ID: "t", Type: board.KindTrace, Points: [][]float64{{1, 2}, {3}, {4, 5}}}
	got := Points(&c)
	if len(got) != 2 || got[1] != (r2.Vec{X: 4, Y: 5}) {
		t.Errorf("Points = %v", got)
	}
	if c := Centroid(got); c != (r2.Vec{X: 2.5, Y: 3.5}) {
		t.Errorf("Centroid = %v", c)
	}
}
