package geom

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/xform"
)

func TestTemplateNormalsMatchWinding(t *testing.T) {
	tests := []struct {
		name string
		mesh *Mesh
	}{
		{"rect", UnitRect()},
		{"disc", UnitDisc()},
		{"cylinder", UnitCylinder()},
		{"box", Box(100, 1.6, 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mesh
			for i := 0; i < m.TriangleCount(); i++ {
				fn := m.FaceNormal(i)
				vn := m.Vertices[m.Indices[3*i]].Normal
				if r3.Dot(fn, vn) <= 0 {
					t.Fatalf("triangle %d winding %v disagrees with vertex normal %v", i, fn, vn)
				}
			}
		})
	}
}

func TestTemplateCounts(t *testing.T) {
	if got := UnitRect().TriangleCount(); got != 2 {
		t.Errorf("rect triangles = %d, want 2", got)
	}
	if got := UnitDisc().TriangleCount(); got != discSegments {
		t.Errorf("disc triangles = %d, want %d", got, discSegments)
	}
	if got := Box(1, 1, 1).TriangleCount(); got != 12 {
		t.Errorf("box triangles = %d, want 12", got)
	}
	b := UnitCylinder().Bounds()
	if b.Min.Y != -0.5 || b.Max.Y != 0.5 {
		t.Errorf("cylinder height span = [%v, %v], want [-0.5, 0.5]", b.Min.Y, b.Max.Y)
	}
}

func TestIntersectTwoSided(t *testing.T) {
	m := UnitRect()
	tests := []struct {
		name  string
		ray   xform.Ray
		hit   bool
		wantT float64
	}{
		{"front", xform.Ray{Origin: r3.Vec{Z: 5}, Dir: r3.Vec{Z: -1}}, true, 5},
		{"back", xform.Ray{Origin: r3.Vec{Z: -2}, Dir: r3.Vec{Z: 1}}, true, 2},
		{"scaled dir", xform.Ray{Origin: r3.Vec{Z: 4}, Dir: r3.Vec{Z: -2}}, true, 2},
		{"miss", xform.Ray{Origin: r3.Vec{X: 2, Z: 5}, Dir: r3.Vec{Z: -1}}, false, 0},
		{"behind", xform.Ray{Origin: r3.Vec{Z: 5}, Dir: r3.Vec{Z: 1}}, false, 0},
		{"parallel", xform.Ray{Origin: r3.Vec{X: -3}, Dir: r3.Vec{X: 1}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := m.Intersect(tt.ray)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if ok && math.Abs(h.T-tt.wantT) > 1e-9 {
				t.Errorf("t = %v, want %v", h.T, tt.wantT)
			}
		})
	}
}

func TestIntersectBox(t *testing.T) {
	b := r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	if !IntersectBox(xform.Ray{Origin: r3.Vec{Y: 10}, Dir: r3.Vec{Y: -1}}, b) {
		t.Error("downward ray misses unit box")
	}
	if IntersectBox(xform.Ray{Origin: r3.Vec{X: 5, Y: 10}, Dir: r3.Vec{Y: -1}}, b) {
		t.Error("offset ray hits unit box")
	}
}

func TestTransformedKeepsOutwardNormals(t *testing.T) {
	mirror := xform.Scale(r3.Vec{X: -2, Y: 1, Z: 1})
	m := Box(1, 1, 1).Transformed(mirror)
	for i := 0; i < m.TriangleCount(); i++ {
		fn := m.FaceNormal(i)
		vn := m.Vertices[m.Indices[3*i]].Normal
		if r3.Dot(fn, vn) <= 0 {
			t.Fatalf("triangle %d flipped after mirroring", i)
		}
	}
}

func TestWriteSTL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, "board", UnitRect(), &Mesh{}); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	out := buf.String()
	if got := strings.Count(out, "facet normal"); got != 2 {
		t.Errorf("facets = %d, want 2", got)
	}
	if !strings.HasPrefix(out, "solid board\n") || !strings.HasSuffix(out, "endsolid board\n") {
		t.Errorf("bad solid framing:\n%s", out)
	}
}
