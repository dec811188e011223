package geom

import (
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"
)

// WriteSTL writes the meshes as a single ASCII STL solid.
func WriteSTL(w io.Writer, name string, meshes ...*Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, m := range meshes {
		if m.Empty() {
			continue
		}
		for i := 0; i < m.TriangleCount(); i++ {
			n := m.FaceNormal(i)
			if l := r3.Norm(n); l > 0 {
				n = r3.Scale(1/l, n)
			}
			a, b, c := m.Triangle(i)
			fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
			fmt.Fprintf(bw, "    outer loop\n")
			for _, p := range [3]r3.Vec{a, b, c} {
				fmt.Fprintf(bw, "      vertex %g %g %g\n", p.X, p.Y, p.Z)
			}
			fmt.Fprintf(bw, "    endloop\n")
			fmt.Fprintf(bw, "  endfacet\n")
		}
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	return nil
}
