package scene

import (
	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// Mesh is a standalone surface: one ribbon per trace, plus the substrate.
// Its geometry is in the local space of Node.
type Mesh struct {
	ID       string
	Kind     board.Kind
	Geometry *geom.Mesh
	Node     *layer.Node
	Tag      shading.ShapeTag
	Material shading.Material
	Pickable bool

	hovered        bool
	selected       bool
	signalsDirty   bool
	transformDirty bool
	generation     uint64
}

// Generation identifies the rebuild that created the mesh.
func (m *Mesh) Generation() uint64 { return m.generation }

// World returns the mesh-to-board transform.
func (m *Mesh) World() xform.Mat4 { return m.Node.World() }

// Signals returns the mesh's highlight signals.
func (m *Mesh) Signals() shading.Signals {
	return shading.Signals{Hovered: m.hovered, Selected: m.selected}
}

// SetHovered sets the hover signal.
func (m *Mesh) SetHovered(v bool) {
	if m.hovered != v {
		m.hovered = v
		m.signalsDirty = true
	}
}

// SetSelected sets the selection signal.
func (m *Mesh) SetSelected(v bool) {
	if m.selected != v {
		m.selected = v
		m.signalsDirty = true
	}
}

// SetLocal replaces the node transform and flags it for re-upload. The
// geometry itself is untouched.
func (m *Mesh) SetLocal(t xform.TRS) {
	m.Node.Local = t
	m.transformDirty = true
}

// TakeSignalsDirty reports and resets the signal change flag.
func (m *Mesh) TakeSignalsDirty() bool {
	d := m.signalsDirty
	m.signalsDirty = false
	return d
}

// TakeTransformDirty reports and resets the transform change flag.
func (m *Mesh) TakeTransformDirty() bool {
	d := m.transformDirty
	m.transformDirty = false
	return d
}
