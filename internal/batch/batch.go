// Package batch groups pads and holes into instanced draw batches, one per
// (shape kind, layer) pair that has at least one component.
//
// A batch owns an ordered list of component ids in parallel with its
// per-instance transforms: the instance slot a ray hit reports is mapped
// back to a component through that list. Batches are never patched by a
// document change. Every rebuild releases all batches and allocates new
// ones sized exactly to their group; only a drag writes into an existing
// batch, one slot at a time.
package batch

import (
	"fmt"
	"slices"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// Key identifies a batch.
type Key struct {
	Kind  board.Kind
	Layer board.Layer
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Kind, k.Layer) }

// KeyFor returns the batch key of an instanced component. Holes pass
// through the whole board, so their layer is normalized to top.
func KeyFor(c *board.Component) Key {
	if c.Type == board.KindHole {
		return Key{Kind: board.KindHole, Layer: board.LayerTop}
	}
	return Key{Kind: c.Type, Layer: c.Layer.Normalize()}
}

// keyOrder fixes the iteration order of batches.
var keyOrder = []Key{
	{board.KindRect, board.LayerTop},
	{board.KindRect, board.LayerBottom},
	{board.KindRound, board.LayerTop},
	{board.KindRound, board.LayerBottom},
	{board.KindHole, board.LayerTop},
}

// Template is the geometry and shading shared by every instance of a kind.
// Templates live as long as their Manager.
type Template struct {
	Kind     board.Kind
	Mesh     *geom.Mesh
	Tag      shading.ShapeTag
	Material shading.Material
}

// Batch is one draw unit of identical-geometry instances.
type Batch struct {
	Key      Key
	Template *Template
	Node     *layer.Node

	ids      []string
	slots    map[string]int
	matrices []xform.Mat4

	dirty        []bool
	dirtyCount   int
	hovered      int
	selected     int
	signalsDirty bool
	generation   uint64
}

func newBatch(key Key, tmpl *Template, n int, generation uint64) *Batch {
	return &Batch{
		Key:        key,
		Template:   tmpl,
		Node:       layer.NewNode(key.String()),
		ids:        make([]string, 0, n),
		slots:      make(map[string]int, n),
		matrices:   make([]xform.Mat4, 0, n),
		dirty:      make([]bool, n),
		hovered:    shading.NoSlot,
		selected:   shading.NoSlot,
		generation: generation,
	}
}

func (b *Batch) add(id string, m xform.Mat4) {
	b.slots[id] = len(b.ids)
	b.ids = append(b.ids, id)
	b.matrices = append(b.matrices, m)
}

// Count returns the number of instances.
func (b *Batch) Count() int { return len(b.ids) }

// Generation identifies the rebuild that created the batch.
func (b *Batch) Generation() uint64 { return b.generation }

// ID returns the component id of an instance slot.
func (b *Batch) ID(slot int) string { return b.ids[slot] }

// IDs returns a copy of the slot-ordered id list.
func (b *Batch) IDs() []string { return slices.Clone(b.ids) }

// Slot returns the instance slot holding component id.
func (b *Batch) Slot(id string) (int, bool) {
	s, ok := b.slots[id]
	return s, ok
}

// Matrix returns the instance transform in the batch's group space.
func (b *Batch) Matrix(slot int) xform.Mat4 { return b.matrices[slot] }

// Matrices returns the slot-ordered instance transforms. The slice is
// owned by the batch and must not be modified.
func (b *Batch) Matrices() []xform.Mat4 { return b.matrices }

// World returns the instance transform in board space.
func (b *Batch) World(slot int) xform.Mat4 {
	return b.Node.World().Mul(b.matrices[slot])
}

// SetMatrix replaces one instance transform and flags only that slot for
// re-upload.
func (b *Batch) SetMatrix(slot int, m xform.Mat4) {
	b.matrices[slot] = m
	if !b.dirty[slot] {
		b.dirty[slot] = true
		b.dirtyCount++
	}
}

// DirtySlots returns the slots written since the last ClearDirty, in
// ascending order.
func (b *Batch) DirtySlots() []int {
	if b.dirtyCount == 0 {
		return nil
	}
	out := make([]int, 0, b.dirtyCount)
	for i, d := range b.dirty {
		if d {
			out = append(out, i)
		}
	}
	return out
}

// ClearDirty marks every slot as uploaded.
func (b *Batch) ClearDirty() {
	if b.dirtyCount == 0 {
		return
	}
	clear(b.dirty)
	b.dirtyCount = 0
}

// Hovered returns the hovered slot or shading.NoSlot.
func (b *Batch) Hovered() int { return b.hovered }

// Selected returns the selected slot or shading.NoSlot.
func (b *Batch) Selected() int { return b.selected }

// SetHovered points the hover signal at one slot (or NoSlot).
func (b *Batch) SetHovered(slot int) {
	if b.hovered != slot {
		b.hovered = slot
		b.signalsDirty = true
	}
}

// SetSelected points the selection signal at one slot (or NoSlot).
func (b *Batch) SetSelected(slot int) {
	if b.selected != slot {
		b.selected = slot
		b.signalsDirty = true
	}
}

// Signals returns the highlight signals of one slot.
func (b *Batch) Signals(slot int) shading.Signals {
	return shading.SlotSignals(slot, b.hovered, b.selected)
}

// TakeSignalsDirty reports whether a signal changed since the last call
// and resets the flag.
func (b *Batch) TakeSignalsDirty() bool {
	d := b.signalsDirty
	b.signalsDirty = false
	return d
}
