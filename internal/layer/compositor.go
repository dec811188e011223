// Package layer owns the three coordinate subspaces every renderable is
// attached to: the board substrate and the top and bottom conductive
// layers.
//
// Layers are separated from the substrate faces by a small physical
// distance rather than a depth bias, so that coplanar surfaces never fight
// in the depth buffer regardless of camera angle or driver. Within a layer,
// pads sit one further step away from the substrate than traces.
package layer

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/xform"
)

// Name identifies a group.
type Name string

// Group names.
const (
	Board  Name = "board"
	Top    Name = "top"
	Bottom Name = "bottom"
)

// Default separations, in board units.
const (
	DefaultLayerOffset = 0.005 // layer group above/below the substrate face
	DefaultStackOffset = 0.005 // pads above traces within a layer group
)

// ForLayer maps a component layer to its group.
func ForLayer(l board.Layer) Name {
	if l.Normalize() == board.LayerBottom {
		return Bottom
	}
	return Top
}

// Node is anything placed in a group: a batch, a ribbon mesh, a proxy.
type Node struct {
	Name  string
	Local xform.TRS

	group *Group
}

// NewNode returns a detached node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Local: xform.NewTRS()}
}

// Group returns the group n is attached to, or nil.
func (n *Node) Group() *Group { return n.group }

// World returns the node's transform in board space.
func (n *Node) World() xform.Mat4 {
	if n.group == nil {
		return n.Local.Matrix()
	}
	return n.group.Matrix().Mul(n.Local.Matrix())
}

// Group is an attachment point with a fixed vertical offset.
type Group struct {
	name     Name
	offsetY  float64
	children []*Node
}

// Name returns the group name.
func (g *Group) Name() Name { return g.name }

// OffsetY returns the group's height above the substrate midplane.
func (g *Group) OffsetY() float64 { return g.offsetY }

// Matrix returns the group-to-board transform.
func (g *Group) Matrix() xform.Mat4 {
	return xform.Translate(r3.Vec{Y: g.offsetY})
}

// Attach moves n into g, detaching it from any previous group.
func (g *Group) Attach(n *Node) {
	if n.group == g {
		return
	}
	if n.group != nil {
		n.group.Detach(n)
	}
	n.group = g
	g.children = append(g.children, n)
}

// Detach removes n from g. It is a no-op when n is not a child of g.
func (g *Group) Detach(n *Node) {
	i := slices.Index(g.children, n)
	if i < 0 {
		return
	}
	g.children = slices.Delete(g.children, i, i+1)
	n.group = nil
}

// Children returns the attached nodes in attachment order.
func (g *Group) Children() []*Node { return g.children }

// Compositor holds the board, top and bottom groups.
type Compositor struct {
	layerOffset float64
	stackOffset float64
	thickness   float64
	groups      map[Name]*Group
}

// NewCompositor creates a compositor with the given separations. Zero
// values select the defaults.
func NewCompositor(layerOffset, stackOffset float64) *Compositor {
	if layerOffset <= 0 {
		layerOffset = DefaultLayerOffset
	}
	if stackOffset <= 0 {
		stackOffset = DefaultStackOffset
	}
	c := &Compositor{
		layerOffset: layerOffset,
		stackOffset: stackOffset,
		groups: map[Name]*Group{
			Board:  {name: Board},
			Top:    {name: Top},
			Bottom: {name: Bottom},
		},
	}
	return c
}

// Reset recomputes the group offsets for a substrate of the given
// thickness. Attached nodes keep their local transforms.
func (c *Compositor) Reset(thickness float64) {
	c.thickness = thickness
	face := thickness/2 + c.layerOffset
	c.groups[Board].offsetY = 0
	c.groups[Top].offsetY = face
	c.groups[Bottom].offsetY = -face
}

// Thickness returns the substrate thickness of the last Reset.
func (c *Compositor) Thickness() float64 { return c.thickness }

// Group returns the named attachment point.
func (c *Compositor) Group(name Name) (*Group, error) {
	g, ok := c.groups[name]
	if !ok {
		return nil, fmt.Errorf("layer: unknown group %q", name)
	}
	return g, nil
}

// MustGroup is like Group but panics on an unknown name. It is meant for
// the three constant names.
func (c *Compositor) MustGroup(name Name) *Group {
	g, err := c.Group(name)
	if err != nil {
		panic(err)
	}
	return g
}

// StackOffset returns the local height of pads inside the given group:
// away from the substrate on both layers, zero in the board group.
func (c *Compositor) StackOffset(name Name) float64 {
	switch name {
	case Top:
		return c.stackOffset
	case Bottom:
		return -c.stackOffset
	}
	return 0
}

// PadHeight returns the absolute height of a pad on layer l.
func (c *Compositor) PadHeight(l board.Layer) float64 {
	name := ForLayer(l)
	return c.groups[name].offsetY + c.StackOffset(name)
}
