package pick

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/ribbon"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// State is the interaction state of a Controller.
type State int

// Interaction states.
const (
	Idle State = iota
	Hovered
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Hovered:
		return "hovered"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// minDragStep ignores sub-micron pointer jitter while dragging.
const minDragStep = 1e-9

// Observer receives interaction events, typically for metrics.
type Observer interface {
	Selected(kind board.Kind)
	Deselected()
	Dragged(kind board.Kind)
}

// Controller owns the hover and selection refs, the gizmo and the
// transient proxy of a selected batch instance. It is not safe for
// concurrent use; the engine hands it between the input and render stages.
type Controller struct {
	gizmo    Gizmo
	notify   func(*board.Notification)
	observer Observer
	log      *slog.Logger

	hover    Ref
	sel      Ref
	hasHover bool
	hasSel   bool
	dragging bool

	proxy  *layer.Node
	planeY float64
	grab   r3.Vec
}

// Option configures a Controller.
type Option func(*Controller)

// WithGizmoRadius sets the translation handle radius.
func WithGizmoRadius(r float64) Option {
	return func(c *Controller) {
		if r > 0 {
			c.gizmo.Radius = r
		}
	}
}

// WithNotify sets the selection observer. It receives the selected
// component on every selection change and drag update, and nil on
// deselection.
func WithNotify(fn func(*board.Notification)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithObserver sets the interaction event observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns an idle controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		gizmo: Gizmo{Radius: DefaultGizmoRadius},
		log:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetNotify replaces the selection observer.
func (c *Controller) SetNotify(fn func(*board.Notification)) { c.notify = fn }

// State returns the most advanced state currently held.
func (c *Controller) State() State {
	switch {
	case c.dragging:
		return Dragging
	case c.hasSel:
		return Selected
	case c.hasHover:
		return Hovered
	}
	return Idle
}

// Hover returns the hovered ref.
func (c *Controller) Hover() (Ref, bool) { return c.hover, c.hasHover }

// Selection returns the selected ref.
func (c *Controller) Selection() (Ref, bool) { return c.sel, c.hasSel }

// Gizmo returns the translation handle.
func (c *Controller) Gizmo() *Gizmo { return &c.gizmo }

// Proxy returns the transient node standing in for a selected batch
// instance, or nil.
func (c *Controller) Proxy() *layer.Node { return c.proxy }

// PointerMove updates the hover ref from ray. While dragging, hover is
// frozen and the ray drives the gizmo instead.
func (c *Controller) PointerMove(s *scene.Scene, ray xform.Ray) {
	if c.dragging {
		c.drag(s, ray)
		return
	}
	h, ok := Resolve(s, ray)
	if ok == c.hasHover && (!ok || h.Ref == c.hover) {
		return
	}
	if c.hasHover {
		setHover(s, c.hover, false)
	}
	c.hover, c.hasHover = h.Ref, ok
	if ok {
		setHover(s, h.Ref, true)
		c.log.Debug("pick: hover", "id", h.Ref.ID, "t", h.T)
	}
}

// PointerDown handles a primary button press. A gizmo hit starts a drag
// unless the ray lands on a surface other than the selection; otherwise
// the hovered ref becomes the sole selection, or the selection is cleared
// when nothing is hovered. It reports whether the event was consumed.
func (c *Controller) PointerDown(s *scene.Scene, ray xform.Ray) bool {
	if c.hasSel && c.gizmo.Attached() {
		if _, ok := c.gizmo.Hit(ray); ok && !c.othersHit(s, ray) {
			c.beginDrag(ray)
			return true
		}
	}
	if c.hasHover {
		c.selectRef(s, c.hover)
		return true
	}
	c.Deselect(s)
	return false
}

// othersHit reports whether ray hits a pickable surface that is neither
// the selection nor part of the handle.
func (c *Controller) othersHit(s *scene.Scene, ray xform.Ray) bool {
	if c.hasHover && c.hover != c.sel {
		return true
	}
	h, ok := Resolve(s, ray)
	return ok && h.Ref != c.sel
}

// PointerUp ends a drag.
func (c *Controller) PointerUp(*scene.Scene, xform.Ray) {
	if c.dragging {
		c.dragging = false
		c.log.Debug("pick: drag end", "id", c.sel.ID)
	}
}

// Deselect clears both signals, detaches the gizmo and drops the proxy.
// Observers get nil when a selection existed.
func (c *Controller) Deselect(s *scene.Scene) {
	if c.hasHover {
		setHover(s, c.hover, false)
		c.hasHover = false
	}
	if !c.hasSel {
		return
	}
	c.clearSelection(s)
	c.log.Debug("pick: deselect")
	c.emit(nil)
	if c.observer != nil {
		c.observer.Deselected()
	}
}

// Notification describes the current selection, or nil.
func (c *Controller) Notification(s *scene.Scene) *board.Notification {
	if !c.hasSel {
		return nil
	}
	comp := s.Component(c.sel.ID)
	if comp == nil {
		return nil
	}
	return board.NotificationFor(comp)
}

// Reconcile re-resolves hover and selection by component id after a
// rebuild replaced every batch and mesh. Refs whose component vanished
// are cleared; losing the selection notifies observers with nil.
func (c *Controller) Reconcile(s *scene.Scene) {
	if c.hasHover {
		c.hover, c.hasHover = Find(s, c.hover.ID)
		if c.hasHover {
			setHover(s, c.hover, true)
		}
	}
	if !c.hasSel {
		return
	}
	c.dropProxy()
	ref, ok := Find(s, c.sel.ID)
	if !ok {
		c.gizmo.Detach()
		c.hasSel, c.dragging = false, false
		c.log.Debug("pick: selection lost", "id", c.sel.ID)
		c.emit(nil)
		if c.observer != nil {
			c.observer.Deselected()
		}
		return
	}
	c.sel = ref
	setSelected(s, ref, true)
	c.attachGizmo(s)
}

// Find returns the ref currently rendering component id.
func Find(s *scene.Scene, id string) (Ref, bool) {
	if m := s.Ribbon(id); m != nil {
		return Ref{ID: id, Slot: shading.NoSlot, Mesh: true}, true
	}
	for _, b := range s.Manager().Batches() {
		if slot, ok := b.Slot(id); ok {
			return Ref{ID: id, Key: b.Key, Slot: slot}, true
		}
	}
	return Ref{}, false
}

func (c *Controller) selectRef(s *scene.Scene, ref Ref) {
	if c.hasSel && c.sel == ref {
		return
	}
	if c.hasSel {
		c.clearSelection(s)
	}
	c.sel, c.hasSel = ref, true
	setSelected(s, ref, true)
	c.attachGizmo(s)
	c.log.Debug("pick: select", "id", ref.ID)

	comp := s.Component(ref.ID)
	if comp == nil {
		return
	}
	c.emit(board.NotificationFor(comp))
	if c.observer != nil {
		c.observer.Selected(comp.Type)
	}
}

func (c *Controller) clearSelection(s *scene.Scene) {
	setSelected(s, c.sel, false)
	c.dropProxy()
	c.gizmo.Detach()
	c.hasSel, c.dragging = false, false
}

// attachGizmo puts the handle on the selection. A batch instance gets a
// proxy node in the batch's group seeded from its instance transform, so
// manipulating it never touches the batch's own node.
func (c *Controller) attachGizmo(s *scene.Scene) {
	if c.sel.Batched() {
		b := s.Manager().Batch(c.sel.Key)
		if b == nil {
			return
		}
		c.proxy = layer.NewNode("proxy:" + c.sel.ID)
		c.proxy.Local = xform.Decompose(b.Matrix(c.sel.Slot))
		b.Node.Group().Attach(c.proxy)
		c.gizmo.Attach(c.proxy, r3.Vec{})
		return
	}
	m := s.Ribbon(c.sel.ID)
	comp := s.Component(c.sel.ID)
	if m == nil || comp == nil {
		return
	}
	cen := ribbon.Centroid(ribbon.Points(comp))
	// Ribbon geometry is built at absolute plane coordinates while the node
	// carries only the drag offset, so the current points sit at cen minus
	// that offset in mesh space.
	off := m.Node.Local.Translation
	c.gizmo.Attach(m.Node, r3.Vec{X: cen.X - off.X, Z: cen.Y - off.Z})
}

func (c *Controller) dropProxy() {
	if c.proxy == nil {
		return
	}
	if g := c.proxy.Group(); g != nil {
		g.Detach(c.proxy)
	}
	c.proxy = nil
}

func (c *Controller) beginDrag(ray xform.Ray) {
	center := c.gizmo.Center()
	c.planeY = center.Y
	c.grab = r3.Vec{}
	if t, ok := ray.IntersectPlaneY(c.planeY); ok {
		p := ray.At(t)
		c.grab = r3.Vec{X: p.X - center.X, Z: p.Z - center.Z}
	}
	c.dragging = true
	c.log.Debug("pick: drag start", "id", c.sel.ID)
}

func (c *Controller) drag(s *scene.Scene, ray xform.Ray) {
	t, ok := ray.IntersectPlaneY(c.planeY)
	if !ok || !c.gizmo.Attached() {
		return
	}
	p := ray.At(t)
	center := c.gizmo.Center()
	delta := r3.Vec{X: p.X - c.grab.X - center.X, Z: p.Z - c.grab.Z - center.Z}
	if r3.Norm2(delta) < minDragStep*minDragStep {
		return
	}
	c.translate(s, delta)
}

// translate moves the selection by delta in the layer plane and writes the
// result back: one instance slot and the component's pos for batch
// instances, the node transform and the trace points for ribbons.
func (c *Controller) translate(s *scene.Scene, delta r3.Vec) {
	comp := s.Component(c.sel.ID)
	if comp == nil {
		return
	}
	if c.sel.Batched() {
		b := s.Manager().Batch(c.sel.Key)
		if b == nil || c.proxy == nil {
			return
		}
		c.proxy.Local.Translation = r3.Add(c.proxy.Local.Translation, delta)
		b.SetMatrix(c.sel.Slot, c.proxy.Local.Matrix())
		w := c.proxy.World().Translation()
		comp.SetPlanePosition(w.X, w.Z)
	} else {
		m := s.Ribbon(c.sel.ID)
		if m == nil {
			return
		}
		local := m.Node.Local
		local.Translation = r3.Add(local.Translation, delta)
		m.SetLocal(local)
		comp.TranslateTrace(delta.X, delta.Z)
	}
	c.emit(board.NotificationFor(comp))
	if c.observer != nil {
		c.observer.Dragged(comp.Type)
	}
}

func (c *Controller) emit(n *board.Notification) {
	if c.notify != nil {
		c.notify(n)
	}
}

func setHover(s *scene.Scene, r Ref, on bool) {
	if r.Batched() {
		b := s.Manager().Batch(r.Key)
		switch {
		case b == nil:
		case on:
			b.SetHovered(r.Slot)
		case b.Hovered() == r.Slot:
			b.SetHovered(shading.NoSlot)
		}
		return
	}
	if m := s.Ribbon(r.ID); m != nil {
		m.SetHovered(on)
	}
}

func setSelected(s *scene.Scene, r Ref, on bool) {
	if r.Batched() {
		b := s.Manager().Batch(r.Key)
		switch {
		case b == nil:
		case on:
			b.SetSelected(r.Slot)
		case b.Selected() == r.Slot:
			b.SetSelected(shading.NoSlot)
		}
		return
	}
	if m := s.Ribbon(r.ID); m != nil {
		m.SetSelected(on)
	}
}
