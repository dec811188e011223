package pick

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/batch"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

var rectTop = batch.Key{Kind: board.KindRect, Layer: board.LayerTop}

func down(x, z float64) xform.Ray {
	return xform.Ray{Origin: r3.Vec{X: x, Y: 10, Z: z}, Dir: r3.Vec{Y: -1}}
}

func rectPad(id string, x, z float64) board.Component {
	return board.Component{ID: id, Type: board.KindRect, Pos: []float64{x, 0, z}, Size: []float64{3, 5}}
}

func buildScene(t *testing.T, comps ...board.Component) *scene.Scene {
	t.Helper()
	s := scene.New(scene.Config{})
	if err := s.InitBoard(board.BoardConfig{Width: 100, Height: 100, Thickness: 1.6}); err != nil {
		t.Fatal(err)
	}
	s.SetComponents(comps)
	s.Rebuild()
	return s
}

type recorder struct {
	notes                    []*board.Notification
	selects, deselects, drag int
}

func (r *recorder) notify(n *board.Notification) { r.notes = append(r.notes, n) }
func (r *recorder) Selected(board.Kind)          { r.selects++ }
func (r *recorder) Deselected()                  { r.deselects++ }
func (r *recorder) Dragged(board.Kind)           { r.drag++ }

func (r *recorder) last() *board.Notification {
	if len(r.notes) == 0 {
		return nil
	}
	return r.notes[len(r.notes)-1]
}

func newController(r *recorder) *Controller {
	return New(WithNotify(r.notify), WithObserver(r))
}

func TestResolveNearest(t *testing.T) {
	trace := board.Component{ID: "t", Type: board.KindTrace, Points: [][]float64{{0, 0}, {20, 0}}, Width: 1}
	s := buildScene(t, rectPad("p", 10, 0), trace)

	tests := []struct {
		name string
		ray  xform.Ray
		want string
		ok   bool
	}{
		{"pad above trace", down(10, 0), "p", true},
		{"trace only", down(3, 0), "t", true},
		{"substrate only", down(-30, 30), "", false},
		{"off board", down(500, 0), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := Resolve(s, tt.ray)
			if ok != tt.ok || h.Ref.ID != tt.want {
				t.Errorf("Resolve = %q, %v; want %q, %v", h.Ref.ID, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveDistanceIsWorldSpace(t *testing.T) {
	s := buildScene(t, rectPad("p", 0, 0))
	h, ok := Resolve(s, down(0, 0))
	if !ok {
		t.Fatal("no hit")
	}
	if math.Abs(h.T-(10-0.81)) > 1e-9 {
		t.Errorf("t = %v, want %v", h.T, 10-0.81)
	}
}

func TestHoverThenSelect(t *testing.T) {
	r := &recorder{}
	s := buildScene(t, rectPad("p1", 10, 5), rectPad("p2", -10, 5))
	c := newController(r)
	b := s.Manager().Batch(rectTop)

	c.PointerMove(s, down(10, 5))
	if c.State() != Hovered || b.Hovered() != 0 {
		t.Fatalf("state = %v, hovered slot = %d", c.State(), b.Hovered())
	}
	b.TakeSignalsDirty()
	c.PointerMove(s, down(10.5, 5.5))
	if b.TakeSignalsDirty() {
		t.Error("hover signal rewritten for the same ref")
	}

	if !c.PointerDown(s, down(10, 5)) {
		t.Fatal("press over a pad not consumed")
	}
	want := &board.Notification{ID: "p1", Type: board.KindRect, Pos: &[3]float64{10, 0, 5}, Size: []float64{3, 5}}
	if diff := cmp.Diff(want, r.last()); diff != "" {
		t.Errorf("notification (-want +got):\n%s", diff)
	}
	if b.Selected() != 0 || c.State() != Selected {
		t.Errorf("selected slot = %d, state = %v", b.Selected(), c.State())
	}

	// Selecting the other pad replaces the selection.
	c.PointerMove(s, down(-10, 5))
	c.PointerDown(s, down(-10, 5))
	if b.Selected() != 1 || b.Hovered() != 1 {
		t.Errorf("selected = %d hovered = %d, want 1 and 1", b.Selected(), b.Hovered())
	}
	if r.selects != 2 {
		t.Errorf("select events = %d, want 2", r.selects)
	}
	if c.Proxy() == nil || c.Proxy().Group() != b.Node.Group() {
		t.Error("proxy not placed in the batch group")
	}
}

func TestPressOnNothingDeselects(t *testing.T) {
	r := &recorder{}
	s := buildScene(t, rectPad("p1", 10, 5))
	c := newController(r)
	c.PointerMove(s, down(10, 5))
	c.PointerDown(s, down(10, 5))

	c.PointerMove(s, down(-40, -40))
	if c.State() != Selected {
		t.Fatalf("state = %v", c.State())
	}
	if c.PointerDown(s, down(-40, -40)) {
		t.Error("press on empty space consumed")
	}
	if r.last() != nil || r.deselects != 1 {
		t.Errorf("last notification = %+v, deselects = %d", r.last(), r.deselects)
	}
	b := s.Manager().Batch(rectTop)
	if b.Selected() != shading.NoSlot || c.Gizmo().Attached() || c.Proxy() != nil {
		t.Error("deselect left selection state behind")
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
}

func TestDragMovesOneInstance(t *testing.T) {
	r := &recorder{}
	s := buildScene(t, rectPad("a", 0, 0), rectPad("b", 5, 0), rectPad("c", 10, 0))
	c := newController(r)
	b := s.Manager().Batch(rectTop)
	before := append([]xform.Mat4(nil), b.Matrices()...)

	c.PointerMove(s, down(5, 0))
	c.PointerDown(s, down(5, 0))
	if !c.PointerDown(s, down(5, 0)) || c.State() != Dragging {
		t.Fatalf("gizmo press did not start a drag, state = %v", c.State())
	}
	c.PointerMove(s, down(7, 0))
	if c.State() != Dragging {
		t.Fatal("drag ended on move")
	}
	if h, _ := c.Hover(); h.ID != "b" {
		t.Errorf("hover changed during drag to %q", h.ID)
	}

	if diff := cmp.Diff([]int{1}, b.DirtySlots()); diff != "" {
		t.Errorf("dirty slots (-want +got):\n%s", diff)
	}
	for _, slot := range []int{0, 2} {
		if b.Matrix(slot) != before[slot] {
			t.Errorf("sibling slot %d moved", slot)
		}
	}
	if x := b.World(1).Translation().X; math.Abs(x-7) > 1e-9 {
		t.Errorf("dragged instance x = %v, want 7", x)
	}
	if got := s.Component("b").Pos; math.Abs(got[0]-7) > 1e-9 || got[2] != 0 {
		t.Errorf("component pos = %v", got)
	}
	if n := r.last(); n == nil || n.Pos == nil || math.Abs(n.Pos[0]-7) > 1e-9 {
		t.Errorf("drag notification = %+v", n)
	}
	if r.drag != 1 {
		t.Errorf("drag events = %d, want 1", r.drag)
	}

	c.PointerUp(s, down(7, 0))
	if c.State() != Selected {
		t.Errorf("state after release = %v", c.State())
	}
}

func TestDragTrace(t *testing.T) {
	r := &recorder{}
	trace := board.Component{ID: "t", Type: board.KindTrace, Points: [][]float64{{0, 20}, {10, 20}}, Width: 1}
	s := buildScene(t, trace)
	c := newController(r)

	c.PointerMove(s, down(5, 20))
	c.PointerDown(s, down(5, 20))
	n := r.last()
	if n == nil || n.Pos != nil || n.Type != board.KindTrace {
		t.Fatalf("trace notification = %+v", n)
	}
	if !s.Ribbon("t").Signals().Selected {
		t.Error("ribbon selection signal not set")
	}

	center := c.Gizmo().Center()
	if math.Abs(center.X-5) > 1e-9 || math.Abs(center.Z-20) > 1e-9 {
		t.Fatalf("gizmo center = %v", center)
	}
	c.PointerDown(s, down(center.X, center.Z))
	c.PointerMove(s, down(center.X, center.Z+3))

	got := s.Component("t").Points
	if diff := cmp.Diff([][]float64{{0, 23}, {10, 23}}, got, cmp.Comparer(func(a, b float64) bool {
		return math.Abs(a-b) < 1e-9
	})); diff != "" {
		t.Errorf("trace points (-want +got):\n%s", diff)
	}
	m := s.Ribbon("t")
	if !m.TakeTransformDirty() {
		t.Error("ribbon transform not flagged")
	}
	if z := c.Gizmo().Center().Z; math.Abs(z-23) > 1e-9 {
		t.Errorf("gizmo followed to z = %v, want 23", z)
	}
	if r.last().Pos != nil {
		t.Error("trace drag notification carries pos")
	}
}

func TestReconcile(t *testing.T) {
	r := &recorder{}
	s := buildScene(t, rectPad("p1", 10, 5), rectPad("p2", 0, 0))
	c := newController(r)
	c.PointerMove(s, down(0, 0))
	c.PointerDown(s, down(0, 0))
	notes := len(r.notes)

	s.SetComponents([]board.Component{rectPad("p2", 0, 0)})
	s.Rebuild()
	c.Reconcile(s)
	b := s.Manager().Batch(rectTop)
	if ref, ok := c.Selection(); !ok || ref.Slot != 0 || b.Selected() != 0 {
		t.Errorf("selection = %+v, %v; batch selected = %d", ref, ok, b.Selected())
	}
	if b.Hovered() != 0 {
		t.Errorf("hover not restored, slot = %d", b.Hovered())
	}
	if c.Proxy() == nil || c.Proxy().Group() == nil {
		t.Error("proxy not re-created")
	}
	if len(r.notes) != notes {
		t.Error("reconcile with surviving selection emitted a notification")
	}

	s.SetComponents(nil)
	s.Rebuild()
	c.Reconcile(s)
	if c.State() != Idle || r.last() != nil || r.deselects != 1 {
		t.Errorf("state = %v, last = %+v, deselects = %d", c.State(), r.last(), r.deselects)
	}
}

func TestGizmoHit(t *testing.T) {
	s := buildScene(t, rectPad("p", 0, 0))
	c := New(WithGizmoRadius(1))
	g := c.Gizmo()
	if _, ok := g.Hit(down(0, 0)); ok {
		t.Fatal("detached gizmo hit")
	}
	c.PointerMove(s, down(0, 0))
	c.PointerDown(s, down(0, 0))

	tests := []struct {
		x, z float64
		ok   bool
	}{
		{0, 0, true},
		{0.9, 0, true},
		{1.1, 0, false},
	}
	for _, tt := range tests {
		if _, ok := g.Hit(down(tt.x, tt.z)); ok != tt.ok {
			t.Errorf("Hit(%v, %v) = %v, want %v", tt.x, tt.z, ok, tt.ok)
		}
	}
}

func TestPressOnNeighbourInsideGizmoSelectsIt(t *testing.T) {
	r := &recorder{}
	pad := func(id string, x float64) board.Component {
		return board.Component{ID: id, Type: board.KindRect, Pos: []float64{x, 0, 0}, Size: []float64{1.5, 1.5}}
	}
	s := buildScene(t, pad("a", 0), pad("b", 2.54))
	c := newController(r)
	c.PointerMove(s, down(0, 0))
	c.PointerDown(s, down(0, 0))
	if _, ok := c.Gizmo().Hit(down(2, 0)); !ok {
		t.Fatal("neighbour press outside the handle; test geometry is wrong")
	}

	c.PointerMove(s, down(2, 0))
	if h, _ := c.Hover(); h.ID != "b" {
		t.Fatalf("hover = %q, want b", h.ID)
	}
	if !c.PointerDown(s, down(2, 0)) {
		t.Fatal("press on b not consumed")
	}
	if c.State() != Selected {
		t.Errorf("state = %v, want selected", c.State())
	}
	if sel, _ := c.Selection(); sel.ID != "b" {
		t.Errorf("selection = %q, want b", sel.ID)
	}

	// Over empty board inside the handle the press still drags.
	c.PointerMove(s, down(2.54, 1.5))
	if !c.PointerDown(s, down(2.54, 1.5)) || c.State() != Dragging {
		t.Errorf("handle press off the pad: state = %v, want dragging", c.State())
	}
}
