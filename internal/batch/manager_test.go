package batch

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	comp := layer.NewCompositor(0, 0)
	comp.Reset(1.6)
	return NewManager(comp, opts...)
}

func rect(id string, l board.Layer, x, z float64) board.Component {
	return board.Component{ID: id, Type: board.KindRect, Layer: l, Pos: []float64{x, 0, z}, Size: []float64{3, 5}}
}

func round(id string, l board.Layer, x, z, r float64) board.Component {
	return board.Component{ID: id, Type: board.KindRound, Layer: l, Pos: []float64{x, 0, z}, Size: []float64{r}}
}

func hole(id string, x, z, r float64) board.Component {
	return board.Component{ID: id, Type: board.KindHole, Layer: board.LayerBottom, Pos: []float64{x, 0, z}, Radius: r}
}

func TestSinglePadTranslation(t *testing.T) {
	m := newTestManager(t)
	m.Rebuild([]board.Component{rect("p1", board.LayerTop, 10, 5)})

	bs := m.Batches()
	if len(bs) != 1 {
		t.Fatalf("batches = %d, want 1", len(bs))
	}
	b := m.Batch(Key{board.KindRect, board.LayerTop})
	if b == nil || b.Count() != 1 {
		t.Fatalf("smd_rect/top batch = %v", b)
	}
	got := b.World(0).Translation()
	want := r3.Vec{X: 10, Y: 0.81, Z: 5}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 || math.Abs(got.Z-want.Z) > 1e-9 {
		t.Errorf("translation = %v, want %v", got, want)
	}
	if id := b.ID(0); id != "p1" {
		t.Errorf("slot 0 id = %q", id)
	}
}

func TestPadFacesOutward(t *testing.T) {
	m := newTestManager(t)
	m.Rebuild([]board.Component{
		rect("top", board.LayerTop, 0, 0),
		rect("bot", board.LayerBottom, 0, 0),
	})
	up := m.Batch(Key{board.KindRect, board.LayerTop}).World(0).TransformDir(r3.Vec{Z: 1})
	down := m.Batch(Key{board.KindRect, board.LayerBottom}).World(0).TransformDir(r3.Vec{Z: 1})
	if up.Y < 0.999 {
		t.Errorf("top pad normal = %v, want +Y", up)
	}
	if down.Y > -0.999 {
		t.Errorf("bottom pad normal = %v, want -Y", down)
	}
	// Width runs along X, height along Z.
	s := xform.Decompose(m.Batch(Key{board.KindRect, board.LayerTop}).Matrix(0)).Scale
	if math.Abs(s.X-3) > 1e-9 || math.Abs(s.Y-5) > 1e-9 {
		t.Errorf("scale = %v, want (3, 5, 1)", s)
	}
	if y := m.Batch(Key{board.KindRect, board.LayerBottom}).World(0).Translation().Y; math.Abs(y+0.81) > 1e-9 {
		t.Errorf("bottom pad y = %v, want -0.81", y)
	}
}

func TestHoleSpansBoard(t *testing.T) {
	m := newTestManager(t)
	m.Rebuild([]board.Component{hole("h1", 2, 3, 0.4)})
	b := m.Batch(Key{board.KindHole, board.LayerTop})
	if b == nil {
		t.Fatal("hole on bottom layer not normalized to top batch")
	}
	if m.Batch(Key{board.KindHole, board.LayerBottom}) != nil {
		t.Fatal("unexpected bottom hole batch")
	}
	w := b.World(0)
	if y := w.Translation().Y; y != 0 {
		t.Errorf("hole center y = %v, want 0", y)
	}
	top := w.TransformPoint(r3.Vec{Y: 0.5}).Y
	if top <= 0.8 || math.Abs(top-0.8*DefaultHoleSlack) > 1e-9 {
		t.Errorf("hole top = %v, want %v", top, 0.8*DefaultHoleSlack)
	}
}

func TestHoleSlackClamped(t *testing.T) {
	if s := newTestManager(t, WithHoleSlack(2)).HoleSlack(); s != MaxHoleSlack {
		t.Errorf("slack = %v, want %v", s, MaxHoleSlack)
	}
	if s := newTestManager(t, WithHoleSlack(1)).HoleSlack(); s != MinHoleSlack {
		t.Errorf("slack = %v, want %v", s, MinHoleSlack)
	}
}

func TestCountsMatchAndNoEmptyBatches(t *testing.T) {
	comps := []board.Component{
		rect("r1", board.LayerTop, 0, 0),
		rect("r2", "", 1, 0),
		rect("r3", board.LayerBottom, 2, 0),
		round("c1", board.LayerTop, 3, 0, 0.5),
		hole("h1", 4, 0, 0.3),
		hole("h2", 5, 0, 0.3),
		{ID: "t1", Type: board.KindTrace, Points: [][]float64{{0, 0}, {1, 0}}, Width: 0.2},
		{ID: "x1", Type: "fiducial", Pos: []float64{0, 0, 0}},
	}
	m := newTestManager(t)
	m.Rebuild(comps)

	got := map[string]int{}
	for _, b := range m.Batches() {
		got[b.Key.String()] = b.Count()
	}
	want := map[string]int{
		"smd_rect/top":    2,
		"smd_rect/bottom": 1,
		"smd_round/top":   1,
		"hole/top":        2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("batch counts (-want +got):\n%s", diff)
	}
	if m.Batch(Key{board.KindRound, board.LayerBottom}) != nil {
		t.Error("empty key produced a batch")
	}
}

func TestRebuildIdempotent(t *testing.T) {
	comps := []board.Component{
		rect("r1", board.LayerTop, 0, 0),
		round("c1", board.LayerBottom, 3, 0, 0.5),
		hole("h1", 4, 0, 0.3),
	}
	m := newTestManager(t)
	snapshot := func() map[Key][]string {
		out := map[Key][]string{}
		for _, b := range m.Batches() {
			out[b.Key] = b.IDs()
		}
		return out
	}
	m.Rebuild(comps)
	first := snapshot()
	m.Rebuild(comps)
	if diff := cmp.Diff(first, snapshot()); diff != "" {
		t.Errorf("second rebuild differs (-first +second):\n%s", diff)
	}
	if m.Generation() != 2 {
		t.Errorf("generation = %d, want 2", m.Generation())
	}
}

func TestSkipsMalformed(t *testing.T) {
	m := newTestManager(t)
	skipped := m.Rebuild([]board.Component{
		rect("ok", board.LayerTop, 0, 0),
		{ID: "nosize", Type: board.KindRect, Pos: []float64{0, 0, 0}},
		round("tiny", board.LayerTop, 0, 0, 0),
	})
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v, want 2 entries", skipped)
	}
	if !errors.Is(skipped[0].Err, board.ErrMissingField) || !errors.Is(skipped[1].Err, board.ErrDegenerate) {
		t.Errorf("skip reasons = %v, %v", skipped[0].Err, skipped[1].Err)
	}
	if b := m.Batch(Key{board.KindRect, board.LayerTop}); b == nil || b.Count() != 1 {
		t.Error("valid record not rendered")
	}
	if m.Batch(Key{board.KindRound, board.LayerTop}) != nil {
		t.Error("degenerate record produced a batch")
	}
}

type recordingReleaser struct {
	m        *Manager
	released []Key
	stale    bool
}

func (r *recordingReleaser) ReleaseBatch(b *Batch) {
	r.released = append(r.released, b.Key)
	// The replacement must not exist yet.
	if b.Generation() != r.m.Generation() {
		r.stale = true
	}
}

func TestReleaseBeforeReplace(t *testing.T) {
	m := newTestManager(t)
	rr := &recordingReleaser{m: m}
	m.AddReleaser(rr)

	comps := []board.Component{rect("r1", board.LayerTop, 0, 0), hole("h1", 1, 1, 0.2)}
	m.Rebuild(comps)
	if len(rr.released) != 0 {
		t.Fatalf("first rebuild released %v", rr.released)
	}
	topGroup := m.GroupFor(Key{board.KindRect, board.LayerTop})
	m.Rebuild(comps)
	if len(rr.released) != 2 || rr.stale {
		t.Errorf("released = %v, stale = %v", rr.released, rr.stale)
	}
	if n := len(topGroup.Children()); n != 1 {
		t.Errorf("top group children = %d, want 1 after rebuild", n)
	}
	m.Release()
	if len(m.Batches()) != 0 || len(topGroup.Children()) != 0 {
		t.Error("Release left batches attached")
	}
}

func TestSetMatrixTouchesOneSlot(t *testing.T) {
	m := newTestManager(t)
	m.Rebuild([]board.Component{
		rect("a", board.LayerTop, 0, 0),
		rect("b", board.LayerTop, 5, 0),
		rect("c", board.LayerTop, 10, 0),
	})
	b := m.Batch(Key{board.KindRect, board.LayerTop})
	before := append([]xform.Mat4(nil), b.Matrices()...)

	moved := xform.Decompose(b.Matrix(1))
	moved.Translation.X = 7
	b.SetMatrix(1, moved.Matrix())

	if diff := cmp.Diff([]int{1}, b.DirtySlots()); diff != "" {
		t.Errorf("dirty slots (-want +got):\n%s", diff)
	}
	for _, s := range []int{0, 2} {
		if b.Matrix(s) != before[s] {
			t.Errorf("sibling slot %d changed", s)
		}
	}
	b.ClearDirty()
	if len(b.DirtySlots()) != 0 {
		t.Error("ClearDirty left dirty slots")
	}
}

func TestSignals(t *testing.T) {
	m := newTestManager(t)
	m.Rebuild([]board.Component{rect("a", board.LayerTop, 0, 0), rect("b", board.LayerTop, 5, 0)})
	b := m.Batch(Key{board.KindRect, board.LayerTop})
	if b.Hovered() != shading.NoSlot || b.Selected() != shading.NoSlot {
		t.Fatal("fresh batch has signals set")
	}
	b.SetHovered(1)
	if !b.TakeSignalsDirty() || b.TakeSignalsDirty() {
		t.Error("signal dirty flag not raised once")
	}
	if s := b.Signals(1); !s.Hovered || s.Selected {
		t.Errorf("slot 1 signals = %+v", s)
	}
	if s := b.Signals(0); s.Hovered {
		t.Errorf("slot 0 signals = %+v", s)
	}
	b.SetHovered(1)
	if b.TakeSignalsDirty() {
		t.Error("unchanged signal flagged dirty")
	}
}
