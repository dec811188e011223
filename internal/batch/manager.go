package batch

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// Hole slack bounds. The drilled cylinder is stretched past the substrate
// thickness by this factor so its caps never share a plane with the board
// faces.
const (
	DefaultHoleSlack = 1.08
	MinHoleSlack     = 1.05
	MaxHoleSlack     = 1.10
)

// Releaser is notified when a batch is about to be discarded so it can
// free whatever it allocated for it (GPU buffers, bind groups).
type Releaser interface {
	ReleaseBatch(b *Batch)
}

// Skip records a component left out of a rebuild.
type Skip struct {
	ID   string
	Kind board.Kind
	Err  error
}

// Manager owns the shared templates and the current set of batches.
type Manager struct {
	comp      *layer.Compositor
	templates map[board.Kind]*Template
	batches   map[Key]*Batch
	releasers []Releaser
	slack     float64
	gen       uint64
	log       *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHoleSlack sets the hole height factor, clamped to
// [MinHoleSlack, MaxHoleSlack].
func WithHoleSlack(s float64) Option {
	return func(m *Manager) {
		m.slack = math.Min(math.Max(s, MinHoleSlack), MaxHoleSlack)
	}
}

// WithLogger sets the logger used to report skipped components.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMaterials overrides the pad and hole materials.
func WithMaterials(pad, hole shading.Material) Option {
	return func(m *Manager) {
		m.templates[board.KindRect].Material = pad
		m.templates[board.KindRound].Material = pad
		m.templates[board.KindHole].Material = hole
	}
}

// NewManager creates a manager placing batches into comp's groups.
func NewManager(comp *layer.Compositor, opts ...Option) *Manager {
	m := &Manager{
		comp: comp,
		templates: map[board.Kind]*Template{
			board.KindRect:  {Kind: board.KindRect, Mesh: geom.UnitRect(), Tag: shading.TagRect, Material: shading.Copper},
			board.KindRound: {Kind: board.KindRound, Mesh: geom.UnitDisc(), Tag: shading.TagRound, Material: shading.Copper},
			board.KindHole:  {Kind: board.KindHole, Mesh: geom.UnitCylinder(), Tag: shading.TagPlain, Material: shading.Drill},
		},
		batches: make(map[Key]*Batch),
		slack:   DefaultHoleSlack,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// AddReleaser registers r to be told about every discarded batch.
func (m *Manager) AddReleaser(r Releaser) {
	m.releasers = append(m.releasers, r)
}

// RemoveReleaser unregisters r.
func (m *Manager) RemoveReleaser(r Releaser) {
	m.releasers = slices.DeleteFunc(m.releasers, func(x Releaser) bool { return x == r })
}

// Template returns the shared template of an instanced kind.
func (m *Manager) Template(k board.Kind) *Template { return m.templates[k] }

// Templates returns the shared templates in a fixed order.
func (m *Manager) Templates() []*Template {
	return []*Template{m.templates[board.KindRect], m.templates[board.KindRound], m.templates[board.KindHole]}
}

// HoleSlack returns the configured hole height factor.
func (m *Manager) HoleSlack() float64 { return m.slack }

// Batch returns the batch for key, or nil when no component maps to it.
func (m *Manager) Batch(k Key) *Batch { return m.batches[k] }

// Batches returns the live batches in a fixed key order.
func (m *Manager) Batches() []*Batch {
	out := make([]*Batch, 0, len(m.batches))
	for _, k := range keyOrder {
		if b, ok := m.batches[k]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Generation returns the number of completed rebuilds.
func (m *Manager) Generation() uint64 { return m.gen }

// Release discards every batch, notifying the releasers first.
func (m *Manager) Release() {
	for _, k := range keyOrder {
		b, ok := m.batches[k]
		if !ok {
			continue
		}
		for _, r := range m.releasers {
			r.ReleaseBatch(b)
		}
		if g := b.Node.Group(); g != nil {
			g.Detach(b.Node)
		}
		delete(m.batches, k)
	}
}

// Rebuild replaces all batches with ones derived from components.
// Non-instanced kinds are ignored; invalid instanced records are skipped
// and returned. Callers are expected to have removed duplicate ids.
func (m *Manager) Rebuild(components []board.Component) []Skip {
	m.Release()
	m.gen++

	var skipped []Skip
	counts := make(map[Key]int)
	valid := make([]*board.Component, 0, len(components))
	for i := range components {
		c := &components[i]
		if !c.Type.Instanced() {
			continue
		}
		if err := c.Validate(); err != nil {
			skipped = append(skipped, Skip{ID: c.ID, Kind: c.Type, Err: err})
			m.log.Warn("batch: skipping component", "id", c.ID, "type", c.Type, "err", err)
			continue
		}
		counts[KeyFor(c)]++
		valid = append(valid, c)
	}

	for _, k := range keyOrder {
		n := counts[k]
		if n == 0 {
			continue
		}
		b := newBatch(k, m.templates[k.Kind], n, m.gen)
		m.groupFor(k).Attach(b.Node)
		m.batches[k] = b
	}
	for _, c := range valid {
		b := m.batches[KeyFor(c)]
		b.add(c.ID, m.InstanceTRS(c).Matrix())
	}
	m.log.Debug("batch: rebuilt", "generation", m.gen, "batches", len(m.batches), "skipped", len(skipped))
	return skipped
}

func (m *Manager) groupFor(k Key) *layer.Group {
	if k.Kind == board.KindHole {
		return m.comp.MustGroup(layer.Board)
	}
	return m.comp.MustGroup(layer.ForLayer(k.Layer))
}

// GroupFor returns the group a batch with key k is attached to.
func (m *Manager) GroupFor(k Key) *layer.Group { return m.groupFor(k) }

// InstanceTRS derives the group-space transform of a valid instanced
// component: translation to its plane position at the pad stack height,
// a fixed rotation turning the template's +Z face toward the layer's
// outward normal, and a scale from its size.
func (m *Manager) InstanceTRS(c *board.Component) xform.TRS {
	x, _, z, _ := c.Position()
	t := xform.NewTRS()
	switch c.Type {
	case board.KindHole:
		r, _ := c.HoleRadius()
		t.Translation = r3.Vec{X: x, Z: z}
		t.Scale = r3.Vec{X: r, Y: m.comp.Thickness() * m.slack, Z: r}
		return t
	case board.KindRect:
		t.Scale = r3.Vec{X: c.Size[0], Y: c.Size[1], Z: 1}
	case board.KindRound:
		rx, ry := c.RoundRadii()
		t.Scale = r3.Vec{X: rx, Y: ry, Z: 1}
	}
	name := layer.ForLayer(c.Layer)
	t.Translation = r3.Vec{X: x, Y: m.comp.StackOffset(name), Z: z}
	t.Rotation = PlaneRotation(c.Layer)
	return t
}

// PlaneRotation returns the rotation aligning a pad template with layer l.
func PlaneRotation(l board.Layer) xform.Quat {
	if l.Normalize() == board.LayerBottom {
		return xform.AxisAngle(r3.Vec{X: 1}, math.Pi/2)
	}
	return xform.AxisAngle(r3.Vec{X: 1}, -math.Pi/2)
}
