// Package scene derives every renderable surface from a board document and
// owns them between rebuilds: the substrate, the instanced pad and hole
// batches, and one ribbon mesh per trace.
//
// A rebuild is synchronous and all-or-nothing. Everything derived from the
// previous document is released (and every Releaser told about it) before
// anything for the new document is allocated.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/batch"
	"github.com/gogpu/boardview/internal/cache"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/layer"
	"github.com/gogpu/boardview/internal/ribbon"
	"github.com/gogpu/boardview/internal/shading"
)

// DefaultRibbonCache is the number of tessellated trace outlines kept
// across rebuilds.
const DefaultRibbonCache = 4096

// ErrDuplicateID marks a component whose id was already used by an earlier
// record of the same document.
var ErrDuplicateID = errors.New("scene: duplicate component id")

// Releaser frees resources allocated for derived surfaces.
type Releaser interface {
	batch.Releaser
	ReleaseMesh(m *Mesh)
}

// Config holds the scene construction parameters. Zero values select
// defaults.
type Config struct {
	LayerOffset float64
	StackOffset float64
	HoleSlack   float64

	PadMaterial       *shading.Material
	HoleMaterial      *shading.Material
	TraceMaterial     *shading.Material
	SubstrateMaterial *shading.Material

	// RibbonCache bounds the tessellation cache; negative disables it.
	RibbonCache int

	Logger *slog.Logger
}

// Report summarizes one rebuild.
type Report struct {
	Generation uint64
	Batches    int
	Instances  map[batch.Key]int
	Ribbons    int
	Skipped    []batch.Skip
	Duration   time.Duration

	// CachedRibbons counts ribbons whose geometry was reused.
	CachedRibbons int
}

// Scene is the set of derived surfaces for one document.
type Scene struct {
	comp      *layer.Compositor
	manager   *batch.Manager
	doc       board.Document
	substrate *Mesh
	ribbons   []*Mesh
	byID      map[string]*Mesh
	releasers []Releaser
	pending   bool
	gen       uint64
	log       *slog.Logger
	meshes    *cache.LRU[string, *geom.Mesh]

	traceMaterial     shading.Material
	substrateMaterial shading.Material
}

// New creates an empty scene.
func New(cfg Config) *Scene {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	comp := layer.NewCompositor(cfg.LayerOffset, cfg.StackOffset)
	opts := []batch.Option{batch.WithLogger(log)}
	if cfg.HoleSlack > 0 {
		opts = append(opts, batch.WithHoleSlack(cfg.HoleSlack))
	}
	pad, hole := shading.Copper, shading.Drill
	if cfg.PadMaterial != nil {
		pad = *cfg.PadMaterial
	}
	if cfg.HoleMaterial != nil {
		hole = *cfg.HoleMaterial
	}
	opts = append(opts, batch.WithMaterials(pad, hole))

	s := &Scene{
		comp:              comp,
		meshes:            newRibbonCache(cfg.RibbonCache),
		manager:           batch.NewManager(comp, opts...),
		byID:              make(map[string]*Mesh),
		log:               log,
		traceMaterial:     shading.TraceCopper,
		substrateMaterial: shading.Substrate,
	}
	if cfg.TraceMaterial != nil {
		s.traceMaterial = *cfg.TraceMaterial
	}
	if cfg.SubstrateMaterial != nil {
		s.substrateMaterial = *cfg.SubstrateMaterial
	}
	return s
}

// AddReleaser registers r for batch and mesh disposal notifications.
func (s *Scene) AddReleaser(r Releaser) {
	s.releasers = append(s.releasers, r)
	s.manager.AddReleaser(r)
}

// RemoveReleaser unregisters r from both notifications.
func (s *Scene) RemoveReleaser(r Releaser) {
	s.releasers = slices.DeleteFunc(s.releasers, func(x Releaser) bool { return x == r })
	s.manager.RemoveReleaser(r)
}

// Compositor returns the layer groups.
func (s *Scene) Compositor() *layer.Compositor { return s.comp }

// Manager returns the batch manager.
func (s *Scene) Manager() *batch.Manager { return s.manager }

// InitBoard replaces the board configuration, resets the layer offsets and
// rebuilds the substrate. Components are kept; a rebuild is scheduled so
// their heights follow the new thickness.
func (s *Scene) InitBoard(cfg board.BoardConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("init board: %w", err)
	}
	s.doc.Board = cfg
	s.comp.Reset(cfg.Thickness)

	if s.substrate != nil {
		s.releaseMesh(s.substrate)
	}
	s.gen++
	s.substrate = &Mesh{
		Geometry:   geom.Box(cfg.Width, cfg.Thickness, cfg.Height),
		Node:       layer.NewNode("substrate"),
		Tag:        shading.TagPlain,
		Material:   s.substrateMaterial,
		generation: s.gen,
	}
	s.comp.MustGroup(layer.Board).Attach(s.substrate.Node)
	s.pending = true
	return nil
}

// Board returns the current board configuration.
func (s *Scene) Board() board.BoardConfig { return s.doc.Board }

// SetComponents replaces the component list and schedules a rebuild. The
// list is copied.
func (s *Scene) SetComponents(list []board.Component) {
	s.doc.Components = board.Document{Components: list}.Clone().Components
	s.pending = true
}

// MarkDirty schedules a rebuild after an in-place document edit.
func (s *Scene) MarkDirty() { s.pending = true }

// Pending reports whether a rebuild is scheduled.
func (s *Scene) Pending() bool { return s.pending }

// Document returns the live document. Drag updates write into it.
func (s *Scene) Document() *board.Document { return &s.doc }

// Snapshot returns a deep copy of the current document.
func (s *Scene) Snapshot() board.Document { return s.doc.Clone() }

// Component returns the live component with the given id, or nil.
func (s *Scene) Component(id string) *board.Component {
	if i := s.doc.Find(id); i >= 0 {
		return &s.doc.Components[i]
	}
	return nil
}

// Substrate returns the substrate mesh, or nil before InitBoard.
func (s *Scene) Substrate() *Mesh { return s.substrate }

// Ribbons returns the trace meshes in document order.
func (s *Scene) Ribbons() []*Mesh { return s.ribbons }

// Ribbon returns the mesh of trace id, or nil.
func (s *Scene) Ribbon(id string) *Mesh { return s.byID[id] }

// Meshes returns all standalone meshes: substrate first, then ribbons.
func (s *Scene) Meshes() []*Mesh {
	out := make([]*Mesh, 0, len(s.ribbons)+1)
	if s.substrate != nil {
		out = append(out, s.substrate)
	}
	return append(out, s.ribbons...)
}

// Rebuild releases every derived surface and rebuilds them from the
// current document. Malformed records are skipped and reported.
func (s *Scene) Rebuild() Report {
	start := time.Now()
	for _, r := range s.ribbons {
		s.releaseMesh(r)
	}
	s.ribbons = nil
	clear(s.byID)

	var skipped []batch.Skip
	seen := make(map[string]bool, len(s.doc.Components))
	unique := make([]board.Component, 0, len(s.doc.Components))
	for _, c := range s.doc.Components {
		if c.ID != "" && seen[c.ID] {
			skipped = append(skipped, batch.Skip{ID: c.ID, Kind: c.Type, Err: ErrDuplicateID})
			s.log.Warn("scene: skipping component", "id", c.ID, "type", c.Type, "err", ErrDuplicateID)
			continue
		}
		seen[c.ID] = true
		unique = append(unique, c)
	}

	skipped = append(skipped, s.manager.Rebuild(unique)...)

	s.gen++
	cached := 0
	for i := range unique {
		c := &unique[i]
		if c.Type.Instanced() {
			continue
		}
		if err := c.Validate(); err != nil {
			skipped = append(skipped, batch.Skip{ID: c.ID, Kind: c.Type, Err: err})
			s.log.Warn("scene: skipping component", "id", c.ID, "type", c.Type, "err", err)
			continue
		}
		mesh, hit := s.tessellate(c)
		if hit {
			cached++
		}
		if mesh.Empty() {
			err := fmt.Errorf("component %q collapses to a single point: %w", c.ID, board.ErrDegenerate)
			skipped = append(skipped, batch.Skip{ID: c.ID, Kind: c.Type, Err: err})
			s.log.Debug("scene: omitting degenerate trace", "id", c.ID)
			continue
		}
		m := &Mesh{
			ID:         c.ID,
			Kind:       board.KindTrace,
			Geometry:   mesh,
			Node:       layer.NewNode(c.ID),
			Tag:        shading.TagRibbon,
			Material:   s.traceMaterial,
			Pickable:   true,
			generation: s.gen,
		}
		s.comp.MustGroup(layer.ForLayer(c.Layer)).Attach(m.Node)
		s.ribbons = append(s.ribbons, m)
		s.byID[c.ID] = m
	}
	s.pending = false

	rep := Report{
		Generation:    s.gen,
		Ribbons:       len(s.ribbons),
		CachedRibbons: cached,
		Skipped:       skipped,
		Instances:     make(map[batch.Key]int),
	}
	for _, b := range s.manager.Batches() {
		rep.Batches++
		rep.Instances[b.Key] = b.Count()
	}
	rep.Duration = time.Since(start)
	s.log.Debug("scene: rebuilt", "generation", rep.Generation, "batches", rep.Batches,
		"ribbons", rep.Ribbons, "cached", cached, "skipped", len(skipped), "duration", rep.Duration)
	return rep
}

// Close releases every derived surface, including the substrate.
func (s *Scene) Close() {
	for _, r := range s.ribbons {
		s.releaseMesh(r)
	}
	s.ribbons = nil
	clear(s.byID)
	s.manager.Release()
	if s.substrate != nil {
		s.releaseMesh(s.substrate)
		s.substrate = nil
	}
}

func newRibbonCache(capacity int) *cache.LRU[string, *geom.Mesh] {
	switch {
	case capacity < 0:
		return nil
	case capacity == 0:
		capacity = DefaultRibbonCache
	}
	return cache.New[string, *geom.Mesh](capacity)
}

// tessellate returns the outline mesh for trace c. Meshes are never
// mutated after tessellation, so equal paths share one.
func (s *Scene) tessellate(c *board.Component) (*geom.Mesh, bool) {
	pts := ribbon.Points(c)
	if s.meshes == nil {
		return ribbon.Tessellate(pts, c.Width), false
	}
	key := ribbonKey(pts, c.Width)
	if m, ok := s.meshes.Get(key); ok {
		return m, true
	}
	m := ribbon.Tessellate(pts, c.Width)
	s.meshes.Set(key, m)
	return m, false
}

// ribbonKey encodes the exact bits of the path and width.
func ribbonKey(pts []r2.Vec, width float64) string {
	buf := make([]byte, 0, (len(pts)*2+1)*12)
	buf = strconv.AppendUint(buf, math.Float64bits(width), 36)
	for _, p := range pts {
		buf = append(buf, ';')
		buf = strconv.AppendUint(buf, math.Float64bits(p.X), 36)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, math.Float64bits(p.Y), 36)
	}
	return string(buf)
}

// CacheStats returns the tessellation cache statistics.
func (s *Scene) CacheStats() cache.Stats {
	if s.meshes == nil {
		return cache.Stats{}
	}
	return s.meshes.Stats()
}

func (s *Scene) releaseMesh(m *Mesh) {
	for _, r := range s.releasers {
		r.ReleaseMesh(m)
	}
	if g := m.Node.Group(); g != nil {
		g.Detach(m.Node)
	}
}

// SkipReason maps a skip error to a short label for logs and metrics.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, board.ErrMissingID):
		return "missing_id"
	case errors.Is(err, board.ErrUnknownKind):
		return "unknown_type"
	case errors.Is(err, board.ErrInvalidLayer):
		return "invalid_layer"
	case errors.Is(err, board.ErrMissingField):
		return "missing_field"
	case errors.Is(err, board.ErrDegenerate):
		return "degenerate"
	}
	return "other"
}
