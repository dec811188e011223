package boardview

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/boardview/internal/shading"
)

// Option configures an Engine during creation.
//
// Example:
//
//	e := boardview.NewEngine(
//	    boardview.WithHoleSlack(1.06),
//	    boardview.WithMetrics(prometheus.DefaultRegisterer),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	layerOffset float64
	stackOffset float64
	holeSlack   float64
	gizmoRadius float64
	materials   Materials
	registerer  prometheus.Registerer
	logger      *slog.Logger
	labels      bool
	clear       string
}

// Material overrides the look of one surface family. Colors are hex
// strings ("#RRGGBB" or "#RRGGBBAA"); empty fields keep the stock value.
type Material struct {
	Base   string  `yaml:"base"`
	Hover  string  `yaml:"hover"`
	Select string  `yaml:"select"`
	Edge   string  `yaml:"edge"`
	Band   float64 `yaml:"band"`
}

// Materials holds per-family overrides. Nil entries keep the stock material.
type Materials struct {
	Pad       *Material `yaml:"pad"`
	Hole      *Material `yaml:"hole"`
	Trace     *Material `yaml:"trace"`
	Substrate *Material `yaml:"substrate"`
}

// WithLayerOffsets overrides the extra height of the copper groups above
// and below the substrate faces, and the spacing between stacked pad
// surfaces. Zero keeps the default.
func WithLayerOffsets(layer, stack float64) Option {
	return func(o *engineOptions) {
		o.layerOffset = layer
		o.stackOffset = stack
	}
}

// WithHoleSlack sets how far drilled holes extend past the substrate, as a
// factor of its thickness. Values are clamped to [1.05, 1.10].
func WithHoleSlack(f float64) Option {
	return func(o *engineOptions) { o.holeSlack = f }
}

// WithGizmoRadius sets the radius of the translation handle.
func WithGizmoRadius(r float64) Option {
	return func(o *engineOptions) { o.gizmoRadius = r }
}

// WithMaterials overrides the stock surface materials.
func WithMaterials(m Materials) Option {
	return func(o *engineOptions) { o.materials = m }
}

// WithMetrics registers the engine collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *engineOptions) { o.registerer = reg }
}

// WithLogger sets the engine logger instead of the package default.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithSnapshotLabels draws component ids onto CPU snapshots.
func WithSnapshotLabels(on bool) Option {
	return func(o *engineOptions) { o.labels = on }
}

// WithClearColor sets the background color as a hex string.
func WithClearColor(hex string) Option {
	return func(o *engineOptions) { o.clear = hex }
}

// resolve applies m over base. Invalid colors are reported and skipped.
func (m *Material) resolve(base shading.Material, log *slog.Logger) shading.Material {
	if m == nil {
		return base
	}
	out := base
	for _, f := range []struct {
		name string
		hex  string
		dst  *shading.RGBA
	}{
		{"base", m.Base, &out.Base},
		{"hover", m.Hover, &out.Hover},
		{"select", m.Select, &out.Select},
		{"edge", m.Edge, &out.Edge},
	} {
		if f.hex == "" {
			continue
		}
		c, err := shading.ParseHex(f.hex)
		if err != nil {
			log.Warn("boardview: ignoring material color", "field", f.name, "err", err)
			continue
		}
		*f.dst = c
	}
	if m.Band > 0 {
		out.Band = m.Band
	}
	return out
}
