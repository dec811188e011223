// Package metrics exposes rebuild, instance and interaction counters for a
// boardview engine as Prometheus collectors.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/batch"
	"github.com/gogpu/boardview/internal/pick"
	"github.com/gogpu/boardview/internal/scene"
)

const namespace = "boardview"

// Recorder owns the engine collectors. The zero value is not usable; use New.
type Recorder struct {
	rebuilds   prometheus.Counter
	duration   prometheus.Histogram
	instances  *prometheus.GaugeVec
	ribbons    prometheus.Gauge
	skipped    *prometheus.CounterVec
	selections *prometheus.CounterVec
	deselects  prometheus.Counter
	drags      *prometheus.CounterVec

	// keys seen on the previous rebuild, reset to zero when they vanish
	lastKeys map[batch.Key]bool
}

var _ pick.Observer = (*Recorder)(nil)

// New creates the collectors and registers them on reg. A nil reg skips
// registration, which keeps tests and throwaway engines independent of
// the default registry.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Full scene rebuilds performed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Wall time of one full scene rebuild.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		instances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instances",
			Help:      "Instances per batch after the last rebuild.",
		}, []string{"kind", "layer"}),
		ribbons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ribbons",
			Help:      "Trace ribbons after the last rebuild.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_components_total",
			Help:      "Component records skipped during rebuild.",
		}, []string{"reason"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Components selected by pointer.",
		}, []string{"kind"}),
		deselects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deselections_total",
			Help:      "Selections cleared.",
		}),
		drags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drag_updates_total",
			Help:      "Position updates applied while dragging.",
		}, []string{"kind"}),
		lastKeys: make(map[batch.Key]bool),
	}
	if reg == nil {
		return r, nil
	}
	for _, c := range r.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.rebuilds, r.duration, r.instances, r.ribbons,
		r.skipped, r.selections, r.deselects, r.drags,
	}
}

// ObserveRebuild records one rebuild report.
func (r *Recorder) ObserveRebuild(rep scene.Report) {
	r.rebuilds.Inc()
	r.duration.Observe(rep.Duration.Seconds())
	r.ribbons.Set(float64(rep.Ribbons))

	for key := range r.lastKeys {
		if _, ok := rep.Instances[key]; !ok {
			r.instances.WithLabelValues(string(key.Kind), string(key.Layer)).Set(0)
			delete(r.lastKeys, key)
		}
	}
	for key, n := range rep.Instances {
		r.instances.WithLabelValues(string(key.Kind), string(key.Layer)).Set(float64(n))
		r.lastKeys[key] = true
	}
	for _, s := range rep.Skipped {
		r.skipped.WithLabelValues(scene.SkipReason(s.Err)).Inc()
	}
}

// Selected implements pick.Observer.
func (r *Recorder) Selected(kind board.Kind) { r.selections.WithLabelValues(string(kind)).Inc() }

// Deselected implements pick.Observer.
func (r *Recorder) Deselected() { r.deselects.Inc() }

// Dragged implements pick.Observer.
func (r *Recorder) Dragged(kind board.Kind) { r.drags.WithLabelValues(string(kind)).Inc() }
