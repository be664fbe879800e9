// Package metrics holds the Prometheus collectors shared by the launcher
// core components.
//
// Collectors are registered on an injected prometheus.Registerer so tests
// and embedders can use a private registry. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "launcher"

// Icon lookup tiers.
const (
	TierMemory   = "memory"
	TierDisk     = "disk"
	TierProvider = "provider"
)

// Lookup results.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Icon cache metrics
	IconLookups       *prometheus.CounterVec
	IconEvictions     prometheus.Counter
	IconMemoryBytes   prometheus.Gauge
	IconDiskFailures  prometheus.Counter
	IconRenderSeconds prometheus.Histogram

	// Focus engine metrics
	FocusTransitions     *prometheus.CounterVec
	FocusState           *prometheus.GaugeVec
	FocusPersistFailures prometheus.Counter

	// Store metrics
	StoreEdits        prometheus.Counter
	StoreEditFailures prometheus.Counter
	StoreNotifies     prometheus.Counter
}

// New creates the collectors and registers them on reg.
//
// Parameters:
//   - reg: Registerer for the collectors (nil leaves them unregistered)
//
// Returns the collectors, ready for use.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		IconLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "icon_lookups_total",
				Help:      "Icon cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
		IconEvictions: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "icon_evictions_total",
				Help:      "Icons evicted from the memory tier",
			},
		),
		IconMemoryBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "icon_memory_bytes",
				Help:      "Decoded bytes held by the memory tier",
			},
		),
		IconDiskFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "icon_disk_write_failures_total",
				Help:      "Failed asynchronous disk cache writes",
			},
		),
		IconRenderSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "icon_render_duration_seconds",
				Help:      "Time spent rendering an icon source",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
		),

		FocusTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "focus_transitions_total",
				Help:      "Focus session state transitions by target state",
			},
			[]string{"state"},
		),
		FocusState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "focus_state",
				Help:      "1 for the current focus session state, 0 otherwise",
			},
			[]string{"state"},
		),
		FocusPersistFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "focus_persist_failures_total",
				Help:      "Focus session writes that failed and were dropped",
			},
		),

		StoreEdits: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "store_edits_total",
				Help:      "Committed store edits",
			},
		),
		StoreEditFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "store_edit_failures_total",
				Help:      "Store edits that failed and were rolled back",
			},
		),
		StoreNotifies: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "store_external_changes_total",
				Help:      "Changes to the settings file made by other handles",
			},
		),
	}
}

// IconLookup records a cache lookup at tier.
func (m *Metrics) IconLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.IconLookups.WithLabelValues(tier, result).Inc()
}

// IconEvicted records one memory tier eviction.
func (m *Metrics) IconEvicted() {
	if m == nil {
		return
	}
	m.IconEvictions.Inc()
}

// SetIconMemoryBytes records the memory tier size.
func (m *Metrics) SetIconMemoryBytes(n int64) {
	if m == nil {
		return
	}
	m.IconMemoryBytes.Set(float64(n))
}

// IconDiskWriteFailed records a failed disk cache write.
func (m *Metrics) IconDiskWriteFailed() {
	if m == nil {
		return
	}
	m.IconDiskFailures.Inc()
}

// ObserveIconRender records a render duration in seconds.
func (m *Metrics) ObserveIconRender(seconds float64) {
	if m == nil {
		return
	}
	m.IconRenderSeconds.Observe(seconds)
}

// FocusTransition records a transition into state and marks it current.
func (m *Metrics) FocusTransition(state string, all []string) {
	if m == nil {
		return
	}
	m.FocusTransitions.WithLabelValues(state).Inc()
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.FocusState.WithLabelValues(s).Set(v)
	}
}

// FocusPersistFailed records a dropped focus session write.
func (m *Metrics) FocusPersistFailed() {
	if m == nil {
		return
	}
	m.FocusPersistFailures.Inc()
}

// StoreEdit records the outcome of one store edit.
func (m *Metrics) StoreEdit(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.StoreEditFailures.Inc()
		return
	}
	m.StoreEdits.Inc()
}

// StoreExternalChange records a change observed from another handle.
func (m *Metrics) StoreExternalChange() {
	if m == nil {
		return
	}
	m.StoreNotifies.Inc()
}
