// Package metrics exposes Prometheus instrumentation for the reconciler and
// the reactive core.
//
// Collection is off until Init is called. Every Record function is a no-op
// before that, so library code can record unconditionally.
//
// Metrics collected:
//   - rex_elements_created_total: native objects created, by class
//   - rex_elements_destroyed_total: native objects destroyed
//   - rex_elements_reused_total: elements patched in place
//   - rex_property_sets_total: native property writes
//   - rex_children_moved_total: reorder moves
//   - rex_diagnostics_total: non-fatal diagnostics, by code
//   - rex_recomputes_total: computed cell recomputations
//   - rex_memo_hits_total: recomputations served from the memo cache
//   - rex_render_duration_seconds: mount/update duration, by operation
//
// Example:
//
//	metrics.Init(metrics.WithNamespace("myapp"))
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the Prometheus collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "rex").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "rex",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the Prometheus collectors.
type Collector struct {
	Created        *prometheus.CounterVec
	Destroyed      prometheus.Counter
	Reused         prometheus.Counter
	PropertySets   prometheus.Counter
	Moves          prometheus.Counter
	Diagnostics    *prometheus.CounterVec
	Recomputes     prometheus.Counter
	MemoHits       prometheus.Counter
	RenderDuration *prometheus.HistogramVec
}

var (
	global   *Collector
	globalMu sync.RWMutex
)

func newCollector(config Config) *Collector {
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Collector{
		Created: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "elements_created_total",
			Help:        "Total number of native objects created",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),

		Destroyed:    counter("elements_destroyed_total", "Total number of native objects destroyed"),
		Reused:       counter("elements_reused_total", "Total number of elements patched in place"),
		PropertySets: counter("property_sets_total", "Total number of native property writes"),
		Moves:        counter("children_moved_total", "Total number of child reorder moves"),

		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diagnostics_total",
			Help:        "Total number of non-fatal diagnostics by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		Recomputes: counter("recomputes_total", "Total number of computed cell recomputations"),
		MemoHits:   counter("memo_hits_total", "Total number of recomputations served from the memo cache"),

		RenderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render operation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),
	}
}

// Init creates and installs the global collector. Calling Init again
// replaces the collector, which is mainly useful in tests with a fresh
// registry.
func Init(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	c := newCollector(config)

	globalMu.Lock()
	global = c
	globalMu.Unlock()

	return c
}

// Reset uninstalls the global collector.
func Reset() {
	globalMu.Lock()
	global = nil
	globalMu.Unlock()
}

// Get returns the global collector, or nil if Init has not been called.
func Get() *Collector {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// =============================================================================
// Recording Functions
// =============================================================================

// RecordCreate records a native object creation.
func RecordCreate(class string) {
	if c := Get(); c != nil {
		c.Created.WithLabelValues(class).Inc()
	}
}

// RecordDestroy records a native object destruction.
func RecordDestroy() {
	if c := Get(); c != nil {
		c.Destroyed.Inc()
	}
}

// RecordReuse records an element patched in place.
func RecordReuse() {
	if c := Get(); c != nil {
		c.Reused.Inc()
	}
}

// RecordPropertySet records a native property write.
func RecordPropertySet() {
	if c := Get(); c != nil {
		c.PropertySets.Inc()
	}
}

// RecordMove records a child reorder move.
func RecordMove() {
	if c := Get(); c != nil {
		c.Moves.Inc()
	}
}

// RecordDiagnostic records a non-fatal diagnostic.
func RecordDiagnostic(code string) {
	if c := Get(); c != nil {
		c.Diagnostics.WithLabelValues(code).Inc()
	}
}

// RecordRecompute records a computed cell recomputation.
func RecordRecompute() {
	if c := Get(); c != nil {
		c.Recomputes.Inc()
	}
}

// RecordMemoHit records a recomputation served from the memo cache.
func RecordMemoHit() {
	if c := Get(); c != nil {
		c.MemoHits.Inc()
	}
}

// ObserveRender records the duration of a render operation.
func ObserveRender(op string, d time.Duration) {
	if c := Get(); c != nil {
		c.RenderDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}
