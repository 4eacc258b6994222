package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stormzhai/ohc/alloc"
)

// Adapter implements alloc.Metrics and exports Prometheus counters plus
// a retained-blocks gauge. Safe for concurrent use; all Prometheus
// metric types are goroutine-safe.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	frees    prometheus.Counter
	evicts   prometheus.Counter
	clears   prometheus.Counter
	retained prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pool_hits_total",
			Help:        "Allocations served from the recycling pool",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pool_misses_total",
			Help:        "Pooled-size allocations that fell through to the raw allocator",
			ConstLabels: constLabels,
		}),
		frees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pool_frees_total",
			Help:        "Frees routed through the recycling pool",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pool_evictions_total",
			Help:        "Cached blocks evicted from full shards",
			ConstLabels: constLabels,
		}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pool_clears_total",
			Help:        "Pool drain operations",
			ConstLabels: constLabels,
		}),
		retained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pool_retained_blocks",
			Help:        "Number of freed blocks currently cached by the pool",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.frees, a.evicts, a.clears, a.retained)
	return a
}

// Hit increments the pool hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the pool miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Free increments the pooled-free counter.
func (a *Adapter) Free() { a.frees.Inc() }

// Evict increments the eviction counter.
func (a *Adapter) Evict() { a.evicts.Inc() }

// Clear increments the pool clear counter.
func (a *Adapter) Clear() { a.clears.Inc() }

// Retained updates the retained-blocks gauge.
func (a *Adapter) Retained(blocks int) { a.retained.Set(float64(blocks)) }

// Compile-time check: ensure Adapter implements alloc.Metrics.
var _ alloc.Metrics = (*Adapter)(nil)
