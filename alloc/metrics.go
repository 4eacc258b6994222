package alloc

// Metrics exposes pool-level observability hooks. Counts are
// best-effort: exact linearizable counting is not a goal.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Free()
	Evict()
	Clear()
	Retained(blocks int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Free()         {}
func (NoopMetrics) Evict()        {}
func (NoopMetrics) Clear()        {}
func (NoopMetrics) Retained(int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of the pool counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Frees     uint64
	Evictions uint64
	Clears    uint64
	Retained  int
}
