package alloc

// Defaults applied by New when the corresponding Options field is zero.
const (
	// DefaultBlockSize is the size-class unit: requested lengths are
	// rounded up to a multiple of it before being pooled or matched.
	DefaultBlockSize = 16 * 1024

	// DefaultMaxBuffered is the largest block the pool will retain.
	// Anything bigger goes straight to the raw allocator in both
	// directions, which bounds the pool's total footprint.
	DefaultMaxBuffered = 8 * 1024 * 1024

	// DefaultCapacity is the total slot count across all shards.
	DefaultCapacity = 512
)

// Clock provides time in UnixNano; useful for deterministic tests.
// Freshness timestamps taken from it decide which pooled block a full
// shard evicts.
type Clock interface{ NowUnixNano() int64 }

// Options configures an Allocator. Zero values are safe; defaults are
// applied in New():
//   - Shards <= 0    => auto (ReasonableShardCount)
//   - Capacity <= 0  => DefaultCapacity, split evenly across shards
//   - BlockSize 0    => DefaultBlockSize (must be a power of two)
//   - MaxBuffered 0  => DefaultMaxBuffered
//   - nil Metrics    => NoopMetrics
//   - nil Clock      => time.Now
type Options struct {
	// Shards is the number of independently locked slot tables.
	Shards int

	// Capacity is the total number of pooled-block slots, divided
	// evenly across shards (each shard gets at least one).
	Capacity int

	// BlockSize is the rounding unit for size classes. Must be a power
	// of two.
	BlockSize int64

	// MaxBuffered is the size threshold above which blocks bypass the
	// pool entirely.
	MaxBuffered int64

	// Metrics receives hit/miss/free/evict/clear signals. Counts are
	// best-effort under concurrency.
	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now.
	Clock Clock
}
