package alloc

import (
	"time"

	"github.com/stormzhai/ohc/internal/util"
)

// RawMemory is the underlying raw allocator the pool amortizes.
// Free(0) must be a no-op: the facade unconditionally raw-frees whatever
// address the pool's free path yields, and "stored in the pool" yields 0.
type RawMemory interface {
	Allocate(bytes int64) (uint64, error)
	Free(addr uint64)
}

// Allocator routes allocate/free requests between the recycling pool and
// the raw allocator based on a size threshold, round-robining across the
// pool's shards. All methods are safe for concurrent use.
type Allocator struct {
	raw  RawMemory
	pool *pool

	blockSize   int64
	blockMask   int64
	maxBuffered int64

	metrics Metrics
	clock   Clock
}

// New constructs an Allocator over the given raw memory with the
// provided Options. BlockSize must be a power of two.
func New(raw RawMemory, opt Options) *Allocator {
	if raw == nil {
		panic("alloc: RawMemory must not be nil")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.BlockSize == 0 {
		opt.BlockSize = DefaultBlockSize
	}
	if !util.IsPowerOfTwo(uint64(opt.BlockSize)) {
		panic("alloc: BlockSize must be a power of two")
	}
	if opt.MaxBuffered == 0 {
		opt.MaxBuffered = DefaultMaxBuffered
	}
	if opt.Capacity <= 0 {
		opt.Capacity = DefaultCapacity
	}
	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	}

	return &Allocator{
		raw:         raw,
		pool:        newPool(sh, opt.Capacity),
		blockSize:   opt.BlockSize,
		blockMask:   opt.BlockSize - 1,
		maxBuffered: opt.MaxBuffered,
		metrics:     opt.Metrics,
		clock:       opt.Clock,
	}
}

// Allocate returns the address of a block of at least bytes bytes.
// Requests within the buffering threshold are served from the pool when
// a block of the matching size class is cached; otherwise (and for
// oversized requests) the raw allocator is used. Pooled requests are
// rounded up to the block unit so a later free can be matched again.
func (a *Allocator) Allocate(bytes int64) (uint64, error) {
	if bytes <= a.maxBuffered {
		class := a.BlockAllocLen(bytes)
		if addr := a.pool.allocate(class); addr != 0 {
			a.pool.hits.Add(1)
			a.metrics.Hit()
			a.metrics.Retained(int(a.pool.retained.Load()))
			return addr, nil
		}
		a.pool.misses.Add(1)
		a.metrics.Miss()
		return a.raw.Allocate(class)
	}
	return a.raw.Allocate(bytes)
}

// Free releases the block at addr, which must have been allocated with
// exactly allocLen bytes. A zero addr is a no-op. Blocks within the
// buffering threshold are offered to the pool first; exactly one address
// per call ever reaches the raw free — the original when the pool
// declined it entirely, the evicted occupant when the pool was full, or
// none (0) when the block was cached.
func (a *Allocator) Free(addr uint64, allocLen int64) {
	if addr == 0 {
		return
	}
	if allocLen <= a.maxBuffered {
		a.pool.frees.Add(1)
		a.metrics.Free()
		var evicted bool
		addr, evicted = a.pool.free(addr, a.BlockAllocLen(allocLen), a.now())
		if evicted {
			a.pool.evicts.Add(1)
			a.metrics.Evict()
		}
		a.metrics.Retained(int(a.pool.retained.Load()))
	}
	a.raw.Free(addr)
}

// Clear synchronously drains the pool, releasing every cached address to
// the raw allocator exactly once and resetting all slots.
func (a *Allocator) Clear() {
	a.pool.clears.Add(1)
	a.metrics.Clear()
	a.pool.clear(a.raw)
	a.metrics.Retained(int(a.pool.retained.Load()))
}

// BlockAllocLen rounds allocLen up to the nearest multiple of the block
// unit. This is the size class under which blocks are pooled and
// matched.
func (a *Allocator) BlockAllocLen(allocLen int64) int64 {
	if allocLen&a.blockMask == 0 {
		return allocLen
	}
	return (allocLen &^ a.blockMask) + a.blockSize
}

// Stats returns a best-effort snapshot of the pool counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Hits:      a.pool.hits.Load(),
		Misses:    a.pool.misses.Load(),
		Frees:     a.pool.frees.Load(),
		Evictions: a.pool.evicts.Load(),
		Clears:    a.pool.clears.Load(),
		Retained:  int(a.pool.retained.Load()),
	}
}

func (a *Allocator) now() int64 {
	if a.clock != nil {
		return a.clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}
