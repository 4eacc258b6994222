// Package alloc amortizes the cost of a raw off-heap allocator under
// write-heavy load by recycling recently freed entry blocks.
//
// Raw allocate/free involves the OS on every call; a sustained
// insert/evict workload can burn most of its CPU time in system calls.
// The Allocator keeps a bounded, sharded table of freed blocks keyed by
// size class and serves matching requests from it instead.
//
// Design
//
//   - Sharding: the pool is split into independently locked shards so
//     contention scales inversely with shard count. A shared round-robin
//     index picks the shard receiving the next freed block and the
//     starting shard of the next allocate scan.
//
//   - Size classes: requested lengths are rounded up to a fixed block
//     unit (16 KiB by default) before being pooled or matched. Bounded
//     internal fragmentation is traded for a higher reuse probability.
//
//   - Eviction: when a freed block arrives at a full shard, the cached
//     block with the oldest freshness timestamp is released to the raw
//     allocator and the newcomer takes its slot.
//
//   - Thresholding: blocks above MaxBuffered bypass the pool entirely,
//     in both directions, which bounds the pool's retained footprint.
//
//   - Counters: hit/miss/free/eviction/clear counts are best-effort and
//     exposed both as a Stats snapshot and through the Metrics hook
//     (plug the metrics/prom adapter to export them).
//
// Basic usage
//
//	arena := mem.NewArena()
//	a := alloc.New(arena, alloc.Options{})
//
//	n := entry.AllocLen(keyLen, valueLen)
//	addr, err := a.Allocate(n)
//	if err != nil {
//	    // out of memory
//	}
//	entry.Init(hash, keyLen, valueLen, addr)
//	// ... payload writes, concurrent readers via entry.Reference ...
//	if entry.Dereference(addr) {
//	    a.Free(addr, n)
//	}
//
// Every method completes in bounded local work: an O(1) route decision
// plus at most one O(shard capacity) slot scan per shard. Nothing in
// this package blocks on I/O or suspends.
package alloc
