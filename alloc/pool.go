package alloc

import (
	"sync"
	"sync/atomic"

	"github.com/stormzhai/ohc/internal/util"
)

// slot is one cached freed block: its address, the size class it was
// rounded to, and the freshness timestamp used for eviction. A zero
// address marks the slot empty.
type slot struct {
	addr  uint64
	class int64
	ts    int64
}

// shard is an independently locked partition of the recycling pool.
// Its critical sections are short slot-table scans; a goroutine can only
// block behind another goroutine's call on the same shard, never on I/O.
type shard struct {
	mu    sync.Mutex
	slots []slot
}

// allocate scans for an occupied slot of the matching size class.
// On a hit the slot is cleared and the cached address returned; on a
// miss it returns 0 and the caller falls through to the next shard.
func (s *shard) allocate(class int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slots {
		if s.slots[i].addr != 0 && s.slots[i].class == class {
			addr := s.slots[i].addr
			s.slots[i] = slot{}
			return addr
		}
	}
	return 0
}

// free caches a freed block. If an empty slot exists the block is stored
// with its timestamp and 0 is returned. If the shard is full, the slot
// with the oldest timestamp is evicted, the new block takes its place,
// and the evicted address is returned for the caller to raw-free.
// The second result reports whether an eviction happened.
func (s *shard) free(addr uint64, class, now int64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldest := int64(1<<63 - 1)
	victim := -1
	for i := range s.slots {
		if s.slots[i].addr == 0 {
			s.slots[i] = slot{addr: addr, class: class, ts: now}
			return 0, false
		}
		if s.slots[i].ts < oldest {
			oldest = s.slots[i].ts
			victim = i
		}
	}

	if victim < 0 {
		// Every slot is occupied here, so a failed min-scan can only
		// mean the slot bookkeeping is corrupted.
		panic("alloc: full shard with no evictable slot")
	}

	evicted := s.slots[victim].addr
	s.slots[victim] = slot{addr: addr, class: class, ts: now}
	return evicted, true
}

// drain releases every cached address to raw and empties the shard,
// returning the number of blocks released.
func (s *shard) drain(raw RawMemory) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.slots {
		if s.slots[i].addr != 0 {
			raw.Free(s.slots[i].addr)
			n++
		}
		s.slots[i] = slot{}
	}
	return n
}

// pool is the sharded table of recycled blocks. A shared monotonically
// advancing index spreads both frees and allocate scan starts across
// shards.
type pool struct {
	shards []*shard
	idx    atomic.Uint32

	// hot counters (separate cache lines to avoid false sharing)
	_        util.CacheLinePad
	hits     util.PaddedAtomicUint64
	misses   util.PaddedAtomicUint64
	frees    util.PaddedAtomicUint64
	evicts   util.PaddedAtomicUint64
	clears   util.PaddedAtomicUint64
	retained atomic.Int64
}

func newPool(shards, capacity int) *pool {
	p := &pool{shards: make([]*shard, shards)}
	perShard := (capacity + shards - 1) / shards // split capacity evenly (ceil)
	if perShard < 1 {
		perShard = 1
	}
	for i := range p.shards {
		p.shards[i] = &shard{slots: make([]slot, perShard)}
	}
	return p
}

// nextShard advances the shared round-robin index.
func (p *pool) nextShard() int {
	return int(p.idx.Add(1)-1) % len(p.shards)
}

// allocate tries every shard for a cached block of the given size class,
// starting at the round-robin index. Returns 0 on a total miss.
func (p *pool) allocate(class int64) uint64 {
	bi := p.nextShard()
	for range p.shards {
		if addr := p.shards[bi].allocate(class); addr != 0 {
			p.retained.Add(-1)
			return addr
		}
		bi++
		if bi == len(p.shards) {
			bi = 0
		}
	}
	return 0
}

// free hands a freed block to the round-robin shard and returns whatever
// address must still be raw-freed: 0 when the block was stored, or the
// evicted occupant's address. The second result reports an eviction.
func (p *pool) free(addr uint64, class, now int64) (uint64, bool) {
	out, evicted := p.shards[p.nextShard()].free(addr, class, now)
	if !evicted {
		p.retained.Add(1)
	}
	return out, evicted
}

// clear synchronously drains every shard to the raw allocator.
func (p *pool) clear(raw RawMemory) {
	for _, s := range p.shards {
		n := s.drain(raw)
		p.retained.Add(int64(-n))
	}
}
