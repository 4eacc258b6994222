package alloc

import (
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stormzhai/ohc/mem"
)

// benchmarkChurn exercises the allocate/free churn of a write-heavy
// cache: every worker repeatedly allocates an entry-sized block and
// frees the previous one. With the pool in front, most iterations never
// reach the OS.
func benchmarkChurn(b *testing.B, capacity int) {
	arena := mem.NewArena()
	a := New(arena, Options{Capacity: capacity})
	b.Cleanup(func() { a.Clear() })

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		var prev uint64
		var prevLen int64
		for pb.Next() {
			n := int64(128 + r.Intn(8192))
			addr, err := a.Allocate(n)
			if err != nil {
				b.Fatal(err)
			}
			if prev != 0 {
				a.Free(prev, prevLen)
			}
			prev, prevLen = addr, n
		}
		if prev != 0 {
			a.Free(prev, prevLen)
		}
	})
}

func BenchmarkAllocator_Pooled(b *testing.B)   { benchmarkChurn(b, DefaultCapacity) }
func BenchmarkAllocator_TinyPool(b *testing.B) { benchmarkChurn(b, 8) }

// BenchmarkAllocator_RawOnly sets the buffering threshold below every
// request size, so each iteration pays the OS round-trip. Compare
// against BenchmarkAllocator_Pooled to see what recycling buys.
func BenchmarkAllocator_RawOnly(b *testing.B) {
	arena := mem.NewArena()
	a := New(arena, Options{MaxBuffered: 1})

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		var prev uint64
		for pb.Next() {
			addr, err := a.Allocate(4096)
			if err != nil {
				b.Fatal(err)
			}
			if prev != 0 {
				a.Free(prev, 4096)
			}
			prev = addr
		}
		if prev != 0 {
			a.Free(prev, 4096)
		}
	})
}
