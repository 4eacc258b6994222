package entry

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/stormzhai/ohc/mem"
)

// newTestEntry allocates and initializes an entry with the given payload
// and registers cleanup of the block.
func newTestEntry(t *testing.T, arena *mem.Arena, key, value []byte) uint64 {
	t.Helper()

	kb := NewKeyBuffer(key)
	addr, err := arena.Allocate(AllocLen(int64(len(key)), int64(len(value))))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	t.Cleanup(func() { arena.Free(addr) })

	Init(kb.Hash(), int64(len(key)), int64(len(value)), addr)
	mem.PutBytes(addr, HeaderSize, key)
	mem.PutBytes(addr, HeaderSize+uint64(len(key)), value)
	return addr
}

func TestEntry_InitAndAccessors(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	key := []byte("user:42")
	value := []byte("serialized-value-bytes")
	addr := newTestEntry(t, arena, key, value)

	kb := NewKeyBuffer(key)
	if got := GetHash(addr); got != kb.Hash() {
		t.Fatalf("hash: want %#x, got %#x", kb.Hash(), got)
	}
	if got := GetKeyLen(addr); got != int64(len(key)) {
		t.Fatalf("keyLen: want %d, got %d", len(key), got)
	}
	if got := GetValueLen(addr); got != int64(len(value)) {
		t.Fatalf("valueLen: want %d, got %d", len(value), got)
	}
	if got := GetNext(addr); got != 0 {
		t.Fatalf("fresh entry must have no chain link, got %#x", got)
	}
	if got := mem.GetBytes(addr, HeaderSize, len(key)); !bytes.Equal(got, key) {
		t.Fatalf("key payload: want %q, got %q", key, got)
	}
	if got := mem.GetBytes(addr, HeaderSize+uint64(len(key)), len(value)); !bytes.Equal(got, value) {
		t.Fatalf("value payload: want %q, got %q", value, got)
	}
}

func TestEntry_AllocationLength(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	key := []byte("k")
	value := make([]byte, 300)
	addr := newTestEntry(t, arena, key, value)

	want := int64(HeaderSize + 1 + 300)
	if got := AllocLen(1, 300); got != want {
		t.Fatalf("AllocLen: want %d, got %d", want, got)
	}
	if got := AllocationLength(addr); got != want {
		t.Fatalf("AllocationLength: want %d, got %d", want, got)
	}
}

// Any single-byte mutation of the serialized key must fail the compare;
// the identical key must pass.
func TestEntry_CompareKey(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	key := []byte("a somewhat longer key to cover word and tail paths")
	addr := newTestEntry(t, arena, key, []byte("v"))

	if !CompareKey(addr, NewKeyBuffer(key)) {
		t.Fatal("identical key must compare equal")
	}
	for i := range key {
		mutated := append([]byte(nil), key...)
		mutated[i] ^= 0xff
		if CompareKey(addr, NewKeyBuffer(mutated)) {
			t.Fatalf("key mutated at byte %d must not compare equal", i)
		}
	}
	if CompareKey(0, NewKeyBuffer(key)) {
		t.Fatal("the zero address must never match")
	}
}

func TestEntry_CompareKeyEmpty(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	addr := newTestEntry(t, arena, nil, []byte("v"))

	if !CompareKey(addr, NewKeyBuffer(nil)) {
		t.Fatal("empty key must compare equal to itself")
	}
}

func TestEntry_CompareRegion(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	value := []byte("shared value payload, longer than eight bytes")
	a := newTestEntry(t, arena, []byte("key-a"), value)
	b := newTestEntry(t, arena, []byte("key-b"), value)

	offA := int64(HeaderSize + GetKeyLen(a))
	offB := int64(HeaderSize + GetKeyLen(b))
	if !Compare(a, offA, b, offB, int64(len(value))) {
		t.Fatal("equal values must compare equal")
	}

	mem.PutByte(b, uint64(offB)+uint64(len(value))-1, 'X')
	if Compare(a, offA, b, offB, int64(len(value))) {
		t.Fatal("mutated tail byte must not compare equal")
	}
	if Compare(0, 0, b, offB, int64(len(value))) {
		t.Fatal("the zero address must never match")
	}
}

func TestEntry_ChainLink(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	a := newTestEntry(t, arena, []byte("a"), nil)
	b := newTestEntry(t, arena, []byte("b"), nil)

	if err := SetNext(a, a); !errors.Is(err, ErrSelfReference) {
		t.Fatalf("self link must fail, got %v", err)
	}
	if got := GetNext(a); got != 0 {
		t.Fatalf("failed SetNext must not mutate the link, got %#x", got)
	}

	if err := SetNext(a, b); err != nil {
		t.Fatalf("SetNext: %v", err)
	}
	if got := GetNext(a); got != b {
		t.Fatalf("chain link: want %#x, got %#x", b, got)
	}

	// Unlinking writes the null sentinel.
	if err := SetNext(a, 0); err != nil {
		t.Fatalf("SetNext(a, 0): %v", err)
	}
	if got := GetNext(a); got != 0 {
		t.Fatalf("unlinked entry must traverse to 0, got %#x", got)
	}

	// The null sentinel is "no entry": writes are dropped, traversal
	// yields the end of chain, and the degenerate 0->0 self link is
	// still rejected.
	if err := SetNext(0, a); err != nil {
		t.Fatalf("SetNext(0, a): %v", err)
	}
	if got := GetNext(0); got != 0 {
		t.Fatalf("GetNext(0): want 0, got %#x", got)
	}
	if err := SetNext(0, 0); !errors.Is(err, ErrSelfReference) {
		t.Fatalf("SetNext(0, 0) must fail, got %v", err)
	}
}

func TestEntry_LRULinks(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	a := newTestEntry(t, arena, []byte("a"), nil)
	b := newTestEntry(t, arena, []byte("b"), nil)

	SetLRUNext(a, b)
	SetLRUPrev(a, 0xdead0)
	if got := GetLRUNext(a); got != b {
		t.Fatalf("lruNext: want %#x, got %#x", b, got)
	}
	if got := GetLRUPrev(a); got != 0xdead0 {
		t.Fatalf("lruPrev: want %#x, got %#x", uint64(0xdead0), got)
	}
}

// For N references followed by N+1 dereferences, exactly one dereference
// reports the zero transition, and it is the last one.
func TestEntry_RefcountSingleRelease(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	addr := newTestEntry(t, arena, []byte("k"), []byte("v"))

	const n = 17
	for i := 0; i < n; i++ {
		Reference(addr)
	}
	for i := 0; i < n; i++ {
		if Dereference(addr) {
			t.Fatalf("dereference %d of %d must not report zero", i+1, n+1)
		}
	}
	if !Dereference(addr) {
		t.Fatal("last dereference must report the zero transition")
	}
}

// Concurrent readers take and drop references while the creator's base
// reference is held; none of them may observe the zero transition.
func TestEntry_RefcountConcurrent(t *testing.T) {
	t.Parallel()

	arena := mem.NewArena()
	addr := newTestEntry(t, arena, []byte("k"), []byte("v"))

	var zeroes atomic.Int64
	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 10_000; i++ {
				Reference(addr)
				if Dereference(addr) {
					zeroes.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := zeroes.Load(); got != 0 {
		t.Fatalf("readers observed %d zero transitions while the base reference was held", got)
	}
	if !Dereference(addr) {
		t.Fatal("dropping the base reference must report the zero transition")
	}
}
