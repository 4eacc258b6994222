// Package entry defines the binary layout of an off-heap cache entry and
// the reference-counted lifetime protocol shared by concurrent readers
// and a single mutating writer.
//
// An entry is one contiguous block: a fixed 8-byte-field header followed
// by the raw key bytes and then the raw value bytes. The hash table
// orchestrating buckets and LRU order stores its links in the header; it
// never needs to copy the payload into managed memory to compare keys or
// values.
//
// Lifetime contract: Init leaves the refcount at 1 (the creator's
// reference). Every reader holds a counted reference for the whole span
// it touches the entry's memory. Dereference returns true exactly once,
// on the transition to zero, and only that caller releases the block —
// after its own true result a goroutine must not touch the memory again,
// since another goroutine may already be reusing it.
package entry

import (
	"errors"

	"github.com/stormzhai/ohc/mem"
)

// Header field offsets. The first word doubles as scratch space once the
// entry has been freed, so nothing that must survive past free lives at
// offset 0.
const (
	offLRUNext  = 0
	offLRUPrev  = 8
	offNext     = 16
	offRefCount = 24
	offHash     = 32
	offKeyLen   = 40
	offValueLen = 48

	// HeaderSize is where the key payload starts.
	HeaderSize = 56
)

// ErrSelfReference is returned by SetNext when an entry would be linked
// to itself, which would turn a bucket chain into an infinite loop.
var ErrSelfReference = errors.New("entry: chain link must not reference its own entry")

// Init writes the header of a freshly allocated entry: hash, zeroed
// bucket-chain link, key/value lengths, and a refcount of 1. addr must
// have been allocated with exactly AllocLen(keyLen, valueLen) bytes.
func Init(hash uint64, keyLen, valueLen int64, addr uint64) {
	mem.PutLong(addr, offHash, int64(hash))
	mem.PutLong(addr, offNext, 0)
	mem.PutLong(addr, offKeyLen, keyLen)
	mem.PutLong(addr, offValueLen, valueLen)
	mem.PutLong(addr, offRefCount, 1)
}

// GetHash returns the stored 64-bit key hash.
func GetHash(addr uint64) uint64 {
	return uint64(mem.GetLong(addr, offHash))
}

// GetNext returns the next entry in the same hash bucket, or 0 at the
// end of the chain. The zero address is "no entry" and traverses to 0.
func GetNext(addr uint64) uint64 {
	if addr == 0 {
		return 0
	}
	return uint64(mem.GetLong(addr, offNext))
}

// SetNext links addr's bucket chain to next. Linking an entry to itself
// fails before any state is mutated; a zero addr is a no-op.
func SetNext(addr, next uint64) error {
	if addr == next {
		return ErrSelfReference
	}
	if addr != 0 {
		mem.PutLong(addr, offNext, int64(next))
	}
	return nil
}

// GetLRUNext returns the LRU successor link. The link's meaning is owned
// by the orchestrator; this package only stores it.
func GetLRUNext(addr uint64) uint64 {
	return uint64(mem.GetLong(addr, offLRUNext))
}

// SetLRUNext stores the LRU successor link.
func SetLRUNext(addr, next uint64) {
	mem.PutLong(addr, offLRUNext, int64(next))
}

// GetLRUPrev returns the LRU predecessor link.
func GetLRUPrev(addr uint64) uint64 {
	return uint64(mem.GetLong(addr, offLRUPrev))
}

// SetLRUPrev stores the LRU predecessor link.
func SetLRUPrev(addr, prev uint64) {
	mem.PutLong(addr, offLRUPrev, int64(prev))
}

// GetKeyLen returns the stored key length in bytes.
func GetKeyLen(addr uint64) int64 {
	return mem.GetLong(addr, offKeyLen)
}

// GetValueLen returns the stored value length in bytes.
func GetValueLen(addr uint64) int64 {
	return mem.GetLong(addr, offValueLen)
}

// AllocLen is the total block length for an entry with the given payload
// lengths. It must be identical across allocate, Init, and free for a
// given entry; a mismatch corrupts the heap.
func AllocLen(keyLen, valueLen int64) int64 {
	return HeaderSize + keyLen + valueLen
}

// AllocationLength derives the block length of an initialized entry from
// its stored payload lengths.
func AllocationLength(addr uint64) int64 {
	return AllocLen(GetKeyLen(addr), GetValueLen(addr))
}

// Reference atomically adds a holder to the entry: one more goroutine
// now requires this memory to remain valid.
func Reference(addr uint64) {
	mem.Increment(addr, offRefCount)
}

// Dereference atomically drops a holder and reports whether this call
// observed the transition to zero. The caller that receives true — and
// only that caller — must release the block to the allocator.
func Dereference(addr uint64) bool {
	return mem.DecrementAndCheckZero(addr, offRefCount)
}

// CompareKey reports whether the entry's stored key bytes equal the
// serialized key. The zero address never matches. Comparison runs a
// 64-bit word at a time with a byte-wise tail.
func CompareKey(addr uint64, key *KeyBuffer) bool {
	if addr == 0 {
		return false
	}
	arr := key.Bytes()
	serKeyLen := int64(len(arr))
	blkOff := uint64(HeaderSize)

	var p int64
	for ; p <= serKeyLen-8; p, blkOff = p+8, blkOff+8 {
		if mem.GetLong(addr, blkOff) != mem.GetLongFromBytes(arr, int(p)) {
			return false
		}
	}
	for ; p < serKeyLen; p, blkOff = p+1, blkOff+1 {
		if mem.GetByte(addr, blkOff) != arr[p] {
			return false
		}
	}
	return true
}

// Compare reports byte equality of two off-heap regions without copying
// either into managed memory, e.g. an entry's value against another
// entry's value. The zero address never matches.
func Compare(addrA uint64, offA int64, addrB uint64, offB int64, length int64) bool {
	if addrA == 0 {
		return false
	}
	oa, ob := uint64(offA), uint64(offB)

	var p int64
	for ; p <= length-8; p, oa, ob = p+8, oa+8, ob+8 {
		if mem.GetLong(addrA, oa) != mem.GetLong(addrB, ob) {
			return false
		}
	}
	for ; p < length; p, oa, ob = p+1, oa+1, ob+1 {
		if mem.GetByte(addrA, oa) != mem.GetByte(addrB, ob) {
			return false
		}
	}
	return true
}
