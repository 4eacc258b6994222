// Package mem is the raw off-heap memory primitive: allocation of blocks
// outside the Go heap, typed access at address+offset, and the atomic
// increment/decrement operations the entry refcount protocol is built on.
//
// Addresses are plain uint64 values. Nothing here is bounds-checked:
// callers own the allocation-length contract and passing an address that
// was not returned by an Arena (other than 0, which accessors treat as
// "no memory" where documented) is undefined behavior.
package mem

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// GetLong reads a native-endian 64-bit word at addr+off.
func GetLong(addr, off uint64) int64 {
	return *(*int64)(unsafe.Pointer(uintptr(addr + off)))
}

// PutLong writes a native-endian 64-bit word at addr+off.
func PutLong(addr, off uint64, v int64) {
	*(*int64)(unsafe.Pointer(uintptr(addr + off))) = v
}

// GetByte reads one byte at addr+off.
func GetByte(addr, off uint64) byte {
	return *(*byte)(unsafe.Pointer(uintptr(addr + off)))
}

// PutByte writes one byte at addr+off.
func PutByte(addr, off uint64, v byte) {
	*(*byte)(unsafe.Pointer(uintptr(addr + off))) = v
}

// GetLongFromBytes reads a 64-bit word from a managed buffer with the
// same endianness as GetLong, so word-at-a-time comparison between
// off-heap memory and a []byte is consistent.
func GetLongFromBytes(b []byte, off int) int64 {
	return int64(binary.NativeEndian.Uint64(b[off:]))
}

// PutBytes copies b into off-heap memory starting at addr+off.
func PutBytes(addr, off uint64, b []byte) {
	if len(b) == 0 {
		return
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr+off))), len(b))
	copy(dst, b)
}

// GetBytes copies n bytes starting at addr+off into a managed buffer.
func GetBytes(addr, off uint64, n int) []byte {
	if n == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr+off))), n)
	out := make([]byte, n)
	copy(out, src)
	return out
}

// Increment atomically adds one to the 64-bit word at addr+off.
func Increment(addr, off uint64) {
	atomic.AddInt64((*int64)(unsafe.Pointer(uintptr(addr+off))), 1)
}

// DecrementAndCheckZero atomically subtracts one from the 64-bit word at
// addr+off and reports whether this call performed the transition to
// zero. At most one concurrent caller observes true.
func DecrementAndCheckZero(addr, off uint64) bool {
	return atomic.AddInt64((*int64)(unsafe.Pointer(uintptr(addr+off))), -1) == 0
}
