package mem

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrOutOfMemory is returned by Arena.Allocate when the OS refuses the
// mapping.
var ErrOutOfMemory = errors.New("mem: out of memory")

// Arena allocates blocks outside the Go heap via anonymous private
// mappings. It keeps a registry of live mappings so Free can unmap them
// and so tests can assert nothing leaked.
//
// Allocation goes through the OS on every call, which is exactly why
// callers under write-heavy load put a recycling layer in front of it.
type Arena struct {
	mu        sync.Mutex
	regions   map[uint64][]byte
	allocated int64
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{regions: make(map[uint64][]byte)}
}

// Allocate maps a new block of at least bytes bytes and returns its
// address. bytes must be positive.
func (a *Arena) Allocate(bytes int64) (uint64, error) {
	if bytes <= 0 {
		return 0, fmt.Errorf("mem: allocation length %d must be positive", bytes)
	}
	b, err := unix.Mmap(-1, 0, int(bytes),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, bytes, err)
	}
	addr := uint64(uintptr(unsafe.Pointer(&b[0])))

	a.mu.Lock()
	a.regions[addr] = b
	a.allocated += bytes
	a.mu.Unlock()
	return addr, nil
}

// Free unmaps the block at addr. The zero address is a no-op so callers
// can unconditionally free whatever a recycling layer hands back.
// Freeing an address this arena does not own panics: it means the
// allocation-length contract was broken somewhere and the heap can no
// longer be trusted.
func (a *Arena) Free(addr uint64) {
	if addr == 0 {
		return
	}
	a.mu.Lock()
	b, ok := a.regions[addr]
	if ok {
		delete(a.regions, addr)
		a.allocated -= int64(len(b))
	}
	a.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("mem: free of unknown address %#x", addr))
	}
	if err := unix.Munmap(b); err != nil {
		panic(fmt.Sprintf("mem: munmap %#x: %v", addr, err))
	}
}

// Allocated returns the number of live bytes currently mapped.
func (a *Arena) Allocated() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}
