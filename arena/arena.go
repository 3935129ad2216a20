// Package arena implements the fixed-capacity byte range that every other
// tomdb package addresses into by offset (spec.md §3, "Arena").
//
// The arena itself does not interpret its contents: allocation state lives
// in the alloc package, transaction state in txroot. The arena only owns
// the bytes and the offset<->pointer translation, and it is deliberately
// agnostic about whether those bytes are malloc'd, mmap'd, or persistent
// memory.
package arena

import (
	"fmt"
	"unsafe"

	"github.com/nyxstor/tomdb/arena/backing"
)

// Arena is a contiguous byte region of size Capacity, addressed by offsets
// in [0, Capacity).
type Arena struct {
	data     []byte
	capacity uint64
	unit     uint64
	unmap    func() error
	fd       int
}

// New creates an anonymous, heap-backed arena of the given capacity.
func New(capacity, unit uint64) *Arena {
	if !isValidUnit(unit) {
		panic(fmt.Sprintf("arena: unit %d must be a power of two >= 16", unit))
	}
	if capacity == 0 || capacity%unit != 0 {
		panic(fmt.Sprintf("arena: capacity %d must be a positive multiple of unit %d", capacity, unit))
	}
	return &Arena{
		data:     make([]byte, capacity),
		capacity: capacity,
		unit:     unit,
		fd:       -1,
	}
}

// Open maps path into memory (creating it if necessary) and returns an
// arena backed by the file's first capacity bytes.
func Open(path string, capacity, unit uint64) (*Arena, error) {
	if !isValidUnit(unit) {
		return nil, fmt.Errorf("arena: unit %d must be a power of two >= 16", unit)
	}
	if capacity == 0 || capacity%unit != 0 {
		return nil, fmt.Errorf("arena: capacity %d must be a positive multiple of unit %d", capacity, unit)
	}
	m, err := backing.Map(path, int64(capacity))
	if err != nil {
		return nil, err
	}
	return &Arena{
		data:     m.Data,
		capacity: capacity,
		unit:     unit,
		unmap:    m.Unmap,
		fd:       m.Handle,
	}, nil
}

// FD returns the underlying file descriptor/handle when the arena is
// file-backed, or -1 for a heap-backed arena.
func (a *Arena) FD() int { return a.fd }

func isValidUnit(unit uint64) bool {
	return unit >= 16 && unit&(unit-1) == 0
}

// Close releases any backing resources. No-op for heap-backed arenas.
func (a *Arena) Close() error {
	if a.unmap == nil {
		return nil
	}
	return a.unmap()
}

// Capacity returns the arena's total size in bytes.
func (a *Arena) Capacity() uint64 { return a.capacity }

// Unit returns the minimum allocation grain this arena was created with.
func (a *Arena) Unit() uint64 { return a.unit }

// Bytes returns the full backing slice. Prefer Slice for bounds-checked
// access from outside this package.
func (a *Arena) Bytes() []byte { return a.data }

// Slice returns the byte range [offset, offset+length) within the arena.
func (a *Arena) Slice(offset, length uint64) []byte {
	if offset+length > a.capacity {
		panic(fmt.Sprintf("arena: slice [%d,%d) exceeds capacity %d", offset, offset+length, a.capacity))
	}
	return a.data[offset : offset+length]
}

// Pointer returns a raw pointer to the byte at offset within the arena.
// Exists so code that needs real pointer identity (VolatileHandle) doesn't
// have to carry its own unsafe import; callers that stay within Go should
// prefer Slice.
func (a *Arena) Pointer(offset uint64) unsafe.Pointer {
	if offset >= a.capacity {
		panic(fmt.Sprintf("arena: offset %d out of bounds (capacity %d)", offset, a.capacity))
	}
	return unsafe.Pointer(&a.data[offset])
}

// OffsetOf translates a pointer previously obtained from Pointer or Slice
// back into an arena-relative offset. ok is false if p does not point
// within this arena's current backing storage — in particular, a pointer
// captured before a restart never resolves against the post-restart
// mapping, which is why VolatileHandle exists.
func (a *Arena) OffsetOf(p unsafe.Pointer) (offset uint64, ok bool) {
	if len(a.data) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&a.data[0]))
	addr := uintptr(p)
	if addr < base || addr >= base+uintptr(len(a.data)) {
		return 0, false
	}
	return uint64(addr - base), true
}
