// Package container implements the transactional-allocator-bound
// adaptor shells named in spec §4.11: Vector, List, and TreeMap. Their
// element and iteration semantics are the assumed standard ones for
// each shape; what they add over a plain Go slice/list/map is that every
// backing-storage grow or shrink goes through a transaction root's
// allocator, so the adaptor's storage commits and rolls back exactly
// like any other persistent allocation.
package container

import (
	"github.com/nyxstor/tomdb/internal/wire"
	"github.com/nyxstor/tomdb/txroot"
)

const lengthPrefixSize = 8

// Allocator binds container adaptors to a live transaction root. On
// Allocate(n, elemSize) it reserves n*elemSize + lengthPrefixSize bytes
// and stores n as an 8-byte length prefix; Deallocate reads that prefix
// back to know how much to release. Every adaptor in this package holds
// one instead of talking to the root directly.
type Allocator struct {
	root *txroot.Root
}

// NewAllocator binds a container Allocator to root. Every call made
// through it requires root to have an open transaction.
func NewAllocator(root *txroot.Root) *Allocator {
	return &Allocator{root: root}
}

// Allocate reserves n*elemSize+lengthPrefixSize bytes and writes n as
// the length prefix. Returns the prefix's offset; element storage
// begins immediately after it.
func (a *Allocator) Allocate(n, elemSize uint64) (uint64, error) {
	total := n*elemSize + lengthPrefixSize
	ivs, err := a.root.AllocRaw(total, total)
	if err != nil {
		return 0, err
	}
	wire.PutU64(a.root.Arena().Slice(ivs[0].Offset, lengthPrefixSize), 0, n)
	return ivs[0].Offset, nil
}

// Deallocate reads the length prefix at prefixOffset and queues the
// whole region for release once the current transaction commits.
func (a *Allocator) Deallocate(prefixOffset, elemSize uint64) {
	n := wire.ReadU64(a.root.Arena().Slice(prefixOffset, lengthPrefixSize), 0)
	a.root.QueueForRelease(prefixOffset, n*elemSize+lengthPrefixSize)
}
