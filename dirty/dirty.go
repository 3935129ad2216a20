// Package dirty tracks which byte ranges of an arena have been modified
// since the last flush, coalesces them into page-aligned ranges, and
// flushes them to the arena's backing storage using platform-specific
// system calls (msync on Unix, FlushViewOfFile on Windows).
package dirty

import (
	"context"
	"sort"

	"github.com/nyxstor/tomdb/arena"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// FlushMode controls durability guarantees for transaction commits.
type FlushMode int

const (
	// FlushAuto provides safe defaults: msync() dirty ranges, fdatasync()
	// the file descriptor. On macOS this is a plain fsync; only FlushFull
	// uses F_FULLFSYNC.
	FlushAuto FlushMode = iota

	// FlushDataOnly only flushes dirty ranges via msync(). The caller is
	// responsible for calling fdatasync() later — used when batching
	// several commits before a durable sync point.
	FlushDataOnly

	// FlushFull provides the strongest durability: msync() plus
	// fdatasync(), with F_FULLFSYNC on macOS.
	FlushFull
)

// Range is a dirty byte range, denominated as absolute arena offsets.
type Range struct {
	Off int64
	Len int64
}

// Tracker accumulates dirty ranges against an arena and flushes them.
//
// NOT thread-safe. The transaction root serializes access to it the same
// way it serializes access to the allocator.
type Tracker struct {
	ar       *arena.Arena
	ranges   []Range
	pageSize int64
}

// NewTracker creates a dirty tracker for the given arena.
func NewTracker(ar *arena.Arena) *Tracker {
	return &Tracker{
		ar:       ar,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. Very fast: appends to a slice, no
// coalescing happens until flush time.
func (t *Tracker) Add(off, length int) {
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
}

// FlushDataOnly coalesces and flushes every dirty range except the
// control-block page at offset 0, then clears the tracked ranges.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.ar.Bytes()
	if len(data) == 0 {
		return nil
	}
	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}

	t.ranges = t.ranges[:0]
	return nil
}

// FlushHeaderAndMeta flushes the control-block page (offset 0, one page)
// and, depending on mode, syncs the arena's backing file descriptor.
func (t *Tracker) FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.ar.Bytes()
	if len(data) == 0 {
		return nil
	}

	headerLen := int(t.pageSize)
	if headerLen > len(data) {
		headerLen = len(data)
	}
	if err := msync(data[:headerLen]); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == FlushDataOnly {
		return nil
	}

	fd := t.ar.FD()
	if fd < 0 {
		return nil
	}
	return fdatasync(fd, mode == FlushFull)
}

// Reset clears all tracked ranges, discarding them without flushing.
// Called on rollback.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// DebugRanges returns a copy of the raw, uncoalesced dirty ranges.
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned, merged ranges that a
// flush would act on.
func (t *Tracker) DebugCoalescedRanges() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges
// overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for i := 1; i < len(aligned); i++ {
		next := aligned[i]
		if next.Off <= current.Off+current.Len {
			end := current.Off + current.Len
			if nextEnd := next.Off + next.Len; nextEnd > end {
				end = nextEnd
			}
			current.Len = end - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	merged = append(merged, current)
	return merged
}
