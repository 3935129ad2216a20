package alloc

import (
	"github.com/nyxstor/tomdb/arena"
	"github.com/nyxstor/tomdb/errs"
	"github.com/nyxstor/tomdb/internal/bitops"
	"github.com/nyxstor/tomdb/internal/wire"
)

const snapshotPageSize = 4096

// Allocator is the hierarchical bitmap allocator facade: L0 free bitmap,
// L1 slotset summary, and an optional L2 summary for large arenas.
type Allocator struct {
	capacity uint64
	unit     uint64
	numUnits uint64

	l0 l0Bitmap
	l1 l1Summary
	l2 *l2Summary

	l1Granularity uint64
	l2Granularity uint64

	allocCount uint64
}

// New constructs an allocator sized for capacity bytes at the given unit
// grain. Init must be called before use.
func New(capacity, unit uint64) *Allocator {
	numUnits := capacity / unit
	l0 := newL0(numUnits)
	l1 := newL1(l0, numUnits)

	a := &Allocator{
		capacity:      capacity,
		unit:          unit,
		numUnits:      numUnits,
		l0:            l0,
		l1:            l1,
		l1Granularity: 512 * unit,
	}
	if numUnits > 512*l1PerL2Slotset {
		l2 := newL2(l1, numUnits)
		a.l2 = &l2
		a.l2Granularity = a.l1Granularity * l1PerL2Slotset
	}
	return a
}

// Init marks the full arena free and reserves a small header region at
// offset 0 for the owning transaction root's control block.
func (a *Allocator) Init() {
	a.l0.allFree()
	a.l1.allFree()
	if a.l2 != nil {
		a.l2.allAvailable()
	}
	a.allocCount = 0
	// Reserve the first unit for the persisted control block; Alloc isn't
	// used here since the allocator's own bookkeeping must not count this
	// as a logged mutation.
	a.l0.markAlloc(0, 1)
	a.refreshSummaries(0, 1)
	// Bits past numUnits in the last L0 word and L1 entries past the last
	// real slotset stand for no arena space: mark them allocated / FULL.
	if l0Cap := uint64(len(a.l0.words)) * bitops.WordBits; a.numUnits < l0Cap {
		a.l0.markAlloc(a.numUnits, l0Cap)
		a.refreshSummaries(a.numUnits, l0Cap)
	}
	for pos := (a.numUnits + slotsetWidth*64 - 1) / (slotsetWidth * 64); pos < a.l1Count(); pos++ {
		a.l1.set(pos, l1Full)
	}
}

// Capacity returns the arena capacity this allocator was initialized for.
func (a *Allocator) Capacity() uint64 { return a.capacity }

// Unit returns the minimum allocation grain.
func (a *Allocator) Unit() uint64 { return a.unit }

// FreeBytes returns popcount(L0)*unit.
func (a *Allocator) FreeBytes() uint64 {
	return a.l0.debugFreeUnits() * a.unit
}

// AllocCount returns the number of live allocations tracked since Init or
// the last ApplySnapshot.
func (a *Allocator) AllocCount() uint64 { return a.allocCount }

// Alloc returns a list of intervals whose total length is in
// [minLength, length], each rounded to the allocator's unit.
func (a *Allocator) Alloc(length, minLength uint64) ([]Interval, error) {
	if minLength > a.l1Granularity {
		errs.Programmer("alloc: min_length (%d) must not exceed l1 granularity (%d)", minLength, a.l1Granularity)
	}
	length = bitops.AlignUp(length, a.unit)
	minLength = bitops.AlignUp(minLength, a.unit)
	if minLength == 0 {
		minLength = a.unit
	}

	var out []Interval
	var err error
	switch {
	case length <= a.unit:
		out, err = a.allocOneUnit()
	case minLength == a.unit:
		out, err = a.allocGreedy(length)
	case length <= a.l1Granularity:
		out, err = a.allocWithinL1(length, minLength, 0, a.l1Count())
	default:
		out, err = a.allocMulti(length, minLength)
	}
	if err != nil {
		return nil, err
	}
	a.allocCount += uint64(len(out))
	return out, nil
}

func (a *Allocator) l1Count() uint64 {
	return uint64(len(a.l1.words)) * childPerL1Slot
}

// allocOneUnit takes one unit from the first PARTIAL slotset, at the start
// of that slotset's longest free run; when no slotset is PARTIAL it takes
// the first unit of the lowest FREE slotset.
func (a *Allocator) allocOneUnit() ([]Interval, error) {
	ctx := a.l1.analyze(0, a.l1Count(), 1, 1, stopOnPartial)
	if ctx.minAffordableLen > 0 {
		end := ctx.affordableL0PosStart + 1
		a.markAllocAndRefresh(ctx.affordableL0PosStart, end)
		return []Interval{{Offset: ctx.affordableL0PosStart * a.unit, Length: a.unit}}, nil
	}
	if ctx.freeCount > 0 {
		const l0w = slotsetWidth * 64
		start := ctx.freeL1Pos * l0w
		a.markAllocAndRefresh(start, start+1)
		return []Interval{{Offset: start * a.unit, Length: a.unit}}, nil
	}
	return nil, ErrNoSpace
}

// allocWithinL1 ports allocator.h's _allocate_l1: length is at most
// l1Granularity. pos0/pos1 are L1-entry bounds to search within.
func (a *Allocator) allocWithinL1(length, minLength, pos0, pos1 uint64) ([]Interval, error) {
	const l0w = slotsetWidth * 64
	// analyze counts in L0 units; length and minLength are bytes.
	lenUnits, minUnits := length/a.unit, minLength/a.unit

	if length == a.l1Granularity {
		ctx := a.l1.analyze(pos0, pos1, lenUnits, minUnits, stopOnEmpty)
		if ctx.freeCount > 0 {
			start := ctx.freeL1Pos * l0w
			a.markAllocAndRefresh(start, start+l0w)
			return []Interval{{Offset: start * a.unit, Length: length}}, nil
		}
		if ctx.minAffordableLen > 0 {
			end := ctx.affordableL0PosStart + lenUnits
			a.markAllocAndRefresh(ctx.affordableL0PosStart, end)
			return []Interval{{Offset: ctx.affordableL0PosStart * a.unit, Length: length}}, nil
		}
		if ctx.maxLen >= minUnits {
			end := ctx.maxL0PosStart + ctx.maxLen
			a.markAllocAndRefresh(ctx.maxL0PosStart, end)
			return []Interval{{Offset: ctx.maxL0PosStart * a.unit, Length: ctx.maxLen * a.unit}}, nil
		}
		return nil, ErrNoSpace
	}

	// length < l1Granularity
	ctx := a.l1.analyze(pos0, pos1, lenUnits, minUnits, noStop)
	if ctx.minAffordableLen > 0 {
		end := ctx.affordableL0PosStart + lenUnits
		a.markAllocAndRefresh(ctx.affordableL0PosStart, end)
		return []Interval{{Offset: ctx.affordableL0PosStart * a.unit, Length: length}}, nil
	}
	if ctx.freeCount > 0 {
		start := ctx.freeL1Pos * l0w
		end := start + lenUnits
		a.markAllocAndRefresh(start, end)
		return []Interval{{Offset: start * a.unit, Length: length}}, nil
	}
	if ctx.maxLen >= minUnits {
		end := ctx.maxL0PosStart + ctx.maxLen
		a.markAllocAndRefresh(ctx.maxL0PosStart, end)
		return []Interval{{Offset: ctx.maxL0PosStart * a.unit, Length: ctx.maxLen * a.unit}}, nil
	}
	return nil, ErrNoSpace
}

// allocMulti handles length > l1Granularity by iterating L2/L1, greedily
// taking fully-free slotsets first and falling back to stitching PARTIAL
// runs until the requested total is met or space runs out. L2 group
// skipping prunes the scan to slotsets known to have at least one
// non-FULL entry, avoiding a linear walk over already-exhausted groups
// on large arenas.
func (a *Allocator) allocMulti(length, minLength uint64) ([]Interval, error) {
	var result []Interval
	var got uint64

	groups := a.l2GroupRanges()

	for _, g := range groups {
		if got >= length {
			break
		}
		for pos := g[0]; pos < g[1] && got < length; pos++ {
			if a.l1.get(pos) == l1Free {
				need := length - got
				if need > a.l1Granularity {
					need = a.l1Granularity
				}
				ivs, err := a.allocWithinL1(need, need, pos, pos+1)
				if err == nil {
					result = append(result, ivs...)
					got += ivs[0].Length
				}
			}
		}
	}
	for _, g := range groups {
		if got >= length {
			break
		}
		for pos := g[0]; pos < g[1] && got < length; pos++ {
			if a.l1.get(pos) == l1Partial {
				need := length - got
				if need > a.l1Granularity {
					need = a.l1Granularity
				}
				ivs, err := a.allocWithinL1(need, a.unit, pos, pos+1)
				if err == nil {
					result = append(result, ivs...)
					for _, iv := range ivs {
						got += iv.Length
					}
				}
			}
		}
	}

	if got < minLength {
		for _, iv := range result {
			a.markFreeAndRefresh(iv.Offset/a.unit, iv.End()/a.unit)
		}
		return nil, ErrNoSpace
	}
	return result, nil
}

// l2GroupRanges returns the [pos0, pos1) L1-entry ranges worth scanning,
// using the L2 summary to skip whole slotset groups that are entirely
// FULL. Without an L2 summary (arenas too small to carry one) it
// returns the full L1 range as a single group.
func (a *Allocator) l2GroupRanges() [][2]uint64 {
	l1Total := a.l1Count()
	if a.l2 == nil {
		return [][2]uint64{{0, l1Total}}
	}

	l2Total := uint64(len(a.l2.words)) * 64
	var ranges [][2]uint64
	for from := uint64(0); from < l2Total; {
		bit, ok := a.l2.firstAvailable(from)
		if !ok {
			break
		}
		start := bit * l1PerL2Slotset
		end := start + l1PerL2Slotset
		if end > l1Total {
			end = l1Total
		}
		ranges = append(ranges, [2]uint64{start, end})
		from = bit + 1
	}
	return ranges
}

// allocGreedy drains free units slot-by-slot without any best-fit search,
// for callers whose min_length equals the unit (fragmentation-tolerant
// fast path).
func (a *Allocator) allocGreedy(length uint64) ([]Interval, error) {
	var result []Interval
	var got uint64
	pos := uint64(0)
	for pos < a.numUnits && got < length {
		wordIdx := pos / bitops.WordBits
		word := a.l0.words[wordIdx]
		if word == 0 {
			pos = (wordIdx + 1) * bitops.WordBits
			continue
		}
		bit := bitops.FirstSetFrom(word, int(pos%bitops.WordBits))
		if bit < 0 {
			pos = (wordIdx + 1) * bitops.WordBits
			continue
		}
		runStart := wordIdx*bitops.WordBits + uint64(bit)
		runEnd := runStart
		for runEnd < a.numUnits && (runEnd-runStart)*a.unit < length-got &&
			(a.l0.words[runEnd/bitops.WordBits]>>(runEnd%bitops.WordBits))&1 == 1 {
			runEnd++
		}
		units := runEnd - runStart
		a.markAllocAndRefresh(runStart, runEnd)
		result = append(result, Interval{Offset: runStart * a.unit, Length: units * a.unit})
		got += units * a.unit
		pos = runEnd
	}
	if got == 0 {
		return nil, ErrNoSpace
	}
	return result, nil
}

// Free clears L0 bits for each interval, then refreshes L1 then L2 over
// the touched ranges.
func (a *Allocator) Free(intervals []Interval) error {
	for _, iv := range intervals {
		if iv.Offset%a.unit != 0 || iv.Length%a.unit != 0 || iv.Length == 0 {
			return ErrBadInterval
		}
		start := iv.Offset / a.unit
		end := iv.End() / a.unit
		a.markFreeAndRefresh(start, end)
	}
	a.allocCount -= uint64(len(intervals))
	return nil
}

// NoteAlloc idempotently re-applies an already-logged allocation during
// replay, without running the search path again. It counts the interval
// in AllocCount only if its first unit was still free.
func (a *Allocator) NoteAlloc(iv Interval) {
	start := iv.Offset / a.unit
	end := iv.End() / a.unit
	if (a.l0.words[start/bitops.WordBits]>>(start%bitops.WordBits))&1 == 1 {
		a.allocCount++
	}
	a.markAllocAndRefresh(start, end)
}

// ApplyRelease idempotently re-applies an already-logged free during
// replay. It uncounts the interval from AllocCount only if its first unit
// was still allocated.
func (a *Allocator) ApplyRelease(iv Interval) {
	start := iv.Offset / a.unit
	end := iv.End() / a.unit
	if (a.l0.words[start/bitops.WordBits]>>(start%bitops.WordBits))&1 == 0 && a.allocCount > 0 {
		a.allocCount--
	}
	a.markFreeAndRefresh(start, end)
}

func (a *Allocator) markAllocAndRefresh(l0Start, l0End uint64) {
	a.l0.markAlloc(l0Start, l0End)
	a.refreshSummaries(l0Start, l0End)
}

func (a *Allocator) markFreeAndRefresh(l0Start, l0End uint64) {
	a.l0.markFree(l0Start, l0End)
	a.refreshSummaries(l0Start, l0End)
}

func (a *Allocator) refreshSummaries(l0Start, l0End uint64) {
	const d = slotsetWidth * 64
	l0Cap := uint64(len(a.l0.words)) * 64
	l0s := bitops.AlignDown(l0Start, d)
	l0e := bitops.AlignUp(l0End, d)
	if l0e > l0Cap {
		l0e = l0Cap
	}
	a.l1.refreshOver(l0s, l0e)
	if a.l2 != nil {
		l1Cap := uint64(len(a.l1.words)) * childPerL1Slot
		l1s := bitops.AlignDown(l0s/d, l1PerL2Slotset)
		l1e := bitops.AlignUp(l0e/d, l1PerL2Slotset)
		if l1e > l1Cap {
			l1e = l1Cap
		}
		a.l2.refreshOver(l1s, l1e)
	}
}

// TakeSnapshot serializes the L0 bitmap and the current alloc count into
// one or more arena-backed pages, allocating the pages from this same
// allocator. L1/L2 are not serialized; ApplySnapshot re-derives them.
func (a *Allocator) TakeSnapshot(ar *arena.Arena) (pages []Interval, allocCount uint64, err error) {
	buf := a.serialize()
	snapshotAllocCount := a.allocCount
	remaining := uint64(len(buf))
	var written []Interval
	for remaining > 0 {
		chunk := remaining
		if chunk > snapshotPageSize {
			chunk = snapshotPageSize
		}
		chunk = bitops.AlignUp(chunk, a.unit)
		ivs, err := a.Alloc(chunk, a.unit)
		if err != nil {
			return nil, 0, err
		}
		written = append(written, ivs...)
		var got uint64
		for _, iv := range ivs {
			got += iv.Length
		}
		if got > remaining {
			got = remaining
		}
		remaining -= got
	}

	off := 0
	for _, iv := range written {
		n := int(iv.Length)
		if off+n > len(buf) {
			n = len(buf) - off
		}
		if n > 0 {
			copy(ar.Slice(iv.Offset, iv.Length), buf[off:off+n])
		}
		off += n
	}
	return written, snapshotAllocCount, nil
}

// ApplySnapshot restores bitmap state from pages previously produced by
// TakeSnapshot.
func (a *Allocator) ApplySnapshot(ar *arena.Arena, pages []Interval, allocCount uint64) error {
	var buf []byte
	for _, iv := range pages {
		buf = append(buf, ar.Slice(iv.Offset, iv.Length)...)
	}
	if err := a.deserialize(buf); err != nil {
		return err
	}
	a.allocCount = allocCount
	a.l1.refreshOver(0, bitops.AlignUp(a.numUnits, slotsetWidth*64))
	if a.l2 != nil {
		a.l2.refreshOver(0, bitops.AlignUp(a.l1Count(), l1PerL2Slotset))
	}
	return nil
}

// serialize encodes capacity, unit, and the raw L0 words. L1/L2 are
// derivable and are not stored.
func (a *Allocator) serialize() []byte {
	buf := make([]byte, 16+8*len(a.l0.words))
	wire.PutU64(buf, 0, a.capacity)
	wire.PutU64(buf, 8, a.unit)
	for i, w := range a.l0.words {
		wire.PutU64(buf, 16+8*i, w)
	}
	return buf
}

func (a *Allocator) deserialize(buf []byte) error {
	if len(buf) < 16 {
		return ErrCapacityMismatch
	}
	capacity := wire.ReadU64(buf, 0)
	unit := wire.ReadU64(buf, 8)
	if capacity != a.capacity || unit != a.unit {
		return ErrCapacityMismatch
	}
	// The pages are unit-rounded, so buf may carry padding after the words.
	words := len(a.l0.words)
	if len(buf) < 16+8*words {
		return ErrCapacityMismatch
	}
	for i := 0; i < words; i++ {
		a.l0.words[i] = wire.ReadU64(buf, 16+8*i)
	}
	return nil
}
