package alloc

// Interval is an (offset, length) pair denominated in bytes; offset is a
// multiple of the allocator's unit and length a positive multiple of it.
type Interval struct {
	Offset uint64
	Length uint64
}

// End returns the exclusive end offset of the interval.
func (iv Interval) End() uint64 { return iv.Offset + iv.Length }

// searchMode controls how far l1.analyze walks before returning early.
type searchMode int

const (
	// noStop walks the full range, accumulating best-fit and longest-run
	// candidates as it goes.
	noStop searchMode = iota
	// stopOnEmpty returns as soon as a fully-FREE L1 entry is found.
	stopOnEmpty
	// stopOnPartial returns as soon as a PARTIAL L1 entry is found.
	stopOnPartial
)

// searchCtx accumulates the result of l1.analyze over a range of L1
// entries, grounded on allocator.h's search_ctx_t.
type searchCtx struct {
	partialCount int
	freeCount    int
	freeL1Pos    uint64

	maxLen        uint64
	maxL0PosStart uint64
	maxL0PosEnd   uint64

	minAffordableLen       uint64
	affordableL0PosStart   uint64
	affordableL0PosEnd     uint64

	fullyProcessed bool
}
