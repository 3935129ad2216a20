package alloc

import "errors"

var (
	// ErrNoSpace indicates no interval (or combination of intervals) large
	// enough to satisfy min_length was found.
	ErrNoSpace = errors.New("alloc: no free space large enough")

	// ErrBadInterval indicates an interval passed to Free does not lie on a
	// unit boundary or is empty. Free does not check that the interval is
	// currently allocated.
	ErrBadInterval = errors.New("alloc: bad or unaligned interval")

	// ErrCapacityMismatch indicates a snapshot was taken under a different
	// (capacity, unit) pair than the allocator currently has.
	ErrCapacityMismatch = errors.New("alloc: snapshot capacity/unit mismatch")
)
