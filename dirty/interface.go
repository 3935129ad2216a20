package dirty

import "context"

// DirtyTracker is the minimal interface for tracking dirty (modified) byte
// ranges. Implementations track which regions of an arena have been
// modified and need to be flushed to its backing storage.
//
// This interface is intended for components that only need to notify
// about dirty regions but don't manage flushing themselves (e.g. the
// allocator, the object log).
type DirtyTracker interface {
	// Add marks a byte range as dirty. off is the offset from the start
	// of the arena, length is the number of bytes.
	Add(off, length int)
}

// FlushableTracker extends DirtyTracker with methods for flushing dirty
// regions to disk. Intended for components that control when and how
// dirty data is persisted (the transaction root).
type FlushableTracker interface {
	DirtyTracker

	FlushDataOnly(ctx context.Context) error
	FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error
	Reset()
}

var _ FlushableTracker = (*Tracker)(nil)
