package arena

import "sync/atomic"

// runSeq increments once per process attach to an arena, so that any
// pointer captured before a restart can never be mistaken for one that is
// still valid. This mirrors original_source/persistent_objects.h's
// PersistencyRoot.runId, which serves the same purpose across C++ process
// restarts.
var runSeq uint64

// CurrentRunID returns the run id in effect for the current process
// attach. It changes only when BumpRunID is called (txroot's Root.Restart
// calls it once per restart; Prepare does not).
func CurrentRunID() uint64 {
	return atomic.LoadUint64(&runSeq)
}

// BumpRunID advances the run id, invalidating every VolatileHandle created
// under the previous one. Callers should invoke this exactly once per
// attach to a given arena, before handing out any handles.
func BumpRunID() uint64 {
	return atomic.AddUint64(&runSeq, 1)
}

// VolatileHandle is a (run id, pointer) pair: a cache of a pointer that is
// only safe to dereference while the run id it was captured under is still
// current. It exists because Go pointers, unlike arena offsets, do not
// survive a process restart — the backing mapping gets a new base address
// — so a stale VolatileHandle must fail closed rather than dereference
// into unrelated memory.
type VolatileHandle[T any] struct {
	runID uint64
	ptr   *T
}

// NewVolatileHandle captures p under the arena's current run id.
func NewVolatileHandle[T any](p *T) VolatileHandle[T] {
	return VolatileHandle[T]{runID: CurrentRunID(), ptr: p}
}

// Deref returns the held pointer, or nil if the run id has moved on since
// the handle was created.
func (h VolatileHandle[T]) Deref() *T {
	if h.runID != CurrentRunID() {
		return nil
	}
	return h.ptr
}

// Valid reports whether the handle was captured under the current run id.
func (h VolatileHandle[T]) Valid() bool {
	return h.runID == CurrentRunID()
}

// IsZero reports whether h holds no pointer at all.
func (h VolatileHandle[T]) IsZero() bool {
	return h.ptr == nil
}
