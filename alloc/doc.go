// Package alloc implements the hierarchical bitmap allocator: a free-space
// manager over a fixed-capacity arena that allocates aligned regions at a
// configurable minimum grain.
//
// # Overview
//
// The allocator tracks free space with a three-level bitmap:
//
//   - L0: one bit per allocation unit. 1 means free.
//   - L1: one 2-bit summary per 512-unit slotset (FREE/PARTIAL/FULL).
//   - L2: one bit per 256-entry L1 group, guarding scans over mostly-full
//     regions.
//
// L2 is optional: small arenas get only L0/L1. A request smaller than a
// slotset first takes a best-fit run inside a PARTIAL slotset and only then
// cuts into a FREE one; a request of exactly one slotset prefers a FREE
// slotset; a request whose min_length equals the unit drains free units in
// offset order without a best-fit search. Among equally good candidates
// the lowest offset wins, so results are deterministic for a given bitmap
// state.
//
// # Usage
//
//	a := alloc.New(capacity, unit)
//	a.Init()
//	intervals, err := a.Alloc(length, minLength)
//	...
//	err = a.Free(intervals)
//
// # Replay
//
// NoteAlloc and ApplyRelease are idempotent primitives used by log
// replay (see Root.Restart in the txroot package): they re-apply a previously logged
// mutation without re-running the search path.
//
// # Thread Safety
//
// Allocator is not safe for concurrent use. Callers serialize access
// through the txroot package's transaction lock.
package alloc
