// Package dirty tracks which byte ranges of an arena were modified during a
// transaction and flushes them to the arena's backing storage.
//
// # Tracker
//
// Tracker keeps a plain slice of raw ranges and defers all work to flush
// time:
//
//   - Add(off, length): record a modified range (appended, not merged)
//   - FlushDataOnly(ctx): coalesce and flush every range except the
//     control-block page at offset 0, then clear the ranges
//   - FlushHeaderAndMeta(ctx, mode): flush the control-block page and,
//     unless mode is FlushDataOnly, sync the backing file descriptor
//   - Reset(): drop all ranges without flushing
//   - DebugRanges / DebugCoalescedRanges: inspect the raw and the
//     coalesced ranges
//
// # Usage
//
//	tracker := dirty.NewTracker(ar)
//	tracker.Add(0x5000, 128)
//	if err := tracker.FlushDataOnly(ctx); err != nil {
//	    return err
//	}
//	err := tracker.FlushHeaderAndMeta(ctx, dirty.FlushAuto)
//
// # Range Coalescing
//
// At flush time each range is widened to 4 KiB page boundaries, the ranges
// are sorted, and overlapping or adjacent ones are merged:
//
//	Add(0x5000, 128), Add(0x6010, 16), Add(0x1000, 1)
//	→ [0x1000, 0x2000), [0x5000, 0x7000)
//
// # Thread Safety
//
// Tracker is not safe for concurrent use. The txroot package owns one per
// Root and uses it only under the writer lock: CommitTransaction adds and
// flushes ranges, and rollback calls Reset.
package dirty
