package txroot

import (
	"github.com/nyxstor/tomdb/txlog"
)

// squeeze replaces the allocation log with a fresh, empty one whose first
// entry is an INIT record anchoring a freshly taken allocator snapshot.
// The snapshot is serialized before its own pages are allocated, so the
// new log records those pages as alloc entries right after INIT, for
// replay to re-apply on top of the snapshot. Any snapshot pages from a
// previous squeeze are queued for release —
// they are superseded by the new snapshot and unreachable once this
// transaction commits.
func (r *Root) squeeze() error {
	pages, allocCount, err := r.allocator.TakeSnapshot(r.ar)
	if err != nil {
		return err
	}

	if r.snapshotPages != nil {
		for _, iv := range r.snapshotPages {
			r.QueueForRelease(iv.Offset, iv.Length)
		}
	}

	init := txlog.LogEntry{
		Offset: r.allocator.Capacity(),
		Length: r.allocator.Unit(),
		Flags:  txlog.FlagInit,
	}
	r.alog = r.alog.Squeeze(init)
	for _, iv := range pages {
		if err := r.alog.Append(txlog.LogEntry{Offset: iv.Offset, Length: iv.Length, Flags: txlog.FlagAlloc}); err != nil {
			return err
		}
	}
	r.snapshotPages = pages
	r.snapshotAllocCount = allocCount
	r.squeezeCount++
	return nil
}

// applySnapshot restores the allocator's bitmap from the pages captured
// by the most recent squeeze, as part of replay's INIT-entry handling.
func (r *Root) applySnapshot() error {
	return r.allocator.ApplySnapshot(r.ar, r.snapshotPages, r.snapshotAllocCount)
}
