package txroot

import (
	"github.com/nyxstor/tomdb/alloc"
	"github.com/nyxstor/tomdb/arena"
	"github.com/nyxstor/tomdb/errs"
	"github.com/nyxstor/tomdb/txlog"
)

// Restart simulates a process restart (spec §4.9's replay()). It bumps
// the global run id, finishes whatever transaction was left open, and
// rebuilds the allocator's bitmap entirely from the committed allocation
// log — a stronger guarantee than the original's in-place reconciliation,
// chosen so the log-replay path is actually exercised by every restart
// rather than only after a squeeze. See Root.Prepare for the capacity
// and unit this re-derives against.
func (r *Root) Restart() error {
	if !r.mu.TryLock() {
		errs.Programmer("txroot: restart while a transaction or read access is open")
	}
	defer r.mu.Unlock()

	arena.BumpRunID()

	if r.idNext > r.idStable {
		for _, e := range r.alog.Uncommitted() {
			if e.Flags != txlog.FlagRelease {
				_ = r.allocator.Free([]alloc.Interval{{Offset: e.Offset, Length: e.Length}})
			}
		}
		r.alog.Rollback()
		for _, o := range r.objLog.Entries() {
			r.recoverObject(o)
		}
		r.objLog.Reset()
		r.idNext = r.idStable
	} else {
		r.alog.Commit()
		r.objLog.Reset()
	}

	r.allocator = alloc.New(r.allocator.Capacity(), r.allocator.Unit())
	r.allocator.Init()
	for _, e := range r.alog.Committed() {
		switch e.Flags {
		case txlog.FlagInit:
			if err := r.applySnapshot(); err != nil {
				return err
			}
		case txlog.FlagRelease:
			r.allocator.ApplyRelease(alloc.Interval{Offset: e.Offset, Length: e.Length})
		default:
			r.allocator.NoteAlloc(alloc.Interval{Offset: e.Offset, Length: e.Length})
		}
	}

	r.inTx = false
	r.releaseQueue = r.releaseQueue[:0]
	return nil
}
