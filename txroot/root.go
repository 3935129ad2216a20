package txroot

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/nyxstor/tomdb/alloc"
	"github.com/nyxstor/tomdb/arena"
	"github.com/nyxstor/tomdb/dirty"
	"github.com/nyxstor/tomdb/errs"
	"github.com/nyxstor/tomdb/internal/bitops"
	"github.com/nyxstor/tomdb/txlog"
)

// logSqueeze is controlled by the TOMDB_LOG_ALLOC environment variable and
// mirrors the allocation-path debug toggle the teacher's allocator uses.
var logSqueeze = os.Getenv("TOMDB_LOG_ALLOC") != ""

// releaseEntry is one pending arena region queued for release. It is
// drained only on a successful commit; rollback discards it untouched.
type releaseEntry struct {
	Offset uint64
	Length uint64
}

// Root is the transactional object manager's control block (spec §4.9).
// It is safe for one writer and any number of readers to hold references
// concurrently, but callers are responsible for calling the Start/Stop
// pairs from a single goroutine per transaction — Root does not hand out
// per-goroutine handles.
type Root struct {
	mu sync.RWMutex

	path     string
	capacity uint64

	ar        *arena.Arena
	allocator *alloc.Allocator
	alog      *txlog.AllocLog
	objLog    *txlog.ObjLog
	dt        dirty.FlushableTracker

	idStable uint64
	idNext   uint64
	inTx     bool

	squeezeThreshold   int
	releaseQueue       []releaseEntry
	snapshotPages      []alloc.Interval
	snapshotAllocCount uint64

	squeezeCount  uint64
	commitCount   uint64
	rollbackCount uint64
}

// Create allocates a Root over a fresh, heap-backed arena of capacity
// bytes. Call Prepare before using it for transactions.
func Create(capacity uint64) *Root {
	return &Root{capacity: capacity}
}

// CreateFile is like Create but backs the arena with a memory-mapped
// file at path, so the byte range (though not yet the control-block
// bookkeeping — see the package doc's Restart section) can outlive the
// process.
func CreateFile(path string, capacity uint64) *Root {
	return &Root{capacity: capacity, path: path}
}

// Destroy releases the arena's backing resources. The Root must not be
// in a transaction or under read access.
func (r *Root) Destroy() error {
	if r.ar == nil {
		return nil
	}
	return r.ar.Close()
}

// Prepare initializes the allocator and logs. capacity must match the
// value passed to Create/CreateFile; min_alloc_unit must be a power of
// two >= 16.
func (r *Root) Prepare(allocLogSize, squeezeThreshold, objLogSize int, capacity, minAllocUnit uint64) error {
	if capacity != r.capacity {
		errs.Programmer("txroot: prepare capacity %d does not match create capacity %d", capacity, r.capacity)
	}
	Config{
		AllocLogSize:     allocLogSize,
		SqueezeThreshold: squeezeThreshold,
		ObjLogSize:       objLogSize,
		Capacity:         capacity,
		MinAllocUnit:     minAllocUnit,
	}.Validate()

	var ar *arena.Arena
	var err error
	if r.path != "" {
		ar, err = arena.Open(r.path, capacity, minAllocUnit)
	} else {
		ar = arena.New(capacity, minAllocUnit)
	}
	if err != nil {
		return err
	}

	r.ar = ar
	r.allocator = alloc.New(capacity, minAllocUnit)
	r.allocator.Init()
	r.alog = txlog.NewAllocLog(allocLogSize)
	r.objLog = txlog.NewObjLog(objLogSize)
	r.dt = dirty.NewTracker(ar)
	r.squeezeThreshold = squeezeThreshold
	r.idStable = 1
	r.idNext = 1
	return nil
}

// Arena exposes the underlying byte range for the persist and container
// packages, which address into it by offset.
func (r *Root) Arena() *arena.Arena { return r.ar }

// EffectiveID returns id_next, the id new writes within the current
// transaction are stamped with. Outside a transaction it equals
// StableID.
func (r *Root) EffectiveID() uint64 { return r.idNext }

// StableID returns id_stable, the id of the most recently committed
// transaction.
func (r *Root) StableID() uint64 { return r.idStable }

// Shutdown is the safe teardown counterpart to Prepare: it refuses to run
// while a transaction or read access is open, and otherwise is a no-op —
// the arena's bytes are left exactly as committed, ready for Destroy or
// for a subsequent Restart.
func (r *Root) Shutdown() error {
	if !r.mu.TryLock() {
		errs.Programmer("txroot: shutdown while a transaction or read access is open")
	}
	r.mu.Unlock()
	return nil
}

// StartTransaction acquires the exclusive writer lock and sets
// id_next = id_stable + 1. Returns errs.ErrAlreadyInTransaction if a
// writer or reader already holds the lock.
func (r *Root) StartTransaction() error {
	if !r.mu.TryLock() {
		return errs.ErrAlreadyInTransaction
	}
	if len(r.alog.Uncommitted()) != 0 || r.objLog.Len() != 0 {
		errs.Programmer("txroot: start_transaction with dirty log state from a prior transaction")
	}
	r.idNext = r.idStable + 1
	r.inTx = true
	return nil
}

// CommitTransaction finalizes the open transaction: it may squeeze the
// allocation log, drains the release queue, advances id_stable, commits
// the allocation log, resets the object log, flushes dirty arena ranges,
// and releases the writer lock.
func (r *Root) CommitTransaction(ctx context.Context) error {
	if !r.inTx {
		return errs.ErrNotInTransaction
	}

	// Gather the ranges this transaction actually touched before squeeze
	// replaces r.alog wholesale and the commit below resets r.objLog —
	// both would erase the bookkeeping a blanket "flush everything"
	// range was standing in for.
	if r.dt != nil {
		for _, e := range r.alog.Uncommitted() {
			r.dt.Add(int(e.Offset), int(e.Length))
		}
		for _, o := range r.objLog.Entries() {
			r.dt.Add(int(o.ObjectOffset), int(HeaderSize))
		}
	}

	if r.alog.UsedSize() > r.squeezeThreshold {
		if logSqueeze {
			fmt.Fprintf(os.Stderr, "[TXROOT] log size %d exceeds threshold %d - squeezing\n", r.alog.UsedSize(), r.squeezeThreshold)
		}
		if err := r.squeeze(); err != nil {
			r.rollbackLocked()
			return err
		}
		if r.dt != nil {
			for _, iv := range r.snapshotPages {
				r.dt.Add(int(iv.Offset), int(iv.Length))
			}
		}
	}

	if r.dt != nil {
		for _, e := range r.releaseQueue {
			r.dt.Add(int(e.Offset), int(e.Length))
		}
	}

	for _, e := range r.releaseQueue {
		if err := r.allocator.Free([]alloc.Interval{{Offset: e.Offset, Length: e.Length}}); err != nil {
			errs.Programmer("txroot: release queue entry (%d,%d) failed to free: %v", e.Offset, e.Length, err)
		}
	}
	r.releaseQueue = r.releaseQueue[:0]

	r.idStable = r.idNext
	r.alog.Commit()
	r.objLog.Reset()
	r.inTx = false
	r.commitCount++

	if r.dt != nil {
		if err := r.dt.FlushDataOnly(ctx); err != nil {
			r.mu.Unlock()
			return err
		}
		if err := r.dt.FlushHeaderAndMeta(ctx, dirty.FlushAuto); err != nil {
			r.mu.Unlock()
			return err
		}
	}

	r.mu.Unlock()
	return nil
}

// RollbackTransaction aborts the open transaction, restoring allocator
// and object state to exactly what it was before StartTransaction. It is
// infallible by contract.
func (r *Root) RollbackTransaction() error {
	if !r.inTx {
		return errs.ErrNotInTransaction
	}
	r.rollbackLocked()
	return nil
}

// rollbackLocked performs the rollback sequence. Callers must have
// already verified r.inTx and must not touch r.mu themselves.
func (r *Root) rollbackLocked() {
	r.releaseQueue = r.releaseQueue[:0]
	if r.dt != nil {
		r.dt.Reset()
	}

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
	r.inTx = false
	r.rollbackCount++
	r.mu.Unlock()
}

// StartReadAccess acquires the shared reader lock.
func (r *Root) StartReadAccess() error {
	r.mu.RLock()
	return nil
}

// StopReadAccess releases the shared reader lock.
func (r *Root) StopReadAccess() error {
	r.mu.RUnlock()
	return nil
}

// AllocRaw allocates length bytes (at least minLength) from the
// allocator and appends one allocation-log entry per returned interval.
// Valid only within an open transaction.
func (r *Root) AllocRaw(length, minLength uint64) ([]alloc.Interval, error) {
	if !r.inTx {
		errs.Programmer("txroot: alloc_raw outside a transaction")
	}
	ivs, err := r.allocator.Alloc(length, minLength)
	if err != nil {
		return nil, err
	}
	for _, iv := range ivs {
		if err := r.alog.Append(txlog.LogEntry{Offset: iv.Offset, Length: iv.Length, Flags: txlog.FlagAlloc}); err != nil {
			_ = r.allocator.Free([]alloc.Interval{iv})
			return nil, err
		}
	}
	return ivs, nil
}

// FreeRaw appends a release entry to the allocation log and queues the
// interval for release. It does not touch the allocator itself: per
// spec §4.5's "frees are actually freed at commit" model, the region
// stays allocated (and so cannot be handed out again, including by a
// later AllocRaw in this same transaction) until CommitTransaction
// drains the release queue. This is what makes RollbackTransaction's
// walk of the uncommitted log safe — a region this transaction both
// allocated and freed is only ever handed to allocator.Free once, by
// rollback's own undo of the alloc entry, not twice. Valid only within
// an open transaction.
func (r *Root) FreeRaw(offset, length uint64) error {
	if !r.inTx {
		errs.Programmer("txroot: free_raw outside a transaction")
	}
	length = bitops.AlignUp(length, r.allocator.Unit())
	if err := r.alog.Append(txlog.LogEntry{Offset: offset, Length: length, Flags: txlog.FlagRelease}); err != nil {
		return err
	}
	r.QueueForRelease(offset, length)
	return nil
}

// QueueForRelease queues an arena region for release once the current
// transaction commits. length is rounded up to the allocator's unit, as
// Alloc rounded it when the region was handed out. Rollback discards the
// queue untouched, since the region it names is still reachable through
// the object it was duplicated from.
func (r *Root) QueueForRelease(offset, length uint64) {
	length = bitops.AlignUp(length, r.allocator.Unit())
	r.releaseQueue = append(r.releaseQueue, releaseEntry{Offset: offset, Length: length})
}

// QueueInProgress records that a persistent object header at
// objectOffset is about to be overwritten, so RollbackTransaction (or a
// Restart that finds id_next > id_stable) can restore it.
func (r *Root) QueueInProgress(objectOffset, oldTID, oldPayloadOffset uint64) error {
	return r.objLog.Push(txlog.ObjEntry{
		ObjectOffset:     objectOffset,
		OldTID:           oldTID,
		OldPayloadOffset: oldPayloadOffset,
	})
}

// GetObjectCount returns the allocator's live allocation count.
func (r *Root) GetObjectCount() uint64 { return r.allocator.AllocCount() }

// GetAvailable returns the allocator's free byte count.
func (r *Root) GetAvailable() uint64 { return r.allocator.FreeBytes() }

// GetAlogSize returns the number of committed-but-not-squeezed entries
// in the allocation log.
func (r *Root) GetAlogSize() int { return r.alog.Size() }

// Stats is a point-in-time snapshot of Root's introspection counters.
type Stats struct {
	ObjectCount    uint64
	AvailableBytes uint64
	AlogSize       int
	AlogCapacity   int
	ObjLogLen      int
	SqueezeCount   uint64
	CommitCount    uint64
	RollbackCount  uint64
}

// Stats returns a snapshot of Root's counters.
func (r *Root) Stats() Stats {
	return Stats{
		ObjectCount:    r.allocator.AllocCount(),
		AvailableBytes: r.allocator.FreeBytes(),
		AlogSize:       r.alog.Size(),
		AlogCapacity:   r.alog.Capacity(),
		ObjLogLen:      r.objLog.Len(),
		SqueezeCount:   r.squeezeCount,
		CommitCount:    r.commitCount,
		RollbackCount:  r.rollbackCount,
	}
}
