// Package txroot implements the transactional object manager's control
// block: the state machine that turns a bitmap allocator and a pair of
// append-only logs into atomic, crash-recoverable multi-object mutations.
//
// # Overview
//
// A Root owns an arena, an Allocator over that arena, an allocation log
// (every alloc/free issued during the current transaction), and an object
// log (every persistent-object duplication issued during the current
// transaction). Exactly one writer transaction may be open at a time;
// any number of readers may be open concurrently with each other, but
// never with a writer.
//
// State machine:
//
//	IDLE --StartTransaction--> WRITING --CommitTransaction--> IDLE
//	                        \--RollbackTransaction--> IDLE
//	IDLE --StartReadAccess--> READING --StopReadAccess--> IDLE
//
// The transition is enforced by a sync.RWMutex held exclusively for the
// whole WRITING window (acquired in StartTransaction, released in
// CommitTransaction or RollbackTransaction) and held shared for the whole
// READING window. There is no separate state field: the mutex's lock
// state IS the state machine state.
//
// # Commit and rollback
//
// CommitTransaction squeezes the allocation log if it has grown past the
// configured threshold, drains the release queue (freeing everything
// queued by persist.Header.Access/Die during the transaction), advances
// id_stable to id_next, commits the allocation log, and resets the
// object log.
//
// RollbackTransaction discards the release queue, walks the uncommitted
// tail of the allocation log freeing every non-release entry, rolls the
// log back, replays the object log to restore every duplicated object
// header to its pre-transaction identity, and rewinds id_next to
// id_stable. It is infallible by contract: once a transaction is open,
// rollback always succeeds.
//
// # Restart
//
// Restart simulates a process restart: it bumps the global run id
// (invalidating every live arena.VolatileHandle), finishes whatever
// transaction was left open exactly as replay() does in the original
// design (roll back if id_next > id_stable, otherwise treat the already-
// matched ids as committed), and then rebuilds the allocator's bitmap
// from scratch by walking the committed allocation log from its start:
// an INIT entry re-initializes the allocator from a captured snapshot, a
// release entry becomes ApplyRelease, everything else becomes NoteAlloc.
// This exercises the exact log-replay path a real crash recovery would
// take, even though the arena bytes themselves never left process
// memory.
package txroot
