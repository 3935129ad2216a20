// Package errs defines the error taxonomy used across tomdb.
//
// Recoverable conditions (OutOfSpace, LogFull, InconsistentReplay) flow as
// explicit return values — there is no ambient error channel. Detected
// precondition violations (a bad unit or capacity, min_length above the L1
// granularity, AllocRaw or FreeRaw outside a transaction, Restart while one
// is open) are
// ProgrammerErrors: they indicate a bug in the caller, not a runtime
// condition, and are reported by panicking rather than returning an error,
// since by contract they are not meant to be recovered from. alloc.Free is
// the exception: it returns alloc.ErrBadInterval for a misaligned interval.
// Freeing an already-free interval is not detected.
package errs

import "fmt"

// Kind classifies a recoverable error so callers can branch on intent
// rather than on error text.
type Kind int

const (
	// KindOutOfSpace means alloc could not satisfy the requested min length.
	KindOutOfSpace Kind = iota
	// KindLogFull means an allocation or object log would exceed capacity.
	KindLogFull
	// KindInconsistentReplay means restart replay found a non-recoverable log/snapshot state.
	KindInconsistentReplay
	// KindBadState means an operation was attempted in the wrong state-machine state.
	KindBadState
)

func (k Kind) String() string {
	switch k {
	case KindOutOfSpace:
		return "out-of-space"
	case KindLogFull:
		return "log-full"
	case KindInconsistentReplay:
		return "inconsistent-replay"
	case KindBadState:
		return "bad-state"
	default:
		return fmt.Sprintf("unknown-kind-%d", int(k))
	}
}

// Error is a typed, wrappable error with a stable Kind for programmatic handling.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, &errs.Error{Kind: errs.KindOutOfSpace}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	// ErrOutOfSpace is the OutOfSpace sentinel. The alloc package reports
	// this condition with its own alloc.ErrNoSpace.
	ErrOutOfSpace = &Error{Kind: KindOutOfSpace, Msg: "allocator: out of space"}
	// ErrLogFull is the LogFull sentinel. The txlog package reports a full
	// log with its own txlog.ErrLogFull.
	ErrLogFull = &Error{Kind: KindLogFull, Msg: "log: full"}
	// ErrInconsistentReplay is the InconsistentReplay sentinel; no code path
	// in this module returns it.
	ErrInconsistentReplay = &Error{Kind: KindInconsistentReplay, Msg: "replay: inconsistent state"}
	// ErrNotInTransaction is returned by write operations issued outside a transaction.
	ErrNotInTransaction = &Error{Kind: KindBadState, Msg: "txroot: not in transaction"}
	// ErrAlreadyInTransaction is returned by StartTransaction while one is already open.
	ErrAlreadyInTransaction = &Error{Kind: KindBadState, Msg: "txroot: transaction already in progress"}
)

// Programmer panics on a precondition violation. Contract: the process
// should not attempt to recover from this — it indicates a caller bug
// (misaligned offset, double init, double free, destroy while in a
// transaction), not a runtime condition.
func Programmer(format string, args ...any) {
	panic("tomdb: programmer error: " + fmt.Sprintf(format, args...))
}
