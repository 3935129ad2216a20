package txlog

import "errors"

var (
	// ErrLogFull is returned by Append when head would exceed the log's
	// fixed capacity.
	ErrLogFull = errors.New("txlog: log is full")

	// ErrObjLogFull is returned by the object log's Push when it has no
	// remaining capacity.
	ErrObjLogFull = errors.New("txlog: object log is full")
)
