// Package txlog implements the two append-only logs that back the
// transaction root's commit/rollback protocol: the allocation log (every
// allocator mutation) and the object log (every object cell duplicated
// within the current transaction).
//
// Both logs are plain arrays with cursor arithmetic; neither log
// interprets the bytes it carries beyond its own fixed-size entry
// struct. Replay and squeeze live in the txroot package, which is the
// only caller that understands how entries map onto allocator and
// object operations.
package txlog
