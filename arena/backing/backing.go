// Package backing provides platform-specific helpers for mapping the arena's
// byte range onto a file, so a tomdb arena can be backed by persistent
// memory or a regular file instead of plain process heap.
//
// Map returns a read-write slice over the file's first size bytes (the
// file is truncated/extended to size first) and an unmap function that
// must be called to release the mapping.
package backing

// Mapping is the result of mapping a file into memory.
type Mapping struct {
	Data   []byte
	Unmap  func() error
	Handle int // platform file descriptor/handle, -1 if not applicable
}
