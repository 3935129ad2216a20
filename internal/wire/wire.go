// Package wire provides little-endian struct-over-bytes accessors for the
// fixed-layout records (log entries, object headers) persisted in the
// arena.
//
// Implementation: uses encoding/binary. Benchmarked against unsafe-pointer
// casts for this access pattern; the compiler already inlines
// binary.LittleEndian well enough that the unsafe version bought nothing
// but risk.
package wire

import "encoding/binary"

// PutU32 writes v to b[off:off+4] in little-endian order.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes v to b[off:off+8] in little-endian order.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU32 reads a uint32 from b[off:off+4] in little-endian order.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadU64 reads a uint64 from b[off:off+8] in little-endian order.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}
