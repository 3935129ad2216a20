package txroot

import (
	"github.com/nyxstor/tomdb/arena"
	"github.com/nyxstor/tomdb/internal/wire"
	"github.com/nyxstor/tomdb/txlog"
)

// HeaderSize is the fixed byte layout of a persistent object header: an
// 8-byte transaction id followed by an 8-byte payload offset. This is
// the single source of truth for that layout — the persist package reads
// and writes headers through ReadHeader/WriteHeader so that object-log
// recovery here and persist.Header's own accessors never drift apart.
const HeaderSize = 16

// ReadHeader reads the (tid, payloadOffset) pair at offset within ar.
func ReadHeader(ar *arena.Arena, offset uint64) (tid, payloadOffset uint64) {
	buf := ar.Slice(offset, HeaderSize)
	return wire.ReadU64(buf, 0), wire.ReadU64(buf, 8)
}

// WriteHeader writes the (tid, payloadOffset) pair at offset within ar.
func WriteHeader(ar *arena.Arena, offset uint64, tid, payloadOffset uint64) {
	buf := ar.Slice(offset, HeaderSize)
	wire.PutU64(buf, 0, tid)
	wire.PutU64(buf, 8, payloadOffset)
}

// recoverObject restores a duplicated object header to the identity it
// had before the current transaction touched it.
func (r *Root) recoverObject(o txlog.ObjEntry) {
	WriteHeader(r.ar, o.ObjectOffset, o.OldTID, o.OldPayloadOffset)
}
