// Package persist implements the persistent object handle and unique-owned
// slot that sit directly on top of a transaction root: the header layout
// that ties a payload's lifetime to a transaction id, and the
// copy-on-write duplication that lets a rolled-back transaction restore
// the payload a header pointed to before the transaction touched it.
//
// Neither type owns an allocator or an arena; both address into whichever
// *txroot.Root they were opened against, mirroring the teacher's
// zero-cost, buffer-view style (see hive.NK) rather than a Go struct with
// its own backing storage.
package persist

import (
	"github.com/nyxstor/tomdb/txroot"
)

// Header is a view over a persistent object header: an 8-byte
// transaction id and an 8-byte payload offset, stored at headerOffset
// within root's arena. payloadSize is carried alongside rather than
// encoded in the header itself, since this port has no generic runtime
// type information to recover it from.
type Header struct {
	root         *txroot.Root
	headerOffset uint64
	payloadSize  uint64
}

// NewHeader allocates a header and a payloadSize-byte payload, stamps the
// header with the current transaction's effective id, and returns a view
// over it. Must be called within an open transaction.
func NewHeader(root *txroot.Root, payloadSize uint64) (Header, error) {
	hIvs, err := root.AllocRaw(txroot.HeaderSize, txroot.HeaderSize)
	if err != nil {
		return Header{}, err
	}
	pIvs, err := root.AllocRaw(payloadSize, payloadSize)
	if err != nil {
		_ = root.FreeRaw(hIvs[0].Offset, hIvs[0].Length)
		return Header{}, err
	}
	txroot.WriteHeader(root.Arena(), hIvs[0].Offset, root.EffectiveID(), pIvs[0].Offset)
	return Header{root: root, headerOffset: hIvs[0].Offset, payloadSize: payloadSize}, nil
}

// OpenHeader wraps an existing header at headerOffset, previously
// returned by NewHeader.Offset, for further Inspect/Access/Die calls.
func OpenHeader(root *txroot.Root, headerOffset, payloadSize uint64) Header {
	return Header{root: root, headerOffset: headerOffset, payloadSize: payloadSize}
}

// Offset returns the header's arena offset, the value a caller persists
// elsewhere (e.g. in a container slot) to reopen this object later.
func (h Header) Offset() uint64 { return h.headerOffset }

// Inspect returns a read-only view of the current payload. Valid under
// either a transaction or a read access.
func (h Header) Inspect() []byte {
	_, payloadOffset := txroot.ReadHeader(h.root.Arena(), h.headerOffset)
	return h.root.Arena().Slice(payloadOffset, h.payloadSize)
}

// Access returns a mutable view of the payload. If the header was last
// written by the current transaction (tid == effective id) the existing
// payload is returned unchanged; otherwise the payload is duplicated:
// the old (tid, offset) pair is recorded in the object log for rollback,
// the old payload is queued for release once the transaction commits,
// and the header is updated in place to point at the copy.
func (h Header) Access() ([]byte, error) {
	tid, payloadOffset := txroot.ReadHeader(h.root.Arena(), h.headerOffset)
	effective := h.root.EffectiveID()
	if tid == effective {
		return h.root.Arena().Slice(payloadOffset, h.payloadSize), nil
	}

	newIvs, err := h.root.AllocRaw(h.payloadSize, h.payloadSize)
	if err != nil {
		return nil, err
	}
	if err := h.root.QueueInProgress(h.headerOffset, tid, payloadOffset); err != nil {
		_ = h.root.FreeRaw(newIvs[0].Offset, newIvs[0].Length)
		return nil, err
	}

	newPayload := h.root.Arena().Slice(newIvs[0].Offset, h.payloadSize)
	copy(newPayload, h.root.Arena().Slice(payloadOffset, h.payloadSize))
	h.root.QueueForRelease(payloadOffset, h.payloadSize)
	txroot.WriteHeader(h.root.Arena(), h.headerOffset, effective, newIvs[0].Offset)
	return newPayload, nil
}

// Die records the header's current state in the object log, queues both
// the header and the payload for release once the transaction commits,
// and zeroes the header so a concurrent reader sees a dead object rather
// than a dangling one.
func (h Header) Die() error {
	tid, payloadOffset := txroot.ReadHeader(h.root.Arena(), h.headerOffset)
	if err := h.root.QueueInProgress(h.headerOffset, tid, payloadOffset); err != nil {
		return err
	}
	h.root.QueueForRelease(h.headerOffset, txroot.HeaderSize)
	h.root.QueueForRelease(payloadOffset, h.payloadSize)
	txroot.WriteHeader(h.root.Arena(), h.headerOffset, 0, 0)
	return nil
}
