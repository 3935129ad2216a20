package persist

import (
	"github.com/nyxstor/tomdb/internal/wire"
	"github.com/nyxstor/tomdb/txroot"
)

// slotHeaderSize is a Header's (tid, payloadOffset) pair plus an 8-byte
// payload length, so Die can free exactly what was allocated without the
// caller having to remember it.
const slotHeaderSize = txroot.HeaderSize + 8

// Slot is a unique-owned persistent payload whose header also records
// its own length (spec §4.8). Grounded on PBuffer::setup_new/die: unlike
// Header.Access, Slot.Setup always replaces the payload outright rather
// than copy-on-write duplicating it, and skips the object-log bookkeeping
// for the previous payload when it was allocated by the current
// transaction, since nothing outside the transaction could have
// observed it and rollback's own undo of that allocation already
// restores it without help from the object log.
type Slot struct {
	root         *txroot.Root
	headerOffset uint64
}

// NewSlot allocates an empty slot header (tid = effective id, no
// payload yet). Call Setup to give it a payload.
func NewSlot(root *txroot.Root) (Slot, error) {
	ivs, err := root.AllocRaw(slotHeaderSize, slotHeaderSize)
	if err != nil {
		return Slot{}, err
	}
	txroot.WriteHeader(root.Arena(), ivs[0].Offset, root.EffectiveID(), 0)
	wire.PutU64(root.Arena().Slice(ivs[0].Offset+txroot.HeaderSize, 8), 0, 0)
	return Slot{root: root, headerOffset: ivs[0].Offset}, nil
}

// OpenSlot wraps an existing slot header at headerOffset, previously
// returned by NewSlot.Offset.
func OpenSlot(root *txroot.Root, headerOffset uint64) Slot {
	return Slot{root: root, headerOffset: headerOffset}
}

// Offset returns the slot header's arena offset.
func (s Slot) Offset() uint64 { return s.headerOffset }

func (s Slot) lengthOffset() uint64 { return s.headerOffset + txroot.HeaderSize }

// Length returns the current payload's size in bytes, or 0 if the slot
// has no payload.
func (s Slot) Length() uint64 {
	return wire.ReadU64(s.root.Arena().Slice(s.lengthOffset(), 8), 0)
}

// Inspect returns a read-only view of the current payload.
func (s Slot) Inspect() []byte {
	_, payloadOffset := txroot.ReadHeader(s.root.Arena(), s.headerOffset)
	return s.root.Arena().Slice(payloadOffset, s.Length())
}

// Setup allocates a newSize-byte payload and installs it in place of
// whatever the slot currently holds. Either way the old payload is only
// queued for release, not actually freed, until the transaction commits.
// If the existing payload was written by an earlier transaction, its
// (tid, offset) is also recorded in the object log so a rollback can
// restore it. If the existing payload belongs to the current
// transaction, that bookkeeping is skipped: rollback already undoes the
// allocation that created it, since nothing outside this transaction
// can have observed it.
func (s Slot) Setup(newSize uint64) ([]byte, error) {
	tid, oldOffset := txroot.ReadHeader(s.root.Arena(), s.headerOffset)
	oldLength := s.Length()
	effective := s.root.EffectiveID()

	ivs, err := s.root.AllocRaw(newSize, newSize)
	if err != nil {
		return nil, err
	}

	if oldOffset != 0 {
		if tid != effective {
			if err := s.root.QueueInProgress(s.headerOffset, tid, oldOffset); err != nil {
				_ = s.root.FreeRaw(ivs[0].Offset, ivs[0].Length)
				return nil, err
			}
			s.root.QueueForRelease(oldOffset, oldLength)
		} else if err := s.root.FreeRaw(oldOffset, oldLength); err != nil {
			_ = s.root.FreeRaw(ivs[0].Offset, ivs[0].Length)
			return nil, err
		}
	}

	txroot.WriteHeader(s.root.Arena(), s.headerOffset, effective, ivs[0].Offset)
	wire.PutU64(s.root.Arena().Slice(s.lengthOffset(), 8), 0, newSize)
	return s.root.Arena().Slice(ivs[0].Offset, newSize), nil
}

// Die frees the payload (exactly the length recorded at setup time) and
// clears the slot header. Mirrors Header.Die's object-log bookkeeping.
func (s Slot) Die() error {
	tid, offset := txroot.ReadHeader(s.root.Arena(), s.headerOffset)
	if offset == 0 {
		return nil
	}
	length := s.Length()
	if err := s.root.QueueInProgress(s.headerOffset, tid, offset); err != nil {
		return err
	}
	s.root.QueueForRelease(offset, length)
	txroot.WriteHeader(s.root.Arena(), s.headerOffset, 0, 0)
	wire.PutU64(s.root.Arena().Slice(s.lengthOffset(), 8), 0, 0)
	return nil
}
