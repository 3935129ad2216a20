//go:build linux || freebsd

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges flushes individual dirty ranges to disk.
//
// On Linux and other Unix systems, msync() can handle sub-slices correctly.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	coalesced := t.coalesce()

	for _, r := range coalesced {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Skip the control-block page (offset 0); FlushHeaderAndMeta owns it.
		if r.Off == 0 {
			continue
		}

		start := int(r.Off)
		end := int(r.Off + r.Len)
		if end > len(data) {
			continue
		}

		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}

	return nil
}

// msync flushes a memory region to disk.
func msync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

// fdatasync performs file descriptor sync.
//
// On Linux/FreeBSD, fdatasync() provides sufficient guarantees. fullfsync
// is ignored.
func fdatasync(fd int, _ bool) error {
	return unix.Fdatasync(fd)
}
