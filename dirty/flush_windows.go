//go:build windows

package dirty

import (
	"context"
	"unsafe"

	"golang.org/x/sys/windows"
)

// flushRanges flushes each coalesced dirty range via FlushViewOfFile.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	coalesced := t.coalesce()

	for _, r := range coalesced {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Off == 0 {
			continue
		}
		start := int(r.Off)
		end := int(r.Off + r.Len)
		if end > len(data) {
			continue
		}
		if err := msync(data[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// msync performs memory sync for the given byte slice using FlushViewOfFile.
func msync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))
	return windows.FlushViewOfFile(addr, uintptr(len(data)))
}

// fdatasync performs file descriptor sync using FlushFileBuffers.
// fullfsync is ignored on Windows.
func fdatasync(fd int, _ bool) error {
	return windows.FlushFileBuffers(windows.Handle(fd))
}
