//go:build unix

package backing

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map opens (creating if necessary) the file at path, truncates it to
// exactly size bytes, and maps it read-write.
func Map(path string, size int64) (Mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return Mapping{}, err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return Mapping{}, err
	}
	if size == 0 {
		return Mapping{Data: []byte{}, Unmap: func() error { return f.Close() }, Handle: int(f.Fd())}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return Mapping{}, fmt.Errorf("backing: mmap: %w", err)
	}
	fd := int(f.Fd())
	unmap := func() error {
		if data == nil {
			return f.Close()
		}
		if err := unix.Munmap(data); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return Mapping{Data: data, Unmap: unmap, Handle: fd}, nil
}
