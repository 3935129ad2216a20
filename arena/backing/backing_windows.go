//go:build windows

package backing

import (
	"os"

	"golang.org/x/sys/windows"
)

// Map opens (creating if necessary) the file at path, truncates it to
// exactly size bytes, and maps it read-write via CreateFileMapping/MapViewOfFile.
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

	h := windows.Handle(f.Fd())
	mapping, err := windows.CreateFileMapping(h, nil, windows.PAGE_READWRITE, uint32(size>>32), uint32(size), nil)
	if err != nil {
		f.Close()
		return Mapping{}, err
	}
	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapping)
		f.Close()
		return Mapping{}, err
	}
	data := unsafeSlice(addr, int(size))
	unmap := func() error {
		_ = windows.UnmapViewOfFile(addr)
		_ = windows.CloseHandle(mapping)
		return f.Close()
	}
	return Mapping{Data: data, Unmap: unmap, Handle: int(f.Fd())}, nil
}
