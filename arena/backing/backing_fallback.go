//go:build !unix && !windows

package backing

import "os"

// Map reads the entire file into memory when mmap is not available for the
// target platform. Unmap writes the (possibly modified) data back.
func Map(path string, size int64) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Mapping{}, err
		}
		data = nil
	}
	if int64(len(data)) < size {
		grown := make([]byte, size)
		copy(grown, data)
		data = grown
	} else {
		data = data[:size]
	}
	unmap := func() error {
		return os.WriteFile(path, data, 0o600)
	}
	return Mapping{Data: data, Unmap: unmap, Handle: -1}, nil
}
