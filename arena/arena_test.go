package arena

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_CapacityAndUnit(t *testing.T) {
	a := New(4096, 64)
	require.EqualValues(t, 4096, a.Capacity())
	require.EqualValues(t, 64, a.Unit())
	require.Len(t, a.Bytes(), 4096)
}

func TestNew_RejectsNonPow2Unit(t *testing.T) {
	require.Panics(t, func() { New(4096, 63) })
}

func TestNew_RejectsCapacityNotMultipleOfUnit(t *testing.T) {
	require.Panics(t, func() { New(100, 64) })
}

func TestSlice_RoundTrip(t *testing.T) {
	a := New(1024, 64)
	s := a.Slice(64, 128)
	require.Len(t, s, 128)
	s[0] = 0xAB
	require.Equal(t, byte(0xAB), a.Bytes()[64])
}

func TestSlice_OutOfBoundsPanics(t *testing.T) {
	a := New(1024, 64)
	require.Panics(t, func() { a.Slice(1000, 100) })
}

func TestPointerAndOffsetOf_RoundTrip(t *testing.T) {
	a := New(1024, 64)
	p := a.Pointer(256)
	off, ok := a.OffsetOf(p)
	require.True(t, ok)
	require.EqualValues(t, 256, off)
}

func TestOffsetOf_RejectsForeignPointer(t *testing.T) {
	a := New(1024, 64)
	b := New(1024, 64)
	p := b.Pointer(0)
	_, ok := a.OffsetOf(p)
	require.False(t, ok)
}

func TestOpen_CreatesAndMapsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.bin")

	a, err := Open(path, 4096, 64)
	require.NoError(t, err)
	defer a.Close()

	require.EqualValues(t, 4096, a.Capacity())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 4096, info.Size())

	a.Slice(0, 4)[0] = 0x7F
	require.NoError(t, a.Close())
}

func TestOpen_RejectsBadCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.bin")

	_, err := Open(path, 100, 64)
	require.Error(t, err)
}
