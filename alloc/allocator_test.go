package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstor/tomdb/arena"
)

const testUnit = 64

func newTestAllocator(t testing.TB, capacity uint64) *Allocator {
	t.Helper()
	a := New(capacity, testUnit)
	a.Init()
	return a
}

func TestInit_ReservesHeaderUnit(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	require.False(t, a.l0.words[0]&1 == 1, "unit 0 must be marked allocated")
	require.Equal(t, uint8(l1Partial), a.l1.get(0))
}

func TestAlloc_SingleUnit(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	ivs, err := a.Alloc(testUnit, testUnit)
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	require.EqualValues(t, testUnit, ivs[0].Offset)
	require.EqualValues(t, testUnit, ivs[0].Length)
}

func TestAlloc_ThenFree_RestoresFreeBytes(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	before := a.FreeBytes()

	ivs, err := a.Alloc(4096, 4096)
	require.NoError(t, err)

	require.NoError(t, a.Free(ivs))
	require.Equal(t, before, a.FreeBytes())
}

func TestAlloc_NeverOverlaps(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	seen := map[uint64]bool{}
	for i := 0; i < 64; i++ {
		ivs, err := a.Alloc(testUnit, testUnit)
		require.NoError(t, err)
		for _, iv := range ivs {
			for u := iv.Offset; u < iv.End(); u += testUnit {
				require.False(t, seen[u], "unit %d double-allocated", u)
				seen[u] = true
			}
		}
	}
}

func TestAlloc_OutOfSpace(t *testing.T) {
	a := newTestAllocator(t, 8*testUnit)
	_, err := a.Alloc(8*testUnit, 8*testUnit)
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestAlloc_MinLengthAboveL1GranularityPanics(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	require.Panics(t, func() {
		_, _ = a.Alloc(a.l1Granularity*2, a.l1Granularity+testUnit)
	})
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ar := arena.New(1<<20, testUnit)
	a := New(1<<20, testUnit)
	a.Init()

	_, err := a.Alloc(4096, 4096)
	require.NoError(t, err)

	freeBefore := a.FreeBytes()
	countBefore := a.AllocCount()

	pages, allocCount, err := a.TakeSnapshot(ar)
	require.NoError(t, err)
	require.NotEmpty(t, pages)

	b := New(1<<20, testUnit)
	require.NoError(t, b.ApplySnapshot(ar, pages, allocCount))

	require.Equal(t, freeBefore, b.FreeBytes())
	require.Equal(t, countBefore, b.AllocCount())
}

func TestFree_RejectsMisalignedInterval(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	err := a.Free([]Interval{{Offset: 1, Length: testUnit}})
	require.ErrorIs(t, err, ErrBadInterval)
}

func TestAllocMulti_UsesL2WhenPresent(t *testing.T) {
	a := newTestAllocator(t, 1<<26)
	require.NotNil(t, a.l2, "this capacity must be large enough to carry an L2 summary")
	before := a.FreeBytes()

	ivs, err := a.Alloc(a.l1Granularity*4, a.l1Granularity)
	require.NoError(t, err)

	var got uint64
	seen := map[uint64]bool{}
	for _, iv := range ivs {
		for u := iv.Offset; u < iv.End(); u += testUnit {
			require.False(t, seen[u], "unit %d double-allocated", u)
			seen[u] = true
		}
		got += iv.Length
	}
	require.GreaterOrEqual(t, got, a.l1Granularity*4)

	require.NoError(t, a.Free(ivs))
	require.Equal(t, before, a.FreeBytes())
}

func TestAllocMulti_SkipsFullL2Groups(t *testing.T) {
	a := newTestAllocator(t, 1<<26)
	require.NotNil(t, a.l2)

	// Drive the first L2 group toward FULL, then ask for more than one
	// slotset's worth: the scan must still succeed by moving on to later
	// groups rather than getting stuck re-scanning an exhausted one.
	groupBytes := a.l1Granularity * l1PerL2Slotset
	_, err := a.Alloc(groupBytes, testUnit)
	require.NoError(t, err)

	ivs, err := a.Alloc(a.l1Granularity*4, a.l1Granularity)
	require.NoError(t, err)
	var got uint64
	for _, iv := range ivs {
		got += iv.Length
	}
	require.GreaterOrEqual(t, got, a.l1Granularity*4)
}
