package container_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstor/tomdb/container"
	"github.com/nyxstor/tomdb/txroot"
)

func newTestRoot(t *testing.T) *txroot.Root {
	t.Helper()
	r := txroot.Create(1 << 20)
	require.NoError(t, r.Prepare(64, 32, 32, 1<<20, 64))
	t.Cleanup(func() { _ = r.Destroy() })
	return r
}

func TestVector_AppendAndAt(t *testing.T) {
	r := newTestRoot(t)
	require.NoError(t, r.StartTransaction())

	a := container.NewAllocator(r)
	v := container.NewVector[int64](a)
	for i := int64(0); i < 20; i++ {
		require.NoError(t, v.Append(i))
	}

	require.Equal(t, 20, v.Len())
	for i := 0; i < 20; i++ {
		require.EqualValues(t, i, v.At(i))
	}

	require.NoError(t, r.CommitTransaction(context.Background()))
}

func TestVector_FreeReleasesBacking(t *testing.T) {
	r := newTestRoot(t)
	require.NoError(t, r.StartTransaction())

	a := container.NewAllocator(r)
	v := container.NewVector[int64](a)
	for i := int64(0); i < 30; i++ {
		require.NoError(t, v.Append(i))
	}
	require.NoError(t, r.CommitTransaction(context.Background()))

	available := r.GetAvailable()

	require.NoError(t, r.StartTransaction())
	v.Free()
	require.NoError(t, r.CommitTransaction(context.Background()))

	require.Greater(t, r.GetAvailable(), available)
	require.Equal(t, 0, v.Len())
}

func TestVector_Set(t *testing.T) {
	r := newTestRoot(t)
	require.NoError(t, r.StartTransaction())

	a := container.NewAllocator(r)
	v := container.NewVector[int64](a)
	require.NoError(t, v.Append(1))
	v.Set(0, 99)
	require.EqualValues(t, 99, v.At(0))

	require.NoError(t, r.CommitTransaction(context.Background()))
}
