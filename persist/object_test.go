package persist_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstor/tomdb/persist"
	"github.com/nyxstor/tomdb/txroot"
)

func newTestRoot(t *testing.T) *txroot.Root {
	t.Helper()
	r := txroot.Create(1 << 20)
	require.NoError(t, r.Prepare(64, 32, 32, 1<<20, 64))
	t.Cleanup(func() { _ = r.Destroy() })
	return r
}

func TestHeader_NewAndInspect(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	h, err := persist.NewHeader(r, 128)
	require.NoError(t, err)
	payload, err := h.Access()
	require.NoError(t, err)
	copy(payload, []byte("hello"))
	require.NoError(t, r.CommitTransaction(context.Background()))

	reopened := persist.OpenHeader(r, h.Offset(), 128)
	require.Equal(t, byte('h'), reopened.Inspect()[0])
}

func TestHeader_AccessSameTransaction_NoDuplicate(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	h, err := persist.NewHeader(r, 128)
	require.NoError(t, err)
	first, err := h.Access()
	require.NoError(t, err)
	second, err := h.Access()
	require.NoError(t, err)
	require.Same(t, &first[0], &second[0])
	require.NoError(t, r.CommitTransaction(context.Background()))
}

func TestHeader_AccessAcrossTransactions_Duplicates(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	h, err := persist.NewHeader(r, 128)
	require.NoError(t, err)
	first, err := h.Access()
	require.NoError(t, err)
	first[0] = 'x'
	require.NoError(t, r.CommitTransaction(context.Background()))

	available := r.GetAvailable()

	require.NoError(t, r.StartTransaction())
	second, err := h.Access()
	require.NoError(t, err)
	require.Equal(t, byte('x'), second[0], "duplicated payload must carry the old contents forward")
	require.NoError(t, r.CommitTransaction(context.Background()))

	require.Equal(t, available, r.GetAvailable(), "the stale payload must have been released")
}

func TestHeader_AccessAcrossTransactions_RollbackRestoresOldPayload(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	h, err := persist.NewHeader(r, 128)
	require.NoError(t, err)
	first, err := h.Access()
	require.NoError(t, err)
	first[0] = 'x'
	require.NoError(t, r.CommitTransaction(context.Background()))

	require.NoError(t, r.StartTransaction())
	second, err := h.Access()
	require.NoError(t, err)
	second[0] = 'y'
	require.NoError(t, r.RollbackTransaction())

	reopened := persist.OpenHeader(r, h.Offset(), 128)
	require.Equal(t, byte('x'), reopened.Inspect()[0], "rollback must restore the pre-transaction payload")
}

func TestHeader_Die(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	h, err := persist.NewHeader(r, 128)
	require.NoError(t, err)
	require.NoError(t, r.CommitTransaction(context.Background()))

	available := r.GetAvailable()

	require.NoError(t, r.StartTransaction())
	require.NoError(t, h.Die())
	require.NoError(t, r.CommitTransaction(context.Background()))

	require.Greater(t, r.GetAvailable(), available)
}

func TestHeader_Die_RollbackRestoresObject(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	h, err := persist.NewHeader(r, 128)
	require.NoError(t, err)
	payload, err := h.Access()
	require.NoError(t, err)
	payload[0] = 'z'
	require.NoError(t, r.CommitTransaction(context.Background()))

	require.NoError(t, r.StartTransaction())
	require.NoError(t, h.Die())
	require.NoError(t, r.RollbackTransaction())

	reopened := persist.OpenHeader(r, h.Offset(), 128)
	require.Equal(t, byte('z'), reopened.Inspect()[0])
}
