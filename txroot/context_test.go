package txroot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// Context Cancellation Tests for the Transaction Root
// =============================================================================

func TestRoot_CommitTransaction_PreCancelled(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	_, err := r.AllocRaw(256, 256)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.CommitTransaction(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got: %v", err)
}

func TestRoot_CommitTransaction_PreCancelled_ReleasesWriterLock(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, r.CommitTransaction(ctx))

	// A failed flush during commit still releases the writer lock so the
	// root isn't left wedged.
	require.NoError(t, r.StartTransaction())
	require.NoError(t, r.CommitTransaction(context.Background()))
}

func TestRoot_CommitTransaction_Success(t *testing.T) {
	r := newTestRoot(t)

	require.NoError(t, r.StartTransaction())
	err := r.CommitTransaction(context.Background())
	require.NoError(t, err)
}
