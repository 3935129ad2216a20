package txlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjLog_PushAndReset(t *testing.T) {
	l := NewObjLog(4)

	require.NoError(t, l.Push(ObjEntry{ObjectOffset: 64, OldTID: 1, OldPayloadOffset: 128}))
	require.NoError(t, l.Push(ObjEntry{ObjectOffset: 192, OldTID: 1, OldPayloadOffset: 256}))
	require.Equal(t, 2, l.Len())

	entries := l.Entries()
	require.EqualValues(t, 64, entries[0].ObjectOffset)
	require.EqualValues(t, 192, entries[1].ObjectOffset)

	l.Reset()
	require.Zero(t, l.Len())
}

func TestObjLog_PushFailsWhenFull(t *testing.T) {
	l := NewObjLog(1)
	require.NoError(t, l.Push(ObjEntry{ObjectOffset: 1}))
	require.ErrorIs(t, l.Push(ObjEntry{ObjectOffset: 2}), ErrObjLogFull)
}
