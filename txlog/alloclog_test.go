package txlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocLog_AppendCommitRollback(t *testing.T) {
	l := NewAllocLog(8)

	require.NoError(t, l.Append(LogEntry{Offset: 0, Length: 64}))
	require.NoError(t, l.Append(LogEntry{Offset: 64, Length: 64}))
	require.Len(t, l.Uncommitted(), 2)
	require.Zero(t, l.Size())

	l.Commit()
	require.Equal(t, 2, l.Size())
	require.Empty(t, l.Uncommitted())

	require.NoError(t, l.Append(LogEntry{Offset: 128, Length: 64}))
	require.Len(t, l.Uncommitted(), 1)
	l.Rollback()
	require.Empty(t, l.Uncommitted())
	require.Equal(t, 2, l.Size())
}

func TestAllocLog_AppendFailsWhenFull(t *testing.T) {
	l := NewAllocLog(1)
	require.NoError(t, l.Append(LogEntry{Offset: 0, Length: 64}))
	require.ErrorIs(t, l.Append(LogEntry{Offset: 64, Length: 64}), ErrLogFull)
}

func TestAllocLog_Squeeze_SeedsInitEntry(t *testing.T) {
	l := NewAllocLog(4)
	require.NoError(t, l.Append(LogEntry{Offset: 0, Length: 64}))
	l.Commit()

	fresh := l.Squeeze(LogEntry{Offset: 4096, Length: 8})
	require.Equal(t, 1, fresh.Size())
	got := fresh.Committed()
	require.Len(t, got, 1)
	require.Equal(t, FlagInit, got[0].Flags)
	require.EqualValues(t, 4096, got[0].Offset)
}
