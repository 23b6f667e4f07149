package patchstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootPatchInvariants(t *testing.T) {
	ps := NewFromString("hello")
	root := ps.ActivePatch()

	assert.Equal(t, 0, root.Index())
	assert.True(t, root.RestorePoint())
	assert.Equal(t, int64(0), root.AffectedByteCount())
	assert.Equal(t, int64(5), root.Size())
	assert.False(t, ps.CanUndo())
	assert.False(t, ps.CanRedo())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	ps := NewFromString("hello")
	_, err := ps.Insert([]byte(" world"), 0)
	require.NoError(t, err)

	before, err := ps.Bytes()
	require.NoError(t, err)
	beforeIndex := ps.History().Cursor()

	require.True(t, ps.Undo())
	mid, err := ps.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(mid))

	require.True(t, ps.Redo())
	after, err := ps.Bytes()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, beforeIndex, ps.History().Cursor())
}

func TestUndoRedoAtEdges(t *testing.T) {
	ps := NewFromString("x")
	assert.False(t, ps.Undo())
	assert.False(t, ps.Redo())

	_, err := ps.Insert([]byte("y"), 0)
	require.NoError(t, err)
	assert.False(t, ps.Redo())

	require.True(t, ps.Undo())
	assert.False(t, ps.Undo())
}

func TestAppendTruncatesRedoBranch(t *testing.T) {
	ps := NewFromString("a")
	_, err := ps.Insert([]byte("b"), 0)
	require.NoError(t, err)
	_, err = ps.Insert([]byte("c"), 0)
	require.NoError(t, err)
	require.Equal(t, 3, ps.History().Len())

	var overwritten []*Patch
	ps.OnChange(func(info ChangeInfo) {
		overwritten = append(overwritten, info.Overwritten...)
	})

	require.True(t, ps.Undo())
	require.True(t, ps.Undo())
	require.True(t, ps.CanRedo())

	_, err = ps.Insert([]byte("z"), 0)
	require.NoError(t, err)

	assert.False(t, ps.CanRedo())
	assert.Equal(t, 2, ps.History().Len())
	require.Len(t, overwritten, 2)
}

func TestChangeNotificationRanges(t *testing.T) {
	ps := NewFromString("hello world")

	var last ChangeInfo
	ps.OnChange(func(info ChangeInfo) { last = info })

	ps.SetPosition(6)
	_, err := ps.Insert([]byte("brave "), 0)
	require.NoError(t, err)
	require.Len(t, last.Ranges, 1)
	// Inserting changes everything from the edit point to the end of the
	// larger of the two sizes.
	assert.Equal(t, ByteRange{Start: 6, Size: 11}, last.Ranges[0])

	require.True(t, ps.Undo())
	require.Len(t, last.Ranges, 1)
	assert.Equal(t, ByteRange{Start: 6, Size: 11}, last.Ranges[0])
}

func TestRestoreByIndexAndID(t *testing.T) {
	ps := NewFromString("a")
	_, err := ps.Insert([]byte("b"), 0)
	require.NoError(t, err)
	_, err = ps.Insert([]byte("c"), 0)
	require.NoError(t, err)

	require.True(t, ps.Restore(0))
	data, err := ps.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	tail := ps.History().PatchAt(2)
	require.True(t, ps.RestoreID(tail.ID()))
	data, err = ps.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "bca", string(data))

	assert.False(t, ps.Restore(99))
	assert.False(t, ps.RestoreID(12345))
}

// Restoring the already-active patch succeeds without firing a change
// notification.
func TestRestoreToActiveIsNoOp(t *testing.T) {
	ps := NewFromString("a")
	_, err := ps.Insert([]byte("b"), 0)
	require.NoError(t, err)

	fired := 0
	ps.OnChange(func(ChangeInfo) { fired++ })

	require.True(t, ps.Restore(ps.History().Cursor()))
	assert.Equal(t, 0, fired)
}

func TestRootRestorePointPermanent(t *testing.T) {
	ps := NewFromString("a")
	root := ps.ActivePatch()

	assert.False(t, ps.SetRestorePointID(root.ID(), false))
	assert.True(t, root.RestorePoint())

	// Flagging it again is a harmless success.
	assert.True(t, ps.SetRestorePointID(root.ID(), true))
}

func TestRestorePointNavigation(t *testing.T) {
	ps := NewFromString("v0")
	for i := 0; i < 4; i++ {
		_, err := ps.Insert([]byte{byte('a' + i)}, 0)
		require.NoError(t, err)
	}
	// History: 0 root(RP) 1 2 3 4; flag index 2.
	p2 := ps.History().PatchAt(2)
	require.True(t, ps.SetRestorePointID(p2.ID(), true))

	require.True(t, ps.RestorePointUndo())
	assert.Equal(t, 2, ps.History().Cursor())

	require.True(t, ps.RestorePointUndo())
	assert.Equal(t, 0, ps.History().Cursor())

	assert.False(t, ps.RestorePointUndo())

	// Forward: nearest flagged point, then the implicit tail.
	require.True(t, ps.RestorePointRedo())
	assert.Equal(t, 2, ps.History().Cursor())

	require.True(t, ps.RestorePointRedo())
	assert.Equal(t, 4, ps.History().Cursor())

	assert.False(t, ps.RestorePointRedo())
}

func TestRestorePointsListing(t *testing.T) {
	ps := NewFromString("a")
	_, err := ps.Insert([]byte("b"), 0)
	require.NoError(t, err)
	_, err = ps.Insert([]byte("c"), 0)
	require.NoError(t, err)

	points := ps.RestorePoints(false)
	require.Len(t, points, 1)
	assert.Equal(t, 0, points[0].Index())

	points = ps.RestorePoints(true)
	require.Len(t, points, 2)
	assert.Equal(t, 2, points[1].Index())

	// A flagged tail is not listed twice.
	require.True(t, ps.SetRestorePoint(true))
	points = ps.RestorePoints(true)
	require.Len(t, points, 2)
}

func TestRestorePointsChangedNotification(t *testing.T) {
	ps := NewFromString("a")
	_, err := ps.Insert([]byte("b"), 0)
	require.NoError(t, err)

	fired := 0
	ps.OnRestorePointsChanged(func() { fired++ })

	require.True(t, ps.SetRestorePoint(true))
	assert.Equal(t, 1, fired)

	// Setting the flag to its current value fires nothing.
	require.True(t, ps.SetRestorePoint(true))
	assert.Equal(t, 1, fired)

	require.True(t, ps.SetRestorePoint(false))
	assert.Equal(t, 2, fired)
}

func TestPatchIDsNeverReused(t *testing.T) {
	ps := NewFromString("a")
	_, err := ps.Insert([]byte("b"), 0)
	require.NoError(t, err)
	staleID := ps.ActivePatch().ID()

	require.True(t, ps.Undo())
	_, err = ps.Insert([]byte("c"), 0)
	require.NoError(t, err)

	assert.NotEqual(t, staleID, ps.ActivePatch().ID())
	assert.False(t, ps.RestoreID(staleID))
}
