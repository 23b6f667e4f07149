package patchstream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func content(t *testing.T, ps *PatchStream) string {
	t.Helper()
	data, err := ps.Bytes()
	require.NoError(t, err)
	return string(data)
}

func TestNewWithWindow(t *testing.T) {
	ps := New(Options{
		Streams: []Stream{mem("0123456789")},
		Offset:  2,
		Size:    5,
	})
	assert.Equal(t, int64(5), ps.Length())
	assert.Equal(t, "23456", content(t, ps))
}

func TestNewEmpty(t *testing.T) {
	ps := New(Options{})
	assert.Equal(t, int64(0), ps.Length())
	assert.Equal(t, "", content(t, ps))
	assert.Equal(t, 1, ps.History().Len())
}

func TestReadAcrossSourceBoundary(t *testing.T) {
	ps := NewFromStreams(mem("abc"), mem("def"))

	buf := make([]byte, 6)
	n, err := ps.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(buf[:n]))

	n, err = ps.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReadPartialAtEnd(t *testing.T) {
	ps := NewFromString("abc")
	ps.SetPosition(2)

	buf := make([]byte, 4)
	n, err := ps.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "c", string(buf[:n]))
	assert.Equal(t, int64(3), ps.Position())
}

func TestReadAsyncMatchesRead(t *testing.T) {
	ps := NewFromString("hello world")

	buf := make([]byte, 5)
	res := <-ps.ReadAsync(buf)
	require.NoError(t, res.Err)
	assert.Equal(t, "hello", string(buf[:res.N]))
	assert.Equal(t, int64(5), ps.Position())
}

func TestSeekWhence(t *testing.T) {
	ps := NewFromString("0123456789")

	pos, err := ps.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	pos, err = ps.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	pos, err = ps.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	// Past the end is a valid position; before the start is not.
	pos, err = ps.Seek(100, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pos)

	_, err = ps.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, ErrInvalidSeek)
	_, err = ps.Seek(0, 42)
	assert.ErrorIs(t, err, ErrInvalidSeek)
}

func TestSpliceValidation(t *testing.T) {
	ps := NewFromString("hello")

	_, err := ps.Splice(-1, 0, mem("x"))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	_, err = ps.Splice(6, 0, mem("x"))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)

	// Nothing deleted, nothing inserted: no patch is created.
	before := ps.History().Len()
	inserted, err := ps.Splice(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)
	assert.Equal(t, before, ps.History().Len())
}

func TestInsertReplaceAndDelete(t *testing.T) {
	ps := NewFromString("hello world")

	ps.SetPosition(6)
	inserted, err := ps.Insert([]byte("there"), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), inserted)
	assert.Equal(t, "hello there", content(t, ps))
	assert.Equal(t, int64(11), ps.Position())

	ps.SetPosition(5)
	deleted, err := ps.Delete(-1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), deleted)
	assert.Equal(t, "hello", content(t, ps))

	// Delete clamps to the available bytes.
	ps.SetPosition(3)
	deleted, err = ps.Delete(100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, "hel", content(t, ps))
}

func TestWriteModes(t *testing.T) {
	ps := NewFromString("hello world")

	ps.SetPosition(6)
	n, err := ps.Write([]byte("WORLD"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello WORLD", content(t, ps))
	assert.Equal(t, int64(11), ps.Position())

	ps.SetInsertMode(true)
	ps.SetPosition(5)
	_, err = ps.Write([]byte(","))
	require.NoError(t, err)
	assert.Equal(t, "hello, WORLD", content(t, ps))

	// Appending at the exact end works in either mode.
	ps.SetInsertMode(false)
	ps.SetPosition(ps.Length())
	_, err = ps.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, "hello, WORLD!", content(t, ps))

	ps.SetPosition(ps.Length() + 1)
	_, err = ps.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

// An overwrite running past the end deletes what exists and appends the
// rest.
func TestWriteOverwritePastEnd(t *testing.T) {
	ps := NewFromString("hello world!")
	ps.SetPosition(6)

	_, err := ps.Write([]byte("DotNet!"))
	require.NoError(t, err)
	assert.Equal(t, "hello DotNet!", content(t, ps))
	assert.Equal(t, int64(13), ps.Length())
}

func TestEditWorkflow(t *testing.T) {
	ps := NewFromBytes(nil)

	_, err := ps.Write([]byte("world!"))
	require.NoError(t, err)
	assert.Equal(t, "world!", content(t, ps))

	_, err = ps.Seek(0, io.SeekStart)
	require.NoError(t, err)
	ps.SetInsertMode(true)
	_, err = ps.Write([]byte("Hello "))
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", content(t, ps))

	require.True(t, ps.SetRestorePoint(true))

	ps.SetInsertMode(false)
	_, err = ps.Write([]byte("DotNet!"))
	require.NoError(t, err)
	assert.Equal(t, "Hello DotNet!", content(t, ps))

	_, err = ps.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = ps.Delete(-1)
	require.NoError(t, err)
	assert.Equal(t, "", content(t, ps))

	// Each edit recorded its own change window.
	h := ps.History()
	require.Equal(t, 5, h.Len())
	assert.Equal(t, int64(6), h.PatchAt(1).AffectedByteCount())
	assert.Equal(t, int64(12), h.PatchAt(2).AffectedByteCount())
	assert.Equal(t, int64(6), h.PatchAt(3).ChangeOffset())
	assert.Equal(t, int64(7), h.PatchAt(3).AffectedByteCount())
	assert.Equal(t, int64(13), h.PatchAt(4).AffectedByteCount())

	require.True(t, ps.Undo())
	assert.Equal(t, "Hello DotNet!", content(t, ps))

	require.True(t, ps.RestorePointUndo())
	assert.Equal(t, "Hello world!", content(t, ps))
}

func TestMoveViaReadAndSplice(t *testing.T) {
	ps := NewFromString("defabc")

	buf := make([]byte, 3)
	n, err := ps.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "def", string(buf[:n]))

	_, err = ps.Splice(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", content(t, ps))

	_, err = ps.Splice(3, 0, NewMemoryStream(append([]byte(nil), buf[:n]...)))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", content(t, ps))

	// No byte was copied out of the original backing stream.
	require.True(t, ps.Undo())
	require.True(t, ps.Undo())
	assert.Equal(t, "defabc", content(t, ps))
	require.True(t, ps.Redo())
	require.True(t, ps.Redo())
	assert.Equal(t, "abcdef", content(t, ps))
}

func TestCloneIndependence(t *testing.T) {
	ps := NewFromString("shared")
	_, err := ps.Insert([]byte("! "), 0)
	require.NoError(t, err)

	clone := ps.Clone()
	assert.Equal(t, content(t, ps), content(t, clone))
	assert.Equal(t, ps.Position(), clone.Position())

	// Edits on the original do not reach the clone.
	ps.SetPosition(0)
	_, err = ps.Write([]byte("SH"))
	require.NoError(t, err)
	assert.Equal(t, "! shared", content(t, clone))
	assert.Equal(t, 2, clone.History().Len())
	assert.Equal(t, 3, ps.History().Len())

	// Restore-point flags are per-fork.
	require.True(t, ps.History().setRestorePoint(ps.History().PatchAt(1).ID(), true))
	assert.False(t, clone.History().PatchAt(1).RestorePoint())

	// And the clone can diverge on its own.
	require.True(t, clone.Undo())
	assert.Equal(t, "shared", content(t, clone))
	assert.Equal(t, "SHshared", content(t, ps))
}

func TestSliceAcrossSourceBoundary(t *testing.T) {
	ps := NewFromStreams(mem("Hello "), mem("world!"))

	sl, err := ps.Slice(3, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sl.Length())
	assert.Equal(t, "lo wor", content(t, sl))

	// The sub-view has its own history; edits stay local.
	_, err = sl.Insert([]byte("X"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Xlo wor", content(t, sl))
	assert.Equal(t, "Hello world!", content(t, ps))
}

func TestSliceClamping(t *testing.T) {
	ps := NewFromString("abcdef")

	sl, err := ps.Slice(4, -1)
	require.NoError(t, err)
	assert.Equal(t, "ef", content(t, sl))

	sl, err = ps.Slice(6, 10)
	require.NoError(t, err)
	assert.Equal(t, "", content(t, sl))

	_, err = ps.Slice(7, 1)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestSliceOfSlice(t *testing.T) {
	ps := NewFromString("0123456789")

	outer, err := ps.Slice(2, 6) // "234567"
	require.NoError(t, err)
	inner, err := outer.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, "345", content(t, inner))
}

func TestUniqueStreams(t *testing.T) {
	a, b := mem("abc"), mem("def")
	ps := NewFromStreams(a, b)

	ps.SetPosition(3)
	_, err := ps.Insert([]byte("XY"), 0)
	require.NoError(t, err)

	streams := ps.UniqueStreams()
	require.Len(t, streams, 3)
	assert.Same(t, Stream(a), streams[0])
	assert.Same(t, Stream(b), streams[1])

	// The inserted source is the third.
	m, ok := streams[2].(*MemoryStream)
	require.True(t, ok)
	assert.Equal(t, "XY", string(m.Bytes()))
}

// The undo stack shares sources; a long edit session keeps referencing the
// same backing data rather than copying it.
func TestUniqueStreamsStableAcrossEdits(t *testing.T) {
	base := mem("the quick brown fox")
	ps := NewFromStreams(base)

	for i := 0; i < 4; i++ {
		ps.SetPosition(0)
		_, err := ps.Delete(1)
		require.NoError(t, err)
	}

	streams := ps.UniqueStreams()
	require.Len(t, streams, 1)
	assert.Same(t, Stream(base), streams[0])
	assert.Equal(t, "quick brown fox", content(t, ps))
}
