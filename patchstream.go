package patchstream

import "io"

// PatchStream is an editable, seekable view over the active patch of a
// history. All structural edits funnel into Splice, which never mutates
// source data: each edit appends a new patch referencing spans of the
// previous patch's sources plus any newly added bytes.
//
// A PatchStream is itself a Stream, so views nest: a view can serve as a
// backing source of another view.
//
// PatchStream is not safe for concurrent use. Backing sources may be
// shared across views because every read restores the source's own cursor,
// but that is cooperative, not thread-safe.
type PatchStream struct {
	history    *History
	position   int64
	insertMode bool

	transaction *transactionState
}

// Options configures New. This is the one canonical constructor form; the
// NewFrom* helpers are thin convenience wrappers around it.
type Options struct {
	// Streams is the ordered list of backing sources. Empty means an empty
	// document that can still receive writes.
	Streams []Stream

	// Offset is the starting byte offset into the logical concatenation of
	// Streams.
	Offset int64

	// Size is the visible length. Zero or negative means through the end
	// of the data.
	Size int64

	// Description labels the root patch.
	Description string
}

// New creates an editable view over the given backing sources.
func New(opts Options) *PatchStream {
	streams := opts.Streams
	if len(streams) == 0 {
		streams = []Stream{NewMemoryStream(nil)}
	}

	size := opts.Size
	if size <= 0 {
		size = totalLength(streams) - opts.Offset
		if size < 0 {
			size = 0
		}
	}

	covering, offset, size := composeSources(streams, opts.Offset, size)
	if len(covering) == 0 {
		covering = []Stream{NewMemoryStream(nil)}
		offset = 0
		size = 0
	}

	h := newHistory()
	h.append(covering, offset, size, 0, 0, 0, opts.Description)
	return &PatchStream{history: h}
}

// NewFromStreams creates a view over the full concatenation of streams.
func NewFromStreams(streams ...Stream) *PatchStream {
	return New(Options{Streams: streams})
}

// NewFromBytes creates a view over a copy of data. Nil or empty data
// yields an empty document.
func NewFromBytes(data []byte) *PatchStream {
	return New(Options{Streams: []Stream{NewMemoryStream(append([]byte(nil), data...))}})
}

// NewFromString creates a view over the bytes of s.
func NewFromString(s string) *PatchStream {
	return New(Options{Streams: []Stream{NewMemoryStream([]byte(s))}})
}

// History returns the view's patch history.
func (ps *PatchStream) History() *History {
	return ps.history
}

// ActivePatch returns the patch the view currently exposes.
func (ps *PatchStream) ActivePatch() *Patch {
	return ps.history.Active()
}

// Length returns the visible length of the active patch.
func (ps *PatchStream) Length() int64 {
	return ps.history.Active().size
}

// Position returns the view's current position.
func (ps *PatchStream) Position() int64 {
	return ps.position
}

// SetPosition moves the view to an absolute position. Any non-negative
// position is accepted, including one past the end; a write attempted past
// the end fails instead.
func (ps *PatchStream) SetPosition(pos int64) error {
	if pos < 0 {
		return ErrInvalidSeek
	}
	ps.position = pos
	return nil
}

// Seek implements io.Seeker over the logical byte sequence.
func (ps *PatchStream) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = ps.position + offset
	case io.SeekEnd:
		pos = ps.Length() + offset
	default:
		return 0, ErrInvalidSeek
	}
	if pos < 0 {
		return 0, ErrInvalidSeek
	}
	ps.position = pos
	return pos, nil
}

// InsertMode reports whether writes insert rather than overwrite.
func (ps *PatchStream) InsertMode() bool {
	return ps.insertMode
}

// SetInsertMode switches writes between insert and overwrite behavior.
func (ps *PatchStream) SetInsertMode(on bool) {
	ps.insertMode = on
}

// Read copies up to len(p) bytes from the current position, crossing
// source boundaries as needed, and advances the position by the bytes
// actually read. At the end of data it returns 0, io.EOF. Errors from
// backing sources propagate unchanged.
func (ps *PatchStream) Read(p []byte) (int, error) {
	n, err := readPatchAt(ps.history.Active(), ps.position, p)
	ps.position += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadResult carries the outcome of a ReadAsync call.
type ReadResult struct {
	N   int
	Err error
}

// ReadAsync performs the same read as Read on a separate goroutine and
// delivers the result on the returned channel. It is a non-blocking I/O
// convenience only: it must not be called concurrently with itself or with
// any other method of the same view.
func (ps *PatchStream) ReadAsync(p []byte) <-chan ReadResult {
	ch := make(chan ReadResult, 1)
	go func() {
		n, err := ps.Read(p)
		ch <- ReadResult{N: n, Err: err}
	}()
	return ch
}

// readAt reads exactly len(p) bytes at pos without moving the view's
// position, stopping early only at end of data.
func (ps *PatchStream) readAt(pos int64, p []byte) (int, error) {
	return readPatchAt(ps.history.Active(), pos, p)
}

// Bytes returns the full logical content of the view. Intended for
// small documents and tests.
func (ps *PatchStream) Bytes() ([]byte, error) {
	buf := make([]byte, ps.Length())
	n, err := ps.readAt(0, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Splice is the single edit primitive underlying Insert, Delete and Write:
// it replaces deleteCount bytes at start with the concatenation of add.
// A negative deleteCount deletes through the end of data; deleteCount is
// clamped to the available bytes. If nothing would be deleted or inserted
// the call is a no-op and no patch is created. Returns the number of bytes
// inserted.
func (ps *PatchStream) Splice(start, deleteCount int64, add ...Stream) (int64, error) {
	length := ps.Length()
	if start < 0 || start > length {
		return 0, ErrPositionOutOfRange
	}
	if deleteCount < 0 || deleteCount > length-start {
		deleteCount = length - start
	}

	var inserted int64
	for _, s := range add {
		inserted += s.Length()
	}
	if deleteCount == 0 && inserted == 0 {
		return 0, nil
	}

	// New covering list: everything before the cut, the added sources,
	// everything after the deleted span. Empty parts are omitted.
	var sources []Stream
	if start > 0 {
		sources = append(sources, ps.sliceSources(0, start)...)
	}
	for _, s := range add {
		if s.Length() > 0 {
			sources = append(sources, s)
		}
	}
	if tail := start + deleteCount; tail < length {
		sources = append(sources, ps.sliceSources(tail, length-tail)...)
	}

	newSize := length - deleteCount + inserted
	if len(sources) == 0 {
		// The document went empty; keep a zero-length source so the patch
		// remains readable and the history flushable.
		sources = []Stream{NewMemoryStream(nil)}
	}

	ps.history.append(sources, 0, newSize, start, deleteCount, inserted, "")
	ps.noteEdit()
	return inserted, nil
}

// sliceSources returns a minimal source list exposing exactly the window
// [start, start+size) of the active patch, re-referencing the patch's own
// sources and clipping the boundary ones.
func (ps *PatchStream) sliceSources(start, size int64) []Stream {
	active := ps.history.Active()
	covering, off, size := composeSources(active.sources, active.offset+start, size)

	out := make([]Stream, 0, len(covering))
	remaining := size
	for _, s := range covering {
		n := s.Length() - off
		if n > remaining {
			n = remaining
		}
		if n > 0 {
			out = append(out, newSliceStream(s, off, n))
			remaining -= n
		}
		off = 0
	}
	return out
}

// Insert inserts data at the current position, replacing replaceLength
// existing bytes (0 for a pure insert, negative to replace through the
// end). The position advances past the inserted bytes. Returns the number
// of bytes inserted.
func (ps *PatchStream) Insert(data []byte, replaceLength int64) (int64, error) {
	var add []Stream
	if len(data) > 0 {
		add = []Stream{NewMemoryStream(append([]byte(nil), data...))}
	}
	inserted, err := ps.Splice(ps.position, replaceLength, add...)
	if err != nil {
		return 0, err
	}
	ps.position += inserted
	return inserted, nil
}

// Delete removes length bytes at the current position; negative length
// deletes through the end of data. Returns the number of bytes actually
// deleted after clamping.
func (ps *PatchStream) Delete(length int64) (int64, error) {
	avail := ps.Length() - ps.position
	if avail < 0 {
		avail = 0
	}
	if length < 0 || length > avail {
		length = avail
	}
	if _, err := ps.Splice(ps.position, length); err != nil {
		return 0, err
	}
	return length, nil
}

// Write writes p at the current position — overwriting existing bytes, or
// inserting when insert mode is enabled — and advances the position past
// the written bytes. Writing with the position past the end of data fails
// with ErrPositionOutOfRange.
func (ps *PatchStream) Write(p []byte) (int, error) {
	if ps.position > ps.Length() {
		return 0, ErrPositionOutOfRange
	}
	if len(p) == 0 {
		return 0, nil
	}

	src := NewMemoryStream(append([]byte(nil), p...))
	deleteCount := int64(len(p))
	if ps.insertMode {
		deleteCount = 0
	}
	if _, err := ps.Splice(ps.position, deleteCount, src); err != nil {
		return 0, err
	}
	ps.position += int64(len(p))
	return len(p), nil
}

// Undo moves the active patch one step back, reporting false at the root.
func (ps *PatchStream) Undo() bool {
	return ps.history.undo()
}

// Redo moves the active patch one step forward, reporting false at the tail.
func (ps *PatchStream) Redo() bool {
	return ps.history.redo()
}

// CanUndo reports whether Undo would succeed.
func (ps *PatchStream) CanUndo() bool {
	return ps.history.canUndo()
}

// CanRedo reports whether Redo would succeed.
func (ps *PatchStream) CanRedo() bool {
	return ps.history.canRedo()
}

// Restore moves the active patch to an arbitrary history index. Restoring
// the already-active patch is a successful no-op.
func (ps *PatchStream) Restore(index int) bool {
	return ps.history.moveTo(index)
}

// RestoreID moves the active patch to the patch with the given id,
// reporting false for an unknown id.
func (ps *PatchStream) RestoreID(id uint64) bool {
	return ps.history.restoreID(id)
}

// RestorePoint reports whether the active patch is a restore point.
func (ps *PatchStream) RestorePoint() bool {
	return ps.history.Active().restorePoint
}

// SetRestorePoint flags or unflags the active patch as a restore point.
// The root patch cannot be unflagged.
func (ps *PatchStream) SetRestorePoint(on bool) bool {
	return ps.history.setRestorePoint(ps.history.Active().id, on)
}

// SetRestorePointID flags or unflags the patch with the given id.
func (ps *PatchStream) SetRestorePointID(id uint64, on bool) bool {
	return ps.history.setRestorePoint(id, on)
}

// RestorePoints returns the flagged restore points in history order; with
// includeTail the tail patch is included even when unflagged.
func (ps *PatchStream) RestorePoints(includeTail bool) []*Patch {
	return ps.history.restorePoints(includeTail)
}

// RestorePointUndo jumps back to the nearest earlier restore point.
func (ps *PatchStream) RestorePointUndo() bool {
	return ps.history.restorePointUndo()
}

// RestorePointRedo jumps forward to the nearest later restore point, or to
// the tail when none is flagged ahead.
func (ps *PatchStream) RestorePointRedo() bool {
	return ps.history.restorePointRedo()
}

// OnChange registers a handler fired on every append and navigation.
func (ps *PatchStream) OnChange(handler ChangeHandler) {
	ps.history.OnChange(handler)
}

// OnRestorePointsChanged registers a handler fired whenever the set of
// flagged restore points changes.
func (ps *PatchStream) OnRestorePointsChanged(handler RestorePointsHandler) {
	ps.history.OnRestorePointsChanged(handler)
}

// Clone returns an independent fork of the view. The patch records and
// cursor are copied — edits and restore-point toggles on either side do
// not disturb the other — while all backing sources stay shared, so the
// fork is cheap regardless of document size.
func (ps *PatchStream) Clone() *PatchStream {
	patches := make([]*Patch, len(ps.history.patches))
	for i, p := range ps.history.patches {
		dup := *p
		patches[i] = &dup
	}
	h := &History{
		patches:     patches,
		cursor:      ps.history.cursor,
		nextID:      ps.history.nextID,
		lastChanged: ps.history.lastChanged,
	}
	return &PatchStream{
		history:    h,
		position:   ps.position,
		insertMode: ps.insertMode,
	}
}

// Slice returns a new view over the sub-window [start, start+size) of the
// current content, minimally re-referencing the active patch's sources.
// A negative size, or one reaching past the end, is clamped to the
// available data.
func (ps *PatchStream) Slice(start, size int64) (*PatchStream, error) {
	length := ps.Length()
	if start < 0 || start > length {
		return nil, ErrPositionOutOfRange
	}
	if size < 0 || size > length-start {
		size = length - start
	}

	sources := ps.sliceSources(start, size)
	if len(sources) == 0 {
		sources = []Stream{NewMemoryStream(nil)}
	}

	h := newHistory()
	h.append(sources, 0, size, 0, 0, 0, "")
	return &PatchStream{history: h}, nil
}

// UniqueStreams returns the distinct backing sources referenced anywhere
// in the history, in first-use order, with slice windows unwrapped to the
// stream beneath. These are the streams that must stay alive for the view
// to remain readable.
func (ps *PatchStream) UniqueStreams() []Stream {
	seen := make(map[Stream]bool)
	var out []Stream
	for _, p := range ps.history.patches {
		for _, s := range p.sources {
			base := baseStream(s)
			if !seen[base] {
				seen[base] = true
				out = append(out, base)
			}
		}
	}
	return out
}
