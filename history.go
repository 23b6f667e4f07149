package patchstream

import "time"

// ChangeInfo is the payload of a "changed" notification. It carries the
// patches discarded by a redo-branch truncation (if any) and the merged
// byte ranges whose content differs between the previously active patch and
// the newly active one. Consumers such as incremental re-renderers rely on
// the ranges being a minimal union, not a full-document diff.
type ChangeInfo struct {
	Overwritten []*Patch
	Ranges      []ByteRange
}

// ChangeHandler is called after every append and every history navigation.
type ChangeHandler func(info ChangeInfo)

// RestorePointsHandler is called whenever the set of flagged restore
// points changes.
type RestorePointsHandler func()

// History is an append-only ordered sequence of patches with a movable
// cursor selecting the active patch. Appending while the cursor is not at
// the tail discards the forward (redo) branch: redo information is lossy
// by design, so no tree structure is needed.
type History struct {
	patches     []*Patch
	cursor      int
	nextID      uint64
	lastChanged time.Time

	changeHandlers  []ChangeHandler
	restoreHandlers []RestorePointsHandler
}

func newHistory() *History {
	return &History{cursor: -1, nextID: 1}
}

// Len returns the number of patches currently in the history.
func (h *History) Len() int {
	return len(h.patches)
}

// Cursor returns the index of the active patch.
func (h *History) Cursor() int {
	return h.cursor
}

// Active returns the active patch, or nil for an empty history.
func (h *History) Active() *Patch {
	if h.cursor < 0 || h.cursor >= len(h.patches) {
		return nil
	}
	return h.patches[h.cursor]
}

// PatchAt returns the patch at index, or nil if out of range.
func (h *History) PatchAt(index int) *Patch {
	if index < 0 || index >= len(h.patches) {
		return nil
	}
	return h.patches[index]
}

// LastChanged returns the time of the most recent append or truncation.
func (h *History) LastChanged() time.Time {
	return h.lastChanged
}

// OnChange registers a handler for "changed" notifications.
func (h *History) OnChange(handler ChangeHandler) {
	h.changeHandlers = append(h.changeHandlers, handler)
}

// OnRestorePointsChanged registers a handler for restore-point changes.
func (h *History) OnRestorePointsChanged(handler RestorePointsHandler) {
	h.restoreHandlers = append(h.restoreHandlers, handler)
}

func (h *History) notifyChanged(info ChangeInfo) {
	for _, handler := range h.changeHandlers {
		handler(info)
	}
}

func (h *History) notifyRestorePoints() {
	for _, handler := range h.restoreHandlers {
		handler()
	}
}

// append discards any redo branch past the cursor, builds a new patch from
// the given covering source list and edit metadata, advances the cursor to
// it, and fires a "changed" notification carrying the overwritten patches
// and the merged affected ranges relative to the previous active patch.
func (h *History) append(sources []Stream, offset, size, changeOffset, deleted, inserted int64, description string) *Patch {
	var overwritten []*Patch
	if h.cursor+1 < len(h.patches) {
		overwritten = append([]*Patch(nil), h.patches[h.cursor+1:]...)
		h.patches = h.patches[:h.cursor+1]
	}

	// The visible size never exceeds the data actually available.
	if avail := totalLength(sources) - offset; size > avail {
		size = avail
	}
	if size < 0 {
		size = 0
	}

	var prev *Patch
	if h.cursor >= 0 {
		prev = h.patches[h.cursor]
	}

	p := &Patch{
		id:                h.nextID,
		index:             len(h.patches),
		created:           time.Now(),
		sources:           sources,
		offset:            offset,
		size:              size,
		changeOffset:      changeOffset,
		deletedByteCount:  deleted,
		insertedByteCount: inserted,
		description:       description,
	}
	h.nextID++

	if prev == nil {
		// The root patch is a permanent restore point and has no
		// predecessor to differ from.
		p.restorePoint = true
		p.affectedByteCount = 0
	} else if deleted == inserted {
		p.affectedByteCount = inserted
	} else {
		larger := p.size
		if prev.size > larger {
			larger = prev.size
		}
		p.affectedByteCount = larger - changeOffset
	}

	h.patches = append(h.patches, p)
	h.cursor = len(h.patches) - 1
	h.lastChanged = p.created

	var ranges []ByteRange
	if prev != nil {
		ranges = h.AffectedRegions(prev, p)
	}
	h.notifyChanged(ChangeInfo{Overwritten: overwritten, Ranges: ranges})
	return p
}

// truncateAfterCursor discards every patch past the cursor, reporting the
// discarded patches through the "changed" notification. Used by
// transaction rollback; append performs its own truncation.
func (h *History) truncateAfterCursor() {
	if h.cursor+1 >= len(h.patches) {
		return
	}
	overwritten := append([]*Patch(nil), h.patches[h.cursor+1:]...)
	h.patches = h.patches[:h.cursor+1]
	h.lastChanged = time.Now()
	h.notifyChanged(ChangeInfo{Overwritten: overwritten})
}

// moveTo repositions the cursor on an existing patch and fires a "changed"
// notification with the affected ranges between the old and new active
// patch. Moving to the already-active patch is a successful no-op.
func (h *History) moveTo(index int) bool {
	if index < 0 || index >= len(h.patches) {
		return false
	}
	if index == h.cursor {
		return true
	}
	from := h.patches[h.cursor]
	h.cursor = index
	to := h.patches[index]
	h.notifyChanged(ChangeInfo{Ranges: h.AffectedRegions(from, to)})
	return true
}

func (h *History) canUndo() bool {
	return h.cursor > 0
}

func (h *History) canRedo() bool {
	return h.cursor >= 0 && h.cursor < len(h.patches)-1
}

func (h *History) undo() bool {
	if !h.canUndo() {
		return false
	}
	return h.moveTo(h.cursor - 1)
}

func (h *History) redo() bool {
	if !h.canRedo() {
		return false
	}
	return h.moveTo(h.cursor + 1)
}

// indexOf returns the index of the patch with the given id, or -1.
func (h *History) indexOf(id uint64) int {
	for i, p := range h.patches {
		if p.id == id {
			return i
		}
	}
	return -1
}

func (h *History) restoreID(id uint64) bool {
	idx := h.indexOf(id)
	if idx < 0 {
		return false
	}
	return h.moveTo(idx)
}

// restorePointUndo jumps to the nearest patch strictly before the cursor
// flagged as a restore point. The root patch always qualifies.
func (h *History) restorePointUndo() bool {
	for i := h.cursor - 1; i >= 0; i-- {
		if h.patches[i].restorePoint {
			return h.moveTo(i)
		}
	}
	return false
}

// restorePointRedo jumps to the nearest patch strictly after the cursor
// flagged as a restore point; the tail patch counts as an implicit one.
func (h *History) restorePointRedo() bool {
	for i := h.cursor + 1; i < len(h.patches); i++ {
		if h.patches[i].restorePoint {
			return h.moveTo(i)
		}
	}
	if h.cursor < len(h.patches)-1 {
		return h.moveTo(len(h.patches) - 1)
	}
	return false
}

// setRestorePoint toggles the restore point flag on the patch with the
// given id. The root patch's flag cannot be cleared. Returns false for an
// unknown id or a forbidden clear; an already-matching flag is a
// successful no-op that fires no notification.
func (h *History) setRestorePoint(id uint64, on bool) bool {
	idx := h.indexOf(id)
	if idx < 0 {
		return false
	}
	if idx == 0 && !on {
		return false
	}
	p := h.patches[idx]
	if p.restorePoint == on {
		return true
	}
	p.restorePoint = on
	h.notifyRestorePoints()
	return true
}

// restorePoints returns the patches flagged as restore points, in history
// order. With includeTail, the tail patch is included even when unflagged.
func (h *History) restorePoints(includeTail bool) []*Patch {
	var out []*Patch
	for i, p := range h.patches {
		if p.restorePoint || (includeTail && i == len(h.patches)-1) {
			out = append(out, p)
		}
	}
	return out
}

// describe stamps a description on a patch that has none. Used by
// transaction commits to label the resulting restore point.
func (h *History) describe(p *Patch, description string) {
	if p.description == "" {
		p.description = description
	}
}
