package patchstream

import "io"

// flushTarget returns the writable origin and the affected regions, or
// false when the flush preconditions are unmet: at least two patches, the
// cursor off the root, and a root patch referencing exactly one writable
// backing source.
func (ps *PatchStream) flushTarget() (WritableStream, *Patch, []ByteRange, bool) {
	h := ps.history
	if len(h.patches) < 2 || h.cursor == 0 {
		return nil, nil, nil, false
	}
	root := h.patches[0]
	if len(root.sources) != 1 {
		return nil, nil, nil, false
	}
	src := root.sources[0]
	if _, sliced := src.(*sliceStream); sliced {
		// A clipped window into a writable stream is not a full origin.
		return nil, nil, nil, false
	}
	w, ok := isWritable(src)
	if !ok {
		return nil, nil, nil, false
	}
	return w, root, h.AffectedRegions(h.Active(), root), true
}

// CanFlush returns the number of bytes a Flush would copy back to the
// writable origin, or 0 when flushing is not possible.
func (ps *PatchStream) CanFlush() int64 {
	_, _, regions, ok := ps.flushTarget()
	if !ok {
		return 0
	}
	length := ps.Length()
	var total int64
	for _, r := range regions {
		end := r.End()
		if end > length {
			end = length
		}
		if end > r.Start {
			total += end - r.Start
		}
	}
	return total
}

// Flush writes only the changed byte regions of the current view back into
// the single writable origin referenced by the root patch, resizes the
// origin if the visible length changed, and collapses the history to a
// single fresh root patch over that origin. The visible content is
// unchanged, but the undo history is gone; Flush is irreversible.
//
// When the preconditions are unmet (short history, cursor at the root,
// multiple or non-writable root sources) Flush silently does nothing:
// write-back is an optional optimization, not a required capability.
// Errors from the origin itself propagate unchanged.
func (ps *PatchStream) Flush() error {
	w, root, regions, ok := ps.flushTarget()
	if !ok {
		return nil
	}

	length := ps.Length()

	// Stage all region contents before the first write: the current view
	// may still be reading unedited spans out of the destination.
	bufs := make([][]byte, len(regions))
	for i, r := range regions {
		end := r.End()
		if end > length {
			end = length
		}
		if end <= r.Start {
			continue
		}
		buf := make([]byte, end-r.Start)
		n, err := ps.readAt(r.Start, buf)
		if err != nil {
			return err
		}
		bufs[i] = buf[:n]
	}

	saved, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	for i, r := range regions {
		if len(bufs[i]) == 0 {
			continue
		}
		if _, err := w.Seek(root.offset+r.Start, io.SeekStart); err != nil {
			return err
		}
		n, err := w.Write(bufs[i])
		if err != nil {
			return err
		}
		if n != len(bufs[i]) {
			return io.ErrShortWrite
		}
	}
	if _, err := w.Seek(saved, io.SeekStart); err != nil {
		return err
	}

	if length != root.size {
		if err := w.Truncate(root.offset + length); err != nil {
			return err
		}
	}

	if f, ok := w.(*FileStream); ok {
		f.RefreshSourceInfo()
	}

	// Collapse to a single fresh root over the same origin. The visible
	// content is unchanged from any external viewer's perspective; the
	// discarded patches ride out in the change notification.
	h := ps.history
	h.cursor = -1
	h.append([]Stream{w}, root.offset, length, 0, 0, 0, root.description)
	return nil
}
