package patchstream

import (
	"io"
	"time"
)

// Patch is one immutable entry in the edit history. It describes the full
// logical byte sequence visible at that point — an ordered list of shared
// backing sources and an offset/size window into their concatenation — plus
// metadata about the edit that produced it relative to its predecessor.
//
// Once appended a patch never changes, with two exceptions: the restore
// point flag may be toggled (except on the root patch, which is permanent),
// and an empty description may be stamped by a transaction commit.
type Patch struct {
	id      uint64
	index   int
	created time.Time

	sources []Stream
	offset  int64
	size    int64

	changeOffset      int64
	deletedByteCount  int64
	insertedByteCount int64
	affectedByteCount int64

	restorePoint bool
	description  string
}

// ID returns the patch's history-unique identifier. IDs are never reused
// within a history, even after a redo branch is discarded.
func (p *Patch) ID() uint64 { return p.id }

// Index returns the patch's position in its history.
func (p *Patch) Index() int { return p.index }

// Created returns the time the patch was appended.
func (p *Patch) Created() time.Time { return p.created }

// Size returns the visible length of the logical byte sequence.
func (p *Patch) Size() int64 { return p.size }

// ChangeOffset returns the position of the edit that produced this patch.
func (p *Patch) ChangeOffset() int64 { return p.changeOffset }

// DeletedByteCount returns the number of bytes the edit removed.
func (p *Patch) DeletedByteCount() int64 { return p.deletedByteCount }

// InsertedByteCount returns the number of bytes the edit added.
func (p *Patch) InsertedByteCount() int64 { return p.insertedByteCount }

// AffectedByteCount returns the length of the byte window that differs
// from the predecessor patch, measured from ChangeOffset.
func (p *Patch) AffectedByteCount() int64 { return p.affectedByteCount }

// RestorePoint reports whether the patch is flagged as a restore point.
func (p *Patch) RestorePoint() bool { return p.restorePoint }

// Description returns the patch's optional label.
func (p *Patch) Description() string { return p.description }

// changeRange returns the byte window this patch changed relative to its
// predecessor.
func (p *Patch) changeRange() ByteRange {
	return ByteRange{Start: p.changeOffset, Size: p.affectedByteCount}
}

// composeSources builds the minimal ordered sub-list of candidates that,
// read from the adjusted offset, covers exactly size bytes (clamped to the
// available data). Candidates wholly before the offset are skipped — and
// the offset reduced by their length — only until the first source is
// accepted; an accepted source is never dropped even if a later source
// alone would suffice. A single zero-length candidate is kept as-is so an
// empty document still references its (possibly writable) origin.
func composeSources(candidates []Stream, offset, size int64) (covering []Stream, adjOffset, adjSize int64) {
	adjOffset = offset

	var avail int64
	for _, s := range candidates {
		n := s.Length()
		if len(covering) == 0 && adjOffset >= n && !(n == 0 && len(candidates) == 1) {
			adjOffset -= n
			continue
		}
		covering = append(covering, s)
		avail += n
		if avail-adjOffset >= size {
			break
		}
	}

	adjSize = size
	if avail-adjOffset < size {
		adjSize = avail - adjOffset
		if adjSize < 0 {
			adjSize = 0
		}
	}
	return covering, adjOffset, adjSize
}

// readPatchAt copies up to len(buf) bytes of the patch's logical content
// starting at pos into buf, reading across source boundaries as needed.
// Each backing source's own cursor is saved before use and restored after,
// so the read is transparent to sibling views sharing the source. A read at
// or past the end copies 0 bytes; source errors propagate unchanged.
func readPatchAt(p *Patch, pos int64, buf []byte) (int, error) {
	if pos >= p.size || len(buf) == 0 {
		return 0, nil
	}
	want := int64(len(buf))
	if want > p.size-pos {
		want = p.size - pos
	}

	// Locate the source containing the first byte.
	abs := p.offset + pos
	idx := 0
	for idx < len(p.sources) && abs >= p.sources[idx].Length() {
		abs -= p.sources[idx].Length()
		idx++
	}

	var total int64
	for total < want && idx < len(p.sources) {
		src := p.sources[idx]

		saved, err := src.Seek(0, io.SeekCurrent)
		if err != nil {
			return int(total), err
		}
		if _, err := src.Seek(abs, io.SeekStart); err != nil {
			return int(total), err
		}

		limit := src.Length() - abs
		if limit > want-total {
			limit = want - total
		}

		var read int64
		for read < limit {
			n, err := src.Read(buf[total+read : total+limit])
			read += int64(n)
			if err == io.EOF {
				break
			}
			if err != nil {
				src.Seek(saved, io.SeekStart)
				return int(total + read), err
			}
			if n == 0 {
				break
			}
		}

		if _, err := src.Seek(saved, io.SeekStart); err != nil {
			return int(total + read), err
		}

		total += read
		if read < limit {
			// Source delivered less than its declared length.
			break
		}
		abs = 0
		idx++
	}
	return int(total), nil
}
