package patchstream

import "io"

// Stream is the capability set required of a backing source: a finite byte
// container that is readable at arbitrary positions and independently
// seekable. A stream referenced by a patch is never mutated by this package
// (the single flush destination excepted), may be shared by many patches
// and views at once, and must outlive the last patch referencing it.
type Stream interface {
	io.ReadSeeker

	// Length returns the total number of bytes in the stream.
	Length() int64
}

// WritableStream is a Stream that can also serve as a flush destination.
type WritableStream interface {
	Stream
	io.Writer

	// Truncate resizes the stream to exactly size bytes.
	Truncate(size int64) error
}

// writableChecker is implemented by streams whose writability is decided at
// open time rather than by type.
type writableChecker interface {
	Writable() bool
}

// isWritable reports whether s can be used as a flush destination.
func isWritable(s Stream) (WritableStream, bool) {
	w, ok := s.(WritableStream)
	if !ok {
		return nil, false
	}
	if c, ok := s.(writableChecker); ok && !c.Writable() {
		return nil, false
	}
	return w, true
}

// totalLength sums the lengths of an ordered source list.
func totalLength(sources []Stream) int64 {
	var total int64
	for _, s := range sources {
		total += s.Length()
	}
	return total
}

// MemoryStream is an in-memory WritableStream. It is the natural carrier
// for newly inserted bytes and doubles as a flush destination in tests and
// for fully in-memory documents.
//
// MemoryStream does not copy the slice it is given; the caller must not
// mutate it afterward once the stream is referenced by a patch.
type MemoryStream struct {
	data []byte
	pos  int64
}

// NewMemoryStream creates a MemoryStream over data.
func NewMemoryStream(data []byte) *MemoryStream {
	return &MemoryStream{data: data}
}

// Length returns the number of bytes held.
func (m *MemoryStream) Length() int64 {
	return int64(len(m.data))
}

// Bytes returns the underlying byte slice.
func (m *MemoryStream) Bytes() []byte {
	return m.data
}

func (m *MemoryStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, ErrInvalidSeek
	}
	if pos < 0 {
		return 0, ErrInvalidSeek
	}
	m.pos = pos
	return pos, nil
}

// Write writes at the current position, extending the stream as needed.
// Writing past the end zero-fills the gap, matching file semantics.
func (m *MemoryStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

// Truncate resizes the stream to size bytes, zero-filling when growing.
func (m *MemoryStream) Truncate(size int64) error {
	if size < 0 {
		return ErrInvalidSeek
	}
	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}

// sliceStream exposes a sub-window [off, off+size) of another stream as a
// stream of its own. The splice engine uses it to clip the covering sources
// at a cut point; slicing a sliceStream re-references the base stream
// directly so windows never stack more than one level deep.
type sliceStream struct {
	src  Stream
	off  int64
	size int64
	pos  int64
}

// newSliceStream returns a stream exposing size bytes of src starting at
// off. The whole-stream case returns src itself.
func newSliceStream(src Stream, off, size int64) Stream {
	if sl, ok := src.(*sliceStream); ok {
		src, off = sl.src, sl.off+off
	}
	if off == 0 && size == src.Length() {
		return src
	}
	return &sliceStream{src: src, off: off, size: size}
}

func (s *sliceStream) Length() int64 {
	return s.size
}

// Read reads from the window, saving and restoring the base stream's own
// cursor so that sibling views sharing the base stream are undisturbed.
func (s *sliceStream) Read(p []byte) (int, error) {
	if s.pos >= s.size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	want := int64(len(p))
	if want > s.size-s.pos {
		want = s.size - s.pos
	}

	saved, err := s.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if _, err := s.src.Seek(s.off+s.pos, io.SeekStart); err != nil {
		return 0, err
	}

	var read int64
	for read < want {
		n, err := s.src.Read(p[read:want])
		read += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			s.src.Seek(saved, io.SeekStart)
			return int(read), err
		}
		if n == 0 {
			break
		}
	}

	if _, err := s.src.Seek(saved, io.SeekStart); err != nil {
		return int(read), err
	}
	s.pos += read
	return int(read), nil
}

func (s *sliceStream) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.size + offset
	default:
		return 0, ErrInvalidSeek
	}
	if pos < 0 {
		return 0, ErrInvalidSeek
	}
	s.pos = pos
	return pos, nil
}

// baseStream unwraps slice windows down to the underlying backing stream.
func baseStream(s Stream) Stream {
	for {
		sl, ok := s.(*sliceStream)
		if !ok {
			return s
		}
		s = sl.src
	}
}
