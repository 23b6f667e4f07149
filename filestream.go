package patchstream

import (
	"io"
	"os"
)

// OpenMode specifies how a FileStream is opened.
type OpenMode int

const (
	// OpenModeRead opens the file for reading only. A read-only FileStream
	// never qualifies as a flush destination.
	OpenModeRead OpenMode = iota

	// OpenModeReadWrite opens the file for reading and writing.
	OpenModeReadWrite
)

// FileStream is a Stream backed by a file on disk. Opened read-write it
// also satisfies WritableStream and can serve as a flush destination.
type FileStream struct {
	file     *os.File
	path     string
	writable bool

	source *sourceState
}

// OpenFileStream opens the file at path as a backing stream.
func OpenFileStream(path string, mode OpenMode) (*FileStream, error) {
	flag := os.O_RDONLY
	if mode == OpenModeReadWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}

	fs := &FileStream{
		file:     f,
		path:     path,
		writable: mode == OpenModeReadWrite,
	}
	fs.source = newSourceState()
	if err := fs.captureSourceInfo(); err != nil {
		f.Close()
		return nil, err
	}
	return fs, nil
}

// Path returns the path the stream was opened from.
func (f *FileStream) Path() string {
	return f.path
}

// Writable reports whether the stream was opened read-write.
func (f *FileStream) Writable() bool {
	return f.writable
}

// Length returns the current size of the file.
func (f *FileStream) Length() int64 {
	if f.file == nil {
		return 0
	}
	info, err := f.file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (f *FileStream) Read(p []byte) (int, error) {
	if f.file == nil {
		return 0, ErrStreamClosed
	}
	return f.file.Read(p)
}

func (f *FileStream) Seek(offset int64, whence int) (int64, error) {
	if f.file == nil {
		return 0, ErrStreamClosed
	}
	return f.file.Seek(offset, whence)
}

func (f *FileStream) Write(p []byte) (int, error) {
	if f.file == nil {
		return 0, ErrStreamClosed
	}
	if !f.writable {
		return 0, ErrReadOnly
	}
	return f.file.Write(p)
}

// Truncate resizes the file to exactly size bytes.
func (f *FileStream) Truncate(size int64) error {
	if f.file == nil {
		return ErrStreamClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	if err := f.file.Truncate(size); err != nil {
		return err
	}
	// Keep the file cursor inside the file after a shrink.
	pos, err := f.file.Seek(0, io.SeekCurrent)
	if err == nil && pos > size {
		_, err = f.file.Seek(size, io.SeekStart)
	}
	return err
}

// Close stops any source watch and closes the underlying file.
func (f *FileStream) Close() error {
	f.DisableSourceWatch()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
