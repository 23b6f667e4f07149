package patchstream

import (
	"os"
	"sync"
	"syscall"
	"time"
)

// SourceChangeType classifies a detected change to a FileStream's file.
type SourceChangeType int

const (
	// SourceUnchanged indicates no change was detected.
	SourceUnchanged SourceChangeType = iota

	// SourceAppended indicates the file grew but existing content may be intact.
	SourceAppended

	// SourceModified indicates existing content was altered in place.
	SourceModified

	// SourceTruncated indicates the file was shortened.
	SourceTruncated

	// SourceReplaced indicates the file was replaced (different inode).
	SourceReplaced

	// SourceDeleted indicates the file no longer exists.
	SourceDeleted
)

// String returns a human-readable description of the change type.
func (t SourceChangeType) String() string {
	switch t {
	case SourceUnchanged:
		return "unchanged"
	case SourceAppended:
		return "appended"
	case SourceModified:
		return "modified"
	case SourceTruncated:
		return "truncated"
	case SourceReplaced:
		return "replaced"
	case SourceDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// SourceChangeInfo contains details about a detected source file change.
type SourceChangeInfo struct {
	Type          SourceChangeType
	PreviousSize  int64
	CurrentSize   int64
	AppendedBytes int64 // Only valid if Type == SourceAppended
}

// SourceChangeHandler is called when a watched source file changes.
// Flushing over a changed file loses whatever changed it, so callers
// typically decline the flush or re-open the stream first.
type SourceChangeHandler func(f *FileStream, info SourceChangeInfo)

// sourceState tracks file metadata captured at open time for cheap change
// detection before a flush.
type sourceState struct {
	originalMtime time.Time
	originalSize  int64
	originalInode uint64

	changeHandler SourceChangeHandler

	watchEnabled bool
	watchStop    chan struct{}
	watchWg      sync.WaitGroup
}

func newSourceState() *sourceState {
	return &sourceState{}
}

// captureSourceInfo records the current file metadata as the baseline.
func (f *FileStream) captureSourceInfo() error {
	info, err := os.Stat(f.path)
	if err != nil {
		return err
	}
	f.source.originalMtime = info.ModTime()
	f.source.originalSize = info.Size()
	f.source.originalInode = getInode(info)
	return nil
}

// getInode extracts the inode number from file info (Unix only).
func getInode(info os.FileInfo) uint64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Ino
	}
	return 0
}

// CheckSource performs a cheap metadata comparison against the state
// captured at open time. It only stats the file, never reads content.
func (f *FileStream) CheckSource() (SourceChangeInfo, error) {
	if f.source == nil {
		return SourceChangeInfo{Type: SourceUnchanged}, nil
	}

	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		return SourceChangeInfo{
			Type:         SourceDeleted,
			PreviousSize: f.source.originalSize,
		}, nil
	}
	if err != nil {
		return SourceChangeInfo{}, err
	}

	result := SourceChangeInfo{
		Type:         SourceUnchanged,
		PreviousSize: f.source.originalSize,
		CurrentSize:  info.Size(),
	}

	currentInode := getInode(info)
	if f.source.originalInode != 0 && currentInode != 0 &&
		f.source.originalInode != currentInode {
		result.Type = SourceReplaced
		return result, nil
	}

	if info.Size() < f.source.originalSize {
		result.Type = SourceTruncated
		return result, nil
	}

	if info.Size() > f.source.originalSize {
		result.Type = SourceAppended
		result.AppendedBytes = info.Size() - f.source.originalSize
		return result, nil
	}

	if !info.ModTime().Equal(f.source.originalMtime) {
		result.Type = SourceModified
		return result, nil
	}

	return result, nil
}

// RefreshSourceInfo re-captures the baseline metadata. Flush calls this
// after writing so its own writes are not reported as foreign changes.
func (f *FileStream) RefreshSourceInfo() error {
	if f.source == nil {
		return nil
	}
	return f.captureSourceInfo()
}

// SetSourceChangeHandler sets a callback invoked by the source watch.
func (f *FileStream) SetSourceChangeHandler(handler SourceChangeHandler) {
	if f.source != nil {
		f.source.changeHandler = handler
	}
}

// EnableSourceWatch starts periodic metadata monitoring of the file.
func (f *FileStream) EnableSourceWatch(interval time.Duration) {
	if f.source == nil || f.source.watchEnabled {
		return
	}

	f.source.watchEnabled = true
	f.source.watchStop = make(chan struct{})
	f.source.watchWg.Add(1)

	go func() {
		defer f.source.watchWg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-f.source.watchStop:
				return
			case <-ticker.C:
				info, err := f.CheckSource()
				if err != nil || info.Type == SourceUnchanged {
					continue
				}
				if handler := f.source.changeHandler; handler != nil {
					handler(f, info)
				}
			}
		}
	}()
}

// DisableSourceWatch stops periodic monitoring of the file.
func (f *FileStream) DisableSourceWatch() {
	if f.source == nil || !f.source.watchEnabled {
		return
	}
	close(f.source.watchStop)
	f.source.watchWg.Wait()
	f.source.watchEnabled = false
}
