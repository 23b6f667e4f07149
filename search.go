package patchstream

import "bytes"

// findChunkSize is how many bytes Find scans per read.
const findChunkSize = 64 * 1024

// Find returns the position of the first occurrence of needle at or after
// from, scanning the logical content across source boundaries, or -1 when
// absent. The view's position is not moved. An empty needle matches at
// from (clamped into the content). Errors from backing sources propagate.
func (ps *PatchStream) Find(needle []byte, from int64) (int64, error) {
	length := ps.Length()
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 {
		if from > length {
			return length, nil
		}
		return from, nil
	}
	if from >= length {
		return -1, nil
	}

	// Chunks overlap by len(needle)-1 so matches spanning a chunk
	// boundary are still seen.
	overlap := int64(len(needle) - 1)
	buf := make([]byte, findChunkSize+int(overlap))

	pos := from
	for pos < length {
		n, err := ps.readAt(pos, buf)
		if err != nil {
			return -1, err
		}
		if n == 0 {
			break
		}
		if i := bytes.Index(buf[:n], needle); i >= 0 {
			return pos + int64(i), nil
		}
		if int64(n) <= overlap {
			break
		}
		pos += int64(n) - overlap
	}
	return -1, nil
}
