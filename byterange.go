package patchstream

import "sort"

// ByteRange describes a half-open interval [Start, Start+Size) of the
// logical byte sequence. It is used both as an edit-result descriptor and
// as the unit of changed-region diffs.
type ByteRange struct {
	Start int64
	Size  int64
}

// End returns the exclusive end position of the range.
func (r ByteRange) End() int64 {
	return r.Start + r.Size
}

// SetEnd adjusts the range's size so that it ends at the given position.
func (r *ByteRange) SetEnd(end int64) {
	r.Size = end - r.Start
}

// Contains reports whether pos lies within the range.
func (r ByteRange) Contains(pos int64) bool {
	return pos >= r.Start && pos < r.End()
}

// mergeRanges sorts ranges by start position and merges every range whose
// start falls at or before the running merged range's end. The result is a
// minimal set of non-overlapping ranges sorted by start.
func mergeRanges(ranges []ByteRange) []ByteRange {
	if len(ranges) <= 1 {
		return ranges
	}

	sorted := make([]ByteRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Size < sorted[j].Size
	})

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End() {
			if r.End() > last.End() {
				last.SetEnd(r.End())
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
