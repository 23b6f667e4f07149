package patchstream

// AffectedRegions computes the minimal set of non-overlapping byte ranges,
// sorted by start, whose content differs between two patches of this
// history. Jumping across N edits therefore reports one merged union of
// changed bytes rather than N separate diffs.
//
// The walk visits every patch strictly between the two indices plus the far
// endpoint — forward from the lower index this is (from, to], backward it
// is the patches being undone, (to, from] from the higher index down —
// and collects each visited patch's own change window. Direction affects
// only traversal order, never the merged result.
//
// Both patches must currently exist in this history; if either has been
// discarded by a redo-branch truncation (or belongs to another history)
// the result is nil.
func (h *History) AffectedRegions(from, to *Patch) []ByteRange {
	if from == nil || to == nil || !h.contains(from) || !h.contains(to) {
		return nil
	}
	if from.id == to.id {
		return nil
	}

	lo, hi := from.index, to.index
	if lo > hi {
		lo, hi = hi, lo
	}

	ranges := make([]ByteRange, 0, hi-lo)
	for i := lo + 1; i <= hi; i++ {
		ranges = append(ranges, h.patches[i].changeRange())
	}
	return mergeRanges(ranges)
}

// contains reports whether p is currently a member of this history.
func (h *History) contains(p *Patch) bool {
	return p.index >= 0 && p.index < len(h.patches) && h.patches[p.index].id == p.id
}
