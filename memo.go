package patchstream

// Memo caches a value derived from a view's content and recomputes it only
// when the view's active patch identity has changed since the last access.
// Undoing back to a previously seen patch still recomputes: the cell keys
// on the single last-seen id, not a full map of past values.
type Memo[T any] struct {
	ps      *PatchStream
	compute func(*PatchStream) T

	lastID uint64
	value  T
	valid  bool
}

// NewMemo creates a memo cell over ps using compute to derive the value.
func NewMemo[T any](ps *PatchStream, compute func(*PatchStream) T) *Memo[T] {
	return &Memo[T]{ps: ps, compute: compute}
}

// Get returns the cached value, recomputing it first if the active patch
// id differs from the one seen at the last access.
func (m *Memo[T]) Get() T {
	id := m.ps.ActivePatch().ID()
	if !m.valid || id != m.lastID {
		m.value = m.compute(m.ps)
		m.lastID = id
		m.valid = true
	}
	return m.value
}

// Invalidate forces the next Get to recompute.
func (m *Memo[T]) Invalidate() {
	m.valid = false
}

// SnapshotProvider hands out a stable read-only view of a PatchStream.
// While the active patch is not a restore point it returns the live view;
// at a restore point it returns a lazily created frozen fork, re-cut
// whenever the active patch identity changes, so readers holding the
// snapshot are unaffected by further edits.
type SnapshotProvider struct {
	ps       *PatchStream
	frozen   *PatchStream
	frozenID uint64
}

// NewSnapshotProvider creates a provider over ps.
func NewSnapshotProvider(ps *PatchStream) *SnapshotProvider {
	return &SnapshotProvider{ps: ps}
}

// View returns the view to read from: the live view when the active patch
// is not a restore point, otherwise a frozen fork cut at the restore
// point.
func (sp *SnapshotProvider) View() *PatchStream {
	active := sp.ps.ActivePatch()
	if !active.RestorePoint() {
		return sp.ps
	}
	if sp.frozen == nil || sp.frozenID != active.ID() {
		sp.frozen = sp.ps.Clone()
		sp.frozenID = active.ID()
	}
	return sp.frozen
}
