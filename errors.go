// Package patchstream provides a copy-on-write editable view over one or
// more immutable byte sources. Edits never mutate source data; each edit
// produces a new immutable patch referencing spans of earlier sources plus
// any newly added bytes. The patch sequence forms a linear history with
// undo/redo, named restore points, minimal changed-region diffs between any
// two history points, and partial write-back of only the changed regions.
package patchstream

import "errors"

// Position errors
var (
	// ErrPositionOutOfRange indicates that a start position or write
	// position lies outside the editable range.
	ErrPositionOutOfRange = errors.New("position out of bounds")

	// ErrInvalidSeek indicates a seek to a negative position or with an
	// unknown whence value.
	ErrInvalidSeek = errors.New("invalid seek")
)

// Stream errors
var (
	// ErrStreamClosed indicates that the underlying file is no longer open.
	ErrStreamClosed = errors.New("stream closed")

	// ErrReadOnly indicates a write to a stream opened in read-only mode.
	ErrReadOnly = errors.New("stream is read-only")
)

// Transaction errors
var (
	// ErrNoTransaction indicates that there is no active transaction.
	ErrNoTransaction = errors.New("no active transaction")

	// ErrTransactionPoisoned indicates that a transaction was poisoned by an
	// inner rollback.
	ErrTransactionPoisoned = errors.New("transaction was poisoned by inner rollback")

	// ErrTransactionLost indicates that the pre-transaction patch was
	// discarded while the transaction was open, so rollback has no target.
	ErrTransactionLost = errors.New("pre-transaction patch no longer exists")
)
