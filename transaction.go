package patchstream

// transactionState holds the state of an active transaction.
type transactionState struct {
	depth    int    // nesting depth
	name     string // from outermost BeginTransaction
	poisoned bool   // whether any inner transaction rolled back

	// Pre-transaction state for rollback
	prePatchID    uint64
	prePosition   int64
	preInsertMode bool

	hasEdits bool
}

// InTransaction returns true if any transaction is active.
func (ps *PatchStream) InTransaction() bool {
	return ps.transaction != nil
}

// TransactionDepth returns the current nesting depth (0 = no active
// transaction).
func (ps *PatchStream) TransactionDepth() int {
	if ps.transaction == nil {
		return 0
	}
	return ps.transaction.depth
}

// BeginTransaction starts a transaction with an optional descriptive name.
// Nested calls only increase the depth; the name of the outermost call
// labels the restore point created on commit.
func (ps *PatchStream) BeginTransaction(name string) {
	if ps.transaction != nil {
		ps.transaction.depth++
		return
	}
	ps.transaction = &transactionState{
		depth:         1,
		name:          name,
		prePatchID:    ps.history.Active().id,
		prePosition:   ps.position,
		preInsertMode: ps.insertMode,
	}
}

// noteEdit records that an edit happened inside the active transaction.
func (ps *PatchStream) noteEdit() {
	if ps.transaction != nil {
		ps.transaction.hasEdits = true
	}
}

// CommitTransaction commits the current transaction. The outermost commit
// of a transaction that performed edits flags the active patch as a
// restore point labeled with the transaction name; a poisoned transaction
// rolls back instead and reports ErrTransactionPoisoned.
func (ps *PatchStream) CommitTransaction() error {
	tx := ps.transaction
	if tx == nil {
		return ErrNoTransaction
	}

	tx.depth--
	if tx.depth > 0 {
		return nil
	}

	ps.transaction = nil
	if tx.poisoned {
		return ps.rollbackTo(tx, ErrTransactionPoisoned)
	}

	if tx.hasEdits {
		active := ps.history.Active()
		ps.history.describe(active, tx.name)
		ps.history.setRestorePoint(active.id, true)
	}
	return nil
}

// RollbackTransaction discards all changes made inside the current
// transaction. An inner rollback poisons the enclosing transaction, which
// then rolls back on its outermost commit.
func (ps *PatchStream) RollbackTransaction() error {
	tx := ps.transaction
	if tx == nil {
		return ErrNoTransaction
	}

	tx.poisoned = true
	tx.depth--
	if tx.depth > 0 {
		return nil
	}

	ps.transaction = nil
	return ps.rollbackTo(tx, nil)
}

// rollbackTo returns the view to the pre-transaction patch and discards
// the abandoned branch, restoring position and insert mode.
func (ps *PatchStream) rollbackTo(tx *transactionState, result error) error {
	idx := ps.history.indexOf(tx.prePatchID)
	if idx < 0 {
		return ErrTransactionLost
	}
	ps.history.moveTo(idx)
	ps.history.truncateAfterCursor()
	ps.position = tx.prePosition
	ps.insertMode = tx.preInsertMode
	return result
}
