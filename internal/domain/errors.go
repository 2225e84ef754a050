package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTxAborted marks a transaction the database rolled back because of a
	// concurrent read/write or write/write conflict. It does not imply that an
	// overlapping reservation exists.
	ErrTxAborted = errors.New("transaction aborted by concurrent update")
	// ErrOverlapConstraint marks an insert rejected by the storage-level
	// no-overlap constraint.
	ErrOverlapConstraint = errors.New("reservation overlap constraint violated")
)

// StoreError wraps any failure of the underlying storage engine.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
