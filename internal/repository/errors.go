package repository

import (
	"errors"

	"reservations/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgExclusionViolation   = "23P01"

	overlapConstraintName = "reservations_no_overlap"
)

// classify wraps a driver error in a StoreError, tagging transaction aborts
// and no-overlap constraint violations so callers can tell them apart from
// genuine I/O failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected:
			return &domain.StoreError{Op: op, Cause: errors.Join(domain.ErrTxAborted, err)}
		case pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == overlapConstraintName:
			return &domain.StoreError{Op: op, Cause: errors.Join(domain.ErrOverlapConstraint, err)}
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return &domain.StoreError{Op: op, Cause: errors.Join(domain.ErrTxAborted, err)}
		}
	}

	return &domain.StoreError{Op: op, Cause: err}
}
