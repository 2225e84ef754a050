package reservation

import (
	"errors"
	"fmt"
	"time"

	"reservations/internal/domain"
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("reservation conflict")
	ErrNotFound   = errors.New("reservation not found")
)

// ValidationKind distinguishes why a request was rejected before touching the store.
type ValidationKind string

const (
	KindMissingField       ValidationKind = "missing_field"
	KindInvalidField       ValidationKind = "invalid_field"
	KindMalformedTimestamp ValidationKind = "malformed_timestamp"
	KindInvalidRange       ValidationKind = "invalid_range"
	KindNotInFuture        ValidationKind = "not_in_future"
)

type ValidationError struct {
	Field  string
	Kind   ValidationKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports that the requested interval overlaps a committed
// reservation of the same room. ExistingID is zero when the conflict was
// detected by the storage constraint rather than by a read.
type ConflictError struct {
	RoomID      int64
	Conflicting domain.Interval
	ExistingID  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %d already reserved for %s - %s",
		e.RoomID, e.Conflicting.Start.Format(time.RFC3339), e.Conflicting.End.Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reservation %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
