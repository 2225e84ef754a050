package domain

import (
	"context"
	"time"
)

// Reservation is a committed booking of a room for the half-open interval
// [StartTime, EndTime).
type Reservation struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	UserName  string    `json:"user_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (r Reservation) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

// ReservationStore is the only component that touches durable reservation state.
//
// WithinTx runs fn against a store view bound to a single transaction. A read
// made through that view participates in the same transaction as any later
// write, so FindOverlapping followed by Insert is atomic with respect to other
// WithinTx callers. An error returned by fn rolls the transaction back and is
// returned unchanged.
type ReservationStore interface {
	FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) (*Reservation, error)
	FindByID(ctx context.Context, id int64) (*Reservation, error)
	Insert(ctx context.Context, r *Reservation) (int64, error)
	ListAll(ctx context.Context) ([]Reservation, error)
	ListByRoom(ctx context.Context, roomID int64) ([]Reservation, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	WithinTx(ctx context.Context, fn func(tx ReservationStore) error) error
}
