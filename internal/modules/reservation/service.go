package reservation

import (
	"context"
	"errors"
	"log"
	"time"

	"reservations/internal/domain"
	"reservations/internal/pkg/clock"
)

// maxTxRetries bounds automatic retries of a create whose transaction the
// database aborted because of a concurrent update.
const maxTxRetries = 1

type Service struct {
	store  domain.ReservationStore
	clock  clock.Clock
	locks  *roomLocks
	events EventPublisher
}

// NewService builds the booking service. events may be nil.
func NewService(store domain.ReservationStore, clk clock.Clock, events EventPublisher) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		store:  store,
		clock:  clk,
		locks:  newRoomLocks(),
		events: events,
	}
}

// Create validates req and commits it unless it overlaps a committed
// reservation of the same room.
//
// The overlap check and the insert run inside one store transaction while the
// caller holds the room's lock. The lock serializes creates for a room within
// this process; the transaction (write-locked from BEGIN on SQLite, backed by
// an exclusion constraint on PostgreSQL) keeps separate processes sharing a
// database from double-booking.
func (s *Service) Create(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	v, err := Validate(req, s.clock.Now())
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, v.RoomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res *domain.Reservation
	for attempt := 0; ; attempt++ {
		res, err = s.commit(ctx, v)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrOverlapConstraint) {
			return nil, &ConflictError{RoomID: v.RoomID, Conflicting: v.Interval}
		}
		if !errors.Is(err, domain.ErrTxAborted) {
			return nil, err
		}
		if attempt >= maxTxRetries {
			log.Printf("reservation_conflict room_id=%d reason=tx_aborted attempts=%d", v.RoomID, attempt+1)
			return nil, &ConflictError{RoomID: v.RoomID, Conflicting: v.Interval}
		}
	}

	log.Printf("reservation_created id=%d room_id=%d start=%s end=%s",
		res.ID, res.RoomID, res.StartTime.Format(time.RFC3339), res.EndTime.Format(time.RFC3339))
	if s.events != nil {
		s.events.ReservationCreated(*res)
	}
	return res, nil
}

func (s *Service) commit(ctx context.Context, v ValidatedRequest) (*domain.Reservation, error) {
	var committed *domain.Reservation
	err := s.store.WithinTx(ctx, func(tx domain.ReservationStore) error {
		existing, err := tx.FindOverlapping(ctx, v.RoomID, v.Interval.Start, v.Interval.End)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ConflictError{RoomID: v.RoomID, Conflicting: existing.Interval(), ExistingID: existing.ID}
		}

		r := &domain.Reservation{
			RoomID:    v.RoomID,
			UserName:  v.UserName,
			StartTime: v.Interval.Start,
			EndTime:   v.Interval.End,
		}
		if _, err := tx.Insert(ctx, r); err != nil {
			return err
		}
		committed = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NotFoundError{ID: id}
	}
	return r, nil
}

// List returns every reservation ordered by start time.
func (s *Service) List(ctx context.Context) ([]domain.Reservation, error) {
	return s.store.ListAll(ctx)
}

// ListByRoom returns the room's reservations ordered by start time; a room
// with none yields an empty slice.
func (s *Service) ListByRoom(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	if roomID <= 0 {
		// no reservation can carry a non-positive room id
		return []domain.Reservation{}, nil
	}
	return s.store.ListByRoom(ctx, roomID)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	var removed *domain.Reservation
	err := s.store.WithinTx(ctx, func(tx domain.ReservationStore) error {
		r, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return &NotFoundError{ID: id}
		}
		n, err := tx.DeleteByID(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{ID: id}
		}
		removed = r
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("reservation_deleted id=%d room_id=%d", removed.ID, removed.RoomID)
	if s.events != nil {
		s.events.ReservationDeleted(*removed)
	}
	return nil
}
