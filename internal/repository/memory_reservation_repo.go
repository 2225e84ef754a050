package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"reservations/internal/domain"
)

// MemoryReservationRepository is an embedded single-process store. WithinTx
// holds the store's write lock for the whole callback and applies the
// callback's writes only when it returns nil.
type MemoryReservationRepository struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		state: &memoryState{rows: make(map[int64]domain.Reservation)},
	}
}

type memoryState struct {
	lastID int64
	rows   map[int64]domain.Reservation
}

func (s *memoryState) clone() *memoryState {
	rows := make(map[int64]domain.Reservation, len(s.rows))
	for id, r := range s.rows {
		rows[id] = r
	}
	return &memoryState{lastID: s.lastID, rows: rows}
}

func (m *MemoryReservationRepository) FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (&memoryView{state: m.state}).FindOverlapping(ctx, roomID, start, end)
}

func (m *MemoryReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (&memoryView{state: m.state}).FindByID(ctx, id)
}

func (m *MemoryReservationRepository) Insert(ctx context.Context, r *domain.Reservation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memoryView{state: m.state}).Insert(ctx, r)
}

func (m *MemoryReservationRepository) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (&memoryView{state: m.state}).ListAll(ctx)
}

func (m *MemoryReservationRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (&memoryView{state: m.state}).ListByRoom(ctx, roomID)
}

func (m *MemoryReservationRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memoryView{state: m.state}).DeleteByID(ctx, id)
}

func (m *MemoryReservationRepository) WithinTx(ctx context.Context, fn func(tx domain.ReservationStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "begin", Cause: err}
	}

	working := m.state.clone()
	if err := fn(&memoryView{state: working}); err != nil {
		return err
	}
	m.state = working
	return nil
}

// memoryView operates on a state the caller has already locked.
type memoryView struct {
	state *memoryState
}

func (v *memoryView) FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "find overlapping", Cause: err}
	}
	candidate := domain.Interval{Start: start, End: end}
	for _, r := range v.sorted(func(r domain.Reservation) bool { return r.RoomID == roomID }) {
		if domain.Overlaps(r.Interval(), candidate) {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

func (v *memoryView) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "find by id", Cause: err}
	}
	r, ok := v.state.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (v *memoryView) Insert(ctx context.Context, r *domain.Reservation) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.StoreError{Op: "insert", Cause: err}
	}
	v.state.lastID++
	stored := *r
	stored.ID = v.state.lastID
	v.state.rows[stored.ID] = stored
	r.ID = stored.ID
	return stored.ID, nil
}

func (v *memoryView) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list", Cause: err}
	}
	return v.sorted(func(domain.Reservation) bool { return true }), nil
}

func (v *memoryView) ListByRoom(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list by room", Cause: err}
	}
	return v.sorted(func(r domain.Reservation) bool { return r.RoomID == roomID }), nil
}

func (v *memoryView) DeleteByID(ctx context.Context, id int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.StoreError{Op: "delete", Cause: err}
	}
	if _, ok := v.state.rows[id]; !ok {
		return 0, nil
	}
	delete(v.state.rows, id)
	return 1, nil
}

// WithinTx on a view is already inside a transaction.
func (v *memoryView) WithinTx(_ context.Context, fn func(tx domain.ReservationStore) error) error {
	return fn(v)
}

func (v *memoryView) sorted(keep func(domain.Reservation) bool) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(v.state.rows))
	for _, r := range v.state.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
