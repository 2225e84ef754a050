package repository

import (
	"context"
	"database/sql"
	"time"

	"reservations/internal/domain"

	"gorm.io/gorm"
)

// ReservationRepository is the SQL-backed reservation store. On SQLite
// WithinTx holds the database write lock from BEGIN (see database.SQLiteDSN);
// on PostgreSQL overlaps are rejected by an exclusion constraint at insert.
type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type reservationModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RoomID    int64     `gorm:"column:room_id;not null;index:idx_reservations_room_start,priority:1"`
	UserName  string    `gorm:"column:user_name;not null"`
	StartTime time.Time `gorm:"column:start_time;not null;index:idx_reservations_room_start,priority:2;index:idx_reservations_start"`
	EndTime   time.Time `gorm:"column:end_time;not null;check:chk_reservations_interval,start_time < end_time"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (reservationModel) TableName() string { return "reservations" }

func toDomainReservation(m reservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserName:  m.UserName,
		StartTime: m.StartTime.UTC(),
		EndTime:   m.EndTime.UTC(),
	}
}

// Timestamps are stored in UTC so that ordering by start_time is
// chronological on engines that compare them as text.
func toReservationModel(r *domain.Reservation) reservationModel {
	return reservationModel{
		ID:        r.ID,
		RoomID:    r.RoomID,
		UserName:  r.UserName,
		StartTime: r.StartTime.UTC(),
		EndTime:   r.EndTime.UTC(),
	}
}

func toDomainReservations(rows []reservationModel) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out
}

// FindOverlapping returns one reservation of roomID whose interval overlaps
// [start, end), or nil when there is none.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) (*domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("start_time < ? AND end_time > ?", end.UTC(), start.UTC()).
		Order("start_time").
		Limit(1).
		Find(&rows)
	if tx.Error != nil {
		return nil, classify("find overlapping", tx.Error)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return toDomainReservation(rows[0]), nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows)
	if tx.Error != nil {
		return nil, classify("find by id", tx.Error)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return toDomainReservation(rows[0]), nil
}

func (r *ReservationRepository) Insert(ctx context.Context, res *domain.Reservation) (int64, error) {
	m := toReservationModel(res)
	m.ID = 0
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return 0, classify("insert", tx.Error)
	}
	res.ID = m.ID
	return m.ID, nil
}

func (r *ReservationRepository) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).Order("start_time").Order("id").Find(&rows)
	if tx.Error != nil {
		return nil, classify("list", tx.Error)
	}
	return toDomainReservations(rows), nil
}

func (r *ReservationRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("start_time").
		Order("id").
		Find(&rows)
	if tx.Error != nil {
		return nil, classify("list by room", tx.Error)
	}
	return toDomainReservations(rows), nil
}

// DeleteByID returns the number of rows removed, 0 or 1.
func (r *ReservationRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&reservationModel{})
	if tx.Error != nil {
		return 0, classify("delete", tx.Error)
	}
	return tx.RowsAffected, nil
}

func (r *ReservationRepository) WithinTx(ctx context.Context, fn func(tx domain.ReservationStore) error) error {
	var fnErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&ReservationRepository{db: tx})
		return fnErr
	}, r.txOptions()...)
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return classify("commit", err)
}

func (r *ReservationRepository) txOptions() []*sql.TxOptions {
	return txOptionsFor(r.db.Dialector.Name())
}

// txOptionsFor picks the isolation level per engine. PostgreSQL runs at READ
// COMMITTED: the reservations_no_overlap constraint rejects overlaps, and
// SERIALIZABLE would abort creates for unrelated rooms whenever the overlap
// read falls back to a table scan.
func txOptionsFor(dialect string) []*sql.TxOptions {
	if dialect == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelReadCommitted}}
	}
	return nil
}
