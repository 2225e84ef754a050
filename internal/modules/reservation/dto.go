package reservation

import (
	"time"

	"reservations/internal/domain"
)

// CreateReservationRequest carries the raw caller input; timestamps are
// parsed by Validate, not by the JSON decoder.
type CreateReservationRequest struct {
	RoomID    int64  `json:"room_id" validate:"required,gt=0"`
	UserName  string `json:"user_name" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ValidatedRequest is a request that passed every check in Validate.
type ValidatedRequest struct {
	RoomID   int64
	UserName string
	Interval domain.Interval
}

type ReservationResponse struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	UserName  string    `json:"user_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func toResponse(r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		RoomID:    r.RoomID,
		UserName:  r.UserName,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

func toResponses(rs []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toResponse(r))
	}
	return out
}
