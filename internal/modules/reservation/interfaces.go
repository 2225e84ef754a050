package reservation

import "reservations/internal/domain"

// EventPublisher is notified after a reservation is committed or removed.
// Implementations must not block.
type EventPublisher interface {
	ReservationCreated(r domain.Reservation)
	ReservationDeleted(r domain.Reservation)
}
