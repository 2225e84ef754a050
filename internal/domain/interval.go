package domain

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals share at least one instant.
// An interval ending exactly when the other begins does not overlap it, so
// back-to-back reservations never conflict.
func Overlaps(existing, candidate Interval) bool {
	return existing.Start.Before(candidate.End) && existing.End.After(candidate.Start)
}
