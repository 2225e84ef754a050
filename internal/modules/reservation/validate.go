package reservation

import (
	"fmt"
	"strings"
	"time"

	"reservations/internal/domain"
	"reservations/internal/pkg/validator"
)

// Accepted timestamp layouts: RFC 3339 with an explicit offset or Z, seconds optional.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// Validate checks req against now. Checks run in a fixed order and the first
// failure wins: field presence, timestamp syntax, start before end, start
// strictly after now.
func Validate(req CreateReservationRequest, now time.Time) (ValidatedRequest, error) {
	if fieldErrs := validator.Struct(req); len(fieldErrs) > 0 {
		// every missing field outranks any malformed one
		for _, fe := range fieldErrs {
			if fe.Tag == "required" {
				return ValidatedRequest{}, &ValidationError{Field: fe.Field, Kind: KindMissingField, Reason: "is required"}
			}
		}
		fe := fieldErrs[0]
		return ValidatedRequest{}, &ValidationError{Field: fe.Field, Kind: KindInvalidField, Reason: fmt.Sprintf("must satisfy %s=%s", fe.Tag, fe.Param)}
	}
	if strings.TrimSpace(req.UserName) == "" {
		return ValidatedRequest{}, &ValidationError{Field: "user_name", Kind: KindMissingField, Reason: "must not be blank"}
	}

	start, err := parseTimestamp(req.StartTime)
	if err != nil {
		return ValidatedRequest{}, &ValidationError{Field: "start_time", Kind: KindMalformedTimestamp, Reason: err.Error()}
	}
	end, err := parseTimestamp(req.EndTime)
	if err != nil {
		return ValidatedRequest{}, &ValidationError{Field: "end_time", Kind: KindMalformedTimestamp, Reason: err.Error()}
	}

	if !start.Before(end) {
		return ValidatedRequest{}, &ValidationError{Field: "end_time", Kind: KindInvalidRange, Reason: "start time must be before end time"}
	}
	if !start.After(now) {
		return ValidatedRequest{}, &ValidationError{Field: "start_time", Kind: KindNotInFuture, Reason: "reservations must be in the future"}
	}

	return ValidatedRequest{
		RoomID:   req.RoomID,
		UserName: req.UserName,
		Interval: domain.Interval{Start: start, End: end},
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an RFC 3339 timestamp with a UTC offset", s)
}
