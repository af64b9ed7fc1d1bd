package repository

import "errors"

var (
	// ErrBookingOverlap is returned when another active booking already blocks the range.
	ErrBookingOverlap = errors.New("booking overlaps an existing booking")
	// ErrBookingNotActive is returned when cancelling a booking that is already cancelled.
	ErrBookingNotActive = errors.New("booking is not active")
)
