package domain

import "errors"

// Expected, recoverable engine conditions. They surface directly to the
// caller for user-facing messaging and are never logged as system errors.
var (
	ErrUnavailable       = errors.New("requested range is unavailable")
	ErrMinimumStayNotMet = errors.New("minimum stay not met")
	ErrHoldNotFound      = errors.New("hold not found")
	ErrHoldExpired       = errors.New("hold has expired")
	ErrAlreadyBlocked    = errors.New("date is already blocked")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomInactive      = errors.New("room is inactive")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrConcurrentModification means an optimistic version check lost the
	// race; callers re-read and retry.
	ErrConcurrentModification = errors.New("record was modified concurrently")
)
