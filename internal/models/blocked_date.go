package models

import "time"

// BlockedDate is a host-placed override making a single room-date unbookable
// regardless of bookings. A block over an existing booking is permitted and
// does not cancel it; the two facts coexist.
type BlockedDate struct {
	ID            int64     `json:"id"`
	RoomID        int64     `json:"room_id"`
	Date          time.Time `json:"date"`
	Blocked       bool      `json:"blocked"`
	PriceOverride *int64    `json:"price_override,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
