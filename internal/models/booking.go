package models

import "time"

type Booking struct {
	ID         int64     `json:"id"`
	RoomID     int64     `json:"room_id"`
	GuestID    int64     `json:"guest_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Guests     int       `json:"guests"`
	Status     string    `json:"status"` // pending, confirmed, cancelled, completed
	TotalPrice int64     `json:"total_price"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}

// Range returns the booking's date range.
func (b *Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// Active reports whether the booking consumes availability.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
