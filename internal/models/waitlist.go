package models

import "time"

// WaitlistEntry records guest interest in a currently-unavailable range.
// It is consumed exactly once: Notified flips to true the first time the
// entire range becomes free again.
type WaitlistEntry struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	GuestID   int64     `json:"guest_id"`
	Contact   string    `json:"contact"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}

// Range returns the wanted date range.
func (w *WaitlistEntry) Range() DateRange {
	return DateRange{CheckIn: w.CheckIn, CheckOut: w.CheckOut}
}
