package models

import "time"

// ReservationHold is a short-lived exclusive claim on a room and date range,
// taken at the start of checkout before payment is confirmed.
type ReservationHold struct {
	ID        string    `json:"id"`
	RoomID    int64     `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	HolderID  string    `json:"holder_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Range returns the held date range.
func (h *ReservationHold) Range() DateRange {
	return DateRange{CheckIn: h.CheckIn, CheckOut: h.CheckOut}
}

// Live reports whether the hold still blocks availability at the given time.
// Expiry is enforced by filtering at read time everywhere overlap is
// evaluated, not by eager deletion.
func (h *ReservationHold) Live(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}
