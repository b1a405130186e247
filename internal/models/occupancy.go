package models

// Occupancy is the calendar projection for a room over a date range: every
// non-cancelled booking and every active block intersecting the range. It is
// a read-side view; the booking and blocked-date records stay the source of
// truth.
type Occupancy struct {
	RoomID   int64         `json:"room_id"`
	Range    DateRange     `json:"range"`
	Bookings []Booking     `json:"bookings"`
	Blocked  []BlockedDate `json:"blocked"`
}

// DateFree reports whether a single date inside the projection window is free
// of bookings and blocks. Live holds are not part of the projection.
func (o *Occupancy) DateFree(dateIdx int) bool {
	if dateIdx < 0 || dateIdx >= o.Range.Nights() {
		return false
	}
	d := o.Range.CheckIn.AddDate(0, 0, dateIdx)
	for i := range o.Bookings {
		if o.Bookings[i].Active() && o.Bookings[i].Range().ContainsDate(d) {
			return false
		}
	}
	for i := range o.Blocked {
		if o.Blocked[i].Blocked && Day(o.Blocked[i].Date).Equal(d) {
			return false
		}
	}
	return true
}
