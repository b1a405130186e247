package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldLive(t *testing.T) {
	now := time.Now()
	h := &ReservationHold{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, h.Live(now))
	assert.False(t, h.Live(now.Add(time.Minute)))
	assert.False(t, h.Live(now.Add(2*time.Minute)))
}

func TestBookingActive(t *testing.T) {
	for status, active := range map[string]bool{
		StatusPending:   true,
		StatusConfirmed: true,
		StatusCancelled: false,
		StatusCompleted: false,
	} {
		b := &Booking{Status: status}
		assert.Equal(t, active, b.Active(), status)
	}
}

func TestOccupancyDateFree(t *testing.T) {
	rng := DateRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 5)}
	occ := &Occupancy{
		RoomID: 1,
		Range:  rng,
		Bookings: []Booking{
			{RoomID: 1, CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 3), Status: StatusConfirmed},
			{RoomID: 1, CheckIn: date(2024, 6, 3), CheckOut: date(2024, 6, 4), Status: StatusCancelled},
		},
		Blocked: []BlockedDate{
			{RoomID: 1, Date: date(2024, 6, 4), Blocked: true},
		},
	}

	assert.False(t, occ.DateFree(0)) // booked
	assert.False(t, occ.DateFree(1)) // booked
	assert.True(t, occ.DateFree(2))  // cancelled booking does not occupy
	assert.False(t, occ.DateFree(3)) // blocked
	assert.False(t, occ.DateFree(4)) // out of window
}
