package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRangeValid(t *testing.T) {
	assert.True(t, DateRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 2)}.Valid())
	assert.False(t, DateRange{CheckIn: date(2024, 6, 2), CheckOut: date(2024, 6, 2)}.Valid())
	assert.False(t, DateRange{CheckIn: date(2024, 6, 3), CheckOut: date(2024, 6, 2)}.Valid())
}

func TestDateRangeOverlaps(t *testing.T) {
	a := DateRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 10)}

	tests := []struct {
		name    string
		other   DateRange
		overlap bool
	}{
		{"identical", a, true},
		{"contained", DateRange{date(2024, 6, 3), date(2024, 6, 5)}, true},
		{"partial left", DateRange{date(2024, 5, 28), date(2024, 6, 2)}, true},
		{"partial right", DateRange{date(2024, 6, 9), date(2024, 6, 12)}, true},
		{"surrounding", DateRange{date(2024, 5, 1), date(2024, 7, 1)}, true},
		{"before", DateRange{date(2024, 5, 1), date(2024, 5, 20)}, false},
		{"after", DateRange{date(2024, 6, 20), date(2024, 6, 25)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlap, a.Overlaps(tt.other))
			assert.Equal(t, tt.overlap, tt.other.Overlaps(a))
		})
	}
}

func TestAdjacentRangesDoNotOverlap(t *testing.T) {
	// Back-to-back turnover: checkout day == check-in day.
	a := DateRange{CheckIn: date(2024, 6, 5), CheckOut: date(2024, 6, 10)}
	b := DateRange{CheckIn: date(2024, 6, 10), CheckOut: date(2024, 6, 12)}

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestDateRangeNightsAndDates(t *testing.T) {
	r := DateRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4)}
	assert.Equal(t, 3, r.Nights())

	dates := r.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, date(2024, 6, 1), dates[0])
	assert.Equal(t, date(2024, 6, 3), dates[2])

	// Checkout date is not occupied.
	assert.True(t, r.ContainsDate(date(2024, 6, 3)))
	assert.False(t, r.ContainsDate(date(2024, 6, 4)))
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-07-01", "2024-07-05")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 7, 1), r.CheckIn)
	assert.Equal(t, 4, r.Nights())

	_, err = ParseDateRange("bad", "2024-07-05")
	assert.Error(t, err)
}

func TestDay(t *testing.T) {
	ts := time.Date(2024, 6, 5, 17, 42, 11, 0, time.FixedZone("JST", 9*3600))
	assert.Equal(t, date(2024, 6, 5), Day(ts))
}
