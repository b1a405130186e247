package models

import (
	"fmt"
	"time"
)

// DateLayout is the canonical storage format for calendar dates.
const DateLayout = "2006-01-02"

// DateRange is a half-open interval [CheckIn, CheckOut) of calendar dates.
// Adjacent ranges (one guest checks out the day another checks in) do not
// overlap; this is the standard hotel turnover convention.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Day normalizes a timestamp to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDateRange builds a normalized range. Callers still need Valid() or the
// service-level validation for the CheckIn < CheckOut invariant.
func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// ParseDateRange parses two YYYY-MM-DD strings.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.ParseInLocation(DateLayout, checkIn, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse check_in %q: %w", checkIn, err)
	}
	out, err := time.ParseInLocation(DateLayout, checkOut, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse check_out %q: %w", checkOut, err)
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

// Valid reports whether the range holds at least one night.
func (r DateRange) Valid() bool {
	return r.CheckIn.Before(r.CheckOut)
}

// Overlaps reports intersection under the half-open convention:
// a.CheckIn < b.CheckOut AND b.CheckIn < a.CheckOut.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// ContainsDate reports whether a single calendar date falls inside the range.
func (r DateRange) ContainsDate(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Dates lists every calendar date in [CheckIn, CheckOut).
func (r DateRange) Dates() []time.Time {
	if !r.Valid() {
		return nil
	}
	dates := make([]time.Time, 0, r.Nights())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout))
}
