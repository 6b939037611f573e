package domain

import (
	"time"

	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

// DateLayout is the storage and wire format of reservation dates.
const DateLayout = "2006-01-02"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share at least one instant.
// A checkout on day N never conflicts with a checkin on day N.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DateRange is a half-open interval [CheckIn, CheckOut) of calendar days.
type DateRange struct {
	CheckIn  time.Time `json:"checkin"`
	CheckOut time.Time `json:"checkout"`
}

// NewDateRange normalises both ends to midnight UTC and rejects empty or inverted ranges.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: truncateDay(checkIn), CheckOut: truncateDay(checkOut)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange builds a range from two YYYY-MM-DD strings.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return DateRange{}, errors.Validation("invalid checkin date %q", checkIn)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return DateRange{}, errors.Validation("invalid checkout date %q", checkOut)
	}
	return NewDateRange(in, out)
}

// MustDateRange is ParseDateRange for literals in tests and fixtures.
func MustDateRange(checkIn, checkOut string) DateRange {
	r, err := ParseDateRange(checkIn, checkOut)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate checks that checkout is strictly after checkin.
func (r DateRange) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return errors.Validation("checkin and checkout are required")
	}
	if !r.CheckOut.After(r.CheckIn) {
		return errors.Validation("checkout %s must be after checkin %s",
			r.CheckOut.Format(DateLayout), r.CheckIn.Format(DateLayout))
	}
	return nil
}

// Overlaps reports whether two ranges conflict.
func (r DateRange) Overlaps(other DateRange) bool {
	return Overlaps(r.CheckIn, r.CheckOut, other.CheckIn, other.CheckOut)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

func (r DateRange) String() string {
	return "[" + r.CheckIn.Format(DateLayout) + ", " + r.CheckOut.Format(DateLayout) + ")"
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day returns t's calendar day in loc as midnight UTC.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return truncateDay(t.In(loc))
}
