// Package timeutil converts between calendar days, minute-of-day offsets and
// absolute instants.
//
// A stored task date is the UTC midnight of the chosen calendar day. Wall-clock
// reconstruction (reminder fire instants, "today") happens in a caller-supplied
// location.
package timeutil

import (
	"fmt"
	"time"
)

// MinutesPerDay bounds a minute-of-day offset: valid values are 0..MinutesPerDay-1.
const MinutesPerDay = 24 * 60

// Clock reports the current instant. Services take a Clock so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Date is a calendar day without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d is an earlier day than other.
func (d Date) Before(other Date) bool {
	return CalendarDateToInstant(d).Before(CalendarDateToInstant(other))
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return StoredDate(t), nil
}

// DateTimeToInstant returns the wall-clock instant minutesSinceMidnight after the
// start of the calendar day stored in date, interpreted in loc. Any time-of-day
// carried by date is ignored.
func DateTimeToInstant(date time.Time, minutesSinceMidnight int, loc *time.Location) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, minutesSinceMidnight, 0, 0, loc)
}

// InstantToCalendarDate returns the calendar day instant falls on in loc.
func InstantToCalendarDate(instant time.Time, loc *time.Location) Date {
	y, m, d := instant.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// CalendarDateToInstant returns the stored representation (UTC midnight) of d.
func CalendarDateToInstant(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// StoredDate reads the calendar day back out of a stored date instant.
func StoredDate(stored time.Time) Date {
	y, m, d := stored.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// StartOfDay returns the stored representation of the calendar day now falls on in loc.
// Stored dates strictly before it are overdue.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	return CalendarDateToInstant(InstantToCalendarDate(now, loc))
}

// FormatMinutes renders a minute-of-day offset as HH:MM.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseMinutes parses HH:MM into a minute-of-day offset.
func ParseMinutes(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}
