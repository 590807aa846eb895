// file: internals/features/academy/calendar/dates.go
package calendar

import "time"

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

/* =========================
   Civil date helpers
   A civil date is carried as midnight UTC so day arithmetic never sees DST.
========================= */

// DateOf drops the time-of-day of t, reading Y/M/D in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn reads the calendar date of t as seen from loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(t.In(loc))
}

// Today is the current calendar date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return DateIn(now, loc)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// SameDay compares two instants by calendar date only.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// DaysBetween counts whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth is the last calendar day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// PreviousMonth returns the first day of the month before t.
func PreviousMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, -1, 0)
}

// WeekStart is the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	d := DateOf(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// Clip intersects [start,end] with the optional bounds lo/hi.
// ok is false when the intersection is empty.
func Clip(start, end time.Time, lo, hi *time.Time) (time.Time, time.Time, bool) {
	s, e := DateOf(start), DateOf(end)
	if lo != nil && DateOf(*lo).After(s) {
		s = DateOf(*lo)
	}
	if hi != nil && DateOf(*hi).Before(e) {
		e = DateOf(*hi)
	}
	if e.Before(s) {
		return s, e, false
	}
	return s, e, true
}
