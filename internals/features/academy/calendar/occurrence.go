// file: internals/features/academy/calendar/occurrence.go
package calendar

import "time"

// Rule describes when an item sits on the calendar. A one-off item carries
// SessionDate; a recurring one carries Weekdays plus an optional window.
type Rule struct {
	SessionDate *time.Time
	Weekdays    []int
	StartDate   *time.Time
	EndDate     *time.Time
}

// NormalizeWeekday maps 7 to Sunday (0) and rejects anything outside 0..6.
func NormalizeWeekday(w int) (int, bool) {
	if w == 7 {
		w = 0
	}
	if w < 0 || w > 6 {
		return 0, false
	}
	return w, true
}

// OccursOn reports whether the item described by r falls on date, reading
// date in its own location.
func OccursOn(r Rule, date time.Time) bool {
	return OccursOnIn(r, date, nil)
}

// OccursOnIn reads the instant at as a calendar date in loc (nil keeps at's
// own location) before matching. The rule's dates are civil dates and are
// compared by Y/M/D as stored.
func OccursOnIn(r Rule, at time.Time, loc *time.Location) bool {
	day := DateOf(at)
	if loc != nil {
		day = DateIn(at, loc)
	}

	if r.SessionDate != nil {
		return DateOf(*r.SessionDate).Equal(day)
	}

	if !hasWeekday(r.Weekdays, int(day.Weekday())) {
		return false
	}
	if r.StartDate != nil && day.Before(DateOf(*r.StartDate)) {
		return false
	}
	if r.EndDate != nil && day.After(DateOf(*r.EndDate)) {
		return false
	}
	return true
}

func hasWeekday(set []int, wd int) bool {
	for _, w := range set {
		if n, ok := NormalizeWeekday(w); ok && n == wd {
			return true
		}
	}
	return false
}
