// file: internals/features/academy/calendar/counting.go
package calendar

import "time"

// CountWeekdayOccurrences counts the dates in [start,end] whose weekday is w.
// Empty or inverted ranges and invalid weekdays count zero.
func CountWeekdayOccurrences(start, end time.Time, w int) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	wd, ok := NormalizeWeekday(w)
	if !ok {
		return 0
	}
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return 0
	}

	shift := (wd - int(s.Weekday()) + 7) % 7
	first := s.AddDate(0, 0, shift)
	if first.After(e) {
		return 0
	}
	return 1 + DaysBetween(first, e)/7
}

// RecurringWindow is the slice of an enrollment the expected-attendance
// count needs. Weekday may be any int; unrecognized values are skipped.
type RecurringWindow struct {
	Recurring bool
	Active    bool
	Weekday   int
	StartDate *time.Time
	EndDate   *time.Time
}

// ExpectedAttendances sums, over active recurring windows, how many times
// the window's weekday falls inside referenceMonth clipped to the window.
func ExpectedAttendances(windows []RecurringWindow, referenceMonth time.Time) int {
	monthStart := StartOfMonth(referenceMonth)
	monthEnd := EndOfMonth(referenceMonth)

	total := 0
	for _, w := range windows {
		if !w.Recurring || !w.Active {
			continue
		}
		if _, ok := NormalizeWeekday(w.Weekday); !ok {
			continue
		}
		from, to, ok := Clip(monthStart, monthEnd, w.StartDate, w.EndDate)
		if !ok {
			continue
		}
		total += CountWeekdayOccurrences(from, to, w.Weekday)
	}
	return total
}
