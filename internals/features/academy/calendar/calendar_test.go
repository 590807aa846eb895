package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func ptr(t time.Time) *time.Time { return &t }

func TestOccursOn_UnboundedWeekly(t *testing.T) {
	start := day(t, "2024-01-01")
	for w := 0; w < 7; w++ {
		r := Rule{Weekdays: []int{w}}
		for i := 0; i < 21; i++ {
			d := start.AddDate(0, 0, i)
			assert.Equal(t, int(d.Weekday()) == w, OccursOn(r, d), "weekday=%d date=%s", w, FormatDate(d))
		}
	}
}

func TestOccursOn_WindowIsInclusive(t *testing.T) {
	r := Rule{
		Weekdays:  []int{2},
		StartDate: ptr(day(t, "2024-01-02")),
		EndDate:   ptr(day(t, "2024-01-30")),
	}
	assert.True(t, OccursOn(r, day(t, "2024-01-02")))
	assert.True(t, OccursOn(r, day(t, "2024-01-30")))
	assert.False(t, OccursOn(r, day(t, "2023-12-26")))
	assert.False(t, OccursOn(r, day(t, "2024-02-06")))
}

func TestOccursOn_SundayAlias(t *testing.T) {
	r := Rule{Weekdays: []int{7}}
	assert.True(t, OccursOn(r, day(t, "2024-01-07")))
	assert.False(t, OccursOn(r, day(t, "2024-01-08")))
}

func TestOccursOn_InvalidWeekdayNeverMatches(t *testing.T) {
	r := Rule{Weekdays: []int{9, -1}}
	for i := 0; i < 7; i++ {
		assert.False(t, OccursOn(r, day(t, "2024-01-01").AddDate(0, 0, i)))
	}
}

func TestOccursOn_OneOffIgnoresTimeOfDayAndZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	session := time.Date(2024, 3, 15, 19, 30, 0, 0, loc)
	r := Rule{SessionDate: &session, Weekdays: []int{1}}

	assert.True(t, OccursOn(r, time.Date(2024, 3, 15, 8, 0, 0, 0, loc)))
	assert.True(t, OccursOn(r, day(t, "2024-03-15")))
	assert.False(t, OccursOn(r, day(t, "2024-03-16")))
	// weekday set is irrelevant for a one-off item
	assert.False(t, OccursOn(r, day(t, "2024-03-18")))
}

func TestOccursOnIn_ReadsInstantInBranchZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	stored := day(t, "2024-03-15")
	r := Rule{SessionDate: &stored}

	// 01:00 UTC on the 16th is still the evening of the 15th in BRT
	at := time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC)
	assert.False(t, OccursOn(r, at))
	assert.True(t, OccursOnIn(r, at, loc))
	assert.False(t, OccursOnIn(r, at, time.UTC))

	weekly := Rule{Weekdays: []int{5}, EndDate: &stored}
	assert.True(t, OccursOnIn(weekly, at, loc))
	assert.False(t, OccursOnIn(weekly, at, nil))
}

func TestCountWeekdayOccurrences_Boundaries(t *testing.T) {
	tuesday := day(t, "2024-01-02")

	assert.Equal(t, 1, CountWeekdayOccurrences(tuesday, tuesday, 2))
	assert.Equal(t, 0, CountWeekdayOccurrences(tuesday, tuesday, 3))
	assert.Equal(t, 2, CountWeekdayOccurrences(tuesday, day(t, "2024-01-09"), 2))
	assert.Equal(t, 1, CountWeekdayOccurrences(tuesday, day(t, "2024-01-08"), 2))
	assert.Equal(t, 1, CountWeekdayOccurrences(day(t, "2024-01-03"), day(t, "2024-01-09"), 2))
}

func TestCountWeekdayOccurrences_InvertedRange(t *testing.T) {
	for w := 0; w <= 7; w++ {
		assert.Equal(t, 0, CountWeekdayOccurrences(day(t, "2024-01-10"), day(t, "2024-01-09"), w))
	}
}

func TestCountWeekdayOccurrences_FourWeeks(t *testing.T) {
	starts := []string{"2024-01-01", "2024-02-26", "2023-12-31", "2024-03-30"}
	for _, s := range starts {
		start := day(t, s)
		end := start.AddDate(0, 0, 27)
		for w := 0; w < 7; w++ {
			assert.Equal(t, 4, CountWeekdayOccurrences(start, end, w), "start=%s weekday=%d", s, w)
		}
	}
}

func TestCountWeekdayOccurrences_MatchesBruteForce(t *testing.T) {
	start := day(t, "2024-02-20")
	for span := 0; span < 40; span++ {
		end := start.AddDate(0, 0, span)
		for w := 0; w < 7; w++ {
			want := 0
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				if int(d.Weekday()) == w {
					want++
				}
			}
			assert.Equal(t, want, CountWeekdayOccurrences(start, end, w))
		}
	}
}

func TestCountWeekdayOccurrences_InvalidInput(t *testing.T) {
	assert.Equal(t, 0, CountWeekdayOccurrences(day(t, "2024-01-01"), day(t, "2024-01-31"), 8))
	assert.Equal(t, 0, CountWeekdayOccurrences(day(t, "2024-01-01"), day(t, "2024-01-31"), -1))
	assert.Equal(t, 0, CountWeekdayOccurrences(time.Time{}, day(t, "2024-01-31"), 1))
	assert.Equal(t, 5, CountWeekdayOccurrences(day(t, "2024-03-01"), day(t, "2024-03-31"), 7))
}

func TestExpectedAttendances_TuesdayJanuary(t *testing.T) {
	windows := []RecurringWindow{{
		Recurring: true,
		Active:    true,
		Weekday:   2,
		StartDate: ptr(day(t, "2024-01-01")),
		EndDate:   ptr(day(t, "2024-01-31")),
	}}
	assert.Equal(t, 5, ExpectedAttendances(windows, day(t, "2024-01-15")))
}

func TestExpectedAttendances_ClipsAndSkips(t *testing.T) {
	windows := []RecurringWindow{
		// Mondays from Jan 15: 15, 22, 29
		{Recurring: true, Active: true, Weekday: 1, StartDate: ptr(day(t, "2024-01-15"))},
		// open window, Wednesdays: 3, 10, 17, 24, 31
		{Recurring: true, Active: true, Weekday: 3},
		{Recurring: true, Active: false, Weekday: 3},
		{Recurring: false, Active: true, Weekday: 3},
		{Recurring: true, Active: true, Weekday: 12},
		// window ended before the month
		{Recurring: true, Active: true, Weekday: 4, EndDate: ptr(day(t, "2023-12-31"))},
	}
	assert.Equal(t, 8, ExpectedAttendances(windows, day(t, "2024-01-01")))
}

func TestMonthHelpers(t *testing.T) {
	assert.Equal(t, "2024-02-29", FormatDate(EndOfMonth(day(t, "2024-02-10"))))
	assert.Equal(t, "2023-12-01", FormatDate(PreviousMonth(day(t, "2024-01-20"))))
	assert.Equal(t, "2024-01-07", FormatDate(WeekStart(day(t, "2024-01-13"))))
	assert.Equal(t, "2024-01-07", FormatDate(WeekStart(day(t, "2024-01-07"))))
}
