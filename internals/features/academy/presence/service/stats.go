// file: internals/features/academy/presence/service/stats.go
package service

import (
	"strconv"
	"strings"
	"time"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
)

/* =========================
   Status vocabulary
   legacy rows store numeric codes: "0" present, anything else not
========================= */

func IsPresentStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	switch attendanceModel.AttendanceStatus(s) {
	case attendanceModel.StatusPresent, attendanceModel.StatusLate:
		return true
	case attendanceModel.StatusAbsent, attendanceModel.StatusJustified:
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n == 0
	}
	return false
}

// IsEffectiveStatus reports whether a record counts at all.
func IsEffectiveStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "present", "absent", "late", "justified", "0", "1":
		return true
	}
	return false
}

func isJustified(r *attendanceModel.AttendanceRecordModel) bool {
	if strings.EqualFold(strings.TrimSpace(r.AttendanceRecordStatus), string(attendanceModel.StatusJustified)) {
		return true
	}
	return !IsPresentStatus(r.AttendanceRecordStatus) &&
		r.AttendanceRecordJustification != nil && strings.TrimSpace(*r.AttendanceRecordJustification) != ""
}

/* =========================
   Month stats
========================= */

type MonthStats struct {
	Month     string  `json:"month"` // YYYY-MM
	Expected  int     `json:"expected"`
	Attended  int     `json:"attended"`
	Frequency float64 `json:"frequency"`
}

// ComputeMonthStats counts the effective records dated inside monthDate's month.
// Expected is observed (effective records), not the recurrence estimate.
func ComputeMonthStats(records []attendanceModel.AttendanceRecordModel, monthDate time.Time) MonthStats {
	start, end := calendar.StartOfMonth(monthDate), calendar.EndOfMonth(monthDate)
	out := MonthStats{Month: start.Format("2006-01")}
	for i := range records {
		r := &records[i]
		d := calendar.DateOf(r.AttendanceRecordSessionDate)
		if d.Before(start) || d.After(end) || !IsEffectiveStatus(r.AttendanceRecordStatus) {
			continue
		}
		out.Expected++
		if IsPresentStatus(r.AttendanceRecordStatus) {
			out.Attended++
		}
	}
	if out.Expected > 0 {
		out.Frequency = float64(out.Attended) / float64(out.Expected) * 100
	}
	return out
}

type Comparison struct {
	Attended        int     `json:"attended"`
	Frequency       float64 `json:"frequency"`
	AttendedPercent float64 `json:"attended_percent"`
}

type PresenceStats struct {
	Current    MonthStats `json:"current"`
	Previous   MonthStats `json:"previous"`
	Comparison Comparison `json:"comparison"`
}

// ComputePresenceStats compares the reference month with the one before.
// AttendedPercent is 0 when the previous month had no attendances.
func ComputePresenceStats(records []attendanceModel.AttendanceRecordModel, ref time.Time) PresenceStats {
	cur := ComputeMonthStats(records, ref)
	prev := ComputeMonthStats(records, calendar.PreviousMonth(ref))
	cmp := Comparison{
		Attended:  cur.Attended - prev.Attended,
		Frequency: cur.Frequency - prev.Frequency,
	}
	if prev.Attended != 0 {
		cmp.AttendedPercent = float64(cur.Attended-prev.Attended) / float64(prev.Attended) * 100
	}
	return PresenceStats{Current: cur, Previous: prev, Comparison: cmp}
}

/* =========================
   Card stats
========================= */

type CardStats struct {
	MonthStats
	// ExpectedAttendances is the recurrence-based estimate for the month.
	ExpectedAttendances int `json:"expected_attendances"`
	Absences            int `json:"absences"`
	Justified           int `json:"justified"`
}

func ComputeCardStats(records []attendanceModel.AttendanceRecordModel, windows []calendar.RecurringWindow, ref time.Time) CardStats {
	out := CardStats{
		MonthStats:          ComputeMonthStats(records, ref),
		ExpectedAttendances: calendar.ExpectedAttendances(windows, ref),
	}
	start, end := calendar.StartOfMonth(ref), calendar.EndOfMonth(ref)
	for i := range records {
		r := &records[i]
		d := calendar.DateOf(r.AttendanceRecordSessionDate)
		if d.Before(start) || d.After(end) || !IsEffectiveStatus(r.AttendanceRecordStatus) {
			continue
		}
		if IsPresentStatus(r.AttendanceRecordStatus) {
			continue
		}
		out.Absences++
		if isJustified(r) {
			out.Justified++
		}
	}
	return out
}
