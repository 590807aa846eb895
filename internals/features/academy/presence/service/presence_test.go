package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/features/academy/store"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func rec(d time.Time, status string) attendanceModel.AttendanceRecordModel {
	return attendanceModel.AttendanceRecordModel{
		AttendanceRecordID:          uuid.New(),
		AttendanceRecordSessionDate: d,
		AttendanceRecordStatus:      status,
	}
}

func TestIsPresentStatus(t *testing.T) {
	cases := map[string]bool{
		"present":   true,
		"late":      true,
		"PRESENT":   true,
		"0":         true,
		"absent":    false,
		"justified": false,
		"1":         false,
		"2":         false,
		"":          false,
		"maybe":     false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsPresentStatus(in), "status %q", in)
	}
}

func TestMonthStats_EmptyHasNoDivisionByZero(t *testing.T) {
	st := ComputeMonthStats(nil, day(2024, 3, 15))
	assert.Equal(t, 0, st.Expected)
	assert.Equal(t, 0, st.Attended)
	assert.Equal(t, 0.0, st.Frequency)
	assert.Equal(t, "2024-03", st.Month)
}

func TestMonthStats_FiltersMonthAndStatus(t *testing.T) {
	records := []attendanceModel.AttendanceRecordModel{
		rec(day(2024, 3, 1), "present"),
		rec(day(2024, 3, 5), "0"),
		rec(day(2024, 3, 12), "absent"),
		rec(day(2024, 3, 19), "late"),
		rec(day(2024, 3, 31), "1"),
		rec(day(2024, 3, 20), ""),          // unscheduled
		rec(day(2024, 3, 21), "scheduled"), // no status yet
		rec(day(2024, 4, 1), "present"),    // next month
		rec(day(2024, 2, 29), "present"),   // previous month
	}
	st := ComputeMonthStats(records, day(2024, 3, 10))
	assert.Equal(t, 5, st.Expected)
	assert.Equal(t, 3, st.Attended)
	assert.InDelta(t, 60.0, st.Frequency, 1e-9)
}

func TestPresenceStats_Comparison(t *testing.T) {
	records := []attendanceModel.AttendanceRecordModel{
		rec(day(2024, 2, 5), "present"),
		rec(day(2024, 2, 12), "present"),
		rec(day(2024, 2, 19), "absent"),
		rec(day(2024, 2, 26), "absent"),
		rec(day(2024, 3, 4), "present"),
		rec(day(2024, 3, 11), "present"),
		rec(day(2024, 3, 18), "present"),
	}
	ps := ComputePresenceStats(records, day(2024, 3, 20))
	assert.Equal(t, 2, ps.Previous.Attended)
	assert.InDelta(t, 50.0, ps.Previous.Frequency, 1e-9)
	assert.Equal(t, 3, ps.Current.Attended)
	assert.InDelta(t, 100.0, ps.Current.Frequency, 1e-9)

	assert.Equal(t, 1, ps.Comparison.Attended)
	assert.InDelta(t, 50.0, ps.Comparison.Frequency, 1e-9)
	assert.InDelta(t, 50.0, ps.Comparison.AttendedPercent, 1e-9)
}

func TestPresenceStats_NoPreviousAttendance(t *testing.T) {
	ps := ComputePresenceStats([]attendanceModel.AttendanceRecordModel{rec(day(2024, 1, 9), "present")}, day(2024, 1, 9))
	assert.Equal(t, 1, ps.Comparison.Attended)
	assert.Equal(t, 0.0, ps.Comparison.AttendedPercent)
}

func TestCardStats_JanuaryTuesdays(t *testing.T) {
	start, end := day(2024, 1, 1), day(2024, 1, 31)
	windows := []calendar.RecurringWindow{
		{Recurring: true, Active: true, Weekday: 2, StartDate: &start, EndDate: &end},
		{Recurring: true, Active: false, Weekday: 4},
	}
	sick := "flu"
	absent := rec(day(2024, 1, 9), "absent")
	absent.AttendanceRecordJustification = &sick
	records := []attendanceModel.AttendanceRecordModel{
		rec(day(2024, 1, 2), "present"),
		absent,
		rec(day(2024, 1, 16), "justified"),
		rec(day(2024, 1, 23), "1"),
	}
	card := ComputeCardStats(records, windows, day(2024, 1, 15))
	assert.Equal(t, 5, card.ExpectedAttendances)
	assert.Equal(t, 4, card.Expected)
	assert.Equal(t, 1, card.Attended)
	assert.Equal(t, 3, card.Absences)
	assert.Equal(t, 2, card.Justified)
}

func seedCalculator(t *testing.T) (*Calculator, *store.MemoryStore, store.Scope, uuid.UUID) {
	t.Helper()
	mem := store.NewMemoryStore()
	scope := store.Scope{TenantID: uuid.New(), BranchID: uuid.New()}
	clientID := uuid.New()
	tag := "A-1"
	mem.PutClient(directoryModel.ClientModel{
		ClientID: clientID, ClientTenantID: scope.TenantID, ClientBranchID: scope.BranchID,
		ClientName: "Ana", ClientTag: &tag, ClientIsActive: true,
	})
	for _, r := range []attendanceModel.AttendanceRecordModel{
		rec(day(2024, 5, 7), "present"),
		rec(day(2024, 6, 4), "present"),
		rec(day(2024, 6, 11), "absent"),
	} {
		r.AttendanceRecordTenantID = scope.TenantID
		r.AttendanceRecordBranchID = scope.BranchID
		r.AttendanceRecordClientID = clientID
		r.AttendanceRecordSessionID = uuid.New()
		mem.PutAttendanceRecord(r)
	}
	wd := 2
	start := day(2024, 1, 1)
	classID := uuid.New()
	mem.PutEnrollment(enrollmentModel.EnrollmentModel{
		EnrollmentID: uuid.New(), EnrollmentTenantID: scope.TenantID, EnrollmentBranchID: scope.BranchID,
		EnrollmentClientID: clientID, EnrollmentType: enrollmentModel.EnrollmentRecurring,
		EnrollmentStatus: enrollmentModel.EnrollmentActive, EnrollmentClassID: &classID,
		EnrollmentWeekday: &wd, EnrollmentStartDate: &start,
	})
	return NewCalculator(mem, mem, zap.NewNop()), mem, scope, clientID
}

func TestClientPresence(t *testing.T) {
	calc, _, scope, clientID := seedCalculator(t)
	rep, err := calc.ClientPresence(context.Background(), scope, clientID, day(2024, 6, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Presence.Current.Attended)
	assert.Equal(t, 2, rep.Presence.Current.Expected)
	assert.Equal(t, 1, rep.Presence.Previous.Attended)
	// Tuesdays of June 2024: 4, 11, 18, 25
	assert.Equal(t, 4, rep.Card.ExpectedAttendances)
	assert.Equal(t, 1, rep.Card.Absences)
}

func TestClientPresence_WeekdayFromClassTemplate(t *testing.T) {
	mem := store.NewMemoryStore()
	scope := store.Scope{TenantID: uuid.New(), BranchID: uuid.New()}
	clientID := uuid.New()
	classStart, classEnd := day(2024, 1, 1), day(2024, 1, 31)
	classID := uuid.New()
	mem.PutClass(scheduleModel.ClassModel{
		ClassID: classID, ClassTenantID: scope.TenantID, ClassBranchID: scope.BranchID,
		ClassWeekday: 2, ClassStartDate: &classStart, ClassEndDate: &classEnd, ClassIsActive: true,
	})
	enrolledFrom := day(2023, 9, 1)
	mem.PutEnrollment(enrollmentModel.EnrollmentModel{
		EnrollmentID: uuid.New(), EnrollmentTenantID: scope.TenantID, EnrollmentBranchID: scope.BranchID,
		EnrollmentClientID: clientID, EnrollmentType: enrollmentModel.EnrollmentRecurring,
		EnrollmentStatus: enrollmentModel.EnrollmentActive, EnrollmentClassID: &classID,
		EnrollmentStartDate: &enrolledFrom,
	})
	calc := NewCalculator(mem, mem, zap.NewNop())

	rep, err := calc.ClientPresence(context.Background(), scope, clientID, day(2024, 1, 15))
	require.NoError(t, err)
	// Tuesdays of January 2024: 2, 9, 16, 23, 30
	assert.Equal(t, 5, rep.Card.ExpectedAttendances)

	// the class window ends in January
	rep, err = calc.ClientPresence(context.Background(), scope, clientID, day(2024, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Card.ExpectedAttendances)
}

func TestExportMonthXLSX(t *testing.T) {
	calc, _, scope, _ := seedCalculator(t)
	buf, name, err := calc.ExportMonthXLSX(context.Background(), scope, day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-06.xlsx", name)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two June records
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2024-06-04", rows[1][0])
	assert.Equal(t, "Ana", rows[1][1])
	assert.Equal(t, "absent", rows[2][3])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, []string{"Ana", "2", "1", "50.0"}, summary[1])
}
