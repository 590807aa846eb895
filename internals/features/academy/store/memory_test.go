package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func newScope() Scope { return Scope{TenantID: uuid.New(), BranchID: uuid.New()} }

func seedSession(m *MemoryStore, scope Scope, classID *uuid.UUID, day time.Time, enrolled int) uuid.UUID {
	id := uuid.New()
	m.PutSession(scheduleModel.ClassSessionModel{
		ClassSessionID:            id,
		ClassSessionTenantID:      scope.TenantID,
		ClassSessionBranchID:      scope.BranchID,
		ClassSessionClassID:       classID,
		ClassSessionDate:          day,
		ClassSessionEnrolledCount: enrolled,
	})
	return id
}

func TestMemoryStore_ApplyEnrolledIncrementsClampsAtZero(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	scope := newScope()
	a := seedSession(m, scope, nil, date(2024, 6, 10), 0)
	b := seedSession(m, scope, nil, date(2024, 6, 17), 3)

	err := m.ApplyEnrolledIncrements(ctx, scope, []Increment{
		{SessionID: a, Delta: -1},
		{SessionID: b, Delta: 1},
		{SessionID: uuid.New(), Delta: 1},
	}, time.Now())
	require.NoError(t, err)

	sa, err := m.GetSession(ctx, SessionKey{Scope: scope, SessionID: a})
	require.NoError(t, err)
	assert.Equal(t, 0, sa.ClassSessionEnrolledCount)

	sb, err := m.GetSession(ctx, SessionKey{Scope: scope, SessionID: b})
	require.NoError(t, err)
	assert.Equal(t, 4, sb.ClassSessionEnrolledCount)
}

func TestMemoryStore_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	scope := newScope()
	id := seedSession(m, scope, nil, date(2024, 6, 10), 1)

	_, err := m.GetSession(ctx, SessionKey{Scope: newScope(), SessionID: id})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TransactRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	scope := newScope()
	id := seedSession(m, scope, nil, date(2024, 6, 10), 2)
	key := SessionKey{Scope: scope, SessionID: id}

	boom := errors.New("boom")
	err := m.Transact(ctx, func(tx Tx) error {
		require.NoError(t, tx.SetEnrolledCount(key, 9, time.Now()))
		s, err := tx.GetSession(key)
		require.NoError(t, err)
		assert.Equal(t, 9, s.ClassSessionEnrolledCount, "tx sees its own write")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := m.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ClassSessionEnrolledCount)
}

func TestMemoryStore_SnapshotAndRecordsCommitTogether(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	scope := newScope()
	id := seedSession(m, scope, nil, date(2024, 6, 10), 0)
	key := SessionKey{Scope: scope, SessionID: id}
	client := uuid.New()

	err := m.Transact(ctx, func(tx Tx) error {
		if err := tx.PutAttendanceRecord(&attendanceModel.AttendanceRecordModel{
			AttendanceRecordTenantID:    scope.TenantID,
			AttendanceRecordBranchID:    scope.BranchID,
			AttendanceRecordSessionID:   id,
			AttendanceRecordClientID:    client,
			AttendanceRecordSessionDate: date(2024, 6, 10),
			AttendanceRecordStatus:      string(attendanceModel.StatusPresent),
		}); err != nil {
			return err
		}
		return tx.PutAttendanceSnapshot(key, Snapshot{
			Roster:       []attendanceModel.RosterEntry{{ClientID: client, Status: attendanceModel.StatusPresent}},
			PresentCount: 1,
			At:           time.Now(),
		})
	})
	require.NoError(t, err)

	s, err := m.GetSession(ctx, key)
	require.NoError(t, err)
	assert.True(t, s.ClassSessionAttendanceRecorded)
	roster, err := s.Roster()
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, client, roster[0].ClientID)

	recs, total, err := m.ListAttendanceRecords(ctx, scope, AttendanceFilter{SessionID: &id})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, recs, 1)
}

func TestMemoryStore_InsertSessionsSkipsTakenSlots(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	scope := newScope()
	classID := uuid.New()
	seedSession(m, scope, &classID, date(2024, 6, 10), 0)

	mk := func(day time.Time) scheduleModel.ClassSessionModel {
		cid := classID
		return scheduleModel.ClassSessionModel{
			ClassSessionTenantID: scope.TenantID,
			ClassSessionBranchID: scope.BranchID,
			ClassSessionClassID:  &cid,
			ClassSessionDate:     day,
		}
	}
	n, err := m.InsertSessions(ctx, []scheduleModel.ClassSessionModel{
		mk(date(2024, 6, 10)),
		mk(date(2024, 6, 17)),
		mk(date(2024, 6, 17)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := m.FindClassSessions(ctx, ClassKey{Scope: scope, ClassID: classID}, date(2024, 6, 1), date(2024, 6, 30))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMemoryStore_ListEnrollmentsFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	scope := newScope()
	classID := uuid.New()

	for i, st := range []enrollmentModel.EnrollmentStatus{
		enrollmentModel.EnrollmentActive, enrollmentModel.EnrollmentCanceled, enrollmentModel.EnrollmentActive,
	} {
		cid := classID
		m.PutEnrollment(enrollmentModel.EnrollmentModel{
			EnrollmentID:        uuid.New(),
			EnrollmentTenantID:  scope.TenantID,
			EnrollmentBranchID:  scope.BranchID,
			EnrollmentClientID:  uuid.New(),
			EnrollmentType:      enrollmentModel.EnrollmentRecurring,
			EnrollmentStatus:    st,
			EnrollmentClassID:   &cid,
			EnrollmentCreatedAt: date(2024, 1, 1+i),
		})
	}

	rows, err := m.ListEnrollments(ctx, scope, EnrollmentFilter{
		ClassID:  &classID,
		Statuses: []enrollmentModel.EnrollmentStatus{enrollmentModel.EnrollmentActive},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.True(t, rows[0].EnrollmentCreatedAt.Before(rows[1].EnrollmentCreatedAt))
}

func TestMemoryStore_SearchClientsIgnoresAccents(t *testing.T) {
	m := NewMemoryStore()
	scope := newScope()
	for _, name := range []string{"José Silva", "Joana", "Marta"} {
		m.PutClient(directoryModel.ClientModel{
			ClientID:       uuid.New(),
			ClientTenantID: scope.TenantID,
			ClientBranchID: scope.BranchID,
			ClientName:     name,
			ClientIsActive: true,
		})
	}
	m.PutClient(directoryModel.ClientModel{ClientID: uuid.New(), ClientTenantID: scope.TenantID, ClientBranchID: scope.BranchID, ClientName: "Josef", ClientIsActive: false})

	got, err := m.SearchClients(context.Background(), scope, "jose", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "José Silva", got[0].ClientName)

	got, err = m.SearchClients(context.Background(), scope, "JO", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Joana", got[0].ClientName)
}

func TestChunk(t *testing.T) {
	incs := make([]Increment, 1000)
	chunks := Chunk(incs, BulkChunkSize)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 450)
	assert.Len(t, chunks[1], 450)
	assert.Len(t, chunks[2], 100)
	assert.Empty(t, Chunk(nil, 450))
}
