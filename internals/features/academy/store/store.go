// file: internals/features/academy/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrInvalidScope = errors.New("store: tenant and branch are required")
)

// BulkChunkSize caps one atomic bulk-write unit.
const BulkChunkSize = 450

/* =========================
   Keys
========================= */

type Scope struct {
	TenantID uuid.UUID
	BranchID uuid.UUID
}

func (s Scope) Valid() bool { return s.TenantID != uuid.Nil && s.BranchID != uuid.Nil }

func (s Scope) String() string { return fmt.Sprintf("%s/%s", s.TenantID, s.BranchID) }

type SessionKey struct {
	Scope
	SessionID uuid.UUID
}

func (k SessionKey) Valid() bool { return k.Scope.Valid() && k.SessionID != uuid.Nil }

type ClassKey struct {
	Scope
	ClassID uuid.UUID
}

func (k ClassKey) Valid() bool { return k.Scope.Valid() && k.ClassID != uuid.Nil }

type AttendanceKey struct {
	SessionKey
	ClientID uuid.UUID
}

/* =========================
   Write payloads & filters
========================= */

type Increment struct {
	SessionID uuid.UUID
	Delta     int
}

type Snapshot struct {
	Roster       []attendanceModel.RosterEntry
	PresentCount int
	AbsentCount  int
	At           time.Time
}

type EnrollmentFilter struct {
	ClassID   *uuid.UUID
	SessionID *uuid.UUID
	ClientID  *uuid.UUID
	Types     []enrollmentModel.EnrollmentType
	Statuses  []enrollmentModel.EnrollmentStatus
}

// AttendanceFilter bounds are inclusive session dates. Limit 0 = all.
type AttendanceFilter struct {
	ClientID  *uuid.UUID
	SessionID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Offset    int
	Limit     int
}

/* =========================
   Interfaces
========================= */

// Tx is a serializable unit of work. Implementations backed by a document
// store require every read to happen before the first write.
type Tx interface {
	GetSession(key SessionKey) (*scheduleModel.ClassSessionModel, error)
	SetEnrolledCount(key SessionKey, count int, at time.Time) error
	PutAttendanceRecord(rec *attendanceModel.AttendanceRecordModel) error
	PutAttendanceSnapshot(key SessionKey, snap Snapshot) error
	SetExtras(key SessionKey, clientIDs []uuid.UUID, at time.Time) error
}

type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error

	GetSession(ctx context.Context, key SessionKey) (*scheduleModel.ClassSessionModel, error)
	ListSessions(ctx context.Context, scope Scope, from, to time.Time) ([]scheduleModel.ClassSessionModel, error)
	FindClassSessions(ctx context.Context, key ClassKey, from, to time.Time) ([]scheduleModel.ClassSessionModel, error)
	// ApplyEnrolledIncrements is atomic per call, merges only the counter
	// and the updated-at marker, and never lets a counter drop below 0.
	// Unknown session ids are skipped.
	ApplyEnrolledIncrements(ctx context.Context, scope Scope, incs []Increment, at time.Time) error
	// InsertSessions skips any session whose (class, date) already exists.
	InsertSessions(ctx context.Context, sessions []scheduleModel.ClassSessionModel) (int, error)

	GetClass(ctx context.Context, key ClassKey) (*scheduleModel.ClassModel, error)
	ListClasses(ctx context.Context, scope Scope, activeOnly bool) ([]scheduleModel.ClassModel, error)

	ListEnrollments(ctx context.Context, scope Scope, f EnrollmentFilter) ([]enrollmentModel.EnrollmentModel, error)
	ListAttendanceRecords(ctx context.Context, scope Scope, f AttendanceFilter) ([]attendanceModel.AttendanceRecordModel, int64, error)

	ListScopes(ctx context.Context) ([]Scope, error)
}

// Directory is the read-only client/activity lookup.
type Directory interface {
	LookupClients(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]directoryModel.ClientModel, error)
	SearchClients(ctx context.Context, scope Scope, query string, limit int) ([]directoryModel.ClientModel, error)
	ActivityNames(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

/* =========================
   Shared helpers
========================= */

// Chunk splits incs into runs of at most size.
func Chunk(incs []Increment, size int) [][]Increment {
	if size <= 0 {
		size = BulkChunkSize
	}
	var out [][]Increment
	for start := 0; start < len(incs); start += size {
		end := start + size
		if end > len(incs) {
			end = len(incs)
		}
		out = append(out, incs[start:end])
	}
	return out
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func containsType(set []enrollmentModel.EnrollmentType, v enrollmentModel.EnrollmentType) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsStatus(set []enrollmentModel.EnrollmentStatus, v enrollmentModel.EnrollmentStatus) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func uuidEq(p *uuid.UUID, v uuid.UUID) bool { return p == nil || *p == v }

func uuidPtrEq(p *uuid.UUID, v *uuid.UUID) bool {
	if p == nil {
		return true
	}
	return v != nil && *v == *p
}
