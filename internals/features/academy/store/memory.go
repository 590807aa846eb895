// file: internals/features/academy/store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	helper "academy_backend/internals/helpers"
)

// MemoryStore keeps everything in process. One mutex serializes all
// access, so Transact is trivially serializable. Used by tests and by
// STORE_DRIVER=memory.
type MemoryStore struct {
	mu          sync.Mutex
	classes     map[uuid.UUID]scheduleModel.ClassModel
	sessions    map[uuid.UUID]scheduleModel.ClassSessionModel
	enrollments map[uuid.UUID]enrollmentModel.EnrollmentModel
	records     map[AttendanceKey]attendanceModel.AttendanceRecordModel
	clients     map[uuid.UUID]directoryModel.ClientModel
	activities  map[uuid.UUID]directoryModel.ActivityModel
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		classes:     map[uuid.UUID]scheduleModel.ClassModel{},
		sessions:    map[uuid.UUID]scheduleModel.ClassSessionModel{},
		enrollments: map[uuid.UUID]enrollmentModel.EnrollmentModel{},
		records:     map[AttendanceKey]attendanceModel.AttendanceRecordModel{},
		clients:     map[uuid.UUID]directoryModel.ClientModel{},
		activities:  map[uuid.UUID]directoryModel.ActivityModel{},
	}
}

/* =========================
   Seeding
========================= */

func (m *MemoryStore) PutClass(c scheduleModel.ClassModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ClassCreatedAt.IsZero() {
		c.ClassCreatedAt = time.Now()
	}
	m.classes[c.ClassID] = c
}

func (m *MemoryStore) PutSession(s scheduleModel.ClassSessionModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ClassSessionDate = calendar.DateOf(s.ClassSessionDate)
	m.sessions[s.ClassSessionID] = cloneSession(s)
}

func (m *MemoryStore) PutEnrollment(e enrollmentModel.EnrollmentModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[e.EnrollmentID] = e
}

func (m *MemoryStore) DeleteEnrollment(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enrollments, id)
}

func (m *MemoryStore) PutClient(c directoryModel.ClientModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ClientID] = c
}

func (m *MemoryStore) PutActivity(a directoryModel.ActivityModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.ActivityID] = a
}

func (m *MemoryStore) PutAttendanceRecord(rec attendanceModel.AttendanceRecordModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey(&rec)] = rec
}

/* =========================
   Transactions
========================= */

type memoryTx struct {
	m        *MemoryStore
	sessions map[uuid.UUID]scheduleModel.ClassSessionModel
	records  map[AttendanceKey]attendanceModel.AttendanceRecordModel
}

func (m *MemoryStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		m:        m,
		sessions: map[uuid.UUID]scheduleModel.ClassSessionModel{},
		records:  map[AttendanceKey]attendanceModel.AttendanceRecordModel{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, s := range tx.sessions {
		m.sessions[id] = s
	}
	for k, r := range tx.records {
		m.records[k] = r
	}
	return nil
}

func (tx *memoryTx) session(key SessionKey) (scheduleModel.ClassSessionModel, bool) {
	if s, ok := tx.sessions[key.SessionID]; ok {
		return s, true
	}
	s, ok := tx.m.sessions[key.SessionID]
	if !ok || !sessionInScope(&s, key.Scope) {
		return scheduleModel.ClassSessionModel{}, false
	}
	return cloneSession(s), true
}

func (tx *memoryTx) GetSession(key SessionKey) (*scheduleModel.ClassSessionModel, error) {
	s, ok := tx.session(key)
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (tx *memoryTx) SetEnrolledCount(key SessionKey, count int, at time.Time) error {
	s, ok := tx.session(key)
	if !ok {
		return ErrNotFound
	}
	s.ClassSessionEnrolledCount = clampCount(count)
	s.ClassSessionUpdatedAt = at
	tx.sessions[s.ClassSessionID] = s
	return nil
}

func (tx *memoryTx) PutAttendanceRecord(rec *attendanceModel.AttendanceRecordModel) error {
	r := *rec
	k := recordKey(&r)
	if prev, ok := tx.m.records[k]; ok {
		r.AttendanceRecordID = prev.AttendanceRecordID
	}
	if r.AttendanceRecordID == uuid.Nil {
		r.AttendanceRecordID = uuid.New()
	}
	tx.records[k] = r
	return nil
}

func (tx *memoryTx) PutAttendanceSnapshot(key SessionKey, snap Snapshot) error {
	s, ok := tx.session(key)
	if !ok {
		return ErrNotFound
	}
	raw, err := scheduleModel.EncodeRoster(snap.Roster)
	if err != nil {
		return err
	}
	s.ClassSessionAttendanceRecorded = true
	s.ClassSessionAttendanceSnapshot = raw
	s.ClassSessionPresentCount = snap.PresentCount
	s.ClassSessionAbsentCount = snap.AbsentCount
	s.ClassSessionUpdatedAt = snap.At
	tx.sessions[s.ClassSessionID] = s
	return nil
}

func (tx *memoryTx) SetExtras(key SessionKey, clientIDs []uuid.UUID, at time.Time) error {
	s, ok := tx.session(key)
	if !ok {
		return ErrNotFound
	}
	s.ClassSessionExtraClientIDs = scheduleModel.ExtraArray(clientIDs)
	s.ClassSessionUpdatedAt = at
	tx.sessions[s.ClassSessionID] = s
	return nil
}

/* =========================
   Sessions
========================= */

func (m *MemoryStore) GetSession(ctx context.Context, key SessionKey) (*scheduleModel.ClassSessionModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key.SessionID]
	if !ok || !sessionInScope(&s, key.Scope) {
		return nil, ErrNotFound
	}
	out := cloneSession(s)
	return &out, nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, scope Scope, from, to time.Time) ([]scheduleModel.ClassSessionModel, error) {
	return m.filterSessions(scope, from, to, nil), nil
}

func (m *MemoryStore) FindClassSessions(ctx context.Context, key ClassKey, from, to time.Time) ([]scheduleModel.ClassSessionModel, error) {
	classID := key.ClassID
	return m.filterSessions(key.Scope, from, to, &classID), nil
}

func (m *MemoryStore) filterSessions(scope Scope, from, to time.Time, classID *uuid.UUID) []scheduleModel.ClassSessionModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to = calendar.DateOf(from), calendar.DateOf(to)

	var out []scheduleModel.ClassSessionModel
	for _, s := range m.sessions {
		if !sessionInScope(&s, scope) {
			continue
		}
		if s.ClassSessionDate.Before(from) || s.ClassSessionDate.After(to) {
			continue
		}
		if classID != nil && !uuidPtrEq(classID, s.ClassSessionClassID) {
			continue
		}
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ClassSessionDate.Equal(out[j].ClassSessionDate) {
			return out[i].ClassSessionDate.Before(out[j].ClassSessionDate)
		}
		return out[i].ClassSessionID.String() < out[j].ClassSessionID.String()
	})
	return out
}

func (m *MemoryStore) ApplyEnrolledIncrements(ctx context.Context, scope Scope, incs []Increment, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range incs {
		s, ok := m.sessions[inc.SessionID]
		if !ok || !sessionInScope(&s, scope) {
			continue
		}
		s.ClassSessionEnrolledCount = clampCount(s.ClassSessionEnrolledCount + inc.Delta)
		s.ClassSessionUpdatedAt = at
		m.sessions[s.ClassSessionID] = s
	}
	return nil
}

func (m *MemoryStore) InsertSessions(ctx context.Context, sessions []scheduleModel.ClassSessionModel) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type slot struct {
		classID uuid.UUID
		date    time.Time
	}
	taken := map[slot]bool{}
	for _, s := range m.sessions {
		if s.ClassSessionClassID != nil {
			taken[slot{*s.ClassSessionClassID, s.ClassSessionDate}] = true
		}
	}

	inserted := 0
	for _, s := range sessions {
		s.ClassSessionDate = calendar.DateOf(s.ClassSessionDate)
		if s.ClassSessionClassID != nil {
			k := slot{*s.ClassSessionClassID, s.ClassSessionDate}
			if taken[k] {
				continue
			}
			taken[k] = true
		}
		if s.ClassSessionID == uuid.Nil {
			s.ClassSessionID = uuid.New()
		}
		if _, exists := m.sessions[s.ClassSessionID]; exists {
			continue
		}
		m.sessions[s.ClassSessionID] = cloneSession(s)
		inserted++
	}
	return inserted, nil
}

/* =========================
   Classes / enrollments / records
========================= */

func (m *MemoryStore) GetClass(ctx context.Context, key ClassKey) (*scheduleModel.ClassModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classes[key.ClassID]
	if !ok || c.ClassTenantID != key.TenantID || c.ClassBranchID != key.BranchID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) ListClasses(ctx context.Context, scope Scope, activeOnly bool) ([]scheduleModel.ClassModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scheduleModel.ClassModel
	for _, c := range m.classes {
		if c.ClassTenantID != scope.TenantID || c.ClassBranchID != scope.BranchID {
			continue
		}
		if activeOnly && !c.ClassIsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassID.String() < out[j].ClassID.String() })
	return out, nil
}

func (m *MemoryStore) ListEnrollments(ctx context.Context, scope Scope, f EnrollmentFilter) ([]enrollmentModel.EnrollmentModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []enrollmentModel.EnrollmentModel
	for _, e := range m.enrollments {
		if e.EnrollmentTenantID != scope.TenantID || e.EnrollmentBranchID != scope.BranchID {
			continue
		}
		if !uuidPtrEq(f.ClassID, e.EnrollmentClassID) || !uuidPtrEq(f.SessionID, e.EnrollmentSessionID) {
			continue
		}
		if !uuidEq(f.ClientID, e.EnrollmentClientID) {
			continue
		}
		if !containsType(f.Types, e.EnrollmentType) || !containsStatus(f.Statuses, e.EnrollmentStatus) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrollmentCreatedAt.Equal(out[j].EnrollmentCreatedAt) {
			return out[i].EnrollmentCreatedAt.Before(out[j].EnrollmentCreatedAt)
		}
		return out[i].EnrollmentID.String() < out[j].EnrollmentID.String()
	})
	return out, nil
}

func (m *MemoryStore) ListAttendanceRecords(ctx context.Context, scope Scope, f AttendanceFilter) ([]attendanceModel.AttendanceRecordModel, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []attendanceModel.AttendanceRecordModel
	for _, r := range m.records {
		if r.AttendanceRecordTenantID != scope.TenantID || r.AttendanceRecordBranchID != scope.BranchID {
			continue
		}
		if !uuidEq(f.ClientID, r.AttendanceRecordClientID) || !uuidEq(f.SessionID, r.AttendanceRecordSessionID) {
			continue
		}
		d := calendar.DateOf(r.AttendanceRecordSessionDate)
		if f.From != nil && d.Before(calendar.DateOf(*f.From)) {
			continue
		}
		if f.To != nil && d.After(calendar.DateOf(*f.To)) {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.AttendanceRecordSessionDate.Equal(b.AttendanceRecordSessionDate) {
			return a.AttendanceRecordSessionDate.Before(b.AttendanceRecordSessionDate)
		}
		return a.AttendanceRecordID.String() < b.AttendanceRecordID.String()
	})

	total := int64(len(all))
	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return nil, total, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *MemoryStore) ListScopes(ctx context.Context) ([]Scope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[Scope]bool{}
	var out []Scope
	add := func(s Scope) {
		if s.Valid() && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, c := range m.classes {
		add(Scope{c.ClassTenantID, c.ClassBranchID})
	}
	for _, s := range m.sessions {
		add(Scope{s.ClassSessionTenantID, s.ClassSessionBranchID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

/* =========================
   Directory
========================= */

func (m *MemoryStore) LookupClients(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]directoryModel.ClientModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]directoryModel.ClientModel, len(ids))
	for _, id := range ids {
		c, ok := m.clients[id]
		if ok && c.ClientTenantID == scope.TenantID && c.ClientBranchID == scope.BranchID {
			out[id] = c
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchClients(ctx context.Context, scope Scope, query string, limit int) ([]directoryModel.ClientModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := helper.FoldName(query)
	var out []directoryModel.ClientModel
	for _, c := range m.clients {
		if c.ClientTenantID != scope.TenantID || c.ClientBranchID != scope.BranchID || !c.ClientIsActive {
			continue
		}
		tag := ""
		if c.ClientTag != nil {
			tag = helper.FoldName(*c.ClientTag)
		}
		if q == "" || strings.Contains(helper.FoldName(c.ClientName), q) || strings.Contains(tag, q) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return helper.LessName(out[i].ClientName, out[j].ClientName) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ActivityNames(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if a, ok := m.activities[id]; ok && a.ActivityTenantID == scope.TenantID && a.ActivityBranchID == scope.BranchID {
			out[id] = a.ActivityName
		}
	}
	return out, nil
}

/* =========================
   Internals
========================= */

func sessionInScope(s *scheduleModel.ClassSessionModel, scope Scope) bool {
	return s.ClassSessionTenantID == scope.TenantID && s.ClassSessionBranchID == scope.BranchID
}

func cloneSession(s scheduleModel.ClassSessionModel) scheduleModel.ClassSessionModel {
	if s.ClassSessionAttendanceSnapshot != nil {
		s.ClassSessionAttendanceSnapshot = append([]byte(nil), s.ClassSessionAttendanceSnapshot...)
	}
	if s.ClassSessionExtraClientIDs != nil {
		s.ClassSessionExtraClientIDs = append(s.ClassSessionExtraClientIDs[:0:0], s.ClassSessionExtraClientIDs...)
	}
	return s
}

func recordKey(r *attendanceModel.AttendanceRecordModel) AttendanceKey {
	return AttendanceKey{
		SessionKey: SessionKey{
			Scope:     Scope{TenantID: r.AttendanceRecordTenantID, BranchID: r.AttendanceRecordBranchID},
			SessionID: r.AttendanceRecordSessionID,
		},
		ClientID: r.AttendanceRecordClientID,
	}
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ Directory = (*MemoryStore)(nil)
)
