// file: internals/features/academy/store/gorm.go
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
)

// GormStore is the Postgres-backed store.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func mapGormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func sessionScope(db *gorm.DB, scope Scope) *gorm.DB {
	return db.Where("class_session_tenant_id = ? AND class_session_branch_id = ?", scope.TenantID, scope.BranchID)
}

/* =========================
   Transactions
========================= */

type gormTx struct {
	tx *gorm.DB
}

func (s *GormStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
}

// GetSession takes a row lock so a read-modify-write cannot lose updates.
func (t *gormTx) GetSession(key SessionKey) (*scheduleModel.ClassSessionModel, error) {
	var row scheduleModel.ClassSessionModel
	err := sessionScope(t.tx, key.Scope).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("class_session_id = ?", key.SessionID).
		Take(&row).Error
	if err != nil {
		return nil, mapGormErr(err)
	}
	return &row, nil
}

func (t *gormTx) SetEnrolledCount(key SessionKey, count int, at time.Time) error {
	res := sessionScope(t.tx.Model(&scheduleModel.ClassSessionModel{}), key.Scope).
		Where("class_session_id = ?", key.SessionID).
		UpdateColumns(map[string]any{
			"class_session_enrolled_count": clampCount(count),
			"class_session_updated_at":     at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) PutAttendanceRecord(rec *attendanceModel.AttendanceRecordModel) error {
	if rec.AttendanceRecordID == uuid.Nil {
		rec.AttendanceRecordID = uuid.New()
	}
	return t.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "attendance_record_session_id"},
			{Name: "attendance_record_client_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"attendance_record_class_id",
			"attendance_record_enrollment_id",
			"attendance_record_enrollment_type",
			"attendance_record_session_date",
			"attendance_record_status",
			"attendance_record_justification",
			"attendance_record_recorded_at",
		}),
	}).Create(rec).Error
}

func (t *gormTx) PutAttendanceSnapshot(key SessionKey, snap Snapshot) error {
	raw, err := scheduleModel.EncodeRoster(snap.Roster)
	if err != nil {
		return err
	}
	res := sessionScope(t.tx.Model(&scheduleModel.ClassSessionModel{}), key.Scope).
		Where("class_session_id = ?", key.SessionID).
		UpdateColumns(map[string]any{
			"class_session_attendance_recorded": true,
			"class_session_attendance_snapshot": raw,
			"class_session_present_count":       snap.PresentCount,
			"class_session_absent_count":        snap.AbsentCount,
			"class_session_updated_at":          snap.At,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) SetExtras(key SessionKey, clientIDs []uuid.UUID, at time.Time) error {
	res := sessionScope(t.tx.Model(&scheduleModel.ClassSessionModel{}), key.Scope).
		Where("class_session_id = ?", key.SessionID).
		UpdateColumns(map[string]any{
			"class_session_extra_client_ids": scheduleModel.ExtraArray(clientIDs),
			"class_session_updated_at":       at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

/* =========================
   Sessions
========================= */

func (s *GormStore) GetSession(ctx context.Context, key SessionKey) (*scheduleModel.ClassSessionModel, error) {
	var row scheduleModel.ClassSessionModel
	err := sessionScope(s.DB.WithContext(ctx), key.Scope).
		Where("class_session_id = ?", key.SessionID).
		Take(&row).Error
	if err != nil {
		return nil, mapGormErr(err)
	}
	return &row, nil
}

func (s *GormStore) ListSessions(ctx context.Context, scope Scope, from, to time.Time) ([]scheduleModel.ClassSessionModel, error) {
	var rows []scheduleModel.ClassSessionModel
	err := sessionScope(s.DB.WithContext(ctx), scope).
		Where("class_session_date BETWEEN ? AND ?", calendar.DateOf(from), calendar.DateOf(to)).
		Order("class_session_date ASC, class_session_id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) FindClassSessions(ctx context.Context, key ClassKey, from, to time.Time) ([]scheduleModel.ClassSessionModel, error) {
	var rows []scheduleModel.ClassSessionModel
	err := sessionScope(s.DB.WithContext(ctx), key.Scope).
		Where("class_session_class_id = ?", key.ClassID).
		Where("class_session_date BETWEEN ? AND ?", calendar.DateOf(from), calendar.DateOf(to)).
		Order("class_session_date ASC, class_session_id ASC").
		Find(&rows).Error
	return rows, err
}

// ApplyEnrolledIncrements runs the whole chunk as one UPDATE ... FROM unnest.
const applyIncrementsSQL = `
UPDATE class_sessions AS s
SET class_session_enrolled_count = GREATEST(s.class_session_enrolled_count + v.delta, 0),
    class_session_updated_at     = ?
FROM unnest(?::uuid[], ?::int[]) AS v(id, delta)
WHERE s.class_session_id = v.id
  AND s.class_session_tenant_id = ?
  AND s.class_session_branch_id = ?`

func (s *GormStore) ApplyEnrolledIncrements(ctx context.Context, scope Scope, incs []Increment, at time.Time) error {
	if len(incs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(incs))
	deltas := make([]int64, 0, len(incs))
	for _, inc := range incs {
		ids = append(ids, inc.SessionID.String())
		deltas = append(deltas, int64(inc.Delta))
	}
	return s.DB.WithContext(ctx).
		Exec(applyIncrementsSQL, at, pq.Array(ids), pq.Array(deltas), scope.TenantID, scope.BranchID).
		Error
}

func (s *GormStore) InsertSessions(ctx context.Context, sessions []scheduleModel.ClassSessionModel) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}
	// uq_class_sessions_class_date makes the insert idempotent
	tx := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(sessions, 200)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return int(tx.RowsAffected), nil
}

/* =========================
   Classes / enrollments / records
========================= */

func (s *GormStore) GetClass(ctx context.Context, key ClassKey) (*scheduleModel.ClassModel, error) {
	var row scheduleModel.ClassModel
	err := s.DB.WithContext(ctx).
		Where("class_tenant_id = ? AND class_branch_id = ? AND class_id = ?", key.TenantID, key.BranchID, key.ClassID).
		Take(&row).Error
	if err != nil {
		return nil, mapGormErr(err)
	}
	return &row, nil
}

func (s *GormStore) ListClasses(ctx context.Context, scope Scope, activeOnly bool) ([]scheduleModel.ClassModel, error) {
	q := s.DB.WithContext(ctx).
		Where("class_tenant_id = ? AND class_branch_id = ?", scope.TenantID, scope.BranchID)
	if activeOnly {
		q = q.Where("class_is_active = TRUE")
	}
	var rows []scheduleModel.ClassModel
	err := q.Order("class_id ASC").Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListEnrollments(ctx context.Context, scope Scope, f EnrollmentFilter) ([]enrollmentModel.EnrollmentModel, error) {
	q := s.DB.WithContext(ctx).
		Where("enrollment_tenant_id = ? AND enrollment_branch_id = ?", scope.TenantID, scope.BranchID)
	if f.ClassID != nil {
		q = q.Where("enrollment_class_id = ?", *f.ClassID)
	}
	if f.SessionID != nil {
		q = q.Where("enrollment_session_id = ?", *f.SessionID)
	}
	if f.ClientID != nil {
		q = q.Where("enrollment_client_id = ?", *f.ClientID)
	}
	if len(f.Types) > 0 {
		q = q.Where("enrollment_type IN ?", f.Types)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("enrollment_status IN ?", f.Statuses)
	}
	var rows []enrollmentModel.EnrollmentModel
	err := q.Order("enrollment_created_at ASC, enrollment_id ASC").Find(&rows).Error
	return rows, err
}

func (s *GormStore) ListAttendanceRecords(ctx context.Context, scope Scope, f AttendanceFilter) ([]attendanceModel.AttendanceRecordModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&attendanceModel.AttendanceRecordModel{}).
		Where("attendance_record_tenant_id = ? AND attendance_record_branch_id = ?", scope.TenantID, scope.BranchID)
	if f.ClientID != nil {
		q = q.Where("attendance_record_client_id = ?", *f.ClientID)
	}
	if f.SessionID != nil {
		q = q.Where("attendance_record_session_id = ?", *f.SessionID)
	}
	if f.From != nil {
		q = q.Where("attendance_record_session_date >= ?", calendar.DateOf(*f.From))
	}
	if f.To != nil {
		q = q.Where("attendance_record_session_date <= ?", calendar.DateOf(*f.To))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("attendance_record_session_date ASC, attendance_record_id ASC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []attendanceModel.AttendanceRecordModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *GormStore) ListScopes(ctx context.Context) ([]Scope, error) {
	type row struct {
		TenantID uuid.UUID `gorm:"column:tenant_id"`
		BranchID uuid.UUID `gorm:"column:branch_id"`
	}
	var rows []row
	err := s.DB.WithContext(ctx).Raw(`
SELECT DISTINCT class_tenant_id AS tenant_id, class_branch_id AS branch_id FROM classes
UNION
SELECT DISTINCT class_session_tenant_id, class_session_branch_id FROM class_sessions
ORDER BY 1, 2`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Scope, 0, len(rows))
	for _, r := range rows {
		out = append(out, Scope{TenantID: r.TenantID, BranchID: r.BranchID})
	}
	return out, nil
}

/* =========================
   Directory
========================= */

func (s *GormStore) LookupClients(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]directoryModel.ClientModel, error) {
	out := make(map[uuid.UUID]directoryModel.ClientModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []directoryModel.ClientModel
	err := s.DB.WithContext(ctx).
		Where("client_tenant_id = ? AND client_branch_id = ?", scope.TenantID, scope.BranchID).
		Where("client_id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ClientID] = r
	}
	return out, nil
}

func (s *GormStore) SearchClients(ctx context.Context, scope Scope, query string, limit int) ([]directoryModel.ClientModel, error) {
	q := s.DB.WithContext(ctx).
		Where("client_tenant_id = ? AND client_branch_id = ? AND client_is_active = TRUE", scope.TenantID, scope.BranchID)
	if term := strings.TrimSpace(query); term != "" {
		like := "%" + term + "%"
		q = q.Where("(client_name ILIKE ? OR client_tag ILIKE ?)", like, like)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []directoryModel.ClientModel
	err := q.Order("client_name ASC").Find(&rows).Error
	return rows, err
}

func (s *GormStore) ActivityNames(ctx context.Context, scope Scope, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []directoryModel.ActivityModel
	err := s.DB.WithContext(ctx).
		Where("activity_tenant_id = ? AND activity_branch_id = ?", scope.TenantID, scope.BranchID).
		Where("activity_id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ActivityID] = r.ActivityName
	}
	return out, nil
}

var (
	_ Store     = (*GormStore)(nil)
	_ Directory = (*GormStore)(nil)
)
