// file: internals/features/academy/schedules/model/session_model.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	"academy_backend/internals/helpers/dbtime"
)

/* =========================
   Model: ClassSessionModel (one concrete occurrence)
   enrolled_count is owned by occupancy; snapshot and counts by attendance
========================= */

type ClassSessionModel struct {
	ClassSessionID       uuid.UUID `json:"class_session_id"        gorm:"column:class_session_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ClassSessionTenantID uuid.UUID `json:"class_session_tenant_id" gorm:"column:class_session_tenant_id;type:uuid;not null"`
	ClassSessionBranchID uuid.UUID `json:"class_session_branch_id" gorm:"column:class_session_branch_id;type:uuid;not null"`

	// nil for one-off / experimental slots
	ClassSessionClassID      *uuid.UUID `json:"class_session_class_id,omitempty"      gorm:"column:class_session_class_id;type:uuid"`
	ClassSessionActivityID   uuid.UUID  `json:"class_session_activity_id"             gorm:"column:class_session_activity_id;type:uuid;not null"`
	ClassSessionInstructorID *uuid.UUID `json:"class_session_instructor_id,omitempty" gorm:"column:class_session_instructor_id;type:uuid"`
	ClassSessionAreaID       *uuid.UUID `json:"class_session_area_id,omitempty"       gorm:"column:class_session_area_id;type:uuid"`

	ClassSessionDate      time.Time  `json:"class_session_date"       gorm:"column:class_session_date;type:date;not null"`
	ClassSessionStartTime dbtime.Tod `json:"class_session_start_time" gorm:"column:class_session_start_time;type:time;not null"`
	ClassSessionEndTime   dbtime.Tod `json:"class_session_end_time"   gorm:"column:class_session_end_time;type:time;not null"`
	ClassSessionCapacity  int        `json:"class_session_capacity"   gorm:"column:class_session_capacity;not null;default:0"`

	ClassSessionEnrolledCount int `json:"class_session_enrolled_count" gorm:"column:class_session_enrolled_count;not null;default:0"`

	// clients added on top of the enrollments; each one is in enrolled_count
	ClassSessionExtraClientIDs pq.StringArray `json:"class_session_extra_client_ids" gorm:"column:class_session_extra_client_ids;type:uuid[];default:'{}'"`

	ClassSessionAttendanceRecorded bool           `json:"class_session_attendance_recorded" gorm:"column:class_session_attendance_recorded;not null;default:false"`
	ClassSessionAttendanceSnapshot datatypes.JSON `json:"class_session_attendance_snapshot" gorm:"column:class_session_attendance_snapshot;type:jsonb"`
	ClassSessionPresentCount       int            `json:"class_session_present_count"       gorm:"column:class_session_present_count;not null;default:0"`
	ClassSessionAbsentCount        int            `json:"class_session_absent_count"        gorm:"column:class_session_absent_count;not null;default:0"`

	ClassSessionCreatedAt time.Time `json:"class_session_created_at" gorm:"column:class_session_created_at;type:timestamptz;not null;autoCreateTime"`
	ClassSessionUpdatedAt time.Time `json:"class_session_updated_at" gorm:"column:class_session_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (ClassSessionModel) TableName() string { return "class_sessions" }

func (s *ClassSessionModel) Rule() calendar.Rule {
	d := s.ClassSessionDate
	return calendar.Rule{SessionDate: &d}
}

// MaterializedSessionID is stable per (class, date) so re-materializing a
// slot always targets the same row.
func MaterializedSessionID(classID uuid.UUID, day time.Time) uuid.UUID {
	return uuid.NewSHA1(classID, []byte(calendar.FormatDate(day)))
}

// FromClass stamps out the occurrence of c on day.
func FromClass(c *ClassModel, day time.Time) ClassSessionModel {
	classID := c.ClassID
	return ClassSessionModel{
		ClassSessionID:           MaterializedSessionID(c.ClassID, day),
		ClassSessionTenantID:     c.ClassTenantID,
		ClassSessionBranchID:     c.ClassBranchID,
		ClassSessionClassID:      &classID,
		ClassSessionActivityID:   c.ClassActivityID,
		ClassSessionInstructorID: c.ClassInstructorID,
		ClassSessionAreaID:       c.ClassAreaID,
		ClassSessionDate:         calendar.DateOf(day),
		ClassSessionStartTime:    c.ClassStartTime,
		ClassSessionEndTime:      c.EndTime(),
		ClassSessionCapacity:     c.ClassCapacity,
	}
}

// Extras lists the extra participants kept on the session row.
func (s *ClassSessionModel) Extras() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.ClassSessionExtraClientIDs))
	for _, raw := range s.ClassSessionExtraClientIDs {
		if id, err := uuid.Parse(raw); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (s *ClassSessionModel) HasExtra(clientID uuid.UUID) bool {
	for _, id := range s.Extras() {
		if id == clientID {
			return true
		}
	}
	return false
}

// ExtraArray is the column value for a set of extra participants.
func ExtraArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// Roster decodes the saved attendance snapshot; empty when none was saved.
func (s *ClassSessionModel) Roster() ([]attendanceModel.RosterEntry, error) {
	if len(s.ClassSessionAttendanceSnapshot) == 0 || string(s.ClassSessionAttendanceSnapshot) == "null" {
		return nil, nil
	}
	var out []attendanceModel.RosterEntry
	if err := json.Unmarshal(s.ClassSessionAttendanceSnapshot, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeRoster is the column value for a roster.
func EncodeRoster(roster []attendanceModel.RosterEntry) (datatypes.JSON, error) {
	if roster == nil {
		roster = []attendanceModel.RosterEntry{}
	}
	b, err := json.Marshal(roster)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
