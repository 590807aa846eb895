// file: internals/features/academy/attendance/model/attendance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

/* =========================
   Enum
========================= */

type AttendanceStatus string

const (
	StatusPresent   AttendanceStatus = "present"
	StatusAbsent    AttendanceStatus = "absent"
	StatusLate      AttendanceStatus = "late"
	StatusJustified AttendanceStatus = "justified"

	// absent in progress; needs a justification before it becomes absent
	StatusEditing AttendanceStatus = "editing"
)

/* =========================
   Roster entry (inside the session snapshot)
========================= */

type RosterEntry struct {
	ClientID      uuid.UUID        `json:"client_id"`
	EnrollmentID  *uuid.UUID       `json:"enrollment_id"`
	Name          string           `json:"name"`
	Tag           string           `json:"tag,omitempty"`
	Photo         string           `json:"photo,omitempty"`
	Status        AttendanceStatus `json:"status"`
	Justification string           `json:"justification,omitempty"`
	IsExtra       bool             `json:"is_extra"`
}

/* =========================
   Model: AttendanceRecordModel
   one row per (session, client); re-saving overwrites it
========================= */

type AttendanceRecordModel struct {
	AttendanceRecordID       uuid.UUID `json:"attendance_record_id"        gorm:"column:attendance_record_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AttendanceRecordTenantID uuid.UUID `json:"attendance_record_tenant_id" gorm:"column:attendance_record_tenant_id;type:uuid;not null"`
	AttendanceRecordBranchID uuid.UUID `json:"attendance_record_branch_id" gorm:"column:attendance_record_branch_id;type:uuid;not null"`

	AttendanceRecordSessionID    uuid.UUID  `json:"attendance_record_session_id"              gorm:"column:attendance_record_session_id;type:uuid;not null"`
	AttendanceRecordClientID     uuid.UUID  `json:"attendance_record_client_id"               gorm:"column:attendance_record_client_id;type:uuid;not null"`
	AttendanceRecordClassID      *uuid.UUID `json:"attendance_record_class_id,omitempty"      gorm:"column:attendance_record_class_id;type:uuid"`
	AttendanceRecordEnrollmentID *uuid.UUID `json:"attendance_record_enrollment_id,omitempty" gorm:"column:attendance_record_enrollment_id;type:uuid"`
	// enrollment type at record time; nil for extras
	AttendanceRecordEnrollmentType *string `json:"attendance_record_enrollment_type,omitempty" gorm:"column:attendance_record_enrollment_type;type:varchar(20)"`

	AttendanceRecordSessionDate time.Time `json:"attendance_record_session_date" gorm:"column:attendance_record_session_date;type:date;not null"`
	// plain string: older rows carry numeric codes ("0" present, "1" absent)
	AttendanceRecordStatus        string  `json:"attendance_record_status"                  gorm:"column:attendance_record_status;type:varchar(20);not null"`
	AttendanceRecordJustification *string `json:"attendance_record_justification,omitempty" gorm:"column:attendance_record_justification;type:text"`

	AttendanceRecordRecordedAt time.Time `json:"attendance_record_recorded_at" gorm:"column:attendance_record_recorded_at;type:timestamptz;not null"`
}

func (AttendanceRecordModel) TableName() string { return "attendance_records" }
