// file: internals/features/academy/enrollments/model/enrollment_model.go
package model

import (
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/academy/calendar"
)

/* =========================
   Enum
========================= */

type EnrollmentType string

const (
	EnrollmentRecurring     EnrollmentType = "recurring"
	EnrollmentExperimental  EnrollmentType = "experimental"
	EnrollmentSingleSession EnrollmentType = "single-session"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCanceled  EnrollmentStatus = "canceled"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentSuspended EnrollmentStatus = "suspended"
	EnrollmentFuture    EnrollmentStatus = "future"
)

/* =========================
   Model: EnrollmentModel
   JSON names follow the columns so a row_to_json payload decodes as-is.
========================= */

type EnrollmentModel struct {
	EnrollmentID       uuid.UUID `json:"enrollment_id"        gorm:"column:enrollment_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EnrollmentTenantID uuid.UUID `json:"enrollment_tenant_id" gorm:"column:enrollment_tenant_id;type:uuid;not null"`
	EnrollmentBranchID uuid.UUID `json:"enrollment_branch_id" gorm:"column:enrollment_branch_id;type:uuid;not null"`
	EnrollmentClientID uuid.UUID `json:"enrollment_client_id" gorm:"column:enrollment_client_id;type:uuid;not null"`

	EnrollmentType   EnrollmentType   `json:"enrollment_type"   gorm:"column:enrollment_type;type:varchar(20);not null"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status" gorm:"column:enrollment_status;type:varchar(20);not null"`

	// recurring
	EnrollmentClassID   *uuid.UUID `json:"enrollment_class_id"   gorm:"column:enrollment_class_id;type:uuid"`
	EnrollmentWeekday   *int       `json:"enrollment_weekday"    gorm:"column:enrollment_weekday"` // copy of the class weekday
	EnrollmentStartDate *time.Time `json:"enrollment_start_date" gorm:"column:enrollment_start_date;type:date"`
	EnrollmentEndDate   *time.Time `json:"enrollment_end_date"   gorm:"column:enrollment_end_date;type:date"`

	// experimental / single-session
	EnrollmentSessionID   *uuid.UUID `json:"enrollment_session_id"   gorm:"column:enrollment_session_id;type:uuid"`
	EnrollmentSessionDate *time.Time `json:"enrollment_session_date" gorm:"column:enrollment_session_date;type:date"`

	EnrollmentCreatedAt time.Time `json:"enrollment_created_at" gorm:"column:enrollment_created_at;type:timestamptz;not null;autoCreateTime"`
	EnrollmentUpdatedAt time.Time `json:"enrollment_updated_at" gorm:"column:enrollment_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

// Window is the slice the expected-attendance count reads.
func (e *EnrollmentModel) Window() calendar.RecurringWindow {
	w := calendar.RecurringWindow{
		Recurring: e.EnrollmentType == EnrollmentRecurring,
		Active:    e.EnrollmentStatus == EnrollmentActive,
		Weekday:   -1,
		StartDate: e.EnrollmentStartDate,
		EndDate:   e.EnrollmentEndDate,
	}
	if e.EnrollmentWeekday != nil {
		w.Weekday = *e.EnrollmentWeekday
	}
	return w
}

func (e *EnrollmentModel) IsActive() bool {
	return e != nil && e.EnrollmentStatus == EnrollmentActive
}

// CoversDate reports whether an active recurring enrollment applies on day.
func (e *EnrollmentModel) CoversDate(day time.Time) bool {
	if !e.IsActive() || e.EnrollmentType != EnrollmentRecurring {
		return false
	}
	day = calendar.DateOf(day)
	if e.EnrollmentStartDate != nil && day.Before(calendar.DateOf(*e.EnrollmentStartDate)) {
		return false
	}
	if e.EnrollmentEndDate != nil && day.After(calendar.DateOf(*e.EnrollmentEndDate)) {
		return false
	}
	return true
}

/* =========================
   Lifecycle event
========================= */

type EventKind string

const (
	EventCreate EventKind = "create"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// EnrollmentEvent is one change delivered by the trigger pipeline.
// Create carries After, Delete carries Before, Update carries both.
type EnrollmentEvent struct {
	Kind   EventKind        `json:"kind"`
	Before *EnrollmentModel `json:"before,omitempty"`
	After  *EnrollmentModel `json:"after,omitempty"`
}
