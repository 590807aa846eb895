// file: internals/features/academy/occupancy/dto/enrollment_event_dto.go
package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/academy/calendar"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
)

/* =========================================================
   Trigger payload
   Same keys as the enrollments columns. Dates arrive either as
   "YYYY-MM-DD" (row_to_json) or as full RFC3339 timestamps; only the
   first 10 characters are read.
========================================================= */

type EnrollmentPayload struct {
	EnrollmentID       uuid.UUID `json:"enrollment_id"`
	EnrollmentTenantID uuid.UUID `json:"enrollment_tenant_id"`
	EnrollmentBranchID uuid.UUID `json:"enrollment_branch_id"`
	EnrollmentClientID uuid.UUID `json:"enrollment_client_id"`

	EnrollmentType   string `json:"enrollment_type"`
	EnrollmentStatus string `json:"enrollment_status"`

	EnrollmentClassID   *uuid.UUID `json:"enrollment_class_id"`
	EnrollmentWeekday   *int       `json:"enrollment_weekday"`
	EnrollmentStartDate *string    `json:"enrollment_start_date"`
	EnrollmentEndDate   *string    `json:"enrollment_end_date"`

	EnrollmentSessionID   *uuid.UUID `json:"enrollment_session_id"`
	EnrollmentSessionDate *string    `json:"enrollment_session_date"`
}

type EnrollmentEventRequest struct {
	// create|update|delete, or the trigger's TG_OP (INSERT|UPDATE|DELETE)
	Kind   string             `json:"kind"   validate:"required"`
	Before *EnrollmentPayload `json:"before"`
	After  *EnrollmentPayload `json:"after"`
}

// ParseEventKind accepts both vocabularies case-insensitively.
func ParseEventKind(s string) (enrollmentModel.EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create", "insert":
		return enrollmentModel.EventCreate, nil
	case "update":
		return enrollmentModel.EventUpdate, nil
	case "delete":
		return enrollmentModel.EventDelete, nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

func (r *EnrollmentEventRequest) ToEvent() (enrollmentModel.EnrollmentEvent, error) {
	kind, err := ParseEventKind(r.Kind)
	if err != nil {
		return enrollmentModel.EnrollmentEvent{}, err
	}
	before, err := r.Before.ToModel()
	if err != nil {
		return enrollmentModel.EnrollmentEvent{}, fmt.Errorf("before: %w", err)
	}
	after, err := r.After.ToModel()
	if err != nil {
		return enrollmentModel.EnrollmentEvent{}, fmt.Errorf("after: %w", err)
	}
	return enrollmentModel.EnrollmentEvent{Kind: kind, Before: before, After: after}, nil
}

// ToModel maps a payload to the model; a nil payload stays nil.
func (p *EnrollmentPayload) ToModel() (*enrollmentModel.EnrollmentModel, error) {
	if p == nil {
		return nil, nil
	}
	m := &enrollmentModel.EnrollmentModel{
		EnrollmentID:        p.EnrollmentID,
		EnrollmentTenantID:  p.EnrollmentTenantID,
		EnrollmentBranchID:  p.EnrollmentBranchID,
		EnrollmentClientID:  p.EnrollmentClientID,
		EnrollmentType:      enrollmentModel.EnrollmentType(strings.ToLower(strings.TrimSpace(p.EnrollmentType))),
		EnrollmentStatus:    enrollmentModel.EnrollmentStatus(strings.ToLower(strings.TrimSpace(p.EnrollmentStatus))),
		EnrollmentClassID:   p.EnrollmentClassID,
		EnrollmentWeekday:   p.EnrollmentWeekday,
		EnrollmentSessionID: p.EnrollmentSessionID,
	}
	var err error
	if m.EnrollmentStartDate, err = parseDatePtr(p.EnrollmentStartDate); err != nil {
		return nil, fmt.Errorf("enrollment_start_date: %w", err)
	}
	if m.EnrollmentEndDate, err = parseDatePtr(p.EnrollmentEndDate); err != nil {
		return nil, fmt.Errorf("enrollment_end_date: %w", err)
	}
	if m.EnrollmentSessionDate, err = parseDatePtr(p.EnrollmentSessionDate); err != nil {
		return nil, fmt.Errorf("enrollment_session_date: %w", err)
	}
	return m, nil
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if len(v) > len(calendar.DateLayout) {
		v = v[:len(calendar.DateLayout)]
	}
	d, err := calendar.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

/* =========================================================
   Manual bump
========================================================= */

type BumpRequest struct {
	Delta int `json:"delta" validate:"required,oneof=1 -1"`
}
