// file: internals/features/academy/attendance/dto/attendance_dto.go
package dto

import (
	"github.com/google/uuid"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/attendance/service"
)

type RosterEntryRequest struct {
	ClientID      uuid.UUID  `json:"client_id"     validate:"required"`
	EnrollmentID  *uuid.UUID `json:"enrollment_id"`
	Name          string     `json:"name"          validate:"max=160"`
	Tag           string     `json:"tag"           validate:"max=40"`
	Photo         string     `json:"photo"`
	Status        string     `json:"status"        validate:"omitempty,oneof=present absent late justified editing"`
	Justification string     `json:"justification" validate:"max=500"`
	IsExtra       bool       `json:"is_extra"`
}

type SaveAttendanceRequest struct {
	Roster []RosterEntryRequest `json:"roster" validate:"dive"`
}

func (r *SaveAttendanceRequest) ToRoster() service.Roster {
	out := make(service.Roster, 0, len(r.Roster))
	for _, e := range r.Roster {
		out = append(out, attendanceModel.RosterEntry{
			ClientID:      e.ClientID,
			EnrollmentID:  e.EnrollmentID,
			Name:          e.Name,
			Tag:           e.Tag,
			Photo:         e.Photo,
			Status:        attendanceModel.AttendanceStatus(e.Status),
			Justification: e.Justification,
			IsExtra:       e.IsExtra,
		})
	}
	return out
}

type AddExtraRequest struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
}

type ClientSearchQuery struct {
	Q     string `query:"q"     validate:"required,min=1,max=80"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
}
