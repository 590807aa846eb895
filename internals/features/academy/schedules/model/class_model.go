// file: internals/features/academy/schedules/model/class_model.go
package model

import (
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/academy/calendar"
	"academy_backend/internals/helpers/dbtime"
)

/* =========================
   Model: ClassModel (weekly template)
   never deleted, only deactivated
========================= */

type ClassModel struct {
	ClassID       uuid.UUID `json:"class_id"        gorm:"column:class_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ClassTenantID uuid.UUID `json:"class_tenant_id" gorm:"column:class_tenant_id;type:uuid;not null"`
	ClassBranchID uuid.UUID `json:"class_branch_id" gorm:"column:class_branch_id;type:uuid;not null"`

	ClassActivityID   uuid.UUID  `json:"class_activity_id"             gorm:"column:class_activity_id;type:uuid;not null"`
	ClassInstructorID *uuid.UUID `json:"class_instructor_id,omitempty" gorm:"column:class_instructor_id;type:uuid"`
	ClassAreaID       *uuid.UUID `json:"class_area_id,omitempty"       gorm:"column:class_area_id;type:uuid"`
	ClassName         string     `json:"class_name"                    gorm:"column:class_name;type:varchar(160);not null"`

	// 0..6, Sunday = 0 (7 is read as Sunday)
	ClassWeekday         int        `json:"class_weekday"          gorm:"column:class_weekday;not null"`
	ClassStartTime       dbtime.Tod `json:"class_start_time"       gorm:"column:class_start_time;type:time;not null"`
	ClassDurationMinutes int        `json:"class_duration_minutes" gorm:"column:class_duration_minutes;not null;default:60"`
	ClassCapacity        int        `json:"class_capacity"         gorm:"column:class_capacity;not null;default:0"`

	ClassStartDate *time.Time `json:"class_start_date,omitempty" gorm:"column:class_start_date;type:date"`
	ClassEndDate   *time.Time `json:"class_end_date,omitempty"   gorm:"column:class_end_date;type:date"`
	ClassIsActive  bool       `json:"class_is_active"            gorm:"column:class_is_active;not null;default:true"`

	ClassCreatedAt time.Time `json:"class_created_at" gorm:"column:class_created_at;type:timestamptz;not null;autoCreateTime"`
	ClassUpdatedAt time.Time `json:"class_updated_at" gorm:"column:class_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (ClassModel) TableName() string { return "classes" }

func (c *ClassModel) Rule() calendar.Rule {
	return calendar.Rule{
		Weekdays:  []int{c.ClassWeekday},
		StartDate: c.ClassStartDate,
		EndDate:   c.ClassEndDate,
	}
}

func (c *ClassModel) EndTime() dbtime.Tod {
	return c.ClassStartTime.Add(time.Duration(c.ClassDurationMinutes) * time.Minute)
}
