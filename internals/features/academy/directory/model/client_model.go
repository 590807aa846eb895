// file: internals/features/academy/directory/model/client_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ClientModel struct {
	ClientID       uuid.UUID `json:"client_id"        gorm:"column:client_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientTenantID uuid.UUID `json:"client_tenant_id" gorm:"column:client_tenant_id;type:uuid;not null"`
	ClientBranchID uuid.UUID `json:"client_branch_id" gorm:"column:client_branch_id;type:uuid;not null"`

	ClientName     string  `json:"client_name"                gorm:"column:client_name;type:varchar(160);not null"`
	ClientTag      *string `json:"client_tag,omitempty"       gorm:"column:client_tag;type:varchar(40)"`
	ClientPhotoURL *string `json:"client_photo_url,omitempty" gorm:"column:client_photo_url;type:text"`
	ClientIsActive bool    `json:"client_is_active"           gorm:"column:client_is_active;not null;default:true"`

	ClientCreatedAt time.Time `json:"client_created_at" gorm:"column:client_created_at;type:timestamptz;not null;autoCreateTime"`
}

func (ClientModel) TableName() string { return "clients" }

type ActivityModel struct {
	ActivityID       uuid.UUID `json:"activity_id"        gorm:"column:activity_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ActivityTenantID uuid.UUID `json:"activity_tenant_id" gorm:"column:activity_tenant_id;type:uuid;not null"`
	ActivityBranchID uuid.UUID `json:"activity_branch_id" gorm:"column:activity_branch_id;type:uuid;not null"`
	ActivityName     string    `json:"activity_name"      gorm:"column:activity_name;type:varchar(120);not null"`
	ActivityColor    *string   `json:"activity_color,omitempty" gorm:"column:activity_color;type:varchar(16)"`
}

func (ActivityModel) TableName() string { return "activities" }
