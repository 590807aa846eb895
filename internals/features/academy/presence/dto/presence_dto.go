// file: internals/features/academy/presence/dto/presence_dto.go
package dto

import (
	"fmt"
	"strings"
	"time"

	"academy_backend/internals/features/academy/calendar"
)

type PresenceQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (q PresenceQuery) Reference(today time.Time) (time.Time, error) {
	if strings.TrimSpace(q.Date) == "" {
		return today, nil
	}
	return calendar.ParseDate(strings.TrimSpace(q.Date))
}

type ExportQuery struct {
	Month string `query:"month" validate:"required,datetime=2006-01"`
}

func (q ExportQuery) MonthStart() (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(q.Month))
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be YYYY-MM")
	}
	return calendar.StartOfMonth(t), nil
}
