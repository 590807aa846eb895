// file: internals/features/academy/schedules/dto/grid_dto.go
package dto

import (
	"fmt"
	"strings"
	"time"

	"academy_backend/internals/features/academy/calendar"
	"academy_backend/internals/features/academy/schedules/service"
)

type GridQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	View string `query:"view" validate:"omitempty,oneof=day week"`
	Turn string `query:"turn" validate:"omitempty,oneof=morning afternoon evening all"`
}

// Resolve fills the defaults: today, week view, all turns.
func (q GridQuery) Resolve(today time.Time) (time.Time, service.ViewMode, service.Turn, error) {
	ref := today
	if strings.TrimSpace(q.Date) != "" {
		d, err := calendar.ParseDate(strings.TrimSpace(q.Date))
		if err != nil {
			return time.Time{}, "", service.Turn{}, fmt.Errorf("date must be YYYY-MM-DD")
		}
		ref = d
	}
	view := service.ViewWeek
	if strings.EqualFold(q.View, string(service.ViewDay)) {
		view = service.ViewDay
	}
	turn, ok := service.ResolveTurn(q.Turn)
	if !ok {
		return time.Time{}, "", service.Turn{}, fmt.Errorf("turn must be one of %s", strings.Join(service.TurnNames(), ", "))
	}
	return ref, view, turn, nil
}

type EnsureSessionsQuery struct {
	From string `query:"from" validate:"required,datetime=2006-01-02"`
	To   string `query:"to"   validate:"required,datetime=2006-01-02"`
}

func (q EnsureSessionsQuery) Range() (time.Time, time.Time, error) {
	from, err := calendar.ParseDate(q.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	to, err := calendar.ParseDate(q.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}
