// file: internals/features/academy/schedules/service/materializer.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"academy_backend/internals/features/academy/calendar"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/helpers/logger"
)

// MaxMaterializeDays bounds one EnsureSessions call.
const MaxMaterializeDays = 366

var ErrRangeTooLarge = errors.New("materialize range too large")

type MaterializeResult struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Candidates int    `json:"candidates"`
	Inserted   int    `json:"inserted"`
}

/* =========================
   Materializer
   stamps out sessions for active classes; existing (class, date) slots are
   left untouched
========================= */

type Materializer struct {
	Store store.Store
	Log   *zap.Logger
}

func NewMaterializer(s store.Store, log *zap.Logger) *Materializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Materializer{Store: s, Log: log.Named("materializer")}
}

// EnsureSessions creates the missing sessions of every active class in
// [from, to]. A new session starts with the number of active recurring
// enrollments covering its date.
func (m *Materializer) EnsureSessions(ctx context.Context, scope store.Scope, from, to time.Time) (MaterializeResult, error) {
	from, to = calendar.DateOf(from), calendar.DateOf(to)
	res := MaterializeResult{From: calendar.FormatDate(from), To: calendar.FormatDate(to)}

	if !scope.Valid() {
		return res, store.ErrInvalidScope
	}
	if to.Before(from) {
		return res, nil
	}
	if calendar.DaysBetween(from, to) >= MaxMaterializeDays {
		return res, fmt.Errorf("%w: %d days (max %d)", ErrRangeTooLarge, calendar.DaysBetween(from, to)+1, MaxMaterializeDays)
	}

	classes, err := m.Store.ListClasses(ctx, scope, true)
	if err != nil {
		return res, fmt.Errorf("list classes: %w", err)
	}
	if len(classes) == 0 {
		return res, nil
	}

	existing, err := m.Store.ListSessions(ctx, scope, from, to)
	if err != nil {
		return res, fmt.Errorf("list sessions: %w", err)
	}
	type slot struct {
		classID uuid.UUID
		date    time.Time
	}
	taken := make(map[slot]bool, len(existing))
	for _, s := range existing {
		if s.ClassSessionClassID != nil {
			taken[slot{*s.ClassSessionClassID, calendar.DateOf(s.ClassSessionDate)}] = true
		}
	}

	enrollments, err := m.Store.ListEnrollments(ctx, scope, store.EnrollmentFilter{
		Types:    []enrollmentModel.EnrollmentType{enrollmentModel.EnrollmentRecurring},
		Statuses: []enrollmentModel.EnrollmentStatus{enrollmentModel.EnrollmentActive},
	})
	if err != nil {
		return res, fmt.Errorf("list enrollments: %w", err)
	}
	byClass := map[uuid.UUID][]enrollmentModel.EnrollmentModel{}
	for _, e := range enrollments {
		if e.EnrollmentClassID != nil {
			byClass[*e.EnrollmentClassID] = append(byClass[*e.EnrollmentClassID], e)
		}
	}

	var rows []scheduleModel.ClassSessionModel
	for day := from; !day.After(to); day = calendar.AddDays(day, 1) {
		for i := range classes {
			c := &classes[i]
			if !calendar.OccursOn(c.Rule(), day) || taken[slot{c.ClassID, day}] {
				continue
			}
			row := scheduleModel.FromClass(c, day)
			for j := range byClass[c.ClassID] {
				if byClass[c.ClassID][j].CoversDate(day) {
					row.ClassSessionEnrolledCount++
				}
			}
			rows = append(rows, row)
		}
	}
	res.Candidates = len(rows)
	if len(rows) == 0 {
		return res, nil
	}

	n, err := m.Store.InsertSessions(ctx, rows)
	res.Inserted = n
	if err != nil {
		return res, fmt.Errorf("insert sessions: %w", err)
	}

	m.Log.Info("sessions materialized",
		zap.String(logger.FieldTenantID, scope.TenantID.String()),
		zap.String(logger.FieldBranchID, scope.BranchID.String()),
		zap.String("from", res.From),
		zap.String("to", res.To),
		zap.Int("candidates", res.Candidates),
		zap.Int("inserted", res.Inserted),
	)
	return res, nil
}

// EnsureAll runs EnsureSessions for every known scope over [today, today+horizon).
// A failing scope is logged and skipped.
func (m *Materializer) EnsureAll(ctx context.Context, today time.Time, horizonDays int) (int, error) {
	if horizonDays <= 0 {
		return 0, nil
	}
	scopes, err := m.Store.ListScopes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list scopes: %w", err)
	}
	from := calendar.DateOf(today)
	to := calendar.AddDays(from, horizonDays-1)

	total := 0
	for _, scope := range scopes {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := m.EnsureSessions(ctx, scope, from, to)
		if err != nil {
			m.Log.Error("materialize scope failed",
				zap.String(logger.FieldTenantID, scope.TenantID.String()),
				zap.String(logger.FieldBranchID, scope.BranchID.String()),
				zap.Error(err))
			continue
		}
		total += res.Inserted
	}
	return total, nil
}
