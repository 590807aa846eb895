// file: internals/features/academy/presence/service/presence.go
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

// ClientReport is what a client's presence card shows.
type ClientReport struct {
	ClientID  uuid.UUID     `json:"client_id"`
	Reference string        `json:"reference"`
	Presence  PresenceStats `json:"presence"`
	Card      CardStats     `json:"card"`
}

type Calculator struct {
	Store     store.Store
	Directory store.Directory
	Log       *zap.Logger
}

func NewCalculator(s store.Store, d store.Directory, log *zap.Logger) *Calculator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{Store: s, Directory: d, Log: log.Named("presence")}
}

// ClientPresence reads the client's records for the reference month and
// the one before, plus their enrollments for the recurrence estimate.
func (c *Calculator) ClientPresence(ctx context.Context, scope store.Scope, clientID uuid.UUID, ref time.Time) (*ClientReport, error) {
	if !scope.Valid() {
		return nil, store.ErrInvalidScope
	}
	from := calendar.PreviousMonth(ref)
	to := calendar.EndOfMonth(ref)
	records, _, err := c.Store.ListAttendanceRecords(ctx, scope, store.AttendanceFilter{
		ClientID: &clientID,
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	enrollments, err := c.Store.ListEnrollments(ctx, scope, store.EnrollmentFilter{ClientID: &clientID})
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	windows, err := c.windows(ctx, scope, enrollments)
	if err != nil {
		return nil, err
	}

	return &ClientReport{
		ClientID:  clientID,
		Reference: calendar.FormatDate(ref),
		Presence:  ComputePresenceStats(records, ref),
		Card:      ComputeCardStats(records, windows, ref),
	}, nil
}

// windows resolves each recurring enrollment against its class template:
// the weekday comes from the class unless the enrollment carries a copy,
// and the date window is the intersection of both.
func (c *Calculator) windows(ctx context.Context, scope store.Scope, enrollments []enrollmentModel.EnrollmentModel) ([]calendar.RecurringWindow, error) {
	classes := map[uuid.UUID]*scheduleModel.ClassModel{}
	out := make([]calendar.RecurringWindow, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		w := e.Window()
		if !w.Recurring || !w.Active || e.EnrollmentClassID == nil {
			out = append(out, w)
			continue
		}
		cls, seen := classes[*e.EnrollmentClassID]
		if !seen {
			got, err := c.Store.GetClass(ctx, store.ClassKey{Scope: scope, ClassID: *e.EnrollmentClassID})
			switch {
			case errors.Is(err, store.ErrNotFound):
				c.Log.Warn("enrollment class missing",
					zap.String(logger.FieldEnrollment, e.EnrollmentID.String()),
					zap.String(logger.FieldClassID, e.EnrollmentClassID.String()))
			case err != nil:
				return nil, fmt.Errorf("get class: %w", err)
			}
			cls = got
			classes[*e.EnrollmentClassID] = cls
		}
		if cls != nil {
			if e.EnrollmentWeekday == nil {
				w.Weekday = cls.ClassWeekday
			}
			w.StartDate = laterOf(w.StartDate, cls.ClassStartDate)
			w.EndDate = earlierOf(w.EndDate, cls.ClassEndDate)
		}
		out = append(out, w)
	}
	return out, nil
}

func laterOf(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || !b.After(*a) {
		return a
	}
	return b
}

func earlierOf(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || !b.Before(*a) {
		return a
	}
	return b
}
