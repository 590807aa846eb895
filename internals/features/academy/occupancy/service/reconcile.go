// file: internals/features/academy/occupancy/service/reconcile.go
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

const DefaultReconcileHorizonDays = 60

type ReconcileReport struct {
	Scopes   int `json:"scopes"`
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

func (r *ReconcileReport) add(o ReconcileReport) {
	r.Scopes += o.Scopes
	r.Checked += o.Checked
	r.Repaired += o.Repaired
	r.Failed += o.Failed
}

/* =========================
   Reconciler
   recounts enrolled_count from the enrollments themselves and repairs
   drift left by partially applied bulk bumps
========================= */

type Reconciler struct {
	Store       store.Store
	Log         *zap.Logger
	Now         func() time.Time
	Loc         *time.Location
	HorizonDays int
}

func NewReconciler(s store.Store, log *zap.Logger, loc *time.Location) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		Store:       s,
		Log:         log.Named("reconcile"),
		Now:         time.Now,
		Loc:         loc,
		HorizonDays: DefaultReconcileHorizonDays,
	}
}

// Run sweeps every scope. A failing scope is logged and counted.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var total ReconcileReport
	scopes, err := r.Store.ListScopes(ctx)
	if err != nil {
		return total, fmt.Errorf("list scopes: %w", err)
	}
	for _, scope := range scopes {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rep, err := r.RunScope(ctx, scope)
		total.add(rep)
		if err != nil {
			total.Failed++
			r.Log.Error("reconcile scope failed",
				zap.String(logger.FieldTenantID, scope.TenantID.String()),
				zap.String(logger.FieldBranchID, scope.BranchID.String()),
				zap.Error(err))
		}
	}
	r.Log.Info("reconcile finished",
		zap.Int("scopes", total.Scopes),
		zap.Int("checked", total.Checked),
		zap.Int("repaired", total.Repaired),
		zap.Int("failed", total.Failed))
	return total, nil
}

// RunScope checks sessions from tomorrow through the horizon. Today is
// skipped while the desk may still be taking attendance.
func (r *Reconciler) RunScope(ctx context.Context, scope store.Scope) (ReconcileReport, error) {
	rep := ReconcileReport{Scopes: 1}
	if !scope.Valid() {
		return rep, store.ErrInvalidScope
	}
	horizon := r.HorizonDays
	if horizon <= 0 {
		horizon = DefaultReconcileHorizonDays
	}
	from := calendar.AddDays(calendar.Today(r.Now(), r.Loc), 1)
	to := calendar.AddDays(from, horizon-1)

	sessions, err := r.Store.ListSessions(ctx, scope, from, to)
	if err != nil {
		return rep, fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return rep, nil
	}
	enrollments, err := r.Store.ListEnrollments(ctx, scope, store.EnrollmentFilter{
		Statuses: []enrollmentModel.EnrollmentStatus{enrollmentModel.EnrollmentActive},
	})
	if err != nil {
		return rep, fmt.Errorf("list enrollments: %w", err)
	}

	for i := range sessions {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		s := &sessions[i]
		rep.Checked++
		want := ExpectedEnrolled(s, enrollments)
		if want == s.ClassSessionEnrolledCount {
			continue
		}
		fixed, err := r.repair(ctx, store.SessionKey{Scope: scope, SessionID: s.ClassSessionID}, enrollments)
		if err != nil {
			rep.Failed++
			r.Log.Warn("reconcile repair failed", zap.String(logger.FieldSessionID, s.ClassSessionID.String()), zap.Error(err))
			continue
		}
		if fixed {
			rep.Repaired++
		}
	}
	return rep, nil
}

// repair recomputes inside the transaction so a bump landing between the
// scan and the write is not overwritten with a stale count.
func (r *Reconciler) repair(ctx context.Context, key store.SessionKey, enrollments []enrollmentModel.EnrollmentModel) (bool, error) {
	fixed := false
	err := r.Store.Transact(ctx, func(tx store.Tx) error {
		s, err := tx.GetSession(key)
		if err != nil {
			return err
		}
		want := ExpectedEnrolled(s, enrollments)
		if want == s.ClassSessionEnrolledCount {
			return nil
		}
		r.Log.Info("enrolled count repaired",
			zap.String(logger.FieldSessionID, key.SessionID.String()),
			zap.Int("was", s.ClassSessionEnrolledCount),
			zap.Int("now", want))
		fixed = true
		return tx.SetEnrolledCount(key, want, r.Now())
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return fixed, err
}

// ExpectedEnrolled counts the active bindings of one session: recurring
// enrollments of its class covering its date, single-session enrollments
// pointing at it, and its extras (kept on the row or in the saved roster).
func ExpectedEnrolled(s *scheduleModel.ClassSessionModel, active []enrollmentModel.EnrollmentModel) int {
	day := calendar.DateOf(s.ClassSessionDate)
	n := 0
	for i := range active {
		e := &active[i]
		if !e.IsActive() {
			continue
		}
		switch e.EnrollmentType {
		case enrollmentModel.EnrollmentRecurring:
			if s.ClassSessionClassID != nil && e.EnrollmentClassID != nil &&
				*e.EnrollmentClassID == *s.ClassSessionClassID && e.CoversDate(day) {
				n++
			}
		case enrollmentModel.EnrollmentExperimental, enrollmentModel.EnrollmentSingleSession:
			if e.EnrollmentSessionID != nil && *e.EnrollmentSessionID == s.ClassSessionID {
				n++
			}
		}
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range s.Extras() {
		if !seen[id] {
			seen[id] = true
			n++
		}
	}
	if s.ClassSessionAttendanceRecorded {
		if roster, err := s.Roster(); err == nil {
			for _, entry := range roster {
				if entry.IsExtra && !seen[entry.ClientID] {
					seen[entry.ClientID] = true
					n++
				}
			}
		}
	}
	return n
}
