// file: internals/features/academy/occupancy/service/engine.go
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

const (
	DefaultBatchSize = store.BulkChunkSize
	// MaxWindowDays caps how far past its start one recurring trigger reaches.
	MaxWindowDays = 730
)

// No-op and failure reasons carried in Result.Reason.
const (
	ReasonApplied         = "applied"
	ReasonNoStatusChange  = "no_status_change"
	ReasonMissingScope    = "missing_scope"
	ReasonMissingClass    = "missing_class"
	ReasonMissingSession  = "missing_session"
	ReasonSessionNotFound = "session_not_found"
	ReasonSessionInPast   = "session_in_past"
	ReasonNoSessions      = "no_matching_sessions"
	ReasonEmptyWindow     = "empty_window"
	ReasonUnknownType     = "unknown_enrollment_type"
	ReasonUnknownEvent    = "unknown_event_kind"
	ReasonStoreError      = "store_error"
	ReasonRejected        = "rejected"
)

// Result describes what one occupancy change did. Applied is false for
// every no-op; Reason says why.
type Result struct {
	Applied        bool                           `json:"applied"`
	Reason         string                         `json:"reason"`
	Kind           enrollmentModel.EventKind      `json:"kind,omitempty"`
	EnrollmentType enrollmentModel.EnrollmentType `json:"enrollment_type,omitempty"`
	Delta          int                            `json:"delta"`
	Matched        int                            `json:"matched"`
	Touched        int                            `json:"touched"`
	EnrolledCount  *int                           `json:"enrolled_count,omitempty"`
}

func noop(reason string) Result { return Result{Reason: reason} }

/* =========================
   Engine
   sole writer of class_session_enrolled_count
========================= */

type Engine struct {
	Store         store.Store
	Log           *zap.Logger
	Now           func() time.Time
	Loc           *time.Location
	BatchSize     int
	MaxWindowDays int
}

func NewEngine(s store.Store, log *zap.Logger, loc *time.Location) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		Store:         s,
		Log:           log.Named("occupancy"),
		Now:           time.Now,
		Loc:           loc,
		BatchSize:     DefaultBatchSize,
		MaxWindowDays: MaxWindowDays,
	}
}

func (e *Engine) today() time.Time { return calendar.Today(e.Now(), e.Loc) }

// Delta is the counter change an event implies: entering active is +1,
// leaving it is -1, anything else 0.
func Delta(kind enrollmentModel.EventKind, before, after *enrollmentModel.EnrollmentModel) int {
	switch kind {
	case enrollmentModel.EventCreate:
		if after.IsActive() {
			return 1
		}
	case enrollmentModel.EventDelete:
		if before.IsActive() {
			return -1
		}
	case enrollmentModel.EventUpdate:
		was, is := before.IsActive(), after.IsActive()
		switch {
		case !was && is:
			return 1
		case was && !is:
			return -1
		}
	}
	return 0
}

// Handle is the trigger entry point. It never returns an error; every
// outcome, no-ops included, is logged.
func (e *Engine) Handle(ctx context.Context, ev enrollmentModel.EnrollmentEvent) Result {
	var res Result
	switch ev.Kind {
	case enrollmentModel.EventCreate:
		res = e.OnCreate(ctx, ev.After)
	case enrollmentModel.EventUpdate:
		res = e.OnUpdate(ctx, ev.Before, ev.After)
	case enrollmentModel.EventDelete:
		res = e.OnDelete(ctx, ev.Before)
	default:
		res = noop(ReasonUnknownEvent)
	}
	res.Kind = ev.Kind
	e.logResult(ev, res)
	return res
}

func (e *Engine) OnCreate(ctx context.Context, after *enrollmentModel.EnrollmentModel) Result {
	if after == nil {
		return noop(ReasonMissingScope)
	}
	return e.apply(ctx, after, Delta(enrollmentModel.EventCreate, nil, after), false)
}

// OnUpdate only looks forward: recurring changes never touch sessions
// before today.
func (e *Engine) OnUpdate(ctx context.Context, before, after *enrollmentModel.EnrollmentModel) Result {
	binding := after
	if binding == nil {
		binding = before
	}
	if binding == nil {
		return noop(ReasonMissingScope)
	}
	return e.apply(ctx, binding, Delta(enrollmentModel.EventUpdate, before, after), true)
}

func (e *Engine) OnDelete(ctx context.Context, before *enrollmentModel.EnrollmentModel) Result {
	if before == nil {
		return noop(ReasonMissingScope)
	}
	return e.apply(ctx, before, Delta(enrollmentModel.EventDelete, before, nil), false)
}

func (e *Engine) apply(ctx context.Context, en *enrollmentModel.EnrollmentModel, delta int, recheck bool) Result {
	var res Result
	switch {
	case delta == 0:
		res = noop(ReasonNoStatusChange)
	case en.EnrollmentTenantID == uuid.Nil || en.EnrollmentBranchID == uuid.Nil:
		res = noop(ReasonMissingScope)
	default:
		scope := store.Scope{TenantID: en.EnrollmentTenantID, BranchID: en.EnrollmentBranchID}
		switch en.EnrollmentType {
		case enrollmentModel.EnrollmentExperimental, enrollmentModel.EnrollmentSingleSession:
			res = e.applySingle(ctx, scope, en, delta)
		case enrollmentModel.EnrollmentRecurring:
			res = e.applyRecurring(ctx, scope, en, delta, recheck)
		default:
			res = noop(ReasonUnknownType)
		}
	}
	res.EnrollmentType = en.EnrollmentType
	res.Delta = delta
	return res
}

func (e *Engine) applySingle(ctx context.Context, scope store.Scope, en *enrollmentModel.EnrollmentModel, delta int) Result {
	if en.EnrollmentSessionID == nil || *en.EnrollmentSessionID == uuid.Nil || en.EnrollmentSessionDate == nil {
		return noop(ReasonMissingSession)
	}
	if calendar.DateOf(*en.EnrollmentSessionDate).Before(e.today()) {
		return noop(ReasonSessionInPast)
	}
	res, err := e.BumpSession(ctx, store.SessionKey{Scope: scope, SessionID: *en.EnrollmentSessionID}, delta)
	if err != nil {
		res.Reason = ReasonStoreError
		e.Log.Error("session bump failed", zap.String(logger.FieldSessionID, en.EnrollmentSessionID.String()), zap.Error(err))
	}
	return res
}

func (e *Engine) applyRecurring(ctx context.Context, scope store.Scope, en *enrollmentModel.EnrollmentModel, delta int, recheck bool) Result {
	if en.EnrollmentClassID == nil || *en.EnrollmentClassID == uuid.Nil {
		return noop(ReasonMissingClass)
	}
	start, end := e.RecurringWindow(en, recheck)
	if end.Before(start) {
		return noop(ReasonEmptyWindow)
	}
	res, err := e.BumpRecurring(ctx, store.ClassKey{Scope: scope, ClassID: *en.EnrollmentClassID}, start, end, delta)
	if err != nil {
		res.Reason = ReasonStoreError
		e.Log.Error("recurring bump failed",
			zap.String(logger.FieldClassID, en.EnrollmentClassID.String()),
			zap.Int("touched", res.Touched),
			zap.Int("matched", res.Matched),
			zap.Error(err))
	}
	return res
}

// RecurringWindow resolves [effectiveStart, effectiveEnd] for a recurring
// enrollment. Create and delete start at the enrollment start (or today);
// a recheck starts at the later of today and the enrollment start. The end
// never passes start + MaxWindowDays.
func (e *Engine) RecurringWindow(en *enrollmentModel.EnrollmentModel, recheck bool) (time.Time, time.Time) {
	start := e.today()
	if en.EnrollmentStartDate != nil {
		own := calendar.DateOf(*en.EnrollmentStartDate)
		if !recheck || own.After(start) {
			start = own
		}
	}
	maxDays := e.MaxWindowDays
	if maxDays <= 0 {
		maxDays = MaxWindowDays
	}
	ceiling := calendar.AddDays(start, maxDays)
	end := ceiling
	if en.EnrollmentEndDate != nil {
		if d := calendar.DateOf(*en.EnrollmentEndDate); d.Before(ceiling) {
			end = d
		}
	}
	return start, end
}

/* =========================
   Bumps
========================= */

// BumpSession adds delta to one session inside a transaction. A missing
// session is a no-op (Reason session_not_found), not an error.
func (e *Engine) BumpSession(ctx context.Context, key store.SessionKey, delta int) (Result, error) {
	return e.BumpSessionIf(ctx, key, delta, nil)
}

// Guard runs inside a bump transaction after the session is read. It may
// write other session state through tx; an error cancels the bump.
type Guard func(tx store.Tx, s *scheduleModel.ClassSessionModel) error

// BumpSessionIf is BumpSession with a guard deciding, in the same
// transaction, whether the bump may happen. A guard error comes back
// unwrapped with Reason rejected.
func (e *Engine) BumpSessionIf(ctx context.Context, key store.SessionKey, delta int, guard Guard) (Result, error) {
	if !key.Valid() {
		return noop(ReasonMissingSession), nil
	}
	if delta == 0 {
		return noop(ReasonNoStatusChange), nil
	}
	now := e.Now()
	var count int
	var refused error
	err := e.Store.Transact(ctx, func(tx store.Tx) error {
		s, err := tx.GetSession(key)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(tx, s); err != nil {
				refused = err
				return err
			}
		}
		count = s.ClassSessionEnrolledCount + delta
		if count < 0 {
			count = 0
		}
		return tx.SetEnrolledCount(key, count, now)
	})
	if refused != nil {
		return Result{Reason: ReasonRejected, Delta: delta}, refused
	}
	if errors.Is(err, store.ErrNotFound) {
		return Result{Reason: ReasonSessionNotFound, Delta: delta}, nil
	}
	if err != nil {
		return Result{Reason: ReasonStoreError, Delta: delta, Matched: 1}, fmt.Errorf("bump session %s: %w", key.SessionID, err)
	}
	return Result{Applied: true, Reason: ReasonApplied, Delta: delta, Matched: 1, Touched: 1, EnrolledCount: &count}, nil
}

// BumpRecurring adds delta to every session of the class dated in
// [from, to], one atomic chunk at a time. A failed chunk stops the run;
// earlier chunks stay applied and Result.Touched says how many.
func (e *Engine) BumpRecurring(ctx context.Context, key store.ClassKey, from, to time.Time, delta int) (Result, error) {
	if !key.Valid() {
		return noop(ReasonMissingClass), nil
	}
	sessions, err := e.Store.FindClassSessions(ctx, key, from, to)
	if err != nil {
		return Result{Reason: ReasonStoreError, Delta: delta}, fmt.Errorf("find class sessions: %w", err)
	}
	res := Result{Delta: delta, Matched: len(sessions)}
	if len(sessions) == 0 {
		res.Reason = ReasonNoSessions
		return res, nil
	}

	incs := make([]store.Increment, 0, len(sessions))
	for _, s := range sessions {
		incs = append(incs, store.Increment{SessionID: s.ClassSessionID, Delta: delta})
	}

	now := e.Now()
	for i, chunk := range store.Chunk(incs, e.BatchSize) {
		if err := ctx.Err(); err != nil {
			res.Applied = res.Touched > 0
			res.Reason = ReasonStoreError
			return res, err
		}
		if err := e.Store.ApplyEnrolledIncrements(ctx, key.Scope, chunk, now); err != nil {
			res.Applied = res.Touched > 0
			res.Reason = ReasonStoreError
			return res, fmt.Errorf("batch %d: %w (%d of %d sessions already updated)", i+1, err, res.Touched, res.Matched)
		}
		res.Touched += len(chunk)
	}
	res.Applied = true
	res.Reason = ReasonApplied
	return res, nil
}

func (e *Engine) logResult(ev enrollmentModel.EnrollmentEvent, res Result) {
	fields := []zap.Field{
		zap.String(logger.FieldEventKind, string(ev.Kind)),
		zap.String("enrollment_type", string(res.EnrollmentType)),
		zap.Int(logger.FieldDelta, res.Delta),
		zap.Bool("applied", res.Applied),
		zap.String("reason", res.Reason),
		zap.Int("matched", res.Matched),
		zap.Int("touched", res.Touched),
	}
	if en := ev.After; en != nil || ev.Before != nil {
		if en == nil {
			en = ev.Before
		}
		fields = append(fields,
			zap.String(logger.FieldEnrollment, en.EnrollmentID.String()),
			zap.String(logger.FieldTenantID, en.EnrollmentTenantID.String()),
			zap.String(logger.FieldBranchID, en.EnrollmentBranchID.String()),
		)
	}
	switch {
	case res.Reason == ReasonStoreError:
		e.Log.Error("occupancy trigger failed", fields...)
	case res.Applied:
		e.Log.Info("occupancy updated", fields...)
	default:
		e.Log.Info("occupancy no-op", fields...)
	}
}
