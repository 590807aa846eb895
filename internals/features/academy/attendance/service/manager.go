// file: internals/features/academy/attendance/service/manager.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	occupancyService "academy_backend/internals/features/academy/occupancy/service"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/helpers/dbtime"
	"academy_backend/internals/helpers/logger"
)

var ErrClientNotFound = errors.New("attendance: client not found")

// Bumper is the occupancy side of extra participants; *occupancyService.Engine
// satisfies it.
type Bumper interface {
	BumpSessionIf(ctx context.Context, key store.SessionKey, delta int, guard occupancyService.Guard) (occupancyService.Result, error)
}

// Sheet is what the attendance screen loads for one session.
type Sheet struct {
	SessionID    uuid.UUID  `json:"session_id"`
	ClassID      *uuid.UUID `json:"class_id,omitempty"`
	Date         string     `json:"date"`
	StartTime    dbtime.Tod `json:"start_time"`
	EndTime      dbtime.Tod `json:"end_time"`
	Recorded     bool       `json:"attendance_recorded"`
	PresentCount int        `json:"present_count"`
	AbsentCount  int        `json:"absent_count"`
	Roster       Roster     `json:"roster"`
}

type SaveResult struct {
	PresentCount int `json:"present_count"`
	AbsentCount  int `json:"absent_count"`
	Records      int `json:"records"`
	Skipped      int `json:"skipped_editing"`
}

/* =========================
   Manager
   sole writer of the snapshot and the present/absent counters
========================= */

type Manager struct {
	Store     store.Store
	Directory store.Directory
	Bumper    Bumper
	Log       *zap.Logger
	Now       func() time.Time
}

func NewManager(s store.Store, d store.Directory, b Bumper, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{Store: s, Directory: d, Bumper: b, Log: log.Named("attendance"), Now: time.Now}
}

// Load returns the saved snapshot verbatim when attendance was recorded;
// otherwise a fresh all-present roster from the active enrollments bound
// to the session plus its extras.
func (m *Manager) Load(ctx context.Context, key store.SessionKey) (*Sheet, error) {
	if !key.Valid() {
		return nil, store.ErrInvalidScope
	}
	s, err := m.Store.GetSession(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sheet := &Sheet{
		SessionID:    s.ClassSessionID,
		ClassID:      s.ClassSessionClassID,
		Date:         calendar.FormatDate(s.ClassSessionDate),
		StartTime:    s.ClassSessionStartTime,
		EndTime:      s.ClassSessionEndTime,
		Recorded:     s.ClassSessionAttendanceRecorded,
		PresentCount: s.ClassSessionPresentCount,
		AbsentCount:  s.ClassSessionAbsentCount,
	}

	if s.ClassSessionAttendanceRecorded {
		saved, err := s.Roster()
		if err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		sheet.Roster = Roster(saved)
		if sheet.Roster == nil {
			sheet.Roster = Roster{}
		}
		return sheet, nil
	}

	bound, err := m.boundEnrollments(ctx, key.Scope, s)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(bound))
	seen := map[uuid.UUID]bool{}
	for _, e := range bound {
		ids = append(ids, e.EnrollmentClientID)
		seen[e.EnrollmentClientID] = true
	}
	var extras []uuid.UUID
	for _, id := range s.Extras() {
		if !seen[id] {
			seen[id] = true
			extras = append(extras, id)
			ids = append(ids, id)
		}
	}
	clients := map[uuid.UUID]directoryModel.ClientModel{}
	if len(ids) > 0 && m.Directory != nil {
		if clients, err = m.Directory.LookupClients(ctx, key.Scope, ids); err != nil {
			return nil, fmt.Errorf("lookup clients: %w", err)
		}
	}

	roster := make(Roster, 0, len(bound))
	for i := range bound {
		e := &bound[i]
		entry := attendanceModel.RosterEntry{ClientID: e.EnrollmentClientID, Status: attendanceModel.StatusPresent}
		if c, ok := clients[e.EnrollmentClientID]; ok {
			entry = EntryFromClient(c)
		}
		eid := e.EnrollmentID
		entry.EnrollmentID = &eid
		roster = append(roster, entry)
	}
	for _, id := range extras {
		entry := attendanceModel.RosterEntry{ClientID: id, Status: attendanceModel.StatusPresent}
		if c, ok := clients[id]; ok {
			entry = EntryFromClient(c)
		}
		entry.IsExtra = true
		roster = append(roster, entry)
	}
	roster.sortByName()
	sheet.Roster = roster
	return sheet, nil
}

// boundEnrollments lists the active enrollments attached to s, one per
// client: recurring ones of its class covering its date, plus single
// bindings pointing at it.
func (m *Manager) boundEnrollments(ctx context.Context, scope store.Scope, s *scheduleModel.ClassSessionModel) ([]enrollmentModel.EnrollmentModel, error) {
	active := []enrollmentModel.EnrollmentStatus{enrollmentModel.EnrollmentActive}
	var out []enrollmentModel.EnrollmentModel
	seen := map[uuid.UUID]bool{}

	if s.ClassSessionClassID != nil {
		rec, err := m.Store.ListEnrollments(ctx, scope, store.EnrollmentFilter{
			ClassID:  s.ClassSessionClassID,
			Types:    []enrollmentModel.EnrollmentType{enrollmentModel.EnrollmentRecurring},
			Statuses: active,
		})
		if err != nil {
			return nil, fmt.Errorf("list recurring enrollments: %w", err)
		}
		for _, e := range rec {
			if e.CoversDate(s.ClassSessionDate) && !seen[e.EnrollmentClientID] {
				seen[e.EnrollmentClientID] = true
				out = append(out, e)
			}
		}
	}

	sid := s.ClassSessionID
	single, err := m.Store.ListEnrollments(ctx, scope, store.EnrollmentFilter{
		SessionID: &sid,
		Types:     []enrollmentModel.EnrollmentType{enrollmentModel.EnrollmentExperimental, enrollmentModel.EnrollmentSingleSession},
		Statuses:  active,
	})
	if err != nil {
		return nil, fmt.Errorf("list session enrollments: %w", err)
	}
	for _, e := range single {
		if !seen[e.EnrollmentClientID] {
			seen[e.EnrollmentClientID] = true
			out = append(out, e)
		}
	}
	return out, nil
}

// Save validates the roster, then writes every per-client record and the
// snapshot in one transaction. Entries still in editing get no record and
// are kept in the snapshot as present.
func (m *Manager) Save(ctx context.Context, key store.SessionKey, roster Roster) (SaveResult, error) {
	var res SaveResult
	if !key.Valid() {
		return res, store.ErrInvalidScope
	}
	roster.Normalize()
	if err := roster.Validate(); err != nil {
		return res, err
	}
	res.PresentCount, res.AbsentCount = roster.Counts()

	types, err := m.enrollmentTypes(ctx, key.Scope, roster)
	if err != nil {
		return res, err
	}

	now := m.Now()
	err = m.Store.Transact(ctx, func(tx store.Tx) error {
		s, err := tx.GetSession(key)
		if err != nil {
			return err
		}
		written := 0
		for _, e := range roster {
			if e.Status == attendanceModel.StatusEditing {
				continue
			}
			rec := &attendanceModel.AttendanceRecordModel{
				AttendanceRecordID:           RecordID(key.SessionID, e.ClientID),
				AttendanceRecordTenantID:     key.TenantID,
				AttendanceRecordBranchID:     key.BranchID,
				AttendanceRecordSessionID:    key.SessionID,
				AttendanceRecordClientID:     e.ClientID,
				AttendanceRecordClassID:      s.ClassSessionClassID,
				AttendanceRecordEnrollmentID: e.EnrollmentID,
				AttendanceRecordSessionDate:  calendar.DateOf(s.ClassSessionDate),
				AttendanceRecordStatus:       string(e.Status),
				AttendanceRecordRecordedAt:   now,
			}
			if e.EnrollmentID != nil {
				if t, ok := types[*e.EnrollmentID]; ok {
					ts := string(t)
					rec.AttendanceRecordEnrollmentType = &ts
				}
			}
			if e.Justification != "" {
				j := e.Justification
				rec.AttendanceRecordJustification = &j
			}
			if err := tx.PutAttendanceRecord(rec); err != nil {
				return fmt.Errorf("record %s: %w", e.ClientID, err)
			}
			written++
		}
		res.Records = written
		res.Skipped = len(roster) - written

		return tx.PutAttendanceSnapshot(key, store.Snapshot{
			Roster:       roster.Settled(),
			PresentCount: res.PresentCount,
			AbsentCount:  res.AbsentCount,
			At:           now,
		})
	})
	if err != nil {
		m.Log.Error("attendance save failed",
			zap.String(logger.FieldSessionID, key.SessionID.String()),
			zap.Int("roster", len(roster)),
			zap.Error(err))
		return SaveResult{}, err
	}
	m.Log.Info("attendance saved",
		zap.String(logger.FieldSessionID, key.SessionID.String()),
		zap.Int("present", res.PresentCount),
		zap.Int("absent", res.AbsentCount),
		zap.Int("records", res.Records))
	return res, nil
}

func (m *Manager) enrollmentTypes(ctx context.Context, scope store.Scope, roster Roster) (map[uuid.UUID]enrollmentModel.EnrollmentType, error) {
	out := map[uuid.UUID]enrollmentModel.EnrollmentType{}
	for _, e := range roster {
		if e.EnrollmentID == nil {
			continue
		}
		cid := e.ClientID
		list, err := m.Store.ListEnrollments(ctx, scope, store.EnrollmentFilter{ClientID: &cid})
		if err != nil {
			return nil, fmt.Errorf("list client enrollments: %w", err)
		}
		for _, en := range list {
			if en.EnrollmentID == *e.EnrollmentID {
				out[en.EnrollmentID] = en.EnrollmentType
			}
		}
	}
	return out, nil
}

// RecordID is stable per (session, client) so a re-save overwrites.
func RecordID(sessionID, clientID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(sessionID, clientID[:])
}

/* =========================
   Extra participants
   each add/remove is its own occupancy event, independent of Save
========================= */

// AddExtraParticipant puts clientID on the session as an extra and counts
// it in enrolled_count. A client already bound to the session by an
// enrollment, already an extra, or already in the saved roster is refused
// with ErrAlreadyInRoster and nothing changes.
func (m *Manager) AddExtraParticipant(ctx context.Context, key store.SessionKey, clientID uuid.UUID) (attendanceModel.RosterEntry, occupancyService.Result, error) {
	var none attendanceModel.RosterEntry
	if !key.Valid() {
		return none, occupancyService.Result{}, store.ErrInvalidScope
	}
	clients, err := m.Directory.LookupClients(ctx, key.Scope, []uuid.UUID{clientID})
	if err != nil {
		return none, occupancyService.Result{}, fmt.Errorf("lookup client: %w", err)
	}
	c, ok := clients[clientID]
	if !ok {
		return none, occupancyService.Result{}, ErrClientNotFound
	}

	s, err := m.Store.GetSession(ctx, key)
	if err != nil {
		return none, occupancyService.Result{}, fmt.Errorf("get session: %w", err)
	}
	bound, err := m.boundEnrollments(ctx, key.Scope, s)
	if err != nil {
		return none, occupancyService.Result{}, err
	}
	for _, e := range bound {
		if e.EnrollmentClientID == clientID {
			return none, occupancyService.Result{}, ErrAlreadyInRoster
		}
	}

	now := m.Now()
	res, err := m.Bumper.BumpSessionIf(ctx, key, +1, func(tx store.Tx, s *scheduleModel.ClassSessionModel) error {
		if s.HasExtra(clientID) {
			return ErrAlreadyInRoster
		}
		saved, err := savedRoster(s)
		if err != nil {
			return err
		}
		if saved.Index(clientID) >= 0 {
			return ErrAlreadyInRoster
		}
		return tx.SetExtras(key, append(s.Extras(), clientID), now)
	})
	if err != nil {
		return none, res, err
	}
	if res.Reason == occupancyService.ReasonSessionNotFound {
		return none, res, store.ErrNotFound
	}
	entry := EntryFromClient(c)
	entry.IsExtra = true
	m.Log.Info("extra participant added",
		zap.String(logger.FieldSessionID, key.SessionID.String()),
		zap.String(logger.FieldClientID, clientID.String()))
	return entry, res, nil
}

// RemoveExtraParticipant undoes AddExtraParticipant. The client must be an
// extra of the session, on the row or in the saved roster; anyone else
// gets ErrNotInRoster. A saved roster loses the entry and its counts are
// recomputed.
func (m *Manager) RemoveExtraParticipant(ctx context.Context, key store.SessionKey, clientID uuid.UUID) (occupancyService.Result, error) {
	if !key.Valid() {
		return occupancyService.Result{}, store.ErrInvalidScope
	}
	now := m.Now()
	res, err := m.Bumper.BumpSessionIf(ctx, key, -1, func(tx store.Tx, s *scheduleModel.ClassSessionModel) error {
		saved, err := savedRoster(s)
		if err != nil {
			return err
		}
		i := saved.Index(clientID)
		inSaved := i >= 0 && saved[i].IsExtra
		onRow := s.HasExtra(clientID)
		if !inSaved && !onRow {
			return ErrNotInRoster
		}
		if onRow {
			rest := make([]uuid.UUID, 0, len(s.ClassSessionExtraClientIDs))
			for _, id := range s.Extras() {
				if id != clientID {
					rest = append(rest, id)
				}
			}
			if err := tx.SetExtras(key, rest, now); err != nil {
				return err
			}
		}
		if inSaved {
			if err := saved.RemoveExtra(clientID); err != nil {
				return err
			}
			present, absent := saved.Counts()
			return tx.PutAttendanceSnapshot(key, store.Snapshot{
				Roster:       saved,
				PresentCount: present,
				AbsentCount:  absent,
				At:           now,
			})
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	if res.Reason == occupancyService.ReasonSessionNotFound {
		return res, store.ErrNotFound
	}
	m.Log.Info("extra participant removed",
		zap.String(logger.FieldSessionID, key.SessionID.String()),
		zap.String(logger.FieldClientID, clientID.String()))
	return res, nil
}

// savedRoster is the recorded snapshot of s, empty when none was saved.
func savedRoster(s *scheduleModel.ClassSessionModel) (Roster, error) {
	if !s.ClassSessionAttendanceRecorded {
		return nil, nil
	}
	saved, err := s.Roster()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return Roster(saved), nil
}
