// file: internals/features/academy/store/firestore_docs.go
package store

import (
	"time"

	"github.com/google/uuid"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/helpers/dbtime"
)

/* =========================
   Document shapes
   ids live in the document path; references are plain strings
========================= */

type classDoc struct {
	ActivityID      string     `firestore:"idActivity"`
	InstructorID    string     `firestore:"idInstructor,omitempty"`
	AreaID          string     `firestore:"idArea,omitempty"`
	Name            string     `firestore:"name"`
	Weekday         int        `firestore:"weekday"`
	StartTime       string     `firestore:"startTime"`
	DurationMinutes int        `firestore:"durationMinutes"`
	Capacity        int        `firestore:"capacity"`
	StartDate       *time.Time `firestore:"startDate"`
	EndDate         *time.Time `firestore:"endDate"`
	Active          bool       `firestore:"active"`
	CreatedAt       time.Time  `firestore:"createdAt"`
	UpdatedAt       time.Time  `firestore:"updatedAt"`
}

type rosterDoc struct {
	ClientID      string  `firestore:"idClient"`
	EnrollmentID  *string `firestore:"enrollmentId"`
	Name          string  `firestore:"name"`
	Tag           string  `firestore:"tag"`
	Photo         string  `firestore:"photo"`
	Status        string  `firestore:"status"`
	Justification string  `firestore:"justification"`
	IsExtra       bool    `firestore:"isExtra"`
}

type sessionDoc struct {
	ClassID            string      `firestore:"idClass"`
	ActivityID         string      `firestore:"idActivity"`
	InstructorID       string      `firestore:"idInstructor,omitempty"`
	AreaID             string      `firestore:"idArea,omitempty"`
	SessionDate        time.Time   `firestore:"sessionDate"`
	StartTime          string      `firestore:"startTime"`
	EndTime            string      `firestore:"endTime"`
	Capacity           int         `firestore:"capacity"`
	EnrolledCount      int         `firestore:"enrolledCount"`
	ExtraClientIDs     []string    `firestore:"extraClientIds"`
	AttendanceRecorded bool        `firestore:"attendanceRecorded"`
	AttendanceSnapshot []rosterDoc `firestore:"attendanceSnapshot"`
	PresentCount       int         `firestore:"presentCount"`
	AbsentCount        int         `firestore:"absentCount"`
	CreatedAt          time.Time   `firestore:"createdAt"`
	UpdatedAt          time.Time   `firestore:"updatedAt"`
}

type enrollmentDoc struct {
	ClientID    string     `firestore:"idClient"`
	Type        string     `firestore:"type"`
	Status      string     `firestore:"status"`
	ClassID     string     `firestore:"idClass"`
	Weekday     *int       `firestore:"weekday"`
	StartDate   *time.Time `firestore:"startDate"`
	EndDate     *time.Time `firestore:"endDate"`
	SessionID   string     `firestore:"idSession"`
	SessionDate *time.Time `firestore:"sessionDate"`
	CreatedAt   time.Time  `firestore:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt"`
}

type attendanceDoc struct {
	SessionID      string    `firestore:"idSession"`
	ClientID       string    `firestore:"idClient"`
	ClassID        string    `firestore:"idClass"`
	SessionDate    time.Time `firestore:"sessionDate"`
	EnrollmentID   *string   `firestore:"idEnrollment"`
	EnrollmentType *string   `firestore:"type"`
	Status         string    `firestore:"status"`
	Justification  string    `firestore:"justification"`
	RecordedAt     time.Time `firestore:"recordedAt"`
}

type clientDoc struct {
	Name      string    `firestore:"name"`
	Tag       string    `firestore:"tag"`
	Photo     string    `firestore:"photo"`
	Active    bool      `firestore:"active"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type activityDoc struct {
	Name  string `firestore:"name"`
	Color string `firestore:"color"`
}

/* =========================
   id helpers
========================= */

func idString(p *uuid.UUID) string {
	if p == nil || *p == uuid.Nil {
		return ""
	}
	return p.String()
}

func idPtrString(p *uuid.UUID) *string {
	if p == nil || *p == uuid.Nil {
		return nil
	}
	s := p.String()
	return &s
}

func parseIDPtr(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func parseIDPtrPtr(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	return parseIDPtr(*s)
}

func parseID(s string) uuid.UUID {
	if p := parseIDPtr(s); p != nil {
		return *p
	}
	return uuid.Nil
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := calendar.DateOf(*t)
	return &d
}

/* =========================
   Conversions
========================= */

func classFromDoc(scope Scope, id string, d classDoc) scheduleModel.ClassModel {
	start, _ := dbtime.ParseTod(d.StartTime)
	return scheduleModel.ClassModel{
		ClassID:              parseID(id),
		ClassTenantID:        scope.TenantID,
		ClassBranchID:        scope.BranchID,
		ClassActivityID:      parseID(d.ActivityID),
		ClassInstructorID:    parseIDPtr(d.InstructorID),
		ClassAreaID:          parseIDPtr(d.AreaID),
		ClassName:            d.Name,
		ClassWeekday:         d.Weekday,
		ClassStartTime:       start,
		ClassDurationMinutes: d.DurationMinutes,
		ClassCapacity:        d.Capacity,
		ClassStartDate:       datePtr(d.StartDate),
		ClassEndDate:         datePtr(d.EndDate),
		ClassIsActive:        d.Active,
		ClassCreatedAt:       d.CreatedAt,
		ClassUpdatedAt:       d.UpdatedAt,
	}
}

func rosterToDocs(roster []attendanceModel.RosterEntry) []rosterDoc {
	out := make([]rosterDoc, 0, len(roster))
	for _, r := range roster {
		out = append(out, rosterDoc{
			ClientID:      r.ClientID.String(),
			EnrollmentID:  idPtrString(r.EnrollmentID),
			Name:          r.Name,
			Tag:           r.Tag,
			Photo:         r.Photo,
			Status:        string(r.Status),
			Justification: r.Justification,
			IsExtra:       r.IsExtra,
		})
	}
	return out
}

func rosterFromDocs(docs []rosterDoc) []attendanceModel.RosterEntry {
	out := make([]attendanceModel.RosterEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, attendanceModel.RosterEntry{
			ClientID:      parseID(d.ClientID),
			EnrollmentID:  parseIDPtrPtr(d.EnrollmentID),
			Name:          d.Name,
			Tag:           d.Tag,
			Photo:         d.Photo,
			Status:        attendanceModel.AttendanceStatus(d.Status),
			Justification: d.Justification,
			IsExtra:       d.IsExtra,
		})
	}
	return out
}

func sessionFromDoc(scope Scope, id string, d sessionDoc) (scheduleModel.ClassSessionModel, error) {
	start, _ := dbtime.ParseTod(d.StartTime)
	end, _ := dbtime.ParseTod(d.EndTime)
	s := scheduleModel.ClassSessionModel{
		ClassSessionID:                 parseID(id),
		ClassSessionTenantID:           scope.TenantID,
		ClassSessionBranchID:           scope.BranchID,
		ClassSessionClassID:            parseIDPtr(d.ClassID),
		ClassSessionActivityID:         parseID(d.ActivityID),
		ClassSessionInstructorID:       parseIDPtr(d.InstructorID),
		ClassSessionAreaID:             parseIDPtr(d.AreaID),
		ClassSessionDate:               calendar.DateOf(d.SessionDate),
		ClassSessionStartTime:          start,
		ClassSessionEndTime:            end,
		ClassSessionCapacity:           d.Capacity,
		ClassSessionEnrolledCount:      d.EnrolledCount,
		ClassSessionExtraClientIDs:     d.ExtraClientIDs,
		ClassSessionAttendanceRecorded: d.AttendanceRecorded,
		ClassSessionPresentCount:       d.PresentCount,
		ClassSessionAbsentCount:        d.AbsentCount,
		ClassSessionCreatedAt:          d.CreatedAt,
		ClassSessionUpdatedAt:          d.UpdatedAt,
	}
	if d.AttendanceSnapshot != nil {
		raw, err := scheduleModel.EncodeRoster(rosterFromDocs(d.AttendanceSnapshot))
		if err != nil {
			return s, err
		}
		s.ClassSessionAttendanceSnapshot = raw
	}
	return s, nil
}

func sessionToDoc(s *scheduleModel.ClassSessionModel) (sessionDoc, error) {
	d := sessionDoc{
		ClassID:            idString(s.ClassSessionClassID),
		ActivityID:         s.ClassSessionActivityID.String(),
		InstructorID:       idString(s.ClassSessionInstructorID),
		AreaID:             idString(s.ClassSessionAreaID),
		SessionDate:        calendar.DateOf(s.ClassSessionDate),
		StartTime:          s.ClassSessionStartTime.String(),
		EndTime:            s.ClassSessionEndTime.String(),
		Capacity:           s.ClassSessionCapacity,
		EnrolledCount:      s.ClassSessionEnrolledCount,
		ExtraClientIDs:     []string(s.ClassSessionExtraClientIDs),
		AttendanceRecorded: s.ClassSessionAttendanceRecorded,
		PresentCount:       s.ClassSessionPresentCount,
		AbsentCount:        s.ClassSessionAbsentCount,
		CreatedAt:          s.ClassSessionCreatedAt,
		UpdatedAt:          s.ClassSessionUpdatedAt,
	}
	roster, err := s.Roster()
	if err != nil {
		return d, err
	}
	if roster != nil {
		d.AttendanceSnapshot = rosterToDocs(roster)
	}
	return d, nil
}

func enrollmentFromDoc(scope Scope, id string, d enrollmentDoc) enrollmentModel.EnrollmentModel {
	return enrollmentModel.EnrollmentModel{
		EnrollmentID:          parseID(id),
		EnrollmentTenantID:    scope.TenantID,
		EnrollmentBranchID:    scope.BranchID,
		EnrollmentClientID:    parseID(d.ClientID),
		EnrollmentType:        enrollmentModel.EnrollmentType(d.Type),
		EnrollmentStatus:      enrollmentModel.EnrollmentStatus(d.Status),
		EnrollmentClassID:     parseIDPtr(d.ClassID),
		EnrollmentWeekday:     d.Weekday,
		EnrollmentStartDate:   datePtr(d.StartDate),
		EnrollmentEndDate:     datePtr(d.EndDate),
		EnrollmentSessionID:   parseIDPtr(d.SessionID),
		EnrollmentSessionDate: datePtr(d.SessionDate),
		EnrollmentCreatedAt:   d.CreatedAt,
		EnrollmentUpdatedAt:   d.UpdatedAt,
	}
}

func attendanceToDoc(r *attendanceModel.AttendanceRecordModel) attendanceDoc {
	return attendanceDoc{
		SessionID:      r.AttendanceRecordSessionID.String(),
		ClientID:       r.AttendanceRecordClientID.String(),
		ClassID:        idString(r.AttendanceRecordClassID),
		SessionDate:    calendar.DateOf(r.AttendanceRecordSessionDate),
		EnrollmentID:   idPtrString(r.AttendanceRecordEnrollmentID),
		EnrollmentType: r.AttendanceRecordEnrollmentType,
		Status:         r.AttendanceRecordStatus,
		Justification:  strOr(r.AttendanceRecordJustification),
		RecordedAt:     r.AttendanceRecordRecordedAt,
	}
}

func attendanceFromDoc(scope Scope, id string, d attendanceDoc) attendanceModel.AttendanceRecordModel {
	return attendanceModel.AttendanceRecordModel{
		AttendanceRecordID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)),
		AttendanceRecordTenantID:       scope.TenantID,
		AttendanceRecordBranchID:       scope.BranchID,
		AttendanceRecordSessionID:      parseID(d.SessionID),
		AttendanceRecordClientID:       parseID(d.ClientID),
		AttendanceRecordClassID:        parseIDPtr(d.ClassID),
		AttendanceRecordEnrollmentID:   parseIDPtrPtr(d.EnrollmentID),
		AttendanceRecordEnrollmentType: d.EnrollmentType,
		AttendanceRecordSessionDate:    calendar.DateOf(d.SessionDate),
		AttendanceRecordStatus:         d.Status,
		AttendanceRecordJustification:  strPtr(d.Justification),
		AttendanceRecordRecordedAt:     d.RecordedAt,
	}
}

func clientFromDoc(scope Scope, id string, d clientDoc) directoryModel.ClientModel {
	return directoryModel.ClientModel{
		ClientID:        parseID(id),
		ClientTenantID:  scope.TenantID,
		ClientBranchID:  scope.BranchID,
		ClientName:      d.Name,
		ClientTag:       strPtr(d.Tag),
		ClientPhotoURL:  strPtr(d.Photo),
		ClientIsActive:  d.Active,
		ClientCreatedAt: d.CreatedAt,
	}
}
