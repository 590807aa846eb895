// file: internals/features/academy/schedules/service/grid.go
package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/academy/calendar"
	scheduleModel "academy_backend/internals/features/academy/schedules/model"
	"academy_backend/internals/helpers/dbtime"
)

type ViewMode string

const (
	ViewDay  ViewMode = "day"
	ViewWeek ViewMode = "week"
)

const (
	ItemSession = "session"
	ItemClass   = "class"
)

// GridItem is one box on the grid: a stored session, or a class template
// occurrence that has not been materialized yet.
type GridItem struct {
	Kind               string     `json:"kind"`
	InstanceID         uuid.UUID  `json:"instance_id"`
	SessionID          *uuid.UUID `json:"session_id,omitempty"`
	ClassID            *uuid.UUID `json:"class_id,omitempty"`
	ActivityID         uuid.UUID  `json:"activity_id"`
	ActivityName       string     `json:"activity_name"`
	InstructorID       *uuid.UUID `json:"instructor_id,omitempty"`
	AreaID             *uuid.UUID `json:"area_id,omitempty"`
	Date               time.Time  `json:"-"`
	StartTime          dbtime.Tod `json:"start_time"`
	EndTime            dbtime.Tod `json:"end_time"`
	Capacity           int        `json:"capacity"`
	EnrolledCount      int        `json:"enrolled_count"`
	AttendanceRecorded bool       `json:"attendance_recorded"`

	rule calendar.Rule
}

type BucketKey struct {
	Date  time.Time
	Start dbtime.Tod
}

type GridCell struct {
	Date  string     `json:"date"`
	Time  dbtime.Tod `json:"time"`
	Items []GridItem `json:"items"`
}

type Grid struct {
	View  ViewMode     `json:"view"`
	Turn  string       `json:"turn"`
	Days  []string     `json:"days"`
	Rows  []dbtime.Tod `json:"rows"`
	Cells []GridCell   `json:"cells"`

	dates   []time.Time
	buckets map[BucketKey][]GridItem
}

type GridInput struct {
	Sessions      []scheduleModel.ClassSessionModel
	Classes       []scheduleModel.ClassModel
	ActivityNames map[uuid.UUID]string
	Reference     time.Time
	View          ViewMode
	Turn          Turn
}

// Dates returns the visible calendar days.
func (g *Grid) Dates() []time.Time { return g.dates }

// Cell returns the ordered items starting at (day, start).
func (g *Grid) Cell(day time.Time, start dbtime.Tod) []GridItem {
	return g.buckets[BucketKey{Date: calendar.DateOf(day), Start: start}]
}

// GridDays is the reference day, or the Sunday-started week holding it.
func GridDays(ref time.Time, view ViewMode) []time.Time {
	ref = calendar.DateOf(ref)
	if view != ViewWeek {
		return []time.Time{ref}
	}
	start := calendar.WeekStart(ref)
	out := make([]time.Time, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, calendar.AddDays(start, i))
	}
	return out
}

// BuildGrid buckets sessions and unmaterialized class occurrences by
// (date, start time) for the requested view and turn. A stored session of
// a class hides that class's template occurrence on the same day.
func BuildGrid(in GridInput) *Grid {
	days := GridDays(in.Reference, in.View)

	type slot struct {
		classID uuid.UUID
		date    time.Time
	}
	materialized := map[slot]bool{}
	var items []GridItem

	for i := range in.Sessions {
		s := &in.Sessions[i]
		if s.ClassSessionClassID != nil {
			materialized[slot{*s.ClassSessionClassID, calendar.DateOf(s.ClassSessionDate)}] = true
		}
		if !in.Turn.Contains(s.ClassSessionStartTime) {
			continue
		}
		sid := s.ClassSessionID
		items = append(items, GridItem{
			Kind:               ItemSession,
			InstanceID:         s.ClassSessionID,
			SessionID:          &sid,
			ClassID:            s.ClassSessionClassID,
			ActivityID:         s.ClassSessionActivityID,
			ActivityName:       in.ActivityNames[s.ClassSessionActivityID],
			InstructorID:       s.ClassSessionInstructorID,
			AreaID:             s.ClassSessionAreaID,
			StartTime:          s.ClassSessionStartTime,
			EndTime:            s.ClassSessionEndTime,
			Capacity:           s.ClassSessionCapacity,
			EnrolledCount:      s.ClassSessionEnrolledCount,
			AttendanceRecorded: s.ClassSessionAttendanceRecorded,
			rule:               s.Rule(),
		})
	}

	for i := range in.Classes {
		c := &in.Classes[i]
		if !c.ClassIsActive || !in.Turn.Contains(c.ClassStartTime) {
			continue
		}
		cid := c.ClassID
		items = append(items, GridItem{
			Kind:         ItemClass,
			ClassID:      &cid,
			ActivityID:   c.ClassActivityID,
			ActivityName: in.ActivityNames[c.ClassActivityID],
			InstructorID: c.ClassInstructorID,
			AreaID:       c.ClassAreaID,
			StartTime:    c.ClassStartTime,
			EndTime:      c.EndTime(),
			Capacity:     c.ClassCapacity,
			rule:         c.Rule(),
		})
	}

	g := &Grid{
		View:    in.View,
		Turn:    in.Turn.Name,
		dates:   days,
		buckets: map[BucketKey][]GridItem{},
	}
	rowSet := map[dbtime.Tod]bool{}
	for _, h := range in.Turn.HourlySlots() {
		rowSet[h] = true
	}

	for _, day := range days {
		for _, it := range items {
			if !calendar.OccursOn(it.rule, day) {
				continue
			}
			if it.Kind == ItemClass {
				if materialized[slot{*it.ClassID, day}] {
					continue
				}
				it.InstanceID = scheduleModel.MaterializedSessionID(*it.ClassID, day)
			}
			it.Date = day
			k := BucketKey{Date: day, Start: it.StartTime}
			g.buckets[k] = append(g.buckets[k], it)
			rowSet[it.StartTime] = true
		}
	}

	for k := range g.buckets {
		sortBucket(g.buckets[k])
	}

	for r := range rowSet {
		g.Rows = append(g.Rows, r)
	}
	sort.Slice(g.Rows, func(i, j int) bool { return g.Rows[i] < g.Rows[j] })

	for _, day := range days {
		g.Days = append(g.Days, calendar.FormatDate(day))
		for _, r := range g.Rows {
			if cell := g.buckets[BucketKey{Date: day, Start: r}]; len(cell) > 0 {
				g.Cells = append(g.Cells, GridCell{Date: calendar.FormatDate(day), Time: r, Items: cell})
			}
		}
	}
	return g
}

// sortBucket orders by activity id, activity name, class id, instance id.
func sortBucket(items []GridItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if x, y := a.ActivityID.String(), b.ActivityID.String(); x != y {
			return x < y
		}
		if a.ActivityName != b.ActivityName {
			return a.ActivityName < b.ActivityName
		}
		if x, y := uuidStr(a.ClassID), uuidStr(b.ClassID); x != y {
			return x < y
		}
		return a.InstanceID.String() < b.InstanceID.String()
	})
}

func uuidStr(p *uuid.UUID) string {
	if p == nil {
		return ""
	}
	return p.String()
}
