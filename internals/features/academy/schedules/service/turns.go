// file: internals/features/academy/schedules/service/turns.go
package service

import (
	"strings"

	"academy_backend/internals/helpers/dbtime"
)

// Turn is a named time-of-day bucket. Items starting in [From, To) belong
// to it; the grid draws hourly rows across [SlotFrom, SlotTo).
type Turn struct {
	Name     string
	From     dbtime.Tod
	To       dbtime.Tod
	SlotFrom dbtime.Tod
	SlotTo   dbtime.Tod
}

const (
	TurnMorning   = "morning"
	TurnAfternoon = "afternoon"
	TurnEvening   = "evening"
	TurnAll       = "all"
)

var turns = map[string]Turn{
	TurnMorning:   {Name: TurnMorning, From: dbtime.MustTod("06:00"), To: dbtime.MustTod("12:00"), SlotFrom: dbtime.MustTod("06:00"), SlotTo: dbtime.MustTod("12:00")},
	TurnAfternoon: {Name: TurnAfternoon, From: dbtime.MustTod("12:00"), To: dbtime.MustTod("18:00"), SlotFrom: dbtime.MustTod("12:00"), SlotTo: dbtime.MustTod("18:00")},
	TurnEvening:   {Name: TurnEvening, From: dbtime.MustTod("18:00"), To: dbtime.MustTod("23:00"), SlotFrom: dbtime.MustTod("18:00"), SlotTo: dbtime.MustTod("23:00")},
	// all keeps every start time but only draws the usual opening hours
	TurnAll: {Name: TurnAll, From: 0, To: dbtime.EndOfDay, SlotFrom: dbtime.MustTod("06:00"), SlotTo: dbtime.MustTod("23:00")},
}

// ResolveTurn looks a turn up by name; empty means all.
func ResolveTurn(name string) (Turn, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = TurnAll
	}
	t, ok := turns[name]
	return t, ok
}

func TurnNames() []string {
	return []string{TurnMorning, TurnAfternoon, TurnEvening, TurnAll}
}

func (t Turn) Contains(start dbtime.Tod) bool {
	return start >= t.From && start < t.To
}

// HourlySlots lists the whole hours inside [SlotFrom, SlotTo).
func (t Turn) HourlySlots() []dbtime.Tod {
	first := t.SlotFrom
	if first.Minute() != 0 {
		first = dbtime.Tod((first.Hour() + 1) * 60)
	}
	var out []dbtime.Tod
	for h := first; h < t.SlotTo; h += 60 {
		out = append(out, h)
	}
	return out
}
