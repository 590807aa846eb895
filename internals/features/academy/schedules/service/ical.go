// file: internals/features/academy/schedules/service/ical.go
package service

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ExportICal renders the grid as a published iCalendar feed. Times are
// wall-clock in loc.
func ExportICal(g *Grid, calName string, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//academy-backend//class grid//EN")
	cal.SetXWRCalName(calName)
	cal.SetXWRTimezone(loc.String())

	for _, day := range g.Dates() {
		for _, row := range g.Rows {
			for _, it := range g.Cell(day, row) {
				ev := cal.AddEvent(fmt.Sprintf("%s@academy-backend", it.InstanceID))
				ev.SetDtStampTime(now.UTC())
				ev.SetStartAt(it.StartTime.On(day, loc))
				ev.SetEndAt(it.EndTime.On(day, loc))

				summary := it.ActivityName
				if summary == "" {
					summary = "Class"
				}
				ev.SetSummary(summary)
				ev.SetDescription(fmt.Sprintf("%s, %d/%d enrolled", it.Kind, it.EnrolledCount, it.Capacity))
			}
		}
	}
	return cal.Serialize()
}
