package schedule

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"caldash/internal/model"
)

// Export renders work days as an iCalendar feed of all-day VEVENTs, one per
// work day, so the schedule can be subscribed to from any calendar client.
func Export(dates []model.CalendarDate, summary string) string {
	if summary == "" {
		summary = "Work day"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//caldash//work schedule//EN")

	stamp := now().UTC()
	for _, cd := range dates {
		day := cd.Midnight(time.UTC)
		ev := cal.AddEvent(fmt.Sprintf("%s-workday@caldash", cd))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(day)
		// DTEND is exclusive for all-day events.
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(summary)
	}

	return cal.Serialize()
}
