// Package schedule generates rotating work schedules over an inclusive
// calendar period and exports them as iCalendar feeds.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"caldash/internal/dateparse"
	"caldash/internal/feed"
	"caldash/internal/model"
)

// Cycle describes a rotating shift: WorkDays on duty followed by OffDays
// off, repeating from the period start.
type Cycle struct {
	WorkDays int
	OffDays  int
}

// Len is the full cycle length in days.
func (c Cycle) Len() int {
	return c.WorkDays + c.OffDays
}

func (c Cycle) validate() error {
	if c.WorkDays < 0 || c.OffDays < 0 {
		return errors.New("schedule: negative cycle component")
	}
	if c.Len() == 0 {
		return errors.New("schedule: empty cycle")
	}
	return nil
}

// ParsePeriod parses inclusive DD-MM-YYYY bounds into a midnight-aligned
// UTC period.
func ParsePeriod(start, end string) (model.Period, error) {
	s, err := dateparse.Parse(start)
	if err != nil {
		return model.Period{}, fmt.Errorf("schedule start: %w", err)
	}
	e, err := dateparse.Parse(end)
	if err != nil {
		return model.Period{}, fmt.Errorf("schedule end: %w", err)
	}
	return model.NewPeriod(s, e)
}

// Generate walks every calendar day of the inclusive DD-MM-YYYY period and
// emits the days whose 0-based offset from the start falls within the first
// WorkDays of the cycle, in chronological order, formatted as DD-MM-YYYY.
func Generate(start, end string, cycle Cycle) ([]string, error) {
	dates, err := generate(start, end, cycle, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, cd := range dates {
		out = append(out, cd.String())
	}
	return out, nil
}

// GenerateExcluding behaves like Generate but drops work days that land on
// a holiday. Cycle positions are still counted from the period start, so a
// skipped holiday does not shift the rotation.
func GenerateExcluding(start, end string, cycle Cycle, holidays feed.HolidaySet) ([]string, error) {
	dates, err := generate(start, end, cycle, holidays)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, cd := range dates {
		out = append(out, cd.String())
	}
	return out, nil
}

// Dates is the calendar-date form of GenerateExcluding, used by the ICS
// exporter.
func Dates(start, end string, cycle Cycle, holidays feed.HolidaySet) ([]model.CalendarDate, error) {
	return generate(start, end, cycle, holidays)
}

func generate(start, end string, cycle Cycle, holidays feed.HolidaySet) ([]model.CalendarDate, error) {
	if err := cycle.validate(); err != nil {
		return nil, err
	}
	p, err := ParsePeriod(start, end)
	if err != nil {
		return nil, err
	}

	out := make([]model.CalendarDate, 0)
	offset := 0
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		if offset%cycle.Len() < cycle.WorkDays {
			cd := model.DateOf(d)
			if !holidays.Contains(cd) {
				out = append(out, cd)
			}
		}
		offset++
	}
	return out, nil
}

// now is swapped in tests to pin DTSTAMP output.
var now = time.Now
