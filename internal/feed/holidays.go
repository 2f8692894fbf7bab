package feed

import (
	"bytes"
	"context"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "caldash/internal/log"
	"caldash/internal/model"
)

// Holiday is a single non-working calendar day extracted from a feed.
type Holiday struct {
	SourceID string
	UID      string
	Name     string
	Date     model.CalendarDate
}

// HolidaySet answers day-level containment questions for schedule exclusion.
type HolidaySet map[model.CalendarDate]bool

// Contains reports whether the calendar date is a holiday.
func (hs HolidaySet) Contains(cd model.CalendarDate) bool {
	return hs[cd]
}

// Set collapses a holiday list into a HolidaySet.
func Set(holidays []Holiday) HolidaySet {
	hs := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		hs[h.Date] = true
	}
	return hs
}

// ParseHolidays extracts holiday dates from an ICS payload. All-day events
// contribute one Holiday per day they span; timed events contribute the day
// of their start. Broken VEVENTs are logged and skipped, the rest of the
// feed still parses.
func ParseHolidays(src Source, body []byte) ([]Holiday, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("feed parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	var holidays []Holiday
	for _, ve := range cal.Events() {
		hs, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Warn("feed vevent skipped", "id", src.ID, "err", perr)
			continue
		}
		holidays = append(holidays, hs...)
	}

	appLog.Info("feed parse completed", "id", src.ID, "holiday_count", len(holidays))
	return holidays, nil
}

func parseVEvent(src Source, ve *ical.VEvent) ([]Holiday, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil, errors.New("missing UID")
	}

	name := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		name = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, err
	}

	base := Holiday{
		SourceID: src.ID,
		UID:      uidProp.Value,
		Name:     name,
	}

	if !isAllDay(ve) {
		base.Date = model.DateOf(start)
		return []Holiday{base}, nil
	}

	// All-day events: DTEND is exclusive, span [start, end).
	end, endErr := ve.GetEndAt()
	if endErr != nil || !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}

	var out []Holiday
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		h := base
		h.Date = model.DateOf(d)
		out = append(out, h)
	}
	return out, nil
}

// isAllDay detects all-day events by VALUE=DATE or a date-only DTSTART.
func isAllDay(ve *ical.VEvent) bool {
	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return false
	}
	if params := dtStart.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(dtStart.Value, "T")
}

// Holidays fetches and parses every configured source into one combined
// list. Individual source failures degrade to whatever the cache offers.
func (f *Fetcher) Holidays(ctx context.Context, sources []Source) ([]Holiday, []error) {
	results, errs := f.FetchAll(ctx, sources)

	var all []Holiday
	for _, res := range results {
		hs, err := ParseHolidays(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, hs...)
	}
	return all, errs
}
