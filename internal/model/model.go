package model

import (
	"fmt"
	"time"
)

// DayMillis is the length of a calendar day in epoch milliseconds.
const DayMillis = 24 * 60 * 60 * 1000

// LayoutDayMonthYear is the DD-MM-YYYY form used by the schedule generator
// and its API surface.
const LayoutDayMonthYear = "02-01-2006"

// EpochMillis converts an instant to milliseconds since 1970-01-01T00:00:00Z.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromEpochMillis converts epoch milliseconds back into an instant in UTC.
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// CalendarDate is a date without a time-of-day component.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the calendar date of an instant in its own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// Midnight returns the instant at 00:00:00 of the calendar date in loc.
// A nil loc means UTC.
func (cd CalendarDate) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(cd.Year, cd.Month, cd.Day, 0, 0, 0, 0, loc)
}

// String renders the date in DD-MM-YYYY form.
func (cd CalendarDate) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", cd.Day, int(cd.Month), cd.Year)
}

// Period is an inclusive range of instants with Start <= End.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a Period, rejecting a start after its end.
func NewPeriod(start, end time.Time) (Period, error) {
	if end.Before(start) {
		return Period{}, fmt.Errorf("period end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Period{Start: start, End: end}, nil
}

// Contains reports whether t lies within the period, both bounds inclusive,
// compared at instant granularity.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Days is the inclusive day count of the period assuming midnight-aligned
// bounds: floor((End-Start)/day) + 1.
func (p Period) Days() int {
	return int((EpochMillis(p.End)-EpochMillis(p.Start))/DayMillis) + 1
}

// WeekdayName returns the English day name for the Sunday=0..Saturday=6
// numbering used across the API.
func WeekdayName(n int) string {
	return time.Weekday(((n % 7) + 7) % 7).String()
}
