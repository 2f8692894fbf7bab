// Package calc implements the calendar arithmetic operations exposed by the
// service. Every function is a pure computation over its arguments and is
// safe to call from any number of goroutines.
package calc

import (
	"time"

	"caldash/internal/dateparse"
	"caldash/internal/model"
)

// maxMonthScan bounds the Friday-the-13th search. The real-world gap between
// two Friday the 13ths never exceeds 14 months, so the cap is never hit with
// valid input.
const maxMonthScan = 48

// Timestamp parses a date string (see internal/dateparse for the accepted
// layouts) and returns milliseconds since the epoch.
func Timestamp(dateString string) (int64, error) {
	t, err := dateparse.Parse(dateString)
	if err != nil {
		return 0, err
	}
	return model.EpochMillis(t), nil
}

// Clock formats an instant as "HH:MM:SS" on a 24-hour clock, read from the
// instant's own location.
func Clock(t time.Time) string {
	return t.Format("15:04:05")
}

// DayName parses a date string and returns the English weekday name of the
// resulting instant.
func DayName(dateString string) (string, error) {
	t, err := dateparse.Parse(dateString)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

// NextFriday returns the next Friday strictly after t, preserving the
// time-of-day. A Friday input advances a full week; the input is never
// returned as-is.
func NextFriday(t time.Time) time.Time {
	delta := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return t.AddDate(0, 0, delta)
}

// DaysInMonth returns the number of days in the given month of the given
// year under the Gregorian rules. Out-of-range months normalize the way
// time.Date normalizes them (month 13 of year Y is January of Y+1).
func DaysInMonth(month time.Month, year int) int {
	if month < time.January || month > time.December {
		y, m, _ := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Date()
		year, month = y, m
	}
	switch month {
	case time.February:
		if IsLeapYearN(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// DaysInPeriod is the inclusive day count of the period. The caller
// guarantees midnight-aligned bounds for exact results.
func DaysInPeriod(p model.Period) int {
	return p.Days()
}

// InPeriod reports whether t lies within p, both bounds inclusive.
func InPeriod(t time.Time, p model.Period) bool {
	return p.Contains(t)
}

// FormatLong renders an instant as "M/D/YYYY, h:mm:ss AM|PM": 12-hour clock,
// no leading zero on month, day or hour, zero-padded minutes and seconds,
// noon as 12 PM and midnight as 12 AM. Every field is read from the
// instant's own location; convert with t.UTC() or t.In(loc) first to pick
// the reference.
func FormatLong(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

// WeekendsInMonth counts the Saturdays and Sundays of the given month,
// visiting each calendar day exactly once.
func WeekendsInMonth(month time.Month, year int) int {
	count := 0
	days := DaysInMonth(month, year)
	for day := 1; day <= days; day++ {
		switch time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday() {
		case time.Saturday, time.Sunday:
			count++
		}
	}
	return count
}

// WeekNumber returns a 1-based week number: the number of Monday boundaries
// crossed from January 1 of t's year up to and including t, plus one. Week 1
// is anchored to January 1 regardless of its weekday. This is deliberately
// the simple counting rule, not ISO 8601.
func WeekNumber(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	week := 1
	for d := jan1.AddDate(0, 0, 1); !d.After(t); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Monday {
			week++
		}
	}
	return week
}

// NextFridayThe13th returns the first instant strictly after t whose day of
// month is 13 and whose weekday is Friday, at midnight in t's location.
// The scan walks the 13th of each successive month, so it terminates within
// maxMonthScan iterations regardless of input.
func NextFridayThe13th(t time.Time) time.Time {
	year, month, _ := t.Date()
	for i := 0; i < maxMonthScan; i++ {
		cand := time.Date(year, month, 13, 0, 0, 0, 0, t.Location())
		if cand.After(t) && cand.Weekday() == time.Friday {
			return cand
		}
		year, month, _ = cand.AddDate(0, 1, 0).Date()
	}
	// Unreachable with a sane calendar; return the zero instant as the
	// invalid-result sentinel rather than looping forever.
	return time.Time{}
}

// Quarter returns the calendar quarter of t, 1 through 4.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// IsLeapYear reports whether t's year is a Gregorian leap year.
func IsLeapYear(t time.Time) bool {
	return IsLeapYearN(t.Year())
}

// IsLeapYearN reports whether the year itself is a Gregorian leap year.
func IsLeapYearN(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
