// Package dateparse converts date strings from a fixed, documented set of
// layouts into instants. Anything outside that set is rejected with a tagged
// error instead of being guessed at.
package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnrecognizedFormat tags every parse failure so callers can test for it
// with errors.Is.
var ErrUnrecognizedFormat = errors.New("unrecognized date format")

// LayoutDayMonthYear matches the DD-MM-YYYY form used by schedule periods.
const LayoutDayMonthYear = "02-01-2006"

// zonedLayouts carry their own zone or offset and parse location-free.
var zonedLayouts = []string{
	"02 Jan 2006 15:04:05 MST", // RFC 2822-like, e.g. "04 Dec 1995 00:12:00 UTC"
	time.RFC1123,               // "Mon, 02 Jan 2006 15:04:05 MST"
	time.RFC1123Z,
	time.RFC3339,
}

// floatingLayouts have no zone and are interpreted in the caller's location.
var floatingLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	LayoutDayMonthYear,
}

// Parse parses s using the recognized layouts, interpreting zone-less forms
// as UTC.
func Parse(s string) (time.Time, error) {
	return ParseIn(s, time.UTC)
}

// ParseIn parses s using the recognized layouts. Layouts that carry a zone
// keep it; zone-less layouts are interpreted in loc (UTC if nil).
func ParseIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string: %w", ErrUnrecognizedFormat)
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range floatingLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%q: %w", s, ErrUnrecognizedFormat)
}
