// Package recur expands RRULE recurrence rules into concrete instants
// within an inclusive period.
package recur

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "caldash/internal/log"
	"caldash/internal/model"
)

const defaultMaxOccurrences = 5000

// Config controls a single expansion.
type Config struct {
	// DTStart anchors the rule. If zero, the period start is used.
	DTStart time.Time

	// Period is the inclusive window for occurrences.
	Period model.Period

	// ExDates removes individual occurrences from the expansion.
	ExDates []time.Time

	// MaxOccurrences is a safety cap against unbounded rules.
	// If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

// Result wraps the expanded occurrences and whether the cap was hit.
type Result struct {
	Times     []time.Time
	Truncated bool
}

// Expand parses rawRule (an RRULE string such as
// "FREQ=MONTHLY;BYDAY=FR;BYMONTHDAY=13") and returns its occurrences inside
// cfg.Period, both bounds inclusive, in chronological order.
func Expand(rawRule string, cfg Config) (Result, error) {
	var result Result

	if rawRule == "" {
		return result, errors.New("expand: empty rule")
	}
	if cfg.Period.End.Before(cfg.Period.Start) {
		return result, errors.New("expand: period end is before start")
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		return result, err
	}

	dtstart := cfg.DTStart
	if dtstart.IsZero() {
		dtstart = cfg.Period.Start
	}
	r.DTStart(dtstart)

	// Build a set so EXDATEs can be applied.
	var set rrule.Set
	set.RRule(r)
	for _, ex := range cfg.ExDates {
		set.ExDate(ex.In(dtstart.Location()))
	}

	rangeStart := cfg.Period.Start.In(dtstart.Location())
	rangeEnd := cfg.Period.End.In(dtstart.Location())

	times := set.Between(rangeStart, rangeEnd, true)
	if len(times) > cfg.MaxOccurrences {
		times = times[:cfg.MaxOccurrences]
		result.Truncated = true
		appLog.Warn("expand: occurrences truncated at cap",
			"rule", rawRule,
			"cap", cfg.MaxOccurrences,
		)
	}

	result.Times = times
	return result, nil
}
