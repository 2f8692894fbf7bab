// Package almanac precomputes a rolling horizon of notable calendar facts
// (month shapes, weekend counts, upcoming Friday the 13ths) so the API can
// answer from memory. The cache is rebuilt on the configured cron schedule.
package almanac

import (
	"sync"
	"time"

	"caldash/internal/calc"
	appLog "caldash/internal/log"
	"caldash/internal/model"
)

// MonthSummary describes one month of the horizon.
type MonthSummary struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Name     string `json:"name"`
	Days     int    `json:"days"`
	Weekends int    `json:"weekends"`
	Quarter  int    `json:"quarter"`
	LeapYear bool   `json:"leap_year"`
}

// Almanac is one precomputed snapshot.
type Almanac struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	HorizonMonths  int            `json:"horizon_months"`
	Months         []MonthSummary `json:"months"`
	FridayThe13ths []string       `json:"friday_the_13ths"` // DD-MM-YYYY
	NextFriday     time.Time      `json:"next_friday"`
}

// Build computes the almanac for the given number of months starting at
// from's month.
func Build(from time.Time, months int) Almanac {
	if months <= 0 {
		months = 12
	}

	a := Almanac{
		GeneratedAt:   from,
		HorizonMonths: months,
		NextFriday:    calc.NextFriday(from),
	}

	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		a.Months = append(a.Months, MonthSummary{
			Year:     m.Year(),
			Month:    int(m.Month()),
			Name:     m.Month().String(),
			Days:     calc.DaysInMonth(m.Month(), m.Year()),
			Weekends: calc.WeekendsInMonth(m.Month(), m.Year()),
			Quarter:  calc.Quarter(m),
			LeapYear: calc.IsLeapYear(m),
		})
	}

	horizonEnd := first.AddDate(0, months, 0)
	for f := calc.NextFridayThe13th(from); !f.IsZero() && f.Before(horizonEnd); f = calc.NextFridayThe13th(f) {
		a.FridayThe13ths = append(a.FridayThe13ths, model.DateOf(f).String())
	}

	return a
}

// Cache holds the current almanac behind an RWMutex.
type Cache struct {
	mu      sync.RWMutex
	loc     *time.Location
	horizon int
	current Almanac
}

// NewCache creates a cache computing in loc (UTC if nil) over the given
// horizon, and builds the initial snapshot.
func NewCache(loc *time.Location, horizonMonths int) *Cache {
	if loc == nil {
		loc = time.UTC
	}
	c := &Cache{loc: loc, horizon: horizonMonths}
	c.Refresh()
	return c
}

// Refresh rebuilds the snapshot from the current time.
func (c *Cache) Refresh() {
	built := Build(time.Now().In(c.loc), c.horizon)

	c.mu.Lock()
	c.current = built
	c.mu.Unlock()

	appLog.Info("almanac refreshed",
		"horizon_months", built.HorizonMonths,
		"friday_13th_count", len(built.FridayThe13ths),
	)
}

// Current returns the latest snapshot.
func (c *Cache) Current() Almanac {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
