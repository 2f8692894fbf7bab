package almanac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type almanacSuite struct {
	suite.Suite
}

func TestAlmanac(t *testing.T) {
	suite.Run(t, new(almanacSuite))
}

func (s *almanacSuite) TestBuild() {
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	a := Build(from, 12)

	s.Equal(12, a.HorizonMonths)
	s.Len(a.Months, 12)

	jan := a.Months[0]
	s.Equal(2024, jan.Year)
	s.Equal(1, jan.Month)
	s.Equal("January", jan.Name)
	s.Equal(31, jan.Days)
	s.Equal(8, jan.Weekends)
	s.Equal(1, jan.Quarter)
	s.True(jan.LeapYear)

	feb := a.Months[1]
	s.Equal(29, feb.Days)

	dec := a.Months[11]
	s.Equal(12, dec.Month)
	s.Equal(4, dec.Quarter)

	// 2024 has exactly two Friday the 13ths: September and December.
	s.Equal([]string{"13-09-2024", "13-12-2024"}, a.FridayThe13ths)

	// 2024-01-01 is a Monday.
	s.Equal(time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), a.NextFriday)
}

func (s *almanacSuite) TestBuildDefaultsHorizon() {
	a := Build(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 0)
	s.Equal(12, a.HorizonMonths)
	s.Len(a.Months, 12)
	s.Equal(6, a.Months[0].Month)
}

func (s *almanacSuite) TestCache() {
	c := NewCache(time.UTC, 3)

	first := c.Current()
	s.Len(first.Months, 3)
	s.False(first.GeneratedAt.IsZero())

	c.Refresh()
	second := c.Current()
	s.Len(second.Months, 3)
	s.False(second.GeneratedAt.Before(first.GeneratedAt))
}
