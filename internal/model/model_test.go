package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type modelSuite struct {
	suite.Suite
}

func TestModel(t *testing.T) {
	suite.Run(t, new(modelSuite))
}

func (s *modelSuite) TestEpochMillisRoundTrip() {
	t := time.Date(1995, time.December, 4, 0, 12, 0, 0, time.UTC)
	ms := EpochMillis(t)
	s.Equal(int64(818035920000), ms)
	s.True(FromEpochMillis(ms).Equal(t))

	s.Equal(int64(0), EpochMillis(time.Unix(0, 0)))
}

func (s *modelSuite) TestCalendarDate() {
	cd := DateOf(time.Date(2024, time.January, 5, 23, 59, 0, 0, time.UTC))
	s.Equal(CalendarDate{Year: 2024, Month: time.January, Day: 5}, cd)
	s.Equal("05-01-2024", cd.String())
	s.Equal(time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), cd.Midnight(nil))
}

func (s *modelSuite) TestPeriod() {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	p, err := NewPeriod(start, end)
	s.NoError(err)
	s.Equal(10, p.Days())
	s.True(p.Contains(start))
	s.True(p.Contains(end))
	s.False(p.Contains(end.Add(time.Second)))

	_, err = NewPeriod(end, start)
	s.Error(err)

	same, err := NewPeriod(start, start)
	s.NoError(err)
	s.Equal(1, same.Days())
}

func (s *modelSuite) TestWeekdayName() {
	s.Equal("Sunday", WeekdayName(0))
	s.Equal("Friday", WeekdayName(5))
	s.Equal("Saturday", WeekdayName(6))
	s.Equal("Sunday", WeekdayName(7))
	s.Equal("Saturday", WeekdayName(-1))
}
