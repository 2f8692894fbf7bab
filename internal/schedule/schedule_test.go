package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caldash/internal/feed"
	"caldash/internal/model"
)

type scheduleSuite struct {
	suite.Suite
}

func TestSchedule(t *testing.T) {
	suite.Run(t, new(scheduleSuite))
}

func (s *scheduleSuite) TestGenerateOneOnThreeOff() {
	days, err := Generate("01-01-2024", "15-01-2024", Cycle{WorkDays: 1, OffDays: 3})
	s.NoError(err)
	s.Equal([]string{"01-01-2024", "05-01-2024", "09-01-2024", "13-01-2024"}, days)
}

func (s *scheduleSuite) TestGenerateChronologicalAndInclusive() {
	days, err := Generate("28-02-2024", "02-03-2024", Cycle{WorkDays: 2, OffDays: 1})
	s.NoError(err)
	// 2024 is a leap year: 28, 29 Feb work, 1 Mar off, 2 Mar work.
	s.Equal([]string{"28-02-2024", "29-02-2024", "02-03-2024"}, days)

	// Output stays in chronological order for a longer run.
	days, err = Generate("01-01-2024", "31-01-2024", Cycle{WorkDays: 5, OffDays: 2})
	s.NoError(err)
	prev := time.Time{}
	for _, d := range days {
		t, perr := time.Parse(model.LayoutDayMonthYear, d)
		s.NoError(perr)
		s.True(t.After(prev))
		prev = t
	}
}

func (s *scheduleSuite) TestGenerateSingleDayPeriod() {
	days, err := Generate("07-06-2024", "07-06-2024", Cycle{WorkDays: 1, OffDays: 6})
	s.NoError(err)
	s.Equal([]string{"07-06-2024"}, days)
}

func (s *scheduleSuite) TestGenerateAllWork() {
	days, err := Generate("01-01-2024", "05-01-2024", Cycle{WorkDays: 3, OffDays: 0})
	s.NoError(err)
	s.Len(days, 5)
}

func (s *scheduleSuite) TestGenerateRejectsBadInput() {
	_, err := Generate("01-01-2024", "15-01-2024", Cycle{})
	s.Error(err)

	_, err = Generate("01-01-2024", "15-01-2024", Cycle{WorkDays: -1, OffDays: 3})
	s.Error(err)

	_, err = Generate("banana", "15-01-2024", Cycle{WorkDays: 1, OffDays: 1})
	s.Error(err)

	// End before start.
	_, err = Generate("15-01-2024", "01-01-2024", Cycle{WorkDays: 1, OffDays: 1})
	s.Error(err)
}

func (s *scheduleSuite) TestGenerateExcludingKeepsCyclePositions() {
	holidays := feed.HolidaySet{
		{Year: 2024, Month: time.January, Day: 5}: true,
	}
	days, err := GenerateExcluding("01-01-2024", "15-01-2024", Cycle{WorkDays: 1, OffDays: 3}, holidays)
	s.NoError(err)
	// 05-01 is dropped but the rotation still counts from the period start.
	s.Equal([]string{"01-01-2024", "09-01-2024", "13-01-2024"}, days)
}

func (s *scheduleSuite) TestExportICS() {
	restore := now
	now = func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { now = restore }()

	dates, err := Dates("01-01-2024", "15-01-2024", Cycle{WorkDays: 1, OffDays: 3}, nil)
	s.NoError(err)

	ics := Export(dates, "Shift")
	s.Contains(ics, "BEGIN:VCALENDAR")
	s.Contains(ics, "END:VCALENDAR")
	s.Contains(ics, "SUMMARY:Shift")
	s.Equal(4, strings.Count(ics, "BEGIN:VEVENT"))
	s.Contains(ics, "20240105")
}
