package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caldash/internal/model"
)

type feedSuite struct {
	suite.Suite
}

func TestFeed(t *testing.T) {
	suite.Run(t, new(feedSuite))
}

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:newyear@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240101\r\n" +
	"DTEND;VALUE=DATE:20240102\r\n" +
	"SUMMARY:New Year\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:easter-span@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240329\r\n" +
	"DTEND;VALUE=DATE:20240402\r\n" +
	"SUMMARY:Easter break\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:timed@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240214T090000Z\r\n" +
	"DTEND:20240214T100000Z\r\n" +
	"SUMMARY:Ceremony\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func (s *feedSuite) TestParseHolidays() {
	src := Source{ID: "test", URL: "https://example.com/holidays.ics"}

	holidays, err := ParseHolidays(src, []byte(sampleICS))
	s.NoError(err)

	// 1 (New Year) + 4 (Easter span, DTEND exclusive) + 1 (timed event day).
	s.Len(holidays, 6)

	hs := Set(holidays)
	s.True(hs.Contains(model.CalendarDate{Year: 2024, Month: time.January, Day: 1}))
	s.True(hs.Contains(model.CalendarDate{Year: 2024, Month: time.March, Day: 29}))
	s.True(hs.Contains(model.CalendarDate{Year: 2024, Month: time.April, Day: 1}))
	s.False(hs.Contains(model.CalendarDate{Year: 2024, Month: time.April, Day: 2}))
	s.True(hs.Contains(model.CalendarDate{Year: 2024, Month: time.February, Day: 14}))
	s.False(hs.Contains(model.CalendarDate{Year: 2024, Month: time.January, Day: 2}))

	for _, h := range holidays {
		s.Equal("test", h.SourceID)
		s.NotEmpty(h.UID)
	}
}

func (s *feedSuite) TestParseHolidaysRejectsEmptyBody() {
	_, err := ParseHolidays(Source{ID: "x"}, nil)
	s.Error(err)
}

func (s *feedSuite) TestFetchOneCachesAndRevalidates() {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(s.T().TempDir())
	src := Source{ID: "test", URL: srv.URL}

	res, err := f.FetchOne(context.Background(), src)
	s.NoError(err)
	s.False(res.FromCache)
	s.Equal(sampleICS, string(res.Body))

	// Second fetch revalidates with the stored ETag and serves the cache.
	res, err = f.FetchOne(context.Background(), src)
	s.NoError(err)
	s.True(res.FromCache)
	s.Equal(sampleICS, string(res.Body))
	s.Equal(2, hits)
}

func (s *feedSuite) TestFetchOneFallsBackToCacheOnNetworkError() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleICS))
	}))

	f := NewFetcher(s.T().TempDir())
	src := Source{ID: "test", URL: srv.URL}

	res, err := f.FetchOne(context.Background(), src)
	s.NoError(err)
	s.False(res.FromCache)

	// Origin goes away; the cached body keeps serving.
	srv.Close()
	res, err = f.FetchOne(context.Background(), src)
	s.NoError(err)
	s.True(res.FromCache)
	s.Equal(sampleICS, string(res.Body))
}

func (s *feedSuite) TestFetchOneRejectsEmptyURL() {
	f := NewFetcher(s.T().TempDir())
	_, err := f.FetchOne(context.Background(), Source{ID: "x"})
	s.Error(err)
}

func (s *feedSuite) TestHolidaysEndToEnd() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(s.T().TempDir())
	holidays, errs := f.Holidays(context.Background(), []Source{{ID: "test", URL: srv.URL}})
	s.Empty(errs)
	s.Len(holidays, 6)
}

func (s *feedSuite) TestRedactURL() {
	s.Equal("https://example.com/...(redacted)",
		redactURL("https://example.com/cal/private.ics?token=abcd"))
	s.Equal("https://example.com/...(redacted)", redactURL("https://example.com"))
	s.Equal("feed://...(redacted)", redactURL("nonsense"))
}
