// Package web exposes the calendar calculations, the schedule generator and
// the almanac over a small HTTP JSON API.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"caldash/internal/almanac"
	"caldash/internal/calc"
	"caldash/internal/config"
	"caldash/internal/dateparse"
	"caldash/internal/feed"
	appLog "caldash/internal/log"
	"caldash/internal/model"
	"caldash/internal/recur"
	"caldash/internal/schedule"
)

// Server provides the HTTP API.
type Server struct {
	cfg     *config.Config
	loc     *time.Location
	mux     *http.ServeMux
	almanac *almanac.Cache

	// holidays is swapped whole on every feed refresh; reads only need the
	// RLock for the pointer copy.
	holidayMu sync.RWMutex
	holidays  feed.HolidaySet
}

// NewServer constructs a Server around the given config and almanac cache.
func NewServer(cfg *config.Config, cache *almanac.Cache) *Server {
	s := &Server{
		cfg:     cfg,
		loc:     resolveLocation(cfg.Timezone),
		mux:     http.NewServeMux(),
		almanac: cache,
	}
	s.registerRoutes()
	return s
}

// SetHolidays replaces the holiday set used for schedule exclusion. Called
// from the feed refresh loop.
func (s *Server) SetHolidays(hs feed.HolidaySet) {
	s.holidayMu.Lock()
	s.holidays = hs
	s.holidayMu.Unlock()
}

func (s *Server) holidaySet() feed.HolidaySet {
	s.holidayMu.RLock()
	defer s.holidayMu.RUnlock()
	return s.holidays
}

// Handler returns the http.Handler, wrapping it with basic auth when
// credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials count as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards every endpoint except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="caldash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer binds to the configured listen address and serves until the
// listener fails. Graceful shutdown via ctx is left to the caller wrapping
// http.Server.
func StartServer(_ context.Context, s *Server) error {
	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/timestamp", s.handleTimestamp)
	s.mux.HandleFunc("/api/dayname", s.handleDayName)
	s.mux.HandleFunc("/api/format", s.handleFormat)
	s.mux.HandleFunc("/api/month", s.handleMonth)
	s.mux.HandleFunc("/api/period", s.handlePeriod)
	s.mux.HandleFunc("/api/next", s.handleNext)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/schedule.ics", s.handleScheduleICS)
	s.mux.HandleFunc("/api/recurrence", s.handleRecurrence)
	s.mux.HandleFunc("/api/almanac", s.handleAlmanac)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleTimestamp converts a date string to epoch milliseconds.
//
// GET /api/timestamp?date=04 Dec 1995 00:12:00 UTC
func (s *Server) handleTimestamp(w http.ResponseWriter, r *http.Request) {
	ms, err := calc.Timestamp(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"epoch_ms": ms})
}

// GET /api/dayname?date=...
func (s *Server) handleDayName(w http.ResponseWriter, r *http.Request) {
	name, err := calc.DayName(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day_name": name})
}

// GET /api/format?date=...&style=clock|long
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := dateparse.ParseIn(q.Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var formatted string
	switch style := q.Get("style"); style {
	case "", "long":
		formatted = calc.FormatLong(t)
	case "clock":
		formatted = calc.Clock(t)
	default:
		writeError(w, http.StatusBadRequest, "unknown style "+strconv.Quote(style))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"formatted": formatted})
}

// monthResponse is the JSON shape for /api/month.
type monthResponse struct {
	Year     int  `json:"year"`
	Month    int  `json:"month"`
	Days     int  `json:"days"`
	Weekends int  `json:"weekends"`
	LeapYear bool `json:"leap_year"`
}

// GET /api/month?month=2&year=2024
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month := parseIntDefault(q.Get("month"), 0)
	year := parseIntDefault(q.Get("year"), 0)
	if month < 1 || month > 12 || year == 0 {
		writeError(w, http.StatusBadRequest, "month must be 1-12 and year set")
		return
	}
	writeJSON(w, http.StatusOK, monthResponse{
		Year:     year,
		Month:    month,
		Days:     calc.DaysInMonth(time.Month(month), year),
		Weekends: calc.WeekendsInMonth(time.Month(month), year),
		LeapYear: calc.IsLeapYearN(year),
	})
}

// periodResponse is the JSON shape for /api/period.
type periodResponse struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Days            int       `json:"days"`
	WeekNumberStart int       `json:"week_number_start"`
	WeekNumberEnd   int       `json:"week_number_end"`
	Contains        *bool     `json:"contains,omitempty"`
}

// GET /api/period?start=...&end=...[&date=...]
func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := dateparse.ParseIn(q.Get("start"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := dateparse.ParseIn(q.Get("end"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	p, err := model.NewPeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := periodResponse{
		Start:           p.Start,
		End:             p.End,
		Days:            calc.DaysInPeriod(p),
		WeekNumberStart: calc.WeekNumber(p.Start),
		WeekNumberEnd:   calc.WeekNumber(p.End),
	}

	if ds := q.Get("date"); ds != "" {
		t, derr := dateparse.ParseIn(ds, s.loc)
		if derr != nil {
			writeError(w, http.StatusBadRequest, "date: "+derr.Error())
			return
		}
		contains := calc.InPeriod(t, p)
		resp.Contains = &contains
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/next?what=friday|friday13&date=...
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := dateparse.ParseIn(q.Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var next time.Time
	switch what := q.Get("what"); what {
	case "", "friday":
		next = calc.NextFriday(t)
	case "friday13":
		next = calc.NextFridayThe13th(t)
	default:
		writeError(w, http.StatusBadRequest, "unknown target "+strconv.Quote(what))
		return
	}
	if next.IsZero() {
		writeError(w, http.StatusInternalServerError, "no matching date within the scan horizon")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"next":     next,
		"date":     model.DateOf(next).String(),
		"epoch_ms": model.EpochMillis(next),
	})
}

// scheduleParams extracts the shared /api/schedule query parameters.
func (s *Server) scheduleParams(r *http.Request) (start, end string, cycle schedule.Cycle, holidays feed.HolidaySet) {
	q := r.URL.Query()
	start = q.Get("start")
	end = q.Get("end")
	cycle = schedule.Cycle{
		WorkDays: parseIntDefault(q.Get("work"), s.cfg.WorkDays),
		OffDays:  parseIntDefault(q.Get("off"), s.cfg.OffDays),
	}
	if q.Get("skip_holidays") == "1" || q.Get("skip_holidays") == "true" {
		holidays = s.holidaySet()
	}
	return start, end, cycle, holidays
}

// GET /api/schedule?start=01-01-2024&end=15-01-2024&work=1&off=3
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	start, end, cycle, holidays := s.scheduleParams(r)
	days, err := schedule.GenerateExcluding(start, end, cycle, holidays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"work_days": cycle.WorkDays,
		"off_days":  cycle.OffDays,
		"days":      days,
	})
}

// GET /api/schedule.ics — same parameters, iCalendar response.
func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	start, end, cycle, holidays := s.scheduleParams(r)
	dates, err := schedule.Dates(start, end, cycle, holidays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(schedule.Export(dates, "Work day"))); err != nil {
		appLog.Error("failed to write ICS response", err)
	}
}

// GET /api/recurrence?rrule=...&start=...&end=...
//
// The rrule value must be URL-escaped since RRULE strings contain
// semicolons (e.g. FREQ=MONTHLY;BYDAY=FR;BYMONTHDAY=13).
func (s *Server) handleRecurrence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := dateparse.ParseIn(q.Get("start"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := dateparse.ParseIn(q.Get("end"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	p, err := model.NewPeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := recur.Expand(q.Get("rrule"), recur.Config{Period: p})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"times":     result.Times,
		"truncated": result.Truncated,
	})
}

// GET /api/almanac
func (s *Server) handleAlmanac(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.almanac.Current())
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// resolveLocation loads an IANA timezone, falling back to UTC on failure.
func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", name)
		return time.UTC
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
