package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"uagis.dev/transit"
	"uagis.dev/transit/model"
	"uagis.dev/transit/storage"
)

const (
	defaultDepartureLimit = 10
	maxDepartureLimit     = 50
)

// queryDay resolves the date query parameter, defaulting to today in
// the configured time zone. The result is a UTC day start, matching
// how calendar dates are persisted.
func (s *Server) queryDay(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := s.TimeNow().In(s.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return model.DayStart(parsed), true
}

// queryCutoff resolves the startTime query parameter as seconds since
// midnight, defaulting to the current wall clock in the configured
// time zone. Hours past 23 are accepted.
func (s *Server) queryCutoff(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("startTime")
	if raw == "" {
		now := s.TimeNow().In(s.location)
		return now.Hour()*3600 + now.Minute()*60 + now.Second(), true
	}
	return model.ParseTime(raw)
}

func (s *Server) nextDepartures(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	day, ok := s.queryDay(r)
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	cutoff, ok := s.queryCutoff(r)
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid startTime, expected HH:MM:SS")
		return
	}

	limit := defaultDepartureLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxDepartureLimit {
			s.sendError(w, http.StatusBadRequest, "invalid limit, expected 1-50")
			return
		}
		limit = parsed
	}

	departures, err := s.schedule.NextDepartures(
		r.Context(), params.ByName("id"), day, cutoff, limit, r.URL.Query().Get("routeId"))
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "stop not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, departures)
}

func (s *Server) nextRouteDeparture(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	routeID := r.URL.Query().Get("routeId")
	if routeID == "" {
		s.sendError(w, http.StatusBadRequest, "routeId query parameter is required")
		return
	}

	day, ok := s.queryDay(r)
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	cutoff, ok := s.queryCutoff(r)
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid startTime, expected HH:MM:SS")
		return
	}

	departure, err := s.schedule.NextRouteDeparture(r.Context(), params.ByName("id"), routeID, day, cutoff)
	if errors.Is(err, transit.ErrNoService) {
		s.sendError(w, http.StatusNotFound, "no service on requested date")
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "no matching departure found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, departure)
}
