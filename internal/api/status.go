package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"uagis.dev/transit"
	"uagis.dev/transit/storage"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`

	LastSuccessfulUpdateUTC *time.Time `json:"last_successful_update_utc"`
	LastErrorUTC            *time.Time `json:"last_error_utc,omitempty"`
	LastErrorMessage        string     `json:"last_error_message,omitempty"`
	NextUpdateApproxUTC     *time.Time `json:"next_update_approx_utc,omitempty"`
	UpdateInProgress        bool       `json:"update_in_progress"`

	RoutesCount    *int64 `json:"db_routes_count"`
	ShapesCount    *int64 `json:"db_shapes_count"`
	StopsCount     *int64 `json:"db_stops_count"`
	TripsCount     *int64 `json:"db_trips_count"`
	StopTimesCount *int64 `json:"db_stop_times_count"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := statusResponse{
		Status:  "OK",
		Message: "service is running",
	}

	refresh, err := s.store.RefreshStatus(r.Context())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// No refresh has happened yet.
	case err != nil:
		s.logger.Warn("reading refresh status failed", "error", err)
		resp.Status = "Warning"
		resp.Message = "could not read refresh metadata"
	default:
		if !refresh.LastSuccess.IsZero() {
			t := refresh.LastSuccess
			resp.LastSuccessfulUpdateUTC = &t
		}
		if !refresh.LastErrorAt.IsZero() {
			t := refresh.LastErrorAt
			resp.LastErrorUTC = &t
			resp.LastErrorMessage = refresh.LastErrorMsg
			resp.Status = "Error"
			resp.Message = "last background refresh failed"
		}
	}

	if s.scheduler != nil {
		state, sleepUntil := s.scheduler.State()
		resp.UpdateInProgress = state == transit.SchedulerRunning
		if state == transit.SchedulerSleeping {
			utc := sleepUntil.UTC()
			resp.NextUpdateApproxUTC = &utc
		}
	}

	counts := []struct {
		collection storage.Collection
		dst        **int64
	}{
		{storage.Routes, &resp.RoutesCount},
		{storage.Shapes, &resp.ShapesCount},
		{storage.Stops, &resp.StopsCount},
		{storage.Trips, &resp.TripsCount},
		{storage.StopTimes, &resp.StopTimesCount},
	}
	for _, c := range counts {
		n, err := s.store.EstimatedCount(r.Context(), c.collection)
		if err != nil {
			s.logger.Warn("counting collection failed", "collection", c.collection, "error", err)
			if resp.Status == "OK" {
				resp.Status = "Warning"
				resp.Message = "could not count all collections"
			}
			continue
		}
		v := n
		*c.dst = &v
	}

	s.sendJSON(w, http.StatusOK, resp)
}
