// Package api exposes the read-only HTTP interface over a loaded
// feed: static GTFS entities, departure queries, and service status.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"uagis.dev/transit"
	"uagis.dev/transit/storage"
)

// Server holds the handler dependencies. TimeNow and the location
// drive the "today"/"now" defaults in departure queries.
type Server struct {
	store     storage.Reader
	schedule  *transit.Schedule
	scheduler *transit.Scheduler
	logger    *slog.Logger
	location  *time.Location

	TimeNow func() time.Time
}

func NewServer(
	store storage.Reader,
	schedule *transit.Schedule,
	scheduler *transit.Scheduler,
	logger *slog.Logger,
	location *time.Location,
) *Server {
	return &Server{
		store:     store,
		schedule:  schedule,
		scheduler: scheduler,
		logger:    logger,
		location:  location,
		TimeNow:   time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/api/routes", s.listRoutes)
	router.GET("/api/routes/:id", s.getRoute)
	router.GET("/api/stops", s.listStops)
	router.GET("/api/stops/:id", s.getStop)
	router.GET("/api/shapes", s.listShapes)
	router.GET("/api/shapes/:id", s.getShape)
	router.GET("/api/stops/:id/next-departures", s.nextDepartures)
	router.GET("/api/stops/:id/next-departure", s.nextRouteDeparture)
	router.GET("/api/status", s.status)

	return s.requestLogging(router)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", float64(time.Since(start).Nanoseconds())/1e6)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) sendError(w http.ResponseWriter, status int, detail string) {
	s.sendJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	s.sendError(w, http.StatusInternalServerError, "internal server error")
}
