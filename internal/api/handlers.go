package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"uagis.dev/transit/storage"
)

// maxShapes caps the /api/shapes listing. Large feeds can carry tens
// of thousands of shapes; the full map would not fit a sane response.
const maxShapes = 10000

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	routes, err := s.store.Routes(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, routes)
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	route, err := s.store.Route(r.Context(), params.ByName("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "route not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, route)
}

func (s *Server) listStops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stops, err := s.store.Stops(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, stops)
}

func (s *Server) getStop(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	stop, err := s.store.Stop(r.Context(), params.ByName("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "stop not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, stop)
}

// listShapes returns {shape_id: [[lat, lon], ...]} for up to
// maxShapes shapes.
func (s *Server) listShapes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	shapes, err := s.store.Shapes(r.Context(), maxShapes)
	if err != nil {
		s.serverError(w, err)
		return
	}

	byID := make(map[string][][2]float64, len(shapes))
	for _, shape := range shapes {
		byID[shape.ID] = shape.Coordinates
	}
	s.sendJSON(w, http.StatusOK, byID)
}

func (s *Server) getShape(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	shape, err := s.store.Shape(r.Context(), params.ByName("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "shape not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, shape)
}
