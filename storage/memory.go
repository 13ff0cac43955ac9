package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"uagis.dev/transit/model"
)

// MemoryStore keeps all collections in process memory. It backs tests
// and small deployments; semantics match the SQL backends.
type MemoryStore struct {
	mu sync.RWMutex

	routes        map[string]*model.Route
	stops         map[string]*model.Stop
	shapes        map[string]*model.Shape
	trips         map[string]*model.Trip
	stopTimes     []*model.StopTime
	calendars     map[string]*model.Calendar
	calendarDates []*model.CalendarDate
	status        *model.RefreshStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		routes:    map[string]*model.Route{},
		stops:     map[string]*model.Stop{},
		shapes:    map[string]*model.Shape{},
		trips:     map[string]*model.Trip{},
		calendars: map[string]*model.Calendar{},
	}
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) DeleteAll(ctx context.Context, c Collection) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	switch c {
	case Routes:
		n = int64(len(m.routes))
		m.routes = map[string]*model.Route{}
	case Stops:
		n = int64(len(m.stops))
		m.stops = map[string]*model.Stop{}
	case Shapes:
		n = int64(len(m.shapes))
		m.shapes = map[string]*model.Shape{}
	case Trips:
		n = int64(len(m.trips))
		m.trips = map[string]*model.Trip{}
	case StopTimes:
		n = int64(len(m.stopTimes))
		m.stopTimes = nil
	case Calendar:
		n = int64(len(m.calendars))
		m.calendars = map[string]*model.Calendar{}
	case CalendarDates:
		n = int64(len(m.calendarDates))
		m.calendarDates = nil
	case Metadata:
		if m.status != nil {
			n = 1
		}
		m.status = nil
	default:
		return 0, fmt.Errorf("unknown collection %q", c)
	}

	return n, nil
}

func (m *MemoryStore) BulkUpsert(ctx context.Context, c Collection, docs []Document) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	written := 0
	for _, doc := range docs {
		switch d := doc.(type) {
		case *model.Route:
			m.routes[d.ID] = d
		case *model.Stop:
			m.stops[d.ID] = d
		case *model.Shape:
			m.shapes[d.ID] = d
		case *model.Trip:
			m.trips[d.ID] = d
		case *model.StopTime:
			m.stopTimes = append(m.stopTimes, d)
		case *model.Calendar:
			m.calendars[d.ServiceID] = d
		case *model.CalendarDate:
			m.calendarDates = append(m.calendarDates, d)
		default:
			return written, fmt.Errorf("collection %q: unsupported document type %T", c, doc)
		}
		written++
	}

	return written, nil
}

func (m *MemoryStore) EnsureIndexes(ctx context.Context, c Collection) error {
	// Nothing to index in memory.
	return nil
}

func (m *MemoryStore) WriteRefreshStatus(ctx context.Context, status *model.RefreshStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == nil {
		m.status = &model.RefreshStatus{}
	}
	if !status.LastSuccess.IsZero() {
		m.status.LastSuccess = status.LastSuccess
	}
	if !status.LastErrorAt.IsZero() {
		m.status.LastErrorAt = status.LastErrorAt
		m.status.LastErrorMsg = status.LastErrorMsg
	}

	return nil
}

func (m *MemoryStore) Routes(ctx context.Context) ([]*model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	routes := make([]*model.Route, 0, len(m.routes))
	for _, r := range m.routes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })

	return routes, nil
}

func (m *MemoryStore) Route(ctx context.Context, id string) (*model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *MemoryStore) Stops(ctx context.Context) ([]*model.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stops := make([]*model.Stop, 0, len(m.stops))
	for _, s := range m.stops {
		stops = append(stops, s)
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].ID < stops[j].ID })

	return stops, nil
}

func (m *MemoryStore) Stop(ctx context.Context, id string) (*model.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Shapes(ctx context.Context, limit int) ([]*model.Shape, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shapes := make([]*model.Shape, 0, len(m.shapes))
	for _, s := range m.shapes {
		shapes = append(shapes, s)
	}
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].ID < shapes[j].ID })

	if limit > 0 && len(shapes) > limit {
		shapes = shapes[:limit]
	}

	return shapes, nil
}

func (m *MemoryStore) Shape(ctx context.Context, id string) (*model.Shape, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shapes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) TripsByIDs(ctx context.Context, ids []string) (map[string]*model.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trips := map[string]*model.Trip{}
	for _, id := range ids {
		if t, ok := m.trips[id]; ok {
			trips[id] = t
		}
	}

	return trips, nil
}

func (m *MemoryStore) RoutesByIDs(ctx context.Context, ids []string) (map[string]*model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	routes := map[string]*model.Route{}
	for _, id := range ids {
		if r, ok := m.routes[id]; ok {
			routes[id] = r
		}
	}

	return routes, nil
}

func (m *MemoryStore) StopTimesAtStop(ctx context.Context, stopID string, cutoff int, limit int) ([]*model.StopTime, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := []*model.StopTime{}
	for _, st := range m.stopTimes {
		if st.StopID == stopID && st.Departure >= cutoff {
			matches = append(matches, st)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Departure < matches[j].Departure
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (m *MemoryStore) ActiveCalendarServices(ctx context.Context, day time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dayStart := model.DayStart(day)
	weekday := dayStart.Weekday()

	services := []string{}
	for _, c := range m.calendars {
		if !c.ActiveOn(weekday) {
			continue
		}
		if c.StartDate.After(dayStart) || c.EndDate.Before(dayStart) {
			continue
		}
		services = append(services, c.ServiceID)
	}
	sort.Strings(services)

	return services, nil
}

func (m *MemoryStore) CalendarExceptionsOn(ctx context.Context, day time.Time) ([]*model.CalendarDate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dayStart := model.DayStart(day)

	exceptions := []*model.CalendarDate{}
	for _, cd := range m.calendarDates {
		if cd.Date.Equal(dayStart) {
			exceptions = append(exceptions, cd)
		}
	}

	return exceptions, nil
}

func (m *MemoryStore) EstimatedCount(ctx context.Context, c Collection) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch c {
	case Routes:
		return int64(len(m.routes)), nil
	case Stops:
		return int64(len(m.stops)), nil
	case Shapes:
		return int64(len(m.shapes)), nil
	case Trips:
		return int64(len(m.trips)), nil
	case StopTimes:
		return int64(len(m.stopTimes)), nil
	case Calendar:
		return int64(len(m.calendars)), nil
	case CalendarDates:
		return int64(len(m.calendarDates)), nil
	case Metadata:
		if m.status != nil {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("unknown collection %q", c)
}

func (m *MemoryStore) RefreshStatus(ctx context.Context) (*model.RefreshStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status == nil {
		return nil, ErrNotFound
	}
	status := *m.status

	return &status, nil
}
