package transit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uagis.dev/transit/model"
	"uagis.dev/transit/storage"
)

// ErrNoService is returned by single-departure lookups when no
// service operates on the requested date at all. It is distinct from
// "services run, but none match the query."
var ErrNoService = errors.New("no service on date")

// overfetchFactor is how many stop time candidates are pulled per
// requested departure before the trip join. Candidates can be dropped
// after the join (inactive service, route filter), so fetching
// exactly limit rows would under-deliver.
const overfetchFactor = 5

// Schedule answers departure queries against a loaded feed. It holds
// no state of its own; every call reads the store.
type Schedule struct {
	store storage.Reader
}

func NewSchedule(store storage.Reader) *Schedule {
	return &Schedule{store: store}
}

// ActiveServices resolves the set of service IDs operating on the
// given date. Weekly calendar matches form the base set; exceptions
// dated that day are then applied, additions before removals. An
// empty set is a valid outcome, not an error.
func (s *Schedule) ActiveServices(ctx context.Context, day time.Time) (map[string]bool, error) {
	serviceIDs, err := s.store.ActiveCalendarServices(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}

	active := make(map[string]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		active[id] = true
	}

	exceptions, err := s.store.CalendarExceptionsOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("querying calendar exceptions: %w", err)
	}

	for _, e := range exceptions {
		if e.ExceptionType == model.ExceptionAdded {
			active[e.ServiceID] = true
		}
	}
	for _, e := range exceptions {
		if e.ExceptionType == model.ExceptionRemoved {
			delete(active, e.ServiceID)
		}
	}

	return active, nil
}

// NextDepartures returns up to limit departures from the stop on the
// given date, at or after cutoff (seconds since midnight of the
// service day), ordered by departure time. routeID, if non-empty,
// restricts results to that route. An unknown stop yields
// storage.ErrNotFound; a date with no active services yields an empty
// list.
func (s *Schedule) NextDepartures(
	ctx context.Context,
	stopID string,
	day time.Time,
	cutoff int,
	limit int,
	routeID string,
) ([]model.Departure, error) {

	if _, err := s.store.Stop(ctx, stopID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("stop %q: %w", stopID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("looking up stop: %w", err)
	}

	departures := []model.Departure{}

	active, err := s.ActiveServices(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return departures, nil
	}

	candidates, err := s.store.StopTimesAtStop(ctx, stopID, cutoff, limit*overfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}

	matched, err := s.joinAndFilter(ctx, candidates, active, routeID, limit)
	if err != nil {
		return nil, err
	}

	return s.project(ctx, matched)
}

// NextRouteDeparture returns the single next departure of the given
// route from the stop. Unlike NextDepartures it scans candidates
// without an over-fetch bound, stopping at the first match. A date
// with no active services yields ErrNoService before any stop time is
// read; an unknown stop or route yields storage.ErrNotFound, as does
// an exhausted candidate list.
func (s *Schedule) NextRouteDeparture(
	ctx context.Context,
	stopID string,
	routeID string,
	day time.Time,
	cutoff int,
) (*model.Departure, error) {

	if _, err := s.store.Stop(ctx, stopID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("stop %q: %w", stopID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("looking up stop: %w", err)
	}
	if _, err := s.store.Route(ctx, routeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("route %q: %w", routeID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("looking up route: %w", err)
	}

	active, err := s.ActiveServices(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoService
	}

	candidates, err := s.store.StopTimesAtStop(ctx, stopID, cutoff, 0)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}

	matched, err := s.joinAndFilter(ctx, candidates, active, routeID, 1)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no departure for route %q at stop %q: %w", routeID, stopID, storage.ErrNotFound)
	}

	departures, err := s.project(ctx, matched)
	if err != nil {
		return nil, err
	}
	return &departures[0], nil
}

type joinedDeparture struct {
	stopTime *model.StopTime
	trip     *model.Trip
}

// joinAndFilter joins stop time candidates to their trips, drops
// those without a trip or an active service, applies the optional
// route filter, and truncates to limit. Candidate order is preserved.
func (s *Schedule) joinAndFilter(
	ctx context.Context,
	candidates []*model.StopTime,
	active map[string]bool,
	routeID string,
	limit int,
) ([]joinedDeparture, error) {

	tripIDs := make([]string, 0, len(candidates))
	seen := map[string]bool{}
	for _, st := range candidates {
		if !seen[st.TripID] {
			seen[st.TripID] = true
			tripIDs = append(tripIDs, st.TripID)
		}
	}

	trips, err := s.store.TripsByIDs(ctx, tripIDs)
	if err != nil {
		return nil, fmt.Errorf("joining trips: %w", err)
	}

	matched := []joinedDeparture{}
	for _, st := range candidates {
		trip, ok := trips[st.TripID]
		if !ok {
			continue
		}
		if !active[trip.ServiceID] {
			continue
		}
		if routeID != "" && trip.RouteID != routeID {
			continue
		}
		matched = append(matched, joinedDeparture{stopTime: st, trip: trip})
		if limit > 0 && len(matched) == limit {
			break
		}
	}

	return matched, nil
}

// project left joins each matched row to its route and builds the
// final departure records. A missing route keeps the row; its
// route-derived fields stay empty.
func (s *Schedule) project(ctx context.Context, matched []joinedDeparture) ([]model.Departure, error) {
	routeIDs := make([]string, 0, len(matched))
	seen := map[string]bool{}
	for _, m := range matched {
		if !seen[m.trip.RouteID] {
			seen[m.trip.RouteID] = true
			routeIDs = append(routeIDs, m.trip.RouteID)
		}
	}

	routes, err := s.store.RoutesByIDs(ctx, routeIDs)
	if err != nil {
		return nil, fmt.Errorf("joining routes: %w", err)
	}

	departures := make([]model.Departure, 0, len(matched))
	for _, m := range matched {
		d := model.Departure{
			DepartureTime:        model.FormatTime(m.stopTime.Departure),
			Headsign:             m.trip.Headsign,
			WheelchairAccessible: m.trip.WheelchairAccessible,
		}
		if m.stopTime.Headsign != "" {
			d.Headsign = m.stopTime.Headsign
		}
		if route, ok := routes[m.trip.RouteID]; ok {
			d.RouteShortName = route.ShortName
			d.RouteLongName = route.LongName
			d.RouteColor = route.Color
		}
		departures = append(departures, d)
	}

	return departures, nil
}
