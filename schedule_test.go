package transit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uagis.dev/transit"
	"uagis.dev/transit/model"
	"uagis.dev/transit/storage"
)

func put(t *testing.T, store storage.Store, c storage.Collection, docs ...storage.Document) {
	_, err := store.BulkUpsert(context.Background(), c, docs)
	require.NoError(t, err)
}

// A Mon-Fri service through January 2024, plus a weekend-only one.
func calendarFixture(t *testing.T, store storage.Store) {
	put(t, store, storage.Calendar,
		&model.Calendar{
			ServiceID: "weekday",
			Monday:    true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true,
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		},
		&model.Calendar{
			ServiceID: "weekend",
			Saturday:  true, Sunday: true,
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActiveServicesWeekly(t *testing.T) {
	store := storage.NewMemoryStore()
	calendarFixture(t, store)
	schedule := transit.NewSchedule(store)

	// 2024-01-03 is a Wednesday.
	active, err := schedule.ActiveServices(context.Background(), day(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"weekday": true}, active)

	// 2024-01-06 is a Saturday.
	active, err = schedule.ActiveServices(context.Background(), day(2024, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"weekend": true}, active)

	// Past end_date.
	active, err = schedule.ActiveServices(context.Background(), day(2024, 2, 1))
	require.NoError(t, err)
	assert.Empty(t, active)

	// Before start_date.
	active, err = schedule.ActiveServices(context.Background(), day(2023, 12, 29))
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestActiveServicesExceptions(t *testing.T) {
	store := storage.NewMemoryStore()
	calendarFixture(t, store)

	// Add weekend service on a Wednesday, remove weekday service on
	// another Wednesday.
	put(t, store, storage.CalendarDates,
		&model.CalendarDate{ServiceID: "weekend", Date: day(2024, 1, 3), ExceptionType: model.ExceptionAdded},
		&model.CalendarDate{ServiceID: "weekday", Date: day(2024, 1, 10), ExceptionType: model.ExceptionRemoved},
	)

	schedule := transit.NewSchedule(store)

	active, err := schedule.ActiveServices(context.Background(), day(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"weekday": true, "weekend": true}, active)

	active, err = schedule.ActiveServices(context.Background(), day(2024, 1, 10))
	require.NoError(t, err)
	assert.Empty(t, active)

	// Other dates are unaffected.
	active, err = schedule.ActiveServices(context.Background(), day(2024, 1, 17))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"weekday": true}, active)
}

func TestActiveServicesAddBeatenByRemove(t *testing.T) {
	store := storage.NewMemoryStore()
	put(t, store, storage.CalendarDates,
		&model.CalendarDate{ServiceID: "s1", Date: day(2024, 1, 3), ExceptionType: model.ExceptionRemoved},
		&model.CalendarDate{ServiceID: "s1", Date: day(2024, 1, 3), ExceptionType: model.ExceptionAdded},
	)

	schedule := transit.NewSchedule(store)

	// Additions apply before removals regardless of row order.
	active, err := schedule.ActiveServices(context.Background(), day(2024, 1, 3))
	require.NoError(t, err)
	assert.Empty(t, active)
}

func departuresFixture(t *testing.T, store storage.Store) {
	calendarFixture(t, store)
	put(t, store, storage.Stops,
		&model.Stop{ID: "S", Name: "Main St", Lat: 50.4, Lon: 30.5})
	put(t, store, storage.Routes,
		&model.Route{ID: "r1", ShortName: "1", LongName: "First", Color: "FF0000"},
		&model.Route{ID: "r2", ShortName: "2", LongName: "Second"})
	put(t, store, storage.Trips,
		&model.Trip{ID: "t1", RouteID: "r1", ServiceID: "weekday", Headsign: "Downtown"},
		&model.Trip{ID: "t2", RouteID: "r2", ServiceID: "weekday", Headsign: "Uptown"},
		&model.Trip{ID: "t3", RouteID: "r1", ServiceID: "weekend", Headsign: "Downtown"})
	put(t, store, storage.StopTimes,
		&model.StopTime{TripID: "t1", StopID: "S", StopSequence: 1, Arrival: 100, Departure: 100},
		&model.StopTime{TripID: "t2", StopID: "S", StopSequence: 1, Arrival: 200, Departure: 200},
		&model.StopTime{TripID: "t1", StopID: "S", StopSequence: 2, Arrival: 300, Departure: 300},
		&model.StopTime{TripID: "t3", StopID: "S", StopSequence: 1, Arrival: 250, Departure: 250},
		&model.StopTime{TripID: "t1", StopID: "other", StopSequence: 3, Arrival: 120, Departure: 120})
}

func TestNextDepartures(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	schedule := transit.NewSchedule(store)

	wednesday := day(2024, 1, 3)

	// Cutoff excludes the 100s departure; the weekend trip's 250s
	// departure is filtered post-join.
	departures, err := schedule.NextDepartures(context.Background(), "S", wednesday, 150, 2, "")
	require.NoError(t, err)
	require.Len(t, departures, 2)
	assert.Equal(t, "00:03:20", departures[0].DepartureTime)
	assert.Equal(t, "00:05:00", departures[1].DepartureTime)
	assert.Equal(t, "2", departures[0].RouteShortName)
	assert.Equal(t, "Uptown", departures[0].Headsign)
	assert.Equal(t, "1", departures[1].RouteShortName)
	assert.Equal(t, "FF0000", departures[1].RouteColor)

	// Cutoff is inclusive.
	departures, err = schedule.NextDepartures(context.Background(), "S", wednesday, 100, 10, "")
	require.NoError(t, err)
	require.Len(t, departures, 3)
	assert.Equal(t, "00:01:40", departures[0].DepartureTime)
}

func TestNextDeparturesRouteFilter(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	schedule := transit.NewSchedule(store)

	wednesday := day(2024, 1, 3)

	departures, err := schedule.NextDepartures(context.Background(), "S", wednesday, 0, 10, "r1")
	require.NoError(t, err)
	require.Len(t, departures, 2)
	for _, d := range departures {
		assert.Equal(t, "1", d.RouteShortName)
	}

	// No matches is an empty list, not an error.
	departures, err = schedule.NextDepartures(context.Background(), "S", wednesday, 250, 10, "r2")
	require.NoError(t, err)
	assert.Empty(t, departures)
}

func TestNextDeparturesNoService(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	schedule := transit.NewSchedule(store)

	// No calendar covers February.
	departures, err := schedule.NextDepartures(context.Background(), "S", day(2024, 2, 7), 0, 10, "")
	require.NoError(t, err)
	assert.Empty(t, departures)
}

func TestNextDeparturesUnknownStop(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	schedule := transit.NewSchedule(store)

	_, err := schedule.NextDepartures(context.Background(), "ghost", day(2024, 1, 3), 0, 10, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNextDeparturesMissingTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	put(t, store, storage.StopTimes,
		&model.StopTime{TripID: "orphan", StopID: "S", StopSequence: 1, Arrival: 150, Departure: 150})
	schedule := transit.NewSchedule(store)

	// The orphaned stop time is dropped by the trip join.
	departures, err := schedule.NextDepartures(context.Background(), "S", day(2024, 1, 3), 0, 10, "")
	require.NoError(t, err)
	require.Len(t, departures, 3)
	for _, d := range departures {
		assert.NotEqual(t, "00:02:30", d.DepartureTime)
	}
}

func TestNextRouteDeparture(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	schedule := transit.NewSchedule(store)

	wednesday := day(2024, 1, 3)

	departure, err := schedule.NextRouteDeparture(context.Background(), "S", "r1", wednesday, 150)
	require.NoError(t, err)
	assert.Equal(t, "00:05:00", departure.DepartureTime)
	assert.Equal(t, "1", departure.RouteShortName)

	// Route with no remaining departures is not found.
	_, err = schedule.NextRouteDeparture(context.Background(), "S", "r2", wednesday, 250)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Unknown stop and route are not found.
	_, err = schedule.NextRouteDeparture(context.Background(), "ghost", "r1", wednesday, 0)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = schedule.NextRouteDeparture(context.Background(), "S", "ghost", wednesday, 0)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// A date without service short-circuits with ErrNoService.
	_, err = schedule.NextRouteDeparture(context.Background(), "S", "r1", day(2024, 2, 7), 0)
	assert.ErrorIs(t, err, transit.ErrNoService)
}

func TestNextDepartureStopTimeHeadsignWins(t *testing.T) {
	store := storage.NewMemoryStore()
	departuresFixture(t, store)
	put(t, store, storage.StopTimes,
		&model.StopTime{TripID: "t1", StopID: "S", StopSequence: 5, Arrival: 50, Departure: 50, Headsign: "Short Turn"})
	schedule := transit.NewSchedule(store)

	departures, err := schedule.NextDepartures(context.Background(), "S", day(2024, 1, 3), 0, 1, "")
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "Short Turn", departures[0].Headsign)
}
