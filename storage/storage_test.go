package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uagis.dev/transit/model"
	"uagis.dev/transit/storage"
	"uagis.dev/transit/testutil"
)

func testBackends(t *testing.T, test func(t *testing.T, store storage.Store)) {
	backends := []string{"memory", "sqlite"}
	if os.Getenv("TRANSIT_TEST_POSTGRES") != "" {
		backends = append(backends, "postgres")
	}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			store := testutil.BuildStore(t, backend)
			defer store.Close()

			for _, c := range storage.AllCollections {
				_, err := store.DeleteAll(context.Background(), c)
				require.NoError(t, err)
				require.NoError(t, store.EnsureIndexes(context.Background(), c))
			}

			test(t, store)
		})
	}
}

func TestRouteRoundTrip(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		route := &model.Route{
			ID:        "r1",
			AgencyID:  "a1",
			ShortName: "1",
			LongName:  "First Route",
			Desc:      "desc",
			Type:      "3",
			URL:       "http://example.com",
			Color:     "FF0000",
			TextColor: "FFFFFF",
			ShapeIDs:  []string{"sh1", "sh2"},
		}
		n, err := store.BulkUpsert(ctx, storage.Routes, []storage.Document{route})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := store.Route(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, route, got)

		_, err = store.Route(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		// Upsert replaces.
		route2 := &model.Route{ID: "r1", ShortName: "1A", ShapeIDs: []string{}}
		_, err = store.BulkUpsert(ctx, storage.Routes, []storage.Document{route2})
		require.NoError(t, err)

		got, err = store.Route(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "1A", got.ShortName)

		routes, err := store.Routes(ctx)
		require.NoError(t, err)
		assert.Len(t, routes, 1)
	})
}

func TestStopRoundTrip(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		stop := &model.Stop{
			ID:           "s1",
			Name:         "Main St",
			Lat:          50.4,
			Lon:          30.5,
			Location:     model.NewPoint(30.5, 50.4),
			LocationType: "0",
		}
		_, err := store.BulkUpsert(ctx, storage.Stops, []storage.Document{stop})
		require.NoError(t, err)

		got, err := store.Stop(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, stop, got)

		stops, err := store.Stops(ctx)
		require.NoError(t, err)
		require.Len(t, stops, 1)
	})
}

func TestShapeListings(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		docs := []storage.Document{
			&model.Shape{ID: "b", Coordinates: [][2]float64{{1, 2}, {3, 4}}},
			&model.Shape{ID: "a", Coordinates: [][2]float64{{5, 6}}},
			&model.Shape{ID: "c", Coordinates: [][2]float64{}},
		}
		_, err := store.BulkUpsert(ctx, storage.Shapes, docs)
		require.NoError(t, err)

		shapes, err := store.Shapes(ctx, 0)
		require.NoError(t, err)
		require.Len(t, shapes, 3)
		assert.Equal(t, "a", shapes[0].ID)
		assert.Equal(t, "b", shapes[1].ID)
		assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, shapes[1].Coordinates)

		limited, err := store.Shapes(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		got, err := store.Shape(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, [][2]float64{{5, 6}}, got.Coordinates)
	})
}

func TestTripLookups(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		direction := int8(1)
		wheelchair := int8(2)
		trip := &model.Trip{
			ID:                   "t1",
			RouteID:              "r1",
			ServiceID:            "s1",
			Headsign:             "Downtown",
			DirectionID:          &direction,
			BlockID:              "b1",
			ShapeID:              "sh1",
			WheelchairAccessible: &wheelchair,
		}
		bare := &model.Trip{ID: "t2", RouteID: "r1", ServiceID: "s1"}
		_, err := store.BulkUpsert(ctx, storage.Trips, []storage.Document{trip, bare})
		require.NoError(t, err)

		trips, err := store.TripsByIDs(ctx, []string{"t1", "t2", "ghost"})
		require.NoError(t, err)
		require.Len(t, trips, 2)
		assert.Equal(t, trip, trips["t1"])
		assert.Nil(t, trips["t2"].DirectionID)
		assert.Nil(t, trips["t2"].WheelchairAccessible)

		empty, err := store.TripsByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestStopTimesAtStop(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		dist := 3.5
		timepoint := int8(1)
		docs := []storage.Document{
			&model.StopTime{TripID: "t1", StopID: "S", StopSequence: 1, Arrival: 300, Departure: 300},
			&model.StopTime{TripID: "t2", StopID: "S", StopSequence: 1, Arrival: 100, Departure: 100,
				Headsign: "X", PickupType: 1, DropOffType: 2, ShapeDistTraveled: &dist, Timepoint: &timepoint},
			&model.StopTime{TripID: "t3", StopID: "S", StopSequence: 1, Arrival: 200, Departure: 200},
			&model.StopTime{TripID: "t4", StopID: "other", StopSequence: 1, Arrival: 150, Departure: 150},
		}
		_, err := store.BulkUpsert(ctx, storage.StopTimes, docs)
		require.NoError(t, err)

		all, err := store.StopTimesAtStop(ctx, "S", 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int{100, 200, 300}, []int{all[0].Departure, all[1].Departure, all[2].Departure})
		assert.Equal(t, "X", all[0].Headsign)
		require.NotNil(t, all[0].ShapeDistTraveled)
		assert.Equal(t, 3.5, *all[0].ShapeDistTraveled)

		// Cutoff is inclusive, limit truncates.
		some, err := store.StopTimesAtStop(ctx, "S", 200, 1)
		require.NoError(t, err)
		require.Len(t, some, 1)
		assert.Equal(t, 200, some[0].Departure)

		// Duplicate rows are kept; stop times have no natural key.
		_, err = store.BulkUpsert(ctx, storage.StopTimes, docs[:1])
		require.NoError(t, err)
		n, err := store.EstimatedCount(ctx, storage.StopTimes)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})
}

func TestActiveCalendarServices(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		docs := []storage.Document{
			&model.Calendar{
				ServiceID: "weekday",
				Monday:    true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true,
				StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
			},
			&model.Calendar{
				ServiceID: "sunday",
				Sunday:    true,
				StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
			},
		}
		_, err := store.BulkUpsert(ctx, storage.Calendar, docs)
		require.NoError(t, err)

		// 2024-01-03 is a Wednesday. Time of day is irrelevant.
		services, err := store.ActiveCalendarServices(ctx, time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, []string{"weekday"}, services)

		// Last covered day is included, the one after is not.
		services, err = store.ActiveCalendarServices(ctx, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, []string{"weekday"}, services)

		services, err = store.ActiveCalendarServices(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, services)

		services, err = store.ActiveCalendarServices(ctx, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, []string{"sunday"}, services)
	})
}

func TestCalendarExceptionsOn(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		docs := []storage.Document{
			&model.CalendarDate{ServiceID: "s1", Date: jan3, ExceptionType: 1},
			&model.CalendarDate{ServiceID: "s2", Date: jan3, ExceptionType: 2},
			&model.CalendarDate{ServiceID: "s1", Date: jan3.AddDate(0, 0, 1), ExceptionType: 1},
		}
		_, err := store.BulkUpsert(ctx, storage.CalendarDates, docs)
		require.NoError(t, err)

		// Matched by exact date, not range; time of day ignored.
		exceptions, err := store.CalendarExceptionsOn(ctx, jan3.Add(10*time.Hour))
		require.NoError(t, err)
		assert.Len(t, exceptions, 2)

		exceptions, err = store.CalendarExceptionsOn(ctx, jan3.AddDate(0, 0, 2))
		require.NoError(t, err)
		assert.Empty(t, exceptions)
	})
}

func TestDeleteAll(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		_, err := store.BulkUpsert(ctx, storage.Routes, []storage.Document{
			&model.Route{ID: "r1", ShapeIDs: []string{}},
			&model.Route{ID: "r2", ShapeIDs: []string{}},
		})
		require.NoError(t, err)

		deleted, err := store.DeleteAll(ctx, storage.Routes)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		n, err := store.EstimatedCount(ctx, storage.Routes)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestRefreshStatus(t *testing.T) {
	testBackends(t, func(t *testing.T, store storage.Store) {
		ctx := context.Background()

		_, err := store.RefreshStatus(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		success := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.WriteRefreshStatus(ctx, &model.RefreshStatus{LastSuccess: success}))

		status, err := store.RefreshStatus(ctx)
		require.NoError(t, err)
		assert.True(t, status.LastSuccess.Equal(success))
		assert.True(t, status.LastErrorAt.IsZero())

		// An error record leaves the success timestamp in place.
		errAt := success.Add(time.Hour)
		require.NoError(t, store.WriteRefreshStatus(ctx, &model.RefreshStatus{
			LastErrorAt:  errAt,
			LastErrorMsg: "fetch failed",
		}))

		status, err = store.RefreshStatus(ctx)
		require.NoError(t, err)
		assert.True(t, status.LastSuccess.Equal(success))
		assert.True(t, status.LastErrorAt.Equal(errAt))
		assert.Equal(t, "fetch failed", status.LastErrorMsg)

		// And a later success leaves the error record in place.
		success2 := errAt.Add(time.Hour)
		require.NoError(t, store.WriteRefreshStatus(ctx, &model.RefreshStatus{LastSuccess: success2}))

		status, err = store.RefreshStatus(ctx)
		require.NoError(t, err)
		assert.True(t, status.LastSuccess.Equal(success2))
		assert.Equal(t, "fetch failed", status.LastErrorMsg)
	})
}
