package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uagis.dev/transit/model"
)

func decodeRoutesTrips(t *testing.T, routesContent, tripsContent string) ([]*model.Route, []*model.Trip, int, error) {
	routes := []*model.Route{}
	trips := []*model.Trip{}
	skipped, err := DecodeRoutesTrips(discardLogger(), []byte(routesContent), []byte(tripsContent),
		func(trip *model.Trip) error {
			trips = append(trips, trip)
			return nil
		},
		func(route *model.Route) error {
			routes = append(routes, route)
			return nil
		})
	return routes, trips, skipped, err
}

func TestDecodeRoutesTrips(t *testing.T) {
	routes, trips, skipped, err := decodeRoutesTrips(t, `
route_id,agency_id,route_short_name,route_long_name,route_type,route_color
r1,a1,1,First Route,3,FF0000
r2,a1,2,Second Route,3,00FF00`, `
trip_id,route_id,service_id,trip_headsign,direction_id,shape_id,wheelchair_accessible
t1,r1,s1,Downtown,0,sh2,1
t2,r1,s1,Uptown,1,sh1,
t3,r1,s2,Downtown,0,sh2,
t4,r2,s1,Elsewhere,,,`)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, trips, 4)
	require.Len(t, routes, 2)

	// Shape IDs are deduplicated and sorted per route.
	assert.Equal(t, "r1", routes[0].ID)
	assert.Equal(t, []string{"sh1", "sh2"}, routes[0].ShapeIDs)
	assert.Equal(t, "r2", routes[1].ID)
	assert.Equal(t, []string{}, routes[1].ShapeIDs)

	assert.Equal(t, "Downtown", trips[0].Headsign)
	require.NotNil(t, trips[0].DirectionID)
	assert.Equal(t, int8(0), *trips[0].DirectionID)
	require.NotNil(t, trips[1].DirectionID)
	assert.Equal(t, int8(1), *trips[1].DirectionID)
	assert.Nil(t, trips[3].DirectionID)

	require.NotNil(t, trips[0].WheelchairAccessible)
	assert.Equal(t, int8(1), *trips[0].WheelchairAccessible)
	assert.Nil(t, trips[1].WheelchairAccessible)
}

func TestDecodeRoutesTripsUnknownRoute(t *testing.T) {
	// The trip is kept, but its shape is not linked anywhere.
	routes, trips, _, err := decodeRoutesTrips(t,
		"route_id\nr1",
		"trip_id,route_id,service_id,shape_id\nt1,ghost,s1,sh1")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "ghost", trips[0].RouteID)
	require.Len(t, routes, 1)
	assert.Empty(t, routes[0].ShapeIDs)
}

func TestDecodeRoutesTripsSkipsIncompleteTrips(t *testing.T) {
	_, trips, skipped, err := decodeRoutesTrips(t,
		"route_id\nr1", `
trip_id,route_id,service_id
,r1,s1
t1,,s1
t2,r1,
t3,r1,s1`)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, trips, 1)
	assert.Equal(t, "t3", trips[0].ID)
}

func TestDecodeRoutesTripsBadTripsHeader(t *testing.T) {
	// Routes survive a broken trips table, minus shape links.
	routes, trips, _, err := decodeRoutesTrips(t,
		"route_id\nr1",
		"trip_id,route_id\nt1,r1")
	require.NoError(t, err)
	assert.Empty(t, trips)
	require.Len(t, routes, 1)
	assert.Equal(t, []string{}, routes[0].ShapeIDs)
}

func TestDecodeRoutesTripsBadRoutesHeader(t *testing.T) {
	_, _, _, err := decodeRoutesTrips(t,
		"route_short_name\n1",
		"trip_id,route_id,service_id\nt1,r1,s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "route_id")
}
