package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uagis.dev/transit/model"
)

func decodeStops(t *testing.T, content string) ([]*model.Stop, int, error) {
	stops := []*model.Stop{}
	skipped, err := DecodeStops(discardLogger(), []byte(content), func(s *model.Stop) error {
		stops = append(stops, s)
		return nil
	})
	return stops, skipped, err
}

func TestDecodeStops(t *testing.T) {
	stops, skipped, err := decodeStops(t, `
stop_id,stop_code,stop_name,stop_desc,stop_lat,stop_lon,zone_id,stop_url,location_type,parent_station,wheelchair_boarding
s1,c1,Main St,desc,50.4,30.5,z1,http://x,1,ps,1
s2,,,,45.0,-73.5,,,,,`)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, stops, 2)

	assert.Equal(t, &model.Stop{
		ID:                 "s1",
		Code:               "c1",
		Name:               "Main St",
		Desc:               "desc",
		Lat:                50.4,
		Lon:                30.5,
		Location:           model.NewPoint(30.5, 50.4),
		ZoneID:             "z1",
		URL:                "http://x",
		LocationType:       "1",
		ParentStation:      "ps",
		WheelchairBoarding: "1",
	}, stops[0])

	// Name falls back to the placeholder, location_type to "0".
	assert.Equal(t, PlaceholderStopName, stops[1].Name)
	assert.Equal(t, "0", stops[1].LocationType)
	assert.Equal(t, model.NewPoint(-73.5, 45.0), stops[1].Location)
}

func TestDecodeStopsSkipsBadRows(t *testing.T) {
	stops, skipped, err := decodeStops(t, `
stop_id,stop_name,stop_lat,stop_lon
,NoID,50.0,30.0
s1,NoCoords,,
s2,BadLat,abc,30.0
s3,OK,50.0,30.0`)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, stops, 1)
	assert.Equal(t, "s3", stops[0].ID)
}

func TestDecodeStopsCoordinateRange(t *testing.T) {
	stops, skipped, err := decodeStops(t, `
stop_id,stop_name,stop_lat,stop_lon
north,Pole,90,0
south,Pole,-90,0
east,Edge,0,180
west,Edge,0,-180
badlat,X,90.0001,0
badlon,X,0,-180.0001`)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, stops, 4)
	for _, s := range stops {
		assert.NotContains(t, s.ID, "bad")
	}
}

func TestDecodeStopsMissingColumn(t *testing.T) {
	_, _, err := decodeStops(t, "stop_id,stop_name,stop_lat\ns1,X,50.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop_lon")
}
