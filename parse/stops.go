package parse

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"uagis.dev/transit/model"
)

// PlaceholderStopName fills in for stops published without a name.
const PlaceholderStopName = "Unnamed stop"

type stopCSV struct {
	ID                 string `csv:"stop_id"`
	Code               string `csv:"stop_code"`
	Name               string `csv:"stop_name"`
	Desc               string `csv:"stop_desc"`
	Lat                string `csv:"stop_lat"`
	Lon                string `csv:"stop_lon"`
	ZoneID             string `csv:"zone_id"`
	URL                string `csv:"stop_url"`
	LocationType       string `csv:"location_type"`
	ParentStation      string `csv:"parent_station"`
	WheelchairBoarding string `csv:"wheelchair_boarding"`
}

// DecodeStops emits one Stop per valid stops.txt row. Rows missing an
// ID or coordinates, or with coordinates out of range, are skipped.
// Returns the number of rows skipped.
func DecodeStops(logger *slog.Logger, data []byte, emit func(*model.Stop) error) (int, error) {
	err := checkColumns(data, StopsFile, "stop_id", "stop_lat", "stop_lon")
	if err != nil {
		return 0, err
	}

	skipped := 0
	row := -1
	err = gocsv.UnmarshalToCallbackWithError(bytes.NewReader(data), func(st *stopCSV) error {
		row++

		if st.ID == "" || strings.TrimSpace(st.Lat) == "" || strings.TrimSpace(st.Lon) == "" {
			logger.Warn("skipping stop row without id or coordinates",
				"file", StopsFile, "row", row)
			skipped++
			return nil
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(st.Lat), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(st.Lon), 64)
		if latErr != nil || lonErr != nil {
			logger.Warn("skipping stop row with unparseable coordinates",
				"file", StopsFile, "row", row, "stop_id", st.ID)
			skipped++
			return nil
		}

		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			logger.Warn("skipping stop row with out-of-range coordinates",
				"file", StopsFile, "row", row, "stop_id", st.ID, "lat", lat, "lon", lon)
			skipped++
			return nil
		}

		name := strings.TrimSpace(st.Name)
		if name == "" {
			name = PlaceholderStopName
		}

		locationType := st.LocationType
		if locationType == "" {
			locationType = "0"
		}

		stop := &model.Stop{
			ID:                 st.ID,
			Code:               st.Code,
			Name:               name,
			Desc:               st.Desc,
			Lat:                lat,
			Lon:                lon,
			Location:           model.NewPoint(lon, lat),
			ZoneID:             st.ZoneID,
			URL:                st.URL,
			LocationType:       locationType,
			ParentStation:      st.ParentStation,
			WheelchairBoarding: st.WheelchairBoarding,
		}

		return emit(stop)
	})
	if err != nil {
		return skipped, fmt.Errorf("decoding %s: %w", StopsFile, err)
	}

	return skipped, nil
}
