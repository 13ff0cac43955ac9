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

type stopTimeCSV struct {
	TripID            string `csv:"trip_id"`
	StopID            string `csv:"stop_id"`
	StopSequence      string `csv:"stop_sequence"`
	ArrivalTime       string `csv:"arrival_time"`
	DepartureTime     string `csv:"departure_time"`
	Headsign          string `csv:"stop_headsign"`
	PickupType        string `csv:"pickup_type"`
	DropOffType       string `csv:"drop_off_type"`
	ShapeDistTraveled string `csv:"shape_dist_traveled"`
	Timepoint         string `csv:"timepoint"`
}

// DecodeStopTimes emits one StopTime per valid stop_times.txt row.
// Arrival and departure become seconds since midnight of the service
// day; hours past 23 are kept as-is, never wrapped. Rows with missing
// required fields or unparseable times are skipped. Returns the
// number of rows skipped.
func DecodeStopTimes(logger *slog.Logger, data []byte, emit func(*model.StopTime) error) (int, error) {
	err := checkColumns(data, StopTimesFile,
		"trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time")
	if err != nil {
		return 0, err
	}

	skipped := 0
	row := -1
	err = gocsv.UnmarshalToCallbackWithError(bytes.NewReader(data), func(st *stopTimeCSV) error {
		row++

		if st.TripID == "" || st.StopID == "" ||
			strings.TrimSpace(st.StopSequence) == "" ||
			strings.TrimSpace(st.ArrivalTime) == "" ||
			strings.TrimSpace(st.DepartureTime) == "" {
			skipped++
			return nil
		}

		seq, err := strconv.Atoi(strings.TrimSpace(st.StopSequence))
		if err != nil {
			logger.Warn("skipping stop_time row with bad stop_sequence",
				"file", StopTimesFile, "row", row, "trip_id", st.TripID)
			skipped++
			return nil
		}

		arrival, arrivalOK := model.ParseTime(st.ArrivalTime)
		departure, departureOK := model.ParseTime(st.DepartureTime)
		if !arrivalOK || !departureOK {
			logger.Warn("skipping stop_time row with bad time",
				"file", StopTimesFile, "row", row, "trip_id", st.TripID)
			skipped++
			return nil
		}

		stopTime := &model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			StopSequence: seq,
			Arrival:      arrival,
			Departure:    departure,
			Headsign:     st.Headsign,
			PickupType:   defInt8(st.PickupType, 0),
			DropOffType:  defInt8(st.DropOffType, 0),
			Timepoint:    optInt8(st.Timepoint),
		}

		if dist := strings.TrimSpace(st.ShapeDistTraveled); dist != "" {
			v, err := strconv.ParseFloat(dist, 64)
			if err != nil {
				logger.Warn("skipping stop_time row with bad shape_dist_traveled",
					"file", StopTimesFile, "row", row, "trip_id", st.TripID)
				skipped++
				return nil
			}
			stopTime.ShapeDistTraveled = &v
		}

		return emit(stopTime)
	})
	if err != nil {
		return skipped, fmt.Errorf("decoding %s: %w", StopTimesFile, err)
	}

	if skipped > 0 {
		logger.Info("stop_times rows skipped", "file", StopTimesFile, "skipped", skipped)
	}

	return skipped, nil
}
