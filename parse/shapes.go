package parse

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"uagis.dev/transit/model"
)

type shapePointCSV struct {
	ShapeID  string `csv:"shape_id"`
	Lat      string `csv:"shape_pt_lat"`
	Lon      string `csv:"shape_pt_lon"`
	Sequence string `csv:"shape_pt_sequence"`
}

type shapePoint struct {
	sequence int
	lat, lon float64
}

// DecodeShapes groups shape points by shape_id, orders each group by
// sequence number ascending, and emits one Shape per group. Points
// missing any field are skipped individually; a group left with no
// valid points is not emitted. Returns the number of points skipped.
func DecodeShapes(logger *slog.Logger, data []byte, emit func(*model.Shape) error) (int, error) {
	err := checkColumns(data, ShapesFile, "shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence")
	if err != nil {
		return 0, err
	}

	groups := map[string][]shapePoint{}
	skipped := 0
	row := -1
	err = gocsv.UnmarshalToCallbackWithError(bytes.NewReader(data), func(pt *shapePointCSV) error {
		row++

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(pt.Lat), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(pt.Lon), 64)
		seq, seqErr := strconv.Atoi(strings.TrimSpace(pt.Sequence))
		if pt.ShapeID == "" || latErr != nil || lonErr != nil || seqErr != nil {
			logger.Warn("skipping invalid shape point",
				"file", ShapesFile, "row", row, "shape_id", pt.ShapeID)
			skipped++
			return nil
		}

		groups[pt.ShapeID] = append(groups[pt.ShapeID], shapePoint{
			sequence: seq,
			lat:      lat,
			lon:      lon,
		})
		return nil
	})
	if err != nil {
		return skipped, fmt.Errorf("decoding %s: %w", ShapesFile, err)
	}

	shapeIDs := make([]string, 0, len(groups))
	for id := range groups {
		shapeIDs = append(shapeIDs, id)
	}
	sort.Strings(shapeIDs)

	for _, id := range shapeIDs {
		points := groups[id]
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].sequence < points[j].sequence
		})

		coords := make([][2]float64, len(points))
		for i, p := range points {
			coords[i] = [2]float64{p.lat, p.lon}
		}

		err := emit(&model.Shape{ID: id, Coordinates: coords})
		if err != nil {
			return skipped, err
		}
	}

	return skipped, nil
}
