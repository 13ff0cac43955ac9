package parse

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gocarina/gocsv"

	"uagis.dev/transit/model"
)

type routeCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Desc      string `csv:"route_desc"`
	Type      string `csv:"route_type"`
	URL       string `csv:"route_url"`
	Color     string `csv:"route_color"`
	TextColor string `csv:"route_text_color"`
}

type tripCSV struct {
	ID                   string `csv:"trip_id"`
	RouteID              string `csv:"route_id"`
	ServiceID            string `csv:"service_id"`
	Headsign             string `csv:"trip_headsign"`
	DirectionID          string `csv:"direction_id"`
	BlockID              string `csv:"block_id"`
	ShapeID              string `csv:"shape_id"`
	WheelchairAccessible string `csv:"wheelchair_accessible"`
	BikesAllowed         string `csv:"bikes_allowed"`
}

// DecodeRoutesTrips runs the two-pass route/trip linking. Pass 1
// builds routes from routes.txt; pass 2 emits trips from trips.txt
// while collecting, per route, the distinct shape IDs its trips use.
// Trips referencing an unknown route are still emitted; only the
// shape linking is gated on the route existing. Routes are emitted
// last, each with its shape_ids finalized as a sorted list.
//
// A malformed routes.txt header aborts. A malformed trips.txt header
// degrades: routes are emitted with empty shape_ids and no trips are
// emitted. Returns the number of rows skipped.
func DecodeRoutesTrips(
	logger *slog.Logger,
	routesData []byte,
	tripsData []byte,
	emitTrip func(*model.Trip) error,
	emitRoute func(*model.Route) error,
) (int, error) {

	if err := checkColumns(routesData, RoutesFile, "route_id"); err != nil {
		return 0, err
	}

	routes := map[string]*model.Route{}
	order := []string{}
	shapeSets := map[string]map[string]bool{}
	skipped := 0

	err := gocsv.UnmarshalToCallbackWithError(bytes.NewReader(routesData), func(r *routeCSV) error {
		if r.ID == "" {
			skipped++
			return nil
		}
		if _, seen := routes[r.ID]; !seen {
			order = append(order, r.ID)
		}
		routes[r.ID] = &model.Route{
			ID:        r.ID,
			AgencyID:  r.AgencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Desc:      r.Desc,
			Type:      r.Type,
			URL:       r.URL,
			Color:     r.Color,
			TextColor: r.TextColor,
		}
		shapeSets[r.ID] = map[string]bool{}
		return nil
	})
	if err != nil {
		return skipped, fmt.Errorf("decoding %s: %w", RoutesFile, err)
	}

	// A broken trips table must not take the routes down with it.
	var emitErr error
	tripsErr := checkColumns(tripsData, TripsFile, "trip_id", "route_id", "service_id")
	if tripsErr == nil {
		row := -1
		tripsErr = gocsv.UnmarshalToCallbackWithError(bytes.NewReader(tripsData), func(t *tripCSV) error {
			row++

			if t.ID == "" || t.RouteID == "" || t.ServiceID == "" {
				logger.Warn("skipping trip row without trip_id, route_id or service_id",
					"file", TripsFile, "row", row)
				skipped++
				return nil
			}

			if t.ShapeID != "" {
				if set, found := shapeSets[t.RouteID]; found {
					set[t.ShapeID] = true
				}
			}

			trip := &model.Trip{
				ID:                   t.ID,
				RouteID:              t.RouteID,
				ServiceID:            t.ServiceID,
				Headsign:             t.Headsign,
				BlockID:              t.BlockID,
				ShapeID:              t.ShapeID,
				WheelchairAccessible: optInt8(t.WheelchairAccessible),
				BikesAllowed:         optInt8(t.BikesAllowed),
			}
			if t.DirectionID == "0" || t.DirectionID == "1" {
				d := int8(t.DirectionID[0] - '0')
				trip.DirectionID = &d
			}

			emitErr = emitTrip(trip)
			return emitErr
		})
	}
	if emitErr != nil {
		return skipped, emitErr
	}
	if tripsErr != nil {
		logger.Error("trips table unreadable, emitting routes without shape links",
			"file", TripsFile, "error", tripsErr)
		for id := range shapeSets {
			shapeSets[id] = map[string]bool{}
		}
	}

	for _, id := range order {
		route := routes[id]

		shapeIDs := make([]string, 0, len(shapeSets[id]))
		for shapeID := range shapeSets[id] {
			shapeIDs = append(shapeIDs, shapeID)
		}
		sort.Strings(shapeIDs)
		route.ShapeIDs = shapeIDs

		if err := emitRoute(route); err != nil {
			return skipped, err
		}
	}

	return skipped, nil
}
