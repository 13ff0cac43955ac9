package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"uagis.dev/transit/model"
)

// statusDocID is the sentinel key of the single refresh metadata
// record.
const statusDocID = "gtfs_update_status"

// sqlStore implements Store on top of database/sql. The SQLite and
// PostgreSQL backends share it; they differ only in DDL and
// placeholder style.
type sqlStore struct {
	db     *sql.DB
	driver string
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ?-style placeholders to $n for PostgreSQL.
func (s *sqlStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *sqlStore) DeleteAll(ctx context.Context, c Collection) (int64, error) {
	if !validCollection(c) {
		return 0, fmt.Errorf("unknown collection %q", c)
	}

	res, err := s.exec(ctx, `DELETE FROM `+string(c))
	if err != nil {
		return 0, fmt.Errorf("clearing %s: %w", c, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}

	return n, nil
}

func validCollection(c Collection) bool {
	switch c {
	case Routes, Shapes, Stops, Trips, StopTimes, Calendar, CalendarDates, Metadata:
		return true
	}
	return false
}

func (s *sqlStore) BulkUpsert(ctx context.Context, c Collection, docs []Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning batch transaction: %w", err)
	}

	written := 0
	for _, doc := range docs {
		switch d := doc.(type) {
		case *model.Route:
			err = s.upsertRoute(ctx, tx, d)
		case *model.Stop:
			err = s.upsertStop(ctx, tx, d)
		case *model.Shape:
			err = s.upsertShape(ctx, tx, d)
		case *model.Trip:
			err = s.upsertTrip(ctx, tx, d)
		case *model.StopTime:
			err = s.insertStopTime(ctx, tx, d)
		case *model.Calendar:
			err = s.upsertCalendar(ctx, tx, d)
		case *model.CalendarDate:
			err = s.insertCalendarDate(ctx, tx, d)
		default:
			err = fmt.Errorf("collection %q: unsupported document type %T", c, doc)
		}
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch: %w", err)
	}

	return written, nil
}

func (s *sqlStore) upsertRoute(ctx context.Context, tx *sql.Tx, r *model.Route) error {
	shapeIDs, err := json.Marshal(r.ShapeIDs)
	if err != nil {
		return fmt.Errorf("encoding shape_ids: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO routes (id, agency_id, short_name, long_name, route_desc, route_type, url, color, text_color, shape_ids)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    agency_id = excluded.agency_id,
    short_name = excluded.short_name,
    long_name = excluded.long_name,
    route_desc = excluded.route_desc,
    route_type = excluded.route_type,
    url = excluded.url,
    color = excluded.color,
    text_color = excluded.text_color,
    shape_ids = excluded.shape_ids`),
		r.ID, r.AgencyID, r.ShortName, r.LongName, r.Desc,
		r.Type, r.URL, r.Color, r.TextColor, string(shapeIDs),
	)
	if err != nil {
		return fmt.Errorf("upserting route %q: %w", r.ID, err)
	}
	return nil
}

func (s *sqlStore) upsertStop(ctx context.Context, tx *sql.Tx, st *model.Stop) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO stops (id, code, name, stop_desc, lat, lon, zone_id, url, location_type, parent_station, wheelchair_boarding)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    code = excluded.code,
    name = excluded.name,
    stop_desc = excluded.stop_desc,
    lat = excluded.lat,
    lon = excluded.lon,
    zone_id = excluded.zone_id,
    url = excluded.url,
    location_type = excluded.location_type,
    parent_station = excluded.parent_station,
    wheelchair_boarding = excluded.wheelchair_boarding`),
		st.ID, st.Code, st.Name, st.Desc, st.Lat, st.Lon,
		st.ZoneID, st.URL, st.LocationType, st.ParentStation, st.WheelchairBoarding,
	)
	if err != nil {
		return fmt.Errorf("upserting stop %q: %w", st.ID, err)
	}
	return nil
}

func (s *sqlStore) upsertShape(ctx context.Context, tx *sql.Tx, sh *model.Shape) error {
	coords, err := json.Marshal(sh.Coordinates)
	if err != nil {
		return fmt.Errorf("encoding coordinates: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO shapes (id, coordinates)
VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET coordinates = excluded.coordinates`),
		sh.ID, string(coords),
	)
	if err != nil {
		return fmt.Errorf("upserting shape %q: %w", sh.ID, err)
	}
	return nil
}

func (s *sqlStore) upsertTrip(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO trips (id, route_id, service_id, headsign, direction_id, block_id, shape_id, wheelchair_accessible, bikes_allowed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    route_id = excluded.route_id,
    service_id = excluded.service_id,
    headsign = excluded.headsign,
    direction_id = excluded.direction_id,
    block_id = excluded.block_id,
    shape_id = excluded.shape_id,
    wheelchair_accessible = excluded.wheelchair_accessible,
    bikes_allowed = excluded.bikes_allowed`),
		t.ID, t.RouteID, t.ServiceID, t.Headsign, nullInt8(t.DirectionID),
		t.BlockID, t.ShapeID, nullInt8(t.WheelchairAccessible), nullInt8(t.BikesAllowed),
	)
	if err != nil {
		return fmt.Errorf("upserting trip %q: %w", t.ID, err)
	}
	return nil
}

func (s *sqlStore) insertStopTime(ctx context.Context, tx *sql.Tx, st *model.StopTime) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign, pickup_type, drop_off_type, shape_dist_traveled, timepoint)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		st.TripID, st.StopID, st.StopSequence, st.Arrival, st.Departure,
		st.Headsign, st.PickupType, st.DropOffType,
		nullFloat64(st.ShapeDistTraveled), nullInt8(st.Timepoint),
	)
	if err != nil {
		return fmt.Errorf("inserting stop_time for trip %q: %w", st.TripID, err)
	}
	return nil
}

func (s *sqlStore) upsertCalendar(ctx context.Context, tx *sql.Tx, c *model.Calendar) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO calendar (service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (service_id) DO UPDATE SET
    monday = excluded.monday,
    tuesday = excluded.tuesday,
    wednesday = excluded.wednesday,
    thursday = excluded.thursday,
    friday = excluded.friday,
    saturday = excluded.saturday,
    sunday = excluded.sunday,
    start_date = excluded.start_date,
    end_date = excluded.end_date`),
		c.ServiceID, c.Monday, c.Tuesday, c.Wednesday, c.Thursday,
		c.Friday, c.Saturday, c.Sunday, c.StartDate.UTC(), c.EndDate.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting calendar %q: %w", c.ServiceID, err)
	}
	return nil
}

func (s *sqlStore) insertCalendarDate(ctx context.Context, tx *sql.Tx, cd *model.CalendarDate) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO calendar_dates (service_id, date, exception_type)
VALUES (?, ?, ?)`),
		cd.ServiceID, cd.Date.UTC(), cd.ExceptionType,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar date for %q: %w", cd.ServiceID, err)
	}
	return nil
}

// indexDDL holds each collection's fixed index set. The (lon, lat)
// index on stops stands in for a geospatial index; route and shape
// lookups ride on the primary key alone.
var indexDDL = map[Collection][]string{
	Stops: {
		`CREATE INDEX IF NOT EXISTS stops_location ON stops (lon, lat)`,
	},
	Trips: {
		`CREATE INDEX IF NOT EXISTS trips_route_id ON trips (route_id)`,
		`CREATE INDEX IF NOT EXISTS trips_service_id ON trips (service_id)`,
	},
	StopTimes: {
		`CREATE INDEX IF NOT EXISTS stop_times_stop_departure ON stop_times (stop_id, departure_time)`,
		`CREATE INDEX IF NOT EXISTS stop_times_trip_id ON stop_times (trip_id)`,
		`CREATE INDEX IF NOT EXISTS stop_times_departure ON stop_times (departure_time)`,
	},
	Calendar: {
		`CREATE INDEX IF NOT EXISTS calendar_start_date ON calendar (start_date)`,
		`CREATE INDEX IF NOT EXISTS calendar_end_date ON calendar (end_date)`,
	},
	CalendarDates: {
		`CREATE INDEX IF NOT EXISTS calendar_dates_date_service ON calendar_dates (date, service_id)`,
		`CREATE INDEX IF NOT EXISTS calendar_dates_service_id ON calendar_dates (service_id)`,
	},
}

func (s *sqlStore) EnsureIndexes(ctx context.Context, c Collection) error {
	for _, ddl := range indexDDL[c] {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index for %s: %w", c, err)
		}
	}
	return nil
}

func (s *sqlStore) WriteRefreshStatus(ctx context.Context, status *model.RefreshStatus) error {
	_, err := s.exec(ctx, `
INSERT INTO metadata (id, last_success, last_error_at, last_error_msg)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    last_success = CASE
        WHEN excluded.last_success IS NOT NULL THEN excluded.last_success
        ELSE metadata.last_success
    END,
    last_error_at = CASE
        WHEN excluded.last_error_at IS NOT NULL THEN excluded.last_error_at
        ELSE metadata.last_error_at
    END,
    last_error_msg = CASE
        WHEN excluded.last_error_at IS NOT NULL THEN excluded.last_error_msg
        ELSE metadata.last_error_msg
    END`,
		statusDocID, nullTime(status.LastSuccess), nullTime(status.LastErrorAt), status.LastErrorMsg,
	)
	if err != nil {
		return fmt.Errorf("writing refresh status: %w", err)
	}
	return nil
}

func (s *sqlStore) RefreshStatus(ctx context.Context) (*model.RefreshStatus, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
SELECT last_success, last_error_at, last_error_msg
FROM metadata
WHERE id = ?`), statusDocID)

	var lastSuccess, lastErrorAt sql.NullTime
	status := &model.RefreshStatus{}
	err := row.Scan(&lastSuccess, &lastErrorAt, &status.LastErrorMsg)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading refresh status: %w", err)
	}

	if lastSuccess.Valid {
		status.LastSuccess = lastSuccess.Time.UTC()
	}
	if lastErrorAt.Valid {
		status.LastErrorAt = lastErrorAt.Time.UTC()
	}

	return status, nil
}

const routeColumns = `id, agency_id, short_name, long_name, route_desc, route_type, url, color, text_color, shape_ids`

func scanRoute(scan func(...interface{}) error) (*model.Route, error) {
	r := &model.Route{}
	var shapeIDs string
	err := scan(
		&r.ID, &r.AgencyID, &r.ShortName, &r.LongName, &r.Desc,
		&r.Type, &r.URL, &r.Color, &r.TextColor, &shapeIDs,
	)
	if err != nil {
		return nil, err
	}

	if shapeIDs != "" {
		if err := json.Unmarshal([]byte(shapeIDs), &r.ShapeIDs); err != nil {
			return nil, fmt.Errorf("decoding shape_ids for route %q: %w", r.ID, err)
		}
	}
	if r.ShapeIDs == nil {
		r.ShapeIDs = []string{}
	}

	return r, nil
}

func (s *sqlStore) Routes(ctx context.Context) ([]*model.Route, error) {
	rows, err := s.query(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		r, err := scanRoute(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, r)
	}

	return routes, rows.Err()
}

func (s *sqlStore) Route(ctx context.Context, id string) (*model.Route, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+routeColumns+` FROM routes WHERE id = ?`), id)

	r, err := scanRoute(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning route: %w", err)
	}

	return r, nil
}

func (s *sqlStore) RoutesByIDs(ctx context.Context, ids []string) (map[string]*model.Route, error) {
	routes := map[string]*model.Route{}
	if len(ids) == 0 {
		return routes, nil
	}

	placeholders, args := inArgs(ids)
	rows, err := s.query(ctx, `SELECT `+routeColumns+` FROM routes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying routes by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRoute(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes[r.ID] = r
	}

	return routes, rows.Err()
}

const stopColumns = `id, code, name, stop_desc, lat, lon, zone_id, url, location_type, parent_station, wheelchair_boarding`

func scanStop(scan func(...interface{}) error) (*model.Stop, error) {
	st := &model.Stop{}
	err := scan(
		&st.ID, &st.Code, &st.Name, &st.Desc, &st.Lat, &st.Lon,
		&st.ZoneID, &st.URL, &st.LocationType, &st.ParentStation, &st.WheelchairBoarding,
	)
	if err != nil {
		return nil, err
	}

	st.Location = model.NewPoint(st.Lon, st.Lat)

	return st, nil
}

func (s *sqlStore) Stops(ctx context.Context) ([]*model.Stop, error) {
	rows, err := s.query(ctx, `SELECT `+stopColumns+` FROM stops ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		st, err := scanStop(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, st)
	}

	return stops, rows.Err()
}

func (s *sqlStore) Stop(ctx context.Context, id string) (*model.Stop, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+stopColumns+` FROM stops WHERE id = ?`), id)

	st, err := scanStop(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning stop: %w", err)
	}

	return st, nil
}

func scanShape(scan func(...interface{}) error) (*model.Shape, error) {
	sh := &model.Shape{}
	var coords string
	if err := scan(&sh.ID, &coords); err != nil {
		return nil, err
	}

	if coords != "" {
		if err := json.Unmarshal([]byte(coords), &sh.Coordinates); err != nil {
			return nil, fmt.Errorf("decoding coordinates for shape %q: %w", sh.ID, err)
		}
	}

	return sh, nil
}

func (s *sqlStore) Shapes(ctx context.Context, limit int) ([]*model.Shape, error) {
	query := `SELECT id, coordinates FROM shapes ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying shapes: %w", err)
	}
	defer rows.Close()

	shapes := []*model.Shape{}
	for rows.Next() {
		sh, err := scanShape(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning shape: %w", err)
		}
		shapes = append(shapes, sh)
	}

	return shapes, rows.Err()
}

func (s *sqlStore) Shape(ctx context.Context, id string) (*model.Shape, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, coordinates FROM shapes WHERE id = ?`), id)

	sh, err := scanShape(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning shape: %w", err)
	}

	return sh, nil
}

func (s *sqlStore) TripsByIDs(ctx context.Context, ids []string) (map[string]*model.Trip, error) {
	trips := map[string]*model.Trip{}
	if len(ids) == 0 {
		return trips, nil
	}

	placeholders, args := inArgs(ids)
	rows, err := s.query(ctx, `
SELECT id, route_id, service_id, headsign, direction_id, block_id, shape_id, wheelchair_accessible, bikes_allowed
FROM trips
WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trips by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := &model.Trip{}
		var direction, wheelchair, bikes sql.NullInt64
		err := rows.Scan(
			&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &direction,
			&t.BlockID, &t.ShapeID, &wheelchair, &bikes,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		t.DirectionID = int8Ptr(direction)
		t.WheelchairAccessible = int8Ptr(wheelchair)
		t.BikesAllowed = int8Ptr(bikes)
		trips[t.ID] = t
	}

	return trips, rows.Err()
}

func (s *sqlStore) StopTimesAtStop(ctx context.Context, stopID string, cutoff int, limit int) ([]*model.StopTime, error) {
	query := `
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign, pickup_type, drop_off_type, shape_dist_traveled, timepoint
FROM stop_times
WHERE stop_id = ? AND departure_time >= ?
ORDER BY departure_time`
	args := []interface{}{stopID, cutoff}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stop_times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		var shapeDist sql.NullFloat64
		var timepoint sql.NullInt64
		err := rows.Scan(
			&st.TripID, &st.StopID, &st.StopSequence, &st.Arrival, &st.Departure,
			&st.Headsign, &st.PickupType, &st.DropOffType, &shapeDist, &timepoint,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop_time: %w", err)
		}
		if shapeDist.Valid {
			v := shapeDist.Float64
			st.ShapeDistTraveled = &v
		}
		st.Timepoint = int8Ptr(timepoint)
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, rows.Err()
}

func (s *sqlStore) ActiveCalendarServices(ctx context.Context, day time.Time) ([]string, error) {
	dayStart := model.DayStart(day)

	var weekday string
	switch dayStart.Weekday() {
	case time.Monday:
		weekday = "monday"
	case time.Tuesday:
		weekday = "tuesday"
	case time.Wednesday:
		weekday = "wednesday"
	case time.Thursday:
		weekday = "thursday"
	case time.Friday:
		weekday = "friday"
	case time.Saturday:
		weekday = "saturday"
	case time.Sunday:
		weekday = "sunday"
	}

	rows, err := s.query(ctx, `
SELECT service_id
FROM calendar
WHERE `+weekday+` AND start_date <= ? AND end_date >= ?
ORDER BY service_id`, dayStart, dayStart)
	if err != nil {
		return nil, fmt.Errorf("querying active calendars: %w", err)
	}
	defer rows.Close()

	services := []string{}
	for rows.Next() {
		var serviceID string
		if err := rows.Scan(&serviceID); err != nil {
			return nil, fmt.Errorf("scanning service_id: %w", err)
		}
		services = append(services, serviceID)
	}

	return services, rows.Err()
}

func (s *sqlStore) CalendarExceptionsOn(ctx context.Context, day time.Time) ([]*model.CalendarDate, error) {
	rows, err := s.query(ctx, `
SELECT service_id, date, exception_type
FROM calendar_dates
WHERE date = ?`, model.DayStart(day))
	if err != nil {
		return nil, fmt.Errorf("querying calendar exceptions: %w", err)
	}
	defer rows.Close()

	exceptions := []*model.CalendarDate{}
	for rows.Next() {
		cd := &model.CalendarDate{}
		if err := rows.Scan(&cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, fmt.Errorf("scanning calendar exception: %w", err)
		}
		cd.Date = cd.Date.UTC()
		exceptions = append(exceptions, cd)
	}

	return exceptions, rows.Err()
}

func (s *sqlStore) EstimatedCount(ctx context.Context, c Collection) (int64, error) {
	if !validCollection(c) {
		return 0, fmt.Errorf("unknown collection %q", c)
	}

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+string(c)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c, err)
	}

	return n, nil
}

func inArgs(ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func nullInt8(p *int8) interface{} {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullFloat64(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func int8Ptr(n sql.NullInt64) *int8 {
	if !n.Valid {
		return nil
	}
	v := int8(n.Int64)
	return &v
}
