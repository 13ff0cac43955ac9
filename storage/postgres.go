package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS routes (
    id TEXT PRIMARY KEY,
    agency_id TEXT NOT NULL DEFAULT '',
    short_name TEXT NOT NULL DEFAULT '',
    long_name TEXT NOT NULL DEFAULT '',
    route_desc TEXT NOT NULL DEFAULT '',
    route_type TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    text_color TEXT NOT NULL DEFAULT '',
    shape_ids TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS stops (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    stop_desc TEXT NOT NULL DEFAULT '',
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    zone_id TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    location_type TEXT NOT NULL DEFAULT '0',
    parent_station TEXT NOT NULL DEFAULT '',
    wheelchair_boarding TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS shapes (
    id TEXT PRIMARY KEY,
    coordinates TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT NOT NULL DEFAULT '',
    direction_id SMALLINT,
    block_id TEXT NOT NULL DEFAULT '',
    shape_id TEXT NOT NULL DEFAULT '',
    wheelchair_accessible SMALLINT,
    bikes_allowed SMALLINT
);

CREATE TABLE IF NOT EXISTS stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    headsign TEXT NOT NULL DEFAULT '',
    pickup_type SMALLINT NOT NULL DEFAULT 0,
    drop_off_type SMALLINT NOT NULL DEFAULT 0,
    shape_dist_traveled DOUBLE PRECISION,
    timepoint SMALLINT
);

CREATE TABLE IF NOT EXISTS calendar (
    service_id TEXT PRIMARY KEY,
    monday BOOLEAN NOT NULL,
    tuesday BOOLEAN NOT NULL,
    wednesday BOOLEAN NOT NULL,
    thursday BOOLEAN NOT NULL,
    friday BOOLEAN NOT NULL,
    saturday BOOLEAN NOT NULL,
    sunday BOOLEAN NOT NULL,
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS calendar_dates (
    service_id TEXT NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    exception_type SMALLINT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
    id TEXT PRIMARY KEY,
    last_success TIMESTAMPTZ,
    last_error_at TIMESTAMPTZ,
    last_error_msg TEXT NOT NULL DEFAULT ''
);`

// NewPostgresStore connects to PostgreSQL and ensures the schema
// exists.
func NewPostgresStore(connStr string) (Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &sqlStore{db: db, driver: "postgres"}, nil
}
