package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
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
    lat REAL NOT NULL,
    lon REAL NOT NULL,
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
    direction_id INTEGER,
    block_id TEXT NOT NULL DEFAULT '',
    shape_id TEXT NOT NULL DEFAULT '',
    wheelchair_accessible INTEGER,
    bikes_allowed INTEGER
);

CREATE TABLE IF NOT EXISTS stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    headsign TEXT NOT NULL DEFAULT '',
    pickup_type INTEGER NOT NULL DEFAULT 0,
    drop_off_type INTEGER NOT NULL DEFAULT 0,
    shape_dist_traveled REAL,
    timepoint INTEGER
);

CREATE TABLE IF NOT EXISTS calendar (
    service_id TEXT PRIMARY KEY,
    monday INTEGER NOT NULL,
    tuesday INTEGER NOT NULL,
    wednesday INTEGER NOT NULL,
    thursday INTEGER NOT NULL,
    friday INTEGER NOT NULL,
    saturday INTEGER NOT NULL,
    sunday INTEGER NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS calendar_dates (
    service_id TEXT NOT NULL,
    date TIMESTAMP NOT NULL,
    exception_type INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
    id TEXT PRIMARY KEY,
    last_success TIMESTAMP,
    last_error_at TIMESTAMP,
    last_error_msg TEXT NOT NULL DEFAULT ''
);`

// NewSQLiteStore opens (and if needed creates) an SQLite-backed
// store. Pass ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &sqlStore{db: db, driver: "sqlite3"}, nil
}
