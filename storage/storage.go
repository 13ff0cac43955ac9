package storage

import (
	"context"
	"errors"
	"time"

	"uagis.dev/transit/model"
)

// Collection names a persisted table. They mirror the GTFS member
// files they are loaded from.
type Collection string

const (
	Routes        Collection = "routes"
	Shapes        Collection = "shapes"
	Stops         Collection = "stops"
	Trips         Collection = "trips"
	StopTimes     Collection = "stop_times"
	Calendar      Collection = "calendar"
	CalendarDates Collection = "calendar_dates"
	Metadata      Collection = "metadata"
)

// AllCollections, in refresh load order.
var AllCollections = []Collection{
	Calendar, CalendarDates, Stops, Shapes, Trips, Routes, StopTimes,
}

// ErrNotFound is returned by single-document reads when the requested
// ID does not exist. It is distinct from an empty multi-document
// result, which is not an error.
var ErrNotFound = errors.New("not found")

// Document is one persisted record. DocID returns the natural GTFS
// key, or "" when the store assigns its own.
type Document interface {
	DocID() string
}

// Store is the document store the pipeline writes to and the query
// engine reads from. It is opened once at startup, shared by all
// queries and the refresh pipeline, and closed once at shutdown.
// Individual operations are atomic; whole-collection replacement is
// not, so readers may observe a partially-populated collection during
// a refresh.
type Store interface {
	Reader
	Writer
	Close() error
}

// Writer is the bulk-load side of the store.
type Writer interface {
	// DeleteAll removes every document in the collection,
	// returning the number removed.
	DeleteAll(ctx context.Context, c Collection) (int64, error)

	// BulkUpsert writes one batch. Documents carrying a natural ID
	// are upserted by it; documents without one are inserted under
	// a store-assigned key. Returns the number of documents
	// written.
	BulkUpsert(ctx context.Context, c Collection, docs []Document) (int, error)

	// EnsureIndexes (re)creates the collection's fixed index set.
	EnsureIndexes(ctx context.Context, c Collection) error

	// WriteRefreshStatus upserts the refresh metadata record.
	// Zero-valued fields of status are left untouched, so a
	// success write does not clear a prior error record and vice
	// versa.
	WriteRefreshStatus(ctx context.Context, status *model.RefreshStatus) error
}

// Reader is the query side of the store.
type Reader interface {
	Routes(ctx context.Context) ([]*model.Route, error)
	Route(ctx context.Context, id string) (*model.Route, error)
	Stops(ctx context.Context) ([]*model.Stop, error)
	Stop(ctx context.Context, id string) (*model.Stop, error)

	// Shapes lists shapes, at most limit of them (0 for no limit).
	Shapes(ctx context.Context, limit int) ([]*model.Shape, error)
	Shape(ctx context.Context, id string) (*model.Shape, error)

	TripsByIDs(ctx context.Context, ids []string) (map[string]*model.Trip, error)
	RoutesByIDs(ctx context.Context, ids []string) (map[string]*model.Route, error)

	// StopTimesAtStop returns stop_times at the given stop with
	// departure_time >= cutoff (seconds since midnight of the
	// service day), sorted ascending by departure_time. limit 0
	// means unbounded.
	StopTimesAtStop(ctx context.Context, stopID string, cutoff int, limit int) ([]*model.StopTime, error)

	// ActiveCalendarServices returns the service IDs whose weekday
	// flag matches day's weekday and whose [start_date, end_date]
	// range contains the UTC start of day.
	ActiveCalendarServices(ctx context.Context, day time.Time) ([]string, error)

	// CalendarExceptionsOn returns the exceptions dated exactly at
	// the UTC start of day.
	CalendarExceptionsOn(ctx context.Context, day time.Time) ([]*model.CalendarDate, error)

	EstimatedCount(ctx context.Context, c Collection) (int64, error)

	// RefreshStatus returns the refresh metadata record, or
	// ErrNotFound if no refresh has ever been recorded.
	RefreshStatus(ctx context.Context) (*model.RefreshStatus, error)
}
