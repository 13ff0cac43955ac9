package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Holds the persisted entity types. Field sets follow the GTFS column
// names they are decoded from; optional small integers are pointers
// so "absent" stays distinct from 0.

// Calendar exception types, per calendar_dates.txt.
const (
	ExceptionAdded   int8 = 1
	ExceptionRemoved int8 = 2
)

// Point is a GeoJSON-style point in (lon, lat) order, kept on stops
// for spatial indexing.
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewPoint(lon, lat float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

type Route struct {
	ID        string `json:"route_id"`
	AgencyID  string `json:"agency_id,omitempty"`
	ShortName string `json:"route_short_name,omitempty"`
	LongName  string `json:"route_long_name,omitempty"`
	Desc      string `json:"route_desc,omitempty"`
	Type      string `json:"route_type,omitempty"`
	URL       string `json:"route_url,omitempty"`
	Color     string `json:"route_color,omitempty"`
	TextColor string `json:"route_text_color,omitempty"`

	// Distinct shape IDs used by any trip on this route,
	// deduplicated and sorted.
	ShapeIDs []string `json:"shape_ids"`
}

func (r *Route) DocID() string { return r.ID }

type Stop struct {
	ID       string  `json:"stop_id"`
	Code     string  `json:"stop_code,omitempty"`
	Name     string  `json:"stop_name"`
	Desc     string  `json:"stop_desc,omitempty"`
	Lat      float64 `json:"stop_lat"`
	Lon      float64 `json:"stop_lon"`
	Location Point   `json:"location"`

	ZoneID             string `json:"zone_id,omitempty"`
	URL                string `json:"stop_url,omitempty"`
	LocationType       string `json:"location_type"`
	ParentStation      string `json:"parent_station,omitempty"`
	WheelchairBoarding string `json:"wheelchair_boarding,omitempty"`
}

func (s *Stop) DocID() string { return s.ID }

// Shape is an ordered polyline. Coordinates are [lat, lon] pairs in
// ascending shape_pt_sequence order; the persisted order is the
// polyline order.
type Shape struct {
	ID          string       `json:"shape_id"`
	Coordinates [][2]float64 `json:"coordinates"`
}

func (s *Shape) DocID() string { return s.ID }

type Trip struct {
	ID                   string `json:"trip_id"`
	RouteID              string `json:"route_id"`
	ServiceID            string `json:"service_id"`
	Headsign             string `json:"trip_headsign,omitempty"`
	DirectionID          *int8  `json:"direction_id,omitempty"`
	BlockID              string `json:"block_id,omitempty"`
	ShapeID              string `json:"shape_id,omitempty"`
	WheelchairAccessible *int8  `json:"wheelchair_accessible,omitempty"`
	BikesAllowed         *int8  `json:"bikes_allowed,omitempty"`
}

func (t *Trip) DocID() string { return t.ID }

// StopTime has no natural unique ID; identity is (trip_id,
// stop_sequence) but the store assigns its own key. Arrival and
// Departure are seconds since midnight of the service day and may be
// >= 86400 for post-midnight service (GTFS convention; never wrapped).
type StopTime struct {
	TripID            string   `json:"trip_id"`
	StopID            string   `json:"stop_id"`
	StopSequence      int      `json:"stop_sequence"`
	Arrival           int      `json:"arrival_time"`
	Departure         int      `json:"departure_time"`
	Headsign          string   `json:"stop_headsign,omitempty"`
	PickupType        int8     `json:"pickup_type"`
	DropOffType       int8     `json:"drop_off_type"`
	ShapeDistTraveled *float64 `json:"shape_dist_traveled,omitempty"`
	Timepoint         *int8    `json:"timepoint,omitempty"`
}

func (st *StopTime) DocID() string { return "" }

// Calendar is a weekly service recurrence rule. StartDate is stored
// as the UTC start of its day and EndDate as the UTC end of its day,
// so inclusive range checks against a target day's start work with
// plain <= / >= comparisons.
type Calendar struct {
	ServiceID string    `json:"service_id"`
	Monday    bool      `json:"monday"`
	Tuesday   bool      `json:"tuesday"`
	Wednesday bool      `json:"wednesday"`
	Thursday  bool      `json:"thursday"`
	Friday    bool      `json:"friday"`
	Saturday  bool      `json:"saturday"`
	Sunday    bool      `json:"sunday"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (c *Calendar) DocID() string { return c.ServiceID }

func (c *Calendar) ActiveOn(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	}
	return c.Sunday
}

// CalendarDate is a single-date add/remove override on a service's
// weekly rule. Date is a UTC day start. Multiple rows per
// (service_id, date) are possible and are not deduplicated.
type CalendarDate struct {
	ServiceID     string    `json:"service_id"`
	Date          time.Time `json:"date"`
	ExceptionType int8      `json:"exception_type"`
}

func (cd *CalendarDate) DocID() string { return "" }

// RefreshStatus is the single metadata record tracking refresh
// outcomes. It is upserted under a fixed sentinel ID.
type RefreshStatus struct {
	LastSuccess  time.Time `json:"last_successful_update_utc"`
	LastErrorAt  time.Time `json:"last_error_utc"`
	LastErrorMsg string    `json:"last_error_message,omitempty"`
}

// Departure is the projection returned by the departure query.
type Departure struct {
	DepartureTime        string `json:"departure_time"`
	RouteShortName       string `json:"route_short_name,omitempty"`
	RouteLongName        string `json:"route_long_name,omitempty"`
	Headsign             string `json:"trip_headsign,omitempty"`
	RouteColor           string `json:"route_color,omitempty"`
	WheelchairAccessible *int8  `json:"wheelchair_accessible,omitempty"`
}

/// ParseTime converts a GTFS "HH:MM:SS" string to seconds since
// midnight of the service day. Hours may exceed 23 (post-midnight
// service). Returns false for anything malformed.
func ParseTime(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}

	hms := [3]int{}
	for i, p := range parts {
		if p == "" {
			return 0, false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return 0, false
			}
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		hms[i] = v
	}

	if hms[1] > 59 || hms[2] > 59 {
		return 0, false
	}

	return hms[0]*3600 + hms[1]*60 + hms[2], true
}

// FormatTime renders seconds since midnight as "HH:MM:SS". Hours may
// exceed 23; no clamping or modulo is applied. Negative input renders
// as "00:00:00".
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// ParseDate converts a GTFS "YYYYMMDD" string (exactly 8 digits) to
// the UTC start of that day. Returns false for anything else.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayStart normalizes t to the UTC start of its calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd normalizes t to the UTC end of its calendar day.
func DayEnd(t time.Time) time.Time {
	return DayStart(t).Add(24*time.Hour - time.Second)
}
