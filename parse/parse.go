package parse

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"
)

// GTFS member files the pipeline consumes.
const (
	RoutesFile        = "routes.txt"
	TripsFile         = "trips.txt"
	ShapesFile        = "shapes.txt"
	StopsFile         = "stops.txt"
	StopTimesFile     = "stop_times.txt"
	CalendarFile      = "calendar.txt"
	CalendarDatesFile = "calendar_dates.txt"
)

// RequiredMembers lists the member files a feed archive must contain.
var RequiredMembers = []string{
	RoutesFile, TripsFile, ShapesFile, StopsFile,
	StopTimesFile, CalendarFile, CalendarDatesFile,
}

func init() {
	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// Feed is a handle on a downloaded GTFS ZIP archive, exposing member
// files by base name. Members are held in the archive until opened;
// Open returns the full member content, so decoders can be restarted
// by re-opening.
type Feed struct {
	members map[string]*zip.File
}

// OpenFeed opens buf as a GTFS ZIP archive and verifies all required
// member files are present.
func OpenFeed(buf []byte) (*Feed, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty archive")
	}

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}

	// There should not be any subdirectories. But, some agencies
	// don't care.
	members := map[string]*zip.File{}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		members[path[len(path)-1]] = f
	}

	missing := []string{}
	for _, name := range RequiredMembers {
		if _, found := members[name]; !found {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("archive is missing required members: %s", strings.Join(missing, ", "))
	}

	return &Feed{members: members}, nil
}

// MemberNames returns the base names of all member files, sorted.
func (f *Feed) MemberNames() []string {
	names := make([]string, 0, len(f.members))
	for name := range f.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open reads the named member in full.
func (f *Feed) Open(name string) ([]byte, error) {
	member, found := f.members[name]
	if !found {
		return nil, fmt.Errorf("no such member: %s", name)
	}

	rc, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return data, nil
}

// checkColumns verifies the table's header row carries every required
// column. A missing column is a hard error for the table, unlike a
// missing value in an individual row.
func checkColumns(data []byte, table string, required ...string) error {
	r := csv.NewReader(bom.NewReader(bytes.NewReader(data)))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", table, err)
	}

	have := map[string]bool{}
	for _, col := range header {
		have[strings.TrimSpace(col)] = true
	}

	missing := []string{}
	for _, col := range required {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required columns: %s", table, strings.Join(missing, ", "))
	}

	return nil
}

// optInt8 parses an optional small-integer field. Anything but a
// non-empty all-digit string is absent.
func optInt8(s string) *int8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil
		}
		v = v*10 + int(c-'0')
		if v > 127 {
			return nil
		}
	}
	n := int8(v)
	return &n
}

// defInt8 is optInt8 with a default for absent values
// (pickup_type/drop_off_type default to 0).
func defInt8(s string, def int8) int8 {
	if v := optInt8(s); v != nil {
		return *v
	}
	return def
}
