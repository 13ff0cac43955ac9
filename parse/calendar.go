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

type calendarCSV struct {
	ServiceID string `csv:"service_id"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

// DecodeCalendar emits one Calendar per valid calendar.txt row.
// start_date is stored as the UTC start of its day and end_date as
// the UTC end of its day, making inclusive range checks against a
// target day's start work with plain comparisons. Returns the number
// of rows skipped.
func DecodeCalendar(logger *slog.Logger, data []byte, emit func(*model.Calendar) error) (int, error) {
	err := checkColumns(data, CalendarFile,
		"service_id", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "start_date", "end_date")
	if err != nil {
		return 0, err
	}

	skipped := 0
	row := -1
	err = gocsv.UnmarshalToCallbackWithError(bytes.NewReader(data), func(c *calendarCSV) error {
		row++

		startDate, startOK := model.ParseDate(c.StartDate)
		endDate, endOK := model.ParseDate(c.EndDate)
		if c.ServiceID == "" || !startOK || !endOK {
			logger.Warn("skipping calendar row without service_id or valid dates",
				"file", CalendarFile, "row", row, "service_id", c.ServiceID)
			skipped++
			return nil
		}

		flags := [7]bool{}
		for i, raw := range []string{c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday} {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				logger.Warn("skipping calendar row with bad weekday flag",
					"file", CalendarFile, "row", row, "service_id", c.ServiceID)
				skipped++
				return nil
			}
			flags[i] = v != 0
		}

		return emit(&model.Calendar{
			ServiceID: c.ServiceID,
			Monday:    flags[0],
			Tuesday:   flags[1],
			Wednesday: flags[2],
			Thursday:  flags[3],
			Friday:    flags[4],
			Saturday:  flags[5],
			Sunday:    flags[6],
			StartDate: startDate,
			EndDate:   model.DayEnd(endDate),
		})
	})
	if err != nil {
		return skipped, fmt.Errorf("decoding %s: %w", CalendarFile, err)
	}

	return skipped, nil
}
