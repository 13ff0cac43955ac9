package parse

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gocarina/gocsv"

	"uagis.dev/transit/model"
)

type calendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType string `csv:"exception_type"`
}

// DecodeCalendarDates emits one CalendarDate per valid
// calendar_dates.txt row. exception_type must be 1 (service added) or
// 2 (service removed). Returns the number of rows skipped.
func DecodeCalendarDates(logger *slog.Logger, data []byte, emit func(*model.CalendarDate) error) (int, error) {
	err := checkColumns(data, CalendarDatesFile, "service_id", "date", "exception_type")
	if err != nil {
		return 0, err
	}

	skipped := 0
	row := -1
	err = gocsv.UnmarshalToCallbackWithError(bytes.NewReader(data), func(c *calendarDateCSV) error {
		row++

		date, dateOK := model.ParseDate(c.Date)
		if c.ServiceID == "" || !dateOK {
			logger.Warn("skipping calendar date row without service_id or valid date",
				"file", CalendarDatesFile, "row", row, "service_id", c.ServiceID)
			skipped++
			return nil
		}

		if c.ExceptionType != "1" && c.ExceptionType != "2" {
			logger.Warn("skipping calendar date row with bad exception_type",
				"file", CalendarDatesFile, "row", row,
				"service_id", c.ServiceID, "exception_type", c.ExceptionType)
			skipped++
			return nil
		}
		exceptionType, _ := strconv.Atoi(c.ExceptionType)

		return emit(&model.CalendarDate{
			ServiceID:     c.ServiceID,
			Date:          date,
			ExceptionType: int8(exceptionType),
		})
	})
	if err != nil {
		return skipped, fmt.Errorf("decoding %s: %w", CalendarDatesFile, err)
	}

	return skipped, nil
}
