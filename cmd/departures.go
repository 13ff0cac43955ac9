package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"uagis.dev/transit"
	"uagis.dev/transit/model"
)

var departuresCmd = &cobra.Command{
	Use:   "departures <stop_id>",
	Short: "Lists upcoming departures from a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  departures,
}

var (
	limit     int
	routeID   string
	dateStr   string
	startTime string
)

func init() {
	departuresCmd.Flags().IntVarP(&limit, "limit", "l", 10, "Limit the number of departures returned")
	departuresCmd.Flags().StringVarP(&routeID, "route", "r", "", "Restrict to a specific route")
	departuresCmd.Flags().StringVarP(&dateStr, "date", "d", "", "Date to query (YYYY-MM-DD, default today)")
	departuresCmd.Flags().StringVarP(&startTime, "start-time", "t", "", "Start of search (HH:MM:SS, default now)")
}

func departures(cmd *cobra.Command, args []string) error {
	stopID := args[0]

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	now := time.Now().In(cfg.Location())

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		day = model.DayStart(parsed)
	}

	cutoff := now.Hour()*3600 + now.Minute()*60 + now.Second()
	if startTime != "" {
		parsed, ok := model.ParseTime(startTime)
		if !ok {
			return fmt.Errorf("invalid start time %q", startTime)
		}
		cutoff = parsed
	}

	schedule := transit.NewSchedule(store)
	results, err := schedule.NextDepartures(context.Background(), stopID, day, cutoff, limit, routeID)
	if err != nil {
		return err
	}

	for _, d := range results {
		fmt.Printf("%s %s %s\n", d.DepartureTime, d.RouteShortName, d.Headsign)
	}

	return nil
}
