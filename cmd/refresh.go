package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one feed refresh and exit",
	Args:  cobra.NoArgs,
	RunE:  refresh,
}

func refresh(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	refresher := newRefresher(cfg, logger, store)
	if !refresher.Refresh(context.Background()) {
		return fmt.Errorf("refresh failed")
	}

	return nil
}
