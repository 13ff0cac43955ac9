package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"uagis.dev/transit"
	"uagis.dev/transit/config"
	"uagis.dev/transit/internal/logging"
	"uagis.dev/transit/storage"
)

var rootCmd = &cobra.Command{
	Use:          "transit",
	Short:        "GTFS schedule service",
	Long:         "Ingests a GTFS static feed into a document store and serves schedule queries",
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Path to configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(departuresCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	return cfg, logger, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Database.DSN)
	case "postgres":
		return storage.NewPostgresStore(cfg.Database.DSN)
	case "memory":
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

func newRefresher(cfg *config.Config, logger *slog.Logger, store storage.Store) *transit.Refresher {
	refresher := transit.NewRefresher(store, logger, cfg.Feed.URL)
	refresher.Timeout = cfg.Feed.FetchTimeout
	return refresher
}
