package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kltransit.dev/nextbus"
	"kltransit.dev/nextbus/config"
	"kltransit.dev/nextbus/parse"
	"kltransit.dev/nextbus/storage"
)

var rootCmd = &cobra.Command{
	Use:          "nextbus",
	Short:        "Stop schedule and live vehicle tool",
	Long:         "Answers \"what arrives next at this stop?\" from a static schedule plus a realtime vehicle feed",
	SilenceUsage: true,
}

var (
	configPath  string
	staticDir   string
	realtimeURL string
	backend     string
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&staticDir, "static-dir", "", "", "Directory holding the schedule tables")
	rootCmd.PersistentFlags().StringVarP(&realtimeURL, "realtime-url", "", "", "Vehicle position feed URL")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "", "", "Storage backend (memory or sqlite)")

	rootCmd.AddCommand(arrivalsCmd)
	rootCmd.AddCommand(stopsCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(vehiclesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Flags override anything given in the config file.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if staticDir != "" {
		cfg.StaticDir = staticDir
	}
	if realtimeURL != "" {
		cfg.Realtime.URL = realtimeURL
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}

	return cfg, nil
}

func loadSchedule() (*nextbus.Schedule, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.StaticDir == "" {
		return nil, fmt.Errorf("static dir is required")
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case "memory":
		store = storage.NewMemoryStore()
	case "sqlite":
		store, err = storage.NewSQLiteStore(storage.SQLiteConfig{
			OnDisk:    cfg.Storage.OnDisk,
			Directory: cfg.Storage.Directory,
		})
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Storage.Backend)
	}

	writer, err := store.GetWriter("schedule")
	if err != nil {
		return nil, fmt.Errorf("getting writer: %w", err)
	}

	summary, err := parse.ParseStatic(writer, os.DirFS(cfg.StaticDir))
	if err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}
	log.Info().
		Int("routes", summary.Routes).
		Int("trips", summary.Trips).
		Int("stops", summary.Stops).
		Int("stop_times", summary.StopTimes).
		Int("skipped", summary.StopTimesSkipped).
		Msg("loaded schedule")

	reader, err := store.GetReader("schedule")
	if err != nil {
		return nil, fmt.Errorf("getting reader: %w", err)
	}

	return nextbus.NewSchedule(reader), nil
}

func newRefresher() (*nextbus.Refresher, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Realtime.URL == "" {
		return nil, fmt.Errorf("realtime URL is required")
	}

	r := nextbus.NewRefresher(cfg.Realtime.URL)
	if cfg.Realtime.TimeoutSeconds > 0 {
		r.Timeout = cfg.Realtime.Timeout()
	}
	if cfg.Realtime.MaxSizeBytes > 0 {
		r.MaxSize = cfg.Realtime.MaxSizeBytes
	}
	r.CacheTTL = cfg.Realtime.CacheTTL()

	return r, nil
}
