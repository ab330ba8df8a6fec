package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Application configuration, loaded from a YAML file.
type Config struct {
	// Directory holding the extracted schedule tables
	// (routes.txt, trips.txt, stops.txt, stop_times.txt,
	// calendar.txt).
	StaticDir string `yaml:"static_dir" validate:"required"`

	Realtime RealtimeConfig `yaml:"realtime"`
	Storage  StorageConfig  `yaml:"storage"`
}

type RealtimeConfig struct {
	URL             string `yaml:"url" validate:"omitempty,url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" validate:"gte=0"`
	MaxSizeBytes    int    `yaml:"max_size_bytes" validate:"gte=0"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" validate:"gte=0"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend" validate:"omitempty,oneof=memory sqlite"`
	Directory string `yaml:"directory"`
	OnDisk    bool   `yaml:"on_disk"`
}

func (c *RealtimeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *RealtimeConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads and validates configuration from the given path,
// filling in defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Realtime.TimeoutSeconds == 0 {
		cfg.Realtime.TimeoutSeconds = 30
	}
	if cfg.Realtime.MaxSizeBytes == 0 {
		cfg.Realtime.MaxSizeBytes = 1 << 20
	}

	return &cfg, nil
}
