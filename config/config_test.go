package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
static_dir: /var/lib/nextbus/gtfs
realtime:
  url: https://api.example.com/vehicle-position
  timeout_seconds: 10
  max_size_bytes: 2097152
  cache_ttl_seconds: 15
storage:
  backend: sqlite
  directory: /var/lib/nextbus/db
  on_disk: true
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/nextbus/gtfs", cfg.StaticDir)
	assert.Equal(t, "https://api.example.com/vehicle-position", cfg.Realtime.URL)
	assert.Equal(t, 10*time.Second, cfg.Realtime.Timeout())
	assert.Equal(t, 2097152, cfg.Realtime.MaxSizeBytes)
	assert.Equal(t, 15*time.Second, cfg.Realtime.CacheTTL())
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/nextbus/db", cfg.Storage.Directory)
	assert.True(t, cfg.Storage.OnDisk)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
static_dir: ./gtfs
`))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 30*time.Second, cfg.Realtime.Timeout())
	assert.Equal(t, 1<<20, cfg.Realtime.MaxSizeBytes)
	assert.Equal(t, time.Duration(0), cfg.Realtime.CacheTTL())
}

func TestLoadInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"missing static_dir": `
realtime:
  url: https://api.example.com/vehicle-position
`,
		"bad backend": `
static_dir: ./gtfs
storage:
  backend: postgres
`,
		"bad url": `
static_dir: ./gtfs
realtime:
  url: not a url
`,
		"negative timeout": `
static_dir: ./gtfs
realtime:
  timeout_seconds: -1
`,
		"not yaml": `{{{`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	assert.Error(t, err)
}
