package testutil

// Helpers and configuration for tests.

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"kltransit.dev/nextbus"
	"kltransit.dev/nextbus/parse"
	"kltransit.dev/nextbus/storage"
)

func BuildStore(t testing.TB, backend string) storage.Store {
	var s storage.Store
	var err error
	if backend == "memory" {
		s = storage.NewMemoryStore()
	} else if backend == "sqlite" {
		s, err = storage.NewSQLiteStore()
		require.NoError(t, err)
	}
	require.NotEqual(t, nil, s, "unknown backend %q", backend)

	return s
}

// Builds a Schedule from table contents given as lines of CSV. Any
// table not provided gets a minimal header-only default.
func LoadSchedule(t testing.TB, backend string, files map[string][]string) *nextbus.Schedule {
	if files["routes.txt"] == nil {
		files["routes.txt"] = []string{"route_id,route_short_name"}
	}
	if files["calendar.txt"] == nil {
		files["calendar.txt"] = []string{"service_id,start_date,end_date"}
	}
	if files["trips.txt"] == nil {
		files["trips.txt"] = []string{"trip_id,route_id,service_id"}
	}
	if files["stops.txt"] == nil {
		files["stops.txt"] = []string{"stop_id,stop_name"}
	}
	if files["stop_times.txt"] == nil {
		files["stop_times.txt"] = []string{"trip_id,stop_id,arrival_time,departure_time"}
	}

	fsys := fstest.MapFS{}
	for filename, content := range files {
		fsys[filename] = &fstest.MapFile{
			Data: []byte(strings.Join(content, "\n")),
		}
	}

	s := BuildStore(t, backend)

	feedWriter, err := s.GetWriter("test")
	require.NoError(t, err)

	_, err = parse.ParseStatic(feedWriter, fsys)
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	return nextbus.NewSchedule(reader)
}
