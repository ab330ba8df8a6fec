package parse

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/nextbus/storage"
)

func fixtureFS(files map[string][]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for filename, content := range files {
		fsys[filename] = &fstest.MapFile{
			Data: []byte(strings.Join(content, "\n")),
		}
	}
	return fsys
}

func validFixture() map[string][]string {
	return map[string][]string{
		"routes.txt": {
			"route_id,route_short_name",
			"U851,851",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WD1,1,1,1,1,1,0,0,20240101,20241231",
		},
		"trips.txt": {
			"trip_id,route_id,service_id",
			"t1,U851,WD1",
		},
		"stops.txt": {
			"stop_id,stop_name",
			"s1,PASAR SENI",
		},
		"stop_times.txt": {
			"trip_id,stop_id,arrival_time,departure_time",
			"t1,s1,08:30:00,08:30:30",
			"t1,bogus,09:00:00,09:00:30",
		},
	}
}

func TestParseStatic(t *testing.T) {
	store := storage.NewMemoryStore()
	writer, err := store.GetWriter("test")
	require.NoError(t, err)

	summary, err := ParseStatic(writer, fixtureFS(validFixture()))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Routes)
	assert.Equal(t, 1, summary.Services)
	assert.Equal(t, 1, summary.Trips)
	assert.Equal(t, 1, summary.Stops)
	assert.Equal(t, 1, summary.StopTimes)
	assert.Equal(t, 1, summary.StopTimesSkipped)
}

func TestParseStaticMissingFile(t *testing.T) {
	for _, missing := range []string{
		"routes.txt",
		"calendar.txt",
		"trips.txt",
		"stops.txt",
		"stop_times.txt",
	} {
		t.Run(missing, func(t *testing.T) {
			files := validFixture()
			delete(files, missing)

			store := storage.NewMemoryStore()
			writer, err := store.GetWriter("test")
			require.NoError(t, err)

			_, err = ParseStatic(writer, fixtureFS(files))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestParseStaticBrokenCalendarIsFatal(t *testing.T) {
	files := validFixture()
	files["calendar.txt"] = []string{
		"service_id,monday,start_date,end_date",
		"WD1,7,20240101,20241231",
	}

	store := storage.NewMemoryStore()
	writer, err := store.GetWriter("test")
	require.NoError(t, err)

	_, err = ParseStatic(writer, fixtureFS(files))
	assert.Error(t, err)
}
