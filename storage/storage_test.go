package storage_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/nextbus/model"
	"kltransit.dev/nextbus/storage"
)

func buildStore(t *testing.T, backend string) storage.Store {
	switch backend {
	case "memory":
		return storage.NewMemoryStore()
	case "sqlite":
		s, err := storage.NewSQLiteStore()
		require.NoError(t, err)
		return s
	}
	t.Fatalf("unknown backend: %s", backend)
	return nil
}

func loadFixture(t *testing.T, s storage.Store) storage.FeedReader {
	w, err := s.GetWriter("fixture")
	require.NoError(t, err)

	require.NoError(t, w.WriteStop(&model.Stop{ID: "s1", Name: "Pasar Seni", Desc: "hub"}))
	require.NoError(t, w.WriteStop(&model.Stop{ID: "s2", Name: "KL Sentral"}))

	require.NoError(t, w.WriteRoute(&model.Route{ID: "r1", ShortName: "851"}))
	require.NoError(t, w.WriteRoute(&model.Route{ID: "r2", ShortName: "780"}))

	require.NoError(t, w.WriteCalendar(&model.Calendar{
		ServiceID: "weekday",
		StartDate: "20240101",
		EndDate:   "20241231",
		Weekday: 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday |
			1<<time.Thursday | 1<<time.Friday,
	}))
	require.NoError(t, w.WriteCalendar(&model.Calendar{
		ServiceID: "weekend",
		StartDate: "20240101",
		EndDate:   "20241231",
		Weekday:   1<<time.Saturday | 1<<time.Sunday,
	}))

	require.NoError(t, w.WriteTrip(&model.Trip{ID: "t1", RouteID: "r1", ServiceID: "weekday"}))
	require.NoError(t, w.WriteTrip(&model.Trip{ID: "t2", RouteID: "r2", ServiceID: "weekend"}))

	require.NoError(t, w.BeginStopTimes())
	require.NoError(t, w.WriteStopTime(&model.StopTime{
		TripID: "t1", StopID: "s1", Arrival: "083000", Departure: "083030",
	}))
	require.NoError(t, w.WriteStopTime(&model.StopTime{
		TripID: "t1", StopID: "s2", Arrival: "084500", Departure: "084530",
	}))
	require.NoError(t, w.WriteStopTime(&model.StopTime{
		TripID: "t2", StopID: "s1", Arrival: "251000", Departure: "251030",
	}))
	require.NoError(t, w.EndStopTimes())
	require.NoError(t, w.Close())

	r, err := s.GetReader("fixture")
	require.NoError(t, err)
	return r
}

func TestStoreStops(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			r := loadFixture(t, buildStore(t, backend))

			stops, err := r.Stops()
			require.NoError(t, err)
			require.Equal(t, 2, len(stops))

			// Ordered by name
			assert.Equal(t, "KL Sentral", stops[0].Name)
			assert.Equal(t, "Pasar Seni", stops[1].Name)
		})
	}
}

func TestStoreActiveServices(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			r := loadFixture(t, buildStore(t, backend))

			for date, expected := range map[string][]string{
				"20240610": {"weekday"}, // a Monday
				"20240615": {"weekend"}, // a Saturday
				"20240101": {"weekday"}, // start_date itself, a Monday
				"20241231": {"weekday"}, // end_date itself, a Tuesday
				"20231229": {},          // Friday before range
				"20250103": {},          // Friday after range
			} {
				services, err := r.ActiveServices(date)
				require.NoError(t, err)
				sort.Strings(services)
				assert.Equal(t, expected, services, "date %s", date)
			}

			_, err := r.ActiveServices("June 10")
			assert.Error(t, err)
		})
	}
}

func TestStoreArrivalEvents(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			r := loadFixture(t, buildStore(t, backend))

			// All events at s1, sorted by arrival
			events, err := r.ArrivalEvents(storage.ArrivalEventFilter{StopID: "s1"})
			require.NoError(t, err)
			require.Equal(t, 2, len(events))
			assert.Equal(t, "t1", events[0].Trip.ID)
			assert.Equal(t, "r1", events[0].Route.ID)
			assert.Equal(t, "Pasar Seni", events[0].Stop.Name)
			assert.Equal(t, "t2", events[1].Trip.ID)

			// Service filter
			events, err = r.ArrivalEvents(storage.ArrivalEventFilter{
				StopID:     "s1",
				ServiceIDs: []string{"weekday"},
			})
			require.NoError(t, err)
			require.Equal(t, 1, len(events))
			assert.Equal(t, "t1", events[0].Trip.ID)

			// Route filter
			events, err = r.ArrivalEvents(storage.ArrivalEventFilter{
				StopID:  "s1",
				RouteID: "r2",
			})
			require.NoError(t, err)
			require.Equal(t, 1, len(events))
			assert.Equal(t, "t2", events[0].Trip.ID)

			// Arrival range: post-midnight trips order after everything
			events, err = r.ArrivalEvents(storage.ArrivalEventFilter{
				StopID:       "s1",
				ArrivalStart: "090000",
			})
			require.NoError(t, err)
			require.Equal(t, 1, len(events))
			assert.Equal(t, "251000", events[0].StopTime.Arrival)

			// Unknown stop: empty, no error
			events, err = r.ArrivalEvents(storage.ArrivalEventFilter{StopID: "nope"})
			require.NoError(t, err)
			assert.Equal(t, 0, len(events))
		})
	}
}

func TestStoreStopTimes(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			r := loadFixture(t, buildStore(t, backend))

			stopTimes, err := r.StopTimes()
			require.NoError(t, err)
			require.Equal(t, 3, len(stopTimes))
			assert.Equal(t, "t1", stopTimes[0].TripID)
			assert.Equal(t, "083000", stopTimes[0].Arrival)
		})
	}
}

func TestStoreUnknownFeed(t *testing.T) {
	s := storage.NewMemoryStore()
	_, err := s.GetReader("nope")
	assert.Error(t, err)
}
