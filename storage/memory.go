package storage

import (
	"fmt"
	"sort"
	"time"

	"kltransit.dev/nextbus/model"
)

// In memory implementation of Store. This is the primary backend:
// tables live in maps keyed for the lookups the correlator needs, all
// built during load.

type MemoryStore struct {
	feeds map[string]*memoryFeed
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		feeds: map[string]*memoryFeed{},
	}
}

func (s *MemoryStore) GetWriter(feed string) (FeedWriter, error) {
	f := &memoryFeed{
		calendar:        map[string]*model.Calendar{},
		routes:          map[string]*model.Route{},
		stops:           map[string]*model.Stop{},
		trips:           map[string]*model.Trip{},
		stopTimesByStop: map[string][]*model.StopTime{},
	}

	s.feeds[feed] = f

	return f, nil
}

func (s *MemoryStore) GetReader(feed string) (FeedReader, error) {
	f, ok := s.feeds[feed]
	if !ok {
		return nil, fmt.Errorf("feed not found")
	}
	return f, nil
}

type memoryFeed struct {
	calendar        map[string]*model.Calendar
	routes          map[string]*model.Route
	stops           map[string]*model.Stop
	trips           map[string]*model.Trip
	stopTimesByStop map[string][]*model.StopTime
}

func (f *memoryFeed) WriteStop(stop *model.Stop) error {
	f.stops[stop.ID] = stop
	return nil
}

func (f *memoryFeed) WriteRoute(route *model.Route) error {
	f.routes[route.ID] = route
	return nil
}

func (f *memoryFeed) WriteTrip(trip *model.Trip) error {
	f.trips[trip.ID] = trip
	return nil
}

func (f *memoryFeed) WriteCalendar(cal *model.Calendar) error {
	f.calendar[cal.ServiceID] = cal
	return nil
}

func (f *memoryFeed) BeginStopTimes() error {
	return nil
}

func (f *memoryFeed) WriteStopTime(stopTime *model.StopTime) error {
	f.stopTimesByStop[stopTime.StopID] = append(f.stopTimesByStop[stopTime.StopID], stopTime)
	return nil
}

func (f *memoryFeed) EndStopTimes() error {
	return nil
}

func (f *memoryFeed) Close() error {
	return nil
}

func (f *memoryFeed) Stops() ([]*model.Stop, error) {
	stops := []*model.Stop{}
	for _, v := range f.stops {
		stops = append(stops, v)
	}
	sort.Slice(stops, func(i, j int) bool {
		if stops[i].Name == stops[j].Name {
			return stops[i].ID < stops[j].ID
		}
		return stops[i].Name < stops[j].Name
	})
	return stops, nil
}

func (f *memoryFeed) Routes() ([]*model.Route, error) {
	routes := []*model.Route{}
	for _, v := range f.routes {
		routes = append(routes, v)
	}
	return routes, nil
}

func (f *memoryFeed) Trips() ([]*model.Trip, error) {
	trips := []*model.Trip{}
	for _, v := range f.trips {
		trips = append(trips, v)
	}
	return trips, nil
}

func (f *memoryFeed) StopTimes() ([]*model.StopTime, error) {
	stopTimes := []*model.StopTime{}
	for _, sts := range f.stopTimesByStop {
		stopTimes = append(stopTimes, sts...)
	}
	sort.Slice(stopTimes, func(i, j int) bool {
		if stopTimes[i].TripID == stopTimes[j].TripID {
			return stopTimes[i].Arrival < stopTimes[j].Arrival
		}
		return stopTimes[i].TripID < stopTimes[j].TripID
	})
	return stopTimes, nil
}

func (f *memoryFeed) Calendars() ([]*model.Calendar, error) {
	cals := []*model.Calendar{}
	for _, v := range f.calendar {
		cals = append(cals, v)
	}
	return cals, nil
}

func (f *memoryFeed) ActiveServices(date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	services := []string{}
	for _, cal := range f.calendar {
		if cal.Weekday&(1<<parsedDate.Weekday()) == 0 {
			continue
		}
		if cal.StartDate > date {
			continue
		}
		if cal.EndDate < date {
			continue
		}
		services = append(services, cal.ServiceID)
	}

	return services, nil
}

func (f *memoryFeed) ArrivalEvents(filter ArrivalEventFilter) ([]*ArrivalEvent, error) {
	var stopTimes []*model.StopTime

	if filter.StopID != "" {
		stopTimes = f.stopTimesByStop[filter.StopID]
	} else {
		for _, sts := range f.stopTimesByStop {
			stopTimes = append(stopTimes, sts...)
		}
	}

	serviceIDs := map[string]bool{}
	for _, sid := range filter.ServiceIDs {
		serviceIDs[sid] = true
	}

	events := []*ArrivalEvent{}

	for _, st := range stopTimes {
		if filter.ArrivalStart != "" && st.Arrival < filter.ArrivalStart {
			continue
		}
		if filter.ArrivalEnd != "" && st.Arrival > filter.ArrivalEnd {
			continue
		}

		trip := f.trips[st.TripID]
		if trip == nil {
			// Unreferenced trips are dropped at parse, but a
			// reader shouldn't trust its writer that much.
			continue
		}
		if filter.RouteID != "" && trip.RouteID != filter.RouteID {
			continue
		}
		if len(serviceIDs) > 0 && !serviceIDs[trip.ServiceID] {
			continue
		}

		events = append(events, &ArrivalEvent{
			StopTime: st,
			Trip:     trip,
			Route:    f.routes[trip.RouteID],
			Stop:     f.stops[st.StopID],
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].StopTime.Arrival < events[j].StopTime.Arrival
	})

	return events, nil
}
