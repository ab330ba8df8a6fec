package storage

import (
	"kltransit.dev/nextbus/model"
)

// A Store holds one parsed schedule. Tables are written once at load
// time and read-only afterwards, so a reader can be shared across any
// number of concurrent queries without locking.
type Store interface {
	// Gets a writer for the feed with the given id.
	GetWriter(feed string) (FeedWriter, error)

	// Gets a reader for the feed with the given id.
	GetReader(feed string) (FeedReader, error)
}

// Writes schedule records for a single feed.
//
// As stop_times.txt tends to be very large, BeginStopTimes() and
// EndStopTimes() are called before and after all calls to
// WriteStopTime(), allowing transactions/batching/whathaveyou.
type FeedWriter interface {
	WriteStop(stop *model.Stop) error
	WriteRoute(route *model.Route) error
	WriteTrip(trip *model.Trip) error
	WriteCalendar(cal *model.Calendar) error
	WriteStopTime(stopTime *model.StopTime) error
	BeginStopTimes() error
	EndStopTimes() error
	Close() error
}

type FeedReader interface {
	// All stops, ordered by name. Useful for presenting a stop
	// picker.
	Stops() ([]*model.Stop, error)

	Routes() ([]*model.Route, error)
	Trips() ([]*model.Trip, error)
	StopTimes() ([]*model.StopTime, error)
	Calendars() ([]*model.Calendar, error)

	// Service IDs for all services active on the given
	// date. Date is given as YYYYMMDD.
	ActiveServices(date string) ([]string, error)

	// Stop_times and their associated trip, route and stop,
	// matching the provided filter.
	ArrivalEvents(filter ArrivalEventFilter) ([]*ArrivalEvent, error)
}

// Filter for ArrivalEvents()
type ArrivalEventFilter struct {
	// Limit results to events at the given stop.
	StopID string

	// Limit results to a set of services and/or a specific
	// route.
	ServiceIDs []string
	RouteID    string

	// Limit results to stop_times with arrival within a certain
	// range (inclusive.) Times given as "HHMMSS".
	ArrivalStart string
	ArrivalEnd   string
}

// Holds information about a stop_time record, joined with its trip,
// route and stop.
type ArrivalEvent struct {
	StopTime *model.StopTime
	Trip     *model.Trip
	Route    *model.Route
	Stop     *model.Stop
}
