package model

import (
	"strconv"
	"time"
)

// Holds all external facing types and constants.

// Value reported for a vehicle when neither an id nor a license plate
// is present in the feed.
const VehicleIDUnknown = "UNKNOWN"

// Value reported when a vehicle descriptor carries no license
// plate. Distinct from the empty string so callers can tell "absent"
// from "blank".
const LicensePlateUnknown = "N/A"

type Stop struct {
	ID   string
	Name string
	Desc string
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Desc      string
}

type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	Headsign  string
}

type Calendar struct {
	ServiceID string
	StartDate string
	EndDate   string
	Weekday   int8
}

// A scheduled stop of a trip. Arrival and Departure are "HHMMSS"
// strings, with hours exceeding 24 for trips continuing past midnight
// on their service day.
type StopTime struct {
	TripID    string
	StopID    string
	Arrival   string
	Departure string
}

func (st *StopTime) ArrivalTime() time.Duration {
	h, _ := strconv.Atoi(st.Arrival[0:2])
	m, _ := strconv.Atoi(st.Arrival[2:4])
	s, _ := strconv.Atoi(st.Arrival[4:6])
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func (st *StopTime) DepartureTime() time.Duration {
	h, _ := strconv.Atoi(st.Departure[0:2])
	m, _ := strconv.Atoi(st.Departure[2:4])
	s, _ := strconv.Atoi(st.Departure[4:6])
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// An upcoming vehicle arrival at a stop. Built fresh per query, never
// stored. Estimated matches Scheduled until a realtime correlation is
// in place to improve on it.
type Arrival struct {
	RouteID   string
	TripID    string
	StopID    string
	StopName  string
	Scheduled time.Time
	Estimated time.Time
}

// A vehicle observation from the realtime feed. VehicleID is never
// empty: the decoder substitutes the license plate, or
// VehicleIDUnknown, when the feed omits the id.
type VehiclePosition struct {
	VehicleID    string
	Timestamp    time.Time
	Latitude     float64
	Longitude    float64
	LicensePlate string
}
