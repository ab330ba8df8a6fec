package nextbus

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"kltransit.dev/nextbus/model"
	"kltransit.dev/nextbus/storage"
)

// Schedule answers "what arrives next at this stop?" from the static
// timetable. It is read-only after load and safe for concurrent use.
type Schedule struct {
	reader storage.FeedReader
}

func NewSchedule(reader storage.FeedReader) *Schedule {
	return &Schedule{reader: reader}
}

// All stops in the schedule, ordered by name.
func (s *Schedule) Stops() ([]*model.Stop, error) {
	stops, err := s.reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("listing stops: %w", err)
	}
	return stops, nil
}

// Service IDs active on the given date. A service is active iff its
// weekday flag for the date's weekday is set and the date falls
// within [start_date, end_date], both ends inclusive. An empty
// calendar yields an empty set, not an error.
func (s *Schedule) ActiveServices(date time.Time) ([]string, error) {
	return s.reader.ActiveServices(date.Format("20060102"))
}

// Translates a time offset into a GTFS style HHMMSS string.
func gtfsTime(offset time.Duration) string {
	h := int(offset.Hours())
	m := int(offset.Minutes()) - h*60
	s := int(offset.Seconds()) - h*3600 - m*60
	return fmt.Sprintf("%02d%02d%02d", h, m, s)
}

// NextArrivals returns the upcoming arrivals at a stop, strictly
// after asOf, ordered by scheduled time with trip_id as tie-break. At
// most limit arrivals are returned; pass limit < 0 for no limit.
//
// An unknown stop yields an empty slice, not an error. Stop-times
// with hours of 24 or more belong to the previous service day's
// trips, so both asOf's service date and the one before it are
// inspected.
func (s *Schedule) NextArrivals(stopID string, asOf time.Time, limit int) ([]model.Arrival, error) {
	arrivals := []model.Arrival{}

	if limit == 0 {
		return arrivals, nil
	}

	stopID = strings.TrimSpace(stopID)

	// Dedup guard. A trip can legitimately hit a stop twice (loop
	// routes), so the key includes the scheduled time.
	type arrivalKey struct {
		tripID    string
		scheduled time.Time
	}
	seen := map[arrivalKey]bool{}

	for _, day := range []time.Time{asOf.AddDate(0, 0, -1), asOf} {
		date := day.Format("20060102")

		serviceIDs, err := s.reader.ActiveServices(date)
		if err != nil {
			return nil, fmt.Errorf("resolving active services for %s: %w", date, err)
		}
		if len(serviceIDs) == 0 {
			continue
		}

		// All schedule times are offsets from the service
		// day's noon minus 12h. Anchoring on noon keeps the
		// arithmetic stable across DST switches.
		noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, asOf.Location())
		dayStart := noon.Add(-12 * time.Hour)

		// Skip everything scheduled on or before asOf. The
		// string filter is inclusive, so the strictly-after
		// check is repeated on the computed times below.
		asOfOffset := asOf.Sub(dayStart)
		if asOfOffset < 0 {
			asOfOffset = 0
		}

		events, err := s.reader.ArrivalEvents(storage.ArrivalEventFilter{
			StopID:       stopID,
			ServiceIDs:   serviceIDs,
			ArrivalStart: gtfsTime(asOfOffset),
		})
		if err != nil {
			return nil, fmt.Errorf("loading arrival events: %w", err)
		}

		for _, event := range events {
			scheduled := dayStart.Add(event.StopTime.ArrivalTime())
			if !scheduled.After(asOf) {
				continue
			}

			key := arrivalKey{event.Trip.ID, scheduled}
			if seen[key] {
				continue
			}
			seen[key] = true

			arrivals = append(arrivals, model.Arrival{
				RouteID:   event.Trip.RouteID,
				TripID:    event.Trip.ID,
				StopID:    event.Stop.ID,
				StopName:  event.Stop.Name,
				Scheduled: scheduled,
				Estimated: scheduled,
			})
		}
	}

	sort.Slice(arrivals, func(i, j int) bool {
		if arrivals[i].Scheduled.Equal(arrivals[j].Scheduled) {
			return arrivals[i].TripID < arrivals[j].TripID
		}
		return arrivals[i].Scheduled.Before(arrivals[j].Scheduled)
	})

	if limit >= 0 && len(arrivals) > limit {
		arrivals = arrivals[:limit]
	}

	return arrivals, nil
}
