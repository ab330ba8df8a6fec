package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"kltransit.dev/nextbus/model"
	"kltransit.dev/nextbus/storage"
)

type TripCSV struct {
	ID        string `csv:"trip_id"`
	RouteID   string `csv:"route_id"`
	ServiceID string `csv:"service_id"`
	Headsign  string `csv:"trip_headsign"`
}

func ParseTrips(
	writer storage.FeedWriter,
	data io.Reader,
	routes map[string]bool,
	services map[string]bool,
) (map[string]bool, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling trips csv: %w", err)
	}

	trips := map[string]bool{}
	for _, t := range tripCsv {
		id := strings.TrimSpace(t.ID)
		routeID := strings.TrimSpace(t.RouteID)

		if id == "" {
			return nil, fmt.Errorf("empty trip_id")
		}
		if trips[id] {
			return nil, fmt.Errorf("repeated trip_id '%s'", id)
		}
		trips[id] = true

		if routeID == "" {
			return nil, fmt.Errorf("empty route_id")
		}
		if !routes[routeID] {
			return nil, fmt.Errorf("unknown route_id '%s'", routeID)
		}
		if !services[t.ServiceID] {
			return nil, fmt.Errorf("unknown service_id '%s'", t.ServiceID)
		}

		err := writer.WriteTrip(&model.Trip{
			ID:        id,
			RouteID:   routeID,
			ServiceID: t.ServiceID,
			Headsign:  t.Headsign,
		})
		if err != nil {
			return nil, fmt.Errorf("writing trip: %w", err)
		}
	}

	return trips, nil
}
