package parse

import (
	"errors"
	"fmt"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	proto "google.golang.org/protobuf/proto"

	"kltransit.dev/nextbus/model"
)

// The realtime feed is a protobuf payload fetched off the network, so
// it gets decoded defensively: every field the upstream is known to
// omit has a fallback, and a broken envelope is reported as a typed
// error the caller can recover from.

// Payload had zero length.
var ErrEmptyFeed = errors.New("empty feed payload")

// Payload could not be parsed as a feed envelope.
var ErrMalformedFeed = errors.New("malformed feed payload")

// DecodeVehicles extracts vehicle positions from a realtime feed
// payload. Entities without a vehicle sub-message are skipped. Feed
// order is preserved; sorting is the caller's business.
func DecodeVehicles(data []byte) ([]model.VehiclePosition, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFeed
	}

	f := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	positions := []model.VehiclePosition{}

	for _, entity := range f.GetEntity() {
		vehicle := entity.GetVehicle()
		if vehicle == nil {
			continue
		}

		desc := vehicle.GetVehicle()

		// Some vehicles report no id, only a license plate. A
		// few report neither.
		vehicleID := desc.GetId()
		if vehicleID == "" {
			vehicleID = desc.GetLicensePlate()
		}
		if vehicleID == "" {
			vehicleID = model.VehicleIDUnknown
		}

		licensePlate := desc.GetLicensePlate()
		if licensePlate == "" {
			licensePlate = model.LicensePlateUnknown
		}

		var timestamp time.Time
		if ts := vehicle.GetTimestamp(); ts != 0 {
			timestamp = time.Unix(int64(ts), 0).UTC()
		}

		position := vehicle.GetPosition()

		positions = append(positions, model.VehiclePosition{
			VehicleID:    vehicleID,
			Timestamp:    timestamp,
			Latitude:     float64(position.GetLatitude()),
			Longitude:    float64(position.GetLongitude()),
			LicensePlate: licensePlate,
		})
	}

	return positions, nil
}
