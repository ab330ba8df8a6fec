package parse

import (
	"testing"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	proto "google.golang.org/protobuf/proto"

	"kltransit.dev/nextbus/model"
)

func marshalFeed(t *testing.T, entities []*gtfsproto.FeedEntity) []byte {
	data, err := proto.Marshal(&gtfsproto.FeedMessage{
		Header: &gtfsproto.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfsproto.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(1718000000),
		},
		Entity: entities,
	})
	require.NoError(t, err)
	return data
}

func TestDecodeVehiclesEmptyPayload(t *testing.T) {
	_, err := DecodeVehicles(nil)
	assert.ErrorIs(t, err, ErrEmptyFeed)

	_, err = DecodeVehicles([]byte{})
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestDecodeVehiclesMalformedPayload(t *testing.T) {
	_, err := DecodeVehicles([]byte("this is not a protobuf"))
	assert.ErrorIs(t, err, ErrMalformedFeed)
}

func TestDecodeVehiclesNoEntities(t *testing.T) {
	positions, err := DecodeVehicles(marshalFeed(t, nil))
	require.NoError(t, err)
	assert.Equal(t, []model.VehiclePosition{}, positions)
}

func TestDecodeVehicles(t *testing.T) {
	data := marshalFeed(t, []*gtfsproto.FeedEntity{
		// Fully specified vehicle
		{
			Id: proto.String("e1"),
			Vehicle: &gtfsproto.VehiclePosition{
				Vehicle: &gtfsproto.VehicleDescriptor{
					Id:           proto.String("bus-17"),
					LicensePlate: proto.String("WXD 1533"),
				},
				Position: &gtfsproto.Position{
					Latitude:  proto.Float32(3.139),
					Longitude: proto.Float32(101.6869),
				},
				Timestamp: proto.Uint64(1718000123),
			},
		},
		// Entity without a vehicle sub-message gets skipped
		{
			Id: proto.String("e2"),
		},
		// No id, but a license plate
		{
			Id: proto.String("e3"),
			Vehicle: &gtfsproto.VehiclePosition{
				Vehicle: &gtfsproto.VehicleDescriptor{
					LicensePlate: proto.String("VDL 8021"),
				},
				Position: &gtfsproto.Position{
					Latitude:  proto.Float32(3.158),
					Longitude: proto.Float32(101.712),
				},
				Timestamp: proto.Uint64(1718000150),
			},
		},
		// Neither id nor license plate
		{
			Id: proto.String("e4"),
			Vehicle: &gtfsproto.VehiclePosition{
				Position: &gtfsproto.Position{
					Latitude:  proto.Float32(3.107),
					Longitude: proto.Float32(101.645),
				},
			},
		},
	})

	positions, err := DecodeVehicles(data)
	require.NoError(t, err)
	require.Equal(t, 3, len(positions))

	// Feed order is preserved
	assert.Equal(t, "bus-17", positions[0].VehicleID)
	assert.Equal(t, "WXD 1533", positions[0].LicensePlate)
	assert.Equal(t, time.Unix(1718000123, 0).UTC(), positions[0].Timestamp)
	assert.InDelta(t, 3.139, positions[0].Latitude, 0.0001)
	assert.InDelta(t, 101.6869, positions[0].Longitude, 0.0001)

	// License plate stands in for a missing id
	assert.Equal(t, "VDL 8021", positions[1].VehicleID)
	assert.Equal(t, "VDL 8021", positions[1].LicensePlate)

	// Sentinels when both id and plate are absent
	assert.Equal(t, model.VehicleIDUnknown, positions[2].VehicleID)
	assert.Equal(t, model.LicensePlateUnknown, positions[2].LicensePlate)
	assert.True(t, positions[2].Timestamp.IsZero())
}
