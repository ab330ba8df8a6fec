package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "Fetches and lists current vehicle positions",
	Args:  cobra.NoArgs,
	RunE:  vehicles,
}

var vehicleID string

func init() {
	vehiclesCmd.Flags().StringVarP(&vehicleID, "vehicle", "v", "", "Restrict to a specific vehicle ID")
}

func vehicles(cmd *cobra.Command, args []string) error {
	refresher, err := newRefresher()
	if err != nil {
		return err
	}

	positions, err := refresher.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	for _, position := range positions {
		if vehicleID != "" && position.VehicleID != vehicleID {
			continue
		}
		fmt.Printf("%s %s %.5f,%.5f plate=%s\n",
			position.VehicleID,
			position.Timestamp.Format(time.RFC3339),
			position.Latitude,
			position.Longitude,
			position.LicensePlate,
		)
	}

	return nil
}
