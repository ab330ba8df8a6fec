package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopsCmd = &cobra.Command{
	Use:   "stops",
	Short: "Lists all stops in the schedule",
	Args:  cobra.NoArgs,
	RunE:  stops,
}

func stops(cmd *cobra.Command, args []string) error {
	schedule, err := loadSchedule()
	if err != nil {
		return err
	}

	stops, err := schedule.Stops()
	if err != nil {
		return err
	}

	for _, stop := range stops {
		fmt.Printf("%s (%s)\n", stop.Name, stop.ID)
	}

	return nil
}
