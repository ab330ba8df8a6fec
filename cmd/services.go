package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services [date]",
	Short: "Lists service IDs active on a date (YYYYMMDD), default today",
	Args:  cobra.MaximumNArgs(1),
	RunE:  services,
}

func services(cmd *cobra.Command, args []string) error {
	date := time.Now()
	if len(args) == 1 {
		var err error
		date, err = time.Parse("20060102", args[0])
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}

	schedule, err := loadSchedule()
	if err != nil {
		return err
	}

	serviceIDs, err := schedule.ActiveServices(date)
	if err != nil {
		return err
	}

	for _, serviceID := range serviceIDs {
		fmt.Println(serviceID)
	}

	return nil
}
