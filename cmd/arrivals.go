package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <stop_id>",
	Short: "Lists upcoming arrivals at a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  arrivals,
}

var (
	limit int
	at    string
)

func init() {
	arrivalsCmd.Flags().IntVarP(&limit, "limit", "l", 5, "Limit the number of arrivals returned")
	arrivalsCmd.Flags().StringVarP(&at, "at", "", "", "Query as of this moment (RFC 3339), default now")
}

func arrivals(cmd *cobra.Command, args []string) error {
	stopID := args[0]

	asOf := time.Now()
	if at != "" {
		var err error
		asOf, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	schedule, err := loadSchedule()
	if err != nil {
		return err
	}

	arrivals, err := schedule.NextArrivals(stopID, asOf, limit)
	if err != nil {
		return err
	}

	if len(arrivals) == 0 {
		fmt.Println("no more scheduled arrivals today at this stop")
		return nil
	}

	for _, arrival := range arrivals {
		fmt.Printf("%s %s %s %s\n",
			arrival.Scheduled.Format("15:04:05"),
			arrival.RouteID,
			arrival.TripID,
			arrival.StopName,
		)
	}

	return nil
}
