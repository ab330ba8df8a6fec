package parse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"kltransit.dev/nextbus/model"
	"kltransit.dev/nextbus/storage"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

// Normalizes a "H:MM:SS" style time to "HHMMSS". Hours may exceed 24
// for trips continuing past midnight on their service day.
func parseStopTimeTime(s string) (string, error) {
	split := strings.Split(strings.TrimSpace(s), ":")
	if len(split) != 3 {
		return "", fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(str)
		if err != nil {
			return "", fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return "", fmt.Errorf("invalid hour in '%s'", s)
	}

	if hms[1] < 0 || hms[1] > 59 {
		return "", fmt.Errorf("invalid minute in '%s'", s)
	}

	if hms[2] < 0 || hms[2] > 59 {
		return "", fmt.Errorf("invalid second in '%s'", s)
	}

	return fmt.Sprintf("%02d%02d%02d", hms[0], hms[1], hms[2]), nil
}

// Loads stop_times.txt. Unlike the other tables, bad rows here are
// skipped rather than fatal: a single malformed time or a dangling
// trip reference must not suppress the valid rows around it. Returns
// counts of rows written and rows skipped.
func ParseStopTimes(
	writer storage.FeedWriter,
	data io.Reader,
	trips map[string]bool,
	stops map[string]bool,
) (int, int, error) {

	written := 0
	skipped := 0

	skip := func(row int, err error) {
		skipped++
		log.Warn().Err(err).Int("row", row).Msg("skipping stop_time row")
	}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1

		tripID := strings.TrimSpace(st.TripID)
		stopID := strings.TrimSpace(st.StopID)

		if tripID == "" {
			skip(i+1, fmt.Errorf("missing trip_id"))
			return nil
		}
		if !trips[tripID] {
			skip(i+1, fmt.Errorf("unknown trip_id: '%s'", tripID))
			return nil
		}
		if stopID == "" {
			skip(i+1, fmt.Errorf("missing stop_id"))
			return nil
		}
		if !stops[stopID] {
			skip(i+1, fmt.Errorf("unknown stop_id: '%s'", stopID))
			return nil
		}

		arrivalTime, err := parseStopTimeTime(st.ArrivalTime)
		if err != nil {
			skip(i+1, errors.Wrap(err, "parsing arrival_time"))
			return nil
		}

		departureTime, err := parseStopTimeTime(st.DepartureTime)
		if err != nil {
			skip(i+1, errors.Wrap(err, "parsing departure_time"))
			return nil
		}

		err = writer.WriteStopTime(&model.StopTime{
			TripID:    tripID,
			StopID:    stopID,
			Arrival:   arrivalTime,
			Departure: departureTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", i+1)
		}

		written++
		return nil
	})

	if err != nil {
		return 0, 0, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	return written, skipped, nil
}
