package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"kltransit.dev/nextbus/model"
	"kltransit.dev/nextbus/storage"
)

type StopCSV struct {
	ID   string `csv:"stop_id"`
	Name string `csv:"stop_name"`
	Desc string `csv:"stop_desc"`
}

func ParseStops(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stopIDs := map[string]bool{}
	for _, st := range stopCsv {
		// Upstream data isn't guaranteed trimmed, and stop_times
		// rows must match on the trimmed id.
		id := strings.TrimSpace(st.ID)

		if id == "" {
			return nil, fmt.Errorf("empty stop_id")
		}
		if stopIDs[id] {
			return nil, fmt.Errorf("repeated stop_id '%s'", id)
		}
		stopIDs[id] = true

		if st.Name == "" {
			return nil, fmt.Errorf("empty stop_name for stop_id '%s'", id)
		}

		err := writer.WriteStop(&model.Stop{
			ID:   id,
			Name: st.Name,
			Desc: st.Desc,
		})
		if err != nil {
			return nil, fmt.Errorf("writing stop '%s': %w", id, err)
		}
	}

	return stopIDs, nil
}
