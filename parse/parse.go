package parse

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"kltransit.dev/nextbus/storage"
)

// Row counts from a static schedule load. Handy for logging, and for
// sanity checking a freshly downloaded feed.
type Summary struct {
	Routes           int
	Services         int
	Trips            int
	Stops            int
	StopTimes        int
	StopTimesSkipped int
}

// ParseStatic loads a static schedule from a directory of delimited
// text files (routes.txt, trips.txt, stops.txt, stop_times.txt,
// calendar.txt) into the given writer.
//
// A missing or structurally broken file is fatal. Bad individual
// stop_time rows are skipped with a warning; a single sloppy row must
// not take down the whole schedule.
func ParseStatic(writer storage.FeedWriter, fsys fs.FS) (*Summary, error) {
	// These are the files we load for static dumps.
	files := []string{
		"routes.txt",
		"calendar.txt",
		"trips.txt",
		"stops.txt",
		"stop_times.txt",
	}

	handles := map[string]io.ReadCloser{}
	defer func() {
		for _, rc := range handles {
			rc.Close()
		}
	}()

	for _, name := range files {
		f, err := fsys.Open(name)
		if err != nil {
			return nil, fmt.Errorf("missing %s: %w", name, err)
		}
		handles[name] = f
	}

	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	// Parse routes.txt. Extract route IDs in the process.
	routes, err := ParseRoutes(writer, handles["routes.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt: %w", err)
	}

	// Parse calendar.txt. Extract the set of all service IDs.
	services, err := ParseCalendar(writer, handles["calendar.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing calendar.txt: %w", err)
	}

	// Parse trips.txt. Extract trip IDs in the process.
	trips, err := ParseTrips(writer, handles["trips.txt"], routes, services)
	if err != nil {
		return nil, fmt.Errorf("parsing trips.txt: %w", err)
	}

	// Parse stops.txt. Extract stop IDs in the process.
	stops, err := ParseStops(writer, handles["stops.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt: %w", err)
	}

	// Parse stop_times.txt.
	err = writer.BeginStopTimes()
	if err != nil {
		return nil, fmt.Errorf("beginning stop_times: %w", err)
	}
	written, skipped, err := ParseStopTimes(writer, handles["stop_times.txt"], trips, stops)
	if err != nil {
		return nil, fmt.Errorf("parsing stop_times.txt: %w", err)
	}
	err = writer.EndStopTimes()
	if err != nil {
		return nil, fmt.Errorf("ending stop_times: %w", err)
	}

	// All files parsed: close the writer.
	err = writer.Close()
	if err != nil {
		return nil, fmt.Errorf("closing feed writer: %w", err)
	}

	return &Summary{
		Routes:           len(routes),
		Services:         len(services),
		Trips:            len(trips),
		Stops:            len(stops),
		StopTimes:        written,
		StopTimesSkipped: skipped,
	}, nil
}
