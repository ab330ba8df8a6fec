package storage

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kltransit.dev/nextbus/model"
)

// SQLite implementation of Store. One database per feed, either in
// memory or on disk. On-disk databases let large schedules skip the
// CSV parse on subsequent process starts.

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStore struct {
	SQLiteConfig

	feeds map[string]*sql.DB
}

type SQLiteFeedWriter struct {
	db                  *sql.DB
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
}

type SQLiteFeedReader struct {
	db *sql.DB
}

func NewSQLiteStore(cfg ...SQLiteConfig) (*SQLiteStore, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	return &SQLiteStore{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		feeds: map[string]*sql.DB{},
	}, nil
}

func (s *SQLiteStore) sourceName(feedID string) string {
	if s.OnDisk {
		return s.Directory + "/" + feedID + ".db"
	}
	return ":memory:"
}

func (s *SQLiteStore) GetWriter(feedID string) (FeedWriter, error) {
	sourceName := s.sourceName(feedID)
	if s.OnDisk {
		// delete file if it exists
		if _, err := os.Stat(sourceName); err == nil {
			err := os.Remove(sourceName)
			if err != nil {
				return nil, fmt.Errorf("removing existing database: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for name, query := range map[string]string{
		"stops": `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    desc TEXT
);`,
		"routes": `
CREATE TABLE routes (
    id TEXT PRIMARY KEY,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    desc TEXT
);`,
		"trips": `
CREATE TABLE trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT
);
CREATE INDEX trips_service_id ON trips (service_id);
`,
		"stop_times": `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    arrival_time TEXT NOT NULL,
    departure_time TEXT NOT NULL
);
CREATE INDEX stop_times_stop_id ON stop_times (stop_id);
CREATE INDEX stop_times_arrival_time ON stop_times (arrival_time);
`,
		"calendar": `
CREATE TABLE calendar (
    service_id TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    monday INTEGER NOT NULL,
    tuesday INTEGER NOT NULL,
    wednesday INTEGER NOT NULL,
    thursday INTEGER NOT NULL,
    friday INTEGER NOT NULL,
    saturday INTEGER NOT NULL,
    sunday INTEGER NOT NULL
);`,
	} {
		_, err = db.Exec(query)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %s", name, err)
		}
	}

	s.feeds[feedID] = db

	return &SQLiteFeedWriter{
		db: db,
	}, nil
}

func (s *SQLiteStore) GetReader(feedID string) (FeedReader, error) {
	db, found := s.feeds[feedID]
	if !found {
		var err error
		db, err = sql.Open("sqlite3", s.sourceName(feedID))
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.feeds[feedID] = db
	}

	return &SQLiteFeedReader{
		db: db,
	}, nil
}

func (f *SQLiteFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := f.db.Exec(`
INSERT INTO stops (id, name, desc)
VALUES (?, ?, ?)`,
		stop.ID,
		stop.Name,
		stop.Desc,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteRoute(route *model.Route) error {
	_, err := f.db.Exec(`
INSERT INTO routes (id, agency_id, short_name, long_name, desc)
VALUES (?, ?, ?, ?, ?)`,
		route.ID,
		route.AgencyID,
		route.ShortName,
		route.LongName,
		route.Desc,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteTrip(trip *model.Trip) error {
	_, err := f.db.Exec(`
INSERT INTO trips (id, route_id, service_id, headsign)
VALUES (?, ?, ?, ?)`,
		trip.ID,
		trip.RouteID,
		trip.ServiceID,
		trip.Headsign,
	)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteCalendar(cal *model.Calendar) error {
	mon, tue, wed, thu, fri, sat, sun := 0, 0, 0, 0, 0, 0, 0
	if cal.Weekday&(1<<time.Monday) != 0 {
		mon = 1
	}
	if cal.Weekday&(1<<time.Tuesday) != 0 {
		tue = 1
	}
	if cal.Weekday&(1<<time.Wednesday) != 0 {
		wed = 1
	}
	if cal.Weekday&(1<<time.Thursday) != 0 {
		thu = 1
	}
	if cal.Weekday&(1<<time.Friday) != 0 {
		fri = 1
	}
	if cal.Weekday&(1<<time.Saturday) != 0 {
		sat = 1
	}
	if cal.Weekday&(1<<time.Sunday) != 0 {
		sun = 1
	}

	_, err := f.db.Exec(`
INSERT INTO calendar (service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cal.ServiceID,
		cal.StartDate,
		cal.EndDate,
		mon, tue, wed, thu, fri, sat, sun,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) BeginStopTimes() error {
	// transaction with prepared statement.
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning stop_time insert transaction: %w", err)
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (trip_id, stop_id, arrival_time, departure_time)
VALUES (?, ?, ?, ?)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return fmt.Errorf("preparing stop_time insert: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	_, err := f.stopTimeInsertQuery.Exec(
		stopTime.TripID,
		stopTime.StopID,
		stopTime.Arrival,
		stopTime.Departure,
	)
	if err != nil {
		f.stopTimeInsertQuery.Close()
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		f.stopTimeInsertQuery = nil
		return fmt.Errorf("inserting stop_time: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) EndStopTimes() error {
	// commit transaction and clean up
	f.stopTimeInsertQuery.Close()
	err := f.stopTimeInsertTx.Commit()
	if err != nil {
		return fmt.Errorf("committing stop_time insert transaction: %w", err)
	}
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil

	return nil
}

func (f *SQLiteFeedWriter) Close() error {
	_, err := f.db.Exec(`ANALYZE;`)
	if err != nil {
		f.db.Close()
		return fmt.Errorf("analyzing database: %s", err)
	}

	return nil
}

func (f *SQLiteFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, name, desc
FROM stops
ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying for stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		stop := &model.Stop{}
		err = rows.Scan(&stop.ID, &stop.Name, &stop.Desc)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, stop)
	}

	return stops, nil
}

func (f *SQLiteFeedReader) Routes() ([]*model.Route, error) {
	rows, err := f.db.Query(`
SELECT id, agency_id, short_name, long_name, desc
FROM routes`)
	if err != nil {
		return nil, fmt.Errorf("querying for routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		route := &model.Route{}
		err = rows.Scan(&route.ID, &route.AgencyID, &route.ShortName, &route.LongName, &route.Desc)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func (f *SQLiteFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := f.db.Query(`
SELECT id, route_id, service_id, headsign
FROM trips`)
	if err != nil {
		return nil, fmt.Errorf("querying for trips: %w", err)
	}
	defer rows.Close()

	trips := []*model.Trip{}
	for rows.Next() {
		trip := &model.Trip{}
		err = rows.Scan(&trip.ID, &trip.RouteID, &trip.ServiceID, &trip.Headsign)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, trip)
	}

	return trips, nil
}

func (f *SQLiteFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := f.db.Query(`
SELECT trip_id, stop_id, arrival_time, departure_time
FROM stop_times
ORDER BY trip_id, arrival_time`)
	if err != nil {
		return nil, fmt.Errorf("querying for stop_times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		err = rows.Scan(&st.TripID, &st.StopID, &st.Arrival, &st.Departure)
		if err != nil {
			return nil, fmt.Errorf("scanning stop_time: %w", err)
		}
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, nil
}

func (f *SQLiteFeedReader) Calendars() ([]*model.Calendar, error) {
	rows, err := f.db.Query(`
SELECT service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday
FROM calendar`)
	if err != nil {
		return nil, fmt.Errorf("querying for calendars: %w", err)
	}
	defer rows.Close()

	cals := []*model.Calendar{}
	for rows.Next() {
		cal := &model.Calendar{}
		var mon, tue, wed, thu, fri, sat, sun int8
		err = rows.Scan(
			&cal.ServiceID,
			&cal.StartDate,
			&cal.EndDate,
			&mon, &tue, &wed, &thu, &fri, &sat, &sun,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar: %w", err)
		}
		cal.Weekday = mon<<time.Monday |
			tue<<time.Tuesday |
			wed<<time.Wednesday |
			thu<<time.Thursday |
			fri<<time.Friday |
			sat<<time.Saturday |
			sun<<time.Sunday
		cals = append(cals, cal)
	}

	return cals, nil
}

func (f *SQLiteFeedReader) ActiveServices(date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	var weekday string
	switch parsedDate.Weekday() {
	case time.Monday:
		weekday = "monday"
	case time.Tuesday:
		weekday = "tuesday"
	case time.Wednesday:
		weekday = "wednesday"
	case time.Thursday:
		weekday = "thursday"
	case time.Friday:
		weekday = "friday"
	case time.Saturday:
		weekday = "saturday"
	case time.Sunday:
		weekday = "sunday"
	}

	rows, err := f.db.Query(`
SELECT service_id
FROM calendar
WHERE `+weekday+` = 1 AND
      start_date <= ? AND
      end_date >= ?`, date, date)
	if err != nil {
		return nil, fmt.Errorf("querying for active services: %w", err)
	}
	defer rows.Close()

	activeServices := []string{}
	for rows.Next() {
		var serviceID string
		err = rows.Scan(&serviceID)
		if err != nil {
			return nil, fmt.Errorf("scanning active services: %w", err)
		}
		activeServices = append(activeServices, serviceID)
	}

	return activeServices, nil
}

func (f *SQLiteFeedReader) ArrivalEvents(filter ArrivalEventFilter) ([]*ArrivalEvent, error) {
	query := `
SELECT
    stop_times.trip_id,
    stop_times.stop_id,
    stop_times.arrival_time,
    stop_times.departure_time,
    trips.route_id,
    trips.service_id,
    trips.headsign,
    routes.agency_id,
    routes.short_name,
    routes.long_name,
    routes.desc,
    stops.name,
    stops.desc
FROM stop_times
INNER JOIN trips ON stop_times.trip_id = trips.id
INNER JOIN routes ON trips.route_id = routes.id
INNER JOIN stops ON stop_times.stop_id = stops.id`

	conditions := []string{}
	params := []interface{}{}
	if filter.StopID != "" {
		conditions = append(conditions, "stop_times.stop_id = ?")
		params = append(params, filter.StopID)
	}
	if filter.RouteID != "" {
		conditions = append(conditions, "trips.route_id = ?")
		params = append(params, filter.RouteID)
	}
	if len(filter.ServiceIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.ServiceIDs)), ",")
		conditions = append(conditions, "trips.service_id IN ("+placeholders+")")
		for _, sid := range filter.ServiceIDs {
			params = append(params, sid)
		}
	}
	if filter.ArrivalStart != "" {
		conditions = append(conditions, "stop_times.arrival_time >= ?")
		params = append(params, filter.ArrivalStart)
	}
	if filter.ArrivalEnd != "" {
		conditions = append(conditions, "stop_times.arrival_time <= ?")
		params = append(params, filter.ArrivalEnd)
	}
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}

	query += "\nORDER BY stop_times.arrival_time"

	rows, err := f.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying for arrival events: %w", err)
	}
	defer rows.Close()

	events := []*ArrivalEvent{}
	for rows.Next() {
		st := &model.StopTime{}
		trip := &model.Trip{}
		route := &model.Route{}
		stop := &model.Stop{}
		err = rows.Scan(
			&st.TripID,
			&st.StopID,
			&st.Arrival,
			&st.Departure,
			&trip.RouteID,
			&trip.ServiceID,
			&trip.Headsign,
			&route.AgencyID,
			&route.ShortName,
			&route.LongName,
			&route.Desc,
			&stop.Name,
			&stop.Desc,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning arrival event: %w", err)
		}
		trip.ID = st.TripID
		route.ID = trip.RouteID
		stop.ID = st.StopID
		events = append(events, &ArrivalEvent{
			StopTime: st,
			Trip:     trip,
			Route:    route,
			Stop:     stop,
		})
	}

	return events, nil
}
