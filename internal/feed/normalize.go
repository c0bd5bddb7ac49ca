package feed

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/geo"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/gtfstime"
)

// Normalize turns one feed's raw bundle into the five canonical tables.
// Stop coordinates are projected here, once, so the query engine's radius
// filter is pure arithmetic; arrival times are converted to seconds here,
// once, for the same reason.
func Normalize(feedID string, b *Bundle, p geo.Projector) (*Tables, error) {
	out := &Tables{FeedID: feedID}

	if err := normalizeStops(feedID, b.tables["stops"], p, out); err != nil {
		return nil, err
	}
	if err := normalizeRoutes(feedID, b.tables["routes"], out); err != nil {
		return nil, err
	}
	if err := normalizeTrips(feedID, b.tables["trips"], out); err != nil {
		return nil, err
	}
	if err := normalizeCalendar(feedID, b.tables["calendar"], out); err != nil {
		return nil, err
	}
	if err := normalizeStopTimes(feedID, b.tables["stop_times"], out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeStops(feedID string, t *rawTable, p geo.Projector, out *Tables) error {
	id := t.col("stop_id")
	name := t.col("stop_name")
	desc := t.col("stop_desc")
	lat := t.col("stop_lat")
	lon := t.col("stop_lon")
	locType := t.col("location_type")
	parent := t.col("parent_station")
	zone := t.col("zone_id")
	if id < 0 || lat < 0 || lon < 0 {
		return &SourceError{Feed: feedID, Table: "stops", Reason: "missing stop_id, stop_lat or stop_lon column"}
	}
	out.Stops = make([]Stop, 0, len(t.rows))
	for _, row := range t.rows {
		s := Stop{
			FeedID:        feedID,
			StopID:        field(row, id),
			StopName:      nullString(field(row, name)),
			StopDesc:      nullString(field(row, desc)),
			LocationType:  nullString(field(row, locType)),
			ParentStation: nullString(field(row, parent)),
			ZoneID:        nullString(field(row, zone)),
		}
		var err error
		if s.Lat, err = parseFloat(field(row, lat)); err != nil {
			return &SourceError{Feed: feedID, Table: "stops", Reason: fmt.Sprintf("stop %s: stop_lat: %v", s.StopID, err)}
		}
		if s.Lon, err = parseFloat(field(row, lon)); err != nil {
			return &SourceError{Feed: feedID, Table: "stops", Reason: fmt.Sprintf("stop %s: stop_lon: %v", s.StopID, err)}
		}
		if s.X, s.Y, err = p.Project(s.Lon, s.Lat); err != nil {
			return &SourceError{Feed: feedID, Table: "stops", Reason: fmt.Sprintf("stop %s: %v", s.StopID, err)}
		}
		out.Stops = append(out.Stops, s)
	}
	return nil
}

func normalizeRoutes(feedID string, t *rawTable, out *Tables) error {
	id := t.col("route_id")
	agency := t.col("agency_id")
	short := t.col("route_short_name")
	long := t.col("route_long_name")
	desc := t.col("route_desc")
	rtype := t.col("route_type")
	color := t.col("route_color")
	textColor := t.col("route_text_color")
	if id < 0 {
		return &SourceError{Feed: feedID, Table: "routes", Reason: "missing route_id column"}
	}
	out.Routes = make([]Route, 0, len(t.rows))
	for _, row := range t.rows {
		r := Route{
			FeedID:         feedID,
			RouteID:        field(row, id),
			AgencyID:       nullString(field(row, agency)),
			RouteShortName: nullString(field(row, short)),
			RouteLongName:  nullString(field(row, long)),
			RouteDesc:      nullString(field(row, desc)),
			RouteColor:     nullString(field(row, color)),
			RouteTextColor: nullString(field(row, textColor)),
		}
		var err error
		if r.RouteType, err = nullInt(field(row, rtype)); err != nil {
			return &SourceError{Feed: feedID, Table: "routes", Reason: fmt.Sprintf("route %s: route_type: %v", r.RouteID, err)}
		}
		out.Routes = append(out.Routes, r)
	}
	return nil
}

func normalizeTrips(feedID string, t *rawTable, out *Tables) error {
	id := t.col("trip_id")
	route := t.col("route_id")
	dir := t.col("direction_id")
	service := t.col("service_id")
	headsign := t.col("trip_headsign")
	if id < 0 || route < 0 || service < 0 {
		return &SourceError{Feed: feedID, Table: "trips", Reason: "missing trip_id, route_id or service_id column"}
	}
	out.Trips = make([]Trip, 0, len(t.rows))
	for _, row := range t.rows {
		tr := Trip{
			FeedID:       feedID,
			TripID:       field(row, id),
			RouteID:      field(row, route),
			ServiceID:    field(row, service),
			TripHeadsign: nullString(field(row, headsign)),
		}
		var err error
		if tr.DirectionID, err = nullInt(field(row, dir)); err != nil {
			return &SourceError{Feed: feedID, Table: "trips", Reason: fmt.Sprintf("trip %s: direction_id: %v", tr.TripID, err)}
		}
		out.Trips = append(out.Trips, tr)
	}
	return nil
}

func normalizeCalendar(feedID string, t *rawTable, out *Tables) error {
	service := t.col("service_id")
	start := t.col("start_date")
	end := t.col("end_date")
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	dayCols := make([]int, len(days))
	for i, d := range days {
		dayCols[i] = t.col(d)
	}
	if service < 0 {
		return &SourceError{Feed: feedID, Table: "calendar", Reason: "missing service_id column"}
	}
	out.Calendar = make([]CalendarEntry, 0, len(t.rows))
	for _, row := range t.rows {
		e := CalendarEntry{
			FeedID:    feedID,
			ServiceID: field(row, service),
			StartDate: field(row, start),
			EndDate:   field(row, end),
		}
		flags := []*int{&e.Monday, &e.Tuesday, &e.Wednesday, &e.Thursday, &e.Friday, &e.Saturday, &e.Sunday}
		for i, col := range dayCols {
			v, err := parseDayFlag(field(row, col))
			if err != nil {
				return &SourceError{Feed: feedID, Table: "calendar", Reason: fmt.Sprintf("service %s: %s: %v", e.ServiceID, days[i], err)}
			}
			*flags[i] = v
		}
		out.Calendar = append(out.Calendar, e)
	}
	return nil
}

func normalizeStopTimes(feedID string, t *rawTable, out *Tables) error {
	trip := t.col("trip_id")
	stop := t.col("stop_id")
	seq := t.col("stop_sequence")
	arrival := t.col("arrival_time")
	if trip < 0 || stop < 0 || seq < 0 || arrival < 0 {
		return &SourceError{Feed: feedID, Table: "stop_times", Reason: "missing trip_id, stop_id, stop_sequence or arrival_time column"}
	}

	tripsByID := make(map[string]*Trip, len(out.Trips))
	for i := range out.Trips {
		tripsByID[out.Trips[i].TripID] = &out.Trips[i]
	}

	out.StopEvents = make([]StopEvent, 0, len(t.rows))
	for _, row := range t.rows {
		arr := field(row, arrival)
		if arr == "" {
			// non-timepoint row, nothing to count
			out.UntimedStopTimes++
			continue
		}
		tr, ok := tripsByID[field(row, trip)]
		if !ok {
			// a stop_time for a trip that does not exist could never be
			// scheduled; dropped but reported
			out.OrphanedStopTimes++
			continue
		}
		sec, err := gtfstime.ParseTimeOfDay(arr)
		if err != nil {
			return &SourceError{Feed: feedID, Table: "stop_times", Reason: fmt.Sprintf("trip %s: arrival_time: %v", tr.TripID, err)}
		}
		n, err := strconv.Atoi(field(row, seq))
		if err != nil {
			return &SourceError{Feed: feedID, Table: "stop_times", Reason: fmt.Sprintf("trip %s: stop_sequence: %v", tr.TripID, err)}
		}
		out.StopEvents = append(out.StopEvents, StopEvent{
			FeedID:       feedID,
			RouteID:      tr.RouteID,
			DirectionID:  tr.DirectionID,
			ServiceID:    tr.ServiceID,
			StopID:       field(row, stop),
			StopSequence: n,
			TripID:       tr.TripID,
			ArrivalSec:   sec,
		})
	}
	return nil
}

func nullString(s string) (n sql.NullString) {
	if s != "" {
		n.String, n.Valid = s, true
	}
	return n
}

func nullInt(s string) (sql.NullInt32, error) {
	if s == "" {
		return sql.NullInt32{}, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return sql.NullInt32{}, err
	}
	return sql.NullInt32{Int32: int32(v), Valid: true}, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

// parseDayFlag accepts strictly 0 or 1.
func parseDayFlag(s string) (int, error) {
	switch s {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, fmt.Errorf("day flag must be 0 or 1, got %q", s)
}
