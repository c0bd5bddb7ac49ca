// Package query answers "how many scheduled buses pass within a radius of a
// point, by route and direction, within a time window" against the dataset
// store. Each call is stateless; the store handle is constructed by the
// caller and may be shared across concurrent invocations.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/geo"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/gtfstime"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/store"
)

// DayType selects which service calendars are active.
type DayType string

const (
	Weekday  DayType = "Weekday"
	Saturday DayType = "Saturday"
	Sunday   DayType = "Sunday"
)

// Params is one site query. Start and End are "HH:MM" or "HH:MM:SS"; a
// window whose end is numerically before its start wraps across midnight.
// An empty Feeds list means all feeds, not no feeds.
type Params struct {
	Lon      float64
	Lat      float64
	RadiusFt float64
	Start    string
	End      string
	DayType  DayType
	Feeds    []string
}

// Row is one (feed, route, direction, stop) group with its scheduled-bus
// count. DirectionID is null when the feed omits direction_id.
type Row struct {
	FeedID         string
	RouteID        string
	DirectionID    sql.NullInt32
	StopID         string
	StopName       string
	StopLat        float64
	StopLon        float64
	BusesScheduled int
}

// Site is one labeled query point for batch evaluation.
type Site struct {
	Name     string  `yaml:"name"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	RadiusFt float64 `yaml:"radius_ft"`
}

// SiteRow is a Row tagged with the site label it was computed for.
type SiteRow struct {
	Site string
	Row
}

type Engine struct {
	store *store.Store
	proj  geo.Projector
}

func New(st *store.Store, p geo.Projector) *Engine {
	return &Engine{store: st, proj: p}
}

// Query runs one site. All joins are keyed by feed_id in addition to the
// raw GTFS identifiers, since those are only unique within a feed.
func (e *Engine) Query(ctx context.Context, p Params) ([]Row, error) {
	dayPred, err := dayTypePredicate(p.DayType)
	if err != nil {
		return nil, err
	}
	if p.RadiusFt <= 0 {
		return nil, &ConfigError{Field: "radius", Reason: fmt.Sprintf("must be positive, got %g", p.RadiusFt)}
	}
	startSec, err := gtfstime.ParseTimeOfDay(p.Start)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	endSec, err := gtfstime.ParseTimeOfDay(p.End)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}

	x0, y0, err := e.proj.Project(p.Lon, p.Lat)
	if err != nil {
		return nil, &QueryError{Op: "project site", Err: err}
	}

	windowPred, windowArgs := windowPredicate(startSec, endSec)
	svcFeed, svcArgs := feedPredicate("feed_id", p.Feeds)
	stopFeed, stopArgs := feedPredicate("feed_id", p.Feeds)
	factFeed, factArgs := feedPredicate("f.feed_id", p.Feeds)

	q := `
WITH svcs AS (
    SELECT DISTINCT feed_id, service_id
    FROM calendar_base
    WHERE ` + dayPred + svcFeed + `
),
near_stops AS (
    SELECT feed_id, stop_id, stop_name, lat, lon
    FROM dim_stops
    WHERE (x - ?) * (x - ?) + (y - ?) * (y - ?) <= ? * ?` + stopFeed + `
)
SELECT
    f.feed_id,
    r.route_id,
    t.direction_id,
    s.stop_id,
    COALESCE(s.stop_name, '') AS stop_name,
    s.lat,
    s.lon,
    COUNT(*) AS buses_scheduled
FROM fact_stop_events f
JOIN dim_trips  t ON t.feed_id = f.feed_id AND t.trip_id = f.trip_id
JOIN dim_routes r ON r.feed_id = t.feed_id AND r.route_id = t.route_id
JOIN svcs       v ON v.feed_id = f.feed_id AND v.service_id = f.service_id
JOIN near_stops s ON s.feed_id = f.feed_id AND s.stop_id = f.stop_id
WHERE ` + windowPred + factFeed + `
GROUP BY f.feed_id, r.route_id, t.direction_id, s.stop_id, s.stop_name, s.lat, s.lon
ORDER BY s.stop_name, f.feed_id, r.route_id, t.direction_id`

	args := make([]any, 0, 8+len(svcArgs)+len(stopArgs)+len(factArgs))
	args = append(args, svcArgs...)
	args = append(args, x0, x0, y0, y0, p.RadiusFt, p.RadiusFt)
	args = append(args, stopArgs...)
	args = append(args, windowArgs...)
	args = append(args, factArgs...)

	rows, err := e.store.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &QueryError{Op: "stop events", Err: err}
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.FeedID, &r.RouteID, &r.DirectionID, &r.StopID, &r.StopName, &r.StopLat, &r.StopLon, &r.BusesScheduled); err != nil {
			return nil, &QueryError{Op: "scan", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "stop events", Err: err}
	}
	return out, nil
}

// QuerySites evaluates the sites concurrently and concatenates results in
// site order, prepending each site's label. Stops inside two overlapping
// radii appear once per site.
func (e *Engine) QuerySites(ctx context.Context, sites []Site, base Params) ([]SiteRow, error) {
	results := make([][]Row, len(sites))
	errs := make([]error, len(sites))

	var wg sync.WaitGroup
	for i, site := range sites {
		wg.Add(1)
		go func(i int, site Site) {
			defer wg.Done()
			p := base
			p.Lat, p.Lon = site.Lat, site.Lon
			if site.RadiusFt > 0 {
				p.RadiusFt = site.RadiusFt
			}
			results[i], errs[i] = e.Query(ctx, p)
		}(i, site)
	}
	wg.Wait()

	var out []SiteRow
	for i, rows := range results {
		if errs[i] != nil {
			return nil, fmt.Errorf("site %q: %w", sites[i].Name, errs[i])
		}
		for _, r := range rows {
			out = append(out, SiteRow{Site: sites[i].Name, Row: r})
		}
	}
	return out, nil
}

// dayTypePredicate resolves a day type to its calendar flag disjunction.
// Weekday means any of Monday through Friday.
func dayTypePredicate(d DayType) (string, error) {
	switch d {
	case Weekday:
		return "(monday = 1 OR tuesday = 1 OR wednesday = 1 OR thursday = 1 OR friday = 1)", nil
	case Saturday:
		return "saturday = 1", nil
	case Sunday:
		return "sunday = 1", nil
	}
	return "", &ConfigError{Field: "day_type", Reason: fmt.Sprintf("must be Weekday, Saturday or Sunday, got %q", string(d))}
}

// windowPredicate builds the inclusive arrival window. When end < start the
// window crosses midnight and matches the union of the tail of the day and
// the head of the next; the interpretation is fixed by the comparison, never
// guessed.
func windowPredicate(startSec, endSec int) (string, []any) {
	if endSec >= startSec {
		return "f.arrival_sec BETWEEN ? AND ?", []any{startSec, endSec}
	}
	return "(f.arrival_sec >= ? OR f.arrival_sec <= ?)", []any{startSec, endSec}
}

// feedPredicate renders the optional feed allow-list as an AND clause.
// An empty list is the "no restriction" sentinel and yields no clause.
func feedPredicate(col string, feeds []string) (string, []any) {
	if len(feeds) == 0 {
		return "", nil
	}
	args := make([]any, len(feeds))
	for i, f := range feeds {
		args[i] = f
	}
	return fmt.Sprintf(" AND %s IN (%s)", col, placeholders(len(feeds))), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
