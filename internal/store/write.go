package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/feed"
)

// ReplaceFeed persists one feed's five canonical tables, replacing any
// prior partition for that feed. All five parquet files are staged in a
// temp directory first and only then renamed into place, so a crash
// mid-write never leaves a feed half-updated. Returns row counts per table.
func ReplaceFeed(root, feedID string, t *feed.Tables) (map[string]int, error) {
	if strings.ContainsAny(feedID, `/\`) || feedID == "" || strings.HasPrefix(feedID, ".") {
		return nil, fmt.Errorf("feed id %q is not a valid partition name", feedID)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	counts, err := loadTables(db, t)
	if err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(root, ".staging-"+feedID+"-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, def := range tableDefs {
		dst := filepath.Join(staging, def.name+".parquet")
		q := fmt.Sprintf("COPY %s TO '%s' (FORMAT PARQUET, COMPRESSION ZSTD)", def.name, sqlPath(dst))
		if _, err := db.Exec(q); err != nil {
			return nil, fmt.Errorf("write %s partition: %w", def.name, err)
		}
	}
	for _, def := range tableDefs {
		dir := filepath.Join(root, def.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create partition dir %s: %w", def.name, err)
		}
		if err := os.Rename(filepath.Join(staging, def.name+".parquet"), filepath.Join(dir, feedID+".parquet")); err != nil {
			return nil, fmt.Errorf("install %s partition: %w", def.name, err)
		}
	}
	return counts, nil
}

func loadTables(db *sql.DB, t *feed.Tables) (map[string]int, error) {
	for _, def := range tableDefs {
		if _, err := db.Exec(def.ddl); err != nil {
			return nil, fmt.Errorf("create %s: %w", def.name, err)
		}
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	counts := make(map[string]int, len(tableDefs))
	ins := func(table string, rows [][]any) error {
		stmt, err := tx.Prepare(insertFor(table))
		if err != nil {
			return fmt.Errorf("prepare %s insert: %w", table, err)
		}
		defer stmt.Close()
		for _, args := range rows {
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		counts[table] = len(rows)
		return nil
	}

	stops := make([][]any, len(t.Stops))
	for i, s := range t.Stops {
		stops[i] = []any{s.FeedID, s.StopID, s.StopName, s.StopDesc, s.Lat, s.Lon, s.X, s.Y, s.LocationType, s.ParentStation, s.ZoneID}
	}
	trips := make([][]any, len(t.Trips))
	for i, tr := range t.Trips {
		trips[i] = []any{tr.FeedID, tr.TripID, tr.RouteID, tr.DirectionID, tr.ServiceID, tr.TripHeadsign}
	}
	routes := make([][]any, len(t.Routes))
	for i, r := range t.Routes {
		routes[i] = []any{r.FeedID, r.RouteID, r.AgencyID, r.RouteShortName, r.RouteLongName, r.RouteDesc, r.RouteType, r.RouteColor, r.RouteTextColor}
	}
	cal := make([][]any, len(t.Calendar))
	for i, c := range t.Calendar {
		cal[i] = []any{c.FeedID, c.ServiceID, c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday, c.StartDate, c.EndDate}
	}
	events := make([][]any, len(t.StopEvents))
	for i, e := range t.StopEvents {
		events[i] = []any{e.FeedID, e.RouteID, e.DirectionID, e.ServiceID, e.StopID, e.StopSequence, e.TripID, e.ArrivalSec}
	}

	if err := ins("dim_stops", stops); err != nil {
		return nil, err
	}
	if err := ins("dim_trips", trips); err != nil {
		return nil, err
	}
	if err := ins("dim_routes", routes); err != nil {
		return nil, err
	}
	if err := ins("calendar_base", cal); err != nil {
		return nil, err
	}
	if err := ins("fact_stop_events", events); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return counts, nil
}

func insertFor(table string) string {
	for _, def := range tableDefs {
		if def.name == table {
			return def.insert
		}
	}
	panic("unknown table " + table)
}

// sqlPath escapes a filesystem path for embedding in a DuckDB string
// literal. Paths come from config, never from feed data.
func sqlPath(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "'", "''")
}
