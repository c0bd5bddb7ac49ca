package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/geo"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/query"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/store"
)

func main() {
	var (
		dataDir    = flag.String("data", "", "dataset directory (default $DATASET_DIR or ./parquet)")
		lon        = flag.Float64("lon", -73.9855, "site longitude")
		lat        = flag.Float64("lat", 40.7580, "site latitude")
		radius     = flag.Float64("radius", 250, "radius in projected units (feet for EPSG:2263)")
		start      = flag.String("start", "07:45", "window start (HH:MM or HH:MM:SS)")
		end        = flag.String("end", "08:45", "window end; before start means the window wraps midnight")
		day        = flag.String("day", "Weekday", "day type: Weekday, Saturday or Sunday")
		feeds      = flag.String("feeds", "", "comma-separated feed allow-list; empty means all feeds")
		sitesPath  = flag.String("sites", "", "yaml file with multiple sites; overrides -lon/-lat/-label")
		label      = flag.String("label", "Site 1", "site label for the single-site case")
		projection = flag.String("projection", "", "PROJ pipeline override (must match the one used at ingestion)")
	)
	flag.Parse()
	_ = godotenv.Load()

	if *dataDir == "" {
		*dataDir = os.Getenv("DATASET_DIR")
	}
	if *dataDir == "" {
		*dataDir = "parquet"
	}

	ctx := context.Background()

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("open dataset: %v", err)
	}
	defer st.Close()

	projector, err := geo.NewProjProjector(*projection)
	if err != nil {
		log.Fatalf("projection error: %v", err)
	}
	defer projector.Close()

	params := query.Params{
		RadiusFt: *radius,
		Start:    *start,
		End:      *end,
		DayType:  query.DayType(*day),
	}
	if *feeds != "" {
		for _, f := range strings.Split(*feeds, ",") {
			if f = strings.TrimSpace(f); f != "" {
				params.Feeds = append(params.Feeds, f)
			}
		}
	}

	batch := *sitesPath != ""
	var sites []query.Site
	if batch {
		sites, err = loadSites(*sitesPath)
		if err != nil {
			log.Fatalf("sites file: %v", err)
		}
	} else {
		sites = []query.Site{{Name: *label, Lat: *lat, Lon: *lon, RadiusFt: *radius}}
	}

	engine := query.New(st, projector)
	rows, err := engine.QuerySites(ctx, sites, params)
	if err != nil {
		log.Fatalf("query error: %v", err)
	}

	storeFeeds, err := st.Feeds(ctx)
	if err != nil {
		log.Fatalf("list feeds: %v", err)
	}
	multiFeed := len(params.Feeds) > 1 || (len(params.Feeds) == 0 && len(storeFeeds) > 1)

	if err := writeCSV(os.Stdout, rows, batch, multiFeed); err != nil {
		log.Fatalf("write csv: %v", err)
	}

	stops := make(map[string]bool)
	total := 0
	for _, r := range rows {
		stops[r.FeedID+"\x00"+r.StopID] = true
		total += r.BusesScheduled
	}
	fmt.Fprintf(os.Stderr, "stops found: %d | total buses: %d\n", len(stops), total)
}

func loadSites(path string) ([]query.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Sites []query.Site `yaml:"sites"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Sites) == 0 {
		return nil, fmt.Errorf("no sites in %s", path)
	}
	return doc.Sites, nil
}

func writeCSV(f *os.File, rows []query.SiteRow, withSite, withFeed bool) error {
	w := csv.NewWriter(f)
	header := []string{}
	if withSite {
		header = append(header, "site")
	}
	if withFeed {
		header = append(header, "feed_id")
	}
	header = append(header, "route_id", "direction_id", "stop_id", "stop_name", "stop_lat", "stop_lon", "buses_scheduled")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{}
		if withSite {
			rec = append(rec, r.Site)
		}
		if withFeed {
			rec = append(rec, r.FeedID)
		}
		dir := ""
		if r.DirectionID.Valid {
			dir = strconv.Itoa(int(r.DirectionID.Int32))
		}
		rec = append(rec,
			r.RouteID,
			dir,
			r.StopID,
			r.StopName,
			strconv.FormatFloat(r.StopLat, 'f', 6, 64),
			strconv.FormatFloat(r.StopLon, 'f', 6, 64),
			strconv.Itoa(r.BusesScheduled),
		)
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
