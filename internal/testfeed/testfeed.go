// Package testfeed builds in-memory GTFS zip bundles and provides a flat
// planar projector so tests can reason about distances exactly.
package testfeed

import (
	"archive/zip"
	"bytes"
	"strings"
)

// Builder accumulates GTFS text files and zips them.
type Builder struct {
	files map[string][]string
}

func New() *Builder {
	return &Builder{files: make(map[string][]string)}
}

// File sets a table's CSV content: header first, then rows.
func (b *Builder) File(name string, lines ...string) *Builder {
	b.files[name] = lines
	return b
}

// Zip renders the accumulated files as a zip bundle.
func (b *Builder) Zip() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, lines := range b.files {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Basic returns a minimal weekday feed: route B1, direction 0, one trip
// with a single stop event at 08:00:00 at a stop placed on the given
// lon/lat (interpreted as planar coordinates under PlanarProjector).
func Basic(lon, lat string) *Builder {
	return New().
		File("routes.txt",
			"route_id,agency_id,route_short_name,route_long_name,route_type",
			"B1,MTA,B1,First Avenue,3").
		File("trips.txt",
			"route_id,service_id,trip_id,trip_headsign,direction_id",
			"B1,WKD,T1,Downtown,0").
		File("stops.txt",
			"stop_id,stop_name,stop_lat,stop_lon",
			"101,MAIN ST/1 AV,"+lat+","+lon).
		File("stop_times.txt",
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,08:00:00,08:00:00,101,1").
		File("calendar.txt",
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WKD,1,1,1,1,1,0,0,20250101,20261231")
}

// PlanarProjector treats lon/lat as already-planar coordinates scaled by
// Scale. With Scale 1 a "longitude" of 250 projects to x=250, which makes
// radius boundary cases exact in tests.
type PlanarProjector struct {
	Scale float64
}

func (p PlanarProjector) Project(lon, lat float64) (float64, float64, error) {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	return lon * s, lat * s, nil
}
