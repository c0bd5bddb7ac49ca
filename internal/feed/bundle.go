package feed

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strings"
)

// Required raw tables. calendar_dates is read when present but nothing
// downstream consumes it yet (calendar exceptions are out of scope).
var requiredTables = []string{"routes", "trips", "stops", "stop_times", "calendar"}

// Bundle holds one feed's raw tables as parsed CSV, column order preserved.
type Bundle struct {
	tables map[string]*rawTable
}

type rawTable struct {
	name   string
	header []string
	rows   [][]string
}

// col returns the index of the named column, or -1. Header lookups are
// case-insensitive because feed providers disagree on casing.
func (t *rawTable) col(name string) int {
	for i, h := range t.header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// field returns row[i] or "" when the column is absent or the row is short.
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadBundle decodes a GTFS zip into its raw tables. Nested directory
// prefixes inside the zip are ignored; only the base file name matters.
func ReadBundle(feedID string, zipBytes []byte) (*Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, &SourceError{Feed: feedID, Reason: fmt.Sprintf("not a zip bundle: %v", err)}
	}
	b := &Bundle{tables: make(map[string]*rawTable)}
	for _, f := range zr.File {
		name := strings.ToLower(path.Base(f.Name))
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		table := strings.TrimSuffix(name, ".txt")
		if !knownTable(table) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &SourceError{Feed: feedID, Table: table, Reason: fmt.Sprintf("open: %v", err)}
		}
		csvr := csv.NewReader(rc)
		csvr.FieldsPerRecord = -1 // providers pad rows inconsistently
		rec, err := csvr.ReadAll()
		rc.Close()
		if err != nil {
			return nil, &SourceError{Feed: feedID, Table: table, Reason: fmt.Sprintf("csv: %v", err)}
		}
		if len(rec) == 0 {
			continue
		}
		header := rec[0]
		if len(header) > 0 {
			header[0] = strings.TrimPrefix(header[0], "\uFEFF")
		}
		b.tables[table] = &rawTable{name: table, header: header, rows: rec[1:]}
	}
	for _, req := range requiredTables {
		if _, ok := b.tables[req]; !ok {
			return nil, &SourceError{Feed: feedID, Table: req, Reason: "required table missing from bundle"}
		}
	}
	return b, nil
}

func knownTable(name string) bool {
	switch name {
	case "routes", "trips", "stops", "stop_times", "calendar", "calendar_dates":
		return true
	}
	return false
}
