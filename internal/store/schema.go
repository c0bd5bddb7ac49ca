package store

// Column contracts for the five canonical tables. The DDL is the single
// source of truth for partition schemas: the writer creates these tables
// before copying to parquet, and the reader falls back to them when a table
// has no partitions yet.

type tableDef struct {
	name   string
	ddl    string
	insert string
}

var tableDefs = []tableDef{
	{
		name: "dim_stops",
		ddl: `CREATE TABLE dim_stops (
			feed_id VARCHAR NOT NULL,
			stop_id VARCHAR NOT NULL,
			stop_name VARCHAR,
			stop_desc VARCHAR,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			x DOUBLE NOT NULL,
			y DOUBLE NOT NULL,
			location_type VARCHAR,
			parent_station VARCHAR,
			zone_id VARCHAR
		)`,
		insert: `INSERT INTO dim_stops VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	},
	{
		name: "dim_trips",
		ddl: `CREATE TABLE dim_trips (
			feed_id VARCHAR NOT NULL,
			trip_id VARCHAR NOT NULL,
			route_id VARCHAR NOT NULL,
			direction_id INTEGER,
			service_id VARCHAR NOT NULL,
			trip_headsign VARCHAR
		)`,
		insert: `INSERT INTO dim_trips VALUES (?, ?, ?, ?, ?, ?)`,
	},
	{
		name: "dim_routes",
		ddl: `CREATE TABLE dim_routes (
			feed_id VARCHAR NOT NULL,
			route_id VARCHAR NOT NULL,
			agency_id VARCHAR,
			route_short_name VARCHAR,
			route_long_name VARCHAR,
			route_desc VARCHAR,
			route_type INTEGER,
			route_color VARCHAR,
			route_text_color VARCHAR
		)`,
		insert: `INSERT INTO dim_routes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	},
	{
		name: "calendar_base",
		ddl: `CREATE TABLE calendar_base (
			feed_id VARCHAR NOT NULL,
			service_id VARCHAR NOT NULL,
			monday INTEGER NOT NULL,
			tuesday INTEGER NOT NULL,
			wednesday INTEGER NOT NULL,
			thursday INTEGER NOT NULL,
			friday INTEGER NOT NULL,
			saturday INTEGER NOT NULL,
			sunday INTEGER NOT NULL,
			start_date VARCHAR,
			end_date VARCHAR
		)`,
		insert: `INSERT INTO calendar_base VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	},
	{
		name: "fact_stop_events",
		ddl: `CREATE TABLE fact_stop_events (
			feed_id VARCHAR NOT NULL,
			route_id VARCHAR NOT NULL,
			direction_id INTEGER,
			service_id VARCHAR NOT NULL,
			stop_id VARCHAR NOT NULL,
			stop_sequence INTEGER NOT NULL,
			trip_id VARCHAR NOT NULL,
			arrival_sec INTEGER NOT NULL
		)`,
		insert: `INSERT INTO fact_stop_events VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	},
}

// Tables lists the canonical table names in partition-directory order.
func Tables() []string {
	names := make([]string, len(tableDefs))
	for i, t := range tableDefs {
		names[i] = t.name
	}
	return names
}
