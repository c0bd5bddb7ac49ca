package feed

import "database/sql"

// Canonical star-schema rows. Every row carries the feed identifier because
// raw GTFS identifiers are only unique within one feed. Optional source
// columns that a provider omits are carried as SQL nulls so that every
// partition presents the same column set.

type Stop struct {
	FeedID        string
	StopID        string
	StopName      sql.NullString
	StopDesc      sql.NullString
	Lat           float64
	Lon           float64
	X             float64 // planar, derived from Lat/Lon by the projector
	Y             float64
	LocationType  sql.NullString
	ParentStation sql.NullString
	ZoneID        sql.NullString
}

type Route struct {
	FeedID         string
	RouteID        string
	AgencyID       sql.NullString
	RouteShortName sql.NullString
	RouteLongName  sql.NullString
	RouteDesc      sql.NullString
	RouteType      sql.NullInt32
	RouteColor     sql.NullString
	RouteTextColor sql.NullString
}

type Trip struct {
	FeedID       string
	TripID       string
	RouteID      string
	DirectionID  sql.NullInt32
	ServiceID    string
	TripHeadsign sql.NullString
}

type CalendarEntry struct {
	FeedID    string
	ServiceID string
	Monday    int
	Tuesday   int
	Wednesday int
	Thursday  int
	Friday    int
	Saturday  int
	Sunday    int
	StartDate string
	EndDate   string
}

// StopEvent is one scheduled visit of one trip to one stop. ArrivalSec may
// exceed 86400 for post-midnight trips.
type StopEvent struct {
	FeedID       string
	RouteID      string
	DirectionID  sql.NullInt32
	ServiceID    string
	StopID       string
	StopSequence int
	TripID       string
	ArrivalSec   int
}

// Tables is the full normalized output for one feed, plus data-quality
// counters for stop_time rows that could not become stop events.
type Tables struct {
	FeedID     string
	Stops      []Stop
	Routes     []Route
	Trips      []Trip
	Calendar   []CalendarEntry
	StopEvents []StopEvent

	// OrphanedStopTimes counts stop_time rows whose trip_id had no matching
	// trip; UntimedStopTimes counts rows with an empty arrival_time. Both
	// are dropped from the fact table but reported so malformed feeds do
	// not silently undercount.
	OrphanedStopTimes int
	UntimedStopTimes  int
}
