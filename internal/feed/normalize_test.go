package feed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/testfeed"
)

func normalizeZip(t *testing.T, feedID string, zipBytes []byte) (*Tables, error) {
	t.Helper()
	b, err := ReadBundle(feedID, zipBytes)
	if err != nil {
		return nil, err
	}
	return Normalize(feedID, b, testfeed.PlanarProjector{})
}

func TestNormalizeBasicFeed(t *testing.T) {
	tables, err := normalizeZip(t, "mta", testfeed.Basic("100", "200").Zip())
	require.NoError(t, err)

	require.Len(t, tables.Stops, 1)
	s := tables.Stops[0]
	assert.Equal(t, "mta", s.FeedID)
	assert.Equal(t, "101", s.StopID)
	assert.Equal(t, "MAIN ST/1 AV", s.StopName.String)
	assert.Equal(t, 100.0, s.Lon)
	assert.Equal(t, 200.0, s.Lat)
	assert.Equal(t, 100.0, s.X)
	assert.Equal(t, 200.0, s.Y)
	assert.False(t, s.StopDesc.Valid, "absent stop_desc column must become null")
	assert.False(t, s.ZoneID.Valid)

	require.Len(t, tables.Routes, 1)
	assert.Equal(t, "B1", tables.Routes[0].RouteID)
	assert.Equal(t, int32(3), tables.Routes[0].RouteType.Int32)
	assert.False(t, tables.Routes[0].RouteDesc.Valid)

	require.Len(t, tables.Trips, 1)
	assert.Equal(t, "WKD", tables.Trips[0].ServiceID)
	assert.Equal(t, int32(0), tables.Trips[0].DirectionID.Int32)
	assert.True(t, tables.Trips[0].DirectionID.Valid)

	require.Len(t, tables.Calendar, 1)
	assert.Equal(t, 1, tables.Calendar[0].Monday)
	assert.Equal(t, 0, tables.Calendar[0].Saturday)

	require.Len(t, tables.StopEvents, 1)
	e := tables.StopEvents[0]
	assert.Equal(t, "mta", e.FeedID)
	assert.Equal(t, "B1", e.RouteID)
	assert.Equal(t, "WKD", e.ServiceID)
	assert.Equal(t, 28800, e.ArrivalSec)
	assert.Equal(t, 1, e.StopSequence)
	assert.Zero(t, tables.OrphanedStopTimes)
	assert.Zero(t, tables.UntimedStopTimes)
}

func TestNormalizeColumnOrderIndependent(t *testing.T) {
	// Same feed with shuffled header order and an extra unknown column.
	zip := testfeed.Basic("1", "2").
		File("stops.txt",
			"stop_lon,stop_id,wheelchair_boarding,stop_name,stop_lat",
			"1,101,0,MAIN ST,2").
		Zip()
	tables, err := normalizeZip(t, "mta", zip)
	require.NoError(t, err)
	require.Len(t, tables.Stops, 1)
	assert.Equal(t, "101", tables.Stops[0].StopID)
	assert.Equal(t, "MAIN ST", tables.Stops[0].StopName.String)
	assert.Equal(t, 1.0, tables.Stops[0].Lon)
	assert.Equal(t, 2.0, tables.Stops[0].Lat)
}

func TestNormalizeMissingRequiredTable(t *testing.T) {
	zip := testfeed.New().
		File("routes.txt", "route_id", "B1").
		File("trips.txt", "route_id,service_id,trip_id", "B1,WKD,T1").
		File("stops.txt", "stop_id,stop_lat,stop_lon", "101,1,2").
		File("stop_times.txt", "trip_id,arrival_time,stop_id,stop_sequence", "T1,08:00:00,101,1").
		Zip()
	_, err := ReadBundle("mta", zip)
	require.Error(t, err)
	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "calendar", se.Table)
}

func TestNormalizeOrphanStopTimesDroppedAndCounted(t *testing.T) {
	zip := testfeed.Basic("1", "2").
		File("stop_times.txt",
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,08:00:00,08:00:00,101,1",
			"GHOST,09:00:00,09:00:00,101,1").
		Zip()
	tables, err := normalizeZip(t, "mta", zip)
	require.NoError(t, err)
	assert.Len(t, tables.StopEvents, 1)
	assert.Equal(t, 1, tables.OrphanedStopTimes)
}

func TestNormalizeUntimedStopTimesSkipped(t *testing.T) {
	zip := testfeed.Basic("1", "2").
		File("stop_times.txt",
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,08:00:00,08:00:00,101,1",
			"T1,,,102,2").
		Zip()
	tables, err := normalizeZip(t, "mta", zip)
	require.NoError(t, err)
	assert.Len(t, tables.StopEvents, 1)
	assert.Equal(t, 1, tables.UntimedStopTimes)
}

func TestNormalizeCalendarFlagStrict(t *testing.T) {
	zip := testfeed.Basic("1", "2").
		File("calendar.txt",
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WKD,2,1,1,1,1,0,0,20250101,20261231").
		Zip()
	_, err := normalizeZip(t, "mta", zip)
	require.Error(t, err)
	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "calendar", se.Table)
}

func TestNormalizePastMidnightArrival(t *testing.T) {
	zip := testfeed.Basic("1", "2").
		File("stop_times.txt",
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,25:30:00,25:30:00,101,1").
		Zip()
	tables, err := normalizeZip(t, "mta", zip)
	require.NoError(t, err)
	require.Len(t, tables.StopEvents, 1)
	assert.Equal(t, 91800, tables.StopEvents[0].ArrivalSec)
}

func TestReadBundleNotAZip(t *testing.T) {
	_, err := ReadBundle("mta", []byte("not a zip"))
	var se *SourceError
	require.True(t, errors.As(err, &se))
}
