// Package gtfstime converts GTFS wall-clock time-of-day strings to integer
// seconds since the start of the service day. Hours may exceed 23 to express
// trips that run past midnight ("25:30:00" is 1:30 AM on the next calendar
// day of the same service day).
package gtfstime

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a time-of-day string that could not be parsed.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad time of day %q: %s", e.Input, e.Reason)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into seconds since the start
// of the service day. The seconds field defaults to 0 when absent.
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, &FormatError{Input: s, Reason: "want HH:MM or HH:MM:SS"}
	}
	h, err := parseField(parts[0])
	if err != nil {
		return 0, &FormatError{Input: s, Reason: "hours: " + err.Error()}
	}
	m, err := parseField(parts[1])
	if err != nil {
		return 0, &FormatError{Input: s, Reason: "minutes: " + err.Error()}
	}
	if m > 59 {
		return 0, &FormatError{Input: s, Reason: "minutes out of range"}
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = parseField(parts[2])
		if err != nil {
			return 0, &FormatError{Input: s, Reason: "seconds: " + err.Error()}
		}
		if sec > 59 {
			return 0, &FormatError{Input: s, Reason: "seconds out of range"}
		}
	}
	return h*3600 + m*60 + sec, nil
}

// FormatSeconds renders seconds since service-day start as canonical
// HH:MM:SS. Hours at or beyond 24 are kept as-is rather than folded back,
// so 91800 formats as "25:30:00".
func FormatSeconds(sec int) string {
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}

func parseField(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric field %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}
