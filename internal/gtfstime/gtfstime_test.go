package gtfstime

import (
	"errors"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"morning with seconds", "08:00:00", 28800},
		{"missing seconds defaults to zero", "08:00", 28800},
		{"single digit hour", "7:45", 27900},
		{"past midnight", "25:30:00", 91800},
		{"midnight", "00:00:00", 0},
		{"end of day", "23:59:59", 86399},
		{"surrounding whitespace", " 06:15:30 ", 22530},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTimeOfDayMalformed(t *testing.T) {
	inputs := []string{
		"",
		"8",
		"08",
		"aa:bb",
		"08:xx:00",
		"08:00:zz",
		"08:61",
		"08:00:99",
		"-01:00",
		"08:00:00:00",
		"08::00",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTimeOfDay(in)
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q) succeeded, want error", in)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("ParseTimeOfDay(%q) error is %T, want *FormatError", in, err)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{0, "00:00:00"},
		{28800, "08:00:00"},
		{27900, "07:45:00"},
		{86399, "23:59:59"},
		{91800, "25:30:00"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.sec); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00:00", "07:45:00", "23:59:59", "25:30:00"} {
		sec, err := ParseTimeOfDay(s)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
		}
		if got := FormatSeconds(sec); got != s {
			t.Errorf("round trip %q -> %d -> %q", s, sec, got)
		}
	}
}
