package domain

import (
	"encoding/json"
	"testing"
)

func TestMonthSeriesAverageAlwaysDividesByTwelve(t *testing.T) {
	var s MonthSeries
	s.Set(1, 6)
	s.Set(2, 6)

	if got := s.Total(); got != 12 {
		t.Fatalf("expected total 12, got %v", got)
	}
	// Two populated months still average over the full year.
	if got := s.Average(); got != 1 {
		t.Fatalf("expected average 1, got %v", got)
	}
}

func TestMonthSeriesSetClampsMonth(t *testing.T) {
	var s MonthSeries
	s.Set(0, 5)
	s.Set(13, 7)

	if s[0] != 5 {
		t.Fatalf("expected month 0 clamped to January, got %v", s[0])
	}
	if s[11] != 7 {
		t.Fatalf("expected month 13 clamped to December, got %v", s[11])
	}
}

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1,5", 1.5},
		{"2.25", 2.25},
		{" 3 ", 3},
		{"", 0},
		{"abc", 0},
		// Only the first comma becomes a decimal point; the numeric
		// prefix before the second comma wins.
		{"1,2,3", 1.2},
		{"0,75abc", 0.75},
		{",5", 0.5},
	}
	for _, c := range cases {
		if got := NormalizeNumber(c.raw); got != c.want {
			t.Fatalf("NormalizeNumber(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestNormalizeAbsenceCode(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"ms", "MS"},
		{" EZ ", "EZ"},
		{"kol", "KOL"},
		{"XY", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeAbsenceCode(c.raw); got != c.want {
			t.Fatalf("NormalizeAbsenceCode(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestFlexFloatUnmarshal(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`1.5`, 1.5},
		{`"1,5"`, 1.5},
		{`"2"`, 2},
		{`null`, 0},
		{`"n/a"`, 0},
		{`{"x":1}`, 0},
	}
	for _, c := range cases {
		var f FlexFloat
		if err := json.Unmarshal([]byte(c.raw), &f); err != nil {
			t.Fatalf("FlexFloat(%s) returned error: %v", c.raw, err)
		}
		if float64(f) != c.want {
			t.Fatalf("FlexFloat(%s) = %v, want %v", c.raw, float64(f), c.want)
		}
	}
}

func TestFlexIDRoutesStringUIDsToZero(t *testing.T) {
	var id FlexID
	if err := json.Unmarshal([]byte(`42`), &id); err != nil || id != 42 {
		t.Fatalf("expected numeric id 42, got %v (err %v)", id, err)
	}
	// Client-generated uids for fresh rows must not look like database ids.
	if err := json.Unmarshal([]byte(`"row-abc-123"`), &id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected string uid to decode to 0, got %v", id)
	}
	if err := json.Unmarshal([]byte(`3.7`), &id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected fractional number to decode to 0, got %v", id)
	}
}

func TestFlexIntUnmarshal(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{`7`, 7},
		{`"12"`, 12},
		{`null`, 0},
		{`"abc"`, 0},
	}
	for _, c := range cases {
		var f FlexInt
		if err := json.Unmarshal([]byte(c.raw), &f); err != nil {
			t.Fatalf("FlexInt(%s) returned error: %v", c.raw, err)
		}
		if int64(f) != c.want {
			t.Fatalf("FlexInt(%s) = %v, want %v", c.raw, int64(f), c.want)
		}
	}
}
