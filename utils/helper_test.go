package utils

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC), 3},
		{time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), -2},
		{time.Date(2025, 5, 10, 23, 59, 0, 0, time.UTC), time.Date(2025, 5, 11, 0, 1, 0, 0, time.UTC), 1},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1},
	}
	for _, tc := range cases {
		if got := DaysBetween(tc.a, tc.b); got != tc.want {
			t.Fatalf("DaysBetween(%s, %s): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestDateOnly_KeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Costa_Rica")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	in := time.Date(2025, 5, 15, 17, 45, 3, 0, loc)
	got := DateOnly(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Location() != loc {
		t.Fatalf("expected midnight in original location, got %s", got)
	}
}

func TestFormatSignedDays(t *testing.T) {
	if got := FormatSignedDays(3); got != "+3" {
		t.Fatalf("expected +3, got %s", got)
	}
	if got := FormatSignedDays(-2); got != "-2" {
		t.Fatalf("expected -2, got %s", got)
	}
	if got := FormatSignedDays(0); got != "0" {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestMonthsBetweenInclusive(t *testing.T) {
	months := MonthsBetweenInclusive(
		time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	)
	if len(months) != 4 {
		t.Fatalf("expected 4 months, got %d", len(months))
	}
	if months[0].Month() != time.November || months[3].Month() != time.February {
		t.Fatalf("unexpected month range: %v", months)
	}
}
