package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/models"
)

func TestResolveOffset(t *testing.T) {
	cases := []struct {
		name      string
		nominal   time.Time
		reference time.Time
		want      int
	}{
		{"no shift", day(2025, time.May, 10), day(2025, time.May, 10), 0},
		{"forward", day(2025, time.May, 10), day(2025, time.May, 13), 3},
		{"backward", day(2025, time.May, 10), day(2025, time.May, 8), -2},
		{"across month boundary", day(2025, time.May, 31), day(2025, time.June, 2), 2},
		{"wall clock ignored", time.Date(2025, time.May, 10, 23, 30, 0, 0, time.UTC), time.Date(2025, time.May, 11, 0, 15, 0, 0, time.UTC), 1},
	}
	for _, tc := range cases {
		if got := ResolveOffset(tc.nominal, tc.reference); got != tc.want {
			t.Fatalf("%s: expected offset %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestComparisonDate_AppliesOffset(t *testing.T) {
	got := ComparisonDate(day(2025, time.April, 18), 3)
	want := day(2024, time.April, 21)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveEventDates_JoinsCatalogAndDropsOrphans(t *testing.T) {
	catalog := map[int]models.AdjustmentEvent{
		1: {ID: 1, Name: "Mother's Day"},
	}
	dates := []models.EventDate{
		{EventId: 1, NominalDate: day(2025, time.May, 10), ReferenceDate: day(2025, time.May, 12)},
		{EventId: 99, NominalDate: day(2025, time.May, 20), ReferenceDate: day(2025, time.May, 20)},
	}

	resolved := ResolveEventDates(dates, catalog)
	if len(resolved) != 1 {
		t.Fatalf("expected orphan occurrence dropped, got %d rows", len(resolved))
	}
	if resolved[0].OffsetDays != 2 {
		t.Fatalf("expected offset 2, got %d", resolved[0].OffsetDays)
	}
	if resolved[0].OffsetLabel != "+2" {
		t.Fatalf("expected label +2, got %s", resolved[0].OffsetLabel)
	}
	if resolved[0].ReferenceLabel != "12/May/2025" {
		t.Fatalf("expected reference label 12/May/2025, got %s", resolved[0].ReferenceLabel)
	}
}

func TestMapEventsToRange_InclusiveAndOrdered(t *testing.T) {
	mk := func(name string, nominal time.Time) ResolvedEventDate {
		return ResolvedEventDate{
			EventDate: models.EventDate{NominalDate: nominal},
			Event:     models.AdjustmentEvent{Name: name},
		}
	}
	resolved := []ResolvedEventDate{
		mk("outside before", day(2025, time.April, 30)),
		mk("last day", day(2025, time.May, 31)),
		mk("first day", day(2025, time.May, 1)),
		mk("outside after", day(2025, time.June, 1)),
		mk("mid", day(2025, time.May, 15)),
	}

	got := MapEventsToRange(resolved, day(2025, time.May, 1), day(2025, time.May, 31))
	if len(got) != 3 {
		t.Fatalf("expected 3 rows in range, got %d", len(got))
	}
	wantOrder := []string{"first day", "mid", "last day"}
	for i, name := range wantOrder {
		if got[i].Event.Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, got[i].Event.Name)
		}
	}
}

func TestOffsetIndex_OnlyApprovedEntries(t *testing.T) {
	resolved := []ResolvedEventDate{
		{
			EventDate: models.EventDate{
				NominalDate:   day(2025, time.May, 10),
				ApprovalState: models.ApprovalStateApproved,
			},
			OffsetDays: 3,
		},
		{
			EventDate: models.EventDate{
				NominalDate:   day(2025, time.May, 11),
				ApprovalState: models.ApprovalStatePending,
			},
			OffsetDays: 5,
		},
	}

	index := OffsetIndex(resolved)
	if len(index) != 1 {
		t.Fatalf("expected only approved entries indexed, got %d", len(index))
	}
	if index["2025-05-10"] != 3 {
		t.Fatalf("expected offset 3 for 2025-05-10, got %d", index["2025-05-10"])
	}
}
