package workflow

import (
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
)

// ResolvedEventDate is an EventDate joined with its catalog entry and the
// derived comparison fields the dashboards render.
type ResolvedEventDate struct {
	EventDate models.EventDate       `json:"event_date"`
	Event     models.AdjustmentEvent `json:"event"`

	// OffsetDays is ReferenceDate minus NominalDate in whole days. Zero means
	// the event needs no calendar shift this year.
	OffsetDays int `json:"offset_days"`
	// OffsetLabel is OffsetDays rendered signed: "+3", "-2", "0".
	OffsetLabel string `json:"offset_label"`
	// ReferenceLabel is the comparison day the dashboards print ("13/May/2025").
	ReferenceLabel string `json:"reference_label"`
}

// ResolveOffset returns the day shift from nominal to reference date.
// Date-only: wall-clock components and DST never influence the count.
func ResolveOffset(nominalDate, referenceDate time.Time) int {
	return utils.DaysBetween(nominalDate, referenceDate)
}

// ComparisonDate maps a current-year day to the prior-year day it should be
// compared against: the same calendar day one year back, shifted by the
// event's offset when the day carries one.
func ComparisonDate(day time.Time, offsetDays int) time.Time {
	return utils.DateOnly(day).AddDate(-1, 0, offsetDays)
}

// ResolveEventDates joins occurrences with their catalog entries and computes
// the offset for each, dropping occurrences whose event is missing from the
// catalog map.
func ResolveEventDates(dates []models.EventDate, catalog map[int]models.AdjustmentEvent) []ResolvedEventDate {
	resolved := make([]ResolvedEventDate, 0, len(dates))
	for _, d := range dates {
		event, ok := catalog[d.EventId]
		if !ok {
			continue
		}
		offset := ResolveOffset(d.NominalDate, d.ReferenceDate)
		resolved = append(resolved, ResolvedEventDate{
			EventDate:      d,
			Event:          event,
			OffsetDays:     offset,
			OffsetLabel:    utils.FormatSignedDays(offset),
			ReferenceLabel: utils.DateOnly(d.ReferenceDate).Format("02/Jan/2006"),
		})
	}
	return resolved
}

// MapEventsToRange filters resolved occurrences to nominal dates within
// [from, to] inclusive (date-only on both ends) and returns them ordered by
// nominal date, then event name for a stable tie-break.
func MapEventsToRange(resolved []ResolvedEventDate, from, to time.Time) []ResolvedEventDate {
	fromDay := utils.DateOnly(from)
	toDay := utils.DateOnly(to)

	inRange := make([]ResolvedEventDate, 0, len(resolved))
	for _, r := range resolved {
		day := utils.DateOnly(r.EventDate.NominalDate)
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		inRange = append(inRange, r)
	}

	sort.SliceStable(inRange, func(i, j int) bool {
		di := utils.DateOnly(inRange[i].EventDate.NominalDate)
		dj := utils.DateOnly(inRange[j].EventDate.NominalDate)
		if di.Equal(dj) {
			return inRange[i].Event.Name < inRange[j].Event.Name
		}
		return di.Before(dj)
	})
	return inRange
}

// OffsetIndex builds a day -> offset lookup from approved occurrences, keyed
// by nominal date (YYYY-MM-DD). Later entries win on collision, matching the
// most-recently-approved-occurrence rule.
func OffsetIndex(resolved []ResolvedEventDate) map[string]int {
	index := make(map[string]int, len(resolved))
	for _, r := range resolved {
		if r.EventDate.ApprovalState != models.ApprovalStateApproved {
			continue
		}
		key := utils.DateOnly(r.EventDate.NominalDate).Format("2006-01-02")
		index[key] = r.OffsetDays
	}
	return index
}
