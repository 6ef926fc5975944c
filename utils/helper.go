package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DefaultTimezone is used when a chain has no timezone configured.
var DefaultTimezone = "America/Costa_Rica"

// ConvertToDate truncates t to a date-only value in the given timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)

	dateOnly := time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location)
	return dateOnly, nil
}

// DateOnly truncates t to midnight in its own location. Daily observation and
// event dates carry no hour-of-day semantics; comparisons must go through here
// so a row stamped 23:59 on the cutoff day is still included.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole-day difference b - a after date-only
// truncation. Positive when b is later than a.
func DaysBetween(a, b time.Time) int {
	da := DateOnly(a).UTC()
	db := DateOnly(b).UTC()
	// Re-anchor both at UTC midnight so DST transitions cannot skew the division.
	da = time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	db = time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// MonthsBetweenInclusive walks first-of-month values from start's month to
// end's month.
func MonthsBetweenInclusive(start, end time.Time) []time.Time {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// ParseDateString parses YYYY-MM-DD into a UTC date-only value.
func ParseDateString(dateString string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(dateString))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return dec, nil
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T) T {
	var zero T
	if ptr == nil {
		return zero
	}
	return *ptr
}

func UniqueSlice[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// FormatSignedDays renders a day offset as "+3" / "-2" / "0".
func FormatSignedDays(days int) string {
	if days > 0 {
		return fmt.Sprintf("+%d", days)
	}
	return fmt.Sprintf("%d", days)
}
