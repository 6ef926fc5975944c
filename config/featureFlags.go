package config

import (
	"os"
	"strings"
)

// DefaultYearComparisonAdjusted selects the weekday-aligned prior-year base
// ("Año Anterior Ajustado") as the default comparison when the caller does not
// pick a mode.
//
// Set via env:
// - YEAR_COMPARISON_ADJUSTED=true
func DefaultYearComparisonAdjusted() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("YEAR_COMPARISON_ADJUSTED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictEventDateScope rejects event dates that carry neither a store-group nor
// a single-store scope. Default behavior accepts the unscoped row (= all stores).
//
// Set via env:
// - STRICT_EVENT_DATE_SCOPE=true
func StrictEventDateScope() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_EVENT_DATE_SCOPE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
