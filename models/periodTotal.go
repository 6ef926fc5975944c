package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodTotal is a pure projection over DailyObservation rows for one
// reporting bucket. It is recomputed on every query and never persisted.
//
// The *Accumulated fields are running totals across the whole bucket series,
// restricted to days with data; BudgetFull alone covers the entire bucket
// including future days.
type PeriodTotal struct {
	Bucket      string    `json:"bucket"`
	BucketStart time.Time `json:"bucket_start"`

	BudgetFull decimal.Decimal `json:"budget_full"`

	BudgetAccumulated            decimal.Decimal `json:"budget_accumulated"`
	ActualAccumulated            decimal.Decimal `json:"actual_accumulated"`
	PriorYearAccumulated         decimal.Decimal `json:"prior_year_accumulated"`
	PriorYearAdjustedAccumulated decimal.Decimal `json:"prior_year_adjusted_accumulated"`

	// AttainmentPct and AttainmentVsPriorYearPct are nil when the comparable
	// denominator is zero. Displays render the nil as "—"; it must never leak
	// out as 0% or a non-finite number.
	AttainmentPct            *decimal.Decimal `json:"attainment_pct"`
	AttainmentVsPriorYearPct *decimal.Decimal `json:"attainment_vs_prior_year_pct"`

	// HasData is true iff at least one day of THIS bucket reported actuals
	// within the cutoff window.
	HasData bool `json:"has_data"`
}

// PeriodSummary is a small, query-friendly aggregate table used by dashboards.
//
// Grain: (chain_id, store_code, channel, kpi, year, month).
// NOTE: This table is derived data and can be rebuilt from daily_observations
// (see cmd/backfill-period-summary).
type PeriodSummary struct {
	ChainId   string `gorm:"primaryKey;size:64;index:idx_ps_chain_ym,priority:1" json:"chain_id"`
	StoreCode string `gorm:"primaryKey;size:10" json:"store_code"`
	Channel   string `gorm:"primaryKey;size:100" json:"channel"`
	Kpi       string `gorm:"primaryKey;size:50" json:"kpi"`
	Year      int    `gorm:"primaryKey;index:idx_ps_chain_ym,priority:2" json:"year"`
	Month     int    `gorm:"primaryKey;index:idx_ps_chain_ym,priority:3" json:"month"`

	BudgetFull        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"budget_full"`
	BudgetWithData    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"budget_with_data"`
	Actual            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual"`
	PriorYear         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"prior_year"`
	PriorYearAdjusted decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"prior_year_adjusted"`
	HasData           bool            `gorm:"default:false" json:"has_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
