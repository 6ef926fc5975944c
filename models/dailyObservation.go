package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyObservation is one budget-vs-actual row as delivered by the upstream
// data feed.
//
// Grain: (chain_id, store_code, channel, kpi, observation_date).
// BudgetAmount is defined for every day of a period, including future days.
// The *DaysWithData columns are only nonzero for days where ActualAmount > 0;
// they let the aggregator build a like-for-like accumulated budget without
// re-deriving the rule per query.
//
// NOTE: This table is owned by the feed; the aggregator only reads it.
type DailyObservation struct {
	ChainId         string    `gorm:"primaryKey;size:64;index:idx_obs_chain_date,priority:1" json:"chain_id"`
	StoreCode       string    `gorm:"primaryKey;size:10" json:"store_code"`
	Channel         string    `gorm:"primaryKey;size:100" json:"channel"`
	Kpi             string    `gorm:"primaryKey;size:50" json:"kpi"`
	ObservationDate time.Time `gorm:"primaryKey;index:idx_obs_chain_date,priority:2" json:"observation_date"`

	BudgetAmount            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"budget_amount"`
	ActualAmount            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_amount"`
	PriorYearAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"prior_year_amount"`
	PriorYearAdjustedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"prior_year_adjusted_amount"`

	BudgetDaysWithDataAmount            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"budget_days_with_data_amount"`
	PriorYearDaysWithDataAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"prior_year_days_with_data_amount"`
	PriorYearAdjustedDaysWithDataAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"prior_year_adjusted_days_with_data_amount"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasReportedActual is the "days with data" membership rule. A day whose
// actual is exactly zero is treated as not-yet-reported; the feed populates
// the DaysWithData columns under the same rule.
func (o *DailyObservation) HasReportedActual() bool {
	return o.ActualAmount.GreaterThan(decimal.Zero)
}
