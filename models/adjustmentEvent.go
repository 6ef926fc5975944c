package models

import (
	"time"
)

// AdjustmentEvent is one entry of the calendar-event catalog (e.g. "Mother's
// Day"). Long-lived, edited rarely; concrete occurrences live in EventDate.
type AdjustmentEvent struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	ChainId string `gorm:"size:64;index" json:"chain_id"`
	Name    string `gorm:"size:200" json:"name"`

	IsHoliday    bool `gorm:"default:false" json:"is_holiday"`
	UsedInBudget bool `gorm:"default:false" json:"used_in_budget"`
	IsInternal   bool `gorm:"default:false" json:"is_internal"`

	// DisplayOrder drives catalog listing; assigned max+1 on create and
	// rewritten in bulk by the reorder operation.
	DisplayOrder int `gorm:"default:0" json:"display_order"`

	EventDates []EventDate `gorm:"foreignKey:EventId" json:"event_dates,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
