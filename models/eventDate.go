package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EventDate is one concrete occurrence of an AdjustmentEvent: the day the
// event falls on this year (NominalDate) and the day it should be compared
// against across years (ReferenceDate). ReferenceDate equals NominalDate when
// no calendar shift is needed.
//
// Scope: at most one of StoreGroupId / StoreCode may be set; neither set means
// the adjustment applies chain-wide.
type EventDate struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	ChainId string `gorm:"size:64;index:idx_ed_chain_nominal,priority:1" json:"chain_id"`
	EventId int    `gorm:"index" json:"event_id"`

	NominalDate   time.Time `gorm:"index:idx_ed_chain_nominal,priority:2" json:"nominal_date"`
	ReferenceDate time.Time `json:"reference_date"`

	Channel      string  `gorm:"size:100;default:All" json:"channel"`
	StoreGroupId *int    `json:"store_group_id"`
	StoreCode    *string `gorm:"size:10" json:"store_code"`

	ApprovalState   ApprovalState `gorm:"size:20;default:Pending" json:"approval_state"`
	RejectionReason string        `gorm:"type:text" json:"rejection_reason"`

	CreatedBy  string `gorm:"size:200" json:"created_by"`
	UpdatedBy  string `gorm:"size:200" json:"updated_by"`
	ApprovedBy string `gorm:"size:200" json:"approved_by"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

var ErrConflictingScope = errors.New("event date cannot carry both a store-group and a single-store scope")

// BeforeSave enforces the scope invariant at the persistence boundary as well,
// so a bad row cannot slip in through code paths that bypass the workflow.
func (e *EventDate) BeforeSave(tx *gorm.DB) error {
	if e.StoreGroupId != nil && e.StoreCode != nil {
		return ErrConflictingScope
	}
	if e.ReferenceDate.IsZero() {
		e.ReferenceDate = e.NominalDate
	}
	if e.Channel == "" {
		e.Channel = ChannelAll
	}
	return nil
}

// ScopeKey renders the scope part of the row's composite identity.
func (e *EventDate) ScopeKey() string {
	if e.StoreGroupId != nil {
		return fmt.Sprintf("group:%d", *e.StoreGroupId)
	}
	if e.StoreCode != nil {
		return "store:" + *e.StoreCode
	}
	return "all"
}
