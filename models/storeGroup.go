package models

import (
	"time"
)

// StoreGroup is a named set of stores used to scope event-date adjustments
// (regional groups, franchise clusters).
type StoreGroup struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	ChainId     string `gorm:"size:64;index" json:"chain_id"`
	Description string `gorm:"size:200" json:"description"`

	Members []StoreGroupMember `gorm:"foreignKey:StoreGroupId" json:"members,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type StoreGroupMember struct {
	StoreGroupId int    `gorm:"primaryKey" json:"store_group_id"`
	StoreCode    string `gorm:"primaryKey;size:10" json:"store_code"`
}
