// Package domain contains provider offers: the per-tier unit prices quoted
// for an item under a process.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Offer is a unit price quoted by a provider for an item under a process at
// a given contract tier.
type Offer struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	ItemID       snowflake.ID    `gorm:"not null" json:"item_id"`
	ProviderID   snowflake.ID    `gorm:"not null" json:"provider_id"`
	ProcessID    snowflake.ID    `gorm:"not null" json:"process_id"`
	TierNumber   int             `gorm:"not null;default:1" json:"tier_number"`
	PricePerUnit decimal.Decimal `gorm:"column:price_per_unit;type:text;not null;default:0" json:"price_per_unit"`
	Status       string          `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Offer) TableName() string { return "offers" }
