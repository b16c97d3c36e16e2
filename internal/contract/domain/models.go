// Package domain contains processing agreements: processes, the contracts
// signed for them, and the volume tiers each contract prices against.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Process is a named processing stream that offers are priced under.
type Process struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	// Legacy per-process thresholds, superseded by contract tiers. Kept so
	// older exports still round-trip.
	TierThresholds datatypes.JSON `gorm:"column:tier_thresholds" json:"tier_thresholds,omitempty"`
	Status         string         `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Process) TableName() string { return "processes" }

// Contract binds a provider to a process and owns the tier ladder.
type Contract struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ProcessID  snowflake.ID `gorm:"not null" json:"process_id"`
	ProviderID snowflake.ID `gorm:"not null" json:"provider_id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Status     string       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// ContractTier is one rung of a contract's volume ladder. ThresholdUnits is
// the exclusive upper bound of the tier.
type ContractTier struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ContractID     snowflake.ID `gorm:"not null" json:"contract_id"`
	TierNumber     int          `gorm:"not null" json:"tier_number"`
	ThresholdUnits int64        `gorm:"column:threshold_units;not null;default:0" json:"threshold_units"`
	IsSelected     bool         `gorm:"column:is_selected;not null;default:false" json:"is_selected"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ContractTier) TableName() string { return "contract_tiers" }
