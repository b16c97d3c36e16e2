// Package domain contains the catalog entities: providers, items, products,
// and the per-product allocation and pricing configuration.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Provider is a vendor that sells data services under contracts and offers.
type Provider struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Details   string       `gorm:"type:text" json:"details"`
	Status    string       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Provider) TableName() string { return "providers" }

// Item is a purchasable unit of data service.
type Item struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Status      string       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// Product bundles items and carries the allocation configuration that
// splits its monthly volume across providers.
type Product struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"type:text;not null" json:"name"`
	Description   string       `gorm:"type:text" json:"description"`
	ProxyQuantity int64        `gorm:"not null;default:0" json:"proxy_quantity"`
	Status        string       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// ProductItem links a product to one of its items.
type ProductItem struct {
	ProductID snowflake.ID `gorm:"primaryKey" json:"product_id"`
	ItemID    snowflake.ID `gorm:"primaryKey" json:"item_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ProductItem) TableName() string { return "product_items" }

// AllocationRow is the persisted form of one provider weight for one
// product item. The tagged Allocation variant is assembled from these rows
// at the repository boundary.
type AllocationRow struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID  snowflake.ID `gorm:"not null" json:"product_id"`
	ItemID     snowflake.ID `gorm:"not null" json:"item_id"`
	ProviderID snowflake.ID `gorm:"not null" json:"provider_id"`
	Mode       string       `gorm:"type:text;not null;default:percentage" json:"mode"`
	Value      float64      `gorm:"not null;default:0" json:"value"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AllocationRow) TableName() string { return "product_item_allocations" }

// PriceMultiplier adjusts the resolved unit price for one product item.
type PriceMultiplier struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID  snowflake.ID `gorm:"not null" json:"product_id"`
	ItemID     snowflake.ID `gorm:"not null" json:"item_id"`
	Multiplier float64      `gorm:"not null;default:1" json:"multiplier"`
	Notes      string       `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PriceMultiplier) TableName() string { return "product_item_multipliers" }
