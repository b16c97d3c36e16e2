// Package domain contains monthly volume records: forecast and actual units
// per product.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Forecast is the planned unit volume for a product in one month.
type Forecast struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID snowflake.ID `gorm:"not null" json:"product_id"`
	Year      int          `gorm:"not null" json:"year"`
	Month     int          `gorm:"not null" json:"month"`
	Units     int64        `gorm:"not null;default:0" json:"units"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Forecast) TableName() string { return "forecasts" }

// Actual is the observed unit volume for a product in one month.
type Actual struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID snowflake.ID `gorm:"not null" json:"product_id"`
	Year      int          `gorm:"not null" json:"year"`
	Month     int          `gorm:"not null" json:"month"`
	Units     int64        `gorm:"not null;default:0" json:"units"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Actual) TableName() string { return "actuals" }
