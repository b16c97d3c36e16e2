package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Basis selects which volume series backs a monthly lookup.
type Basis string

const (
	BasisForecast Basis = "forecast"
	BasisActual   Basis = "actual"
)

// Valid reports whether the basis is one of the known series.
func (b Basis) Valid() bool { return b == BasisForecast || b == BasisActual }

// Service manages monthly volume records. Writes are upserts: at most one
// row exists per (product, year, month) and series.
type Service interface {
	UpsertForecast(ctx context.Context, req UpsertVolumeRequest) (*Forecast, error)
	ListForecasts(ctx context.Context, productID snowflake.ID) ([]Forecast, error)
	DeleteForecast(ctx context.Context, productID snowflake.ID, year, month int) error

	UpsertActual(ctx context.Context, req UpsertVolumeRequest) (*Actual, error)
	ListActuals(ctx context.Context, productID snowflake.ID) ([]Actual, error)
	DeleteActual(ctx context.Context, productID snowflake.ID, year, month int) error

	// QuantitiesForMonth returns units per product for one month from the
	// chosen series. Products without a row are absent from the map.
	QuantitiesForMonth(ctx context.Context, basis Basis, year, month int) (map[snowflake.ID]int64, error)
}

var (
	ErrVolumeNotFound = errors.New("volume_not_found")
	ErrInvalidPeriod  = errors.New("invalid_period")
	ErrInvalidUnits   = errors.New("invalid_units")
	ErrInvalidBasis   = errors.New("invalid_basis")
)

type UpsertVolumeRequest struct {
	ProductID snowflake.ID `json:"product_id"`
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	Units     int64        `json:"units"`
}
