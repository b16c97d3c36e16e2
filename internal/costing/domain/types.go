// Package domain contains the cost engine's request and result shapes and
// the snapshot it calculates against.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
)

// Service calculates tier-aware costs over the procurement catalog.
type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (*CostResult, error)
	Compare(ctx context.Context, req CompareRequest) (*CompareResult, error)
	TierStatus(ctx context.Context, req TierStatusRequest) (map[string]ProviderTierStatus, error)
	ActiveProducts(ctx context.Context) ([]ProductSummary, error)
}

var (
	ErrNoQuantities  = errors.New("no_product_quantities")
	ErrInvalidVolume = errors.New("invalid_volume")
)

// CalculateRequest drives one cost calculation.
type CalculateRequest struct {
	// ProductQuantities maps product to the unit volume to price.
	ProductQuantities map[snowflake.ID]int64 `json:"product_quantities"`
	// UseManualTiers prefers a contract's selected tier over the
	// volume-derived one.
	UseManualTiers bool `json:"use_manual_tiers"`
	// TierVolumeOverrides replaces a provider's summed lookup volume when
	// resolving tiers.
	TierVolumeOverrides map[snowflake.ID]int64 `json:"tier_volume_overrides"`
	// Allocations overrides the stored allocation per product. Products
	// absent from the map use their stored configuration.
	Allocations map[snowflake.ID]catalogdomain.Allocation `json:"allocations"`
}

// CompareRequest prices the same quantities under two allocation scenarios.
type CompareRequest struct {
	ProductQuantities   map[snowflake.ID]int64                    `json:"product_quantities"`
	UseManualTiers      bool                                      `json:"use_manual_tiers"`
	TierVolumeOverrides map[snowflake.ID]int64                    `json:"tier_volume_overrides"`
	Proposed            map[snowflake.ID]catalogdomain.Allocation `json:"proposed_allocations"`
}

// TierStatusRequest resolves each provider's effective tier for the given
// volumes without pricing them.
type TierStatusRequest struct {
	ProductQuantities map[snowflake.ID]int64 `json:"product_quantities"`
	UseManualTiers    bool                   `json:"use_manual_tiers"`
}

// TierInfo records how a contract's tier was resolved. CalculatedTier is
// always the volume-derived tier; EffectiveTier diverges from it only when
// a manual selection wins.
type TierInfo struct {
	CalculatedTier int    `json:"calculated_tier"`
	EffectiveTier  int    `json:"effective_tier"`
	Source         string `json:"source"`
	LookupVolume   int64  `json:"lookup_volume"`
}

const (
	TierSourceCalculated = "calculated"
	TierSourceManual     = "manual"
	TierSourceDefault    = "default"
)

// CostRow is one priced (item, provider) pairing inside a provider
// breakdown.
type CostRow struct {
	ItemID         snowflake.ID    `json:"item_id"`
	ItemName       string          `json:"item_name"`
	AllocatedUnits int64           `json:"allocated_units"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	Multiplier     float64         `json:"multiplier"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CalculatedTier int             `json:"calculated_tier"`
	Priced         bool            `json:"priced"`
}

// ProviderBreakdown aggregates the cost flowing to one provider.
type ProviderBreakdown struct {
	ProviderID   snowflake.ID    `json:"provider_id"`
	ProviderName string          `json:"provider_name"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalUnits   int64           `json:"total_units"`
	TierInfo     TierInfo        `json:"tier_info"`
	Rows         []CostRow       `json:"rows"`
}

// ProductBreakdown aggregates the cost of one product.
type ProductBreakdown struct {
	ProductID   snowflake.ID    `json:"product_id"`
	ProductName string          `json:"product_name"`
	Cost        decimal.Decimal `json:"cost"`
}

// AllocationShare is one provider's share of an item, normalized to a
// percentage of the item's allocated volume.
type AllocationShare struct {
	ProviderID   snowflake.ID `json:"provider_id"`
	ProviderName string       `json:"provider_name"`
	Percent      float64      `json:"percent"`
}

// ItemAllocationDetail lists the effective shares for one item.
type ItemAllocationDetail struct {
	ItemID   snowflake.ID      `json:"item_id"`
	ItemName string            `json:"item_name"`
	Shares   []AllocationShare `json:"shares"`
}

// ProductAllocationDetail lists the effective shares per item of a product.
type ProductAllocationDetail struct {
	ProductID   snowflake.ID           `json:"product_id"`
	ProductName string                 `json:"product_name"`
	Items       []ItemAllocationDetail `json:"items"`
}

// CostResult is the full output of one calculation.
type CostResult struct {
	TotalCost         decimal.Decimal           `json:"total_cost"`
	ProviderBreakdown []ProviderBreakdown       `json:"provider_breakdown"`
	ProductBreakdown  []ProductBreakdown        `json:"product_breakdown"`
	AllocationDetails []ProductAllocationDetail `json:"allocation_details"`
	// Warnings carries partial-result notes such as unknown products.
	Warnings []string `json:"warnings,omitempty"`
}

// CompareResult pairs a current and proposed calculation.
type CompareResult struct {
	Current  *CostResult     `json:"current"`
	Proposed *CostResult     `json:"proposed"`
	Savings  decimal.Decimal `json:"savings"`
}

// ProviderTierStatus summarizes a provider's tier position.
type ProviderTierStatus struct {
	ProviderID     snowflake.ID `json:"provider_id"`
	CalculatedTier int          `json:"calculated_tier"`
	EffectiveTier  int          `json:"effective_tier"`
	TotalUnits     int64        `json:"total_units"`
}

// ProductSummary is a ranked-products listing entry.
type ProductSummary struct {
	ProductID   snowflake.ID `json:"product_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	ItemCount   int          `json:"item_count"`
}
