package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
)

// Repository loads a read-only snapshot of everything a calculation needs.
type Repository interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// ItemRef is the item identity carried through a snapshot.
type ItemRef struct {
	ID   snowflake.ID
	Name string
}

// ProductRef is the product identity carried through a snapshot.
type ProductRef struct {
	ID          snowflake.ID
	Name        string
	Description string
	Status      string
}

// PairKey addresses an (item, provider) pairing.
type PairKey struct {
	ItemID     snowflake.ID
	ProviderID snowflake.ID
}

// ContractKey addresses the active contract of a provider under a process.
type ContractKey struct {
	ProcessID  snowflake.ID
	ProviderID snowflake.ID
}

// PriceKey addresses one offered unit price.
type PriceKey struct {
	ItemID     snowflake.ID
	ProviderID snowflake.ID
	ProcessID  snowflake.ID
	TierNumber int
}

// ContractRef is a contract plus its tier ladder, thresholds ascending.
type ContractRef struct {
	ID         snowflake.ID
	ProcessID  snowflake.ID
	ProviderID snowflake.ID
	Tiers      []TierRef
}

// TierRef is one rung of a contract ladder.
type TierRef struct {
	TierNumber     int
	ThresholdUnits int64
	IsSelected     bool
}

// Snapshot is an immutable view of the catalog for one calculation. All
// indexes are built once at load time; calculations never touch the store.
type Snapshot struct {
	Providers map[snowflake.ID]string
	Products  map[snowflake.ID]ProductRef

	// ProductItems lists each product's items in name order.
	ProductItems map[snowflake.ID][]ItemRef

	// Allocations holds the stored allocation per product.
	Allocations map[snowflake.ID]catalogdomain.Allocation

	// Multipliers holds per-(product, item) price multipliers; absent
	// entries mean 1.0.
	Multipliers map[snowflake.ID]map[snowflake.ID]float64

	// PairProcess maps an (item, provider) pairing to the process its
	// active offers price under. With several active offers the one with
	// the highest ID decides.
	PairProcess map[PairKey]snowflake.ID

	// Prices maps (item, provider, process, tier) to the active unit
	// price. Duplicate offers keep the highest offer ID.
	Prices map[PriceKey]decimal.Decimal

	// Contracts maps (process, provider) to the active contract.
	Contracts map[ContractKey]ContractRef
}

// Multiplier returns the effective multiplier for a product item.
func (s *Snapshot) Multiplier(productID, itemID snowflake.ID) float64 {
	if byItem, ok := s.Multipliers[productID]; ok {
		if m, ok := byItem[itemID]; ok {
			return m
		}
	}
	return 1.0
}
