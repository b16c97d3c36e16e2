// Package repository loads the costing snapshot from the store and caches
// it briefly so bursts of calculations share one read.
package repository

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/cache"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	snapshotKey = "catalog"
	snapshotTTL = 30 * time.Second
)

type SnapshotRepositoryParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

// SnapshotRepository assembles costing snapshots and keeps the latest one
// for a short window. Catalog writers flush it on every mutation.
type SnapshotRepository struct {
	db    *gorm.DB
	log   *zap.Logger
	cache *cache.TTLCache[string, *costingdomain.Snapshot]
}

func NewSnapshotRepository(p SnapshotRepositoryParam) *SnapshotRepository {
	return &SnapshotRepository{
		db:    p.DB,
		log:   p.Log.Named("costing.snapshot"),
		cache: cache.NewTTLCache[string, *costingdomain.Snapshot](),
	}
}

// Flush drops the cached snapshot.
func (r *SnapshotRepository) Flush() {
	r.cache.Flush()
}

// Snapshot returns the cached snapshot or loads a fresh one.
func (r *SnapshotRepository) Snapshot(ctx context.Context) (*costingdomain.Snapshot, error) {
	if snapshot, ok := r.cache.Get(snapshotKey); ok {
		return snapshot, nil
	}
	snapshot, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(snapshotKey, snapshot, snapshotTTL)
	return snapshot, nil
}

func (r *SnapshotRepository) load(ctx context.Context) (*costingdomain.Snapshot, error) {
	snapshot := &costingdomain.Snapshot{
		Providers:    make(map[snowflake.ID]string),
		Products:     make(map[snowflake.ID]costingdomain.ProductRef),
		ProductItems: make(map[snowflake.ID][]costingdomain.ItemRef),
		Allocations:  make(map[snowflake.ID]catalogdomain.Allocation),
		Multipliers:  make(map[snowflake.ID]map[snowflake.ID]float64),
		PairProcess:  make(map[costingdomain.PairKey]snowflake.ID),
		Prices:       make(map[costingdomain.PriceKey]decimal.Decimal),
		Contracts:    make(map[costingdomain.ContractKey]costingdomain.ContractRef),
	}

	db := r.db.WithContext(ctx)

	var providers []struct {
		ID   snowflake.ID
		Name string
	}
	if err := db.Raw(`SELECT id, name FROM providers`).Scan(&providers).Error; err != nil {
		return nil, err
	}
	for _, p := range providers {
		snapshot.Providers[p.ID] = p.Name
	}

	var products []struct {
		ID          snowflake.ID
		Name        string
		Description string
		Status      string
	}
	if err := db.Raw(`SELECT id, name, description, status FROM products`).Scan(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		snapshot.Products[p.ID] = costingdomain.ProductRef{
			ID: p.ID, Name: p.Name, Description: p.Description, Status: p.Status,
		}
	}

	var productItems []struct {
		ProductID snowflake.ID
		ItemID    snowflake.ID
		ItemName  string
	}
	err := db.Raw(
		`SELECT pi.product_id, i.id AS item_id, i.name AS item_name
		 FROM product_items pi JOIN items i ON i.id = pi.item_id
		 ORDER BY pi.product_id, i.name`,
	).Scan(&productItems).Error
	if err != nil {
		return nil, err
	}
	for _, row := range productItems {
		snapshot.ProductItems[row.ProductID] = append(snapshot.ProductItems[row.ProductID],
			costingdomain.ItemRef{ID: row.ItemID, Name: row.ItemName})
	}

	var allocationRows []catalogdomain.AllocationRow
	err = db.Raw(`SELECT * FROM product_item_allocations ORDER BY product_id, item_id, provider_id`).
		Scan(&allocationRows).Error
	if err != nil {
		return nil, err
	}
	perProduct := make(map[snowflake.ID]map[snowflake.ID]catalogdomain.WeightSet)
	for _, row := range allocationRows {
		byItem, ok := perProduct[row.ProductID]
		if !ok {
			byItem = make(map[snowflake.ID]catalogdomain.WeightSet)
			perProduct[row.ProductID] = byItem
		}
		set := byItem[row.ItemID]
		set.Mode = catalogdomain.AllocationMode(row.Mode)
		set.Weights = append(set.Weights, catalogdomain.ProviderWeight{
			ProviderID: row.ProviderID, Value: row.Value,
		})
		byItem[row.ItemID] = set
	}
	for productID, byItem := range perProduct {
		itemIDs := make([]snowflake.ID, 0, len(snapshot.ProductItems[productID]))
		for _, ref := range snapshot.ProductItems[productID] {
			itemIDs = append(itemIDs, ref.ID)
		}
		snapshot.Allocations[productID] = catalogdomain.FoldAllocation(itemIDs, byItem)
	}

	var multipliers []catalogdomain.PriceMultiplier
	if err := db.Raw(`SELECT * FROM product_item_multipliers`).Scan(&multipliers).Error; err != nil {
		return nil, err
	}
	for _, row := range multipliers {
		byItem, ok := snapshot.Multipliers[row.ProductID]
		if !ok {
			byItem = make(map[snowflake.ID]float64)
			snapshot.Multipliers[row.ProductID] = byItem
		}
		byItem[row.ItemID] = row.Multiplier
	}

	var offers []struct {
		ID           snowflake.ID
		ItemID       snowflake.ID
		ProviderID   snowflake.ID
		ProcessID    snowflake.ID
		TierNumber   int
		PricePerUnit decimal.Decimal
	}
	err = db.Raw(
		`SELECT id, item_id, provider_id, process_id, tier_number, price_per_unit
		 FROM offers WHERE status = 'active' ORDER BY id`,
	).Scan(&offers).Error
	if err != nil {
		return nil, err
	}
	pairSource := make(map[costingdomain.PairKey]snowflake.ID)
	priceSource := make(map[costingdomain.PriceKey]snowflake.ID)
	for _, offer := range offers {
		pair := costingdomain.PairKey{ItemID: offer.ItemID, ProviderID: offer.ProviderID}
		if offer.ID >= pairSource[pair] {
			pairSource[pair] = offer.ID
			snapshot.PairProcess[pair] = offer.ProcessID
		}
		price := costingdomain.PriceKey{
			ItemID:     offer.ItemID,
			ProviderID: offer.ProviderID,
			ProcessID:  offer.ProcessID,
			TierNumber: offer.TierNumber,
		}
		if offer.ID >= priceSource[price] {
			priceSource[price] = offer.ID
			snapshot.Prices[price] = offer.PricePerUnit
		}
	}

	var contracts []struct {
		ID         snowflake.ID
		ProcessID  snowflake.ID
		ProviderID snowflake.ID
	}
	err = db.Raw(
		`SELECT id, process_id, provider_id FROM contracts WHERE status = 'active' ORDER BY id`,
	).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range contracts {
		key := costingdomain.ContractKey{ProcessID: c.ProcessID, ProviderID: c.ProviderID}
		// Writes enforce a single active contract per key; take the first
		// match if older data still violates that.
		if _, exists := snapshot.Contracts[key]; !exists {
			snapshot.Contracts[key] = costingdomain.ContractRef{
				ID: c.ID, ProcessID: c.ProcessID, ProviderID: c.ProviderID,
			}
		}
	}

	var tiers []struct {
		ContractID     snowflake.ID
		TierNumber     int
		ThresholdUnits int64
		IsSelected     bool
	}
	err = db.Raw(
		`SELECT contract_id, tier_number, threshold_units, is_selected
		 FROM contract_tiers ORDER BY contract_id, threshold_units`,
	).Scan(&tiers).Error
	if err != nil {
		return nil, err
	}
	tiersByContract := make(map[snowflake.ID][]costingdomain.TierRef)
	for _, t := range tiers {
		tiersByContract[t.ContractID] = append(tiersByContract[t.ContractID], costingdomain.TierRef{
			TierNumber:     t.TierNumber,
			ThresholdUnits: t.ThresholdUnits,
			IsSelected:     t.IsSelected,
		})
	}
	for key, ref := range snapshot.Contracts {
		ladder := tiersByContract[ref.ID]
		sort.SliceStable(ladder, func(i, j int) bool {
			return ladder[i].ThresholdUnits < ladder[j].ThresholdUnits
		})
		ref.Tiers = ladder
		snapshot.Contracts[key] = ref
	}

	r.log.Debug("snapshot loaded",
		zap.Int("products", len(snapshot.Products)),
		zap.Int("prices", len(snapshot.Prices)),
		zap.Int("contracts", len(snapshot.Contracts)),
	)
	return snapshot, nil
}
