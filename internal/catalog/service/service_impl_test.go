package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			proxy_quantity INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product_items (
			product_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (product_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS product_item_allocations (
			id INTEGER PRIMARY KEY,
			product_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			provider_id INTEGER NOT NULL,
			mode TEXT NOT NULL DEFAULT 'percentage',
			value REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (product_id, item_id, provider_id)
		)`,
		`CREATE TABLE IF NOT EXISTS product_item_multipliers (
			id INTEGER PRIMARY KEY,
			product_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			multiplier REAL NOT NULL DEFAULT 1.0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (product_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			id INTEGER PRIMARY KEY,
			process_id INTEGER NOT NULL,
			provider_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contract_tiers (
			id INTEGER PRIMARY KEY,
			contract_id INTEGER NOT NULL,
			tier_number INTEGER NOT NULL,
			threshold_units INTEGER NOT NULL DEFAULT 0,
			is_selected BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS offers (
			id INTEGER PRIMARY KEY,
			item_id INTEGER NOT NULL,
			provider_id INTEGER NOT NULL,
			process_id INTEGER NOT NULL,
			tier_number INTEGER NOT NULL DEFAULT 1,
			price_per_unit TEXT NOT NULL DEFAULT '0',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS forecasts (
			id INTEGER PRIMARY KEY,
			product_id INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			units INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS actuals (
			id INTEGER PRIMARY KEY,
			product_id INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			units INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newCatalogTestService(t *testing.T) (catalogdomain.Service, *gorm.DB) {
	t.Helper()
	db := setupCatalogTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
	})
	return svc, db
}

type catalogFixture struct {
	provider *catalogdomain.Provider
	itemA    *catalogdomain.Item
	itemB    *catalogdomain.Item
	product  *catalogdomain.Product
}

func buildCatalogFixture(t *testing.T, svc catalogdomain.Service) catalogFixture {
	t.Helper()
	ctx := context.Background()

	provider, err := svc.CreateProvider(ctx, catalogdomain.CreateProviderRequest{Name: "Alpha Data"})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	itemA, err := svc.CreateItem(ctx, catalogdomain.CreateItemRequest{Name: "Credit Score"})
	if err != nil {
		t.Fatalf("create item A: %v", err)
	}
	itemB, err := svc.CreateItem(ctx, catalogdomain.CreateItemRequest{Name: "Fraud Check"})
	if err != nil {
		t.Fatalf("create item B: %v", err)
	}
	product, err := svc.CreateProduct(ctx, catalogdomain.CreateProductRequest{Name: "Credit Report"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := svc.SetProductItems(ctx, product.ID, []snowflake.ID{itemA.ID, itemB.ID}); err != nil {
		t.Fatalf("set product items: %v", err)
	}
	return catalogFixture{provider: provider, itemA: itemA, itemB: itemB, product: product}
}

func TestCreateProviderDefaultsAndValidation(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()

	provider, err := svc.CreateProvider(ctx, catalogdomain.CreateProviderRequest{Name: "  Alpha Data  "})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	if provider.Name != "Alpha Data" || provider.Status != catalogdomain.StatusActive {
		t.Fatalf("unexpected provider %+v", provider)
	}

	if _, err := svc.CreateProvider(ctx, catalogdomain.CreateProviderRequest{Name: " "}); !errors.Is(err, catalogdomain.ErrInvalidName) {
		t.Fatalf("expected invalid_name, got %v", err)
	}
	if _, err := svc.CreateProvider(ctx, catalogdomain.CreateProviderRequest{Name: "B", Status: "dormant"}); !errors.Is(err, catalogdomain.ErrInvalidStatus) {
		t.Fatalf("expected invalid_status, got %v", err)
	}
	if _, err := svc.GetProvider(ctx, 99); !errors.Is(err, catalogdomain.ErrProviderNotFound) {
		t.Fatalf("expected provider_not_found, got %v", err)
	}
}

func TestSetProductItemsPrunesOrphanedConfig(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()
	fix := buildCatalogFixture(t, svc)

	set := catalogdomain.WeightSet{
		Mode:    catalogdomain.ModePercentage,
		Weights: []catalogdomain.ProviderWeight{{ProviderID: fix.provider.ID, Value: 100}},
	}
	if err := svc.SetAllocation(ctx, fix.product.ID, catalogdomain.Allocation{
		Kind:       catalogdomain.AllocationCollective,
		Collective: &set,
	}); err != nil {
		t.Fatalf("set allocation: %v", err)
	}
	if err := svc.SetMultipliers(ctx, fix.product.ID, []catalogdomain.SetMultiplierEntry{
		{ItemID: fix.itemB.ID, Multiplier: 1.5},
	}); err != nil {
		t.Fatalf("set multipliers: %v", err)
	}

	// Removing item B must drop its allocation and multiplier rows.
	if err := svc.SetProductItems(ctx, fix.product.ID, []snowflake.ID{fix.itemA.ID}); err != nil {
		t.Fatalf("shrink product items: %v", err)
	}

	var count int64
	if err := db.Raw(
		`SELECT COUNT(*) FROM product_item_allocations WHERE product_id = ? AND item_id = ?`,
		fix.product.ID, fix.itemB.ID,
	).Scan(&count).Error; err != nil {
		t.Fatalf("count allocations: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected orphaned allocation rows pruned, found %d", count)
	}
	multipliers, err := svc.MultipliersForProduct(ctx, fix.product.ID)
	if err != nil {
		t.Fatalf("multipliers: %v", err)
	}
	if len(multipliers) != 0 {
		t.Fatalf("expected orphaned multiplier pruned, got %+v", multipliers)
	}
}

func TestSetAllocationCollectiveCoversAllItems(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()
	fix := buildCatalogFixture(t, svc)

	second, err := svc.CreateProvider(ctx, catalogdomain.CreateProviderRequest{Name: "Beta Bureau"})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	set := catalogdomain.WeightSet{
		Mode: catalogdomain.ModePercentage,
		Weights: []catalogdomain.ProviderWeight{
			{ProviderID: fix.provider.ID, Value: 60},
			{ProviderID: second.ID, Value: 40},
		},
	}
	if err := svc.SetAllocation(ctx, fix.product.ID, catalogdomain.Allocation{
		Kind:       catalogdomain.AllocationCollective,
		Collective: &set,
	}); err != nil {
		t.Fatalf("set allocation: %v", err)
	}

	allocation, err := svc.AllocationForProduct(ctx, fix.product.ID)
	if err != nil {
		t.Fatalf("allocation for product: %v", err)
	}
	if allocation.Kind != catalogdomain.AllocationCollective {
		t.Fatalf("expected collective allocation, got %q", allocation.Kind)
	}
	for _, itemID := range []snowflake.ID{fix.itemA.ID, fix.itemB.ID} {
		got, ok := allocation.ForItem(itemID)
		if !ok {
			t.Fatalf("expected weight set for item %d", itemID)
		}
		if len(got.Weights) != 2 || got.Weights[0].Value+got.Weights[1].Value != 100 {
			t.Fatalf("unexpected weights for item %d: %+v", itemID, got.Weights)
		}
	}
}

func TestSetAllocationPerItemRoundTrips(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()
	fix := buildCatalogFixture(t, svc)

	perItem := map[snowflake.ID]catalogdomain.WeightSet{
		fix.itemA.ID: {
			Mode:    catalogdomain.ModePercentage,
			Weights: []catalogdomain.ProviderWeight{{ProviderID: fix.provider.ID, Value: 100}},
		},
		fix.itemB.ID: {
			Mode:    catalogdomain.ModeUnits,
			Weights: []catalogdomain.ProviderWeight{{ProviderID: fix.provider.ID, Value: 750}},
		},
	}
	if err := svc.SetAllocation(ctx, fix.product.ID, catalogdomain.Allocation{
		Kind:    catalogdomain.AllocationPerItem,
		PerItem: perItem,
	}); err != nil {
		t.Fatalf("set allocation: %v", err)
	}

	allocation, err := svc.AllocationForProduct(ctx, fix.product.ID)
	if err != nil {
		t.Fatalf("allocation for product: %v", err)
	}
	if allocation.Kind != catalogdomain.AllocationPerItem {
		t.Fatalf("expected per-item allocation, got %q", allocation.Kind)
	}
	setB, ok := allocation.ForItem(fix.itemB.ID)
	if !ok || setB.Mode != catalogdomain.ModeUnits || setB.Weights[0].Value != 750 {
		t.Fatalf("unexpected weight set for item B: %+v ok=%v", setB, ok)
	}
}

func TestSetAllocationRejectsInvalidInput(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()
	fix := buildCatalogFixture(t, svc)

	if err := svc.SetAllocation(ctx, fix.product.ID, catalogdomain.Allocation{}); !errors.Is(err, catalogdomain.ErrInvalidAllocation) {
		t.Fatalf("expected invalid_allocation for empty input, got %v", err)
	}

	stranger, err := svc.CreateItem(ctx, catalogdomain.CreateItemRequest{Name: "Unlinked"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	err = svc.SetAllocation(ctx, fix.product.ID, catalogdomain.Allocation{
		Kind: catalogdomain.AllocationPerItem,
		PerItem: map[snowflake.ID]catalogdomain.WeightSet{
			stranger.ID: {
				Mode:    catalogdomain.ModePercentage,
				Weights: []catalogdomain.ProviderWeight{{ProviderID: fix.provider.ID, Value: 100}},
			},
		},
	})
	if !errors.Is(err, catalogdomain.ErrInvalidAllocation) {
		t.Fatalf("expected invalid_allocation for off-product item, got %v", err)
	}
}

func TestSetMultipliersSkipsDefaultValue(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()
	fix := buildCatalogFixture(t, svc)

	if err := svc.SetMultipliers(ctx, fix.product.ID, []catalogdomain.SetMultiplierEntry{
		{ItemID: fix.itemA.ID, Multiplier: 1.0},
		{ItemID: fix.itemB.ID, Multiplier: 2.5, Notes: "bundled twice"},
	}); err != nil {
		t.Fatalf("set multipliers: %v", err)
	}

	multipliers, err := svc.MultipliersForProduct(ctx, fix.product.ID)
	if err != nil {
		t.Fatalf("multipliers: %v", err)
	}
	if len(multipliers) != 1 {
		t.Fatalf("expected only the non-default multiplier stored, got %d rows", len(multipliers))
	}
	if got := multipliers[fix.itemB.ID]; got.Multiplier != 2.5 || got.Notes != "bundled twice" {
		t.Fatalf("unexpected multiplier row %+v", got)
	}

	if err := svc.SetMultipliers(ctx, fix.product.ID, []catalogdomain.SetMultiplierEntry{
		{ItemID: fix.itemA.ID, Multiplier: 0},
	}); !errors.Is(err, catalogdomain.ErrInvalidMultiplier) {
		t.Fatalf("expected invalid_multiplier, got %v", err)
	}
}

func TestDeleteProviderCascades(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()
	fix := buildCatalogFixture(t, svc)

	set := catalogdomain.WeightSet{
		Mode:    catalogdomain.ModePercentage,
		Weights: []catalogdomain.ProviderWeight{{ProviderID: fix.provider.ID, Value: 100}},
	}
	if err := svc.SetAllocation(ctx, fix.product.ID, catalogdomain.Allocation{
		Kind:       catalogdomain.AllocationCollective,
		Collective: &set,
	}); err != nil {
		t.Fatalf("set allocation: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO contracts (id, process_id, provider_id, name, status, created_at, updated_at)
		 VALUES (1, 400, ?, 'Alpha Scoring', 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		fix.provider.ID,
	).Error; err != nil {
		t.Fatalf("insert contract: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO contract_tiers (id, contract_id, tier_number, threshold_units, is_selected, created_at, updated_at)
		 VALUES (2, 1, 1, 1000, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
	).Error; err != nil {
		t.Fatalf("insert tier: %v", err)
	}

	if err := svc.DeleteProvider(ctx, fix.provider.ID); err != nil {
		t.Fatalf("delete provider: %v", err)
	}

	for _, table := range []string{"product_item_allocations", "contract_tiers", "contracts", "providers"} {
		var count int64
		if err := db.Raw(`SELECT COUNT(*) FROM ` + table).Scan(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("expected %s emptied, found %d rows", table, count)
		}
	}
}
