package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/clock"
	contractdomain "github.com/smallbiznis/procura/internal/contract/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupContractTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS processes (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tier_thresholds TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
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
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (contract_id, tier_number)
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
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	for _, provider := range []struct {
		id   int64
		name string
	}{{300, "Alpha Data"}, {301, "Beta Bureau"}} {
		if err := db.Exec(
			`INSERT INTO providers (id, name, status, created_at, updated_at)
			 VALUES (?, ?, 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			provider.id, provider.name,
		).Error; err != nil {
			t.Fatalf("insert provider: %v", err)
		}
	}
	return db
}

func newContractTestService(t *testing.T) (contractdomain.Service, *gorm.DB) {
	t.Helper()
	db := setupContractTestDB(t)
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

func createTestProcess(t *testing.T, svc contractdomain.Service) *contractdomain.Process {
	t.Helper()
	process, err := svc.CreateProcess(context.Background(), contractdomain.CreateProcessRequest{Name: "Scoring"})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}
	return process
}

func TestCreateProcessDefaultsAndValidation(t *testing.T) {
	svc, _ := newContractTestService(t)
	ctx := context.Background()

	process, err := svc.CreateProcess(ctx, contractdomain.CreateProcessRequest{Name: "  Scoring  "})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}
	if process.Name != "Scoring" {
		t.Fatalf("expected trimmed name, got %q", process.Name)
	}
	if process.Status != contractdomain.StatusActive {
		t.Fatalf("expected default status active, got %q", process.Status)
	}

	if _, err := svc.CreateProcess(ctx, contractdomain.CreateProcessRequest{Name: "   "}); !errors.Is(err, contractdomain.ErrInvalidName) {
		t.Fatalf("expected invalid_name, got %v", err)
	}
	if _, err := svc.CreateProcess(ctx, contractdomain.CreateProcessRequest{Name: "X", Status: "paused"}); !errors.Is(err, contractdomain.ErrInvalidStatus) {
		t.Fatalf("expected invalid_status, got %v", err)
	}
}

func TestCreateContractPersistsTierLadder(t *testing.T) {
	svc, _ := newContractTestService(t)
	ctx := context.Background()
	process := createTestProcess(t, svc)

	contract, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID:  process.ID,
		ProviderID: 300,
		Name:       "Alpha Scoring 2026",
		Tiers: []contractdomain.TierSpec{
			{TierNumber: 2, ThresholdUnits: 4000},
			{TierNumber: 1, ThresholdUnits: 1000},
			{TierNumber: 3, ThresholdUnits: 6000},
		},
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}

	tiers, err := svc.TiersForContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("tiers for contract: %v", err)
	}
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	for i, want := range []int{1, 2, 3} {
		if tiers[i].TierNumber != want {
			t.Fatalf("tier %d: expected number %d, got %d", i, want, tiers[i].TierNumber)
		}
	}
	if tiers[2].ThresholdUnits != 6000 {
		t.Fatalf("expected last threshold 6000, got %d", tiers[2].ThresholdUnits)
	}
}

func TestCreateContractRequiresKnownProvider(t *testing.T) {
	svc, _ := newContractTestService(t)
	ctx := context.Background()
	process := createTestProcess(t, svc)

	_, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 0, Name: "No Provider",
	})
	if !errors.Is(err, catalogdomain.ErrProviderNotFound) {
		t.Fatalf("zero provider: expected provider_not_found, got %v", err)
	}

	_, err = svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 999, Name: "Ghost Provider",
	})
	if !errors.Is(err, catalogdomain.ErrProviderNotFound) {
		t.Fatalf("unknown provider: expected provider_not_found, got %v", err)
	}
}

func TestSecondActiveContractRejected(t *testing.T) {
	svc, _ := newContractTestService(t)
	ctx := context.Background()
	process := createTestProcess(t, svc)

	if _, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 300, Name: "First",
	}); err != nil {
		t.Fatalf("create first contract: %v", err)
	}

	_, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 300, Name: "Second",
	})
	if !errors.Is(err, contractdomain.ErrDuplicateContract) {
		t.Fatalf("expected active_contract_exists, got %v", err)
	}

	// An inactive contract for the same key is allowed, but activating it
	// later must hit the same guard.
	inactive, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 300, Name: "Standby", Status: contractdomain.StatusInactive,
	})
	if err != nil {
		t.Fatalf("create inactive contract: %v", err)
	}
	active := contractdomain.StatusActive
	_, err = svc.UpdateContract(ctx, inactive.ID, contractdomain.UpdateContractRequest{Status: &active})
	if !errors.Is(err, contractdomain.ErrDuplicateContract) {
		t.Fatalf("expected active_contract_exists on activation, got %v", err)
	}

	// A different provider under the same process is unaffected.
	if _, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 301, Name: "Other Provider",
	}); err != nil {
		t.Fatalf("create contract for other provider: %v", err)
	}
}

func TestSelectTierClearsOtherSelections(t *testing.T) {
	svc, _ := newContractTestService(t)
	ctx := context.Background()
	process := createTestProcess(t, svc)

	contract, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 300, Name: "Alpha",
		Tiers: []contractdomain.TierSpec{
			{TierNumber: 1, ThresholdUnits: 1000},
			{TierNumber: 2, ThresholdUnits: 4000},
			{TierNumber: 3, ThresholdUnits: 6000},
		},
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}

	if err := svc.SelectTier(ctx, contract.ID, 2); err != nil {
		t.Fatalf("select tier 2: %v", err)
	}
	if err := svc.SelectTier(ctx, contract.ID, 3); err != nil {
		t.Fatalf("select tier 3: %v", err)
	}

	tiers, err := svc.TiersForContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("tiers for contract: %v", err)
	}
	for _, tier := range tiers {
		if tier.IsSelected != (tier.TierNumber == 3) {
			t.Fatalf("tier %d selected=%v, expected only tier 3", tier.TierNumber, tier.IsSelected)
		}
	}

	if err := svc.SelectTier(ctx, contract.ID, 9); !errors.Is(err, contractdomain.ErrTierNotFound) {
		t.Fatalf("expected tier_not_found, got %v", err)
	}

	if err := svc.ClearSelectedTier(ctx, contract.ID); err != nil {
		t.Fatalf("clear selection: %v", err)
	}
	tiers, err = svc.TiersForContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("tiers after clear: %v", err)
	}
	for _, tier := range tiers {
		if tier.IsSelected {
			t.Fatalf("tier %d still selected after clear", tier.TierNumber)
		}
	}
}

func TestSetTiersRejectsInvalidLadders(t *testing.T) {
	svc, _ := newContractTestService(t)
	ctx := context.Background()
	process := createTestProcess(t, svc)

	contract, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 300, Name: "Alpha",
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}

	cases := []struct {
		name  string
		tiers []contractdomain.TierSpec
	}{
		{"duplicate tier numbers", []contractdomain.TierSpec{{TierNumber: 1}, {TierNumber: 1}}},
		{"tier number below one", []contractdomain.TierSpec{{TierNumber: 0}}},
		{"negative threshold", []contractdomain.TierSpec{{TierNumber: 1, ThresholdUnits: -5}}},
		{"two selected tiers", []contractdomain.TierSpec{
			{TierNumber: 1, IsSelected: true},
			{TierNumber: 2, IsSelected: true},
		}},
	}
	for _, tc := range cases {
		if _, err := svc.SetTiers(ctx, contract.ID, tc.tiers); !errors.Is(err, contractdomain.ErrInvalidTier) {
			t.Fatalf("%s: expected invalid_tier, got %v", tc.name, err)
		}
	}
}

func TestDeleteProcessCascades(t *testing.T) {
	svc, db := newContractTestService(t)
	ctx := context.Background()
	process := createTestProcess(t, svc)

	contract, err := svc.CreateContract(ctx, contractdomain.CreateContractRequest{
		ProcessID: process.ID, ProviderID: 300, Name: "Alpha",
		Tiers: []contractdomain.TierSpec{{TierNumber: 1, ThresholdUnits: 1000}},
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO offers (id, item_id, provider_id, process_id, tier_number, price_per_unit, status, created_at, updated_at)
		 VALUES (1, 200, 300, ?, 1, '2.50', 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		process.ID,
	).Error; err != nil {
		t.Fatalf("insert offer: %v", err)
	}

	if err := svc.DeleteProcess(ctx, process.ID); err != nil {
		t.Fatalf("delete process: %v", err)
	}

	if _, err := svc.GetContract(ctx, contract.ID); !errors.Is(err, contractdomain.ErrContractNotFound) {
		t.Fatalf("expected contract gone, got %v", err)
	}
	for _, table := range []string{"offers", "contract_tiers", "contracts", "processes"} {
		var count int64
		if err := db.Raw(`SELECT COUNT(*) FROM ` + table).Scan(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("expected %s emptied, found %d rows", table, count)
		}
	}
}
