// Package seed bootstraps a fresh database: a default API key for first
// contact and, in development, a small demo catalog to calculate against.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	apikeydomain "github.com/smallbiznis/procura/internal/apikey/domain"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	contractdomain "github.com/smallbiznis/procura/internal/contract/domain"
	offerdomain "github.com/smallbiznis/procura/internal/offer/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultKeyName = "bootstrap"

// EnsureDefaultKey creates one active API key when none exist. The plaintext
// is logged once; it cannot be recovered later.
func EnsureDefaultKey(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM api_keys WHERE status = 'active'`).Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	plaintext, err := apikeydomain.Generate()
	if err != nil {
		return err
	}
	hash, err := apikeydomain.Hash(plaintext)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record := apikeydomain.APIKey{
		ID:        node.Generate(),
		Name:      defaultKeyName,
		KeyHash:   hash,
		Status:    apikeydomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}

	log.Warn("created bootstrap api key; store it now, it is not recoverable",
		zap.String("api_key", plaintext),
	)
	return nil
}

// EnsureDemoCatalog seeds a two-provider credit data catalog when the
// database holds no providers. Intended for development databases only.
func EnsureDemoCatalog(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM providers`).Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	ctx := context.Background()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alpha := catalogdomain.Provider{
			ID: node.Generate(), Name: "Alpha Data", Status: catalogdomain.StatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		beta := catalogdomain.Provider{
			ID: node.Generate(), Name: "Beta Bureau", Status: catalogdomain.StatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		score := catalogdomain.Item{
			ID: node.Generate(), Name: "Credit Score", Status: catalogdomain.StatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		report := catalogdomain.Product{
			ID: node.Generate(), Name: "Credit Report", Status: catalogdomain.StatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		scoring := contractdomain.Process{
			ID: node.Generate(), Name: "Scoring", Status: contractdomain.StatusActive,
			CreatedAt: now, UpdatedAt: now,
		}
		for _, record := range []any{&alpha, &beta, &score, &report, &scoring} {
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}

		link := catalogdomain.ProductItem{ProductID: report.ID, ItemID: score.ID, CreatedAt: now}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}

		weights := []struct {
			provider snowflake.ID
			value    float64
		}{{alpha.ID, 60}, {beta.ID, 40}}
		for _, weight := range weights {
			row := catalogdomain.AllocationRow{
				ID: node.Generate(), ProductID: report.ID, ItemID: score.ID,
				ProviderID: weight.provider, Mode: string(catalogdomain.ModePercentage),
				Value: weight.value, CreatedAt: now, UpdatedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		ladder := []struct {
			tierNumber int
			threshold  int64
		}{{1, 1000}, {2, 4000}, {3, 6000}}
		contracts := []struct {
			provider snowflake.ID
			name     string
		}{{alpha.ID, "Alpha Scoring 2026"}, {beta.ID, "Beta Scoring 2026"}}
		for _, spec := range contracts {
			contract := contractdomain.Contract{
				ID: node.Generate(), ProcessID: scoring.ID, ProviderID: spec.provider,
				Name: spec.name, Status: contractdomain.StatusActive,
				CreatedAt: now, UpdatedAt: now,
			}
			if err := tx.Create(&contract).Error; err != nil {
				return err
			}
			for _, rung := range ladder {
				tier := contractdomain.ContractTier{
					ID: node.Generate(), ContractID: contract.ID,
					TierNumber: rung.tierNumber, ThresholdUnits: rung.threshold,
					CreatedAt: now, UpdatedAt: now,
				}
				if err := tx.Create(&tier).Error; err != nil {
					return err
				}
			}
		}

		prices := []struct {
			provider snowflake.ID
			tier     int
			price    string
		}{
			{alpha.ID, 1, "2.50"}, {alpha.ID, 2, "2.25"}, {alpha.ID, 3, "2.00"},
			{beta.ID, 1, "2.40"}, {beta.ID, 2, "2.20"},
		}
		for _, spec := range prices {
			offer := offerdomain.Offer{
				ID: node.Generate(), ItemID: score.ID, ProviderID: spec.provider,
				ProcessID: scoring.ID, TierNumber: spec.tier,
				PricePerUnit: decimal.RequireFromString(spec.price),
				Status:       offerdomain.StatusActive,
				CreatedAt:    now, UpdatedAt: now,
			}
			if err := tx.Create(&offer).Error; err != nil {
				return err
			}
		}

		log.Info("seeded demo catalog",
			zap.String("product", report.Name),
			zap.Int("providers", len(contracts)),
		)
		return nil
	})
}
