package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/procura/internal/apportion"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/clock"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
	"github.com/smallbiznis/procura/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Repo    costingdomain.Repository
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	repo    costingdomain.Repository
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) costingdomain.Service {
	return &Service{
		repo:    p.Repo,
		log:     p.Log.Named("costing.service"),
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// detail is one (item, provider) pairing awaiting pricing.
type detail struct {
	productID    snowflake.ID
	productName  string
	itemID       snowflake.ID
	itemName     string
	providerID   snowflake.ID
	providerName string
	volume       int64
	contractID   snowflake.ID
	processID    snowflake.ID
	multiplier   float64
}

func validateQuantities(quantities map[snowflake.ID]int64) error {
	if len(quantities) == 0 {
		return costingdomain.ErrNoQuantities
	}
	for _, qty := range quantities {
		if qty < 0 {
			return costingdomain.ErrInvalidVolume
		}
	}
	return nil
}

func sortedProductIDs(quantities map[snowflake.ID]int64) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Service) Calculate(ctx context.Context, req costingdomain.CalculateRequest) (*costingdomain.CostResult, error) {
	started := s.clock.Now()
	result, err := s.calculate(ctx, req)
	switch {
	case err != nil:
		s.metrics.ObserveCalculation(s.clock.Now().Sub(started), "invalid")
	case len(result.Warnings) > 0:
		s.metrics.ObserveCalculation(s.clock.Now().Sub(started), "partial")
	default:
		s.metrics.ObserveCalculation(s.clock.Now().Sub(started), "ok")
	}
	return result, err
}

func (s *Service) calculate(ctx context.Context, req costingdomain.CalculateRequest) (*costingdomain.CostResult, error) {
	if err := validateQuantities(req.ProductQuantities); err != nil {
		return nil, err
	}

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var details []detail
	contractVolumes := make(map[snowflake.ID]int64)

	for _, productID := range sortedProductIDs(req.ProductQuantities) {
		quantity := req.ProductQuantities[productID]

		product, ok := snapshot.Products[productID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown product %d skipped", productID))
			continue
		}
		items := snapshot.ProductItems[productID]
		if len(items) == 0 {
			continue
		}

		allocation, ok := req.Allocations[productID]
		if !ok {
			allocation = snapshot.Allocations[productID]
		}
		if allocation.IsZero() {
			continue
		}

		for _, item := range items {
			set, ok := allocation.ForItem(item.ID)
			if !ok {
				continue
			}

			weights := make([]float64, len(set.Weights))
			for i, w := range set.Weights {
				weights[i] = w.Value
			}
			volumes, err := apportion.Apportion(quantity, weights, apportion.Mode(set.Mode))
			if err != nil {
				return nil, err
			}

			multiplier := snapshot.Multiplier(productID, item.ID)
			for i, weight := range set.Weights {
				volume := volumes[i]
				if volume <= 0 {
					continue
				}

				d := detail{
					productID:    productID,
					productName:  product.Name,
					itemID:       item.ID,
					itemName:     item.Name,
					providerID:   weight.ProviderID,
					providerName: snapshot.Providers[weight.ProviderID],
					volume:       volume,
					multiplier:   multiplier,
				}
				pair := costingdomain.PairKey{ItemID: item.ID, ProviderID: weight.ProviderID}
				if processID, ok := snapshot.PairProcess[pair]; ok {
					d.processID = processID
					key := costingdomain.ContractKey{ProcessID: processID, ProviderID: weight.ProviderID}
					if contract, ok := snapshot.Contracts[key]; ok {
						d.contractID = contract.ID
						contractVolumes[contract.ID] += volume
					}
				}
				details = append(details, d)
			}
		}
	}

	contractTiers := s.resolveContractTiers(snapshot, contractVolumes, req.TierVolumeOverrides, req.UseManualTiers)
	result := s.price(snapshot, details, contractTiers)
	result.Warnings = warnings
	return result, nil
}

// resolveContractTiers resolves the effective tier once per contract that
// accumulated volume.
func (s *Service) resolveContractTiers(
	snapshot *costingdomain.Snapshot,
	contractVolumes map[snowflake.ID]int64,
	overrides map[snowflake.ID]int64,
	preferManual bool,
) map[snowflake.ID]costingdomain.TierInfo {
	byID := make(map[snowflake.ID]costingdomain.ContractRef, len(snapshot.Contracts))
	for _, ref := range snapshot.Contracts {
		byID[ref.ID] = ref
	}

	resolved := make(map[snowflake.ID]costingdomain.TierInfo, len(contractVolumes))
	for contractID, volume := range contractVolumes {
		ref, ok := byID[contractID]
		if !ok {
			continue
		}
		lookup := volume
		if override, ok := overrides[ref.ProviderID]; ok {
			lookup = override
		}
		resolved[contractID] = resolveTier(ref.Tiers, lookup, preferManual)
	}
	return resolved
}

// price runs the cost step over collected details and assembles the result.
func (s *Service) price(
	snapshot *costingdomain.Snapshot,
	details []detail,
	contractTiers map[snowflake.ID]costingdomain.TierInfo,
) *costingdomain.CostResult {
	total := decimal.Zero
	providerAgg := make(map[snowflake.ID]*costingdomain.ProviderBreakdown)
	productAgg := make(map[snowflake.ID]*costingdomain.ProductBreakdown)

	type itemVolumes struct {
		itemName   string
		byProvider map[snowflake.ID]int64
		order      []snowflake.ID
	}
	type productAlloc struct {
		productName string
		items       map[snowflake.ID]*itemVolumes
		order       []snowflake.ID
	}
	allocAgg := make(map[snowflake.ID]*productAlloc)
	var productOrder []snowflake.ID

	for _, d := range details {
		tierInfo, ok := contractTiers[d.contractID]
		if !ok {
			tierInfo = costingdomain.TierInfo{CalculatedTier: 1, EffectiveTier: 1, Source: costingdomain.TierSourceDefault}
		}

		price := decimal.Zero
		priced := false
		if d.processID != 0 {
			price, priced = resolvePrice(snapshot, d.itemID, d.providerID, d.processID, tierInfo.EffectiveTier)
		}
		if !priced {
			s.metrics.IncUnpricedAllocation()
		}

		cost := price.
			Mul(decimal.NewFromInt(d.volume)).
			Mul(decimal.NewFromFloat(d.multiplier))
		total = total.Add(cost)

		provider, ok := providerAgg[d.providerID]
		if !ok {
			provider = &costingdomain.ProviderBreakdown{
				ProviderID:   d.providerID,
				ProviderName: d.providerName,
				TotalCost:    decimal.Zero,
				TierInfo:     tierInfo,
			}
			providerAgg[d.providerID] = provider
		}
		provider.TotalCost = provider.TotalCost.Add(cost)
		// Unpriced pairs stay visible as rows but count nothing toward
		// the provider totals.
		if priced {
			provider.TotalUnits += d.volume
		}
		provider.Rows = append(provider.Rows, costingdomain.CostRow{
			ItemID:         d.itemID,
			ItemName:       d.itemName,
			AllocatedUnits: d.volume,
			PricePerUnit:   price,
			Multiplier:     d.multiplier,
			TotalCost:      cost,
			CalculatedTier: tierInfo.CalculatedTier,
			Priced:         priced,
		})

		product, ok := productAgg[d.productID]
		if !ok {
			product = &costingdomain.ProductBreakdown{
				ProductID:   d.productID,
				ProductName: d.productName,
				Cost:        decimal.Zero,
			}
			productAgg[d.productID] = product
			productOrder = append(productOrder, d.productID)
		}
		product.Cost = product.Cost.Add(cost)

		alloc, ok := allocAgg[d.productID]
		if !ok {
			alloc = &productAlloc{
				productName: d.productName,
				items:       make(map[snowflake.ID]*itemVolumes),
			}
			allocAgg[d.productID] = alloc
		}
		item, ok := alloc.items[d.itemID]
		if !ok {
			item = &itemVolumes{itemName: d.itemName, byProvider: make(map[snowflake.ID]int64)}
			alloc.items[d.itemID] = item
			alloc.order = append(alloc.order, d.itemID)
		}
		if _, seen := item.byProvider[d.providerID]; !seen {
			item.order = append(item.order, d.providerID)
		}
		item.byProvider[d.providerID] += d.volume
	}

	result := &costingdomain.CostResult{
		TotalCost: total.Round(2),
	}

	for _, provider := range providerAgg {
		result.ProviderBreakdown = append(result.ProviderBreakdown, *provider)
	}
	sort.Slice(result.ProviderBreakdown, func(i, j int) bool {
		a, b := result.ProviderBreakdown[i], result.ProviderBreakdown[j]
		if a.ProviderName != b.ProviderName {
			return a.ProviderName < b.ProviderName
		}
		return a.ProviderID < b.ProviderID
	})

	for _, productID := range productOrder {
		result.ProductBreakdown = append(result.ProductBreakdown, *productAgg[productID])
	}

	// Re-normalize effective volumes to percentages per item. Shares sum
	// to 100 whenever any volume flowed, 0 otherwise.
	for _, productID := range productOrder {
		alloc := allocAgg[productID]
		productDetail := costingdomain.ProductAllocationDetail{
			ProductID:   productID,
			ProductName: alloc.productName,
		}
		for _, itemID := range alloc.order {
			item := alloc.items[itemID]
			var itemTotal int64
			for _, volume := range item.byProvider {
				itemTotal += volume
			}
			itemDetail := costingdomain.ItemAllocationDetail{
				ItemID:   itemID,
				ItemName: item.itemName,
			}
			for _, providerID := range item.order {
				percent := 0.0
				if itemTotal > 0 {
					percent = math.Round(float64(item.byProvider[providerID])/float64(itemTotal)*1000) / 10
				}
				itemDetail.Shares = append(itemDetail.Shares, costingdomain.AllocationShare{
					ProviderID:   providerID,
					ProviderName: snapshot.Providers[providerID],
					Percent:      percent,
				})
			}
			productDetail.Items = append(productDetail.Items, itemDetail)
		}
		result.AllocationDetails = append(result.AllocationDetails, productDetail)
	}

	return result
}

// Compare prices the same quantities with and without the proposed
// allocations.
func (s *Service) Compare(ctx context.Context, req costingdomain.CompareRequest) (*costingdomain.CompareResult, error) {
	current, err := s.Calculate(ctx, costingdomain.CalculateRequest{
		ProductQuantities:   req.ProductQuantities,
		UseManualTiers:      req.UseManualTiers,
		TierVolumeOverrides: req.TierVolumeOverrides,
	})
	if err != nil {
		return nil, err
	}
	proposed, err := s.Calculate(ctx, costingdomain.CalculateRequest{
		ProductQuantities:   req.ProductQuantities,
		UseManualTiers:      req.UseManualTiers,
		TierVolumeOverrides: req.TierVolumeOverrides,
		Allocations:         req.Proposed,
	})
	if err != nil {
		return nil, err
	}
	return &costingdomain.CompareResult{
		Current:  current,
		Proposed: proposed,
		Savings:  current.TotalCost.Sub(proposed.TotalCost),
	}, nil
}

// TierStatus runs the volume aggregation and reports each provider's tier
// position without assembling cost breakdowns.
func (s *Service) TierStatus(ctx context.Context, req costingdomain.TierStatusRequest) (map[string]costingdomain.ProviderTierStatus, error) {
	result, err := s.Calculate(ctx, costingdomain.CalculateRequest{
		ProductQuantities: req.ProductQuantities,
		UseManualTiers:    req.UseManualTiers,
	})
	if err != nil {
		return nil, err
	}

	status := make(map[string]costingdomain.ProviderTierStatus, len(result.ProviderBreakdown))
	for _, provider := range result.ProviderBreakdown {
		status[provider.ProviderName] = costingdomain.ProviderTierStatus{
			ProviderID:     provider.ProviderID,
			CalculatedTier: provider.TierInfo.CalculatedTier,
			EffectiveTier:  provider.TierInfo.EffectiveTier,
			TotalUnits:     provider.TotalUnits,
		}
	}
	return status, nil
}

// ActiveProducts lists active products with their item counts.
func (s *Service) ActiveProducts(ctx context.Context) ([]costingdomain.ProductSummary, error) {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var summaries []costingdomain.ProductSummary
	for _, product := range snapshot.Products {
		if product.Status != catalogdomain.StatusActive {
			continue
		}
		summaries = append(summaries, costingdomain.ProductSummary{
			ProductID:   product.ID,
			Name:        product.Name,
			Description: product.Description,
			ItemCount:   len(snapshot.ProductItems[product.ID]),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}
