package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/cache"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/events"
	"github.com/smallbiznis/procura/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox `optional:"true"`
	Cache  cache.Flusher  `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	outbox *events.Outbox
	cache  cache.Flusher

	providerRepo   repository.Repository[catalogdomain.Provider]
	itemRepo       repository.Repository[catalogdomain.Item]
	productRepo    repository.Repository[catalogdomain.Product]
	allocationRepo repository.Repository[catalogdomain.AllocationRow]
	multiplierRepo repository.Repository[catalogdomain.PriceMultiplier]
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,

		outbox: p.Outbox,
		cache:  p.Cache,

		providerRepo:   repository.ProvideStore[catalogdomain.Provider](p.DB),
		itemRepo:       repository.ProvideStore[catalogdomain.Item](p.DB),
		productRepo:    repository.ProvideStore[catalogdomain.Product](p.DB),
		allocationRepo: repository.ProvideStore[catalogdomain.AllocationRow](p.DB),
		multiplierRepo: repository.ProvideStore[catalogdomain.PriceMultiplier](p.DB),
	}
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

func (s *Service) publish(ctx context.Context, eventType, entity string, entityID snowflake.ID, payload map[string]any) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Publish(ctx, events.Event{
		Type:     eventType,
		Entity:   entity,
		EntityID: entityID,
		Payload:  payload,
	}); err != nil {
		s.log.Warn("publish catalog event failed", zap.String("event", eventType), zap.Error(err))
	}
}

func normalizeStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	switch status {
	case "":
		return catalogdomain.StatusActive, nil
	case catalogdomain.StatusActive, catalogdomain.StatusInactive:
		return status, nil
	default:
		return "", catalogdomain.ErrInvalidStatus
	}
}

// ---- Providers ----

func (s *Service) CreateProvider(ctx context.Context, req catalogdomain.CreateProviderRequest) (*catalogdomain.Provider, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &catalogdomain.Provider{
		ID:        s.genID.Generate(),
		Name:      name,
		Details:   strings.TrimSpace(req.Details),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.providerRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventProviderCreated, "provider", record.ID, map[string]any{"name": record.Name})
	return record, nil
}

func (s *Service) GetProvider(ctx context.Context, id snowflake.ID) (*catalogdomain.Provider, error) {
	record, err := s.providerRepo.FindOne(ctx, &catalogdomain.Provider{ID: id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrProviderNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) ListProviders(ctx context.Context) ([]catalogdomain.Provider, error) {
	records, err := s.providerRepo.Find(ctx, &catalogdomain.Provider{}, repository.WithOrder("name"))
	if err != nil {
		return nil, err
	}
	return deref(records), nil
}

func (s *Service) UpdateProvider(ctx context.Context, id snowflake.ID, req catalogdomain.UpdateProviderRequest) (*catalogdomain.Provider, error) {
	record, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		record.Name = name
	}
	if req.Details != nil {
		record.Details = strings.TrimSpace(*req.Details)
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	record.UpdatedAt = s.clock.Now()
	if err := s.providerRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventProviderUpdated, "provider", record.ID, map[string]any{"status": record.Status})
	return record, nil
}

func (s *Service) DeleteProvider(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetProvider(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queries := []string{
			`DELETE FROM offers WHERE provider_id = ?`,
			`DELETE FROM product_item_allocations WHERE provider_id = ?`,
			`DELETE FROM contract_tiers WHERE contract_id IN (SELECT id FROM contracts WHERE provider_id = ?)`,
			`DELETE FROM contracts WHERE provider_id = ?`,
			`DELETE FROM providers WHERE id = ?`,
		}
		for _, query := range queries {
			if err := tx.Exec(query, id).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventProviderDeleted, "provider", id, nil)
	return nil
}

// ---- Items ----

func (s *Service) CreateItem(ctx context.Context, req catalogdomain.CreateItemRequest) (*catalogdomain.Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &catalogdomain.Item{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.itemRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventItemCreated, "item", record.ID, map[string]any{"name": record.Name})
	return record, nil
}

func (s *Service) GetItem(ctx context.Context, id snowflake.ID) (*catalogdomain.Item, error) {
	record, err := s.itemRepo.FindOne(ctx, &catalogdomain.Item{ID: id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrItemNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) ListItems(ctx context.Context) ([]catalogdomain.Item, error) {
	records, err := s.itemRepo.Find(ctx, &catalogdomain.Item{}, repository.WithOrder("name"))
	if err != nil {
		return nil, err
	}
	return deref(records), nil
}

func (s *Service) UpdateItem(ctx context.Context, id snowflake.ID, req catalogdomain.UpdateItemRequest) (*catalogdomain.Item, error) {
	record, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		record.Name = name
	}
	if req.Description != nil {
		record.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	record.UpdatedAt = s.clock.Now()
	if err := s.itemRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventItemUpdated, "item", record.ID, map[string]any{"status": record.Status})
	return record, nil
}

func (s *Service) DeleteItem(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queries := []string{
			`DELETE FROM offers WHERE item_id = ?`,
			`DELETE FROM product_items WHERE item_id = ?`,
			`DELETE FROM product_item_allocations WHERE item_id = ?`,
			`DELETE FROM product_item_multipliers WHERE item_id = ?`,
			`DELETE FROM items WHERE id = ?`,
		}
		for _, query := range queries {
			if err := tx.Exec(query, id).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventItemDeleted, "item", id, nil)
	return nil
}

// ---- Products ----

func (s *Service) CreateProduct(ctx context.Context, req catalogdomain.CreateProductRequest) (*catalogdomain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &catalogdomain.Product{
		ID:            s.genID.Generate(),
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		ProxyQuantity: req.ProxyQuantity,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.productRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventProductCreated, "product", record.ID, map[string]any{"name": record.Name})
	return record, nil
}

func (s *Service) GetProduct(ctx context.Context, id snowflake.ID) (*catalogdomain.Product, error) {
	record, err := s.productRepo.FindOne(ctx, &catalogdomain.Product{ID: id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrProductNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]catalogdomain.Product, error) {
	records, err := s.productRepo.Find(ctx, &catalogdomain.Product{}, repository.WithOrder("name"))
	if err != nil {
		return nil, err
	}
	return deref(records), nil
}

func (s *Service) UpdateProduct(ctx context.Context, id snowflake.ID, req catalogdomain.UpdateProductRequest) (*catalogdomain.Product, error) {
	record, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		record.Name = name
	}
	if req.Description != nil {
		record.Description = strings.TrimSpace(*req.Description)
	}
	if req.ProxyQuantity != nil {
		record.ProxyQuantity = *req.ProxyQuantity
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	record.UpdatedAt = s.clock.Now()
	if err := s.productRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventProductUpdated, "product", record.ID, map[string]any{"status": record.Status})
	return record, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queries := []string{
			`DELETE FROM product_items WHERE product_id = ?`,
			`DELETE FROM product_item_allocations WHERE product_id = ?`,
			`DELETE FROM product_item_multipliers WHERE product_id = ?`,
			`DELETE FROM forecasts WHERE product_id = ?`,
			`DELETE FROM actuals WHERE product_id = ?`,
			`DELETE FROM products WHERE id = ?`,
		}
		for _, query := range queries {
			if err := tx.Exec(query, id).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventProductDeleted, "product", id, nil)
	return nil
}

// ---- Product items ----

func (s *Service) SetProductItems(ctx context.Context, productID snowflake.ID, itemIDs []snowflake.ID) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	for _, itemID := range itemIDs {
		if _, err := s.GetItem(ctx, itemID); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_items WHERE product_id = ?`, productID).Error; err != nil {
			return err
		}
		for _, itemID := range itemIDs {
			link := catalogdomain.ProductItem{ProductID: productID, ItemID: itemID, CreatedAt: now}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		// Drop configuration that referenced items no longer on the product.
		prune := []string{
			`DELETE FROM product_item_allocations WHERE product_id = ?
			 AND item_id NOT IN (SELECT item_id FROM product_items WHERE product_id = ?)`,
			`DELETE FROM product_item_multipliers WHERE product_id = ?
			 AND item_id NOT IN (SELECT item_id FROM product_items WHERE product_id = ?)`,
		}
		for _, query := range prune {
			if err := tx.Exec(query, productID, productID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Service) ItemsForProduct(ctx context.Context, productID snowflake.ID) ([]catalogdomain.Item, error) {
	var items []catalogdomain.Item
	err := s.db.WithContext(ctx).Raw(
		`SELECT i.* FROM items i
		 JOIN product_items pi ON pi.item_id = i.id
		 WHERE pi.product_id = ?
		 ORDER BY i.name`,
		productID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ---- Allocations ----

func (s *Service) SetAllocation(ctx context.Context, productID snowflake.ID, allocation catalogdomain.Allocation) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	if allocation.IsZero() {
		return catalogdomain.ErrInvalidAllocation
	}

	items, err := s.ItemsForProduct(ctx, productID)
	if err != nil {
		return err
	}

	type rowSpec struct {
		itemID snowflake.ID
		set    catalogdomain.WeightSet
	}
	var specs []rowSpec

	switch allocation.Kind {
	case catalogdomain.AllocationCollective:
		if err := validateWeightSet(*allocation.Collective); err != nil {
			return err
		}
		for _, item := range items {
			specs = append(specs, rowSpec{itemID: item.ID, set: *allocation.Collective})
		}
	case catalogdomain.AllocationPerItem:
		onProduct := make(map[snowflake.ID]bool, len(items))
		for _, item := range items {
			onProduct[item.ID] = true
		}
		for itemID, set := range allocation.PerItem {
			if !onProduct[itemID] {
				return catalogdomain.ErrInvalidAllocation
			}
			if err := validateWeightSet(set); err != nil {
				return err
			}
			specs = append(specs, rowSpec{itemID: itemID, set: set})
		}
	default:
		return catalogdomain.ErrInvalidAllocation
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_item_allocations WHERE product_id = ?`, productID).Error; err != nil {
			return err
		}
		for _, spec := range specs {
			for _, weight := range spec.set.Weights {
				if weight.Value == 0 {
					continue
				}
				row := catalogdomain.AllocationRow{
					ID:         s.genID.Generate(),
					ProductID:  productID,
					ItemID:     spec.itemID,
					ProviderID: weight.ProviderID,
					Mode:       string(spec.set.Mode),
					Value:      weight.Value,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventAllocationSet, "product", productID, map[string]any{"kind": string(allocation.Kind)})
	return nil
}

func (s *Service) AllocationForProduct(ctx context.Context, productID snowflake.ID) (catalogdomain.Allocation, error) {
	rows, err := s.allocationRepo.Find(ctx,
		&catalogdomain.AllocationRow{ProductID: productID},
		repository.WithOrder("item_id, provider_id"),
	)
	if err != nil {
		return catalogdomain.Allocation{}, err
	}

	perItem := make(map[snowflake.ID]catalogdomain.WeightSet)
	for _, row := range rows {
		set := perItem[row.ItemID]
		set.Mode = catalogdomain.AllocationMode(row.Mode)
		set.Weights = append(set.Weights, catalogdomain.ProviderWeight{
			ProviderID: row.ProviderID,
			Value:      row.Value,
		})
		perItem[row.ItemID] = set
	}

	items, err := s.ItemsForProduct(ctx, productID)
	if err != nil {
		return catalogdomain.Allocation{}, err
	}
	itemIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}
	return catalogdomain.FoldAllocation(itemIDs, perItem), nil
}

func validateWeightSet(set catalogdomain.WeightSet) error {
	if !set.Mode.Valid() || len(set.Weights) == 0 {
		return catalogdomain.ErrInvalidAllocation
	}
	for _, weight := range set.Weights {
		if weight.ProviderID == 0 || weight.Value < 0 {
			return catalogdomain.ErrInvalidAllocation
		}
	}
	return nil
}

// ---- Price multipliers ----

func (s *Service) SetMultipliers(ctx context.Context, productID snowflake.ID, multipliers []catalogdomain.SetMultiplierEntry) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	for _, entry := range multipliers {
		if entry.Multiplier <= 0 {
			return catalogdomain.ErrInvalidMultiplier
		}
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_item_multipliers WHERE product_id = ?`, productID).Error; err != nil {
			return err
		}
		for _, entry := range multipliers {
			// A multiplier of exactly 1.0 is the default; no row needed.
			if entry.Multiplier == 1.0 {
				continue
			}
			row := catalogdomain.PriceMultiplier{
				ID:         s.genID.Generate(),
				ProductID:  productID,
				ItemID:     entry.ItemID,
				Multiplier: entry.Multiplier,
				Notes:      strings.TrimSpace(entry.Notes),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventMultipliersSet, "product", productID, map[string]any{"count": len(multipliers)})
	return nil
}

func (s *Service) MultipliersForProduct(ctx context.Context, productID snowflake.ID) (map[snowflake.ID]catalogdomain.PriceMultiplier, error) {
	rows, err := s.multiplierRepo.Find(ctx, &catalogdomain.PriceMultiplier{ProductID: productID})
	if err != nil {
		return nil, err
	}
	result := make(map[snowflake.ID]catalogdomain.PriceMultiplier, len(rows))
	for _, row := range rows {
		result[row.ItemID] = *row
	}
	return result, nil
}

func deref[T any](records []*T) []T {
	out := make([]T, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out = append(out, *record)
	}
	return out
}
