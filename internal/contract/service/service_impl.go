package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/cache"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/clock"
	contractdomain "github.com/smallbiznis/procura/internal/contract/domain"
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

	processRepo  repository.Repository[contractdomain.Process]
	contractRepo repository.Repository[contractdomain.Contract]
	tierRepo     repository.Repository[contractdomain.ContractTier]
}

func NewService(p ServiceParam) contractdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("contract.service"),
		genID: p.GenID,
		clock: p.Clock,

		outbox: p.Outbox,
		cache:  p.Cache,

		processRepo:  repository.ProvideStore[contractdomain.Process](p.DB),
		contractRepo: repository.ProvideStore[contractdomain.Contract](p.DB),
		tierRepo:     repository.ProvideStore[contractdomain.ContractTier](p.DB),
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
		return contractdomain.StatusActive, nil
	case contractdomain.StatusActive, contractdomain.StatusInactive:
		return status, nil
	default:
		return "", contractdomain.ErrInvalidStatus
	}
}

// ---- Processes ----

func (s *Service) CreateProcess(ctx context.Context, req contractdomain.CreateProcessRequest) (*contractdomain.Process, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, contractdomain.ErrInvalidName
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &contractdomain.Process{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.processRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) GetProcess(ctx context.Context, id snowflake.ID) (*contractdomain.Process, error) {
	record, err := s.processRepo.FindOne(ctx, &contractdomain.Process{ID: id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contractdomain.ErrProcessNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) ListProcesses(ctx context.Context) ([]contractdomain.Process, error) {
	records, err := s.processRepo.Find(ctx, &contractdomain.Process{}, repository.WithOrder("name"))
	if err != nil {
		return nil, err
	}
	out := make([]contractdomain.Process, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *Service) UpdateProcess(ctx context.Context, id snowflake.ID, req contractdomain.UpdateProcessRequest) (*contractdomain.Process, error) {
	record, err := s.GetProcess(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, contractdomain.ErrInvalidName
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
	if err := s.processRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate()
	return record, nil
}

func (s *Service) DeleteProcess(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetProcess(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queries := []string{
			`DELETE FROM offers WHERE process_id = ?`,
			`DELETE FROM contract_tiers WHERE contract_id IN (SELECT id FROM contracts WHERE process_id = ?)`,
			`DELETE FROM contracts WHERE process_id = ?`,
			`DELETE FROM processes WHERE id = ?`,
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
	return nil
}

// ---- Contracts ----

func (s *Service) CreateContract(ctx context.Context, req contractdomain.CreateContractRequest) (*contractdomain.Contract, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, contractdomain.ErrInvalidName
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetProcess(ctx, req.ProcessID); err != nil {
		return nil, err
	}
	if err := s.ensureProvider(ctx, req.ProviderID); err != nil {
		return nil, err
	}
	if err := validateTierSpecs(req.Tiers); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &contractdomain.Contract{
		ID:         s.genID.Generate(),
		ProcessID:  req.ProcessID,
		ProviderID: req.ProviderID,
		Name:       name,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if record.Status == contractdomain.StatusActive {
			if err := s.ensureNoActiveContract(tx, record.ProcessID, record.ProviderID, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return s.replaceTiers(tx, record.ID, req.Tiers, now)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventContractCreated, "contract", record.ID, map[string]any{
		"process_id":  record.ProcessID.String(),
		"provider_id": record.ProviderID.String(),
	})
	return record, nil
}

func (s *Service) GetContract(ctx context.Context, id snowflake.ID) (*contractdomain.Contract, error) {
	record, err := s.contractRepo.FindOne(ctx, &contractdomain.Contract{ID: id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contractdomain.ErrContractNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) ListContracts(ctx context.Context, filter contractdomain.ContractFilter) ([]contractdomain.Contract, error) {
	query := contractdomain.Contract{
		ProcessID:  filter.ProcessID,
		ProviderID: filter.ProviderID,
		Status:     filter.Status,
	}
	records, err := s.contractRepo.Find(ctx, &query, repository.WithOrder("id"))
	if err != nil {
		return nil, err
	}
	out := make([]contractdomain.Contract, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *Service) UpdateContract(ctx context.Context, id snowflake.ID, req contractdomain.UpdateContractRequest) (*contractdomain.Contract, error) {
	record, err := s.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, contractdomain.ErrInvalidName
		}
		record.Name = name
	}
	activating := false
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		activating = status == contractdomain.StatusActive && record.Status != contractdomain.StatusActive
		record.Status = status
	}
	record.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if activating {
			if err := s.ensureNoActiveContract(tx, record.ProcessID, record.ProviderID, record.ID); err != nil {
				return err
			}
		}
		return tx.Save(record).Error
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventContractUpdated, "contract", record.ID, map[string]any{"status": record.Status})
	return record, nil
}

func (s *Service) DeleteContract(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetContract(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM contract_tiers WHERE contract_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM contracts WHERE id = ?`, id).Error
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventContractDeleted, "contract", id, nil)
	return nil
}

// ensureProvider rejects contracts pointing at a missing vendor. A contract
// with a zero or unknown provider could never match an offer.
func (s *Service) ensureProvider(ctx context.Context, providerID snowflake.ID) error {
	if providerID == 0 {
		return catalogdomain.ErrProviderNotFound
	}
	var count int64
	err := s.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM providers WHERE id = ?`, providerID).
		Scan(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return catalogdomain.ErrProviderNotFound
	}
	return nil
}

// ensureNoActiveContract guards the one-active-contract-per-(process,
// provider) rule inside the surrounding transaction.
func (s *Service) ensureNoActiveContract(tx *gorm.DB, processID, providerID, excludeID snowflake.ID) error {
	var count int64
	err := tx.Raw(
		`SELECT COUNT(*) FROM contracts
		 WHERE process_id = ? AND provider_id = ? AND status = ? AND id != ?`,
		processID, providerID, contractdomain.StatusActive, excludeID,
	).Scan(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return contractdomain.ErrDuplicateContract
	}
	return nil
}

// ---- Tiers ----

func validateTierSpecs(tiers []contractdomain.TierSpec) error {
	seen := make(map[int]bool, len(tiers))
	selected := 0
	for _, tier := range tiers {
		if tier.TierNumber < 1 || tier.ThresholdUnits < 0 || seen[tier.TierNumber] {
			return contractdomain.ErrInvalidTier
		}
		seen[tier.TierNumber] = true
		if tier.IsSelected {
			selected++
		}
	}
	if selected > 1 {
		return contractdomain.ErrInvalidTier
	}
	return nil
}

func (s *Service) replaceTiers(tx *gorm.DB, contractID snowflake.ID, tiers []contractdomain.TierSpec, now time.Time) error {
	if err := tx.Exec(`DELETE FROM contract_tiers WHERE contract_id = ?`, contractID).Error; err != nil {
		return err
	}
	for _, tier := range tiers {
		row := contractdomain.ContractTier{
			ID:             s.genID.Generate(),
			ContractID:     contractID,
			TierNumber:     tier.TierNumber,
			ThresholdUnits: tier.ThresholdUnits,
			IsSelected:     tier.IsSelected,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SetTiers(ctx context.Context, contractID snowflake.ID, tiers []contractdomain.TierSpec) ([]contractdomain.ContractTier, error) {
	if _, err := s.GetContract(ctx, contractID); err != nil {
		return nil, err
	}
	if err := validateTierSpecs(tiers); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.replaceTiers(tx, contractID, tiers, now)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return s.TiersForContract(ctx, contractID)
}

func (s *Service) TiersForContract(ctx context.Context, contractID snowflake.ID) ([]contractdomain.ContractTier, error) {
	records, err := s.tierRepo.Find(ctx,
		&contractdomain.ContractTier{ContractID: contractID},
		repository.WithOrder("tier_number"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]contractdomain.ContractTier, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TierNumber < out[j].TierNumber })
	return out, nil
}

// SelectTier marks one tier as the manual choice and clears every other
// selection on the contract in the same transaction.
func (s *Service) SelectTier(ctx context.Context, contractID snowflake.ID, tierNumber int) error {
	if _, err := s.GetContract(ctx, contractID); err != nil {
		return err
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE contract_tiers SET is_selected = TRUE, updated_at = ?
			 WHERE contract_id = ? AND tier_number = ?`,
			now, contractID, tierNumber,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return contractdomain.ErrTierNotFound
		}
		return tx.Exec(
			`UPDATE contract_tiers SET is_selected = FALSE, updated_at = ?
			 WHERE contract_id = ? AND tier_number != ?`,
			now, contractID, tierNumber,
		).Error
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventTierSelected, "contract", contractID, map[string]any{"tier_number": tierNumber})
	return nil
}

// ClearSelectedTier returns the contract to calculated tier resolution.
func (s *Service) ClearSelectedTier(ctx context.Context, contractID snowflake.ID) error {
	if _, err := s.GetContract(ctx, contractID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Exec(
		`UPDATE contract_tiers SET is_selected = FALSE, updated_at = ? WHERE contract_id = ?`,
		s.clock.Now(), contractID,
	).Error
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}
