package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/procura/internal/cache"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/events"
	offerdomain "github.com/smallbiznis/procura/internal/offer/domain"
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

	offerRepo repository.Repository[offerdomain.Offer]
}

func NewService(p ServiceParam) offerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("offer.service"),
		genID: p.GenID,
		clock: p.Clock,

		outbox: p.Outbox,
		cache:  p.Cache,

		offerRepo: repository.ProvideStore[offerdomain.Offer](p.DB),
	}
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

func (s *Service) publish(ctx context.Context, eventType string, offerID snowflake.ID, payload map[string]any) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Publish(ctx, events.Event{
		Type:     eventType,
		Entity:   "offer",
		EntityID: offerID,
		Payload:  payload,
	}); err != nil {
		s.log.Warn("publish catalog event failed", zap.String("event", eventType), zap.Error(err))
	}
}

func normalizeStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	switch status {
	case "":
		return offerdomain.StatusActive, nil
	case offerdomain.StatusActive, offerdomain.StatusInactive:
		return status, nil
	default:
		return "", offerdomain.ErrInvalidStatus
	}
}

func (s *Service) CreateOffer(ctx context.Context, req offerdomain.CreateOfferRequest) (*offerdomain.Offer, error) {
	if req.ItemID == 0 || req.ProviderID == 0 || req.ProcessID == 0 {
		return nil, offerdomain.ErrInvalidOffer
	}
	if req.TierNumber < 1 || req.PricePerUnit.IsNegative() {
		return nil, offerdomain.ErrInvalidOffer
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &offerdomain.Offer{
		ID:           s.genID.Generate(),
		ItemID:       req.ItemID,
		ProviderID:   req.ProviderID,
		ProcessID:    req.ProcessID,
		TierNumber:   req.TierNumber,
		PricePerUnit: req.PricePerUnit,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.offerRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventOfferCreated, record.ID, map[string]any{
		"item_id":     record.ItemID.String(),
		"provider_id": record.ProviderID.String(),
		"tier_number": record.TierNumber,
	})
	return record, nil
}

func (s *Service) GetOffer(ctx context.Context, id snowflake.ID) (*offerdomain.Offer, error) {
	record, err := s.offerRepo.FindOne(ctx, &offerdomain.Offer{ID: id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, offerdomain.ErrOfferNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) ListOffers(ctx context.Context, filter offerdomain.OfferFilter) ([]offerdomain.Offer, error) {
	query := offerdomain.Offer{
		ItemID:     filter.ItemID,
		ProviderID: filter.ProviderID,
		ProcessID:  filter.ProcessID,
		Status:     filter.Status,
	}
	records, err := s.offerRepo.Find(ctx, &query, repository.WithOrder("id"))
	if err != nil {
		return nil, err
	}
	out := make([]offerdomain.Offer, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *Service) UpdateOffer(ctx context.Context, id snowflake.ID, req offerdomain.UpdateOfferRequest) (*offerdomain.Offer, error) {
	record, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TierNumber != nil {
		if *req.TierNumber < 1 {
			return nil, offerdomain.ErrInvalidOffer
		}
		record.TierNumber = *req.TierNumber
	}
	if req.PricePerUnit != nil {
		if req.PricePerUnit.IsNegative() {
			return nil, offerdomain.ErrInvalidOffer
		}
		record.PricePerUnit = *req.PricePerUnit
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	record.UpdatedAt = s.clock.Now()
	if err := s.offerRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ctx, events.EventOfferUpdated, record.ID, map[string]any{"status": record.Status})
	return record, nil
}

func (s *Service) DeleteOffer(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetOffer(ctx, id); err != nil {
		return err
	}
	if err := s.offerRepo.Delete(ctx, &offerdomain.Offer{ID: id}); err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, events.EventOfferDeleted, id, nil)
	return nil
}

// RankOffers lists active offers for the item whose tier applies at the
// given quantity, cheapest total cost first.
func (s *Service) RankOffers(ctx context.Context, itemID snowflake.ID, quantity int64) (*offerdomain.Ranking, error) {
	if itemID == 0 || quantity <= 0 {
		return nil, offerdomain.ErrInvalidOffer
	}

	offers, err := s.ListOffers(ctx, offerdomain.OfferFilter{ItemID: itemID, Status: offerdomain.StatusActive})
	if err != nil {
		return nil, err
	}

	qty := decimal.NewFromInt(quantity)
	var candidates []offerdomain.RankedOffer
	for _, offer := range offers {
		if int64(offer.TierNumber) > quantity {
			continue
		}
		candidates = append(candidates, offerdomain.RankedOffer{
			Offer:     offer,
			TotalCost: offer.PricePerUnit.Mul(qty),
		})
	}
	if len(candidates) == 0 {
		return nil, offerdomain.ErrNoRankedOffers
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Offer.PricePerUnit.LessThan(candidates[j].Offer.PricePerUnit)
	})

	sum := decimal.Zero
	for i := range candidates {
		candidates[i].Rank = i + 1
		sum = sum.Add(candidates[i].TotalCost)
	}
	best := candidates[0].TotalCost
	worst := candidates[len(candidates)-1].TotalCost
	for i := range candidates {
		candidates[i].SavingsVsWorst = worst.Sub(candidates[i].TotalCost)
	}

	return &offerdomain.Ranking{
		ItemID:     itemID,
		Quantity:   quantity,
		Offers:     candidates,
		Best:       best,
		Worst:      worst,
		Average:    sum.Div(decimal.NewFromInt(int64(len(candidates)))),
		MaxSavings: worst.Sub(best),
	}, nil
}
