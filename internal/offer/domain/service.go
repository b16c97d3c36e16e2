package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Service manages offers and ranks them for a purchase quantity.
type Service interface {
	CreateOffer(ctx context.Context, req CreateOfferRequest) (*Offer, error)
	GetOffer(ctx context.Context, id snowflake.ID) (*Offer, error)
	ListOffers(ctx context.Context, filter OfferFilter) ([]Offer, error)
	UpdateOffer(ctx context.Context, id snowflake.ID, req UpdateOfferRequest) (*Offer, error)
	DeleteOffer(ctx context.Context, id snowflake.ID) error

	RankOffers(ctx context.Context, itemID snowflake.ID, quantity int64) (*Ranking, error)
}

var (
	ErrOfferNotFound  = errors.New("offer_not_found")
	ErrInvalidOffer   = errors.New("invalid_offer")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrNoRankedOffers = errors.New("no_ranked_offers")
)

type CreateOfferRequest struct {
	ItemID       snowflake.ID    `json:"item_id"`
	ProviderID   snowflake.ID    `json:"provider_id"`
	ProcessID    snowflake.ID    `json:"process_id"`
	TierNumber   int             `json:"tier_number"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Status       string          `json:"status"`
}

type UpdateOfferRequest struct {
	TierNumber   *int             `json:"tier_number"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
	Status       *string          `json:"status"`
}

// OfferFilter narrows ListOffers; zero fields match everything.
type OfferFilter struct {
	ItemID     snowflake.ID `form:"item_id"`
	ProviderID snowflake.ID `form:"provider_id"`
	ProcessID  snowflake.ID `form:"process_id"`
	Status     string       `form:"status"`
}

// RankedOffer is one candidate in a ranking, cheapest first.
type RankedOffer struct {
	Rank           int             `json:"rank"`
	Offer          Offer           `json:"offer"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	SavingsVsWorst decimal.Decimal `json:"savings_vs_worst"`
}

// Ranking summarizes the candidates for one item and quantity.
type Ranking struct {
	ItemID     snowflake.ID    `json:"item_id"`
	Quantity   int64           `json:"quantity"`
	Offers     []RankedOffer   `json:"offers"`
	Best       decimal.Decimal `json:"best_total_cost"`
	Worst      decimal.Decimal `json:"worst_total_cost"`
	Average    decimal.Decimal `json:"average_total_cost"`
	MaxSavings decimal.Decimal `json:"max_savings"`
}
