package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/procura/internal/clock"
	offerdomain "github.com/smallbiznis/procura/internal/offer/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOfferTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
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
	).Error; err != nil {
		t.Fatalf("create offers: %v", err)
	}
	return db
}

func newOfferTestService(t *testing.T) offerdomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(ServiceParam{
		DB:    setupOfferTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
	})
}

func createTestOffer(t *testing.T, svc offerdomain.Service, provider snowflake.ID, tier int, price string) *offerdomain.Offer {
	t.Helper()
	offer, err := svc.CreateOffer(context.Background(), offerdomain.CreateOfferRequest{
		ItemID:       200,
		ProviderID:   provider,
		ProcessID:    400,
		TierNumber:   tier,
		PricePerUnit: decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return offer
}

func TestCreateOfferValidation(t *testing.T) {
	svc := newOfferTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  offerdomain.CreateOfferRequest
		want error
	}{
		{"missing item", offerdomain.CreateOfferRequest{ProviderID: 300, ProcessID: 400, TierNumber: 1}, offerdomain.ErrInvalidOffer},
		{"tier below one", offerdomain.CreateOfferRequest{ItemID: 200, ProviderID: 300, ProcessID: 400, TierNumber: 0}, offerdomain.ErrInvalidOffer},
		{"negative price", offerdomain.CreateOfferRequest{
			ItemID: 200, ProviderID: 300, ProcessID: 400, TierNumber: 1,
			PricePerUnit: decimal.RequireFromString("-0.01"),
		}, offerdomain.ErrInvalidOffer},
		{"unknown status", offerdomain.CreateOfferRequest{
			ItemID: 200, ProviderID: 300, ProcessID: 400, TierNumber: 1, Status: "paused",
		}, offerdomain.ErrInvalidStatus},
	}
	for _, tc := range cases {
		if _, err := svc.CreateOffer(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRankOffersCheapestFirst(t *testing.T) {
	svc := newOfferTestService(t)

	createTestOffer(t, svc, 300, 1, "2.50")
	createTestOffer(t, svc, 301, 1, "2.20")
	createTestOffer(t, svc, 302, 1, "2.40")

	ranking, err := svc.RankOffers(context.Background(), 200, 100)
	if err != nil {
		t.Fatalf("rank offers: %v", err)
	}
	if len(ranking.Offers) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranking.Offers))
	}

	wantProviders := []snowflake.ID{301, 302, 300}
	for i, want := range wantProviders {
		got := ranking.Offers[i]
		if got.Offer.ProviderID != want {
			t.Fatalf("rank %d: expected provider %d, got %d", i+1, want, got.Offer.ProviderID)
		}
		if got.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, got.Rank)
		}
	}

	if !ranking.Best.Equal(decimal.RequireFromString("220")) {
		t.Fatalf("expected best 220, got %s", ranking.Best)
	}
	if !ranking.Worst.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("expected worst 250, got %s", ranking.Worst)
	}
	if !ranking.MaxSavings.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected max savings 30, got %s", ranking.MaxSavings)
	}
	avg := decimal.RequireFromString("710").Div(decimal.NewFromInt(3))
	if !ranking.Average.Equal(avg) {
		t.Fatalf("expected average %s, got %s", avg, ranking.Average)
	}
	if !ranking.Offers[0].SavingsVsWorst.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected best candidate to save 30 vs worst, got %s", ranking.Offers[0].SavingsVsWorst)
	}
	if !ranking.Offers[2].SavingsVsWorst.IsZero() {
		t.Fatalf("expected worst candidate to save nothing, got %s", ranking.Offers[2].SavingsVsWorst)
	}
}

func TestRankOffersSkipsTiersAboveQuantity(t *testing.T) {
	svc := newOfferTestService(t)
	ctx := context.Background()

	createTestOffer(t, svc, 300, 1, "2.50")
	createTestOffer(t, svc, 301, 500, "1.00")

	ranking, err := svc.RankOffers(ctx, 200, 100)
	if err != nil {
		t.Fatalf("rank offers: %v", err)
	}
	if len(ranking.Offers) != 1 {
		t.Fatalf("expected the high-tier offer excluded, got %d candidates", len(ranking.Offers))
	}
	if ranking.Offers[0].Offer.ProviderID != 300 {
		t.Fatalf("expected provider 300, got %d", ranking.Offers[0].Offer.ProviderID)
	}
}

func TestRankOffersExcludesInactive(t *testing.T) {
	svc := newOfferTestService(t)
	ctx := context.Background()

	createTestOffer(t, svc, 300, 1, "2.50")
	cheap := createTestOffer(t, svc, 301, 1, "1.00")
	inactive := offerdomain.StatusInactive
	if _, err := svc.UpdateOffer(ctx, cheap.ID, offerdomain.UpdateOfferRequest{Status: &inactive}); err != nil {
		t.Fatalf("deactivate offer: %v", err)
	}

	ranking, err := svc.RankOffers(ctx, 200, 100)
	if err != nil {
		t.Fatalf("rank offers: %v", err)
	}
	if len(ranking.Offers) != 1 || ranking.Offers[0].Offer.ProviderID != 300 {
		t.Fatalf("expected only the active offer ranked, got %+v", ranking.Offers)
	}
}

func TestRankOffersNoCandidates(t *testing.T) {
	svc := newOfferTestService(t)

	_, err := svc.RankOffers(context.Background(), 200, 100)
	if !errors.Is(err, offerdomain.ErrNoRankedOffers) {
		t.Fatalf("expected no_ranked_offers, got %v", err)
	}
}

func TestDeleteOfferRemovesRow(t *testing.T) {
	svc := newOfferTestService(t)
	ctx := context.Background()

	offer := createTestOffer(t, svc, 300, 1, "2.50")
	if err := svc.DeleteOffer(ctx, offer.ID); err != nil {
		t.Fatalf("delete offer: %v", err)
	}
	if _, err := svc.GetOffer(ctx, offer.ID); !errors.Is(err, offerdomain.ErrOfferNotFound) {
		t.Fatalf("expected offer_not_found, got %v", err)
	}
}
