package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
)

// resolvePrice looks up the unit price for an (item, provider, process) at
// the given tier. A tier without its own offer inherits the nearest lower
// tier's price, down to tier 1. The boolean reports whether any price was
// found.
func resolvePrice(snapshot *costingdomain.Snapshot, itemID, providerID, processID snowflake.ID, tier int) (decimal.Decimal, bool) {
	for t := tier; t >= 1; t-- {
		price, ok := snapshot.Prices[costingdomain.PriceKey{
			ItemID:     itemID,
			ProviderID: providerID,
			ProcessID:  processID,
			TierNumber: t,
		}]
		if ok {
			return price, true
		}
	}
	return decimal.Zero, false
}
