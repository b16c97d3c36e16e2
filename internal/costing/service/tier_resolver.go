package service

import (
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
)

// resolveTier picks the effective tier for a contract ladder. Tiers must be
// sorted ascending by threshold: the calculated tier is the first whose
// threshold strictly exceeds the lookup volume, the last tier once every
// threshold is passed, and tier 1 for an empty ladder.
//
// With preferManual set and exactly one tier flagged as selected, the
// selection becomes the effective tier and the source reads "manual".
// CalculatedTier keeps the volume-derived tier either way.
func resolveTier(tiers []costingdomain.TierRef, lookupVolume int64, preferManual bool) costingdomain.TierInfo {
	info := costingdomain.TierInfo{
		CalculatedTier: 1,
		EffectiveTier:  1,
		Source:         costingdomain.TierSourceCalculated,
		LookupVolume:   lookupVolume,
	}

	found := false
	for _, tier := range tiers {
		if tier.ThresholdUnits > lookupVolume {
			info.CalculatedTier = tier.TierNumber
			found = true
			break
		}
	}
	if !found && len(tiers) > 0 {
		info.CalculatedTier = tiers[len(tiers)-1].TierNumber
	}
	info.EffectiveTier = info.CalculatedTier

	if preferManual {
		var selected *costingdomain.TierRef
		count := 0
		for i := range tiers {
			if tiers[i].IsSelected {
				selected = &tiers[i]
				count++
			}
		}
		if count == 1 {
			info.EffectiveTier = selected.TierNumber
			info.Source = costingdomain.TierSourceManual
		}
	}

	return info
}
