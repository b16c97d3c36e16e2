package domain

import "github.com/bwmarrin/snowflake"

// AllocationMode distinguishes percentage weights from absolute unit weights.
type AllocationMode string

const (
	ModePercentage AllocationMode = "percentage"
	ModeUnits      AllocationMode = "units"
)

// Valid reports whether the mode is one of the known values.
func (m AllocationMode) Valid() bool {
	return m == ModePercentage || m == ModeUnits
}

// ProviderWeight is one provider's share in a weight set.
type ProviderWeight struct {
	ProviderID snowflake.ID `json:"provider_id"`
	Value      float64      `json:"value"`
}

// WeightSet is an ordered list of provider weights under a single mode.
type WeightSet struct {
	Mode    AllocationMode   `json:"mode"`
	Weights []ProviderWeight `json:"weights"`
}

// AllocationKind tags the Allocation variant.
type AllocationKind string

const (
	AllocationCollective AllocationKind = "collective"
	AllocationPerItem    AllocationKind = "per_item"
)

// Allocation is the tagged variant describing how a product's volume is
// split across providers: one weight set for every item, or a distinct
// weight set per item. The variant is decided once when rows are loaded and
// never re-inspected downstream.
type Allocation struct {
	Kind       AllocationKind             `json:"kind"`
	Collective *WeightSet                 `json:"collective,omitempty"`
	PerItem    map[snowflake.ID]WeightSet `json:"per_item,omitempty"`
}

// IsZero reports whether no allocation is configured.
func (a Allocation) IsZero() bool {
	switch a.Kind {
	case AllocationCollective:
		return a.Collective == nil || len(a.Collective.Weights) == 0
	case AllocationPerItem:
		return len(a.PerItem) == 0
	default:
		return true
	}
}

// ForItem returns the weight set applying to the given item, if any.
func (a Allocation) ForItem(itemID snowflake.ID) (WeightSet, bool) {
	switch a.Kind {
	case AllocationCollective:
		if a.Collective == nil || len(a.Collective.Weights) == 0 {
			return WeightSet{}, false
		}
		return *a.Collective, true
	case AllocationPerItem:
		set, ok := a.PerItem[itemID]
		return set, ok && len(set.Weights) > 0
	default:
		return WeightSet{}, false
	}
}

// equalWeightSets compares mode and the (provider, value) pairs in order.
func equalWeightSets(a, b WeightSet) bool {
	if a.Mode != b.Mode || len(a.Weights) != len(b.Weights) {
		return false
	}
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			return false
		}
	}
	return true
}

// FoldAllocation assembles the tagged variant from per-item weight sets.
// When every item of the product carries an identical weight set the
// collective form is returned.
func FoldAllocation(itemIDs []snowflake.ID, perItem map[snowflake.ID]WeightSet) Allocation {
	if len(perItem) == 0 {
		return Allocation{}
	}

	if len(itemIDs) > 0 && len(perItem) == len(itemIDs) {
		first, ok := perItem[itemIDs[0]]
		if ok {
			allSame := true
			for _, itemID := range itemIDs[1:] {
				set, present := perItem[itemID]
				if !present || !equalWeightSets(first, set) {
					allSame = false
					break
				}
			}
			if allSame {
				collective := first
				return Allocation{Kind: AllocationCollective, Collective: &collective}
			}
		}
	}

	return Allocation{Kind: AllocationPerItem, PerItem: perItem}
}
