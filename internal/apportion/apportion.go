// Package apportion splits an integer volume across weighted shares using
// the largest-remainder method. Results are deterministic: equal remainders
// break ties by input order.
package apportion

import (
	"errors"
	"math"
	"sort"
)

// Mode controls how weights are interpreted.
type Mode string

const (
	// ModePercentage treats each weight as a percent of the total.
	ModePercentage Mode = "percentage"
	// ModeUnits treats weights as absolute units, scaled proportionally
	// when more than one share is present.
	ModeUnits Mode = "units"
)

var (
	ErrInvalidMode    = errors.New("invalid_mode")
	ErrNegativeTotal  = errors.New("negative_total")
	ErrNegativeWeight = errors.New("negative_weight")
	ErrNoWeights      = errors.New("no_weights")
)

// Apportion distributes total across the weights and returns one integer
// allocation per weight, in input order. The allocations sum to
// round(sum of raw shares), never exceed the raw target, and are all
// non-negative.
func Apportion(total int64, weights []float64, mode Mode) ([]int64, error) {
	if total < 0 {
		return nil, ErrNegativeTotal
	}
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, ErrNegativeWeight
		}
	}

	raw := make([]float64, len(weights))
	switch mode {
	case ModePercentage:
		for i, w := range weights {
			raw[i] = float64(total) * w / 100
		}
	case ModeUnits:
		if len(weights) == 1 {
			raw[0] = weights[0]
		} else {
			var sum float64
			for _, w := range weights {
				sum += w
			}
			if sum > 0 {
				for i, w := range weights {
					raw[i] = float64(total) * (w / sum)
				}
			}
		}
	default:
		return nil, ErrInvalidMode
	}

	var rawSum float64
	for _, r := range raw {
		rawSum += r
	}
	target := int64(math.Round(rawSum))

	allocated := make([]int64, len(raw))
	var floorSum int64
	type frac struct {
		index     int
		remainder float64
	}
	fracs := make([]frac, len(raw))
	for i, r := range raw {
		floor := math.Floor(r)
		allocated[i] = int64(floor)
		floorSum += int64(floor)
		fracs[i] = frac{index: i, remainder: r - floor}
	}

	sort.SliceStable(fracs, func(i, j int) bool {
		return fracs[i].remainder > fracs[j].remainder
	})

	extra := target - floorSum
	for i := 0; i < len(fracs) && int64(i) < extra; i++ {
		allocated[fracs[i].index]++
	}

	return allocated, nil
}
