package position

import (
	"sort"

	"alphixcore/internal/model"
)

// ValueFunc returns the current USD valuation of a position. Valuation
// depends on live price data owned elsewhere, so it is injected rather
// than computed here.
type ValueFunc func(model.Position) float64

// Aggregate merges direct and vault-derived positions into one view of
// a single pool. It filters both lists to the pool, resolves duplicate
// ids in favor of the direct variant, and sorts descending by the
// injected valuation with input order breaking ties. Aggregate is a
// pure function of its inputs: repeated calls with identical inputs
// yield an identical, order-stable result.
func Aggregate(direct, vault []model.Position, poolID string, value ValueFunc) []model.Position {
	canonical := model.CanonicalPoolID(poolID)

	merged := make([]model.Position, 0, len(direct)+len(vault))
	index := make(map[string]int, len(direct)+len(vault))

	appendMatching := func(positions []model.Position) {
		for _, p := range positions {
			if model.CanonicalPoolID(p.PoolID) != canonical {
				continue
			}
			at, seen := index[p.ID]
			if !seen {
				index[p.ID] = len(merged)
				merged = append(merged, p)
				continue
			}
			// Duplicate ids across sources should not happen by
			// construction; the direct variant wins when they do.
			if p.IsDirect() && !merged[at].IsDirect() {
				merged[at] = p
			}
		}
	}

	appendMatching(direct)
	appendMatching(vault)

	if value != nil {
		sort.SliceStable(merged, func(i, j int) bool {
			return value(merged[i]) > value(merged[j])
		})
	}

	return merged
}
