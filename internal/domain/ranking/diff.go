package ranking

import (
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
)

// ComputeRankingDiff compares two flat rankings. Climbers of the old ranking
// come first, in its order, as removed or with a delta (old rank minus new
// rank, zero included); climbers only in the new ranking follow as added.
func ComputeRankingDiff(old, updated []types.RankEntry) []types.DiffEntry {
	newRanks := make(map[model.ClimberID]int, len(updated))
	for _, e := range updated {
		newRanks[e.ClimberID] = e.Rank
	}

	out := make([]types.DiffEntry, 0, len(old)+len(updated))
	seen := make(map[model.ClimberID]struct{}, len(old))
	for _, e := range old {
		if _, dup := seen[e.ClimberID]; dup {
			continue
		}
		seen[e.ClimberID] = struct{}{}

		r, ok := newRanks[e.ClimberID]
		if !ok {
			out = append(out, types.DiffEntry{ClimberID: e.ClimberID, Removed: true})
			continue
		}
		delta := e.Rank - r
		out = append(out, types.DiffEntry{ClimberID: e.ClimberID, Delta: &delta})
	}
	for _, e := range updated {
		if _, ok := seen[e.ClimberID]; ok {
			continue
		}
		seen[e.ClimberID] = struct{}{}
		out = append(out, types.DiffEntry{ClimberID: e.ClimberID, Added: true})
	}
	return out
}
