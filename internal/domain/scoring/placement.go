package scoring

import (
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
)

// Placement is a climber's numeric rank. Ranks start at 1.
type Placement struct {
	ClimberID model.ClimberID
	Rank      int
}

// SortPlacements orders placements by rank, then by climber id.
func SortPlacements(ps []Placement) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Rank != ps[j].Rank {
			return ps[i].Rank < ps[j].Rank
		}
		return ps[i].ClimberID < ps[j].ClimberID
	})
}

// AppendTiedLast adds every climber not already placed, all sharing the rank
// that follows the placed ones: one more than the number of placed climbers.
func AppendTiedLast(ps []Placement, climbers []model.Climber) []Placement {
	placed := make(map[model.ClimberID]struct{}, len(ps))
	for _, p := range ps {
		placed[p.ClimberID] = struct{}{}
	}
	last := len(ps) + 1
	var missing []model.ClimberID
	for _, c := range climbers {
		if _, ok := placed[c.ID]; ok {
			continue
		}
		placed[c.ID] = struct{}{}
		missing = append(missing, c.ID)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	for _, id := range missing {
		ps = append(ps, Placement{ClimberID: id, Rank: last})
	}
	return ps
}

// competitionRanks assigns ranks to ids already sorted best first. An id tied
// with its predecessor shares its rank; otherwise its rank is its 1-based
// position, which leaves gaps after tie clusters.
func competitionRanks(ids []model.ClimberID, tied func(a, b model.ClimberID) bool) []Placement {
	out := make([]Placement, len(ids))
	for i, id := range ids {
		rank := i + 1
		if i > 0 && tied(ids[i-1], id) {
			rank = out[i-1].Rank
		}
		out[i] = Placement{ClimberID: id, Rank: rank}
	}
	return out
}

// climberIDs returns the map keys in ascending order so that sorting stays
// deterministic across calls.
func climberIDs[T any](m map[model.ClimberID]T) []model.ClimberID {
	ids := make([]model.ClimberID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
