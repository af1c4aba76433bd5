// Package ranking composes the scorers into group, round and overall
// standings and diffs successive standings.
package ranking

import (
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
)

// CountedDetail carries the vectors of the counted disciplines.
type CountedDetail struct {
	TopsInTries  []int  `json:"topsInTries"`
	Zones        []bool `json:"zones"`
	ZonesInTries []int  `json:"zonesInTries"`
}

// UnlimitedDetail carries the score of an unlimited contest climber.
type UnlimitedDetail struct {
	Points float64 `json:"points"`
	NbTops int     `json:"nbTops"`
}

// ClimberRanking is one climber's line in a snapshot. Vectors are indexed
// like Snapshot.Boulders and are empty for climbers appended without results.
type ClimberRanking struct {
	ClimberID model.ClimberID  `json:"climberId"`
	Rank      int              `json:"rank"`
	Tops      []bool           `json:"tops"`
	Counted   *CountedDetail   `json:"counted,omitempty"`
	Unlimited *UnlimitedDetail `json:"unlimited,omitempty"`
}

// Snapshot is the full ranking of one group. It is built once and never
// modified afterwards.
type Snapshot struct {
	GroupID        model.GroupID     `json:"groupId"`
	Discipline     model.Discipline  `json:"discipline"`
	Boulders       []model.BoulderID `json:"boulders"`
	BouldersPoints []float64         `json:"bouldersPoints,omitempty"`
	Rankings       []ClimberRanking  `json:"rankings"`
	// PodiumTieBreaks counts the podium clusters the per-try pass split.
	PodiumTieBreaks int `json:"-"`
}

// Entries flattens the snapshot, ordered by rank then climber id.
func (s Snapshot) Entries() []types.RankEntry {
	out := make([]types.RankEntry, len(s.Rankings))
	for i, r := range s.Rankings {
		out[i] = types.RankEntry{ClimberID: r.ClimberID, Rank: r.Rank}
	}
	types.SortEntries(out)
	return out
}

// Ranks maps each climber to their rank.
func (s Snapshot) Ranks() map[model.ClimberID]int {
	out := make(map[model.ClimberID]int, len(s.Rankings))
	for _, r := range s.Rankings {
		out[r.ClimberID] = r.Rank
	}
	return out
}

// RoundRankings holds one snapshot per group of a round. Groups are ranked
// independently and are never merged into these snapshots.
type RoundRankings struct {
	RoundID    model.RoundID    `json:"roundId"`
	Discipline model.Discipline `json:"discipline"`
	Type       model.RoundType  `json:"type"`
	Groups     []Snapshot       `json:"groups"`
}

// Group returns the snapshot of a group.
func (rr RoundRankings) Group(id model.GroupID) (Snapshot, bool) {
	for _, s := range rr.Groups {
		if s.GroupID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Ranks returns one rank per climber of the round. With a single group it
// is that group's ranking; with several, climbers are re-ranked by their
// group rank so that equal group ranks stay tied.
func (rr RoundRankings) Ranks() map[model.ClimberID]int {
	if len(rr.Groups) == 1 {
		return rr.Groups[0].Ranks()
	}
	var all []types.RankEntry
	for _, s := range rr.Groups {
		all = append(all, s.Entries()...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Rank != all[j].Rank {
			return all[i].Rank < all[j].Rank
		}
		return all[i].ClimberID < all[j].ClimberID
	})

	out := make(map[model.ClimberID]int, len(all))
	prev := 0
	for i, e := range all {
		rank := i + 1
		if i > 0 && all[i-1].Rank == e.Rank {
			rank = prev
		}
		out[e.ClimberID] = rank
		prev = rank
	}
	return out
}

// Entries flattens Ranks.
func (rr RoundRankings) Entries() []types.RankEntry {
	return types.EntriesFromMap(rr.Ranks())
}
