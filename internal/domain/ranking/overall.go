package ranking

import (
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
)

// RoundStanding pairs a round with its computed ranking. Rankings is nil
// when the round has not been ranked yet.
type RoundStanding struct {
	Round    *model.Round
	Rankings *RoundRankings
}

// ComputeOverallRanking merges the rounds of one category into a single
// standing. Rounds are walked from the latest to the earliest: each round
// breaks the ties left by the later ones and places the climbers they did
// not rank.
//
// Within a tie cluster, every pair is compared on the current round and the
// worse climber drops one place. The walk stops once no ties remain and
// every climber of the earliest round is placed.
//
// A climber first placed by an earlier round is seeded with its round rank
// plus one place for each climber already placed at that rank. Seeding with
// the bare round rank would tie a climber who missed a later round with one
// who reached it; the offset keeps the later round's climbers ahead.
func ComputeOverallRanking(rounds []RoundStanding) map[model.ClimberID]int {
	overall := make(map[model.ClimberID]int)
	if len(rounds) == 0 {
		return overall
	}

	ordered := append([]RoundStanding(nil), rounds...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Round.Index > ordered[j].Round.Index })
	climberCount := ordered[len(ordered)-1].Round.ClimberCount()

	for _, rs := range ordered {
		if rs.Rankings == nil {
			continue
		}
		clusters := exAequoClusters(overall)
		if len(clusters) == 0 && len(overall) >= climberCount {
			break
		}

		roundRanks := rs.Rankings.Ranks()
		for _, cluster := range clusters {
			breakTies(overall, cluster, roundRanks)
		}
		insertNewcomers(overall, roundRanks)
	}
	return overall
}

// breakTies compares every pair of the cluster on roundRanks. Climbers
// missing from the round are left as they are.
func breakTies(overall map[model.ClimberID]int, cluster []model.ClimberID, roundRanks map[model.ClimberID]int) {
	for i := 0; i < len(cluster); i++ {
		ri, ok := roundRanks[cluster[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(cluster); j++ {
			rj, ok := roundRanks[cluster[j]]
			if !ok {
				continue
			}
			switch {
			case ri < rj:
				overall[cluster[j]]++
			case rj < ri:
				overall[cluster[i]]++
			}
		}
	}
}

func insertNewcomers(overall map[model.ClimberID]int, roundRanks map[model.ClimberID]int) {
	placedAt := make(map[int]int, len(overall))
	for _, r := range overall {
		placedAt[r]++
	}

	ids := make([]model.ClimberID, 0, len(roundRanks))
	for id := range roundRanks {
		if _, ok := overall[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		seed := roundRanks[id]
		overall[id] = seed + placedAt[seed]
	}
}

// exAequoClusters returns the disjoint groups of climbers sharing a rank,
// ordered by rank, members ordered by id.
func exAequoClusters(ranks map[model.ClimberID]int) [][]model.ClimberID {
	byRank := make(map[int][]model.ClimberID)
	for id, r := range ranks {
		byRank[r] = append(byRank[r], id)
	}
	values := make([]int, 0, len(byRank))
	for r, ids := range byRank {
		if len(ids) > 1 {
			values = append(values, r)
		}
	}
	sort.Ints(values)

	out := make([][]model.ClimberID, 0, len(values))
	for _, r := range values {
		ids := byRank[r]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	return out
}
