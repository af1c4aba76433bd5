package scoring

import (
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
)

// PodiumSize is the highest rank the podium tie-break looks at.
const PodiumSize = 3

// BreakPodiumTies separates climbers still tied on a podium rank after the
// counted cascade. It returns new placements and the number of clusters in
// which at least one climber moved.
//
// Every cluster sharing a rank up to PodiumSize is processed in full, even
// when it spreads past the podium. A first pass compares how many boulders
// each climber topped on exactly try 1, 2, 3...; a second pass does the same
// with zones, but only among climbers the first pass left tied.
func BreakPodiumTies(ps []Placement, aggs map[model.ClimberID]*CountedAggregate) ([]Placement, int) {
	out := append([]Placement(nil), ps...)
	ranks := make(map[model.ClimberID]int, len(out))
	for _, p := range out {
		ranks[p.ClimberID] = p.Rank
	}

	separated := 0
	for _, cluster := range tiedClusters(out, PodiumSize) {
		moved := separateOnTries(ranks, cluster, aggs, func(a *CountedAggregate) []int { return a.TopsInTries })
		for _, sub := range stillTied(ranks, cluster) {
			if separateOnTries(ranks, sub, aggs, func(a *CountedAggregate) []int { return a.ZonesInTries }) {
				moved = true
			}
		}
		if moved {
			separated++
		}
	}

	for i := range out {
		out[i].Rank = ranks[out[i].ClimberID]
	}
	SortPlacements(out)
	return out, separated
}

// tiedClusters returns the groups of 2+ climbers sharing a rank <= maxRank,
// ordered by rank, members ordered by climber id.
func tiedClusters(ps []Placement, maxRank int) [][]model.ClimberID {
	byRank := make(map[int][]model.ClimberID)
	for _, p := range ps {
		if p.Rank <= maxRank {
			byRank[p.Rank] = append(byRank[p.Rank], p.ClimberID)
		}
	}
	return clustersOf(byRank)
}

func stillTied(ranks map[model.ClimberID]int, cluster []model.ClimberID) [][]model.ClimberID {
	byRank := make(map[int][]model.ClimberID)
	for _, id := range cluster {
		byRank[ranks[id]] = append(byRank[ranks[id]], id)
	}
	return clustersOf(byRank)
}

func clustersOf(byRank map[int][]model.ClimberID) [][]model.ClimberID {
	rankValues := make([]int, 0, len(byRank))
	for r, ids := range byRank {
		if len(ids) > 1 {
			rankValues = append(rankValues, r)
		}
	}
	sort.Ints(rankValues)

	out := make([][]model.ClimberID, 0, len(rankValues))
	for _, r := range rankValues {
		ids := byRank[r]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	return out
}

// separateOnTries scans try numbers from the lowest to the highest seen in
// the cluster. At a try number, each climber with a non-zero count is held
// against every other member: the one with fewer boulders done on exactly
// that try drops one rank. Scanning stops after the first climber whose
// comparisons demoted anyone.
func separateOnTries(ranks map[model.ClimberID]int, cluster []model.ClimberID, aggs map[model.ClimberID]*CountedAggregate, vector func(*CountedAggregate) []int) bool {
	hist := make(map[model.ClimberID]map[int]int, len(cluster))
	minTry, maxTry := 0, 0
	for _, id := range cluster {
		h := make(map[int]int)
		if agg, ok := aggs[id]; ok {
			for _, try := range vector(agg) {
				if try <= 0 {
					continue
				}
				h[try]++
				if minTry == 0 || try < minTry {
					minTry = try
				}
				if try > maxTry {
					maxTry = try
				}
			}
		}
		hist[id] = h
	}
	if maxTry == 0 {
		return false
	}

	for try := minTry; try <= maxTry; try++ {
		for _, a := range cluster {
			countA := hist[a][try]
			if countA == 0 {
				continue
			}
			demoted := false
			for _, b := range cluster {
				if a == b {
					continue
				}
				countB := hist[b][try]
				switch {
				case countA > countB:
					ranks[b]++
					demoted = true
				case countA < countB:
					ranks[a]++
					demoted = true
				}
			}
			if demoted {
				return true
			}
		}
	}
	return false
}
