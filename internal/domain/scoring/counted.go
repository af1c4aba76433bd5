package scoring

import (
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
)

// CompareCounted orders two counted aggregates. It returns a negative value
// when a ranks better, positive when b does and zero on a full tie.
//
// Criteria, in order: more tops, more zones, fewer tries to top, fewer
// tries to zone. For both tries sums a zero never beats a positive value.
func CompareCounted(a, b *CountedAggregate) int {
	if c := b.SumTops - a.SumTops; c != 0 {
		return c
	}
	if c := b.SumZones - a.SumZones; c != 0 {
		return c
	}
	if c := compareTries(a.SumTopsInTries, b.SumTopsInTries); c != 0 {
		return c
	}
	return compareTries(a.SumZonesInTries, b.SumZonesInTries)
}

func compareTries(a, b int) int {
	switch {
	case a == b:
		return 0
	case a == 0:
		return 1
	case b == 0:
		return -1
	default:
		return a - b
	}
}

// RankCounted orders climbers by CompareCounted and assigns competition ranks.
func RankCounted(aggs map[model.ClimberID]*CountedAggregate) []Placement {
	ids := climberIDs(aggs)
	sort.SliceStable(ids, func(i, j int) bool {
		return CompareCounted(aggs[ids[i]], aggs[ids[j]]) < 0
	})
	return competitionRanks(ids, func(a, b model.ClimberID) bool {
		return CompareCounted(aggs[a], aggs[b]) == 0
	})
}
