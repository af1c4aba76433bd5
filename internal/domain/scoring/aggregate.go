// Package scoring turns raw results into ordered placements.
//
// Everything here is pure: no I/O, no shared state, no goroutines. Callers
// pass a group's results and its boulder layout and get fresh values back.
package scoring

import (
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
)

// Layout maps boulders to vector slots. Slot order follows Boulder.Index.
type Layout struct {
	order []model.BoulderID
	slots map[model.BoulderID]int
}

// NewLayout orders boulders by index. Ties on index keep input order.
func NewLayout(boulders []model.Boulder) Layout {
	sorted := append([]model.Boulder(nil), boulders...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	l := Layout{
		order: make([]model.BoulderID, len(sorted)),
		slots: make(map[model.BoulderID]int, len(sorted)),
	}
	for i, b := range sorted {
		l.order[i] = b.ID
		l.slots[b.ID] = i
	}
	return l
}

// Len is the number of boulders.
func (l Layout) Len() int { return len(l.order) }

// Boulders returns the boulder ids in slot order.
func (l Layout) Boulders() []model.BoulderID {
	return append([]model.BoulderID(nil), l.order...)
}

// Slot returns the vector position of a boulder.
func (l Layout) Slot(id model.BoulderID) (int, bool) {
	i, ok := l.slots[id]
	return i, ok
}

// CountedAggregate holds per-boulder vectors and running sums for the
// counted disciplines.
type CountedAggregate struct {
	Tops            []bool
	TopsInTries     []int
	Zones           []bool
	ZonesInTries    []int
	SumTops         int
	SumTopsInTries  int
	SumZones        int
	SumZonesInTries int
}

// UnlimitedAggregate holds the tops of one climber in an unlimited contest.
type UnlimitedAggregate struct {
	Tops   []bool
	NbTops int
	Points float64
}

// AggregateCounted groups results by climber. Only climbers with at least one
// result on a boulder of the layout appear in the output.
func AggregateCounted(results []model.Result, layout Layout) map[model.ClimberID]*CountedAggregate {
	n := layout.Len()
	out := make(map[model.ClimberID]*CountedAggregate)
	for _, r := range results {
		slot, ok := layout.Slot(r.BoulderID)
		if !ok {
			continue
		}
		agg, ok := out[r.ClimberID]
		if !ok {
			agg = &CountedAggregate{
				Tops:         make([]bool, n),
				TopsInTries:  make([]int, n),
				Zones:        make([]bool, n),
				ZonesInTries: make([]int, n),
			}
			out[r.ClimberID] = agg
		}

		agg.Tops[slot] = r.Top
		agg.Zones[slot] = r.Zone
		if r.Top {
			agg.TopsInTries[slot] = r.TopInTries
		}
		if r.Zone {
			agg.ZonesInTries[slot] = r.ZoneInTries
		}
	}
	for _, agg := range out {
		agg.resum()
	}
	return out
}

func (a *CountedAggregate) resum() {
	a.SumTops, a.SumTopsInTries, a.SumZones, a.SumZonesInTries = 0, 0, 0, 0
	for i := range a.Tops {
		if a.Tops[i] {
			a.SumTops++
			a.SumTopsInTries += a.TopsInTries[i]
		}
		if a.Zones[i] {
			a.SumZones++
			a.SumZonesInTries += a.ZonesInTries[i]
		}
	}
}

// AggregateUnlimited groups results by climber and sums the points of the
// boulders each climber topped. bouldersPoints is indexed by slot.
func AggregateUnlimited(results []model.Result, layout Layout, bouldersPoints []float64) map[model.ClimberID]*UnlimitedAggregate {
	n := layout.Len()
	out := make(map[model.ClimberID]*UnlimitedAggregate)
	for _, r := range results {
		slot, ok := layout.Slot(r.BoulderID)
		if !ok {
			continue
		}
		agg, ok := out[r.ClimberID]
		if !ok {
			agg = &UnlimitedAggregate{Tops: make([]bool, n)}
			out[r.ClimberID] = agg
		}
		agg.Tops[slot] = r.Top
	}
	for _, agg := range out {
		agg.NbTops = 0
		for _, top := range agg.Tops {
			if top {
				agg.NbTops++
			}
		}
		agg.Points = sumPoints(agg.Tops, bouldersPoints)
	}
	return out
}
