package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func boulders(n int) []model.Boulder {
	out := make([]model.Boulder, n)
	for i := range out {
		out[i] = model.Boulder{ID: model.BoulderID(10 + i), Index: i}
	}
	return out
}

func top(climber model.ClimberID, boulder model.BoulderID, tries int) model.Result {
	return model.Result{ClimberID: climber, BoulderID: boulder, Top: true, TopInTries: tries, Zone: true, ZoneInTries: tries, Tries: tries}
}

func zone(climber model.ClimberID, boulder model.BoulderID, tries int) model.Result {
	return model.Result{ClimberID: climber, BoulderID: boulder, Zone: true, ZoneInTries: tries, Tries: tries}
}

func rankOf(ps []scoring.Placement) map[model.ClimberID]int {
	out := make(map[model.ClimberID]int, len(ps))
	for _, p := range ps {
		out[p.ClimberID] = p.Rank
	}
	return out
}

func TestLayout(t *testing.T) {
	Convey("Given boulders listed out of index order", t, func() {
		layout := scoring.NewLayout([]model.Boulder{{ID: 30, Index: 2}, {ID: 10, Index: 0}, {ID: 20, Index: 1}})

		Convey("Then slots follow the boulder index", func() {
			So(layout.Len(), ShouldEqual, 3)
			So(layout.Boulders(), ShouldResemble, []model.BoulderID{10, 20, 30})
			slot, ok := layout.Slot(30)
			So(ok, ShouldBeTrue)
			So(slot, ShouldEqual, 2)
			_, ok = layout.Slot(99)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestAggregateCounted(t *testing.T) {
	Convey("Given sparse results over three boulders", t, func() {
		layout := scoring.NewLayout(boulders(3))
		results := []model.Result{
			top(1, 10, 2),
			zone(1, 12, 4),
			{ClimberID: 1, BoulderID: 11, Tries: 5},
			zone(2, 11, 1),
			top(3, 99, 1),
		}

		aggs := scoring.AggregateCounted(results, layout)

		Convey("Then missing pairs default to false and zero", func() {
			a := aggs[1]
			So(a.Tops, ShouldResemble, []bool{true, false, false})
			So(a.TopsInTries, ShouldResemble, []int{2, 0, 0})
			So(a.Zones, ShouldResemble, []bool{true, false, true})
			So(a.ZonesInTries, ShouldResemble, []int{2, 0, 4})
			So(a.SumTops, ShouldEqual, 1)
			So(a.SumTopsInTries, ShouldEqual, 2)
			So(a.SumZones, ShouldEqual, 2)
			So(a.SumZonesInTries, ShouldEqual, 6)
		})

		Convey("Then results on unknown boulders are ignored", func() {
			So(aggs, ShouldNotContainKey, model.ClimberID(3))
			So(len(aggs), ShouldEqual, 2)
		})
	})
}

func TestUnlimitedContest(t *testing.T) {
	Convey("Given one boulder topped by two climbers", t, func() {
		layout := scoring.NewLayout(boulders(1))
		results := []model.Result{{ClimberID: 1, BoulderID: 10, Top: true}, {ClimberID: 2, BoulderID: 10, Top: true}}

		points := scoring.BoulderPoints(results, layout)
		aggs := scoring.AggregateUnlimited(results, layout, points)
		ranks := rankOf(scoring.RankUnlimited(aggs))

		Convey("Then both share first place with 500 points", func() {
			So(points, ShouldResemble, []float64{500})
			So(aggs[1].Points, ShouldEqual, 500)
			So(aggs[2].Points, ShouldEqual, 500)
			So(aggs[1].NbTops, ShouldEqual, 1)
			So(ranks, ShouldResemble, map[model.ClimberID]int{1: 1, 2: 1})
		})
	})

	Convey("Given boulders split between 1, 3, 6 and 7 toppers", t, func() {
		layout := scoring.NewLayout(boulders(5))
		var results []model.Result
		for c := 1; c <= 7; c++ {
			id := model.ClimberID(c)
			if c == 1 {
				results = append(results, model.Result{ClimberID: id, BoulderID: 10, Top: true})
			}
			if c <= 3 {
				results = append(results, model.Result{ClimberID: id, BoulderID: 11, Top: true})
			}
			if c <= 6 {
				results = append(results, model.Result{ClimberID: id, BoulderID: 12, Top: true})
			}
			results = append(results, model.Result{ClimberID: id, BoulderID: 13, Top: true})
		}

		points := scoring.BoulderPoints(results, layout)

		Convey("Then each value times its toppers is about 1000", func() {
			toppers := []int{1, 3, 6, 7}
			for i, k := range toppers {
				So(math.Abs(points[i]*float64(k)-1000), ShouldBeLessThan, 0.01*float64(k))
			}
			So(points[1], ShouldEqual, 333.33)
			So(points[2], ShouldEqual, 166.67)
			So(points[3], ShouldEqual, 142.86)
		})

		Convey("Then an untopped boulder keeps the full pool", func() {
			So(points[4], ShouldEqual, scoring.BoulderPointsPool)
		})

		Convey("Then totals are exact to the cent and ordered descending", func() {
			aggs := scoring.AggregateUnlimited(results, layout, points)
			So(aggs[1].Points, ShouldEqual, 1642.86)
			So(aggs[2].Points, ShouldEqual, 642.86)
			So(aggs[7].Points, ShouldEqual, 142.86)

			ps := scoring.RankUnlimited(aggs)
			So(ps[0], ShouldResemble, scoring.Placement{ClimberID: 1, Rank: 1})
			So(rankOf(ps), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2, 3: 2, 4: 4, 5: 4, 6: 4, 7: 7})
		})
	})

	Convey("Given totals within the tolerance", t, func() {
		So(scoring.PointsEqual(500, 500.009), ShouldBeTrue)
		So(scoring.PointsEqual(500, 500.01), ShouldBeFalse)
	})
}

func TestCompareCounted(t *testing.T) {
	Convey("Given the counted cascade", t, func() {
		base := func(tops, zones, topTries, zoneTries int) *scoring.CountedAggregate {
			return &scoring.CountedAggregate{SumTops: tops, SumZones: zones, SumTopsInTries: topTries, SumZonesInTries: zoneTries}
		}

		Convey("Then more tops win before anything else", func() {
			So(scoring.CompareCounted(base(2, 2, 9, 9), base(1, 3, 1, 1)), ShouldBeLessThan, 0)
		})
		Convey("Then more zones win on equal tops", func() {
			So(scoring.CompareCounted(base(1, 2, 9, 9), base(1, 1, 1, 1)), ShouldBeLessThan, 0)
		})
		Convey("Then fewer tries to top win on equal tops and zones", func() {
			So(scoring.CompareCounted(base(1, 1, 2, 9), base(1, 1, 3, 1)), ShouldBeLessThan, 0)
		})
		Convey("Then fewer tries to zone settle the rest", func() {
			So(scoring.CompareCounted(base(1, 1, 2, 2), base(1, 1, 2, 3)), ShouldBeLessThan, 0)
		})
		Convey("Then a zero tries sum never beats a positive one", func() {
			So(scoring.CompareCounted(base(0, 1, 0, 5), base(0, 1, 0, 0)), ShouldBeLessThan, 0)
			So(scoring.CompareCounted(base(0, 0, 0, 0), base(0, 0, 0, 0)), ShouldEqual, 0)
		})
	})
}

func TestRankCounted(t *testing.T) {
	Convey("Given a circuit boulder topped on try 1 and on try 2", t, func() {
		layout := scoring.NewLayout(boulders(1))
		aggs := scoring.AggregateCounted([]model.Result{top(1, 10, 1), top(2, 10, 2)}, layout)

		Convey("Then the first try wins", func() {
			So(rankOf(scoring.RankCounted(aggs)), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2})
		})
	})

	Convey("Given three identical results and one better", t, func() {
		layout := scoring.NewLayout(boulders(2))
		aggs := scoring.AggregateCounted([]model.Result{
			top(4, 10, 1), top(4, 11, 1),
			top(1, 10, 2), top(2, 10, 2), top(3, 10, 2),
		}, layout)
		ps := scoring.RankCounted(aggs)

		Convey("Then ties share a rank and the next rank leaves a gap", func() {
			So(rankOf(ps), ShouldResemble, map[model.ClimberID]int{4: 1, 1: 2, 2: 2, 3: 2})
		})

		Convey("Then recomputing yields identical output", func() {
			again := scoring.RankCounted(scoring.AggregateCounted([]model.Result{
				top(3, 10, 2), top(2, 10, 2), top(1, 10, 2),
				top(4, 11, 1), top(4, 10, 1),
			}, layout))
			So(again, ShouldResemble, ps)
		})
	})
}

func TestAppendTiedLast(t *testing.T) {
	Convey("Given two placed climbers tied first", t, func() {
		ps := []scoring.Placement{{ClimberID: 1, Rank: 1}, {ClimberID: 2, Rank: 1}}
		climbers := []model.Climber{{ID: 5}, {ID: 1}, {ID: 2}, {ID: 4}}

		out := scoring.AppendTiedLast(ps, climbers)

		Convey("Then the others share the rank after all placed climbers", func() {
			So(out, ShouldResemble, []scoring.Placement{
				{ClimberID: 1, Rank: 1}, {ClimberID: 2, Rank: 1},
				{ClimberID: 4, Rank: 3}, {ClimberID: 5, Rank: 3},
			})
		})
	})

	Convey("Given nobody placed", t, func() {
		out := scoring.AppendTiedLast(nil, []model.Climber{{ID: 1}, {ID: 2}})

		Convey("Then everybody is first", func() {
			So(rankOf(out), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 1})
		})
	})
}

func TestBreakPodiumTies(t *testing.T) {
	Convey("Given two finalists tied on every sum", t, func() {
		layout := scoring.NewLayout(boulders(2))
		// A: tops on try 1 and 3. B: tops on try 2 twice. Sums are 4 and 4.
		aggs := scoring.AggregateCounted([]model.Result{
			top(1, 10, 1), top(1, 11, 3),
			top(2, 10, 2), top(2, 11, 2),
		}, layout)
		ps := scoring.RankCounted(aggs)
		So(rankOf(ps), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 1})

		out, separated := scoring.BreakPodiumTies(ps, aggs)

		Convey("Then the climber with a top on the earlier try wins", func() {
			So(separated, ShouldEqual, 1)
			So(out, ShouldResemble, []scoring.Placement{{ClimberID: 1, Rank: 1}, {ClimberID: 2, Rank: 2}})
		})

		Convey("Then the input is not modified", func() {
			So(rankOf(ps), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 1})
		})
	})

	Convey("Given a three-way tie the tops cannot fully split", t, func() {
		layout := scoring.NewLayout(boulders(2))
		aggs := scoring.AggregateCounted([]model.Result{
			// 1 tops on try 1 and 3; 2 and 3 top on try 2 twice, zones differ.
			top(1, 10, 1), top(1, 11, 3),
			{ClimberID: 2, BoulderID: 10, Top: true, TopInTries: 2, Zone: true, ZoneInTries: 1},
			{ClimberID: 2, BoulderID: 11, Top: true, TopInTries: 2, Zone: true, ZoneInTries: 3},
			top(3, 10, 2), top(3, 11, 2),
		}, layout)
		ps := []scoring.Placement{{ClimberID: 1, Rank: 1}, {ClimberID: 2, Rank: 1}, {ClimberID: 3, Rank: 1}}

		out, _ := scoring.BreakPodiumTies(ps, aggs)

		Convey("Then the zone pass splits the climbers still tied", func() {
			So(rankOf(out), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2, 3: 3})
		})
	})

	Convey("Given a five-way tie for first", t, func() {
		layout := scoring.NewLayout(boulders(2))
		aggs := scoring.AggregateCounted([]model.Result{
			top(1, 10, 1), top(1, 11, 3),
			top(2, 10, 2), top(2, 11, 2),
			top(3, 10, 2), top(3, 11, 2),
			top(4, 10, 2), top(4, 11, 2),
			top(5, 10, 2), top(5, 11, 2),
		}, layout)
		ps := scoring.RankCounted(aggs)
		So(rankOf(ps), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1})

		out, separated := scoring.BreakPodiumTies(ps, aggs)

		Convey("Then the whole cluster is processed, past the podium too", func() {
			So(separated, ShouldEqual, 1)
			So(rankOf(out), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2, 3: 2, 4: 2, 5: 2})
		})
	})

	Convey("Given climbers with identical histograms", t, func() {
		layout := scoring.NewLayout(boulders(1))
		aggs := scoring.AggregateCounted([]model.Result{top(1, 10, 2), top(2, 10, 2)}, layout)
		ps := scoring.RankCounted(aggs)

		out, separated := scoring.BreakPodiumTies(ps, aggs)

		Convey("Then they stay ex-aequo", func() {
			So(separated, ShouldEqual, 0)
			So(rankOf(out), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 1})
		})
	})

	Convey("Given a tie outside the podium", t, func() {
		layout := scoring.NewLayout(boulders(2))
		aggs := scoring.AggregateCounted([]model.Result{
			top(1, 10, 1), top(1, 11, 1),
			top(2, 10, 1), top(2, 11, 2),
			top(3, 10, 1), top(3, 11, 3),
			top(4, 10, 1), top(4, 11, 4),
			top(5, 10, 1), top(5, 11, 4),
			top(6, 10, 2), top(6, 11, 3),
		}, layout)
		ps := scoring.RankCounted(aggs)

		out, separated := scoring.BreakPodiumTies(ps, aggs)

		Convey("Then it is left untouched", func() {
			So(separated, ShouldEqual, 0)
			So(rankOf(out), ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2, 3: 3, 4: 4, 5: 4, 6: 4})
		})
	})
}
