package ranking_test

import (
	"testing"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

// standing builds a single-group round whose ranking is given directly.
func standing(index int, ranks map[model.ClimberID]int, extra ...model.ClimberID) ranking.RoundStanding {
	g := &model.Group{ID: model.GroupID(index + 1)}
	s := ranking.Snapshot{GroupID: g.ID}
	for id, r := range ranks {
		g.Climbers = append(g.Climbers, model.Climber{ID: id})
		s.Rankings = append(s.Rankings, ranking.ClimberRanking{ClimberID: id, Rank: r})
	}
	for _, id := range extra {
		g.Climbers = append(g.Climbers, model.Climber{ID: id})
	}
	return ranking.RoundStanding{
		Round:    &model.Round{ID: model.RoundID(index + 1), Index: index, Groups: []*model.Group{g}},
		Rankings: &ranking.RoundRankings{Groups: []ranking.Snapshot{s}},
	}
}

func TestComputeOverallRanking(t *testing.T) {
	Convey("Given a qualifier tie is settled by the final", t, func() {
		qualifier := standing(0, map[model.ClimberID]int{1: 1, 2: 1, 3: 3})
		final := standing(1, map[model.ClimberID]int{2: 1, 3: 2})

		overall := ranking.ComputeOverallRanking([]ranking.RoundStanding{qualifier, final})

		Convey("Then climber 2 leads, climber 1 drops below and climber 3 keeps its final rank", func() {
			So(overall, ShouldResemble, map[model.ClimberID]int{2: 1, 1: 2, 3: 2})
			So(overall[1], ShouldBeGreaterThan, overall[2])
		})

		Convey("Then round order in the input does not matter", func() {
			again := ranking.ComputeOverallRanking([]ranking.RoundStanding{final, qualifier})
			So(again, ShouldResemble, overall)
		})
	})

	Convey("Given a non-finalist whose qualifier rank equals a finalist's final rank", t, func() {
		final := standing(1, map[model.ClimberID]int{1: 1, 2: 2})
		qualifier := standing(0, map[model.ClimberID]int{1: 1, 2: 3, 3: 2})

		overall := ranking.ComputeOverallRanking([]ranking.RoundStanding{qualifier, final})

		Convey("Then the non-finalist is placed after the finalist instead of tying", func() {
			So(overall, ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2, 3: 3})
		})
	})

	Convey("Given a final tie broken by the semi-final", t, func() {
		semi := standing(1, map[model.ClimberID]int{1: 2, 2: 1, 3: 3, 4: 4})
		final := standing(2, map[model.ClimberID]int{1: 1, 2: 1, 3: 3})
		qualifier := standing(0, map[model.ClimberID]int{1: 1, 2: 2, 3: 3, 4: 4, 5: 5})

		overall := ranking.ComputeOverallRanking([]ranking.RoundStanding{qualifier, semi, final})

		Convey("Then the better semi-final climber wins and earlier climbers fill in", func() {
			So(overall[2], ShouldEqual, 1)
			So(overall[1], ShouldEqual, 2)
			So(overall[3], ShouldEqual, 3)
			So(overall[4], ShouldEqual, 4)
			So(overall[5], ShouldEqual, 5)
		})
	})

	Convey("Given a three-way final tie", t, func() {
		final := standing(1, map[model.ClimberID]int{1: 1, 2: 1, 3: 1})
		qualifier := standing(0, map[model.ClimberID]int{1: 3, 2: 1, 3: 2})

		overall := ranking.ComputeOverallRanking([]ranking.RoundStanding{qualifier, final})

		Convey("Then pairwise demotions produce competition ranks", func() {
			So(overall, ShouldResemble, map[model.ClimberID]int{2: 1, 3: 2, 1: 3})
		})
	})

	Convey("Given a later round without a ranking yet", t, func() {
		qualifier := standing(0, map[model.ClimberID]int{1: 1, 2: 2})
		final := ranking.RoundStanding{Round: &model.Round{ID: 2, Index: 1}}

		overall := ranking.ComputeOverallRanking([]ranking.RoundStanding{qualifier, final})

		Convey("Then it is skipped", func() {
			So(overall, ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2})
		})
	})

	Convey("Given a settled final covering every climber", t, func() {
		final := standing(1, map[model.ClimberID]int{1: 1, 2: 2})
		qualifier := standing(0, map[model.ClimberID]int{1: 2, 2: 1})

		overall := ranking.ComputeOverallRanking([]ranking.RoundStanding{qualifier, final})

		Convey("Then earlier rounds change nothing", func() {
			So(overall, ShouldResemble, map[model.ClimberID]int{1: 1, 2: 2})
		})
	})

	Convey("Given no rounds", t, func() {
		Convey("Then the standing is empty", func() {
			So(ranking.ComputeOverallRanking(nil), ShouldBeEmpty)
		})
	})
}
