package ranking

import (
	"fmt"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/scoring"
)

type groupScorer func(g *model.Group, roundType model.RoundType) Snapshot

var scorers = map[model.Discipline]groupScorer{ //nolint:gochecknoglobals // dispatch table
	model.UnlimitedContest: rankUnlimitedGroup,
	model.LimitedContest:   rankCountedGroup,
	model.Circuit:          rankCountedGroup,
}

// ComputeGroupRanking ranks one group under the given discipline.
func ComputeGroupRanking(g *model.Group, discipline model.Discipline, roundType model.RoundType) (Snapshot, error) {
	score, ok := scorers[discipline]
	if !ok {
		return Snapshot{}, fmt.Errorf("group %d: %q: %w", g.ID, discipline, ErrUnsupportedDiscipline)
	}
	s := score(g, roundType)
	s.GroupID = g.ID
	s.Discipline = discipline
	return s, nil
}

// rankUnlimitedGroup only ranks climbers with results.
func rankUnlimitedGroup(g *model.Group, _ model.RoundType) Snapshot {
	layout := scoring.NewLayout(g.Boulders)
	points := scoring.BoulderPoints(g.Results, layout)
	aggs := scoring.AggregateUnlimited(g.Results, layout, points)

	placements := scoring.RankUnlimited(aggs)
	rankings := make([]ClimberRanking, len(placements))
	for i, p := range placements {
		agg := aggs[p.ClimberID]
		rankings[i] = ClimberRanking{
			ClimberID: p.ClimberID,
			Rank:      p.Rank,
			Tops:      agg.Tops,
			Unlimited: &UnlimitedDetail{Points: agg.Points, NbTops: agg.NbTops},
		}
	}
	return Snapshot{
		Boulders:       layout.Boulders(),
		BouldersPoints: points,
		Rankings:       rankings,
	}
}

// rankCountedGroup runs the counted cascade, the podium pass in finals, and
// appends climbers without results after qualifiers.
func rankCountedGroup(g *model.Group, roundType model.RoundType) Snapshot {
	layout := scoring.NewLayout(g.Boulders)
	aggs := scoring.AggregateCounted(g.Results, layout)
	placements := scoring.RankCounted(aggs)

	tieBreaks := 0
	if roundType == model.Final {
		placements, tieBreaks = scoring.BreakPodiumTies(placements, aggs)
	}
	if roundType != model.Qualifier {
		placements = scoring.AppendTiedLast(placements, g.Climbers)
	}

	n := layout.Len()
	rankings := make([]ClimberRanking, len(placements))
	for i, p := range placements {
		cr := ClimberRanking{ClimberID: p.ClimberID, Rank: p.Rank}
		if agg, ok := aggs[p.ClimberID]; ok {
			cr.Tops = agg.Tops
			cr.Counted = &CountedDetail{TopsInTries: agg.TopsInTries, Zones: agg.Zones, ZonesInTries: agg.ZonesInTries}
		} else {
			cr.Tops = make([]bool, n)
			cr.Counted = &CountedDetail{TopsInTries: make([]int, n), Zones: make([]bool, n), ZonesInTries: make([]int, n)}
		}
		rankings[i] = cr
	}
	return Snapshot{
		Boulders:        layout.Boulders(),
		Rankings:        rankings,
		PodiumTieBreaks: tieBreaks,
	}
}
