package simulate

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
)

// expectation is what the service must serve once every submission of a
// plan has been applied.
type expectation struct {
	groups  map[model.GroupID]map[model.ClimberID]int
	overall map[model.ClimberID]int
}

// expect ranks the planned results locally.
func expect(p *Plan) (expectation, error) {
	exp := expectation{groups: make(map[model.GroupID]map[model.ClimberID]int)}
	standings := make([]ranking.RoundStanding, 0, len(p.Competition.Rounds))
	for _, r := range p.Competition.Rounds {
		er := p.ExpectedRound(r)
		rr, err := ranking.ComputeRoundRanking(er)
		if err != nil {
			return expectation{}, fmt.Errorf("rank round %d: %w", r.ID, err)
		}
		for _, snap := range rr.Groups {
			exp.groups[snap.GroupID] = snap.Ranks()
		}
		standings = append(standings, ranking.RoundStanding{Round: er, Rankings: &rr})
	}
	exp.overall = ranking.ComputeOverallRanking(standings)
	return exp, nil
}

// check compares the served rankings with exp and returns one line per
// difference. An empty result means the service converged.
func check(ctx context.Context, c *client, p *Plan, exp expectation) ([]string, error) {
	var diffs []string
	ids := make([]model.GroupID, 0, len(exp.groups))
	for id := range exp.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		snap, err := c.groupRankings(ctx, id)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, compare(fmt.Sprintf("group %d", id), exp.groups[id], snap.Ranks())...)
	}

	category := p.Competition.Rounds[0].Category
	entries, err := c.overallRankings(ctx, p.Competition.ID, category)
	if err != nil {
		return nil, err
	}
	diffs = append(diffs, compare("overall", exp.overall, ranksOf(entries))...)
	diffs = append(diffs, checkOrder("overall", entries)...)
	return diffs, nil
}

func ranksOf(entries []types.RankEntry) map[model.ClimberID]int {
	out := make(map[model.ClimberID]int, len(entries))
	for _, e := range entries {
		out[e.ClimberID] = e.Rank
	}
	return out
}

func compare(scope string, want, got map[model.ClimberID]int) []string {
	var diffs []string
	for id, w := range want {
		g, ok := got[id]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("%s: climber %d missing, want rank %d", scope, id, w))
		case g != w:
			diffs = append(diffs, fmt.Sprintf("%s: climber %d at rank %d, want %d", scope, id, g, w))
		}
	}
	for id, g := range got {
		if _, ok := want[id]; !ok {
			diffs = append(diffs, fmt.Sprintf("%s: unexpected climber %d at rank %d", scope, id, g))
		}
	}
	sort.Strings(diffs)
	return diffs
}

// checkOrder verifies a flat ranking lists each climber once, by rank.
func checkOrder(scope string, entries []types.RankEntry) []string {
	var diffs []string
	seen := make(map[model.ClimberID]struct{}, len(entries))
	for i, e := range entries {
		if _, dup := seen[e.ClimberID]; dup {
			diffs = append(diffs, fmt.Sprintf("%s: climber %d listed twice", scope, e.ClimberID))
		}
		seen[e.ClimberID] = struct{}{}
		if e.Rank < 1 {
			diffs = append(diffs, fmt.Sprintf("%s: climber %d has rank %d", scope, e.ClimberID, e.Rank))
		}
		if i > 0 && e.Rank < entries[i-1].Rank {
			diffs = append(diffs, fmt.Sprintf("%s: rank %d listed after %d", scope, e.Rank, entries[i-1].Rank))
		}
	}
	return diffs
}
