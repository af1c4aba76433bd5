package simulate

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/model"
)

// Shape of the generated competition.
const (
	simCategory = "sim"
	simSex      = model.Mixed

	topRateUnlimited = 0.45
	zoneRate         = 0.7
	topAfterZoneRate = 0.6
)

// Plan is a generated competition together with the submissions that
// build its results and the results they must produce.
type Plan struct {
	Competition *model.Competition
	// Sequences holds each climber's submissions in send order.
	Sequences map[model.ClimberID][]attempt.Submission
	// Expected holds the final result of every attempted (climber, boulder).
	Expected map[resultKey]model.Result
}

type resultKey struct {
	Group   model.GroupID
	Climber model.ClimberID
	Boulder model.BoulderID
}

// Generate builds a two-round competition: an unlimited-contest qualifier
// split in groups and a counted final for the first FinalSize climbers.
func Generate(cfg Config) *Plan {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.CompetitionID))) //nolint:gosec // reproducible load, not crypto

	compID := model.CompetitionID(cfg.CompetitionID)
	category := model.Category{Name: simCategory, Sex: simSex}
	climbers := make([]model.Climber, cfg.Climbers)
	for i := range climbers {
		climbers[i] = model.Climber{
			ID:        model.ClimberID(i + 1),
			FirstName: "Climber",
			LastName:  fmt.Sprintf("%03d", i+1),
		}
	}

	qualID := model.RoundID(cfg.CompetitionID*10 + 1)
	qual := &model.Round{
		ID: qualID, CompetitionID: compID, Index: 0, Name: "Qualification",
		Category: category, Discipline: model.UnlimitedContest, Type: model.Qualifier,
	}
	for g := range cfg.Groups {
		gid := model.GroupID(int64(qualID)*100 + int64(g+1))
		group := &model.Group{ID: gid, Name: fmt.Sprintf("Wave %c", 'A'+rune(g)), Boulders: boulders(gid, cfg.Boulders)}
		for i := g; i < len(climbers); i += cfg.Groups {
			group.Climbers = append(group.Climbers, climbers[i])
		}
		qual.Groups = append(qual.Groups, group)
	}

	finalID := model.RoundID(cfg.CompetitionID*10 + 2)
	finalGroup := model.GroupID(int64(finalID)*100 + 1)
	final := &model.Round{
		ID: finalID, CompetitionID: compID, Index: 1, Name: "Final",
		Category: category, Discipline: model.Circuit, Type: model.Final, MaxTries: cfg.MaxTries,
		Groups: []*model.Group{{
			ID: finalGroup, Name: "Final", Boulders: boulders(finalGroup, cfg.Boulders), Climbers: climbers[:cfg.FinalSize],
		}},
	}

	p := &Plan{
		Competition: &model.Competition{ID: compID, Name: "Simulated Open", Rounds: []*model.Round{qual, final}},
		Sequences:   make(map[model.ClimberID][]attempt.Submission, len(climbers)),
		Expected:    make(map[resultKey]model.Result),
	}
	for _, r := range p.Competition.Rounds {
		for _, g := range r.Groups {
			for _, c := range g.Climbers {
				for _, b := range g.Boulders {
					p.plan(rng, r, g.ID, c.ID, b.ID)
				}
			}
		}
	}
	return p
}

func boulders(group model.GroupID, n int) []model.Boulder {
	out := make([]model.Boulder, n)
	for i := range out {
		out[i] = model.Boulder{ID: model.BoulderID(int64(group)*100 + int64(i+1)), Index: i}
	}
	return out
}

// plan draws the outcome of one climber on one boulder and appends the
// submissions that record it.
func (p *Plan) plan(rng *rand.Rand, r *model.Round, group model.GroupID, climber model.ClimberID, boulder model.BoulderID) {
	key := resultKey{Group: group, Climber: climber, Boulder: boulder}
	add := func(a attempt.Attempt) {
		p.Sequences[climber] = append(p.Sequences[climber], attempt.Submission{
			ID:        uuid.NewString(),
			RoundID:   r.ID,
			GroupID:   group,
			ClimberID: climber,
			BoulderID: boulder,
			Attempt:   a,
		})
	}

	if !r.Discipline.Counted() {
		if rng.Float64() < topRateUnlimited {
			add(attempt.Attempt{Top: ptr(true)})
			p.Expected[key] = model.Result{ClimberID: climber, BoulderID: boulder, Top: true}
		}
		return
	}

	tries := 1 + rng.IntN(r.MaxTries)
	zoneAt, topAt := 0, 0
	if rng.Float64() < zoneRate {
		zoneAt = 1 + rng.IntN(tries)
		if rng.Float64() < topAfterZoneRate {
			topAt = zoneAt + rng.IntN(tries-zoneAt+1)
		}
	}
	for t := 1; t <= tries; t++ {
		a := attempt.Attempt{Try: true}
		switch {
		case t == topAt:
			a.Top = ptr(true)
		case t == zoneAt:
			a.Zone = ptr(true)
		}
		add(a)
	}
	p.Expected[key] = model.Result{
		ClimberID:   climber,
		BoulderID:   boulder,
		Top:         topAt > 0,
		TopInTries:  topAt,
		Zone:        zoneAt > 0,
		ZoneInTries: zoneAt,
		Tries:       tries,
	}
}

// ExpectedRound returns r with the planned results filled in.
func (p *Plan) ExpectedRound(r *model.Round) *model.Round {
	out := *r
	out.Groups = make([]*model.Group, len(r.Groups))
	for i, g := range r.Groups {
		eg := *g
		eg.Results = nil
		for _, c := range g.Climbers {
			for _, b := range g.Boulders {
				if res, ok := p.Expected[resultKey{Group: g.ID, Climber: c.ID, Boulder: b.ID}]; ok {
					eg.Results = append(eg.Results, res)
				}
			}
		}
		out.Groups[i] = &eg
	}
	return &out
}

// Submissions returns the total number of planned submissions.
func (p *Plan) Submissions() int {
	n := 0
	for _, seq := range p.Sequences {
		n += len(seq)
	}
	return n
}

func ptr[T any](v T) *T { return &v }
