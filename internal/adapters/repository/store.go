// Package repository holds the competition graph and the ranking snapshots
// computed from it.
package repository

import (
	"context"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
)

// ResultMutator turns the stored result of a (climber, boulder) pair into
// its next value. A missing result is passed as a zero Result with the pair
// ids filled in.
type ResultMutator func(model.Result) (model.Result, error)

// Stats summarizes the store contents.
type Stats struct {
	Competitions int `json:"competitions"`
	Rounds       int `json:"rounds"`
	Groups       int `json:"groups"`
	Climbers     int `json:"climbers"`
	Snapshots    int `json:"snapshots"`
}

// Store provides read/write access to competitions and rankings. Returned
// values are copies; callers may modify them freely.
type Store interface {
	// AddCompetition loads a competition with all its rounds.
	// Returns ErrDuplicateID if any identifier is already present.
	AddCompetition(ctx context.Context, c *model.Competition) error

	Competition(ctx context.Context, id model.CompetitionID) (*model.Competition, error)
	Competitions(ctx context.Context) []*model.Competition

	Round(ctx context.Context, id model.RoundID) (*model.Round, error)
	// RoundOfGroup resolves the round a group belongs to.
	RoundOfGroup(ctx context.Context, id model.GroupID) (model.RoundID, error)
	// CategoryRounds lists the rounds of one category ordered by index.
	CategoryRounds(ctx context.Context, competitionID model.CompetitionID, category model.Category) ([]*model.Round, error)

	// UpdateResult applies fn to one result and returns the updated round.
	UpdateResult(ctx context.Context, roundID model.RoundID, groupID model.GroupID,
		climberID model.ClimberID, boulderID model.BoulderID, fn ResultMutator) (*model.Round, error)

	// SaveRoundRankings replaces the round snapshot and the snapshots of its groups.
	SaveRoundRankings(ctx context.Context, rr ranking.RoundRankings) error
	RoundRankings(ctx context.Context, id model.RoundID) (ranking.RoundRankings, error)
	GroupRankings(ctx context.Context, id model.GroupID) (ranking.Snapshot, error)

	// SaveOverallRankings replaces the overall standing of a category.
	SaveOverallRankings(ctx context.Context, competitionID model.CompetitionID, category model.Category, entries []types.RankEntry) error
	OverallRankings(ctx context.Context, competitionID model.CompetitionID, category model.Category) ([]types.RankEntry, error)

	Stats(ctx context.Context) Stats
}
