package service

import (
	"context"

	"github.com/okian/cragrank/internal/adapters/http/ws"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
)

// GroupRankings returns the latest snapshot of a group.
func (s *Service) GroupRankings(ctx context.Context, id model.GroupID) (ranking.Snapshot, error) {
	return s.store.GroupRankings(ctx, id)
}

// RoundRankings returns the latest per-group rankings of a round.
func (s *Service) RoundRankings(ctx context.Context, id model.RoundID) (ranking.RoundRankings, error) {
	return s.store.RoundRankings(ctx, id)
}

// OverallRankings returns the latest overall standing of a category,
// ordered by rank.
func (s *Service) OverallRankings(ctx context.Context, id model.CompetitionID, category model.Category) ([]types.RankEntry, error) {
	return s.store.OverallRankings(ctx, id, category)
}

// Competition returns a competition with its rounds.
func (s *Service) Competition(ctx context.Context, id model.CompetitionID) (*model.Competition, error) {
	return s.store.Competition(ctx, id)
}

// Diff compares two flat rankings.
func (s *Service) Diff(old, updated []types.RankEntry) []types.DiffEntry {
	return ranking.ComputeRankingDiff(old, updated)
}

// RoomState returns what a new subscriber of room should see first: the
// group snapshot, or the flat round or category ranking.
func (s *Service) RoomState(ctx context.Context, name string) (any, bool) {
	room, err := ws.ParseRoom(name)
	if err != nil {
		return nil, false
	}
	switch room.Kind {
	case ws.RoomGroup:
		snap, err := s.store.GroupRankings(ctx, model.GroupID(room.ID))
		return snap, err == nil
	case ws.RoomRound:
		rr, err := s.store.RoundRankings(ctx, model.RoundID(room.ID))
		if err != nil {
			return nil, false
		}
		return rr.Entries(), true
	default:
		entries, err := s.store.OverallRankings(ctx, model.CompetitionID(room.ID), room.Category)
		return entries, err == nil
	}
}
