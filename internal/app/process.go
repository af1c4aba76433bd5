package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/cragrank/internal/adapters/http/ws"
	"github.com/okian/cragrank/internal/adapters/mq/queue"
	"github.com/okian/cragrank/internal/adapters/repository"
	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
	"github.com/okian/cragrank/pkg/logger"
	"github.com/okian/cragrank/pkg/metrics"
)

// Process applies one queued submission and recomputes what it affects.
// It runs on the worker owning the submission's category.
func (s *Service) Process(ctx context.Context, e queue.Event) error { //nolint:gocritic // hugeParam
	defer s.lockCategory(e.PartitionKey)()

	round, err := s.store.Round(ctx, e.RoundID)
	if err != nil {
		return err
	}
	rules := attempt.RulesFor(round)
	updated, err := s.store.UpdateResult(ctx, e.RoundID, e.GroupID, e.ClimberID, e.BoulderID,
		func(r model.Result) (model.Result, error) { return attempt.Apply(r, rules, e.Attempt) })
	if err != nil {
		metrics.RecordResultRejected(rejectReason(err))
		return err
	}
	return s.recompute(ctx, updated, e.GroupID)
}

// recompute ranks the changed group, rebuilds its round from the stored
// snapshots of the other groups, then re-resolves the overall standing of
// the category. Each level is diffed against its previous snapshot and
// published.
func (s *Service) recompute(ctx context.Context, round *model.Round, groupID model.GroupID) error {
	start := time.Now()
	snap, err := ranking.ComputeGroupRanking(round.Group(groupID), round.Discipline, round.Type)
	if err != nil {
		return s.fault(ctx, round, err)
	}
	observe("group", start)
	metrics.RecordRankingComputed(string(round.Discipline))
	metrics.RecordPodiumTieBreaks(snap.PodiumTieBreaks)

	prev, prevErr := s.store.RoundRankings(ctx, round.ID)
	if prevErr != nil && !errors.Is(prevErr, repository.ErrRankingsNotFound) {
		return prevErr
	}

	start = time.Now()
	rr, err := withGroup(round, prev, snap)
	if err != nil {
		return s.fault(ctx, round, err)
	}
	observe("round", start)
	if err := s.store.SaveRoundRankings(ctx, rr); err != nil {
		return err
	}

	prevGroup, _ := prev.Group(groupID)
	s.publish(ctx, ws.GroupRoom(groupID), snap, prevGroup.Entries(), snap.Entries())
	s.publish(ctx, ws.RoundRoom(round.ID), rr.Entries(), prev.Entries(), rr.Entries())

	return s.recomputeOverall(ctx, round.CompetitionID, round.Category, true)
}

// withGroup swaps a fresh group snapshot into the previous round ranking.
// Without a complete previous ranking the whole round is computed.
func withGroup(round *model.Round, prev ranking.RoundRankings, snap ranking.Snapshot) (ranking.RoundRankings, error) {
	if len(prev.Groups) != len(round.Groups) {
		return ranking.ComputeRoundRanking(round)
	}
	out := prev
	out.Groups = make([]ranking.Snapshot, len(prev.Groups))
	for i, g := range prev.Groups {
		if g.GroupID == snap.GroupID {
			g = snap
		}
		out.Groups[i] = g
	}
	return out, nil
}

// recomputeCategory ranks every round of a category from scratch, without
// publishing.
func (s *Service) recomputeCategory(ctx context.Context, competitionID model.CompetitionID, category model.Category) error {
	rounds, err := s.store.CategoryRounds(ctx, competitionID, category)
	if err != nil {
		return err
	}
	for _, r := range rounds {
		start := time.Now()
		rr, err := ranking.ComputeRoundRanking(r)
		if err != nil {
			return s.fault(ctx, r, err)
		}
		observe("round", start)
		for _, snap := range rr.Groups {
			metrics.RecordRankingComputed(string(r.Discipline))
			metrics.RecordPodiumTieBreaks(snap.PodiumTieBreaks)
		}
		if err := s.store.SaveRoundRankings(ctx, rr); err != nil {
			return err
		}
	}
	return s.recomputeOverall(ctx, competitionID, category, false)
}

func (s *Service) recomputeOverall(ctx context.Context, competitionID model.CompetitionID, category model.Category, publish bool) error {
	rounds, err := s.store.CategoryRounds(ctx, competitionID, category)
	if err != nil {
		return err
	}

	start := time.Now()
	standings := make([]ranking.RoundStanding, 0, len(rounds))
	for _, r := range rounds {
		rs := ranking.RoundStanding{Round: r}
		if rr, err := s.store.RoundRankings(ctx, r.ID); err == nil {
			rs.Rankings = &rr
		}
		standings = append(standings, rs)
	}
	entries := types.EntriesFromMap(ranking.ComputeOverallRanking(standings))
	observe("category", start)

	prev, err := s.store.OverallRankings(ctx, competitionID, category)
	if err != nil && !errors.Is(err, repository.ErrRankingsNotFound) {
		return err
	}
	if err := s.store.SaveOverallRankings(ctx, competitionID, category, entries); err != nil {
		return err
	}
	if publish {
		s.publish(ctx, ws.CompetitionRoom(competitionID, category), entries, prev, entries)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, room string, payload any, old, updated []types.RankEntry) {
	diff := ranking.ComputeRankingDiff(old, updated)
	for _, d := range diff {
		metrics.RecordDiffEntry(d.Kind())
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, room, payload, diff); err != nil {
		metrics.RecordErrorByComponent("publisher", "publish")
		s.logger.Warn(ctx, "ranking update not published", logger.String("room", room), logger.Error(err))
	}
}

// fault reports a round the engine refused to rank. It is never retried.
func (s *Service) fault(ctx context.Context, round *model.Round, err error) error {
	if errors.Is(err, ranking.ErrUnsupportedDiscipline) {
		metrics.RecordUnsupportedDiscipline()
	}
	metrics.RecordErrorByComponent("ranking", "compute")
	s.logger.Error(ctx, "round cannot be ranked",
		logger.Int64("round_id", int64(round.ID)),
		logger.String("discipline", string(round.Discipline)),
		logger.Error(err),
	)
	return fmt.Errorf("rank round %d: %w", round.ID, err)
}

func observe(scope string, start time.Time) {
	metrics.RecordRecomputeLatency(scope, float64(time.Since(start).Microseconds())/1000)
}
