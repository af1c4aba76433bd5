package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cragrank/internal/adapters/repository"
	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
	"github.com/okian/cragrank/pkg/logger"
	"github.com/okian/cragrank/pkg/metrics"
)

// Submit validates a judge input against the current state and queues it.
// A submission id seen before is acknowledged as a duplicate and dropped.
// The worker applies the input again against the state at that time, so a
// submission accepted here can still be rejected there.
func (s *Service) Submit(ctx context.Context, sub attempt.Submission) (types.Receipt, error) { //nolint:gocritic // hugeParam
	if !s.isStarted() {
		return types.Receipt{}, ErrNotStarted
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, sub.ID) {
		metrics.RecordResultDuplicate()
		s.logger.Debug(ctx, "duplicate submission detected, skipping",
			logger.String("submission_id", sub.ID),
		)
		return types.Receipt{SubmissionID: sub.ID, Status: types.StatusDuplicate}, nil
	}

	round, err := s.check(ctx, sub)
	if err != nil {
		s.deduper.Unrecord(ctx, sub.ID)
		metrics.RecordResultRejected(rejectReason(err))
		return types.Receipt{}, err
	}

	sub.PartitionKey = attempt.PartitionKey(round.CompetitionID, round.Category)
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(ctx, sub); err != nil {
		s.deduper.Unrecord(ctx, sub.ID)
		return types.Receipt{}, fmt.Errorf("enqueue submission %s: %w", sub.ID, err)
	}

	metrics.RecordResultReceived()
	s.logger.Debug(ctx, "submission queued",
		logger.String("submission_id", sub.ID),
		logger.Int64("round_id", int64(sub.RoundID)),
		logger.Int64("climber_id", int64(sub.ClimberID)),
		logger.Int64("boulder_id", int64(sub.BoulderID)),
	)
	return types.Receipt{SubmissionID: sub.ID, Status: types.StatusAccepted}, nil
}

// check resolves the target of a submission and dry-runs the attempt on
// the stored result.
func (s *Service) check(ctx context.Context, sub attempt.Submission) (*model.Round, error) { //nolint:gocritic // hugeParam
	if sub.Attempt.Empty() {
		return nil, attempt.ErrEmptyAttempt
	}
	round, err := s.store.Round(ctx, sub.RoundID)
	if err != nil {
		return nil, err
	}
	g := round.Group(sub.GroupID)
	switch {
	case g == nil:
		return nil, fmt.Errorf("group %d in round %d: %w", sub.GroupID, sub.RoundID, repository.ErrGroupNotFound)
	case !g.HasClimber(sub.ClimberID):
		return nil, fmt.Errorf("climber %d in group %d: %w", sub.ClimberID, sub.GroupID, repository.ErrClimberNotInGroup)
	case !g.HasBoulder(sub.BoulderID):
		return nil, fmt.Errorf("boulder %d in group %d: %w", sub.BoulderID, sub.GroupID, repository.ErrBoulderNotInGroup)
	}

	current := model.Result{ClimberID: sub.ClimberID, BoulderID: sub.BoulderID}
	if res := g.Result(sub.ClimberID, sub.BoulderID); res != nil {
		current = *res
	}
	if _, err := attempt.Apply(current, attempt.RulesFor(round), sub.Attempt); err != nil {
		return nil, err
	}
	return round, nil
}

// rejectReason labels a rejected submission for metrics.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, attempt.ErrMaxTriesReached):
		return "max_tries_reached"
	case errors.Is(err, attempt.ErrWrongResultForRound):
		return "wrong_result_for_round"
	case errors.Is(err, attempt.ErrEmptyAttempt):
		return "empty_attempt"
	case errors.Is(err, repository.ErrRoundNotFound),
		errors.Is(err, repository.ErrGroupNotFound),
		errors.Is(err, repository.ErrClimberNotInGroup),
		errors.Is(err, repository.ErrBoulderNotInGroup):
		return "unknown_target"
	default:
		return "other"
	}
}
