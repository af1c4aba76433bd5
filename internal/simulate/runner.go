package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cragrank/internal/adapters/repository"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
	"github.com/okian/cragrank/pkg/logger"
)

// pollInterval is the delay between two convergence checks.
const pollInterval = 200 * time.Millisecond

// ErrDiverged is returned when the served rankings never match the local
// computation within the settle timeout.
var ErrDiverged = errors.New("rankings diverged")

// Report summarizes one simulation.
type Report struct {
	Submitted  int64
	Accepted   int64
	Duplicates int64
	Failed     int64
	Groups     int
	Climbers   int
	Diffs      []string
	Duration   time.Duration
}

// Run loads a generated competition into the service at cfg.BaseURL,
// replays its submissions and waits until the served rankings match.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("simulate")
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	plan := Generate(cfg)
	def, err := repository.Encode([]*model.Competition{plan.Competition})
	if err != nil {
		return nil, err
	}
	if err := c.addCompetitions(ctx, def); err != nil {
		return nil, fmt.Errorf("load competition %d: %w", cfg.CompetitionID, err)
	}
	log.Info(ctx, "competition loaded",
		logger.Int64("competition_id", cfg.CompetitionID),
		logger.Int("climbers", cfg.Climbers),
		logger.Int("submissions", plan.Submissions()),
	)

	report := &Report{Climbers: cfg.Climbers}
	if err := submitAll(ctx, c, cfg, plan, report); err != nil {
		return report, err
	}
	log.Info(ctx, "submissions sent",
		logger.Int64("accepted", report.Accepted),
		logger.Int64("duplicates", report.Duplicates),
		logger.Int64("failed", report.Failed),
	)

	exp, err := expect(plan)
	if err != nil {
		return report, err
	}
	report.Groups = len(exp.groups)

	diffs, err := settle(ctx, c, cfg.SettleTimeout, plan, exp)
	report.Diffs = diffs
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}
	log.Info(ctx, "rankings verified",
		logger.Int("groups", report.Groups),
		logger.String("duration", report.Duration.String()),
	)
	return report, nil
}

// submitAll sends every climber's sequence in order. Climbers run
// concurrently; the order inside a sequence is what the service must keep.
func submitAll(ctx context.Context, c *client, cfg Config, plan *Plan, report *Report) error {
	var submitted, accepted, duplicates, failed atomic.Int64
	defer func() {
		report.Submitted = submitted.Load()
		report.Accepted = accepted.Load()
		report.Duplicates = duplicates.Load()
		report.Failed = failed.Load()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for climber, seq := range plan.Sequences {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(climber))) //nolint:gosec // reproducible load
		g.Go(func() error {
			for _, sub := range seq {
				_, err := c.submit(gctx, sub)
				submitted.Add(1)
				if err != nil {
					failed.Add(1)
					return fmt.Errorf("submission %s for climber %d: %w", sub.ID, climber, err)
				}
				accepted.Add(1)
				if cfg.DuplicateRate == 0 || rng.Float64() >= cfg.DuplicateRate {
					continue
				}
				receipt, err := c.submit(gctx, sub)
				submitted.Add(1)
				if err != nil {
					failed.Add(1)
					return fmt.Errorf("replay %s for climber %d: %w", sub.ID, climber, err)
				}
				if receipt.Status != types.StatusDuplicate {
					return fmt.Errorf("replay %s acknowledged as %q", sub.ID, receipt.Status)
				}
				duplicates.Add(1)
			}
			return nil
		})
	}
	return g.Wait()
}

// settle polls until the served rankings match exp or timeout elapses.
func settle(ctx context.Context, c *client, timeout time.Duration, plan *Plan, exp expectation) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		diffs, err := check(ctx, c, plan, exp)
		if err == nil && len(diffs) == 0 {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return diffs, fmt.Errorf("%w: %w", ErrDiverged, err)
			}
			return diffs, fmt.Errorf("%w: %d differences", ErrDiverged, len(diffs))
		case <-ticker.C:
		}
	}
}
