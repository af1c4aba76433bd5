package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/cragrank/internal/simulate"
	"github.com/okian/cragrank/pkg/logger"
)

// defaultRunTimeout bounds a whole simulation.
const defaultRunTimeout = 10 * time.Minute

func main() {
	def := simulate.DefaultConfig()
	var (
		baseURL       = flag.String("url", def.BaseURL, "Base URL of the service")
		competitionID = flag.Int64("competition", def.CompetitionID, "Id of the generated competition; must not be loaded yet")
		climbers      = flag.Int("climbers", def.Climbers, "Number of climbers")
		groups        = flag.Int("groups", def.Groups, "Number of qualifier groups")
		boulders      = flag.Int("boulders", def.Boulders, "Boulders per group")
		finalSize     = flag.Int("final", def.FinalSize, "Climbers in the final")
		maxTries      = flag.Int("max-tries", def.MaxTries, "Try cap of the final")
		dupRate       = flag.Float64("duplicates", def.DuplicateRate, "Share of submissions replayed with the same id")
		seed          = flag.Uint64("seed", def.Seed, "Random seed")
		workers       = flag.Int("workers", def.Workers, "Concurrent climbers")
		timeout       = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		settle        = flag.Duration("settle", def.SettleTimeout, "How long to wait for rankings to converge")
		logFormat     = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := simulate.Config{
		BaseURL:       *baseURL,
		CompetitionID: *competitionID,
		Climbers:      *climbers,
		Groups:        *groups,
		Boulders:      *boulders,
		FinalSize:     *finalSize,
		MaxTries:      *maxTries,
		DuplicateRate: *dupRate,
		Seed:          *seed,
		Workers:       *workers,
		Timeout:       *timeout,
		SettleTimeout: *settle,
	}

	report, err := simulate.Run(ctx, cfg)
	log := logger.Get()
	if report != nil {
		for _, d := range report.Diffs {
			log.Warn(ctx, "ranking mismatch", logger.String("diff", d))
		}
		log.Info(ctx, "simulation finished",
			logger.Int64("submitted", report.Submitted),
			logger.Int64("accepted", report.Accepted),
			logger.Int64("duplicates", report.Duplicates),
			logger.Int64("failed", report.Failed),
			logger.Int("groups", report.Groups),
			logger.String("duration", report.Duration.String()),
		)
	}
	if err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}
