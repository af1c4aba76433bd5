package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cragrank/internal/adapters/http/api"
	"github.com/okian/cragrank/internal/adapters/http/swagger"
	"github.com/okian/cragrank/internal/adapters/http/ws"
	"github.com/okian/cragrank/internal/adapters/repository"
	app "github.com/okian/cragrank/internal/app"
	"github.com/okian/cragrank/internal/config"
	"github.com/okian/cragrank/pkg/logger"
	"github.com/okian/cragrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger format comes from the config, so it is not up yet.
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if path := os.Getenv(config.EnvConfigPath); path != "" {
		go watchConfig(ctx, path)
	}

	store := repository.NewMemoryStore(repository.WithLogger(log.Named("store")))
	if cfg.CompetitionFile != "" {
		if err := loadCompetitions(ctx, store, cfg.CompetitionFile); err != nil {
			log.Fatal(ctx, "failed to load competitions", logger.String("path", cfg.CompetitionFile), logger.Error(err))
		}
	}

	// The hub asks the service for a room's current state, and the service
	// publishes through the hub, so the closure breaks the cycle.
	var svc *app.Service
	hub := ws.NewHub(
		ws.WithPingPeriod(cfg.WSPingInterval()),
		ws.WithSendBuffer(cfg.WSSendBuffer),
		ws.WithLogger(log.Named("ws")),
		ws.WithInitialState(func(ctx context.Context, room string) (any, bool) {
			return svc.RoomState(ctx, room)
		}),
	)
	go hub.Run(ctx)

	svc = app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithPublisher(hub),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		log.Fatal(ctx, "failed to start service", logger.Error(err))
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, hub),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// newMux registers the business API, the websocket endpoint and the docs.
func newMux(ctx context.Context, svc *app.Service, hub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	stats := func(ctx context.Context) any { return svc.GetStats(ctx) }
	api.NewServer(svc, stats, hub).Register(ctx, mux)
	return mux
}

// loadCompetitions reads the competition file into store.
func loadCompetitions(ctx context.Context, store repository.Store, path string) error {
	comps, err := repository.LoadFile(path)
	if err != nil {
		return err
	}
	for _, c := range comps {
		if err := store.AddCompetition(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// watchConfig applies log_level changes from the config file at runtime.
func watchConfig(ctx context.Context, path string) {
	err := config.Watch(ctx, path, func(c *config.Config) {
		if err := logger.SetLevelString(c.LogLevel); err != nil {
			logger.Get().Warn(ctx, "ignoring invalid log_level", logger.String("log_level", c.LogLevel))
			return
		}
		logger.Get().Info(ctx, "log level updated", logger.String("log_level", c.LogLevel))
	})
	if err != nil {
		logger.Get().Error(ctx, "config watch stopped", logger.Error(err))
	}
}

// startSystemMetricsUpdater updates process metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater updates pipeline gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateQueueCapacity(stats.QueueCapacity)
	metrics.UpdateWorkerCount(stats.Workers)
	metrics.UpdateWSClients(stats.Subscribers)
	metrics.UpdateStoreSize(stats.Store.Rounds, stats.Store.Climbers)
}
