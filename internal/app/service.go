// Package service wires the store, the submission pipeline and the ranking
// engine together and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	eventqueue "github.com/okian/cragrank/internal/adapters/mq/queue"
	workerpool "github.com/okian/cragrank/internal/adapters/mq/worker"
	"github.com/okian/cragrank/internal/adapters/repository"
	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/dedupe"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
	"github.com/okian/cragrank/pkg/logger"
	"github.com/okian/cragrank/pkg/metrics"
)

// Publisher pushes a ranking and its diff to the subscribers of a room.
type Publisher interface {
	Publish(ctx context.Context, room string, rankings any, diff []types.DiffEntry) error
}

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      eventqueue.Queue
	workerPool *workerpool.Pool
	publisher  Publisher

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	// categories serializes recomputes of one category between the worker
	// owning it and AddCompetition. Keyed by partition key.
	categories sync.Map

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  50_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start ranks everything already in the store and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithLogger(s.logger.Named("store")))
	}

	s.logger.Info(ctx, "starting ranking service...")
	if err := s.recomputeAll(ctx); err != nil {
		return err
	}

	s.deduper = dedupe.NewWindow(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithPartitions(s.workerCount),
	)
	s.workerPool = workerpool.NewPool(s.queue, s, workerpool.WithPoolLogger(s.logger.Named("worker")))
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// recomputeAll ranks every category of every loaded competition. Categories
// share no rounds, so they are ranked concurrently.
func (s *Service) recomputeAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range s.store.Competitions(ctx) {
		for _, cat := range c.Categories() {
			g.Go(func() error {
				return s.recomputeCategory(gctx, c.ID, cat)
			})
		}
	}
	return g.Wait()
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping ranking service...")
	err := s.workerPool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
	return err
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Stats is the service snapshot served on /stats.
type Stats struct {
	Started       bool             `json:"started"`
	Workers       int              `json:"workers"`
	QueueLength   int              `json:"queueLength"`
	QueueCapacity int              `json:"queueCapacity"`
	DedupeSize    int64            `json:"dedupeSize"`
	Processed     int64            `json:"processed"`
	Subscribers   int              `json:"subscribers"`
	Store         repository.Stats `json:"store"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Started: s.started, Workers: s.workerCount}
	if s.store != nil {
		st.Store = s.store.Stats(ctx)
	}
	if counter, ok := s.publisher.(interface{ Count() int }); ok {
		st.Subscribers = counter.Count()
	}
	if s.started {
		st.QueueLength = s.queue.Len(ctx)
		st.QueueCapacity = s.queue.Capacity()
		st.DedupeSize = s.deduper.Size()
		st.Processed = s.workerPool.Processed()
		metrics.UpdateQueueSize(st.QueueLength)
	}
	return st
}

// AddCompetition loads a competition and ranks its categories. Submissions
// can target it as soon as it is stored, so each category is ranked under
// the same lock its worker takes.
func (s *Service) AddCompetition(ctx context.Context, c *model.Competition) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	if err := s.store.AddCompetition(ctx, c); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range c.Categories() {
		g.Go(func() error {
			defer s.lockCategory(attempt.PartitionKey(c.ID, cat))()
			return s.recomputeCategory(gctx, c.ID, cat)
		})
	}
	return g.Wait()
}

// lockCategory locks the category behind key and returns the unlock.
func (s *Service) lockCategory(key string) func() {
	v, _ := s.categories.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex) //nolint:forcetypeassert // only mutexes are stored
	mu.Lock()
	return mu.Unlock
}
