package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
	"github.com/okian/cragrank/pkg/logger"
	"github.com/okian/cragrank/pkg/metrics"
)

type overallKey struct {
	competition model.CompetitionID
	category    model.Category
}

// MemoryStore is an in-memory Store. Stored rounds and snapshots are never
// modified in place: every write swaps in a new value, so a reader holding
// an older value keeps a consistent view.
type MemoryStore struct {
	mu sync.RWMutex

	competitions map[model.CompetitionID]*model.Competition
	roundIDs     map[model.CompetitionID][]model.RoundID
	rounds       map[model.RoundID]*model.Round
	groupRound   map[model.GroupID]model.RoundID

	roundRankings map[model.RoundID]ranking.RoundRankings
	groupRankings map[model.GroupID]ranking.Snapshot
	overall       map[overallKey][]types.RankEntry

	log logger.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		competitions:  make(map[model.CompetitionID]*model.Competition),
		roundIDs:      make(map[model.CompetitionID][]model.RoundID),
		rounds:        make(map[model.RoundID]*model.Round),
		groupRound:    make(map[model.GroupID]model.RoundID),
		roundRankings: make(map[model.RoundID]ranking.RoundRankings),
		groupRankings: make(map[model.GroupID]ranking.Snapshot),
		overall:       make(map[overallKey][]types.RankEntry),
		log:           logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCompetition implements Store.
func (s *MemoryStore) AddCompetition(ctx context.Context, c *model.Competition) error {
	if c == nil {
		return fmt.Errorf("nil competition: %w", ErrInvalidDefinition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(c); err != nil {
		return err
	}

	meta := *c
	meta.Rounds = nil
	s.competitions[c.ID] = &meta
	ids := make([]model.RoundID, 0, len(c.Rounds))
	for _, r := range c.Rounds {
		stored := r.Clone()
		stored.CompetitionID = c.ID
		s.rounds[r.ID] = stored
		for _, g := range r.Groups {
			s.groupRound[g.ID] = r.ID
		}
		ids = append(ids, r.ID)
	}
	s.roundIDs[c.ID] = ids
	s.updateGauges()

	s.log.Info(ctx, "competition loaded",
		logger.Int64("competition_id", int64(c.ID)),
		logger.String("name", c.Name),
		logger.Int("rounds", len(c.Rounds)),
	)
	return nil
}

func (s *MemoryStore) checkIDs(c *model.Competition) error {
	if _, ok := s.competitions[c.ID]; ok {
		return fmt.Errorf("competition %d: %w", c.ID, ErrDuplicateID)
	}
	rounds := make(map[model.RoundID]struct{})
	groups := make(map[model.GroupID]struct{})
	for _, r := range c.Rounds {
		if _, ok := s.rounds[r.ID]; ok {
			return fmt.Errorf("round %d: %w", r.ID, ErrDuplicateID)
		}
		if _, ok := rounds[r.ID]; ok {
			return fmt.Errorf("round %d: %w", r.ID, ErrDuplicateID)
		}
		rounds[r.ID] = struct{}{}
		for _, g := range r.Groups {
			if _, ok := s.groupRound[g.ID]; ok {
				return fmt.Errorf("group %d: %w", g.ID, ErrDuplicateID)
			}
			if _, ok := groups[g.ID]; ok {
				return fmt.Errorf("group %d: %w", g.ID, ErrDuplicateID)
			}
			groups[g.ID] = struct{}{}
		}
	}
	return nil
}

// Competition implements Store.
func (s *MemoryStore) Competition(_ context.Context, id model.CompetitionID) (*model.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.competitionLocked(id)
}

func (s *MemoryStore) competitionLocked(id model.CompetitionID) (*model.Competition, error) {
	meta, ok := s.competitions[id]
	if !ok {
		return nil, fmt.Errorf("competition %d: %w", id, ErrCompetitionNotFound)
	}
	c := *meta
	c.Rounds = make([]*model.Round, 0, len(s.roundIDs[id]))
	for _, rid := range s.roundIDs[id] {
		c.Rounds = append(c.Rounds, s.rounds[rid].Clone())
	}
	return &c, nil
}

// Competitions implements Store. Competitions are ordered by id.
func (s *MemoryStore) Competitions(_ context.Context) []*model.Competition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Competition, 0, len(s.competitions))
	for id := range s.competitions {
		c, _ := s.competitionLocked(id)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Round implements Store.
func (s *MemoryStore) Round(_ context.Context, id model.RoundID) (*model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rounds[id]
	if !ok {
		return nil, fmt.Errorf("round %d: %w", id, ErrRoundNotFound)
	}
	return r.Clone(), nil
}

// RoundOfGroup implements Store.
func (s *MemoryStore) RoundOfGroup(_ context.Context, id model.GroupID) (model.RoundID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rid, ok := s.groupRound[id]
	if !ok {
		return 0, fmt.Errorf("group %d: %w", id, ErrGroupNotFound)
	}
	return rid, nil
}

// CategoryRounds implements Store.
func (s *MemoryStore) CategoryRounds(_ context.Context, competitionID model.CompetitionID, category model.Category) ([]*model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.competitions[competitionID]; !ok {
		return nil, fmt.Errorf("competition %d: %w", competitionID, ErrCompetitionNotFound)
	}
	var out []*model.Round
	for _, rid := range s.roundIDs[competitionID] {
		if r := s.rounds[rid]; r.Category == category {
			out = append(out, r.Clone())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("category %s in competition %d: %w", category.Key(), competitionID, ErrRoundNotFound)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// UpdateResult implements Store. fn runs under the write lock and must not
// call back into the store.
func (s *MemoryStore) UpdateResult(_ context.Context, roundID model.RoundID, groupID model.GroupID,
	climberID model.ClimberID, boulderID model.BoulderID, fn ResultMutator,
) (*model.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("round %d: %w", roundID, ErrRoundNotFound)
	}
	g := r.Group(groupID)
	if g == nil {
		return nil, fmt.Errorf("group %d in round %d: %w", groupID, roundID, ErrGroupNotFound)
	}
	if !g.HasClimber(climberID) {
		return nil, fmt.Errorf("climber %d in group %d: %w", climberID, groupID, ErrClimberNotInGroup)
	}
	if !g.HasBoulder(boulderID) {
		return nil, fmt.Errorf("boulder %d in group %d: %w", boulderID, groupID, ErrBoulderNotInGroup)
	}

	current := model.Result{ClimberID: climberID, BoulderID: boulderID}
	if existing := g.Result(climberID, boulderID); existing != nil {
		current = *existing
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	next.ClimberID, next.BoulderID = climberID, boulderID

	updated := r.Clone()
	ug := updated.Group(groupID)
	if slot := ug.Result(climberID, boulderID); slot != nil {
		*slot = next
	} else {
		ug.Results = append(ug.Results, next)
	}
	s.rounds[roundID] = updated
	metrics.RecordResultApplied()

	return updated.Clone(), nil
}

// SaveRoundRankings implements Store.
func (s *MemoryStore) SaveRoundRankings(_ context.Context, rr ranking.RoundRankings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[rr.RoundID]; !ok {
		return fmt.Errorf("round %d: %w", rr.RoundID, ErrRoundNotFound)
	}
	s.roundRankings[rr.RoundID] = rr
	for _, snap := range rr.Groups {
		s.groupRankings[snap.GroupID] = snap
	}
	metrics.RecordStoreSnapshot()
	return nil
}

// RoundRankings implements Store.
func (s *MemoryStore) RoundRankings(_ context.Context, id model.RoundID) (ranking.RoundRankings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rr, ok := s.roundRankings[id]
	if !ok {
		if _, known := s.rounds[id]; !known {
			return ranking.RoundRankings{}, fmt.Errorf("round %d: %w", id, ErrRoundNotFound)
		}
		return ranking.RoundRankings{}, fmt.Errorf("round %d: %w", id, ErrRankingsNotFound)
	}
	return rr, nil
}

// GroupRankings implements Store.
func (s *MemoryStore) GroupRankings(_ context.Context, id model.GroupID) (ranking.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.groupRankings[id]
	if !ok {
		if _, known := s.groupRound[id]; !known {
			return ranking.Snapshot{}, fmt.Errorf("group %d: %w", id, ErrGroupNotFound)
		}
		return ranking.Snapshot{}, fmt.Errorf("group %d: %w", id, ErrRankingsNotFound)
	}
	return snap, nil
}

// SaveOverallRankings implements Store.
func (s *MemoryStore) SaveOverallRankings(_ context.Context, competitionID model.CompetitionID, category model.Category, entries []types.RankEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.competitions[competitionID]; !ok {
		return fmt.Errorf("competition %d: %w", competitionID, ErrCompetitionNotFound)
	}
	s.overall[overallKey{competitionID, category}] = append([]types.RankEntry(nil), entries...)
	metrics.RecordStoreSnapshot()
	return nil
}

// OverallRankings implements Store.
func (s *MemoryStore) OverallRankings(_ context.Context, competitionID model.CompetitionID, category model.Category) ([]types.RankEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.competitions[competitionID]; !ok {
		return nil, fmt.Errorf("competition %d: %w", competitionID, ErrCompetitionNotFound)
	}
	entries, ok := s.overall[overallKey{competitionID, category}]
	if !ok {
		return nil, fmt.Errorf("category %s in competition %d: %w", category.Key(), competitionID, ErrRankingsNotFound)
	}
	return append([]types.RankEntry(nil), entries...), nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Competitions: len(s.competitions),
		Rounds:       len(s.rounds),
		Groups:       len(s.groupRound),
		Climbers:     s.climberCountLocked(),
		Snapshots:    len(s.roundRankings) + len(s.groupRankings) + len(s.overall),
	}
}

func (s *MemoryStore) climberCountLocked() int {
	seen := make(map[model.ClimberID]struct{})
	for _, r := range s.rounds {
		for _, g := range r.Groups {
			for _, c := range g.Climbers {
				seen[c.ID] = struct{}{}
			}
		}
	}
	return len(seen)
}

func (s *MemoryStore) updateGauges() {
	metrics.UpdateStoreSize(len(s.rounds), s.climberCountLocked())
}

var _ Store = (*MemoryStore)(nil)
