// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/internal/domain/types"
)

// Package-level validator for request bodies and queries.
var validate = validator.New()

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit validates and queues a judge input.
	Submit(ctx context.Context, sub attempt.Submission) (types.Receipt, error)

	// AddCompetition loads and ranks a competition.
	AddCompetition(ctx context.Context, c *model.Competition) error

	// Read operations expose the latest rankings.
	GroupRankings(ctx context.Context, id model.GroupID) (ranking.Snapshot, error)
	RoundRankings(ctx context.Context, id model.RoundID) (ranking.RoundRankings, error)
	OverallRankings(ctx context.Context, id model.CompetitionID, category model.Category) ([]types.RankEntry, error)

	// Diff compares two flat rankings.
	Diff(old, updated []types.RankEntry) []types.DiffEntry
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	resultsHandler      *ResultsHandler
	rankingsHandler     *RankingsHandler
	competitionsHandler *CompetitionsHandler
	push                http.Handler
}

// NewServer creates a new API server with all handlers. push serves the
// websocket endpoint and may be nil.
func NewServer(deps Dependencies, stats StatsFunc, push http.Handler) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(stats),
		resultsHandler:      NewResultsHandler(deps),
		rankingsHandler:     NewRankingsHandler(deps),
		competitionsHandler: NewCompetitionsHandler(deps),
		push:                push,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.Metrics())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /rounds/{roundId}/groups/{groupId}/climbers/{climberId}/results",
		MetricsMiddleware(s.resultsHandler.HandlePostResult, "results"))
	mux.HandleFunc("POST /competitions", MetricsMiddleware(s.competitionsHandler.HandlePostCompetitions, "competitions"))

	mux.HandleFunc("GET /groups/{groupId}/rankings", MetricsMiddleware(s.rankingsHandler.HandleGroup, "group_rankings"))
	mux.HandleFunc("GET /rounds/{roundId}/rankings", MetricsMiddleware(s.rankingsHandler.HandleRound, "round_rankings"))
	mux.HandleFunc("GET /competitions/{competitionId}/rankings",
		MetricsMiddleware(s.rankingsHandler.HandleCompetition, "competition_rankings"))
	mux.HandleFunc("POST /rankings/diff", MetricsMiddleware(s.rankingsHandler.HandleDiff, "diff"))

	if s.push != nil {
		mux.Handle("GET /ws", MetricsMiddleware(s.push.ServeHTTP, "ws"))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q is not a positive integer: %w", name, raw, ErrBadRequest)
	}
	return id, nil
}
