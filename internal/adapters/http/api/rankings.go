package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
)

// maxDiffBody caps a diff request body.
const maxDiffBody = 1 << 20

// categoryQuery selects a ranking pool of a competition.
type categoryQuery struct {
	Category string `validate:"required"`
	Sex      string `validate:"required,oneof=MALE FEMALE MIXED"`
}

type rankEntryDTO struct {
	ClimberID int64 `json:"climberId" validate:"gt=0"`
	Rank      int   `json:"rank" validate:"gt=0"`
}

type diffRequest struct {
	Old     []rankEntryDTO `json:"old" validate:"dive"`
	Updated []rankEntryDTO `json:"updated" validate:"dive"`
}

type diffResponse struct {
	Diff []types.DiffEntry `json:"diff"`
}

type overallResponse struct {
	CompetitionID model.CompetitionID `json:"competitionId"`
	Category      string              `json:"category"`
	Sex           model.Sex           `json:"sex"`
	Rankings      []types.RankEntry   `json:"rankings"`
}

// RankingsHandler serves ranking reads and the diff utility.
type RankingsHandler struct {
	deps Dependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleGroup handles GET /groups/{groupId}/rankings.
func (h *RankingsHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	const op = "rankings.group"
	id, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	snap, err := h.deps.GroupRankings(r.Context(), model.GroupID(id))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleRound handles GET /rounds/{roundId}/rankings.
func (h *RankingsHandler) HandleRound(w http.ResponseWriter, r *http.Request) {
	const op = "rankings.round"
	id, err := pathID(r, "roundId")
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	rr, err := h.deps.RoundRankings(r.Context(), model.RoundID(id))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rr)
}

// HandleCompetition handles GET /competitions/{competitionId}/rankings?category=&sex=.
func (h *RankingsHandler) HandleCompetition(w http.ResponseWriter, r *http.Request) {
	const op = "rankings.competition"
	id, err := pathID(r, "competitionId")
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	q := categoryQuery{
		Category: r.URL.Query().Get("category"),
		Sex:      r.URL.Query().Get("sex"),
	}
	if err := validate.Struct(q); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	category := model.Category{Name: q.Category, Sex: model.Sex(q.Sex)}

	entries, err := h.deps.OverallRankings(r.Context(), model.CompetitionID(id), category)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, overallResponse{
		CompetitionID: model.CompetitionID(id),
		Category:      category.Name,
		Sex:           category.Sex,
		Rankings:      entries,
	})
}

// HandleDiff handles POST /rankings/diff.
func (h *RankingsHandler) HandleDiff(w http.ResponseWriter, r *http.Request) {
	const op = "rankings.diff"
	var req diffRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDiffBody)).Decode(&req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	diff := h.deps.Diff(toEntries(req.Old), toEntries(req.Updated))
	if diff == nil {
		diff = []types.DiffEntry{}
	}
	writeJSON(w, http.StatusOK, diffResponse{Diff: diff})
}

func toEntries(in []rankEntryDTO) []types.RankEntry {
	out := make([]types.RankEntry, len(in))
	for i, e := range in {
		out[i] = types.RankEntry{ClimberID: model.ClimberID(e.ClimberID), Rank: e.Rank}
	}
	return out
}
