package api

import (
	"io"
	"net/http"

	"github.com/okian/cragrank/internal/adapters/repository"
	"github.com/okian/cragrank/internal/domain/model"
)

// maxDefinitionBody caps a competition definition upload.
const maxDefinitionBody = 8 << 20

type competitionSummary struct {
	ID     model.CompetitionID `json:"id"`
	Name   string              `json:"name"`
	Rounds int                 `json:"rounds"`
}

// CompetitionsHandler loads competition definitions at runtime.
type CompetitionsHandler struct {
	deps Dependencies
}

// NewCompetitionsHandler creates a new competitions handler.
func NewCompetitionsHandler(deps Dependencies) *CompetitionsHandler {
	return &CompetitionsHandler{deps: deps}
}

// HandlePostCompetitions handles POST /competitions. The body uses the
// competition file format, in YAML or JSON.
func (h *CompetitionsHandler) HandlePostCompetitions(w http.ResponseWriter, r *http.Request) {
	const op = "competitions.post"
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDefinitionBody))
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	comps, err := repository.Parse(data)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}

	out := make([]competitionSummary, 0, len(comps))
	for _, c := range comps {
		if err := h.deps.AddCompetition(r.Context(), c); err != nil {
			writeError(w, Wrap(op, err))
			return
		}
		out = append(out, competitionSummary{ID: c.ID, Name: c.Name, Rounds: len(c.Rounds)})
	}
	writeJSON(w, http.StatusCreated, map[string]any{"competitions": out})
}
