package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/types"
)

// maxResultBody caps a single judge input body.
const maxResultBody = 1 << 12

// resultRequest is the body of a judge input.
type resultRequest struct {
	SubmissionID string `json:"submissionId" validate:"omitempty,max=128"`
	BoulderID    int64  `json:"boulderId" validate:"gt=0"`
	Try          bool   `json:"try"`
	Top          *bool  `json:"top"`
	Zone         *bool  `json:"zone"`
}

// ResultsHandler accepts judge inputs.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandlePostResult handles POST /rounds/{roundId}/groups/{groupId}/climbers/{climberId}/results.
func (h *ResultsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	const op = "results.post"

	sub, err := decodeSubmission(w, r)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}

	receipt, err := h.deps.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}

	status := http.StatusAccepted
	if receipt.Status == types.StatusDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

func decodeSubmission(w http.ResponseWriter, r *http.Request) (attempt.Submission, error) {
	roundID, err := pathID(r, "roundId")
	if err != nil {
		return attempt.Submission{}, err
	}
	groupID, err := pathID(r, "groupId")
	if err != nil {
		return attempt.Submission{}, err
	}
	climberID, err := pathID(r, "climberId")
	if err != nil {
		return attempt.Submission{}, err
	}

	var req resultRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResultBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return attempt.Submission{}, WrapKind("decode", ErrBadRequest, err)
	}
	if err := validate.Struct(req); err != nil {
		return attempt.Submission{}, WrapKind("validate", ErrBadRequest, err)
	}

	sub := attempt.Submission{
		ID:        req.SubmissionID,
		RoundID:   model.RoundID(roundID),
		GroupID:   model.GroupID(groupID),
		ClimberID: model.ClimberID(climberID),
		BoulderID: model.BoulderID(req.BoulderID),
		Attempt:   attempt.Attempt{Try: req.Try, Top: req.Top, Zone: req.Zone},
	}
	if sub.Attempt.Empty() {
		return attempt.Submission{}, fmt.Errorf("no try, top or zone given: %w", attempt.ErrEmptyAttempt)
	}
	return sub, nil
}
