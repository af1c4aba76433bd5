package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/cragrank/internal/adapters/mq/queue"
	"github.com/okian/cragrank/internal/adapters/repository"
	service "github.com/okian/cragrank/internal/app"
	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/internal/domain/ranking"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// Error tags an error with the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind builds an error of a given kind without a cause.
func NewKind(op string, kind error) error { return &Error{Op: op, Kind: kind} }

// Wrap tags err with op.
func Wrap(op string, err error) error { return &Error{Op: op, Err: err} }

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error { return &Error{Op: op, Kind: kind, Err: err} }

// statusFor maps an error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrInvalidDefinition):
		return http.StatusBadRequest, "invalid_definition"
	case errors.Is(err, repository.ErrCompetitionNotFound),
		errors.Is(err, repository.ErrRoundNotFound),
		errors.Is(err, repository.ErrGroupNotFound),
		errors.Is(err, repository.ErrClimberNotInGroup),
		errors.Is(err, repository.ErrBoulderNotInGroup),
		errors.Is(err, repository.ErrRankingsNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict, "conflict"
	case errors.Is(err, attempt.ErrWrongResultForRound):
		return http.StatusUnprocessableEntity, "wrong_result_for_round"
	case errors.Is(err, attempt.ErrMaxTriesReached):
		return http.StatusUnprocessableEntity, "max_tries_reached"
	case errors.Is(err, attempt.ErrEmptyAttempt):
		return http.StatusUnprocessableEntity, "empty_attempt"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ranking.ErrUnsupportedDiscipline):
		return http.StatusInternalServerError, "invalid_state"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
