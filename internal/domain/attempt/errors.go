package attempt

import "errors"

// Sentinel errors for attempt recording.
var (
	ErrWrongResultForRound = errors.New("result kind not allowed for this round")
	ErrMaxTriesReached     = errors.New("max tries reached")
	ErrEmptyAttempt        = errors.New("attempt carries no try, top or zone")
)
