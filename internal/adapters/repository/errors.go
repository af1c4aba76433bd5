package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrClimberNotInGroup   = errors.New("climber not registered in group")
	ErrBoulderNotInGroup   = errors.New("boulder not part of group")
	ErrRankingsNotFound    = errors.New("rankings not computed yet")
	ErrDuplicateID         = errors.New("identifier already loaded")
	ErrInvalidDefinition   = errors.New("invalid competition definition")
)
