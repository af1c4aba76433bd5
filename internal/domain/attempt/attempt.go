// Package attempt applies incremental judge input to a stored result.
package attempt

import (
	"fmt"

	"github.com/okian/cragrank/internal/domain/model"
)

// Attempt is one judge input for a (climber, boulder) pair. Nil pointers
// leave the corresponding flag untouched.
type Attempt struct {
	Try  bool  `json:"try,omitempty"`
	Top  *bool `json:"top,omitempty"`
	Zone *bool `json:"zone,omitempty"`
}

// Empty reports whether the attempt changes nothing.
func (a Attempt) Empty() bool {
	return !a.Try && a.Top == nil && a.Zone == nil
}

// Rules are the round settings an attempt is checked against.
type Rules struct {
	Discipline model.Discipline
	// MaxTries caps tries per boulder; zero means unlimited.
	MaxTries int
}

// RulesFor extracts the recording rules of a round.
func RulesFor(r *model.Round) Rules {
	return Rules{Discipline: r.Discipline, MaxTries: r.MaxTries}
}

// Apply returns res updated with a. res is not modified; on error the
// returned result equals res.
//
// A try increments the try counter and is only valid in counted disciplines.
// A top records topInTries as the current try count and implies a zone.
// Clearing a zone also clears the top.
func Apply(res model.Result, rules Rules, a Attempt) (model.Result, error) {
	if a.Empty() {
		return res, ErrEmptyAttempt
	}
	counted := rules.Discipline.Counted()
	out := res

	if a.Try {
		if !counted {
			return res, fmt.Errorf("try on %s round: %w", rules.Discipline, ErrWrongResultForRound)
		}
		if rules.MaxTries > 0 && out.Tries >= rules.MaxTries {
			return res, fmt.Errorf("%d of %d tries used: %w", out.Tries, rules.MaxTries, ErrMaxTriesReached)
		}
		out.Tries++
	}

	zone := a.Zone
	if a.Top != nil {
		out.Top = *a.Top
		if counted {
			out.TopInTries = 0
			if out.Top {
				out.TopInTries = out.Tries
			}
			if !out.Zone {
				implied := true
				zone = &implied
			}
		}
	}

	if zone != nil {
		if !counted {
			return res, fmt.Errorf("zone on %s round: %w", rules.Discipline, ErrWrongResultForRound)
		}
		out.Zone = *zone
		if out.Zone {
			out.ZoneInTries = out.Tries
		} else {
			out.Top = false
			out.TopInTries = 0
			out.ZoneInTries = 0
		}
	}
	return out, nil
}
