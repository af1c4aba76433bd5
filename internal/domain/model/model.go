// Package model contains the competition graph the ranking engine reads.
//
// Values are plain data: the engine never mutates them and callers hand
// over fully loaded rounds (groups, boulders, climbers and results).
package model

import "fmt"

// Identifiers.
type (
	ClimberID int64
	BoulderID int64
	GroupID   int64
	RoundID   int64

	CompetitionID int64
)

// Discipline tags the scoring rules of a round.
type Discipline string

// Supported disciplines.
const (
	UnlimitedContest Discipline = "UNLIMITED_CONTEST"
	LimitedContest   Discipline = "LIMITED_CONTEST"
	Circuit          Discipline = "CIRCUIT"
)

// Counted reports whether the discipline scores tops, zones and tries.
func (d Discipline) Counted() bool {
	return d == LimitedContest || d == Circuit
}

// Valid reports whether d is a known discipline tag.
func (d Discipline) Valid() bool {
	return d == UnlimitedContest || d.Counted()
}

// RoundType is the stage of a round inside its category.
type RoundType string

// Round types.
const (
	Qualifier RoundType = "QUALIFIER"
	SemiFinal RoundType = "SEMI_FINAL"
	Final     RoundType = "FINAL"
)

// Sex of a category.
type Sex string

// Category sexes.
const (
	Male   Sex = "MALE"
	Female Sex = "FEMALE"
	Mixed  Sex = "MIXED"
)

// Category identifies a ranking pool within a competition.
type Category struct {
	Name string
	Sex  Sex
}

// Key is a stable string form, used for routing and room names.
func (c Category) Key() string {
	return fmt.Sprintf("%s:%s", c.Name, c.Sex)
}

// Climber is the external identity of a competitor.
type Climber struct {
	ID        ClimberID
	FirstName string
	LastName  string
	Club      string
}

// Boulder is a problem in a group. Index fixes its slot in per-boulder vectors.
type Boulder struct {
	ID    BoulderID
	Index int
}

// Result is the recorded outcome of one climber on one boulder.
// A missing Result means no top, no zone and zero tries.
type Result struct {
	ClimberID   ClimberID
	BoulderID   BoulderID
	Top         bool
	TopInTries  int
	Zone        bool
	ZoneInTries int
	Tries       int
}

// Group is a set of climbers on a set of boulders inside one round.
type Group struct {
	ID       GroupID
	Name     string
	Boulders []Boulder
	Climbers []Climber
	Results  []Result
}

// HasClimber reports whether id is registered in the group.
func (g *Group) HasClimber(id ClimberID) bool {
	for _, c := range g.Climbers {
		if c.ID == id {
			return true
		}
	}
	return false
}

// HasBoulder reports whether id belongs to the group.
func (g *Group) HasBoulder(id BoulderID) bool {
	for _, b := range g.Boulders {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Result returns a pointer to the stored result for the pair, or nil.
func (g *Group) Result(climber ClimberID, boulder BoulderID) *Result {
	for i := range g.Results {
		if g.Results[i].ClimberID == climber && g.Results[i].BoulderID == boulder {
			return &g.Results[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.Boulders = append([]Boulder(nil), g.Boulders...)
	c.Climbers = append([]Climber(nil), g.Climbers...)
	c.Results = append([]Result(nil), g.Results...)
	return &c
}

// Competition is a named event made of rounds across categories.
type Competition struct {
	ID     CompetitionID
	Name   string
	Rounds []*Round
}

// Categories lists the distinct categories of the competition in round order.
func (c *Competition) Categories() []Category {
	var out []Category
	seen := make(map[Category]struct{})
	for _, r := range c.Rounds {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}

// Round is one stage of a category.
type Round struct {
	ID            RoundID
	CompetitionID CompetitionID
	Index         int
	Name          string
	Category      Category
	Discipline    Discipline
	Type          RoundType
	// MaxTries caps tries per boulder; zero means unlimited.
	MaxTries int
	Groups   []*Group
}

// Group returns the group with the given id, or nil.
func (r *Round) Group(id GroupID) *Group {
	for _, g := range r.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// ClimberCount is the number of climbers across all groups.
func (r *Round) ClimberCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Climbers)
	}
	return n
}

// Clone returns a deep copy of the round and its groups.
func (r *Round) Clone() *Round {
	c := *r
	c.Groups = make([]*Group, len(r.Groups))
	for i, g := range r.Groups {
		c.Groups[i] = g.Clone()
	}
	return &c
}
