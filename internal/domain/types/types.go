// Package types contains the flat wire shapes shared by the ranking engine,
// the store and the transports.
package types

import "github.com/okian/cragrank/internal/domain/model"

// RankEntry is one line of a flat ranking.
type RankEntry struct {
	ClimberID model.ClimberID `json:"climberId"`
	Rank      int             `json:"rank"`
}

// DiffEntry describes how one climber moved between two rankings.
// Exactly one of Added, Removed or Delta is set.
type DiffEntry struct {
	ClimberID model.ClimberID `json:"climberId"`
	Added     bool            `json:"added,omitempty"`
	Removed   bool            `json:"removed,omitempty"`
	// Delta is old rank minus new rank; positive means the climber moved up.
	Delta *int `json:"delta,omitempty"`
}

// Kind names the change: added, removed or delta.
func (d DiffEntry) Kind() string {
	switch {
	case d.Added:
		return "added"
	case d.Removed:
		return "removed"
	default:
		return "delta"
	}
}

// EntriesFromMap flattens a climber to rank map, ordered by rank then id.
func EntriesFromMap(ranks map[model.ClimberID]int) []RankEntry {
	out := make([]RankEntry, 0, len(ranks))
	for id, r := range ranks {
		out = append(out, RankEntry{ClimberID: id, Rank: r})
	}
	SortEntries(out)
	return out
}

// Submission outcomes.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// Receipt acknowledges a judge submission.
type Receipt struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
}
