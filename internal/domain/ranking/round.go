package ranking

import (
	"fmt"

	"github.com/okian/cragrank/internal/domain/model"
)

// ComputeRoundRanking ranks every group of a round under the round's
// discipline. A round without groups yields an empty ranking.
func ComputeRoundRanking(r *model.Round) (RoundRankings, error) {
	if !r.Discipline.Valid() {
		return RoundRankings{}, fmt.Errorf("round %d: %q: %w", r.ID, r.Discipline, ErrUnsupportedDiscipline)
	}
	out := RoundRankings{
		RoundID:    r.ID,
		Discipline: r.Discipline,
		Type:       r.Type,
		Groups:     make([]Snapshot, 0, len(r.Groups)),
	}
	for _, g := range r.Groups {
		s, err := ComputeGroupRanking(g, r.Discipline, r.Type)
		if err != nil {
			return RoundRankings{}, fmt.Errorf("round %d: %w", r.ID, err)
		}
		out.Groups = append(out.Groups, s)
	}
	return out, nil
}
