package types

import "sort"

// SortEntries orders entries by rank, then by climber id.
func SortEntries(entries []RankEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rank != entries[j].Rank {
			return entries[i].Rank < entries[j].Rank
		}
		return entries[i].ClimberID < entries[j].ClimberID
	})
}
