// SPDX-License-Identifier: MIT
package directory

import (
	"strings"

	"github.com/ManuGH/teamdir/internal/roster"
)

// SearchResult carries matches in roster order plus the total count the
// UI shows as "Found N Profiles".
type SearchResult struct {
	Profiles []roster.Profile `json:"profiles"`
	Total    int              `json:"total"`
}

// Search filters profiles by name and country. The name query is a
// case-insensitive, diacritic-folded substring match, so "jose" finds
// "José García". Country is an exact match; empty means all. Roster
// order is preserved.
func (s Snapshot) Search(query, country string) SearchResult {
	query = strings.TrimSpace(query)
	folded := ""
	if query != "" {
		folded = roster.Fold(query)
	}

	matches := make([]roster.Profile, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		if country != "" && p.Country != country {
			continue
		}
		if folded != "" && !strings.Contains(roster.Fold(p.Name), folded) {
			continue
		}
		matches = append(matches, p)
	}

	return SearchResult{Profiles: matches, Total: len(matches)}
}
