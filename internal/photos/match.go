// SPDX-License-Identifier: MIT
package photos

import (
	"strings"

	"github.com/ManuGH/teamdir/internal/roster"
)

// Match links each profile to the first photo whose filename contains
// the profile's first name, case-insensitively. A second pass folds
// diacritics on both sides so "José" still finds "jose_photo.jpg".
// Files must be sorted by name (Scan guarantees this), which makes the
// outcome deterministic. Returns the number of profiles with a photo.
func Match(profiles []roster.Profile, files []File) int {
	lowered := make([]string, len(files))
	folded := make([]string, len(files))
	for i, f := range files {
		lowered[i] = strings.ToLower(roster.NFC(f.Name))
		folded[i] = roster.Fold(f.Name)
	}

	matched := 0
	for i := range profiles {
		p := &profiles[i]
		p.Photo = ""
		p.HasPhoto = false

		token := strings.ToLower(roster.NFC(p.FirstName))
		if token == "" {
			continue
		}

		idx := indexContaining(lowered, token)
		if idx < 0 {
			if ft := roster.Fold(p.FirstName); ft != "" {
				idx = indexContaining(folded, ft)
			}
		}
		if idx >= 0 {
			p.Photo = files[idx].Name
			p.HasPhoto = true
			matched++
		}
	}
	return matched
}

func indexContaining(names []string, token string) int {
	for i, n := range names {
		if strings.Contains(n, token) {
			return i
		}
	}
	return -1
}

// MatchedFiles inverts the match result: photo filename to profile ID.
// When two profiles share a photo the first one in roster order wins.
func MatchedFiles(profiles []roster.Profile) map[string]string {
	out := make(map[string]string)
	for _, p := range profiles {
		if !p.HasPhoto || p.Photo == "" {
			continue
		}
		if _, ok := out[p.Photo]; !ok {
			out[p.Photo] = p.ID
		}
	}
	return out
}
