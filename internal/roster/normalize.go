// SPDX-License-Identifier: MIT
package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NFC returns the canonical composed form of s. Photo filenames on
// macOS volumes arrive decomposed; composing both sides first keeps
// comparisons honest.
func NFC(s string) string {
	return norm.NFC.String(s)
}

// Fold lowercases s and strips combining marks, so "José" matches
// "jose". Used for search and the fallback photo-matching pass.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(norm.NFC.String(s))
	}
	return strings.ToLower(folded)
}

// Slugify renders a name as a lowercase URL-safe token: diacritics
// folded, runs of other characters collapsed to single dashes.
func Slugify(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}
