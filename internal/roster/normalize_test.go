// SPDX-License-Identifier: MIT
package roster

import "testing"

func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"José", "jose"},
		{"MÜLLER", "muller"},
		{"Çiğdem", "cigdem"},
		{"Seán Ó Sé", "sean o se"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNFC(t *testing.T) {
	// "é" written as 'e' + combining acute composes to a single rune.
	decomposed := "José"
	if got := NFC(decomposed); got != "José" {
		t.Errorf("NFC(%q) = %q, want José", decomposed, got)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ekene Amobi", "ekene-amobi"},
		{"Seán Ó Sé", "sean-o-se"},
		{"  John   Smith  ", "john-smith"},
		{"O'Brien, Jr.", "o-brien-jr"},
		{"---", ""},
		{"李明", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
