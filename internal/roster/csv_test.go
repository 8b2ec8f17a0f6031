// SPDX-License-Identifier: MIT
package roster

import (
	"errors"
	"strings"
	"testing"
)

const commaRoster = `Name,Birthday,Town/County,Country
Ekene Amobi,14 March,Lagos,Nigeria
Maria Santos,2 June,Lisbon,Portugal
Seán Ó Sé,30 October,Kerry,Ireland
`

func TestDecodeCSVComma(t *testing.T) {
	profiles, err := DecodeCSV(strings.NewReader(commaRoster))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("got %d profiles, want 3", len(profiles))
	}

	first := profiles[0]
	if first.Name != "Ekene Amobi" {
		t.Errorf("Name = %q", first.Name)
	}
	if first.FirstName != "Ekene" {
		t.Errorf("FirstName = %q", first.FirstName)
	}
	if first.Birthday != "14 March" || first.TownCounty != "Lagos" || first.Country != "Nigeria" {
		t.Errorf("unexpected fields: %+v", first)
	}
	if !strings.HasPrefix(first.ID, "ekene-amobi-") {
		t.Errorf("ID = %q, want ekene-amobi- prefix", first.ID)
	}

	// Row order preserved.
	if profiles[1].Name != "Maria Santos" || profiles[2].Name != "Seán Ó Sé" {
		t.Errorf("row order not preserved: %q, %q", profiles[1].Name, profiles[2].Name)
	}
}

func TestDecodeCSVDelimiterSniffing(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"semicolon", "Name;Birthday;Town/County;Country\nMaria Santos;2 June;Lisbon;Portugal\n"},
		{"tab", "Name\tBirthday\tTown/County\tCountry\nMaria Santos\t2 June\tLisbon\tPortugal\n"},
		{"pipe", "Name|Birthday|Town/County|Country\nMaria Santos|2 June|Lisbon|Portugal\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profiles, err := DecodeCSV(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("DecodeCSV: %v", err)
			}
			if len(profiles) != 1 {
				t.Fatalf("got %d profiles, want 1", len(profiles))
			}
			p := profiles[0]
			if p.Name != "Maria Santos" || p.Birthday != "2 June" || p.TownCounty != "Lisbon" || p.Country != "Portugal" {
				t.Errorf("unexpected profile: %+v", p)
			}
		})
	}
}

func TestDecodeCSVHeaderVariants(t *testing.T) {
	input := " NAME , birthday ,Town_County,COUNTRY\nEkene Amobi,14 March,Lagos,Nigeria\n"
	profiles, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	if profiles[0].TownCounty != "Lagos" {
		t.Errorf("TownCounty = %q, want Lagos", profiles[0].TownCounty)
	}
}

func TestDecodeCSVMissingColumn(t *testing.T) {
	input := "Name,Birthday,Town/County\nEkene Amobi,14 March,Lagos\n"
	_, err := DecodeCSV(strings.NewReader(input))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), "Country") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestDecodeCSVEmpty(t *testing.T) {
	for _, input := range []string{"", "   \n\n  "} {
		if _, err := DecodeCSV(strings.NewReader(input)); !errors.Is(err, ErrEmptyRoster) {
			t.Errorf("DecodeCSV(%q) err = %v, want ErrEmptyRoster", input, err)
		}
	}
}

func TestDecodeCSVStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFName,Birthday,Town/County,Country\nMaria Santos,2 June,Lisbon,Portugal\n"
	profiles, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if profiles[0].Name != "Maria Santos" {
		t.Errorf("Name = %q", profiles[0].Name)
	}
}

func TestDecodeCSVBlankNameAndRaggedRows(t *testing.T) {
	input := "Name,Birthday,Town/County,Country\n,14 March,Lagos,Nigeria\nMaria Santos,2 June\n"
	profiles, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(profiles))
	}
	if profiles[0].Name != "Unknown Profile" {
		t.Errorf("blank name = %q, want Unknown Profile", profiles[0].Name)
	}
	if profiles[1].TownCounty != "" || profiles[1].Country != "" {
		t.Errorf("ragged row should yield empty trailing fields: %+v", profiles[1])
	}
}

func TestDecodeCSVQuotedFields(t *testing.T) {
	input := "Name,Birthday,Town/County,Country\n\"Santos, Maria\",2 June,Lisbon,Portugal\n"
	profiles, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if profiles[0].Name != "Santos, Maria" {
		t.Errorf("Name = %q, want %q", profiles[0].Name, "Santos, Maria")
	}
}

func TestProfileIDStability(t *testing.T) {
	a, err := DecodeCSV(strings.NewReader(commaRoster))
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecodeCSV(strings.NewReader(commaRoster))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("ID not stable across decodes: %q vs %q", a[i].ID, b[i].ID)
		}
	}
}

func TestProfileIDDuplicateNames(t *testing.T) {
	input := "Name,Birthday,Town/County,Country\n" +
		"Maria Santos,2 June,Lisbon,Portugal\n" +
		"Maria Santos,9 April,Porto,Portugal\n" +
		"Maria Santos,2 June,Lisbon,Portugal\n"
	profiles, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, p := range profiles {
		if ids[p.ID] {
			t.Fatalf("duplicate ID %q", p.ID)
		}
		ids[p.ID] = true
		if !strings.HasPrefix(p.ID, "maria-santos-") {
			t.Errorf("ID = %q, want maria-santos- prefix", p.ID)
		}
	}
	// The fully identical third row gets an occurrence suffix.
	if !strings.HasSuffix(profiles[2].ID, "-2") {
		t.Errorf("identical row ID = %q, want -2 suffix", profiles[2].ID)
	}
}
