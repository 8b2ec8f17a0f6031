// SPDX-License-Identifier: MIT
package roster

// Profile is one row of the team roster. Birthday stays free text; the
// source data carries entries like "14 March" that no date type fits.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FirstName  string `json:"first_name,omitempty"`
	Birthday   string `json:"birthday"`
	TownCounty string `json:"town_county"`
	Country    string `json:"country"`
	Photo      string `json:"photo,omitempty"`
	HasPhoto   bool   `json:"has_photo"`
}
