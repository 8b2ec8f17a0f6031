// SPDX-License-Identifier: MIT
package roster

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyRoster indicates the roster input held no data at all.
	ErrEmptyRoster = errors.New("roster is empty")
	// ErrMissingColumn indicates a required roster column was not found.
	ErrMissingColumn = errors.New("required roster column missing")
)

const (
	sniffSampleSize    = 1024
	unknownProfileName = "Unknown Profile"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// columnIndex maps the canonical roster columns to their positions in
// the header row. -1 means absent.
type columnIndex struct {
	name       int
	birthday   int
	townCounty int
	country    int
}

// DecodeCSV parses a roster file. The delimiter is sniffed from the
// first KiB, headers are matched case-insensitively with underscores
// treated as spaces, and ragged rows are tolerated. Row order is
// preserved.
func DecodeCSV(r io.Reader) ([]Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyRoster
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	idx, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var profiles []Profile
	seen := make(map[string]int)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row %d: %w", len(profiles)+2, err)
		}

		p := profileFromRecord(record, idx)
		if n := seen[p.ID]; n > 0 {
			// Fully identical rows hash to the same ID; suffix by
			// occurrence so ByID lookups stay unambiguous.
			seen[p.ID] = n + 1
			p.ID = fmt.Sprintf("%s-%d", p.ID, n+1)
		} else {
			seen[p.ID] = 1
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// sniffDelimiter picks the candidate whose per-line count is non-zero
// and consistent across the sample lines. Comma wins ties and serves
// as the fallback.
func sniffDelimiter(data []byte) rune {
	sample := data
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
		// Drop the trailing partial line so a delimiter inside it
		// cannot skew the counts.
		if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i]
		}
	}

	lines := splitSampleLines(sample)
	if len(lines) == 0 {
		return ','
	}

	bestDelim := ','
	bestCount := 0
	for _, cand := range delimiterCandidates {
		count, consistent := delimiterStats(lines, cand)
		if !consistent || count == 0 {
			continue
		}
		if count > bestCount {
			bestCount = count
			bestDelim = cand
		}
	}
	return bestDelim
}

func splitSampleLines(sample []byte) []string {
	var lines []string
	for _, raw := range strings.Split(string(sample), "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func delimiterStats(lines []string, delim rune) (count int, consistent bool) {
	for i, line := range lines {
		c := strings.Count(line, string(delim))
		if i == 0 {
			count = c
			continue
		}
		if c != count {
			return 0, false
		}
	}
	return count, true
}

func normalizeHeaderCell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

func mapHeader(header []string) (columnIndex, error) {
	idx := columnIndex{name: -1, birthday: -1, townCounty: -1, country: -1}
	for i, raw := range header {
		switch normalizeHeaderCell(raw) {
		case "name":
			if idx.name < 0 {
				idx.name = i
			}
		case "birthday":
			if idx.birthday < 0 {
				idx.birthday = i
			}
		case "town/county", "town county":
			if idx.townCounty < 0 {
				idx.townCounty = i
			}
		case "country":
			if idx.country < 0 {
				idx.country = i
			}
		}
	}

	switch {
	case idx.name < 0:
		return idx, fmt.Errorf("%w: Name", ErrMissingColumn)
	case idx.birthday < 0:
		return idx, fmt.Errorf("%w: Birthday", ErrMissingColumn)
	case idx.townCounty < 0:
		return idx, fmt.Errorf("%w: Town/County", ErrMissingColumn)
	case idx.country < 0:
		return idx, fmt.Errorf("%w: Country", ErrMissingColumn)
	}
	return idx, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func profileFromRecord(record []string, idx columnIndex) Profile {
	p := Profile{
		Name:       cell(record, idx.name),
		Birthday:   cell(record, idx.birthday),
		TownCounty: cell(record, idx.townCounty),
		Country:    cell(record, idx.country),
	}
	if p.Name == "" {
		p.Name = unknownProfileName
	}
	if fields := strings.Fields(p.Name); len(fields) > 0 {
		p.FirstName = fields[0]
	}
	p.ID = profileID(p)
	return p
}

// profileID derives a stable identifier: the slugified name plus a
// short hash over the row content, so "Maria Santos" in Lisbon and
// "Maria Santos" in Porto get distinct IDs that survive reloads.
func profileID(p Profile) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{p.Name, p.Birthday, p.TownCounty, p.Country}, "\x1f")))
	slug := Slugify(p.Name)
	if slug == "" {
		slug = "profile"
	}
	return slug + "-" + hex.EncodeToString(sum[:3])
}
