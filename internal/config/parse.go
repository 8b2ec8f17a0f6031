// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseCommaSeparated splits a comma separated list, trimming whitespace and
// dropping empty entries. An empty input keeps the fallback.
func parseCommaSeparated(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// ParsePorts parses TEAMDIR_OUTBOUND_PORTS.
// Supported forms: "80,443" and ranges "8000..8010" or "8000-8010" (optionally mixed).
func ParsePorts(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil // nil => "no ports configured"
	}

	var out []int
	seen := map[int]struct{}{}

	add := func(v int) error {
		if v < 1 || v > 65535 {
			return fmt.Errorf("port must be in 1..65535 (got %d)", v)
		}
		if _, ok := seen[v]; ok {
			return nil
		}
		seen[v] = struct{}{}
		out = append(out, v)
		return nil
	}

	addRange := func(p, rawA, rawB string) error {
		a, err := strconv.Atoi(strings.TrimSpace(rawA))
		if err != nil {
			return fmt.Errorf("invalid port range start %q: %w", rawA, err)
		}
		b, err := strconv.Atoi(strings.TrimSpace(rawB))
		if err != nil {
			return fmt.Errorf("invalid port range end %q: %w", rawB, err)
		}
		if a > b {
			return fmt.Errorf("invalid port range %q: start > end", p)
		}
		for i := a; i <= b; i++ {
			if err := add(i); err != nil {
				return err
			}
		}
		return nil
	}

	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		// Range: "a..b"
		if strings.Contains(p, "..") {
			ab := strings.Split(p, "..")
			if len(ab) != 2 {
				return nil, fmt.Errorf("invalid port range: %q", p)
			}
			if err := addRange(p, ab[0], ab[1]); err != nil {
				return nil, err
			}
			continue
		}

		// Range: "a-b"
		if strings.Count(p, "-") == 1 && !strings.HasPrefix(p, "-") {
			ab := strings.Split(p, "-")
			if err := addRange(p, ab[0], ab[1]); err != nil {
				return nil, err
			}
			continue
		}

		// Single port
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", p, err)
		}
		if err := add(v); err != nil {
			return nil, err
		}
	}

	sort.Ints(out)
	return out, nil
}
