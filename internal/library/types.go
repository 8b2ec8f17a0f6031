// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package library maintains the photo metadata index behind the
// /api/library endpoints. The index is derived state: every refresh
// rescans the photo directory and reconciles the table in a single
// transaction, so deleting the database loses nothing.
package library

import "time"

// Item is one indexed photo file.
type Item struct {
	RelPath        string     `json:"rel_path"`
	Filename       string     `json:"filename"`
	SizeBytes      int64      `json:"size_bytes"`
	ModTime        time.Time  `json:"mod_time"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Orientation    int        `json:"orientation"`
	TakenAt        *time.Time `json:"taken_at,omitempty"`
	MatchedProfile string     `json:"matched_profile,omitempty"`
	ScannedAt      time.Time  `json:"scanned_at"`
}

// Stats summarizes the index for /api/library/stats.
type Stats struct {
	Items      int   `json:"items"`
	TotalBytes int64 `json:"total_bytes"`
	Matched    int   `json:"matched"`
}
