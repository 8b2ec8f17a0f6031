// SPDX-License-Identifier: MIT
package library

import (
	"time"

	"github.com/ManuGH/teamdir/internal/photos"
)

// ItemsFromScan converts a photo scan plus the match result into index
// rows. matchedBy maps photo filename to the owning profile ID; photos
// nobody matched get an empty MatchedProfile. The photo directory is
// flat, so rel_path equals the filename.
func ItemsFromScan(files []photos.File, matchedBy map[string]string, scannedAt time.Time) []Item {
	items := make([]Item, 0, len(files))
	for _, f := range files {
		item := Item{
			RelPath:        f.Name,
			Filename:       f.Name,
			SizeBytes:      f.Size,
			ModTime:        f.ModTime,
			Width:          f.Width,
			Height:         f.Height,
			Orientation:    f.Meta.Orientation,
			MatchedProfile: matchedBy[f.Name],
			ScannedAt:      scannedAt,
		}
		if !f.Meta.TakenAt.IsZero() {
			t := f.Meta.TakenAt
			item.TakenAt = &t
		}
		items = append(items, item)
	}
	return items
}
