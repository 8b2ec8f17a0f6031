// SPDX-License-Identifier: MIT

package jobs

import (
	"time"

	"github.com/ManuGH/teamdir/internal/directory"
	"github.com/ManuGH/teamdir/internal/library"
	"github.com/ManuGH/teamdir/internal/photos"
	"github.com/ManuGH/teamdir/internal/roster"
	"github.com/ManuGH/teamdir/internal/state"
)

// Status represents the outcome of the most recent refresh run
type Status struct {
	LastRun   time.Time `json:"last_run"`
	Profiles  int       `json:"profiles"`
	Countries int       `json:"countries"`
	Photos    int       `json:"photos"`
	Matched   int       `json:"matched"`
	Error     string    `json:"error,omitempty"`
}

// Deps holds all dependencies for the refresh operation. Source and
// Directory are required; the rest degrade to no-ops when nil.
type Deps struct {
	Source    roster.Source     // roster provider (file or remote)
	Directory *directory.Store  // snapshot holder the API reads from
	State     state.StateStore  // snapshot + run persistence
	Library   *library.Store    // photo metadata index
	Prewarmer *photos.Prewarmer // thumbnail prewarm queue
	Clock     func() time.Time  // injectable for tests, nil = time.Now
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}
