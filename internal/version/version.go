// Package version holds the build identity stamped in by ldflags.
package version

import "fmt"

var (
	// Version is the current application version.
	// Populated by the build system (ldflags), this value is the fallback.
	Version = "v1.0.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the full build identity for banners and -version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
