// Package buildinfo holds version metadata stamped in with
// -ldflags "-X github.com/cleared-dev/cleared-gl/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

// Overridden at link time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for `cleared-gl --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
