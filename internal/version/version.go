// Package version provides build-time version information.
package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "0.2.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns a one-line build description for startup logs.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
