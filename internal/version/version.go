// Package version carries build metadata stamped via -ldflags.
package version

import "fmt"

var (
	// Version is the turnledger release.
	Version = "v0.1.0"

	// Commit and BuiltAt default to "unknown" for plain `go build` binaries.
	Commit  = "unknown"
	BuiltAt = "unknown"
)

// Info returns the release version string, as reported by /healthz.
func Info() string {
	return Version
}

// FullInfo returns the one-line build description for the startup log.
func FullInfo() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuiltAt)
}
