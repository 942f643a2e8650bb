// Package buildinfo carries version metadata stamped in via ldflags.
package buildinfo

var (
	// Version is the release version, set during build.
	Version = "dev"
	// Commit is the git commit hash, set during build.
	Commit = "none"
	// Date is the build timestamp, set during build.
	Date = "unknown"
)
