package version

import "fmt"

var (
	// Version is the semantic version, set with -ldflags "-X .../version.Version=...".
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full renders every build attribute on one line.
func Full() string {
	return fmt.Sprintf("window-alarm %s (commit %s, built %s)", Version, Commit, BuildTime)
}

// LogFields returns the build attributes as key-value pairs for structured logs.
func LogFields() []any {
	return []any{
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	}
}
