// Package version holds build-time version metadata.
package version

import "fmt"

// Version is the release version. Set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/cargo-vitasdk/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, set the same way as Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version line printed by --version.
func String() string {
	if GitCommit == "unknown" {
		return "cargo-vitasdk " + Version
	}
	return fmt.Sprintf("cargo-vitasdk %s (%s, built %s)", Version, GitCommit, BuildTime)
}
