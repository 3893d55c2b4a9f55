// Package version carries the sitebake release identifiers stamped at link
// time.
package version

import "fmt"

// Version is the release tag. Set it with:
// go build -ldflags "-X git.home.luguber.info/inful/sitebake/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, stamped the same way as Version.
var (
	GitCommit = "none"
	BuildTime = "unknown"
)

// String renders the one-line banner printed by --version.
func String() string {
	return fmt.Sprintf("sitebake %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
