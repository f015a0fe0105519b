// Package version holds build metadata, set with -ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitekeeper/internal/version.Version=v1.2.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String is the line printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "sitekeeper " + Version
	}
	return fmt.Sprintf("sitekeeper %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
