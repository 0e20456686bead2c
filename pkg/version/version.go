// Package version carries build information for the paragraf binary.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at release time:
//
//	-X github.com/paragraf-search/paragraf/pkg/version.Version=v1.2.3
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns the full version line shown by --version.
func String() string {
	return fmt.Sprintf("paragraf %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, runtime.Version())
}
