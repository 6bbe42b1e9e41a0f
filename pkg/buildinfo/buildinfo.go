// Package buildinfo carries the version stamped into riglink binaries.
//
// Release builds set the variables with the linker:
//
//	go build -ldflags "-X github.com/matzehuels/riglink/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/riglink/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/riglink/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a one-line summary for the version command.
func String() string {
	return fmt.Sprintf("riglink %s (commit %s, built %s, %s/%s)", Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

// Template returns the cobra --version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s)\n", Version, Commit)
}
