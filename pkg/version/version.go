// Package version exposes the build identity stamped into the binary.
package version

import (
	"fmt"
	"runtime"
)

// Build identity. Release builds overwrite these through ldflags
// (-X github.com/docsift/docsift/pkg/version.Version=... and friends);
// a plain go build ships as a dev binary.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GoVersion is the toolchain the binary was compiled with.
var GoVersion = runtime.Version()

// BuildInfo carries the build identity in a JSON-friendly shape.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String renders the one-line form shown by 'docsift version'.
func (i BuildInfo) String() string {
	return fmt.Sprintf("docsift %s (commit: %s, built: %s, go: %s)", i.Version, i.Commit, i.Date, i.GoVersion)
}

// String renders the current build identity on one line.
func String() string {
	return GetInfo().String()
}

// Short returns the bare version number.
func Short() string {
	return Version
}

// GetInfo returns the build identity with the runtime platform filled in.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version: Version, Commit: Commit, Date: Date, GoVersion: GoVersion,
		OS: runtime.GOOS, Arch: runtime.GOARCH,
	}
	return info
}
