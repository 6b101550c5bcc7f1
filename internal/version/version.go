// Package version exposes build metadata for the aircast binaries.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/aircast/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/aircast/internal/version.Commit=abc123"
//
// Without ldflags the values come from the VCS stamp Go embeds when
// building inside a checkout, falling back to a dated dev string.
var (
	// Version is the semantic version of the release
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
)

func init() {
	rev, modified, at := vcsInfo()
	if Commit == "" {
		Commit = shortRev(rev, modified)
	}
	if Version == "" {
		Version = devVersion(at)
	}
}

// vcsInfo reads the vcs.* settings from the embedded build info.
func vcsInfo() (revision string, modified bool, at time.Time) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false, time.Time{}
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				at = t
			}
		}
	}
	return revision, modified, at
}

func shortRev(revision string, modified bool) string {
	if revision == "" {
		return "unknown"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified {
		revision += "-dirty"
	}
	return revision
}

func devVersion(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	return "dev-" + at.Format("20060102")
}

// Full returns the version and commit in one display string.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
