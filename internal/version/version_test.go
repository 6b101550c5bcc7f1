package version

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultsAlwaysPopulated(t *testing.T) {
	// init must leave usable values even without ldflags or a VCS stamp.
	if Version == "" {
		t.Error("Version is empty after init")
	}
	if Commit == "" {
		t.Error("Commit is empty after init")
	}
}

func TestShortRev(t *testing.T) {
	tests := []struct {
		name     string
		revision string
		modified bool
		want     string
	}{
		{"no revision", "", false, "unknown"},
		{"long hash truncated", "abcdef1234567890", false, "abcdef1"},
		{"short hash kept", "abc", false, "abc"},
		{"dirty tree marked", "abcdef1234567890", true, "abcdef1-dirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shortRev(tt.revision, tt.modified); got != tt.want {
				t.Errorf("shortRev(%q, %v) = %q, want %q", tt.revision, tt.modified, got, tt.want)
			}
		})
	}
}

func TestDevVersion(t *testing.T) {
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if got := devVersion(at); got != "dev-20240315" {
		t.Errorf("devVersion = %q, want dev-20240315", got)
	}
	if got := devVersion(time.Time{}); !strings.HasPrefix(got, "dev-") {
		t.Errorf("devVersion(zero) = %q, want dev- prefix", got)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Version) || !strings.Contains(full, Commit) {
		t.Errorf("Full() = %q, want it to contain %q and %q", full, Version, Commit)
	}
}
