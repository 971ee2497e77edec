package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withValues(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	if strings.Contains(Version, "\x1b[") {
		t.Errorf("Version must stay plain, got %q", Version)
	}
}

func TestLong(t *testing.T) {
	withValues(t, "1.2.3", "abc123", "2024-01-15T10:30:00Z")
	if got, want := Long(false), "irkit 1.2.3 (abc123, 2024-01-15T10:30:00Z)"; got != want {
		t.Errorf("Long() = %q, want %q", got, want)
	}

	GitCommit = ""
	if got, want := Long(false), "irkit 1.2.3 (2024-01-15T10:30:00Z)"; got != want {
		t.Errorf("Long() = %q, want %q", got, want)
	}
	BuildDate = ""
	if got, want := Long(false), "irkit 1.2.3"; got != want {
		t.Errorf("Long() = %q, want %q", got, want)
	}
}

func TestColored(t *testing.T) {
	withValues(t, "0.1.0-dev", "", "")
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	if got := Colored(); got != "0.1.0-dev" {
		t.Errorf("Colored() without colour = %q", got)
	}

	Version = "nightly"
	if got := Colored(); got != "nightly" {
		t.Errorf("Colored() on a non-semver version = %q", got)
	}
}
