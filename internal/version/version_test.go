package version

import (
	"strings"
	"testing"
)

func override(t *testing.T, v, commit, date string) {
	t.Helper()
	ov, oc, od := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = ov, oc, od })
}

func TestColoredKeepsText(t *testing.T) {
	override(t, "1.2.3-rc1", "", "")
	if got := Colored(false); got != "1.2.3-rc1" {
		t.Fatalf("plain: %q", got)
	}
	got := Colored(true)
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc1") {
		t.Fatalf("colored: %q", got)
	}
}

func TestColoredIgnoresOddVersions(t *testing.T) {
	override(t, "nightly", "", "")
	if got := Colored(true); got != "nightly" {
		t.Fatalf("got %q", got)
	}
}

func TestInfoOptionalFields(t *testing.T) {
	override(t, "1.0.0", "", "")
	if got := Info(false); got != "oxbow 1.0.0\n" {
		t.Fatalf("got %q", got)
	}
	override(t, "1.0.0", "abc123", "2024-01-15T10:30:00Z")
	got := Info(false)
	if !strings.Contains(got, "commit: abc123") || !strings.Contains(got, "built:  2024-01-15T10:30:00Z") {
		t.Fatalf("got %q", got)
	}
}
