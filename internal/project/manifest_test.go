package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[project]
name = "demo"

[check]
jobs = 3

[cache]
enabled = true

[[crate]]
path = "crates/*.yaml"

[[crate]]
path = "crates/b.yaml"
`)
	writeFile(t, filepath.Join(root, "crates", "b.yaml"), "crate: b\n")
	writeFile(t, filepath.Join(root, "crates", "a.yaml"), "crate: a\n")
	nested := filepath.Join(root, "crates", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("discover: ok=%v err=%v", ok, err)
	}
	if m.Config.Project.Name != "demo" || m.Config.Check.Jobs != 3 {
		t.Fatalf("config: %+v", m.Config)
	}
	paths, err := m.CratePaths()
	if err != nil {
		t.Fatalf("crate paths: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "a.yaml" || filepath.Base(paths[1]) != "b.yaml" {
		t.Fatalf("paths: %v", paths)
	}
	if want := filepath.Join(m.Root, ".oxbow", "cache"); m.CacheDir() != want {
		t.Fatalf("cache dir %q, want %q", m.CacheDir(), want)
	}
}

func TestDiscoverWithoutManifest(t *testing.T) {
	_, ok, err := Discover(t.TempDir())
	if err != nil || ok {
		t.Fatalf("want no manifest, got ok=%v err=%v", ok, err)
	}
}

func TestLoadReportsAllProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, `
[check]
jobs = -1
colour = "red"

[trace]
level = "verbose"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("invalid manifest accepted")
	}
	for _, want := range []string{"missing [project].name", "no [[crate]] entries", "jobs must not be negative", "check.colour", "[trace].level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestCratePathWithoutMatches(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ManifestName)
	writeFile(t, path, "[project]\nname = \"x\"\n\n[[crate]]\npath = \"missing/*.yaml\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.CratePaths(); err == nil {
		t.Fatalf("empty glob accepted")
	}
}
