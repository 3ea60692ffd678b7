// Package project reads oxbow.toml, the manifest listing a project's crate
// descriptions together with the session options used to check them.
//
//	[project]
//	name = "demo"
//
//	[check]
//	jobs = 4
//	max_diagnostics = 50
//
//	[[crate]]
//	path = "crates/*.yaml"
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"oxbow/internal/trace"
)

// Manifest is a decoded oxbow.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Project ProjectConfig `toml:"project"`
	Check   CheckConfig   `toml:"check"`
	Cache   CacheConfig   `toml:"cache"`
	Trace   TraceConfig   `toml:"trace"`
	Index   IndexConfig   `toml:"index"`
	Crates  []CrateEntry  `toml:"crate"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
}

type CheckConfig struct {
	Jobs           int  `toml:"jobs"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
	NoLints        bool `toml:"no_lints"`
	Timings        bool `toml:"timings"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// IndexConfig names the SQLite file written after a successful check.
type IndexConfig struct {
	Path string `toml:"path"`
}

// CrateEntry is a crate description path or glob, relative to the root.
type CrateEntry struct {
	Path string `toml:"path"`
}

// Load decodes and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(meta, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Discover finds the manifest above startDir and loads it. ok is false when
// there is none.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = Load(path)
	return m, true, err
}

func validate(meta toml.MetaData, cfg *Config) error {
	var errs []error
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		errs = append(errs, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", ")))
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		errs = append(errs, errors.New("missing [project].name"))
	}
	if len(cfg.Crates) == 0 {
		errs = append(errs, errors.New("no [[crate]] entries"))
	}
	for i, c := range cfg.Crates {
		if strings.TrimSpace(c.Path) == "" {
			errs = append(errs, fmt.Errorf("[[crate]] #%d has no path", i+1))
		}
	}
	if cfg.Check.Jobs < 0 {
		errs = append(errs, fmt.Errorf("[check].jobs must not be negative, got %d", cfg.Check.Jobs))
	}
	if cfg.Check.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("[check].max_diagnostics must not be negative, got %d", cfg.Check.MaxDiagnostics))
	}
	if cfg.Trace.Level != "" {
		if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
			errs = append(errs, fmt.Errorf("[trace].level: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CratePaths expands the crate entries into absolute file paths, sorted
// within each glob and without duplicates.
func (m *Manifest) CratePaths() ([]string, error) {
	var out []string
	for _, c := range m.Config.Crates {
		pattern := c.Path
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(m.Root, filepath.FromSlash(pattern))
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: crate path %q: %w", m.Path, c.Path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: crate path %q matches no files", m.Path, c.Path)
		}
		slices.Sort(matches)
		for _, p := range matches {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// CacheDir is the export cache directory, or "" when caching is off.
func (m *Manifest) CacheDir() string {
	if !m.Config.Cache.Enabled {
		return ""
	}
	if m.Config.Cache.Dir == "" {
		return filepath.Join(m.Root, ".oxbow", "cache")
	}
	if filepath.IsAbs(m.Config.Cache.Dir) {
		return m.Config.Cache.Dir
	}
	return filepath.Join(m.Root, m.Config.Cache.Dir)
}
