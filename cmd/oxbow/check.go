package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"oxbow/internal/diag"
	"oxbow/internal/diagfmt"
	"oxbow/internal/driver"
	"oxbow/internal/index"
	"oxbow/internal/observ"
	"oxbow/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [crate.yaml...]",
	Short: "Resolve and type-check crates",
	Long: `Check resolves names, lowers and type-checks every crate. Without
arguments the crates listed in the nearest oxbow.toml are checked.`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.String("format", "pretty", "diagnostic format (pretty|short|json)")
	f.String("path-mode", "auto", "how paths are shown (auto|absolute|relative|basename)")
	f.String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	f.Bool("notes", true, "show notes")
	f.Bool("fixes", false, "show suggested fixes")
	f.Bool("preview", false, "show a before/after preview of every fix")
	f.Int("context", 1, "source lines shown around each diagnostic")
	f.Bool("no-lints", false, "disable unused-binding warnings")
	f.String("ui", "off", "live progress view (auto|on|off)")
	f.String("cache", "", "export cache directory (overrides oxbow.toml)")
	f.Bool("no-cache", false, "do not read or write the export cache")
	f.String("index", "", "write crate exports into this SQLite file")
}

// checkConfig merges oxbow.toml with the command line; flags win.
type checkConfig struct {
	files    []string
	baseDir  string
	opts     driver.Options
	cacheDir string
	index    string
}

func resolveCheckConfig(cmd *cobra.Command, args []string) (checkConfig, error) {
	var cfg checkConfig
	wd, err := os.Getwd()
	if err != nil {
		return cfg, err
	}
	cfg.baseDir = wd

	var manifest *project.Manifest
	if len(args) == 0 {
		m, ok, err := project.Discover(wd)
		if err != nil {
			return cfg, err
		}
		if !ok {
			return cfg, fmt.Errorf("no crate files given and no %s found", project.ManifestName)
		}
		manifest = m
		if cfg.files, err = m.CratePaths(); err != nil {
			return cfg, err
		}
		cfg.baseDir = m.Root
		c := m.Config
		cfg.opts = driver.Options{
			Jobs:           c.Check.Jobs,
			MaxDiagnostics: c.Check.MaxDiagnostics,
			NoLints:        c.Check.NoLints,
			Timings:        c.Check.Timings,
		}
		cfg.cacheDir = m.CacheDir()
		cfg.index = c.Index.Path
	} else {
		cfg.files = args
	}

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("jobs") || manifest == nil {
		if cfg.opts.Jobs, err = pf.GetInt("jobs"); err != nil {
			return cfg, err
		}
	}
	if pf.Changed("max-diagnostics") || manifest == nil {
		if cfg.opts.MaxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
			return cfg, err
		}
	}
	if pf.Changed("timings") {
		if cfg.opts.Timings, err = pf.GetBool("timings"); err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	if f.Changed("no-lints") {
		if cfg.opts.NoLints, err = f.GetBool("no-lints"); err != nil {
			return cfg, err
		}
	}
	if f.Changed("cache") {
		if cfg.cacheDir, err = f.GetString("cache"); err != nil {
			return cfg, err
		}
	}
	if noCache, _ := f.GetBool("no-cache"); noCache {
		cfg.cacheDir = ""
	}
	if f.Changed("index") {
		if cfg.index, err = f.GetString("index"); err != nil {
			return cfg, err
		}
	}
	if cfg.index != "" && manifest != nil && !filepath.IsAbs(cfg.index) && !f.Changed("index") {
		cfg.index = filepath.Join(manifest.Root, cfg.index)
	}
	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	profiler, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, profiler.Stop()) }()

	tracer, closeTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer closeTrace()

	cfg, err := resolveCheckConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.opts.Tracer = tracer
	if cfg.cacheDir != "" {
		cache, err := driver.OpenDiskCache(cfg.cacheDir, "oxbow")
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		cfg.opts.Cache = cache
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	uiValue, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	useUI := shouldUseTUI(mode, out) && !quiet

	var events chan driver.PhaseEvent
	if useUI {
		events = make(chan driver.PhaseEvent, 256)
		cfg.opts.Observer = func(ev driver.PhaseEvent) { events <- ev }
	}
	s := driver.NewSession(cfg.opts)

	loadFailed := false
	for _, path := range cfg.files {
		if _, err := s.LoadFile(path); err != nil {
			fmt.Fprintln(errOut, err)
			loadFailed = true
		}
	}

	start := time.Now()
	var results []*driver.CrateResult
	if useUI {
		results, err = runWithUI(cmd.Context(), s, events, terminalWidth(out))
	} else {
		results, err = s.ResolveAll(cmd.Context())
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	failed := loadFailed
	nFailed := 0
	bag := diag.NewBag(0)
	var reports []observ.Report
	for _, res := range results {
		if res == nil {
			continue
		}
		bag.Merge(res.Bag)
		reports = append(reports, res.Timing)
		if res.Failed() {
			failed = true
			nFailed++
		}
		if res.Err != nil {
			fmt.Fprintf(errOut, "crate %s: %v\n", res.Name, res.Err)
			dumpRing(errOut, tracer, res.Name)
		}
	}
	if err := printDiagnostics(cmd, out, bag, s, cfg.baseDir); err != nil {
		return err
	}

	if cfg.index != "" {
		if err := writeIndex(cmd.Context(), cfg.index, results); err != nil {
			return err
		}
	}

	if !quiet {
		st := s.Stats()
		fmt.Fprintf(errOut, "checked %d crate(s) in %s: %d failed, %d from cache\n",
			len(results), elapsed.Round(time.Millisecond), nFailed, st.CacheHits.Load())
		if cfg.opts.Timings {
			fmt.Fprint(errOut, observ.Aggregate(reports...).Summary())
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func printDiagnostics(cmd *cobra.Command, w io.Writer, bag *diag.Bag, s *driver.Session, baseDir string) error {
	f := cmd.Flags()
	minSev, _ := f.GetString("min-severity")
	sev, err := diag.ParseSeverity(minSev)
	if err != nil {
		return err
	}
	modeStr, _ := f.GetString("path-mode")
	pathMode, ok := diagfmt.ParsePathMode(modeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode %q", modeStr)
	}
	notes, _ := f.GetBool("notes")
	fixes, _ := f.GetBool("fixes")
	preview, _ := f.GetBool("preview")
	ctxLines, _ := f.GetInt("context")
	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	shown := bag.Filter(sev)
	shown.Sort()
	format, _ := f.GetString("format")
	if format != "pretty" && format != "short" && format != "json" {
		return fmt.Errorf("invalid --format %q (expected pretty|short|json)", format)
	}
	// json always writes a document
	if shown.Len() == 0 && format != "json" {
		return nil
	}
	switch format {
	case "pretty":
		colored, err := useColor(cmd, w)
		if err != nil {
			return err
		}
		diagfmt.Pretty(w, shown, s.Files, diagfmt.PrettyOpts{
			Color:       colored,
			Context:     int8(min(max(ctxLines, 0), 10)), // #nosec G115
			PathMode:    pathMode,
			BaseDir:     baseDir,
			ShowNotes:   notes,
			ShowFixes:   fixes,
			ShowPreview: preview,
		})
		return nil
	case "short":
		fmt.Fprintln(w, diag.FormatShortDiagnostics(shown.Items(), s.Files, baseDir, notes))
		return nil
	case "json":
		return diagfmt.JSON(w, shown, s.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          baseDir,
			Max:              maxDiags,
			IncludeNotes:     notes,
			IncludeFixes:     fixes,
			IncludePreviews:  preview,
		})
	}
	return nil
}

func writeIndex(ctx context.Context, path string, results []*driver.CrateResult) error {
	exports := make([]*driver.Export, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		exp, err := driver.BuildExport(res)
		if err != nil {
			return err
		}
		exports = append(exports, exp)
	}
	if err := index.Write(ctx, path, exports...); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
