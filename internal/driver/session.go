// Package driver runs name resolution, lowering and type checking over the
// crates of a session. Crates are independent compilation units: each gets
// its own resolver, type interner and diagnostics bag and may be checked in
// parallel with the others. An internal compiler error aborts only the
// crate that raised it.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/sync/errgroup"

	"oxbow/internal/ast"
	"oxbow/internal/astload"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
	"oxbow/internal/trace"
)

// ErrDuplicateCrate is returned when two crates of a session share a name.
var ErrDuplicateCrate = errors.New("duplicate crate name")

// Options configure a session.
type Options struct {
	// Jobs bounds the number of crates checked at once; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// NoLints disables the unused-binding warnings.
	NoLints bool
	// Timings appends a timing diagnostic to every crate's bag.
	Timings  bool
	Tracer   trace.Tracer
	Cache    *DiskCache
	Observer PhaseObserver
}

// Session owns the identity registry shared by its crates.
type Session struct {
	ID    uuid.UUID
	Maps  *mappings.Mappings
	Files *source.FileSet

	opts  Options
	units []*unit
	names *set.Set[string]
	stats Stats
}

type unit struct {
	name        string
	crate       *ast.Crate
	fingerprint Fingerprint
}

// Stats counts what a session did; safe for concurrent use.
type Stats struct {
	Checked   atomic.Int64
	Failed    atomic.Int64
	CacheHits atomic.Int64
	CacheMiss atomic.Int64
}

func NewSession(opts Options) *Session {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	return &Session{
		ID:    uuid.New(),
		Maps:  mappings.New(),
		Files: source.NewFileSet(),
		opts:  opts,
		names: set.New[string](4),
	}
}

func (s *Session) Stats() *Stats { return &s.stats }

// Crates lists the crate names in the order they were added.
func (s *Session) Crates() []string {
	out := make([]string, len(s.units))
	for i, u := range s.units {
		out[i] = u.name
	}
	return out
}

// LoadFile reads a YAML crate description and adds it to the session.
func (s *Session) LoadFile(path string) (*ast.Crate, error) {
	c, err := astload.LoadFile(s.Files, s.Maps, nil, path)
	if err != nil {
		return nil, err
	}
	return c, s.add(c, s.Files.Get(c.File).Content)
}

// LoadString adds a crate described by text, registered under name.
func (s *Session) LoadString(name, text string) (*ast.Crate, error) {
	c, err := astload.LoadString(s.Files, s.Maps, nil, name, text)
	if err != nil {
		return nil, err
	}
	return c, s.add(c, []byte(text))
}

// AddCrate adds a crate built programmatically against s.Maps. Crates added
// this way are never served from the disk cache.
func (s *Session) AddCrate(c *ast.Crate) error {
	return s.add(c, nil)
}

func (s *Session) add(c *ast.Crate, content []byte) error {
	name := c.NameOf(c.Name)
	if !s.names.Insert(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateCrate, name)
	}
	u := &unit{name: name, crate: c}
	if content != nil {
		u.fingerprint = fingerprintCrate(name, content, s.opts)
	}
	s.units = append(s.units, u)
	return nil
}

// ResolveAll checks every crate, running up to Jobs crates at once. Results
// follow the order crates were added. The returned error is non-nil only
// when ctx was cancelled; per-crate internal errors are reported in
// CrateResult.Err.
func (s *Session) ResolveAll(ctx context.Context) ([]*CrateResult, error) {
	jobs := s.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	root := trace.Begin(trace.Tagged(s.opts.Tracer, s.ID.String(), ""), trace.ScopeSession, "session", trace.ParentSpan(ctx))
	ctx = trace.WithParentSpan(ctx, root.ID())

	results := make([]*CrateResult, len(s.units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(s.units))))
	for i, u := range s.units {
		g.Go(func() error {
			// cancellation is observed between crates only
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.check(gctx, u)
			return nil
		})
	}
	err := g.Wait()
	root.WithExtra("crates", fmt.Sprint(len(s.units))).End("")
	return results, err
}

// Resolve checks a single crate by name.
func (s *Session) Resolve(ctx context.Context, name string) (*CrateResult, error) {
	for _, u := range s.units {
		if u.name == name {
			return s.check(ctx, u), nil
		}
	}
	return nil, fmt.Errorf("unknown crate %q", name)
}
