package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/lower"
	"oxbow/internal/mappings"
	"oxbow/internal/observ"
	"oxbow/internal/resolve"
	"oxbow/internal/source"
	"oxbow/internal/trace"
	"oxbow/internal/typeck"
)

// ErrAlreadyChecked is reported for a crate whose tables are frozen.
var ErrAlreadyChecked = errors.New("crate already checked")

// CrateResult is everything the passes produced for one crate. When the
// result was served from the disk cache only Export and Bag are set.
type CrateResult struct {
	Name    string
	Session uuid.UUID
	Crate   ids.CrateNum
	Maps    *mappings.Mappings
	AST     *ast.Crate
	Resolve *resolve.Result
	HIR     *hir.Crate
	Types   *typeck.Context
	Bag     *diag.Bag
	Timing  observ.Report

	Cached bool
	Export *Export
	// Err holds the internal compiler error that aborted the crate.
	Err error
}

// Failed reports whether the crate has errors or aborted.
func (r *CrateResult) Failed() bool {
	return r.Err != nil || r.Bag.HasErrors()
}

func (s *Session) check(ctx context.Context, u *unit) *CrateResult {
	num := u.crate.Num
	tr := trace.Tagged(s.opts.Tracer, s.ID.String(), u.name)
	span := trace.Begin(tr, trace.ScopeCrate, "crate", trace.ParentSpan(ctx))

	res := &CrateResult{
		Name:    u.name,
		Session: s.ID,
		Crate:   num,
		Maps:    s.Maps,
		AST:     u.crate,
		Bag:     diag.NewBag(s.opts.MaxDiagnostics),
	}
	if s.Maps.IsFrozen(num) {
		res.Err = fmt.Errorf("%w: %s", ErrAlreadyChecked, u.name)
		span.End("frozen")
		return res
	}
	defer func() {
		s.observe(PhaseEvent{Crate: u.name, Status: CrateDone, Failed: res.Failed(), Cached: res.Cached})
	}()
	if s.fromCache(u, res) {
		s.Maps.Freeze(num)
		span.WithExtra("cache", "hit").End(status(res))
		return res
	}

	timer := observ.NewTimer()
	phase := func(name string, fn func()) {
		idx := timer.Begin(name)
		ps := trace.Begin(tr, trace.ScopePass, name, span.ID())
		s.observe(PhaseEvent{Crate: u.name, Name: name, Status: PhaseStart})
		start := time.Now()
		fn()
		elapsed := time.Since(start)
		ps.End("")
		timer.End(idx, fmt.Sprintf("diags=%d", res.Bag.Len()))
		s.observe(PhaseEvent{Crate: u.name, Name: name, Status: PhaseEnd, Elapsed: elapsed})
	}

	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	res.Err = ice.Catch(func() {
		phase("resolve", func() {
			res.Resolve = resolve.ResolveCrate(s.Maps, u.crate, resolve.Options{Reporter: reporter, NoLints: s.opts.NoLints})
		})
		phase("lower", func() {
			res.HIR = lower.LowerCrate(s.Maps, u.crate, reporter)
		})
		phase("typeck", func() {
			res.Types = typeck.CheckCrate(s.Maps, res.Resolve, res.HIR, typeck.Options{Reporter: reporter, Tracer: tr, Parent: span.ID()})
		})
	})
	s.Maps.Freeze(num)
	res.Timing = timer.Report()

	s.stats.Checked.Add(1)
	if res.Err != nil {
		s.stats.Failed.Add(1)
		var ie *ice.Error
		if errors.As(res.Err, &ie) {
			res.Bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.ObsInternalError,
				Message:  fmt.Sprintf("%s; crate `%s` was not checked completely", ie.Error(), u.name),
				Primary:  source.Span{File: u.crate.File},
			})
		}
	}
	if s.opts.Timings {
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: "crate", Crate: u.name, TotalMS: res.Timing.TotalMS, Phases: res.Timing.Phases})
	}
	s.toCache(u, res)
	span.WithExtra("diags", fmt.Sprint(res.Bag.Len())).End(status(res))
	return res
}

func status(res *CrateResult) string {
	switch {
	case res.Err != nil:
		return "ice"
	case res.Bag.HasErrors():
		return "errors"
	}
	return "ok"
}

func (s *Session) observe(ev PhaseEvent) {
	if s.opts.Observer != nil {
		s.opts.Observer(ev)
	}
}
