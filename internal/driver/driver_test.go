package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
	"oxbow/internal/testkit"
	"oxbow/internal/trace"
)

const appCrate = `
crate: app
items:
  - mod: module_a
    vis: pub
    items:
      - mod: module_b
        vis: pub
        items:
          - fn: item
            vis: pub
            result: i32
            tail: 1
  - enum: MyEnum
    variants: [Variant, Other]
  - fn: identity
    generics: [T]
    params: ["x: T"]
    result: T
    tail: x
  - trait: Bar
    items:
      - fn: method
        result: i32
  - struct: Foo
  - impl: Foo
    items:
      - fn: method
        result: bool
        tail: true
  - impl: Foo
    trait: Bar
    items:
      - fn: method
        result: i32
        tail: 7
  - fn: main
    body:
      - module_a::module_b::item
      - MyEnum::Variant
      - identity::<i32>
      - call: "<Foo as Bar>::method"
      - let: x
        init: 1
      - let: x
        init: true
      - x
      - nonexistent::path
      - MyEnum::Other
`

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Jobs == 0 {
		opts.Jobs = 2
	}
	opts.NoLints = true
	return NewSession(opts)
}

func resolveOne(t *testing.T, s *Session, name, text string) *CrateResult {
	t.Helper()
	if _, err := s.LoadString(name+".yaml", text); err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	res, err := s.Resolve(context.Background(), name)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	if res.Err != nil {
		t.Fatalf("internal error: %v", res.Err)
	}
	return res
}

// stmtExpr returns the expression of the i-th statement of main.
func stmtExpr(t *testing.T, res *CrateResult, i int) ast.ExprID {
	t.Helper()
	c := res.AST
	root, _ := c.Items.Module(c.Root)
	for _, id := range root.Items {
		fn, ok := c.Items.Fn(id)
		if !ok || c.NameOf(c.Items.Get(id).Name) != "main" {
			continue
		}
		body, _ := c.Exprs.Block(fn.Body)
		return c.Stmts.Get(body.Stmts[i]).Init
	}
	t.Fatalf("no main function")
	return ast.NoExprID
}

func exprType(t *testing.T, res *CrateResult, e ast.ExprID) string {
	t.Helper()
	ir, ok := res.Maps.LookupNodeToIr(res.Crate, res.AST.Exprs.Get(e).Node)
	if !ok {
		t.Fatalf("expression %d was not lowered", e)
	}
	ty, ok := res.Types.TypeOf(ir)
	if !ok {
		t.Fatalf("expression %d has no type", e)
	}
	return res.Types.TypeString(ty)
}

func errorCount(bag *diag.Bag) int {
	n := 0
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return n
}

func TestEndToEndScenarios(t *testing.T) {
	s := newSession(t, Options{})
	res := resolveOne(t, s, "app", appCrate)

	if got := res.Bag.Count(diag.SemaUnresolvedName); got != 1 || errorCount(res.Bag) != 1 {
		for _, d := range res.Bag.Items() {
			t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		t.Fatalf("want exactly one unresolved-name error")
	}
	if err := testkit.CheckRegistry(res.Maps, res.Crate); err != nil {
		t.Fatalf("registry: %v", err)
	}

	cases := []struct {
		stmt int
		want string
	}{
		{0, "fn() -> i32"},
		{2, "fn(i32) -> i32"},
		{3, "i32"},
		{6, "bool"},
	}
	for _, tc := range cases {
		if got := exprType(t, res, stmtExpr(t, res, tc.stmt)); got != tc.want {
			t.Fatalf("statement %d typed %s, want %s", tc.stmt, got, tc.want)
		}
	}

	for i, want := range map[int]int{1: 0, 8: 1} {
		e := stmtExpr(t, res, i)
		ir, _ := res.Maps.LookupNodeToIr(res.Crate, res.AST.Exprs.Get(e).Node)
		v, ok := res.Types.Variant(ir)
		if !ok || v.Variant.Index != want || v.Variant.Discriminant != int64(want) {
			t.Fatalf("statement %d: variant %+v, want index %d", i, v.Variant, want)
		}
	}

	bad := stmtExpr(t, res, 7)
	ir, _ := res.Maps.LookupNodeToIr(res.Crate, res.AST.Exprs.Get(bad).Node)
	ty, _ := res.Types.TypeOf(ir)
	if !res.Types.Types().IsError(ty) {
		t.Fatalf("unresolved path typed %s", res.Types.TypeString(ty))
	}
	if !res.Maps.IsFrozen(res.Crate) {
		t.Fatalf("crate tables must be frozen after checking")
	}
}

func TestResolveAllRunsCratesIndependently(t *testing.T) {
	var mu sync.Mutex
	ends := map[string]int{}
	s := newSession(t, Options{Jobs: 4, Observer: func(ev PhaseEvent) {
		if ev.Status != PhaseEnd {
			return
		}
		mu.Lock()
		ends[ev.Crate]++
		mu.Unlock()
	}})
	for i := range 6 {
		text := fmt.Sprintf("crate: c%d\nitems:\n  - fn: f\n    result: i32\n    tail: %d\n", i, i)
		if i == 3 {
			text += "  - fn: g\n    tail: missing\n"
		}
		if _, err := s.LoadString(fmt.Sprintf("c%d.yaml", i), text); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	results, err := s.ResolveAll(context.Background())
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Name != fmt.Sprintf("c%d", i) {
			t.Fatalf("result %d is %s; order must follow loading", i, r.Name)
		}
		if r.Failed() != (i == 3) {
			t.Fatalf("crate %s failed=%v", r.Name, r.Failed())
		}
		if ends[r.Name] != 3 {
			t.Fatalf("crate %s saw %d pass ends", r.Name, ends[r.Name])
		}
		// crates checked in parallel must not see each other's tables
		if err := testkit.CheckRegistry(r.Maps, r.Crate); err != nil {
			t.Fatalf("crate %s registry: %v", r.Name, err)
		}
		if name, _ := r.Maps.CrateName(r.Crate); name != r.Name {
			t.Fatalf("result %s carries crate %q", r.Name, name)
		}
	}
	if got := s.Stats().Checked.Load(); got != 6 {
		t.Fatalf("checked %d crates", got)
	}
}

func TestCancelledContextStopsBeforeCrates(t *testing.T) {
	s := newSession(t, Options{Jobs: 1})
	if _, err := s.LoadString("a.yaml", "crate: a\nitems: []\n"); err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := s.ResolveAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if results[0] != nil {
		t.Fatalf("cancelled crate must not be checked")
	}
}

func TestDuplicateCrateName(t *testing.T) {
	s := newSession(t, Options{})
	if _, err := s.LoadString("a.yaml", "crate: a\nitems: []\n"); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := s.LoadString("b.yaml", "crate: a\nitems: []\n")
	if !errors.Is(err, ErrDuplicateCrate) {
		t.Fatalf("want ErrDuplicateCrate, got %v", err)
	}
}

func TestInternalErrorAbortsOnlyItsCrate(t *testing.T) {
	s := newSession(t, Options{})
	if _, err := s.LoadString("ok.yaml", "crate: ok\nitems:\n  - fn: f\n"); err != nil {
		t.Fatalf("load: %v", err)
	}
	// a crate numbered by another registry is unknown to the session
	foreign := mappings.New()
	foreign.NewCrate("x")
	foreign.NewCrate("y")
	b := ast.NewBuilder(foreign.NewCrate("ghost"), foreign, nil, ast.Hints{})
	ghost := b.Finish("ghost", 0, b.Module(source.NoSpan, "ghost", ast.VisPublic))
	if err := s.AddCrate(ghost); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := s.ResolveAll(context.Background())
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if results[0].Failed() {
		t.Fatalf("healthy crate failed")
	}
	if results[1].Err == nil || results[1].Bag.Count(diag.ObsInternalError) != 1 {
		t.Fatalf("ghost crate must abort with an internal error")
	}
	if s.Stats().Failed.Load() != 1 {
		t.Fatalf("failed count %d", s.Stats().Failed.Load())
	}
}

func TestResolveTwiceIsRejected(t *testing.T) {
	s := newSession(t, Options{})
	resolveOne(t, s, "a", "crate: a\nitems: []\n")
	res, err := s.Resolve(context.Background(), "a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !errors.Is(res.Err, ErrAlreadyChecked) {
		t.Fatalf("want ErrAlreadyChecked, got %v", res.Err)
	}
}

func TestTracingTagsSessionAndCrate(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelPass)
	s := newSession(t, Options{Tracer: ring})
	resolveOne(t, s, "app", appCrate)

	events := ring.Crate("app")
	if len(events) == 0 {
		t.Fatalf("no events for crate app")
	}
	passes := map[string]bool{}
	for _, ev := range events {
		if ev.Session != s.ID.String() {
			t.Fatalf("event %s carries session %q", ev.Name, ev.Session)
		}
		if ev.Kind == trace.KindSpanEnd && ev.Scope == trace.ScopePass {
			passes[ev.Name] = true
		}
	}
	for _, name := range []string{"resolve", "lower", "typeck"} {
		if !passes[name] {
			t.Fatalf("pass %s not traced", name)
		}
	}
}

func TestTimingsDiagnostic(t *testing.T) {
	s := newSession(t, Options{Timings: true, MaxDiagnostics: 1})
	res := resolveOne(t, s, "a", "crate: a\nitems:\n  - fn: f\n    tail: nope\n")
	if res.Bag.Count(diag.ObsTimings) != 1 {
		t.Fatalf("timing diagnostic must survive a full bag")
	}
	if len(res.Timing.Phases) != 3 {
		t.Fatalf("got %d phases", len(res.Timing.Phases))
	}
}
