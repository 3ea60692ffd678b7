package resolve

import (
	"testing"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

var sp = source.NoSpan

type fixture struct {
	t    *testing.T
	maps *mappings.Mappings
	num  ids.CrateNum
	b    *ast.Builder
	bag  *diag.Bag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	maps := mappings.New()
	num := maps.NewCrate("app")
	return &fixture{
		t:    t,
		maps: maps,
		num:  num,
		b:    ast.NewBuilder(num, maps, nil, ast.Hints{}),
		bag:  diag.NewBag(0),
	}
}

func (f *fixture) resolve(items ...ast.ItemID) *Result {
	root := f.b.Module(sp, "app", ast.VisPublic, items...)
	c := f.b.Finish("app", 0, root)
	return ResolveCrate(f.maps, c, Options{Reporter: diag.BagReporter{Bag: f.bag}})
}

func (f *fixture) fn(name string, stmts ...ast.StmtID) ast.ItemID {
	body := f.b.Block(sp, stmts, ast.NoExprID)
	return f.b.Fn(sp, name, ast.VisPrivate, ast.FnItem{Body: body})
}

func (f *fixture) int(v string) ast.ExprID {
	return f.b.Lit(sp, ast.LitInt, v, "")
}

// use builds an expression statement for a path and returns its segments.
func (f *fixture) use(names ...string) (ast.StmtID, []ast.PathSegment) {
	e := f.b.PathExpr(f.b.SimplePath(sp, names...))
	d, _ := f.b.Crate().Exprs.Path(e)
	return f.b.ExprStmt(sp, e, true), d.Path.Segments
}

func (f *fixture) let(name string, mut bool, init ast.ExprID) (ast.StmtID, ids.NodeID) {
	pat := f.b.IdentPat(sp, name, mut)
	return f.b.Let(sp, pat, ast.NoTypeID, init), f.b.Crate().Pats.Get(pat).Node
}

func TestScopeShadowingAndPop(t *testing.T) {
	s := NewScope(1, "value", nil)
	s.Push(1)
	s.Insert(mappings.NewSegment(10, "x"), 10, sp, true, nil)
	s.Push(2)
	s.Insert(mappings.NewSegment(20, "x"), 20, sp, true, nil)

	key := mappings.NewSegment(ids.UnknownNodeID, "x")
	if got, ok := s.Lookup(key); !ok || got != 20 {
		t.Fatalf("inner lookup: got %d, %v", got, ok)
	}
	s.Pop()
	if got, ok := s.Lookup(key); !ok || got != 10 {
		t.Fatalf("after pop: got %d, %v", got, ok)
	}
	s.Pop()
	if _, ok := s.Lookup(key); ok {
		t.Fatalf("empty scope must not find anything")
	}
}

func TestPopEmptyScopeIsInternalError(t *testing.T) {
	err := ice.Catch(func() {
		NewScope(1, "type", nil).Pop()
	})
	if err == nil {
		t.Fatalf("expected an internal error")
	}
}

func TestDuplicateCallbackOncePerExtraInsert(t *testing.T) {
	rib := NewRib(1, 1)
	calls := 0
	onDup := func(prev ids.NodeID, _ source.Span) {
		if prev != 7 {
			t.Fatalf("callback got previous %d, want 7", prev)
		}
		calls++
	}
	path := mappings.NewSegment(7, "f")
	rib.InsertName(path, 7, sp, false, onDup)
	if calls != 0 {
		t.Fatalf("first insert must not call the callback")
	}
	rib.InsertName(path, 7, sp, false, onDup)
	rib.InsertName(path, 7, sp, false, onDup)
	if calls != 2 {
		t.Fatalf("callback calls = %d, want 2", calls)
	}
}

func TestRibReferences(t *testing.T) {
	rib := NewRib(1, 1)
	rib.InsertName(mappings.NewSegment(3, "a"), 3, sp, false, nil)
	if rib.HaveReferencesForNode(3) {
		t.Fatalf("fresh declaration has no uses")
	}
	if !rib.AppendReferenceForDef(3, 40) || !rib.AppendReferenceForDef(3, 40) {
		t.Fatalf("append to a declared node must succeed")
	}
	if rib.References(3) != 1 {
		t.Fatalf("repeated use is recorded once, got %d", rib.References(3))
	}
	if rib.AppendReferenceForDef(99, 41) {
		t.Fatalf("append for an undeclared node must fail")
	}
	rib.ClearName(mappings.NewSegment(3, "a"), 3)
	if rib.DeclWasDeclaredHere(3) || len(rib.Declarations()) != 0 {
		t.Fatalf("cleared name still present")
	}
}

func TestNamespaceSeparation(t *testing.T) {
	f := newFixture(t)
	ty := f.b.Struct(sp, "x", ast.VisPrivate, ast.StructItem{Kind: ast.StructNamed})
	val := f.fn("x")
	res := f.resolve(ty, val)

	tyNode := res.AST().Items.Get(ty).Node
	valNode := res.AST().Items.Get(val).Node
	root := res.AST().Items.Get(res.AST().Root).Node
	key := mappings.NewSegment(ids.UnknownNodeID, "x")

	valueRib, _ := res.FindNameRib(root)
	typeRib, _ := res.FindTypeRib(root)
	if got, ok := valueRib.LookupName(key); !ok || got != valNode {
		t.Fatalf("value namespace: got %d, want %d", got, valNode)
	}
	if got, ok := typeRib.LookupName(key); !ok || got != tyNode {
		t.Fatalf("type namespace: got %d, want %d", got, tyNode)
	}
	if f.bag.Count(diag.SemaDuplicateDefinition) != 0 {
		t.Fatalf("a value and a type of the same name must not collide")
	}
}

func TestDuplicateItemsReported(t *testing.T) {
	f := newFixture(t)
	f.resolve(f.fn("dup"), f.fn("dup"))
	if got := f.bag.Count(diag.SemaDuplicateDefinition); got != 1 {
		t.Fatalf("duplicate definitions reported %d times, want 1", got)
	}
}

func TestLetShadowingResolvesToLatest(t *testing.T) {
	f := newFixture(t)
	first, _ := f.let("x", false, f.int("1"))
	second, secondNode := f.let("x", false, f.int("2"))
	use, segs := f.use("x")
	res := f.resolve(f.fn("main", first, second, use))

	got, ok := res.LookupResolvedName(segs[0].Node)
	if !ok || got != secondNode {
		t.Fatalf("x resolved to %d, want %d", got, secondNode)
	}
	if f.bag.HasErrors() {
		t.Fatalf("shadowing must not produce errors: %+v", f.bag.Items())
	}
	if f.bag.Count(diag.SemaUnusedBinding) != 1 {
		t.Fatalf("the shadowed binding is unused, warnings: %+v", f.bag.Items())
	}
}

func TestUnresolvedPathReportsOnce(t *testing.T) {
	f := newFixture(t)
	bad, badSegs := f.use("nonexistent", "path")
	good, goodSegs := f.use("helper")
	res := f.resolve(f.fn("main", bad, good), f.fn("helper"))

	if got := f.bag.Count(diag.SemaUnresolvedName); got != 1 {
		t.Fatalf("unresolved diagnostics = %d, want 1", got)
	}
	if !res.WasUnresolved(badSegs[0].Node) {
		t.Fatalf("first segment must be remembered as unresolved")
	}
	if res.WasUnresolved(badSegs[1].Node) {
		t.Fatalf("resolution must stop at the first failing segment")
	}
	if _, ok := res.LookupResolvedName(goodSegs[0].Node); !ok {
		t.Fatalf("sibling expression was not resolved")
	}
}

func TestMacroWithUnresolvedPrefixReportsOnce(t *testing.T) {
	f := newFixture(t)
	badPath := f.b.SimplePath(sp, "missing", "m")
	bad := f.b.MacroCall(sp, badPath)
	goodPath := f.b.SimplePath(sp, "local")
	good := f.b.MacroCall(sp, goodPath)
	res := f.resolve(f.b.MacroRules(sp, "local"),
		f.fn("main", f.b.ExprStmt(sp, bad, true), f.b.ExprStmt(sp, good, true)))

	if got := f.bag.Count(diag.SemaUnresolvedName); got != 1 {
		t.Fatalf("unresolved diagnostics = %d, want 1", got)
	}
	if !res.WasUnresolved(badPath.Segments[1].Node) {
		t.Fatalf("macro behind an unresolved prefix must stay unresolved")
	}
	if _, ok := res.LookupResolvedMacro(goodPath.Segments[0].Node); !ok {
		t.Fatalf("local macro was not resolved")
	}
}

func TestModulePathResolution(t *testing.T) {
	f := newFixture(t)
	item := f.b.Fn(sp, "item", ast.VisPublic, ast.FnItem{Body: f.b.Block(sp, nil, ast.NoExprID)})
	inner := f.b.Module(sp, "module_b", ast.VisPublic, item)
	outer := f.b.Module(sp, "module_a", ast.VisPublic, inner)
	use, segs := f.use("module_a", "module_b", "item")
	res := f.resolve(outer, f.fn("main", use))

	items := res.AST().Items
	want := []ids.NodeID{items.Get(outer).Node, items.Get(inner).Node, items.Get(item).Node}
	for i, seg := range segs {
		got, ok := res.LookupResolvedType(seg.Node)
		if !ok {
			got, ok = res.LookupResolvedName(seg.Node)
		}
		if !ok || got != want[i] {
			t.Fatalf("segment %d resolved to %d, want %d", i, got, want[i])
		}
	}
	path, ok := f.maps.LookupCanonicalPath(f.num, want[2])
	if !ok || path.String() != "app::module_a::module_b::item" {
		t.Fatalf("canonical path = %q", path.String())
	}
	children, _ := f.maps.LookupModuleChildren(f.num, want[0])
	if len(children) != 1 || children[0] != want[1] {
		t.Fatalf("module children = %v", children)
	}
	if !res.IsModule(want[0]) || res.IsModule(want[2]) {
		t.Fatalf("module classification is wrong")
	}
}

func TestKeywordPaths(t *testing.T) {
	f := newFixture(t)
	target := f.fn("target")
	viaCrate, crateSegs := f.use("crate", "target")
	viaSuper, superSegs := f.use("super", "target")
	inner := f.b.Module(sp, "inner", ast.VisPrivate, f.fn("g", viaCrate, viaSuper))
	atRoot, _ := f.use("super", "target")
	res := f.resolve(target, inner, f.fn("h", atRoot))

	targetNode := res.AST().Items.Get(target).Node
	if got, _ := res.LookupResolvedName(crateSegs[1].Node); got != targetNode {
		t.Fatalf("crate::target resolved to %d", got)
	}
	if got, _ := res.LookupResolvedName(superSegs[1].Node); got != targetNode {
		t.Fatalf("super::target resolved to %d", got)
	}
	if f.bag.Count(diag.SemaSuperAtRoot) != 1 {
		t.Fatalf("super at the crate root must be reported once")
	}
}

func TestAssignmentTracking(t *testing.T) {
	f := newFixture(t)
	letX, xNode := f.let("x", false, f.int("1"))
	assignX := f.b.ExprStmt(sp, f.b.Assign(sp, f.b.PathExpr(f.b.SimplePath(sp, "x")), f.int("2")), true)
	letY, yNode := f.let("y", true, f.int("1"))
	assignY := f.b.ExprStmt(sp, f.b.Assign(sp, f.b.PathExpr(f.b.SimplePath(sp, "y")), f.int("2")), true)
	letZ, _ := f.let("_z", false, f.int("3"))
	res := f.resolve(f.fn("main", letX, assignX, letY, assignY, letZ))

	if f.bag.Count(diag.SemaAssignImmutable) != 1 {
		t.Fatalf("assignment to immutable x must be reported: %+v", f.bag.Items())
	}
	if !res.DeclIsMutable(yNode) || res.DeclIsMutable(xNode) {
		t.Fatalf("mutability not recorded")
	}
	if res.NumAssignmentsToDecl(yNode) != 1 {
		t.Fatalf("assignments to y = %d", res.NumAssignmentsToDecl(yNode))
	}
	// x and y are written but never read; _z is exempt
	if got := f.bag.Count(diag.SemaAssignedNeverRead); got != 2 {
		t.Fatalf("assigned-never-read warnings = %d, want 2", got)
	}
	if f.bag.Count(diag.SemaUnusedBinding) != 0 {
		t.Fatalf("underscore names are exempt: %+v", f.bag.Items())
	}
}

func TestDuplicateBindingInPattern(t *testing.T) {
	f := newFixture(t)
	pat := f.b.TuplePat(sp, f.b.IdentPat(sp, "a", false), f.b.IdentPat(sp, "a", false))
	let := f.b.Let(sp, pat, ast.NoTypeID, f.b.Tuple(sp, f.int("1"), f.int("2")))
	f.resolve(f.fn("main", let))
	if f.bag.Count(diag.SemaDuplicateBinding) != 1 {
		t.Fatalf("duplicate binding not reported: %+v", f.bag.Items())
	}
}

func TestLabels(t *testing.T) {
	f := newFixture(t)
	outer := f.b.Label(sp, "'outer")
	brk := f.b.Break(sp, f.b.Label(sp, "'outer"), ast.NoExprID)
	missing := f.b.Break(sp, f.b.Label(sp, "'missing"), ast.NoExprID)
	body := f.b.Block(sp, []ast.StmtID{f.b.ExprStmt(sp, brk, true), f.b.ExprStmt(sp, missing, true)}, ast.NoExprID)
	loop := f.b.ExprStmt(sp, f.b.Loop(sp, outer, body), true)
	stray := f.b.ExprStmt(sp, f.b.Continue(sp, ast.Label{}), true)
	res := f.resolve(f.fn("main", loop, stray))

	d, _ := res.AST().Exprs.Break(brk)
	if got, ok := res.LookupResolvedLabel(d.Label.Node); !ok || got != outer.Node {
		t.Fatalf("label resolved to %d, want %d", got, outer.Node)
	}
	if f.bag.Count(diag.SemaUnresolvedLabel) != 1 {
		t.Fatalf("undeclared label must be reported")
	}
	if f.bag.Count(diag.SemaBreakOutsideLoop) != 1 {
		t.Fatalf("continue outside a loop must be reported")
	}
}

func TestMatchArmsGetFreshRibs(t *testing.T) {
	f := newFixture(t)
	arm := func(name string) (ast.MatchArm, []ast.PathSegment) {
		e := f.b.PathExpr(f.b.SimplePath(sp, name))
		d, _ := f.b.Crate().Exprs.Path(e)
		return f.b.MatchArm(sp, f.b.IdentPat(sp, name, false), ast.NoExprID, e), d.Path.Segments
	}
	a1, s1 := arm("v")
	a2, s2 := arm("v")
	m := f.b.ExprStmt(sp, f.b.Match(sp, f.int("1"), a1, a2), true)
	res := f.resolve(f.fn("main", m))

	d1, _ := res.LookupResolvedName(s1[0].Node)
	d2, _ := res.LookupResolvedName(s2[0].Node)
	if d1 == d2 || !d1.IsValid() || !d2.IsValid() {
		t.Fatalf("each arm must bind its own v: %d %d", d1, d2)
	}
	if f.bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", f.bag.Items())
	}
}

func TestBuiltinsAndDefinitions(t *testing.T) {
	f := newFixture(t)
	param := f.b.Param(sp, f.b.IdentPat(sp, "n", false), f.b.PathType(f.b.SimplePath(sp, "i32")))
	use, segs := f.use("n")
	fn := f.b.Fn(sp, "id", ast.VisPrivate, ast.FnItem{Params: []ast.Param{param}, Body: f.b.Block(sp, []ast.StmtID{use}, ast.NoExprID)})
	res := f.resolve(fn)

	ty := res.AST().Types.Get(param.Type)
	def, ok := res.LookupResolvedType(ty.Path.Segments[0].Node)
	if !ok {
		t.Fatalf("i32 not resolved")
	}
	if name, ok := res.LookupBuiltin(def); !ok || name != "i32" {
		t.Fatalf("i32 resolved to %d (%q)", def, name)
	}
	if _, ok := res.LookupBuiltin(res.UnitTypeNodeID()); !ok {
		t.Fatalf("unit type has no builtin entry")
	}
	local, _ := res.LookupResolvedName(segs[0].Node)
	d, ok := res.LookupDefinition(local)
	if !ok || d.Parent != param.Node {
		t.Fatalf("parameter binding definition = %+v", d)
	}
	fnNode := res.AST().Items.Get(fn).Node
	if d, _ := res.LookupDefinition(fnNode); d.Owner() != fnNode || d.Parent.IsValid() {
		t.Fatalf("item definitions are roots: %+v", d)
	}
}
