package typeck

import (
	"testing"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/lower"
	"oxbow/internal/mappings"
	"oxbow/internal/resolve"
	"oxbow/internal/source"
	"oxbow/internal/types"
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

func (f *fixture) check(items ...ast.ItemID) *Context {
	f.t.Helper()
	root := f.b.Module(sp, "app", ast.VisPublic, items...)
	c := f.b.Finish("app", 0, root)
	rep := diag.BagReporter{Bag: f.bag}
	res := resolve.ResolveCrate(f.maps, c, resolve.Options{Reporter: rep, NoLints: true})
	h := lower.LowerCrate(f.maps, c, rep)
	return CheckCrate(f.maps, res, h, Options{Reporter: rep})
}

func (f *fixture) noErrors() {
	f.t.Helper()
	if f.bag.HasErrors() {
		for _, d := range f.bag.Items() {
			f.t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		f.t.Fatalf("unexpected diagnostics")
	}
}

func (f *fixture) wantCode(code diag.Code, n int) {
	f.t.Helper()
	if got := f.bag.Count(code); got != n {
		for _, d := range f.bag.Items() {
			f.t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		f.t.Fatalf("%s reported %d times, want %d", code.ID(), got, n)
	}
}

func (f *fixture) main(stmts ...ast.StmtID) ast.ItemID {
	return f.b.Fn(sp, "main", ast.VisPrivate, ast.FnItem{Body: f.b.Block(sp, stmts, ast.NoExprID)})
}

func (f *fixture) stmt(e ast.ExprID) ast.StmtID { return f.b.ExprStmt(sp, e, true) }

func (f *fixture) path(names ...string) ast.ExprID {
	return f.b.PathExpr(f.b.SimplePath(sp, names...))
}

func (f *fixture) ty(name string) ast.TypeID {
	return f.b.PathType(f.b.SimplePath(sp, name))
}

func (f *fixture) int(v string) ast.ExprID { return f.b.Lit(sp, ast.LitInt, v, "") }

func (f *fixture) irOf(node ids.NodeID) ids.IrID {
	f.t.Helper()
	ir, ok := f.maps.LookupNodeToIr(f.num, node)
	if !ok {
		f.t.Fatalf("node %d was not lowered", node)
	}
	return ir
}

func (f *fixture) exprIr(e ast.ExprID) ids.IrID {
	return f.irOf(f.b.Crate().Exprs.Get(e).Node)
}

func (f *fixture) item(id ast.ItemID) *hir.Item {
	f.t.Helper()
	it, ok := f.maps.LookupItemByNode(f.num, f.b.Crate().Items.Get(id).Node)
	if !ok {
		f.t.Fatalf("item %d was not lowered", id)
	}
	return it
}

func (f *fixture) typeOf(c *Context, e ast.ExprID) types.TypeID {
	f.t.Helper()
	t, ok := c.TypeOf(f.exprIr(e))
	if !ok {
		f.t.Fatalf("expression %d has no type", e)
	}
	return t
}

func (f *fixture) unitStruct(name string) ast.ItemID {
	return f.b.Struct(sp, name, ast.VisPublic, ast.StructItem{Kind: ast.StructUnit})
}

func (f *fixture) retFn(name string, self *ast.SelfParam, result ast.TypeID, tail ast.ExprID) ast.ItemID {
	return f.b.Fn(sp, name, ast.VisPublic, ast.FnItem{
		Self:   self,
		Result: result,
		Body:   f.b.Block(sp, nil, tail),
	})
}

func TestNestedModulePathToFunction(t *testing.T) {
	f := newFixture(t)
	item := f.retFn("item", nil, f.ty("i32"), f.int("1"))
	inner := f.b.Module(sp, "module_b", ast.VisPublic, item)
	outer := f.b.Module(sp, "module_a", ast.VisPublic, inner)
	use := f.path("module_a", "module_b", "item")
	c := f.check(outer, f.main(f.stmt(use)))
	f.noErrors()

	node, ok := c.ResolvedNode(f.exprIr(use))
	if !ok || node != f.item(item).Node() {
		t.Fatalf("path resolved to %d, want the function", node)
	}
	fn, ok := c.Types().FnInfo(f.typeOf(c, use))
	if !ok || fn.Result != c.Types().Builtins().I32 || len(fn.Params) != 0 {
		t.Fatalf("got %s, want fn() -> i32", c.TypeString(f.typeOf(c, use)))
	}
}

func TestEnumVariantPath(t *testing.T) {
	f := newFixture(t)
	enum := f.b.Enum(sp, "MyEnum", ast.VisPublic, ast.EnumItem{Variants: []ast.Variant{
		f.b.Variant(sp, "Variant", ast.StructUnit, nil, ast.NoExprID),
		f.b.Variant(sp, "Other", ast.StructUnit, nil, ast.NoExprID),
	}})
	first := f.path("MyEnum", "Variant")
	second := f.path("MyEnum", "Other")
	c := f.check(enum, f.main(f.stmt(first), f.stmt(second)))
	f.noErrors()

	for i, e := range []ast.ExprID{first, second} {
		ref, ok := c.Variant(f.exprIr(e))
		if !ok {
			t.Fatalf("path %d did not resolve to a variant", i)
		}
		if ref.Variant.Index != i || ref.Variant.Discriminant != int64(i) {
			t.Fatalf("variant %d: index %d discriminant %d", i, ref.Variant.Index, ref.Variant.Discriminant)
		}
		if got := c.TypeString(f.typeOf(c, e)); got != "MyEnum" {
			t.Fatalf("variant %d typed %s", i, got)
		}
	}
}

func TestExplicitDiscriminants(t *testing.T) {
	f := newFixture(t)
	enum := f.b.Enum(sp, "E", ast.VisPublic, ast.EnumItem{Variants: []ast.Variant{
		f.b.Variant(sp, "A", ast.StructUnit, nil, f.int("3")),
		f.b.Variant(sp, "B", ast.StructUnit, nil, ast.NoExprID),
		f.b.Variant(sp, "C", ast.StructUnit, nil, f.b.Binary(sp, ast.BinMul, f.int("5"), f.int("2"))),
		f.b.Variant(sp, "D", ast.StructUnit, nil, ast.NoExprID),
	}})
	c := f.check(enum)
	f.noErrors()

	it := f.item(enum)
	tmpl, _ := c.TypeOf(it.Ir())
	adt, ok := c.Types().AdtInfo(tmpl)
	if !ok {
		t.Fatalf("enum has no ADT type")
	}
	want := []int64{3, 4, 10, 11}
	for i, v := range adt.Variants {
		if v.Discriminant != want[i] {
			t.Fatalf("variant %s: discriminant %d, want %d", v.Name, v.Discriminant, want[i])
		}
	}
}

func TestDiscriminantOverflow(t *testing.T) {
	f := newFixture(t)
	maxIsize := "9223372036854775807"
	enum := f.b.Enum(sp, "E", ast.VisPublic, ast.EnumItem{Variants: []ast.Variant{
		f.b.Variant(sp, "A", ast.StructUnit, nil, f.b.Binary(sp, ast.BinAdd, f.int(maxIsize), f.int("1"))),
		f.b.Variant(sp, "B", ast.StructUnit, nil, f.int(maxIsize)),
		f.b.Variant(sp, "C", ast.StructUnit, nil, ast.NoExprID),
	}})
	c := f.check(enum)
	f.wantCode(diag.SemaNonConstant, 1)
	f.wantCode(diag.SemaDiscriminantOverflow, 1)

	tmpl, _ := c.TypeOf(f.item(enum).Ir())
	adt, _ := c.Types().AdtInfo(tmpl)
	for _, v := range adt.Variants {
		if v.Discriminant < 0 {
			t.Fatalf("variant %s wrapped to %d", v.Name, v.Discriminant)
		}
	}
}

func (f *fixture) identity() ast.ItemID {
	x := f.b.IdentPat(sp, "x", false)
	return f.b.Fn(sp, "identity", ast.VisPublic, ast.FnItem{
		Generics: ast.Generics{Params: []ast.GenericParam{f.b.GenericParam(sp, "T")}},
		Params:   []ast.Param{f.b.Param(sp, x, f.ty("T"))},
		Result:   f.ty("T"),
		Body:     f.b.Block(sp, nil, f.path("x")),
	})
}

func TestTurbofishBindsParameter(t *testing.T) {
	f := newFixture(t)
	id := f.identity()
	seg := f.b.Segment(sp, "identity", f.ty("i32"))
	use := f.b.PathExpr(ast.Path{Segments: []ast.PathSegment{seg}, Span: sp})
	c := f.check(id, f.main(f.stmt(use)))
	f.noErrors()

	if got := c.TypeString(f.typeOf(c, use)); got != "fn(i32) -> i32" {
		t.Fatalf("identity::<i32> typed %s", got)
	}
}

func TestTurbofishErrors(t *testing.T) {
	f := newFixture(t)
	id := f.identity()
	plain := f.retFn("plain", nil, ast.NoTypeID, ast.NoExprID)
	tooMany := f.b.PathExpr(ast.Path{Segments: []ast.PathSegment{
		f.b.Segment(sp, "identity", f.ty("i32"), f.ty("bool")),
	}})
	notGeneric := f.b.PathExpr(ast.Path{Segments: []ast.PathSegment{
		f.b.Segment(sp, "plain", f.ty("i32")),
	}})
	c := f.check(id, plain, f.main(f.stmt(tooMany), f.stmt(notGeneric)))

	f.wantCode(diag.SemaWrongGenericCount, 1)
	f.wantCode(diag.SemaSubstNotSupported, 1)
	for _, e := range []ast.ExprID{tooMany, notGeneric} {
		if !c.Types().IsError(f.typeOf(c, e)) {
			t.Fatalf("failed path must have the error type")
		}
	}
}

func TestVariantTurbofishConflict(t *testing.T) {
	f := newFixture(t)
	opt := f.b.Enum(sp, "Opt", ast.VisPublic, ast.EnumItem{
		Generics: ast.Generics{Params: []ast.GenericParam{f.b.GenericParam(sp, "T")}},
		Variants: []ast.Variant{
			f.b.Variant(sp, "Some", ast.StructTuple, []ast.Field{f.b.Field(sp, "0", ast.VisPublic, f.ty("T"))}, ast.NoExprID),
			f.b.Variant(sp, "None", ast.StructUnit, nil, ast.NoExprID),
		},
	})
	use := f.b.PathExpr(ast.Path{Segments: []ast.PathSegment{
		f.b.Segment(sp, "Opt", f.ty("i32")),
		f.b.Segment(sp, "None", f.ty("bool")),
	}})
	f.check(opt, f.main(f.stmt(use)))
	f.wantCode(diag.SemaSubstMismatch, 1)
}

func TestQualifiedPathPrefersTraitItem(t *testing.T) {
	f := newFixture(t)
	foo := f.unitStruct("Foo")
	bar := f.b.Trait(sp, "Bar", ast.VisPublic, ast.TraitItem{Items: []ast.ItemID{
		f.b.Fn(sp, "method", ast.VisPublic, ast.FnItem{Result: f.ty("i32")}),
	}})
	inherent := f.retFn("method", nil, f.ty("bool"), f.b.Lit(sp, ast.LitBool, "true", ""))
	implFoo := f.b.Impl(sp, ast.ImplItem{SelfType: f.ty("Foo"), Items: []ast.ItemID{inherent}})
	traitMethod := f.retFn("method", nil, f.ty("i32"), f.int("7"))
	barPath := f.b.SimplePath(sp, "Bar")
	implBar := f.b.Impl(sp, ast.ImplItem{Trait: &barPath, SelfType: f.ty("Foo"), Items: []ast.ItemID{traitMethod}})

	traitPath := f.b.SimplePath(sp, "Bar")
	callee := f.b.QualPathExpr(ast.QualifiedPath{
		Self:     f.ty("Foo"),
		Trait:    &traitPath,
		Segments: []ast.PathSegment{f.b.Segment(sp, "method")},
		Span:     sp,
	})
	call := f.b.Call(sp, callee)
	plain := f.b.Call(sp, f.path("Foo", "method"))
	c := f.check(foo, bar, implFoo, implBar, f.main(f.stmt(call), f.stmt(plain)))
	f.noErrors()

	node, ok := c.ResolvedNode(f.exprIr(callee))
	if !ok || node != f.item(traitMethod).Node() {
		t.Fatalf("qualified path resolved to %d, want the trait impl's method", node)
	}
	if got := c.TypeString(f.typeOf(c, call)); got != "i32" {
		t.Fatalf("<Foo as Bar>::method() typed %s", got)
	}
	if got := c.TypeString(f.typeOf(c, plain)); got != "bool" {
		t.Fatalf("Foo::method() must pick the inherent method, typed %s", got)
	}
	impl, ok := c.AssociatedImpl(f.exprIr(callee))
	if !ok || impl != f.item(implBar).Ir() {
		t.Fatalf("associated impl not recorded")
	}
}

func TestGenericImplSelfUnifiesWithReceiver(t *testing.T) {
	f := newFixture(t)
	tParam := func() ast.Generics {
		return ast.Generics{Params: []ast.GenericParam{f.b.GenericParam(sp, "T")}}
	}
	w := f.b.Struct(sp, "W", ast.VisPublic, ast.StructItem{
		Generics: tParam(),
		Kind:     ast.StructNamed,
		Fields:   []ast.Field{f.b.Field(sp, "v", ast.VisPublic, f.ty("T"))},
	})
	get := f.retFn("get", f.b.SelfParam(sp, ast.SelfValue, false), f.ty("T"),
		f.b.FieldAccess(sp, f.path("self"), "v"))
	impl := f.b.Impl(sp, ast.ImplItem{
		Generics: tParam(),
		SelfType: f.b.PathType(ast.Path{Segments: []ast.PathSegment{f.b.Segment(sp, "W", f.ty("T"))}, Span: sp}),
		Items:    []ast.ItemID{get},
	})
	use := f.b.PathExpr(ast.Path{Segments: []ast.PathSegment{
		f.b.Segment(sp, "W", f.ty("i32")),
		f.b.Segment(sp, "get"),
	}, Span: sp})
	c := f.check(w, impl, f.main(f.stmt(use)))
	f.noErrors()

	if got := c.TypeString(f.typeOf(c, use)); got != "fn(W<i32>) -> i32" {
		t.Fatalf("W::<i32>::get typed %s", got)
	}
	if node, _ := c.ResolvedNode(f.exprIr(use)); node != f.item(get).Node() {
		t.Fatalf("W::<i32>::get resolved to %d, want the impl's method", node)
	}
	if owner, ok := c.AssociatedImpl(f.exprIr(use)); !ok || owner != f.item(impl).Ir() {
		t.Fatalf("generic impl not recorded for W::<i32>::get")
	}
}

func TestQualifiedPathWithoutTrait(t *testing.T) {
	f := newFixture(t)
	foo := f.unitStruct("Foo")
	method := f.retFn("method", nil, f.ty("bool"), f.b.Lit(sp, ast.LitBool, "true", ""))
	impl := f.b.Impl(sp, ast.ImplItem{SelfType: f.ty("Foo"), Items: []ast.ItemID{method}})
	callee := f.b.QualPathExpr(ast.QualifiedPath{
		Self:     f.ty("Foo"),
		Segments: []ast.PathSegment{f.b.Segment(sp, "method")},
		Span:     sp,
	})
	call := f.b.Call(sp, callee)
	plain := f.path("Foo", "method")
	c := f.check(foo, impl, f.main(f.stmt(call), f.stmt(plain)))
	f.noErrors()

	qualified, _ := c.ResolvedNode(f.exprIr(callee))
	direct, _ := c.ResolvedNode(f.exprIr(plain))
	if qualified != f.item(method).Node() || qualified != direct {
		t.Fatalf("<Foo>::method resolved to %d, Foo::method to %d", qualified, direct)
	}
	if got := c.TypeString(f.typeOf(c, call)); got != "bool" {
		t.Fatalf("<Foo>::method() typed %s", got)
	}
}

func TestQualifiedPathBoundViolation(t *testing.T) {
	f := newFixture(t)
	foo := f.unitStruct("Foo")
	bar := f.b.Trait(sp, "Bar", ast.VisPublic, ast.TraitItem{Items: []ast.ItemID{
		f.b.Fn(sp, "method", ast.VisPublic, ast.FnItem{}),
	}})
	traitPath := f.b.SimplePath(sp, "Bar")
	callee := f.b.QualPathExpr(ast.QualifiedPath{
		Self:     f.ty("Foo"),
		Trait:    &traitPath,
		Segments: []ast.PathSegment{f.b.Segment(sp, "method")},
	})
	c := f.check(foo, bar, f.main(f.stmt(f.b.Call(sp, callee))))
	f.wantCode(diag.SemaTraitBoundViolation, 1)
	if !c.Types().IsError(f.typeOf(c, callee)) {
		t.Fatalf("violating path must have the error type")
	}
}

func TestShadowedLetUsesLatestBinding(t *testing.T) {
	f := newFixture(t)
	first := f.b.Let(sp, f.b.IdentPat(sp, "x", false), ast.NoTypeID, f.int("1"))
	second := f.b.Let(sp, f.b.IdentPat(sp, "x", false), ast.NoTypeID, f.b.Lit(sp, ast.LitBool, "true", ""))
	use := f.path("x")
	c := f.check(f.main(first, second, f.stmt(use)))
	f.noErrors()

	if got := c.TypeString(f.typeOf(c, use)); got != "bool" {
		t.Fatalf("x typed %s, want the second binding's bool", got)
	}
}

func TestResolvedNameWithoutDefinitionIsInternalError(t *testing.T) {
	f := newFixture(t)
	let := f.b.Let(sp, f.b.IdentPat(sp, "x", false), ast.NoTypeID, f.int("1"))
	use := f.path("x")
	root := f.b.Module(sp, "app", ast.VisPublic, f.main(let, f.stmt(use)))
	c := f.b.Finish("app", 0, root)
	rep := diag.BagReporter{Bag: f.bag}
	res := resolve.ResolveCrate(f.maps, c, resolve.Options{Reporter: rep, NoLints: true})
	h := lower.LowerCrate(f.maps, c, rep)

	d, _ := c.Exprs.Path(use)
	res.InsertResolvedName(d.Path.Segments[0].Node, f.b.Node())
	err := ice.Catch(func() { CheckCrate(f.maps, res, h, Options{Reporter: rep}) })
	if _, ok := err.(*ice.Error); !ok {
		t.Fatalf("got %v, want an internal error", err)
	}
}

func TestUnresolvedPathReportedOnce(t *testing.T) {
	f := newFixture(t)
	bad := f.path("nonexistent", "path")
	sibling := f.b.Binary(sp, ast.BinAdd, f.int("1"), f.int("2"))
	c := f.check(f.main(f.stmt(bad), f.stmt(sibling)))

	f.wantCode(diag.SemaUnresolvedName, 1)
	if f.bag.Len() != 1 {
		t.Fatalf("got %d diagnostics, want 1", f.bag.Len())
	}
	if !c.Types().IsError(f.typeOf(c, bad)) {
		t.Fatalf("unresolved path must have the error type")
	}
	if got := c.TypeString(f.typeOf(c, sibling)); got != "i32" {
		t.Fatalf("sibling expression typed %s", got)
	}
}

func TestAmbiguousInherentMethods(t *testing.T) {
	f := newFixture(t)
	s := f.unitStruct("S")
	m := func() ast.ItemID {
		return f.retFn("m", f.b.SelfParam(sp, ast.SelfRef, false), ast.NoTypeID, ast.NoExprID)
	}
	impl1 := f.b.Impl(sp, ast.ImplItem{SelfType: f.ty("S"), Items: []ast.ItemID{m()}})
	impl2 := f.b.Impl(sp, ast.ImplItem{SelfType: f.ty("S"), Items: []ast.ItemID{m()}})
	let := f.b.Let(sp, f.b.IdentPat(sp, "s", false), ast.NoTypeID, f.path("S"))
	call := f.b.MethodCall(sp, f.path("s"), f.b.Segment(sp, "m"))
	f.check(s, impl1, impl2, f.main(let, f.stmt(call)))

	f.wantCode(diag.SemaAmbiguousCandidates, 1)
	d := f.bag.Items()[0]
	if len(d.Notes) != 2 {
		t.Fatalf("ambiguity must list both candidates, got %d notes", len(d.Notes))
	}
}

func TestResolutionIsDeterministic(t *testing.T) {
	run := func() []string {
		f := newFixture(t)
		id := f.identity()
		use := f.b.PathExpr(ast.Path{Segments: []ast.PathSegment{f.b.Segment(sp, "identity", f.ty("u8"))}})
		call := f.b.Call(sp, f.path("identity"), f.int("5"))
		c := f.check(id, f.main(f.stmt(use), f.stmt(call)))
		node, _ := c.ResolvedNode(f.exprIr(use))
		return []string{
			c.TypeString(f.typeOf(c, use)),
			c.TypeString(f.typeOf(c, call)),
			canonical(f, node),
		}
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run differs at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func canonical(f *fixture, node ids.NodeID) string {
	p, ok := f.maps.LookupCanonicalPath(f.num, node)
	if !ok {
		return ""
	}
	return p.String()
}

func (f *fixture) showTrait() ast.ItemID {
	self := func() *ast.SelfParam { return f.b.SelfParam(sp, ast.SelfRef, false) }
	return f.b.Trait(sp, "Show", ast.VisPublic, ast.TraitItem{Items: []ast.ItemID{
		f.b.Fn(sp, "show", ast.VisPublic, ast.FnItem{Self: self(), Result: f.ty("i32")}),
		f.retFn("twice", self(), f.ty("i32"), f.int("2")),
	}})
}

func TestTraitDefaultAndMandatoryMethods(t *testing.T) {
	f := newFixture(t)
	p := f.unitStruct("P")
	show := f.showTrait()
	showPath := f.b.SimplePath(sp, "Show")
	implShow := f.retFn("show", f.b.SelfParam(sp, ast.SelfRef, false), f.ty("i32"), f.int("1"))
	impl := f.b.Impl(sp, ast.ImplItem{Trait: &showPath, SelfType: f.ty("P"), Items: []ast.ItemID{implShow}})
	let := f.b.Let(sp, f.b.IdentPat(sp, "p", false), ast.NoTypeID, f.path("P"))
	callShow := f.b.MethodCall(sp, f.path("p"), f.b.Segment(sp, "show"))
	callTwice := f.b.MethodCall(sp, f.path("p"), f.b.Segment(sp, "twice"))
	c := f.check(p, show, impl, f.main(let, f.stmt(callShow), f.stmt(callTwice)))
	f.noErrors()

	if node, _ := c.ResolvedNode(f.exprIr(callShow)); node != f.item(implShow).Node() {
		t.Fatalf("p.show() must resolve to the impl's method")
	}
	twice, _ := c.ResolvedNode(f.exprIr(callTwice))
	it, ok := f.maps.LookupItemByNode(f.num, twice)
	if !ok || it.Owner != hir.OwnerTrait {
		t.Fatalf("p.twice() must resolve to the trait's default method")
	}
	if owner, ok := c.AssociatedImpl(f.exprIr(callTwice)); !ok || owner != f.item(impl).Ir() {
		t.Fatalf("default method call must record the supplying impl")
	}
}

func TestTraitDefaultThroughTypePath(t *testing.T) {
	f := newFixture(t)
	p := f.unitStruct("P")
	show := f.showTrait()
	showPath := f.b.SimplePath(sp, "Show")
	implShow := f.retFn("show", f.b.SelfParam(sp, ast.SelfRef, false), f.ty("i32"), f.int("1"))
	impl := f.b.Impl(sp, ast.ImplItem{Trait: &showPath, SelfType: f.ty("P"), Items: []ast.ItemID{implShow}})
	use := f.path("P", "twice")
	c := f.check(p, show, impl, f.main(f.stmt(use)))
	f.noErrors()

	node, _ := c.ResolvedNode(f.exprIr(use))
	it, ok := f.maps.LookupItemByNode(f.num, node)
	if !ok || it.Owner != hir.OwnerTrait || c.name(it.Name) != "twice" {
		t.Fatalf("P::twice must resolve to the trait's default method")
	}
	if owner, ok := c.AssociatedImpl(f.exprIr(use)); !ok || owner != f.item(impl).Ir() {
		t.Fatalf("P::twice must record the impl of Show for P")
	}
	if got := c.TypeString(f.typeOf(c, use)); got != "fn(&P) -> i32" {
		t.Fatalf("P::twice typed %s", got)
	}
}

func TestMissingMandatoryTraitItem(t *testing.T) {
	f := newFixture(t)
	q := f.unitStruct("Q")
	show := f.showTrait()
	showPath := f.b.SimplePath(sp, "Show")
	impl := f.b.Impl(sp, ast.ImplItem{Trait: &showPath, SelfType: f.ty("Q")})
	f.check(q, show, impl)
	f.wantCode(diag.SemaMissingTraitItem, 1)
}

func TestGenericBoundMethod(t *testing.T) {
	f := newFixture(t)
	show := f.showTrait()
	v := f.b.IdentPat(sp, "v", false)
	call := f.b.MethodCall(sp, f.path("v"), f.b.Segment(sp, "show"))
	generic := f.b.Fn(sp, "render", ast.VisPublic, ast.FnItem{
		Generics: ast.Generics{Params: []ast.GenericParam{f.b.GenericParam(sp, "T", f.b.SimplePath(sp, "Show"))}},
		Params:   []ast.Param{f.b.Param(sp, v, f.b.RefType(sp, false, f.ty("T")))},
		Result:   f.ty("i32"),
		Body:     f.b.Block(sp, nil, call),
	})
	c := f.check(show, generic)
	f.noErrors()
	if got := c.TypeString(f.typeOf(c, call)); got != "i32" {
		t.Fatalf("v.show() typed %s", got)
	}
}

func TestOperatorLangItems(t *testing.T) {
	f := newFixture(t)
	add := f.b.Trait(sp, "Add", ast.VisPublic, ast.TraitItem{Items: []ast.ItemID{
		f.b.Fn(sp, "add", ast.VisPublic, ast.FnItem{
			Self:   f.b.SelfParam(sp, ast.SelfValue, false),
			Params: []ast.Param{f.b.Param(sp, f.b.IdentPat(sp, "rhs", false), f.ty("Self"))},
			Result: f.ty("Self"),
		}),
	}})
	f.b.AddAttr(add, sp, "lang", "add")
	v := f.unitStruct("V")
	addPath := f.b.SimplePath(sp, "Add")
	method := f.b.Fn(sp, "add", ast.VisPublic, ast.FnItem{
		Self:   f.b.SelfParam(sp, ast.SelfValue, false),
		Params: []ast.Param{f.b.Param(sp, f.b.IdentPat(sp, "rhs", false), f.ty("V"))},
		Result: f.ty("V"),
		Body:   f.b.Block(sp, nil, f.path("rhs")),
	})
	impl := f.b.Impl(sp, ast.ImplItem{Trait: &addPath, SelfType: f.ty("V"), Items: []ast.ItemID{method}})

	sum := f.b.Binary(sp, ast.BinAdd, f.path("V"), f.path("V"))
	diff := f.b.Binary(sp, ast.BinSub, f.path("V"), f.path("V"))
	eq := f.b.Binary(sp, ast.BinEq, f.path("V"), f.path("V"))
	c := f.check(add, v, impl, f.main(f.stmt(sum), f.stmt(diff), f.stmt(eq)))

	f.wantCode(diag.SemaInvalidBinaryOperands, 1)
	if got := c.TypeString(f.typeOf(c, sum)); got != "V" {
		t.Fatalf("V + V typed %s", got)
	}
	if node, _ := c.ResolvedNode(f.exprIr(sum)); node != f.item(method).Node() {
		t.Fatalf("V + V must resolve to the add method")
	}
	if got := c.TypeString(f.typeOf(c, eq)); got != "bool" {
		t.Fatalf("structural equality typed %s", got)
	}
}

func TestPrimitiveOperators(t *testing.T) {
	f := newFixture(t)
	ok := f.b.Binary(sp, ast.BinLt, f.int("1"), f.b.Lit(sp, ast.LitInt, "2", "u8"))
	bad := f.b.Binary(sp, ast.BinAdd, f.int("1"), f.b.Lit(sp, ast.LitBool, "true", ""))
	neg := f.b.Unary(sp, ast.UnNeg, f.b.Lit(sp, ast.LitBool, "false", ""))
	c := f.check(f.main(f.stmt(ok), f.stmt(bad), f.stmt(neg)))

	f.wantCode(diag.SemaInvalidBinaryOperands, 1)
	f.wantCode(diag.SemaInvalidUnaryOperand, 1)
	if got := c.TypeString(f.typeOf(c, ok)); got != "bool" {
		t.Fatalf("comparison typed %s", got)
	}
}

func TestCaptureInNestedFunction(t *testing.T) {
	f := newFixture(t)
	let := f.b.Let(sp, f.b.IdentPat(sp, "x", false), ast.NoTypeID, f.int("1"))
	inner := f.retFn("inner", nil, f.ty("i32"), f.path("x"))
	outer := f.main(let, f.b.ItemStmt(sp, inner))
	f.check(outer)
	f.wantCode(diag.SemaCaptureInFnItem, 1)
}

func TestArrayLengthFromConst(t *testing.T) {
	f := newFixture(t)
	n := f.b.Const(sp, "N", ast.VisPublic, ast.ConstItem{
		Type:  f.ty("usize"),
		Value: f.b.Binary(sp, ast.BinAdd, f.int("2"), f.int("1")),
	})
	arrTy := f.b.ArrayType(sp, f.ty("i32"), f.path("N"))
	arr := f.b.Const(sp, "ARR", ast.VisPublic, ast.ConstItem{
		Type:  arrTy,
		Value: f.b.Array(sp, f.int("1"), f.int("2"), f.int("3")),
	})
	short := f.b.Const(sp, "SHORT", ast.VisPublic, ast.ConstItem{
		Type:  f.b.ArrayType(sp, f.ty("i32"), f.int("4")),
		Value: f.b.Array(sp, f.int("1")),
	})
	c := f.check(n, arr, short)

	f.wantCode(diag.SemaTypeMismatch, 1)
	t1, _ := c.TypeOf(f.item(arr).Ir())
	if got := c.TypeString(t1); got != "[i32; 3]" {
		t.Fatalf("ARR typed %s", got)
	}
}

func TestStructLiteralFields(t *testing.T) {
	f := newFixture(t)
	point := f.b.Struct(sp, "Point", ast.VisPublic, ast.StructItem{Kind: ast.StructNamed, Fields: []ast.Field{
		f.b.Field(sp, "x", ast.VisPublic, f.ty("i32")),
		f.b.Field(sp, "y", ast.VisPublic, f.ty("i32")),
	}})
	missing := f.b.StructLit(sp, f.b.SimplePath(sp, "Point"), f.b.FieldInit(sp, "x", f.int("1")))
	unknown := f.b.StructLit(sp, f.b.SimplePath(sp, "Point"),
		f.b.FieldInit(sp, "x", f.int("1")), f.b.FieldInit(sp, "y", f.int("2")), f.b.FieldInit(sp, "z", f.int("3")))
	good := f.b.StructLit(sp, f.b.SimplePath(sp, "Point"),
		f.b.FieldInit(sp, "y", f.int("1")), f.b.FieldInit(sp, "x", f.int("2")))
	access := f.b.FieldAccess(sp, good, "y")
	c := f.check(point, f.main(f.stmt(missing), f.stmt(unknown), f.stmt(access)))

	f.wantCode(diag.SemaMissingFields, 1)
	f.wantCode(diag.SemaUnknownField, 1)
	if got := c.TypeString(f.typeOf(c, access)); got != "i32" {
		t.Fatalf("field access typed %s", got)
	}
}
