package lower

import (
	"testing"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

var sp = source.NoSpan

func TestLowerAssignsIdentities(t *testing.T) {
	maps := mappings.New()
	num := maps.NewCrate("app")
	b := ast.NewBuilder(num, maps, nil, ast.Hints{})

	pathExpr := b.PathExpr(b.SimplePath(sp, "Color", "Red"))
	body := b.Block(sp, []ast.StmtID{b.ExprStmt(sp, pathExpr, true)}, ast.NoExprID)
	main := b.Fn(sp, "main", ast.VisPrivate, ast.FnItem{Body: body})
	enum := b.Enum(sp, "Color", ast.VisPublic, ast.EnumItem{Variants: []ast.Variant{
		b.Variant(sp, "Red", ast.StructUnit, nil, ast.NoExprID),
		b.Variant(sp, "Green", ast.StructUnit, nil, ast.NoExprID),
	}})
	selfTy := b.PathType(b.SimplePath(sp, "Color"))
	method := b.Fn(sp, "describe", ast.VisPublic, ast.FnItem{
		Self: b.SelfParam(sp, ast.SelfRef, false),
		Body: b.Block(sp, nil, ast.NoExprID),
	})
	impl := b.Impl(sp, ast.ImplItem{SelfType: selfTy, Items: []ast.ItemID{method}})
	root := b.Module(sp, "app", ast.VisPublic, enum, impl, main)
	c := b.Finish("app", 0, root)

	bag := diag.NewBag(0)
	krate := LowerCrate(maps, c, diag.BagReporter{Bag: bag})

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	for _, ir := range maps.IrIDsWithinCrate(num) {
		node, ok := maps.LookupIrToNode(num, ir)
		if !ok {
			t.Fatalf("ir %d has no node", ir)
		}
		back, ok := maps.LookupNodeToIr(num, node)
		if !ok || back != ir {
			t.Fatalf("round trip of ir %d gave %d", ir, back)
		}
	}
	d, _ := c.Exprs.Path(pathExpr)
	for _, seg := range d.Path.Segments {
		if _, ok := maps.LookupNodeToIr(num, seg.Node); ok {
			t.Fatalf("path segment %d must not be lowered", seg.Node)
		}
	}
	if _, ok := maps.LookupNodeToIr(num, c.Exprs.Get(pathExpr).Node); !ok {
		t.Fatalf("body expression was not lowered")
	}

	enumItem, ok := maps.LookupItemByNode(num, c.Items.Get(enum).Node)
	if !ok || enumItem.Kind != hir.ItemEnum || len(enumItem.Enum.Variants) != 2 {
		t.Fatalf("enum not lowered: %+v", enumItem)
	}
	red, _ := krate.Item(enumItem.Enum.Variants[0])
	green, _ := krate.Item(enumItem.Enum.Variants[1])
	if red.Variant.Index != 0 || green.Variant.Index != 1 || red.Parent != enumItem.Ir() {
		t.Fatalf("variant indexes or parent wrong")
	}
	if !red.Mapping.LocalDef.IsValid() {
		t.Fatalf("variants are definitions")
	}
	if got, ok := maps.LookupDefID(red.DefID()); !ok || got != red {
		t.Fatalf("DefID lookup of a variant failed")
	}

	methodItem, ok := maps.LookupItemByNode(num, c.Items.Get(method).Node)
	if !ok || methodItem.Owner != hir.OwnerImpl {
		t.Fatalf("method not lowered as impl item")
	}
	owner, ok := maps.LookupAssociatedImpl(num, methodItem.Ir())
	if !ok || owner.Node() != c.Items.Get(impl).Node {
		t.Fatalf("associated impl lookup failed")
	}
	if methodItem.Fn.Self == nil || !methodItem.Fn.Self.Mapping.Ir.IsValid() {
		t.Fatalf("self param has no IrID")
	}
	if _, ok := maps.LookupModule(num, krate.Root); !ok {
		t.Fatalf("root module not registered")
	}
	if _, ok := maps.LookupHirCrate(num); !ok {
		t.Fatalf("hir crate not registered")
	}
}

func TestLangItems(t *testing.T) {
	maps := mappings.New()
	num := maps.NewCrate("core")
	b := ast.NewBuilder(num, maps, nil, ast.Hints{})

	add := b.Trait(sp, "Add", ast.VisPublic, ast.TraitItem{})
	b.AddAttr(add, sp, "lang", "add")
	again := b.Trait(sp, "Plus", ast.VisPublic, ast.TraitItem{})
	b.AddAttr(again, sp, "lang", "add")
	bogus := b.Trait(sp, "Bogus", ast.VisPublic, ast.TraitItem{})
	b.AddAttr(bogus, sp, "lang", "frobnicate")
	c := b.Finish("core", 0, b.Module(sp, "core", ast.VisPublic, add, again, bogus))

	bag := diag.NewBag(0)
	LowerCrate(maps, c, diag.BagReporter{Bag: bag})

	def, ok := maps.LookupLangItem(num, mappings.LangAdd)
	if !ok {
		t.Fatalf("add lang item missing")
	}
	it, _ := maps.LookupDefID(def)
	if it == nil || it.Node() != c.Items.Get(add).Node {
		t.Fatalf("first declaration must own the lang item")
	}
	if bag.Count(diag.SemaDuplicateLangItem) != 1 || bag.Count(diag.SemaUnknownLangItem) != 1 {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if _, ok := maps.LookupLangItem(num, mappings.LangNeg); ok {
		t.Fatalf("unregistered lang item found")
	}
}
