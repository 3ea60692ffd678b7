package mappings

import (
	"testing"

	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
)

func newItem(m *Mappings, crate ids.CrateNum, kind hir.ItemKind) *hir.Item {
	node := m.NextNodeID(crate)
	return &hir.Item{Mapping: m.NewMapping(crate, node, true), Kind: kind}
}

func TestCountersArePerCrateAndMonotonic(t *testing.T) {
	m := New()
	a := m.NewCrate("a")
	b := m.NewCrate("b")
	if a == b || !a.IsValid() || !b.IsValid() {
		t.Fatalf("unexpected crate numbers %d %d", a, b)
	}
	prev := ids.UnknownNodeID
	for range 5 {
		n := m.NextNodeID(a)
		if n <= prev {
			t.Fatalf("node ids must increase: %d after %d", n, prev)
		}
		prev = n
	}
	if got := m.NextNodeID(b); got != 1 {
		t.Fatalf("crate b must start at 1, got %d", got)
	}
	if got := m.NextIrID(a); got != 1 {
		t.Fatalf("ir counter is independent of node counter, got %d", got)
	}
}

func TestNodeIrBijection(t *testing.T) {
	m := New()
	c := m.NewCrate("app")
	pairs := map[ids.NodeID]ids.IrID{}
	for range 10 {
		node := m.NextNodeID(c)
		mp := m.NewMapping(c, node, false)
		pairs[node] = mp.Ir
	}
	// a node that is never lowered
	segment := m.NextNodeID(c)

	for node, ir := range pairs {
		gotIr, ok := m.LookupNodeToIr(c, node)
		if !ok || gotIr != ir {
			t.Fatalf("node %d: expected ir %d, got %d", node, ir, gotIr)
		}
		back, ok := m.LookupIrToNode(c, gotIr)
		if !ok || back != node {
			t.Fatalf("round trip failed for node %d: got %d", node, back)
		}
	}
	if _, ok := m.LookupNodeToIr(c, segment); ok {
		t.Fatalf("unlowered node must not have an ir id")
	}
	if got := len(m.IrIDsWithinCrate(c)); got != 10 {
		t.Fatalf("expected 10 ir ids, got %d", got)
	}
}

func TestRemappingIsInternalError(t *testing.T) {
	m := New()
	c := m.NewCrate("app")
	node := m.NextNodeID(c)
	m.InsertNodeToIr(c, node, 7)
	m.InsertNodeToIr(c, node, 7) // same pair is fine
	err := ice.Catch(func() { m.InsertNodeToIr(c, node, 8) })
	if err == nil {
		t.Fatalf("expected internal error for conflicting ir id")
	}
	other := m.NextNodeID(c)
	if err := ice.Catch(func() { m.InsertNodeToIr(c, other, 7) }); err == nil {
		t.Fatalf("expected internal error for shared ir id")
	}
}

func TestCanonicalPathConflictRule(t *testing.T) {
	m := New()
	c := m.NewCrate("app")
	node := m.NextNodeID(c)
	base := NewSegment(1, "app").Append(NewSegment(2, "a")).Append(NewSegment(node, "f"))
	m.InsertCanonicalPath(c, node, base)

	// equal path is a no-op
	m.InsertCanonicalPath(c, node, NewSegment(9, "app").Append(NewSegment(9, "a")).Append(NewSegment(9, "f")))
	// longer path is ignored
	m.InsertCanonicalPath(c, node, base.Append(NewSegment(node, "g")))
	// equal length but different: first registration wins
	m.InsertCanonicalPath(c, node, NewSegment(1, "app").Append(NewSegment(2, "b")).Append(NewSegment(node, "f")))

	got, ok := m.LookupCanonicalPath(c, node)
	if !ok || got.String() != "app::a::f" {
		t.Fatalf("expected first path to win, got %q", got)
	}
	if n, ok := m.LookupNodeByPath(c, "app::a::f"); !ok || n != node {
		t.Fatalf("reverse lookup failed: %d", n)
	}
	if _, ok := m.LookupNodeByPath(c, "app::b::f"); ok {
		t.Fatalf("ignored path must not be indexed")
	}
	err := ice.Catch(func() {
		m.InsertCanonicalPath(c, node, NewSegment(1, "app").Append(NewSegment(node, "f")))
	})
	if err == nil {
		t.Fatalf("expected internal error for a shorter path")
	}
}

func TestFrozenCrateRejectsInserts(t *testing.T) {
	m := New()
	c := m.NewCrate("app")
	node := m.NextNodeID(c)
	m.Freeze(c)
	if !m.IsFrozen(c) {
		t.Fatalf("crate must be frozen")
	}
	if err := ice.Catch(func() { m.InsertNodeToIr(c, node, 1) }); err == nil {
		t.Fatalf("expected internal error on frozen crate")
	}
	if err := ice.Catch(func() { m.NextNodeID(c) }); err == nil {
		t.Fatalf("expected internal error allocating on frozen crate")
	}
	if _, ok := m.LookupNodeToIr(c, node); ok {
		t.Fatalf("lookup must still work and report absence")
	}
}

func TestItemTablesAndBackMaps(t *testing.T) {
	m := New()
	c := m.NewCrate("app")
	impl := newItem(m, c, hir.ItemImpl)
	impl.Impl = &hir.Impl{}
	m.InsertItem(impl)
	method := newItem(m, c, hir.ItemFn)
	method.Fn = &hir.Fn{}
	m.InsertItem(method)
	m.InsertImplItem(c, impl.Ir(), method)

	trait := newItem(m, c, hir.ItemTrait)
	trait.Trait = &hir.Trait{}
	m.InsertItem(trait)
	req := newItem(m, c, hir.ItemFn)
	req.Fn = &hir.Fn{}
	req.Owner = hir.OwnerTrait
	m.InsertItem(req)
	m.InsertTraitItem(c, trait.Ir(), req)

	if got, ok := m.LookupAssociatedImpl(c, method.Ir()); !ok || got != impl {
		t.Fatalf("expected associated impl")
	}
	if got, ok := m.LookupTraitItemOwner(c, req.Ir()); !ok || got != trait {
		t.Fatalf("expected owning trait")
	}
	if got, ok := m.LookupDefID(method.DefID()); !ok || got != method {
		t.Fatalf("expected def id lookup")
	}
	if !req.IsMandatoryTraitItem() {
		t.Fatalf("bodiless trait fn must be mandatory")
	}

	var walked []ids.LocalDefID
	m.WalkLocalDefIDs(c, func(local ids.LocalDefID, _ *hir.Item) bool {
		walked = append(walked, local)
		return true
	})
	if len(walked) != 4 || walked[0] != 1 || walked[3] != 4 {
		t.Fatalf("unexpected walk order %v", walked)
	}
	impls := 0
	m.IterateImplBlocks(c, func(ids.IrID, *hir.Item) bool { impls++; return true })
	if impls != 1 {
		t.Fatalf("expected one impl, got %d", impls)
	}
}

func TestLangItemsAndModuleChildren(t *testing.T) {
	m := New()
	c := m.NewCrate("app")
	def := ids.DefID{Crate: c, Local: 3}
	if !m.InsertLangItem(c, LangAdd, def) {
		t.Fatalf("first insert must succeed")
	}
	if m.InsertLangItem(c, LangAdd, ids.DefID{Crate: c, Local: 4}) {
		t.Fatalf("duplicate lang item must be rejected")
	}
	if got, ok := m.LookupLangItem(c, LangAdd); !ok || got != def {
		t.Fatalf("unexpected lang item %v", got)
	}
	if item, ok := LangItemFromString("partial_ord"); !ok || item != LangPartialOrd {
		t.Fatalf("unexpected parse %v", item)
	}

	m.InsertModuleChild(c, 1, 5)
	m.InsertModuleChild(c, 1, 3)
	m.InsertModuleChild(c, 1, 5)
	children, ok := m.LookupModuleChildren(c, 1)
	if !ok || len(children) != 2 || children[0] != 5 || children[1] != 3 {
		t.Fatalf("unexpected children %v", children)
	}
	snap, ok := m.Snapshot(c)
	if !ok || snap.Name != "app" || len(snap.Lang) != 1 || len(snap.Modules) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
