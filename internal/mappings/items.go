package mappings

import (
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
)

// InsertHirCrate stores the lowered crate.
func (m *Mappings) InsertHirCrate(c *hir.Crate) {
	t := m.mustTable(c.Mapping.Crate)
	t.mustBeOpen("InsertHirCrate")
	t.hirCrate = c
}

func (m *Mappings) LookupHirCrate(crate ids.CrateNum) (*hir.Crate, bool) {
	t, ok := m.table(crate)
	if !ok || t.hirCrate == nil {
		return nil, false
	}
	return t.hirCrate, true
}

// InsertItem records a lowered item under its IrID. Modules and impl blocks
// are indexed as well; definitions get their LocalDefID entry.
func (m *Mappings) InsertItem(it *hir.Item) {
	mp := it.Mapping
	t := m.mustTable(mp.Crate)
	t.mustBeOpen("InsertItem")
	if prev, ok := t.items[mp.Ir]; ok && prev != it {
		ice.Raise(component, "item %s already registered", mp)
	}
	t.items[mp.Ir] = it
	switch it.Kind {
	case hir.ItemModule:
		t.modules[mp.Ir] = it
	case hir.ItemImpl:
		m.InsertImplBlock(it)
	}
	if mp.LocalDef.IsValid() {
		m.InsertDefID(it)
	}
}

func (m *Mappings) LookupItem(crate ids.CrateNum, ir ids.IrID) (*hir.Item, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	it, ok := t.items[ir]
	return it, ok
}

// LookupItemByNode goes through the NodeID->IrID map.
func (m *Mappings) LookupItemByNode(crate ids.CrateNum, node ids.NodeID) (*hir.Item, bool) {
	ir, ok := m.LookupNodeToIr(crate, node)
	if !ok {
		return nil, false
	}
	return m.LookupItem(crate, ir)
}

func (m *Mappings) LookupModule(crate ids.CrateNum, ir ids.IrID) (*hir.Item, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	it, ok := t.modules[ir]
	return it, ok
}

// Definitions ---------------------------------------------------------------

func (m *Mappings) InsertLocalDef(crate ids.CrateNum, local ids.LocalDefID, it *hir.Item) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertLocalDef")
	if !local.IsValid() {
		ice.Raise(component, "invalid local def id for %s", it.Mapping)
	}
	if prev, ok := t.defs[local]; ok {
		if prev == it {
			return
		}
		ice.Raise(component, "local def %d reused by %s", local, it.Mapping)
	}
	t.defs[local] = it
	t.defOrder = append(t.defOrder, local)
}

func (m *Mappings) LookupLocalDef(crate ids.CrateNum, local ids.LocalDefID) (*hir.Item, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	it, ok := t.defs[local]
	return it, ok
}

// InsertDefID registers the item under its global DefID.
func (m *Mappings) InsertDefID(it *hir.Item) {
	m.InsertLocalDef(it.Mapping.Crate, it.Mapping.LocalDef, it)
}

func (m *Mappings) LookupDefID(def ids.DefID) (*hir.Item, bool) {
	return m.LookupLocalDef(def.Crate, def.Local)
}

// WalkLocalDefIDs visits definitions in allocation order until fn returns false.
func (m *Mappings) WalkLocalDefIDs(crate ids.CrateNum, fn func(ids.LocalDefID, *hir.Item) bool) {
	t, ok := m.table(crate)
	if !ok {
		return
	}
	for _, local := range t.defOrder {
		if !fn(local, t.defs[local]) {
			return
		}
	}
}

// Impls and traits ----------------------------------------------------------

func (m *Mappings) InsertImplBlock(it *hir.Item) {
	t := m.mustTable(it.Mapping.Crate)
	t.mustBeOpen("InsertImplBlock")
	if _, ok := t.implBlocks[it.Mapping.Ir]; ok {
		return
	}
	t.implBlocks[it.Mapping.Ir] = it
	t.implOrder = append(t.implOrder, it.Mapping.Ir)
}

func (m *Mappings) LookupImplBlock(crate ids.CrateNum, ir ids.IrID) (*hir.Item, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	it, ok := t.implBlocks[ir]
	return it, ok
}

// IterateImplBlocks visits impls in lowering order until fn returns false.
func (m *Mappings) IterateImplBlocks(crate ids.CrateNum, fn func(ids.IrID, *hir.Item) bool) {
	t, ok := m.table(crate)
	if !ok {
		return
	}
	for _, ir := range t.implOrder {
		if !fn(ir, t.implBlocks[ir]) {
			return
		}
	}
}

func (m *Mappings) InsertImplItem(crate ids.CrateNum, parentImpl ids.IrID, it *hir.Item) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertImplItem")
	if _, ok := t.implItems[it.Mapping.Ir]; ok {
		ice.Raise(component, "impl item %s registered twice", it.Mapping)
	}
	t.implItems[it.Mapping.Ir] = parentedItem{parent: parentImpl, item: it}
	t.implItemOrder = append(t.implItemOrder, it.Mapping.Ir)
}

// LookupImplItem returns the item and the IrID of the impl that owns it.
func (m *Mappings) LookupImplItem(crate ids.CrateNum, ir ids.IrID) (*hir.Item, ids.IrID, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, ids.UnknownIrID, false
	}
	e, ok := t.implItems[ir]
	return e.item, e.parent, ok
}

// LookupAssociatedImpl returns the impl block owning an impl item.
func (m *Mappings) LookupAssociatedImpl(crate ids.CrateNum, implItem ids.IrID) (*hir.Item, bool) {
	_, parent, ok := m.LookupImplItem(crate, implItem)
	if !ok {
		return nil, false
	}
	return m.LookupImplBlock(crate, parent)
}

func (m *Mappings) IterateImplItems(crate ids.CrateNum, fn func(ir ids.IrID, it, impl *hir.Item) bool) {
	t, ok := m.table(crate)
	if !ok {
		return
	}
	for _, ir := range t.implItemOrder {
		e := t.implItems[ir]
		if !fn(ir, e.item, t.implBlocks[e.parent]) {
			return
		}
	}
}

func (m *Mappings) InsertTraitItem(crate ids.CrateNum, trait ids.IrID, it *hir.Item) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertTraitItem")
	if _, ok := t.traitItems[it.Mapping.Ir]; ok {
		ice.Raise(component, "trait item %s registered twice", it.Mapping)
	}
	t.traitItems[it.Mapping.Ir] = parentedItem{parent: trait, item: it}
	t.traitOrder = append(t.traitOrder, it.Mapping.Ir)
}

func (m *Mappings) LookupTraitItem(crate ids.CrateNum, ir ids.IrID) (*hir.Item, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	e, ok := t.traitItems[ir]
	return e.item, ok
}

// LookupTraitItemOwner returns the trait declaring a trait item.
func (m *Mappings) LookupTraitItemOwner(crate ids.CrateNum, ir ids.IrID) (*hir.Item, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	e, ok := t.traitItems[ir]
	if !ok {
		return nil, false
	}
	trait, ok := t.items[e.parent]
	return trait, ok
}

func (m *Mappings) IterateTraitItems(crate ids.CrateNum, fn func(ir ids.IrID, it, trait *hir.Item) bool) {
	t, ok := m.table(crate)
	if !ok {
		return
	}
	for _, ir := range t.traitOrder {
		e := t.traitItems[ir]
		if !fn(ir, e.item, t.items[e.parent]) {
			return
		}
	}
}

// Generic params ------------------------------------------------------------

func (m *Mappings) InsertGenericParam(crate ids.CrateNum, p *hir.GenericParam) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertGenericParam")
	t.generics[p.Mapping.Ir] = p
}

func (m *Mappings) LookupGenericParam(crate ids.CrateNum, ir ids.IrID) (*hir.GenericParam, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	p, ok := t.generics[ir]
	return p, ok
}
