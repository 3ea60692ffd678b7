// Package mappings is the identity registry: per-crate tables relating
// NodeIDs, IrIDs and LocalDefIDs to each other and to the declarations,
// canonical paths, locations and metadata recorded for them.
//
// A *Mappings is an explicit context passed to every pass. Tables of one
// crate are mutated only by the goroutine resolving that crate; once frozen
// they are read-only and may be shared freely. Lookups never panic; broken
// invariants on insertion raise ice errors.
package mappings

import (
	"slices"
	"sync"

	"github.com/hashicorp/go-set/v3"

	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

const component = "mappings"

type parentedItem struct {
	parent ids.IrID
	item   *hir.Item
}

// MacroDef records a macro_rules! definition.
type MacroDef struct {
	Node ids.NodeID
	Name string
	Span source.Span
}

type crateTables struct {
	num    ids.CrateNum
	name   string
	frozen bool

	nextNode  uint32
	nextIr    uint32
	nextLocal uint32

	nodeToIr map[ids.NodeID]ids.IrID
	irToNode map[ids.IrID]ids.NodeID
	irIDs    *set.Set[ids.IrID]

	items         map[ids.IrID]*hir.Item
	defs          map[ids.LocalDefID]*hir.Item
	defOrder      []ids.LocalDefID
	modules       map[ids.IrID]*hir.Item
	implBlocks    map[ids.IrID]*hir.Item
	implOrder     []ids.IrID
	implItems     map[ids.IrID]parentedItem
	implItemOrder []ids.IrID
	traitItems    map[ids.IrID]parentedItem
	traitOrder    []ids.IrID
	generics      map[ids.IrID]*hir.GenericParam
	hirCrate      *hir.Crate

	paths     map[ids.NodeID]CanonicalPath
	pathIndex map[string]ids.NodeID
	locations map[ids.IrID]source.Span
	langItems map[LangItem]ids.DefID
	macros    map[ids.NodeID]MacroDef
	children  map[ids.NodeID][]ids.NodeID
	vis       map[ids.NodeID]Visibility
}

func newCrateTables(num ids.CrateNum, name string) *crateTables {
	return &crateTables{
		num:        num,
		name:       name,
		nodeToIr:   make(map[ids.NodeID]ids.IrID),
		irToNode:   make(map[ids.IrID]ids.NodeID),
		irIDs:      set.New[ids.IrID](64),
		items:      make(map[ids.IrID]*hir.Item),
		defs:       make(map[ids.LocalDefID]*hir.Item),
		modules:    make(map[ids.IrID]*hir.Item),
		implBlocks: make(map[ids.IrID]*hir.Item),
		implItems:  make(map[ids.IrID]parentedItem),
		traitItems: make(map[ids.IrID]parentedItem),
		generics:   make(map[ids.IrID]*hir.GenericParam),
		paths:      make(map[ids.NodeID]CanonicalPath),
		pathIndex:  make(map[string]ids.NodeID),
		locations:  make(map[ids.IrID]source.Span),
		langItems:  make(map[LangItem]ids.DefID),
		macros:     make(map[ids.NodeID]MacroDef),
		children:   make(map[ids.NodeID][]ids.NodeID),
		vis:        make(map[ids.NodeID]Visibility),
	}
}

func (t *crateTables) mustBeOpen(op string) {
	if t.frozen {
		ice.Raise(component, "%s on frozen crate %d (%s)", op, t.num, t.name)
	}
}

// Mappings holds the tables of every crate in a session.
type Mappings struct {
	mu        sync.RWMutex
	crates    map[ids.CrateNum]*crateTables
	order     []ids.CrateNum
	nextCrate uint32
}

func New() *Mappings {
	return &Mappings{crates: make(map[ids.CrateNum]*crateTables)}
}

// NewCrate registers a compilation unit and returns its number.
func (m *Mappings) NewCrate(name string) ids.CrateNum {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCrate++
	num := ids.CrateNum(m.nextCrate)
	m.crates[num] = newCrateTables(num, name)
	m.order = append(m.order, num)
	return num
}

func (m *Mappings) table(crate ids.CrateNum) (*crateTables, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.crates[crate]
	return t, ok
}

func (m *Mappings) mustTable(crate ids.CrateNum) *crateTables {
	t, ok := m.table(crate)
	if !ok {
		ice.Raise(component, "unknown crate %d", crate)
	}
	return t
}

func (m *Mappings) CrateName(crate ids.CrateNum) (string, bool) {
	t, ok := m.table(crate)
	if !ok {
		return "", false
	}
	return t.name, true
}

// LookupCrateName finds a crate by name.
func (m *Mappings) LookupCrateName(name string) (ids.CrateNum, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, num := range m.order {
		if m.crates[num].name == name {
			return num, true
		}
	}
	return ids.UnknownCrateNum, false
}

// Crates returns crate numbers in registration order.
func (m *Mappings) Crates() []ids.CrateNum {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// Freeze makes the crate's tables read-only.
func (m *Mappings) Freeze(crate ids.CrateNum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.crates[crate]; ok {
		t.frozen = true
	}
}

func (m *Mappings) IsFrozen(crate ids.CrateNum) bool {
	t, ok := m.table(crate)
	return ok && t.frozen
}

// Counters ------------------------------------------------------------------

// NextNodeID implements ast.NodeAllocator.
func (m *Mappings) NextNodeID(crate ids.CrateNum) ids.NodeID {
	t := m.mustTable(crate)
	t.mustBeOpen("NextNodeID")
	t.nextNode++
	return ids.NodeID(t.nextNode)
}

func (m *Mappings) NextIrID(crate ids.CrateNum) ids.IrID {
	t := m.mustTable(crate)
	t.mustBeOpen("NextIrID")
	t.nextIr++
	return ids.IrID(t.nextIr)
}

func (m *Mappings) NextLocalDefID(crate ids.CrateNum) ids.LocalDefID {
	t := m.mustTable(crate)
	t.mustBeOpen("NextLocalDefID")
	t.nextLocal++
	return ids.LocalDefID(t.nextLocal)
}

// NewMapping allocates an IrID (and a LocalDefID when def is set) for node
// and records the NodeID<->IrID pair.
func (m *Mappings) NewMapping(crate ids.CrateNum, node ids.NodeID, def bool) ids.NodeMapping {
	mp := ids.NodeMapping{Crate: crate, Node: node, Ir: m.NextIrID(crate)}
	if def {
		mp.LocalDef = m.NextLocalDefID(crate)
	}
	m.InsertNodeToIr(crate, node, mp.Ir)
	return mp
}

// Node <-> IR ---------------------------------------------------------------

// InsertNodeToIr records both directions. Re-pairing either id with a
// different partner is an internal error.
func (m *Mappings) InsertNodeToIr(crate ids.CrateNum, node ids.NodeID, ir ids.IrID) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertNodeToIr")
	if !node.IsValid() || !ir.IsValid() {
		ice.Raise(component, "invalid node/ir pair %d/%d", node, ir)
	}
	if prev, ok := t.nodeToIr[node]; ok && prev != ir {
		ice.Raise(component, "node %d already lowered to %d, not %d", node, prev, ir)
	}
	if prev, ok := t.irToNode[ir]; ok && prev != node {
		ice.Raise(component, "ir %d already owned by node %d, not %d", ir, prev, node)
	}
	t.nodeToIr[node] = ir
	t.irToNode[ir] = node
	t.irIDs.Insert(ir)
}

func (m *Mappings) LookupNodeToIr(crate ids.CrateNum, node ids.NodeID) (ids.IrID, bool) {
	t, ok := m.table(crate)
	if !ok {
		return ids.UnknownIrID, false
	}
	ir, ok := t.nodeToIr[node]
	return ir, ok
}

func (m *Mappings) LookupIrToNode(crate ids.CrateNum, ir ids.IrID) (ids.NodeID, bool) {
	t, ok := m.table(crate)
	if !ok {
		return ids.UnknownNodeID, false
	}
	node, ok := t.irToNode[ir]
	return node, ok
}

// IrIDsWithinCrate returns every IrID of the crate in ascending order.
func (m *Mappings) IrIDsWithinCrate(crate ids.CrateNum) []ids.IrID {
	t, ok := m.table(crate)
	if !ok {
		return nil
	}
	out := t.irIDs.Slice()
	slices.Sort(out)
	return out
}

// Locations -----------------------------------------------------------------

func (m *Mappings) InsertLocation(crate ids.CrateNum, ir ids.IrID, span source.Span) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertLocation")
	t.locations[ir] = span
}

func (m *Mappings) LookupLocation(crate ids.CrateNum, ir ids.IrID) (source.Span, bool) {
	t, ok := m.table(crate)
	if !ok {
		return source.NoSpan, false
	}
	sp, ok := t.locations[ir]
	return sp, ok
}

// LookupNodeLocation resolves a node's span through its IrID.
func (m *Mappings) LookupNodeLocation(crate ids.CrateNum, node ids.NodeID) (source.Span, bool) {
	ir, ok := m.LookupNodeToIr(crate, node)
	if !ok {
		return source.NoSpan, false
	}
	return m.LookupLocation(crate, ir)
}
