package mappings

import (
	"slices"

	"oxbow/internal/ids"
)

// DefEntry describes one definition of a crate snapshot.
type DefEntry struct {
	Local uint32 `msgpack:"local" json:"local"`
	Ir    uint32 `msgpack:"ir" json:"ir"`
	Node  uint32 `msgpack:"node" json:"node"`
	Kind  string `msgpack:"kind" json:"kind"`
	Path  string `msgpack:"path" json:"path"`
	Vis   string `msgpack:"vis" json:"vis"`
}

type LangEntry struct {
	Name  string `msgpack:"name" json:"name"`
	Local uint32 `msgpack:"local" json:"local"`
}

type ModuleEntry struct {
	Node     uint32   `msgpack:"node" json:"node"`
	Children []uint32 `msgpack:"children" json:"children"`
}

// CrateSnapshot is a plain-data view of a crate's tables, suitable for
// serialisation once the crate is frozen.
type CrateSnapshot struct {
	Crate     uint32        `msgpack:"crate" json:"crate"`
	Name      string        `msgpack:"name" json:"name"`
	Nodes     uint32        `msgpack:"nodes" json:"nodes"`
	IrIDs     uint32        `msgpack:"ir_ids" json:"ir_ids"`
	LocalDefs uint32        `msgpack:"local_defs" json:"local_defs"`
	Defs      []DefEntry    `msgpack:"defs" json:"defs"`
	Lang      []LangEntry   `msgpack:"lang" json:"lang"`
	Macros    []string      `msgpack:"macros" json:"macros"`
	Modules   []ModuleEntry `msgpack:"modules" json:"modules"`
}

// Snapshot copies the crate's tables in a deterministic order.
func (m *Mappings) Snapshot(crate ids.CrateNum) (CrateSnapshot, bool) {
	t, ok := m.table(crate)
	if !ok {
		return CrateSnapshot{}, false
	}
	snap := CrateSnapshot{
		Crate:     uint32(crate),
		Name:      t.name,
		Nodes:     t.nextNode,
		IrIDs:     t.nextIr,
		LocalDefs: t.nextLocal,
	}
	for _, local := range t.defOrder {
		it := t.defs[local]
		e := DefEntry{
			Local: uint32(local),
			Ir:    uint32(it.Mapping.Ir),
			Node:  uint32(it.Mapping.Node),
			Kind:  it.Kind.String(),
		}
		if p, ok := t.paths[it.Mapping.Node]; ok {
			e.Path = p.String()
		}
		if v, ok := t.vis[it.Mapping.Node]; ok {
			e.Vis = v.String()
		}
		snap.Defs = append(snap.Defs, e)
	}
	for item := LangAdd; item <= LangUnit; item++ {
		if def, ok := t.langItems[item]; ok {
			snap.Lang = append(snap.Lang, LangEntry{Name: item.String(), Local: uint32(def.Local)})
		}
	}
	macroNodes := make([]ids.NodeID, 0, len(t.macros))
	for n := range t.macros {
		macroNodes = append(macroNodes, n)
	}
	slices.Sort(macroNodes)
	for _, n := range macroNodes {
		snap.Macros = append(snap.Macros, t.macros[n].Name)
	}
	mods := make([]ids.NodeID, 0, len(t.children))
	for n := range t.children {
		mods = append(mods, n)
	}
	slices.Sort(mods)
	for _, n := range mods {
		e := ModuleEntry{Node: uint32(n)}
		for _, c := range t.children[n] {
			e.Children = append(e.Children, uint32(c))
		}
		snap.Modules = append(snap.Modules, e)
	}
	return snap, true
}
