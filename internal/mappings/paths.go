package mappings

import (
	"slices"

	"oxbow/internal/ice"
	"oxbow/internal/ids"
)

// InsertCanonicalPath records node's canonical path. An equal path is a
// no-op. A competing path that is no shorter than the recorded one is
// ignored, so the first registration wins. A strictly shorter competing path
// means an earlier pass named the node inconsistently and is an internal
// error. The reverse index keeps the first node registered for a path.
func (m *Mappings) InsertCanonicalPath(crate ids.CrateNum, node ids.NodeID, path CanonicalPath) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertCanonicalPath")
	if prev, ok := t.paths[node]; ok {
		if prev.Equal(path) {
			return
		}
		if path.Size() < prev.Size() {
			ice.Raise(component, "node %d: path %q is shorter than recorded %q", node, path, prev)
		}
		return
	}
	t.paths[node] = path
	key := path.String()
	if _, taken := t.pathIndex[key]; !taken {
		t.pathIndex[key] = node
	}
}

func (m *Mappings) LookupCanonicalPath(crate ids.CrateNum, node ids.NodeID) (CanonicalPath, bool) {
	t, ok := m.table(crate)
	if !ok {
		return CanonicalPath{}, false
	}
	p, ok := t.paths[node]
	return p, ok
}

// LookupNodeByPath maps a rendered canonical path back to its node.
func (m *Mappings) LookupNodeByPath(crate ids.CrateNum, path string) (ids.NodeID, bool) {
	t, ok := m.table(crate)
	if !ok {
		return ids.UnknownNodeID, false
	}
	node, ok := t.pathIndex[path]
	return node, ok
}

// Lang items ----------------------------------------------------------------

// InsertLangItem returns false when the item is already bound.
func (m *Mappings) InsertLangItem(crate ids.CrateNum, item LangItem, def ids.DefID) bool {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertLangItem")
	if _, ok := t.langItems[item]; ok {
		return false
	}
	t.langItems[item] = def
	return true
}

func (m *Mappings) LookupLangItem(crate ids.CrateNum, item LangItem) (ids.DefID, bool) {
	t, ok := m.table(crate)
	if !ok {
		return ids.UnknownDefID, false
	}
	def, ok := t.langItems[item]
	return def, ok
}

// Macros --------------------------------------------------------------------

func (m *Mappings) InsertMacroDef(crate ids.CrateNum, def MacroDef) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertMacroDef")
	if _, ok := t.macros[def.Node]; ok {
		ice.Raise(component, "macro %q registered twice", def.Name)
	}
	t.macros[def.Node] = def
}

func (m *Mappings) LookupMacroDef(crate ids.CrateNum, node ids.NodeID) (MacroDef, bool) {
	t, ok := m.table(crate)
	if !ok {
		return MacroDef{}, false
	}
	def, ok := t.macros[node]
	return def, ok
}

// Module tree and visibility ------------------------------------------------

func (m *Mappings) InsertModuleChild(crate ids.CrateNum, module, child ids.NodeID) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertModuleChild")
	if slices.Contains(t.children[module], child) {
		return
	}
	t.children[module] = append(t.children[module], child)
}

// LookupModuleChildren returns the direct children in insertion order.
func (m *Mappings) LookupModuleChildren(crate ids.CrateNum, module ids.NodeID) ([]ids.NodeID, bool) {
	t, ok := m.table(crate)
	if !ok {
		return nil, false
	}
	c, ok := t.children[module]
	return c, ok
}

func (m *Mappings) InsertVisibility(crate ids.CrateNum, node ids.NodeID, vis Visibility) {
	t := m.mustTable(crate)
	t.mustBeOpen("InsertVisibility")
	t.vis[node] = vis
}

func (m *Mappings) LookupVisibility(crate ids.CrateNum, node ids.NodeID) (Visibility, bool) {
	t, ok := m.table(crate)
	if !ok {
		return Visibility{}, false
	}
	v, ok := t.vis[node]
	return v, ok
}

