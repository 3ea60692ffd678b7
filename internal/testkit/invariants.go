// Package testkit holds checks shared by tests of several packages.
package testkit

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"oxbow/internal/hir"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
)

// CheckRegistry verifies the identity tables of a checked crate:
//   - every definition's NodeId and IrId map to each other both ways
//   - LocalDefIds, IrIds and NodeIds of definitions are unique and within
//     the crate's counters
//   - every canonical path resolves back to a node that carries that path
//   - lang items point at recorded definitions
func CheckRegistry(m *mappings.Mappings, crate ids.CrateNum) error {
	snap, ok := m.Snapshot(crate)
	if !ok {
		return fmt.Errorf("crate %d is not registered", crate)
	}
	var errs []error
	locals := set.New[uint32](len(snap.Defs))
	irs := set.New[uint32](len(snap.Defs))
	nodes := set.New[uint32](len(snap.Defs))

	m.WalkLocalDefIDs(crate, func(local ids.LocalDefID, it *hir.Item) bool {
		mp := it.Mapping
		if mp.LocalDef != local {
			errs = append(errs, fmt.Errorf("local def %d stored under %d", mp.LocalDef, local))
		}
		if mp.Crate != crate {
			errs = append(errs, fmt.Errorf("local def %d belongs to crate %d", local, mp.Crate))
		}
		if ir, ok := m.LookupNodeToIr(crate, mp.Node); !ok || ir != mp.Ir {
			errs = append(errs, fmt.Errorf("node %d maps to ir %d (ok=%v), item has %d", mp.Node, ir, ok, mp.Ir))
		}
		if node, ok := m.LookupIrToNode(crate, mp.Ir); !ok || node != mp.Node {
			errs = append(errs, fmt.Errorf("ir %d maps to node %d (ok=%v), item has %d", mp.Ir, node, ok, mp.Node))
		}
		if !locals.Insert(uint32(local)) {
			errs = append(errs, fmt.Errorf("local def %d seen twice", local))
		}
		if !irs.Insert(uint32(mp.Ir)) {
			errs = append(errs, fmt.Errorf("ir %d shared by two definitions", mp.Ir))
		}
		if !nodes.Insert(uint32(mp.Node)) {
			errs = append(errs, fmt.Errorf("node %d shared by two definitions", mp.Node))
		}
		// counters hold the last id handed out
		if local == 0 || uint32(local) > snap.LocalDefs || uint32(mp.Ir) > snap.IrIDs || uint32(mp.Node) > snap.Nodes {
			errs = append(errs, fmt.Errorf("definition %s is outside the crate counters", mp))
		}
		return true
	})

	for _, d := range snap.Defs {
		if d.Path == "" {
			continue
		}
		node, ok := m.LookupNodeByPath(crate, d.Path)
		if !ok {
			errs = append(errs, fmt.Errorf("path %q has no reverse entry", d.Path))
			continue
		}
		if p, ok := m.LookupCanonicalPath(crate, node); !ok || p.String() != d.Path {
			errs = append(errs, fmt.Errorf("path %q resolves to node %d named %q", d.Path, node, p))
		}
	}
	for _, l := range snap.Lang {
		if !locals.Contains(l.Local) {
			errs = append(errs, fmt.Errorf("lang item %s points at unknown local def %d", l.Name, l.Local))
		}
	}
	return errors.Join(errs...)
}
