// Package ids defines the identifier spaces shared by every resolution pass.
//
// Four spaces exist per compilation unit: CrateNum names the unit itself,
// NodeID is assigned to syntax-tree nodes at parse time, IrID is assigned when
// a node is lowered into the typed IR, and LocalDefID numbers definitions.
// A DefID pairs a crate with a LocalDefID and is unique program-wide.
package ids

import "fmt"

type (
	// CrateNum identifies one compilation unit.
	CrateNum uint32
	// NodeID identifies a syntax-tree node within a crate.
	NodeID uint32
	// IrID identifies a typed-IR node within a crate.
	IrID uint32
	// LocalDefID identifies a definition within a crate.
	LocalDefID uint32
)

const (
	UnknownCrateNum   CrateNum   = 0
	UnknownNodeID     NodeID     = 0
	UnknownIrID       IrID       = 0
	UnknownLocalDefID LocalDefID = 0
)

func (id CrateNum) IsValid() bool   { return id != UnknownCrateNum }
func (id NodeID) IsValid() bool     { return id != UnknownNodeID }
func (id IrID) IsValid() bool       { return id != UnknownIrID }
func (id LocalDefID) IsValid() bool { return id != UnknownLocalDefID }

// DefID identifies a definition across every crate of a program.
type DefID struct {
	Crate CrateNum
	Local LocalDefID
}

// UnknownDefID marks the absence of a definition.
var UnknownDefID = DefID{}

// IsValid reports whether both halves of the id are assigned.
func (d DefID) IsValid() bool { return d.Crate.IsValid() && d.Local.IsValid() }

func (d DefID) String() string {
	return fmt.Sprintf("%d:%d", d.Crate, d.Local)
}

// NodeMapping bundles the identifiers of one lowered node.
type NodeMapping struct {
	Crate    CrateNum
	Node     NodeID
	Ir       IrID
	LocalDef LocalDefID
}

// ErrorMapping returns the mapping used for error placeholders.
func ErrorMapping() NodeMapping {
	return NodeMapping{}
}

// DefID derives the global definition id for the mapping.
func (m NodeMapping) DefID() DefID {
	return DefID{Crate: m.Crate, Local: m.LocalDef}
}

// IsError reports whether the mapping is the error placeholder.
func (m NodeMapping) IsError() bool {
	return m == NodeMapping{}
}

func (m NodeMapping) String() string {
	return fmt.Sprintf("[C:%d Nid:%d Hid:%d Lid:%d]", m.Crate, m.Node, m.Ir, m.LocalDef)
}
