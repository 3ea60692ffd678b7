package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

type TypeKind uint8

const (
	TypePath TypeKind = iota
	TypeQualPath
	TypeTuple // the empty tuple is the unit type
	TypeRef
	TypeArray
	TypeInfer
	TypeNever
)

// TypeExpr is a syntactic type.
type TypeExpr struct {
	Node ids.NodeID
	Kind TypeKind
	Span source.Span

	Path  Path          // TypePath
	Qual  QualifiedPath // TypeQualPath
	Elems []TypeID      // TypeTuple; TypeRef and TypeArray use Elems[0]
	Mut   bool          // TypeRef
	Len   ExprID        // TypeArray
}

type Types struct {
	Arena *Arena[TypeExpr]
}

func NewTypes(capHint uint) *Types {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Types{Arena: NewArena[TypeExpr](capHint)}
}

func (t *Types) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}

// Elem returns the pointee of a reference or the element of an array.
func (t *TypeExpr) Elem() TypeID {
	if len(t.Elems) == 0 {
		return NoTypeID
	}
	return t.Elems[0]
}
