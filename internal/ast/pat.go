package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

type PatKind uint8

const (
	PatIdent PatKind = iota
	PatWild
	PatLit
	PatTuple
	PatTupleStruct
	PatStruct
	PatPath
	PatRef
)

func (k PatKind) String() string {
	switch k {
	case PatIdent:
		return "binding"
	case PatWild:
		return "wildcard"
	case PatLit:
		return "literal"
	case PatTuple:
		return "tuple"
	case PatTupleStruct:
		return "tuple struct"
	case PatStruct:
		return "struct"
	case PatPath:
		return "path"
	case PatRef:
		return "reference"
	}
	return "pattern"
}

type Pat struct {
	Node ids.NodeID
	Kind PatKind
	Span source.Span

	Name   source.StringID // PatIdent
	Mut    bool            // PatIdent, PatRef
	Lit    ExprID          // PatLit
	Path   Path            // PatTupleStruct, PatStruct, PatPath
	Elems  []PatID         // PatTuple, PatTupleStruct, PatRef (single element)
	Fields []PatField      // PatStruct
}

type PatField struct {
	Node ids.NodeID
	Name source.StringID
	Pat  PatID
	Span source.Span
}

type Pats struct {
	Arena *Arena[Pat]
}

func NewPats(capHint uint) *Pats {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Pats{Arena: NewArena[Pat](capHint)}
}

func (p *Pats) Get(id PatID) *Pat {
	return p.Arena.Get(uint32(id))
}
