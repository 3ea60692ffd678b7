package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtExpr
	StmtItem
)

type Stmt struct {
	Node ids.NodeID
	Kind StmtKind
	Span source.Span

	// let
	Pat  PatID
	Type TypeID
	Init ExprID
	// expression statement; Init is reused for the expression
	Semi bool
	// nested item
	Item ItemID
}

type Stmts struct {
	Arena *Arena[Stmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Stmts{Arena: NewArena[Stmt](capHint)}
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}
