package typeck

import (
	"oxbow/internal/ast"
	"oxbow/internal/types"
)

// checkStmt types one statement and reports whether it diverges.
func (c *Context) checkStmt(id ast.StmtID) bool {
	st := c.ast.Stmts.Get(id)
	unit := c.types.Builtins().Unit
	switch st.Kind {
	case ast.StmtLet:
		var declared types.TypeID
		if st.Type.IsValid() {
			declared = c.resolveTypeExpr(st.Type)
		} else {
			declared = c.types.NewVar(types.InferGeneral)
		}
		diverges := false
		if st.Init.IsValid() {
			init := c.checkExpr(st.Init)
			diverges = c.isNever(init)
			c.unify(c.ast.Exprs.Get(st.Init).Span, declared, init)
		}
		c.checkPat(st.Pat, declared)
		if p := c.ast.Pats.Get(st.Pat); p != nil {
			c.letBindings = append(c.letBindings, c.irOf(p.Node))
		}
		c.record(c.irOf(st.Node), unit)
		return diverges
	case ast.StmtExpr:
		t := c.checkExpr(st.Init)
		if c.isNever(t) {
			c.record(c.irOf(st.Node), unit)
			return true
		}
		if !st.Semi {
			c.unify(c.ast.Exprs.Get(st.Init).Span, unit, t)
		}
		c.record(c.irOf(st.Node), unit)
	case ast.StmtItem:
		// nested items are checked as items of their own
	}
	return false
}
