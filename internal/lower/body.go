package lower

import (
	"oxbow/internal/ast"
	"oxbow/internal/hir"
)

// lowerExpr assigns IrIDs to an expression tree. Items nested in blocks are
// lowered as free items of the enclosing module.
func (l *lowerer) lowerExpr(id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	e := l.ast.Exprs.Get(id)
	l.mapping(e.Node, e.Span, false)

	exprs := l.ast.Exprs
	switch e.Kind {
	case ast.ExprLit:
	case ast.ExprPath:
		d, _ := exprs.Path(id)
		l.lowerPathArgs(&d.Path)
	case ast.ExprQualPath:
		d, _ := exprs.QualPath(id)
		l.lowerQualified(&d.Qual)
	case ast.ExprCall:
		d, _ := exprs.Call(id)
		l.lowerExpr(d.Callee)
		l.lowerExprs(d.Args)
	case ast.ExprMethodCall:
		d, _ := exprs.MethodCall(id)
		l.lowerExpr(d.Receiver)
		l.lowerGenericArgs(d.Method.Generics)
		l.lowerExprs(d.Args)
	case ast.ExprBlock:
		d, _ := exprs.Block(id)
		for _, sid := range d.Stmts {
			l.lowerStmt(sid)
		}
		l.lowerExpr(d.Tail)
	case ast.ExprAssign:
		d, _ := exprs.Assign(id)
		l.lowerExpr(d.Target)
		l.lowerExpr(d.Value)
	case ast.ExprBinary:
		d, _ := exprs.Binary(id)
		l.lowerExpr(d.Left)
		l.lowerExpr(d.Right)
	case ast.ExprUnary:
		d, _ := exprs.Unary(id)
		l.lowerExpr(d.Operand)
	case ast.ExprIf:
		d, _ := exprs.If(id)
		l.lowerExpr(d.Cond)
		l.lowerExpr(d.Then)
		l.lowerExpr(d.Else)
	case ast.ExprLoop, ast.ExprWhile:
		d, _ := exprs.Loop(id)
		l.lowerExpr(d.Cond)
		l.lowerExpr(d.Body)
	case ast.ExprBreak, ast.ExprContinue:
		d, _ := exprs.Break(id)
		l.lowerExpr(d.Value)
	case ast.ExprReturn:
		d, _ := exprs.Return(id)
		l.lowerExpr(d.Value)
	case ast.ExprMatch:
		d, _ := exprs.Match(id)
		l.lowerExpr(d.Scrutinee)
		for i := range d.Arms {
			l.lowerPat(d.Arms[i].Pat)
			l.lowerExpr(d.Arms[i].Guard)
			l.lowerExpr(d.Arms[i].Body)
		}
	case ast.ExprStruct:
		d, _ := exprs.Struct(id)
		l.lowerPathArgs(&d.Path)
		for i := range d.Fields {
			l.lowerExpr(d.Fields[i].Value)
		}
	case ast.ExprField:
		d, _ := exprs.Field(id)
		l.lowerExpr(d.Target)
	case ast.ExprTuple, ast.ExprArray:
		d, _ := exprs.List(id)
		l.lowerExprs(d.Elems)
	case ast.ExprRef:
		d, _ := exprs.Ref(id)
		l.lowerExpr(d.Operand)
	case ast.ExprMacroCall:
		d, _ := exprs.MacroCall(id)
		l.lowerExprs(d.Args)
	}
}

func (l *lowerer) lowerExprs(list []ast.ExprID) {
	for _, id := range list {
		l.lowerExpr(id)
	}
}

func (l *lowerer) lowerStmt(id ast.StmtID) {
	st := l.ast.Stmts.Get(id)
	l.mapping(st.Node, st.Span, false)
	switch st.Kind {
	case ast.StmtLet:
		l.lowerType(st.Type)
		l.lowerExpr(st.Init)
		l.lowerPat(st.Pat)
	case ast.StmtExpr:
		l.lowerExpr(st.Init)
	case ast.StmtItem:
		l.lowerItem(st.Item, l.module, hir.OwnerFree)
	}
}

func (l *lowerer) lowerPat(id ast.PatID) {
	if !id.IsValid() {
		return
	}
	p := l.ast.Pats.Get(id)
	l.mapping(p.Node, p.Span, false)
	switch p.Kind {
	case ast.PatIdent, ast.PatWild:
	case ast.PatLit:
		l.lowerExpr(p.Lit)
	case ast.PatTuple, ast.PatRef:
		for _, el := range p.Elems {
			l.lowerPat(el)
		}
	case ast.PatTupleStruct:
		l.lowerPathArgs(&p.Path)
		for _, el := range p.Elems {
			l.lowerPat(el)
		}
	case ast.PatStruct:
		l.lowerPathArgs(&p.Path)
		for i := range p.Fields {
			l.lowerPat(p.Fields[i].Pat)
		}
	case ast.PatPath:
		l.lowerPathArgs(&p.Path)
	}
}

func (l *lowerer) lowerType(id ast.TypeID) {
	if !id.IsValid() {
		return
	}
	t := l.ast.Types.Get(id)
	l.mapping(t.Node, t.Span, false)
	switch t.Kind {
	case ast.TypePath:
		l.lowerPathArgs(&t.Path)
	case ast.TypeQualPath:
		l.lowerQualified(&t.Qual)
	case ast.TypeTuple, ast.TypeRef:
		for _, e := range t.Elems {
			l.lowerType(e)
		}
	case ast.TypeArray:
		for _, e := range t.Elems {
			l.lowerType(e)
		}
		l.lowerExpr(t.Len)
	case ast.TypeInfer, ast.TypeNever:
	}
}

func (l *lowerer) lowerQualified(q *ast.QualifiedPath) {
	l.lowerType(q.Self)
	if q.Trait != nil {
		l.lowerPathArgs(q.Trait)
	}
	for i := range q.Segments {
		l.lowerGenericArgs(q.Segments[i].Generics)
	}
}

// lowerPathArgs lowers the generic arguments of a path. The segments
// themselves stay unlowered.
func (l *lowerer) lowerPathArgs(p *ast.Path) {
	for i := range p.Segments {
		l.lowerGenericArgs(p.Segments[i].Generics)
	}
}

func (l *lowerer) lowerGenericArgs(args []ast.TypeID) {
	for _, t := range args {
		l.lowerType(t)
	}
}
