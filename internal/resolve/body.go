package resolve

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
)

func (r *Resolver) resolveExpr(id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	e := r.ast.Exprs.Get(id)
	exprs := r.ast.Exprs
	switch e.Kind {
	case ast.ExprLit:
	case ast.ExprPath:
		d, _ := exprs.Path(id)
		r.resolvePath(&d.Path, posValue)
	case ast.ExprQualPath:
		d, _ := exprs.QualPath(id)
		r.resolveQualified(&d.Qual)
	case ast.ExprCall:
		d, _ := exprs.Call(id)
		r.resolveExpr(d.Callee)
		r.resolveExprs(d.Args)
	case ast.ExprMethodCall:
		d, _ := exprs.MethodCall(id)
		r.resolveExpr(d.Receiver)
		for _, g := range d.Method.Generics {
			r.resolveType(g)
		}
		r.resolveExprs(d.Args)
	case ast.ExprBlock:
		r.resolveBlock(e)
	case ast.ExprAssign:
		d, _ := exprs.Assign(id)
		r.resolveExpr(d.Value)
		r.resolveAssignTarget(e, d.Target)
	case ast.ExprBinary:
		d, _ := exprs.Binary(id)
		r.resolveExpr(d.Left)
		r.resolveExpr(d.Right)
	case ast.ExprUnary:
		d, _ := exprs.Unary(id)
		r.resolveExpr(d.Operand)
	case ast.ExprIf:
		d, _ := exprs.If(id)
		r.resolveExpr(d.Cond)
		r.resolveExpr(d.Then)
		r.resolveExpr(d.Else)
	case ast.ExprLoop, ast.ExprWhile:
		d, _ := exprs.Loop(id)
		r.resolveLoop(e, d)
	case ast.ExprBreak, ast.ExprContinue:
		d, _ := exprs.Break(id)
		r.resolveBreak(e, d)
	case ast.ExprReturn:
		d, _ := exprs.Return(id)
		r.resolveExpr(d.Value)
	case ast.ExprMatch:
		d, _ := exprs.Match(id)
		r.resolveExpr(d.Scrutinee)
		for i := range d.Arms {
			arm := &d.Arms[i]
			// every arm gets a fresh rib
			r.names.Push(arm.Node)
			r.declarePattern(arm.Pat, arm.Node, bindingArm, true, make(map[string]ids.NodeID))
			r.resolveExpr(arm.Guard)
			r.resolveExpr(arm.Body)
			r.names.Pop()
		}
	case ast.ExprStruct:
		d, _ := exprs.Struct(id)
		r.resolvePath(&d.Path, posType)
		for i := range d.Fields {
			r.resolveExpr(d.Fields[i].Value)
		}
	case ast.ExprField:
		d, _ := exprs.Field(id)
		r.resolveExpr(d.Target)
	case ast.ExprTuple, ast.ExprArray:
		d, _ := exprs.List(id)
		r.resolveExprs(d.Elems)
	case ast.ExprRef:
		d, _ := exprs.Ref(id)
		r.resolveExpr(d.Operand)
	case ast.ExprMacroCall:
		d, _ := exprs.MacroCall(id)
		r.resolveMacro(&d.Path)
		r.resolveExprs(d.Args)
	}
}

func (r *Resolver) resolveExprs(list []ast.ExprID) {
	for _, id := range list {
		r.resolveExpr(id)
	}
}

// resolveBlock opens value and type ribs owned by the block. Items declared
// in the block are visible throughout it, so they are declared first.
func (r *Resolver) resolveBlock(e *ast.Expr) {
	d := r.ast.Exprs.Blocks.Get(uint32(e.Payload))
	r.names.Push(e.Node)
	r.types.Push(e.Node)
	for _, sid := range d.Stmts {
		if st := r.ast.Stmts.Get(sid); st.Kind == ast.StmtItem {
			r.declareItem(st.Item, r.curPath, ids.UnknownNodeID)
		}
	}
	for _, sid := range d.Stmts {
		r.resolveStmt(sid)
	}
	r.resolveExpr(d.Tail)
	r.types.Pop()
	r.names.Pop()
}

func (r *Resolver) resolveStmt(id ast.StmtID) {
	st := r.ast.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtLet:
		r.resolveType(st.Type)
		// the initialiser cannot see the bindings it introduces
		r.resolveExpr(st.Init)
		r.declarePatternInit(st.Pat, st.Node, st.Init.IsValid())
	case ast.StmtExpr:
		r.resolveExpr(st.Init)
	case ast.StmtItem:
		r.resolveItem(st.Item)
	}
}

func (r *Resolver) declarePatternInit(pat ast.PatID, parent ids.NodeID, initialised bool) {
	before := len(r.bindings)
	r.declarePattern(pat, parent, bindingLet, true, make(map[string]ids.NodeID))
	for _, b := range r.bindings[before:] {
		b.initialised = initialised
	}
}

// declarePattern introduces the bindings of a pattern into the innermost
// value rib. seen catches a name bound twice within one pattern; shadow
// decides whether an earlier binding in the same rib is replaced or reported.
func (r *Resolver) declarePattern(id ast.PatID, parent ids.NodeID, kind bindingKind, shadow bool, seen map[string]ids.NodeID) {
	if !id.IsValid() {
		return
	}
	p := r.ast.Pats.Get(id)
	switch p.Kind {
	case ast.PatIdent:
		name := r.name(p.Name)
		// a bare name that denotes a unit struct or const is a path pattern
		if def, rib, ok := lookupScope(r.names, name); ok && r.unitLike.Contains(def) && !p.Mut {
			rib.AppendReferenceForDef(def, p.Node)
			r.InsertResolvedName(p.Node, def)
			return
		}
		if prev, dup := seen[name]; dup {
			prevSpan, _ := r.names.Peek().DeclSpan(prev)
			r.errorf(diag.SemaDuplicateBinding, p.Span, fmt.Sprintf("identifier `%s` is bound more than once in the same pattern", name)).
				WithNote(prevSpan, "first binding here").
				Emit()
			return
		}
		seen[name] = p.Node
		rib := r.names.Peek()
		r.names.Insert(mappings.NewSegment(p.Node, name), p.Node, p.Span, shadow, r.duplicateBinding(name, p.Span))
		r.InsertNewDefinition(p.Node, Definition{Node: p.Node, Parent: parent})
		r.MarkDeclMutability(p.Node, p.Mut)
		r.addBinding(rib, p.Node, name, p.Span, kind, kind != bindingLet)
	case ast.PatWild:
	case ast.PatLit:
		r.resolveExpr(p.Lit)
	case ast.PatTuple, ast.PatRef:
		for _, el := range p.Elems {
			r.declarePattern(el, parent, kind, shadow, seen)
		}
	case ast.PatTupleStruct:
		r.resolvePath(&p.Path, posValue)
		for _, el := range p.Elems {
			r.declarePattern(el, parent, kind, shadow, seen)
		}
	case ast.PatStruct:
		r.resolvePath(&p.Path, posType)
		for i := range p.Fields {
			r.declarePattern(p.Fields[i].Pat, parent, kind, shadow, seen)
		}
	case ast.PatPath:
		r.resolvePath(&p.Path, posValue)
	}
}

func (r *Resolver) resolveLoop(e *ast.Expr, d *ast.ExprLoopData) {
	if d.Label.IsSet() {
		name := r.name(d.Label.Name)
		r.labels.Push(e.Node)
		r.labels.Insert(mappings.NewSegment(d.Label.Node, name), d.Label.Node, d.Label.Span, false, r.duplicateItem(name, d.Label.Span))
		r.InsertNewDefinition(d.Label.Node, Definition{Node: d.Label.Node, Parent: e.Node})
	}
	r.resolveExpr(d.Cond)
	r.loopDepth++
	r.resolveExpr(d.Body)
	r.loopDepth--
	if d.Label.IsSet() {
		r.labels.Pop()
	}
}

func (r *Resolver) resolveBreak(e *ast.Expr, d *ast.ExprBreakData) {
	keyword := "break"
	if e.Kind == ast.ExprContinue {
		keyword = "continue"
	}
	if r.loopDepth == 0 {
		r.errorf(diag.SemaBreakOutsideLoop, e.Span, fmt.Sprintf("`%s` outside of a loop", keyword)).Emit()
	}
	if d.Label.IsSet() {
		name := r.name(d.Label.Name)
		def, rib, ok := lookupScope(r.labels, name)
		if !ok {
			r.unresolved.Insert(d.Label.Node)
			r.errorf(diag.SemaUnresolvedLabel, d.Label.Span, fmt.Sprintf("use of undeclared label `%s`", name)).Emit()
		} else {
			rib.AppendReferenceForDef(def, d.Label.Node)
			r.InsertResolvedLabel(d.Label.Node, def)
		}
	}
	r.resolveExpr(d.Value)
}

// resolveAssignTarget resolves the left-hand side of an assignment. A plain
// local name is a write, not a read, so no reference is recorded for it.
func (r *Resolver) resolveAssignTarget(assign *ast.Expr, target ast.ExprID) {
	p, ok := r.ast.Exprs.Path(target)
	if !ok || p.Path.Len() != 1 || p.Path.Segments[0].Kind != ast.SegIdent {
		r.resolveExpr(target)
		return
	}
	seg := &p.Path.Segments[0]
	name := r.name(seg.Name)
	def, _, found := lookupScope(r.names, name)
	b, local := r.bindingIndex[def]
	if !found || !local {
		r.resolveExpr(target)
		return
	}
	r.InsertResolvedName(seg.Node, def)
	if !r.DeclIsMutable(def) && (b.initialised || r.NumAssignmentsToDecl(def) > 0) {
		r.errorf(diag.SemaAssignImmutable, assign.Span, fmt.Sprintf("cannot assign twice to immutable variable `%s`", name)).
			WithNote(b.span, fmt.Sprintf("first assignment to `%s`", name)).
			Emit()
	}
	b.initialised = true
	r.MarkAssignmentToDecl(def, assign.Node)
}

func (r *Resolver) resolveMacro(p *ast.Path) {
	last := p.Last()
	if last == nil {
		return
	}
	name := r.name(last.Name)
	var (
		def ids.NodeID
		rib *Rib
		ok  bool
	)
	if p.Len() > 1 {
		prefix := ast.Path{Segments: p.Segments[:p.Len()-1], Span: p.Span}
		module, resolved := r.resolvePath(&prefix, posType)
		if !resolved {
			// the prefix was already reported
			r.unresolved.Insert(last.Node)
			return
		}
		if r.IsModule(module) {
			def, rib, ok = r.lookupInModule(module, NSMacro, name)
		}
	} else {
		def, rib, ok = lookupScope(r.macros, name)
	}
	if !ok {
		r.unresolved.Insert(last.Node)
		r.errorf(diag.SemaUnresolvedName, last.Span, fmt.Sprintf("cannot find macro `%s` in this scope", name)).Emit()
		return
	}
	rib.AppendReferenceForDef(def, last.Node)
	r.InsertResolvedMacro(last.Node, def)
}
