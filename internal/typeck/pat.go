package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/source"
	"oxbow/internal/types"
)

// checkPat checks a pattern against the type of the value it matches and
// records the type of every binding it introduces.
func (c *Context) checkPat(id ast.PatID, expected types.TypeID) {
	if !id.IsValid() {
		return
	}
	p := c.ast.Pats.Get(id)
	ir := c.irOf(p.Node)
	c.record(ir, expected)
	switch p.Kind {
	case ast.PatIdent:
		def, ok := c.res.LookupResolvedName(p.Node)
		if !ok {
			c.locals[p.Node] = true
			return
		}
		// a unit struct or const named without a path
		seg := &ast.PathSegment{Node: p.Node, Name: p.Name, Span: p.Span}
		t, _, ok := c.typeOfValueDef(def, seg)
		if !ok {
			return
		}
		c.resolvedNodes[ir] = def
		c.unify(p.Span, expected, c.instantiateFresh(t))
	case ast.PatWild:
	case ast.PatLit:
		c.unify(p.Span, expected, c.checkExpr(p.Lit))
	case ast.PatTuple:
		elems := c.tupleElems(expected, len(p.Elems), p.Span)
		for i, el := range p.Elems {
			c.checkPat(el, elems[i])
		}
	case ast.PatRef:
		inner := c.types.NewVar(types.InferGeneral)
		c.unify(p.Span, expected, c.types.Intern(types.MakeReference(inner, p.Mut)))
		for _, el := range p.Elems {
			c.checkPat(el, inner)
		}
	case ast.PatTupleStruct:
		c.checkTupleStructPat(p, expected)
	case ast.PatStruct:
		c.checkStructPat(p, expected)
	case ast.PatPath:
		t := c.resolveValuePath(&p.Path, ir)
		if _, isFn := c.types.FnInfo(t); isFn {
			c.errorf(diag.SemaTypeMismatch, p.Span,
				fmt.Sprintf("expected unit struct, unit variant or constant, found `%s`", c.ast.PathString(&p.Path))).Emit()
			return
		}
		c.unify(p.Span, expected, t)
	}
}

// tupleElems returns the element types of expected viewed as an n-tuple.
func (c *Context) tupleElems(expected types.TypeID, n int, span source.Span) []types.TypeID {
	if info, ok := c.types.TupleInfo(c.types.Resolve(expected)); ok && len(info.Elems) == n {
		return info.Elems
	}
	elems := make([]types.TypeID, n)
	for i := range elems {
		elems[i] = c.types.NewVar(types.InferGeneral)
	}
	c.unify(span, expected, c.types.RegisterTuple(elems))
	return elems
}

func (c *Context) checkTupleStructPat(p *ast.Pat, expected types.TypeID) {
	ir := c.irOf(p.Node)
	adt, v, ok := c.resolveAdtPath(&p.Path, ir)
	if ok && v.Kind != types.VariantTuple {
		c.errorf(diag.SemaTypeMismatch, p.Span,
			fmt.Sprintf("expected tuple struct or tuple variant, found `%s`", c.ast.PathString(&p.Path))).Emit()
		ok = false
	}
	if !ok {
		for _, el := range p.Elems {
			c.checkPat(el, c.errType())
		}
		return
	}
	c.unify(p.Span, expected, adt)
	if len(p.Elems) != len(v.Fields) {
		c.errorf(diag.SemaTypeMismatch, p.Span,
			fmt.Sprintf("this pattern has %d fields, but `%s` has %d fields", len(p.Elems), v.Name, len(v.Fields))).Emit()
	}
	for i, el := range p.Elems {
		t := c.errType()
		if i < len(v.Fields) {
			t = c.types.FieldType(adt, v, i)
		}
		c.checkPat(el, t)
	}
}

func (c *Context) checkStructPat(p *ast.Pat, expected types.TypeID) {
	ir := c.irOf(p.Node)
	adt, v, ok := c.resolveAdtPath(&p.Path, ir)
	if !ok {
		for i := range p.Fields {
			c.checkPat(p.Fields[i].Pat, c.errType())
		}
		return
	}
	c.unify(p.Span, expected, adt)
	for i := range p.Fields {
		f := &p.Fields[i]
		name := c.name(f.Name)
		idx, ok := c.fieldIndex(v, name)
		if !ok {
			c.errorf(diag.SemaUnknownField, f.Span, fmt.Sprintf("`%s` does not have a field named `%s`", v.Name, name)).Emit()
			c.checkPat(f.Pat, c.errType())
			continue
		}
		c.checkPat(f.Pat, c.types.FieldType(adt, v, idx))
	}
}
