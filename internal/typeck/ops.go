package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/types"
)

func (c *Context) checkBinary(e *ast.Expr, d *ast.ExprBinaryData, ir ids.IrID) types.TypeID {
	spec, ok := types.BinarySpecFor(d.Op)
	if !ok {
		ice.Raise("typeck", "no operator table entry for `%s`", d.Op)
	}
	left := c.checkExpr(d.Left)
	right := c.checkExpr(d.Right)
	failed := c.errType()
	if spec.Result == types.BinaryResultBool {
		failed = c.types.Builtins().Bool
	}
	if c.types.IsError(c.types.Resolve(left)) || c.types.IsError(c.types.Resolve(right)) {
		return failed
	}
	if spec.Flags&types.BinaryFlagShortCircuit == 0 && spec.Lang != mappings.LangNone && c.isNominal(left) {
		return c.overloadedBinary(e, d, spec, left, right, ir)
	}
	if c.types.FamilyOf(left)&spec.Left == 0 || c.types.FamilyOf(right)&spec.Right == 0 {
		c.invalidBinary(e, d.Op, left, right)
		return failed
	}
	t := left
	if spec.Flags&types.BinaryFlagSameType != 0 {
		if t, ok = c.types.Unify(left, right); !ok {
			c.invalidBinary(e, d.Op, left, right)
			return failed
		}
	}
	if spec.Result == types.BinaryResultBool {
		return c.types.Builtins().Bool
	}
	return t
}

func (c *Context) invalidBinary(e *ast.Expr, op ast.BinaryOp, left, right types.TypeID) {
	c.errorf(diag.SemaInvalidBinaryOperands, e.Span,
		fmt.Sprintf("cannot apply binary operator `%s` to `%s` and `%s`", op, c.types.String(left), c.types.String(right))).Emit()
}

// isNominal reports ADTs and generic params, whose operators come from
// lang-item traits.
func (c *Context) isNominal(t types.TypeID) bool {
	switch c.types.KindOf(c.types.Resolve(t)) {
	case types.KindAdt, types.KindParam:
		return true
	}
	return false
}

// langTrait returns the trait registered for an operator lang item.
func (c *Context) langTrait(lang mappings.LangItem) *TraitReference {
	if ref, ok := c.langItems[lang]; ok {
		return ref
	}
	var ref *TraitReference
	if def, ok := c.maps.LookupLangItem(c.crate, lang); ok {
		if it, ok := c.maps.LookupDefID(def); ok && it.Kind == hir.ItemTrait {
			ref = c.traits.ResolveTrait(it)
		}
	}
	c.langItems[lang] = ref
	return ref
}

// operatorMethod resolves the method an overloaded operator on operand
// dispatches to.
func (c *Context) operatorMethod(e *ast.Expr, lang mappings.LangItem, operand types.TypeID, ir ids.IrID) (*types.FnInfo, bool) {
	trait := c.langTrait(lang)
	if trait == nil || !c.satisfiesBound(operand, trait) {
		return nil, false
	}
	cand, ok := c.traitMember(trait, operand, lang.MethodName())
	if !ok {
		return nil, false
	}
	seg := &ast.PathSegment{Node: e.Node, Span: e.Span}
	c.receivers[ir] = operand
	t, ok := c.applyCandidate(cand, seg, operand, ir)
	if !ok {
		return nil, false
	}
	fn, ok := c.types.FnInfo(t)
	return fn, ok
}

// selfArg unifies an operand with a parameter that may take it by
// reference.
func (c *Context) selfArg(e *ast.Expr, param, operand types.TypeID) {
	if pt := c.types.MustLookup(c.types.Resolve(param)); pt.Kind == types.KindRef && c.types.KindOf(c.types.Resolve(operand)) != types.KindRef {
		param = pt.Elem
	}
	c.unify(e.Span, param, operand)
}

func (c *Context) overloadedBinary(e *ast.Expr, d *ast.ExprBinaryData, spec types.BinarySpec, left, right types.TypeID, ir ids.IrID) types.TypeID {
	boolResult := spec.Result == types.BinaryResultBool
	fn, ok := c.operatorMethod(e, spec.Lang, left, ir)
	if !ok {
		if c.langTrait(spec.Lang) == nil && (d.Op == ast.BinEq || d.Op == ast.BinNe) {
			// without an `eq` lang item equality is structural
			if _, ok := c.types.Unify(left, right); !ok {
				c.invalidBinary(e, d.Op, left, right)
			}
			return c.types.Builtins().Bool
		}
		c.errorf(diag.SemaInvalidBinaryOperands, e.Span,
			fmt.Sprintf("binary operation `%s` cannot be applied to type `%s`", d.Op, c.types.String(left))).
			WithNote(e.Span, fmt.Sprintf("`%s` does not implement the `%s` operator trait", c.types.String(left), spec.Lang)).
			Emit()
		if boolResult {
			return c.types.Builtins().Bool
		}
		return c.errType()
	}
	if len(fn.Params) != 2 {
		c.errorf(diag.SemaArgCount, e.Span, fmt.Sprintf("operator method `%s` must take two parameters", fn.Name)).Emit()
	} else {
		c.selfArg(e, fn.Params[0], left)
		c.selfArg(e, fn.Params[1], right)
	}
	if boolResult {
		return c.types.Builtins().Bool
	}
	return fn.Result
}

func (c *Context) checkUnary(e *ast.Expr, d *ast.ExprUnaryData, ir ids.IrID) types.TypeID {
	spec, ok := types.UnarySpecFor(d.Op)
	if !ok {
		ice.Raise("typeck", "no operator table entry for `%s`", d.Op)
	}
	t := c.checkExpr(d.Operand)
	resolved := c.types.Resolve(t)
	if c.types.IsError(resolved) {
		return resolved
	}
	if spec.Result == types.UnaryResultDeref {
		tt := c.types.MustLookup(resolved)
		switch tt.Kind {
		case types.KindRef:
			return tt.Elem
		case types.KindInfer:
			c.errorf(diag.SemaCannotInfer, e.Span, "type annotations needed before dereferencing").Emit()
			return c.errType()
		}
		c.errorf(diag.SemaInvalidUnaryOperand, e.Span, fmt.Sprintf("type `%s` cannot be dereferenced", c.types.String(t))).Emit()
		return c.errType()
	}
	if c.isNominal(t) {
		fn, ok := c.operatorMethod(e, spec.Lang, t, ir)
		if !ok || len(fn.Params) != 1 {
			c.errorf(diag.SemaInvalidUnaryOperand, e.Span,
				fmt.Sprintf("cannot apply unary operator `%s` to type `%s`", d.Op, c.types.String(t))).Emit()
			return c.errType()
		}
		c.selfArg(e, fn.Params[0], t)
		return fn.Result
	}
	if c.types.FamilyOf(t)&spec.Operand == 0 {
		c.errorf(diag.SemaInvalidUnaryOperand, e.Span,
			fmt.Sprintf("cannot apply unary operator `%s` to type `%s`", d.Op, c.types.String(t))).Emit()
		return c.errType()
	}
	return t
}
