package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ids"
	"oxbow/internal/types"
)

// resolveQualified resolves `<T>::a::b` and `<T as Trait>::a::b`. Without
// a trait the left-hand type is simply the root. With one, the first
// segment is looked up among the trait's items only, after checking that T
// implements the trait.
func (c *Context) resolveQualified(q *ast.QualifiedPath, ir ids.IrID, pos position) types.TypeID {
	self := c.resolveTypeExpr(q.Self)
	if c.types.IsError(self) {
		return self
	}
	if len(q.Segments) == 0 {
		return c.qualifiedEnd(q, self, pos)
	}
	root := pathRoot{ty: self, isType: true}
	if q.Trait != nil {
		trait, ok := c.traits.Resolve(q.Trait)
		if !ok {
			return c.errType()
		}
		if !c.satisfiesBound(self, trait) {
			c.errorf(diag.SemaTraitBoundViolation, q.Span,
				fmt.Sprintf("the trait bound `%s: %s` is not satisfied", c.types.String(self), trait.Name)).Emit()
			return c.errType()
		}
		c.inherit(self, trait)

		seg := &q.Segments[0]
		name := c.name(seg.Name)
		cand, ok := c.traitMember(trait, self, name)
		if !ok {
			c.errorf(diag.SemaUnknownAssociatedItem, seg.Span,
				fmt.Sprintf("cannot find associated item `%s` in trait `%s`", name, trait.Name)).Emit()
			return c.errType()
		}
		c.receivers[ir] = self
		t, ok := c.applyCandidate(cand, seg, self, ir)
		if !ok {
			return t
		}
		root = pathRoot{ty: t, offset: 1}
	}
	t, ok := c.resolveSegments(q.Segments, root, ir)
	if !ok {
		return t
	}
	if pos == posType {
		c.errorf(diag.SemaExpectedTypeFoundValue, q.Span, "expected type, found associated item").Emit()
		return c.errType()
	}
	if v, ok := c.variants[ir]; ok && v.Variant.Kind == types.VariantNamed {
		c.errorf(diag.SemaExpectedValueFoundType, q.Span,
			fmt.Sprintf("expected value, found struct variant `%s`", v.Variant.Name)).Emit()
		return c.errType()
	}
	return c.instantiateFresh(t)
}

// qualifiedEnd handles `<T>` with nothing after it, which is only a type.
func (c *Context) qualifiedEnd(q *ast.QualifiedPath, t types.TypeID, pos position) types.TypeID {
	if pos == posValue {
		c.errorf(diag.SemaExpectedValueFoundType, q.Span,
			fmt.Sprintf("expected value, found type `%s`", c.types.String(t))).Emit()
		return c.errType()
	}
	return t
}

// traitMember finds name among the items of trait. When the impl of the
// trait for self overrides the item, the impl's item is chosen.
func (c *Context) traitMember(trait *TraitReference, self types.TypeID, name string) (candidate, bool) {
	items := trait.Lookup(c, name)
	if len(items) == 0 {
		return candidate{}, false
	}
	if impl := c.findTraitImpl(trait, self); impl != nil {
		for _, ir := range impl.item.Impl.Items {
			if it, ok := c.hir.Item(ir); ok && c.name(it.Name) == name {
				return candidate{kind: candImplItem, item: it, impl: impl, trait: trait}, true
			}
		}
	}
	return candidate{kind: candTraitItem, item: items[0], trait: trait}, true
}
