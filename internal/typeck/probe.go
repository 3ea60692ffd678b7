package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ids"
	"oxbow/internal/source"
	"oxbow/internal/types"
)

type candidateKind uint8

const (
	candVariant candidateKind = iota
	candImplItem
	candTraitItem
)

// candidate is one item a path segment may denote.
type candidate struct {
	kind    candidateKind
	item    *hir.Item
	impl    *implInfo
	trait   *TraitReference
	variant *types.VariantDef
}

func (cd candidate) span() source.Span { return cd.item.Span }

func (cd candidate) describe(c *Context) string {
	switch cd.kind {
	case candVariant:
		enum, _ := c.hir.Item(cd.item.Parent)
		return fmt.Sprintf("as a variant of `%s`", c.name(enum.Name))
	case candImplItem:
		self := c.types.String(c.implSelf(cd.impl.item))
		if cd.trait != nil {
			return fmt.Sprintf("in an impl of the trait `%s` for `%s`", cd.trait.Name, self)
		}
		return fmt.Sprintf("in an impl for `%s`", self)
	}
	return fmt.Sprintf("in the trait `%s`", cd.trait.Name)
}

// PathProbe collects the candidates for one segment. The first pass looks
// at enum variants and inherent impls; only when it finds nothing does the
// second pass look at traits the receiver implements or is bounded by.
type PathProbe struct {
	c          *Context
	receiver   types.TypeID
	name       string
	methodOnly bool
	// ignoreMandatory hides trait items without a default. A concrete
	// receiver gets them from its impl; a generic one only has the trait.
	ignoreMandatory bool
}

func (c *Context) newProbe(receiver types.TypeID, name string, methodOnly bool) *PathProbe {
	_, generic := c.types.ParamInfo(receiver)
	return &PathProbe{
		c:               c,
		receiver:        receiver,
		name:            name,
		methodOnly:      methodOnly,
		ignoreMandatory: !generic,
	}
}

func (p *PathProbe) run() []candidate {
	if out := p.inherent(); len(out) > 0 {
		return out
	}
	return p.bounds()
}

func (p *PathProbe) inherent() []candidate {
	c := p.c
	var out []candidate
	if adt, ok := c.types.AdtInfo(p.receiver); ok && adt.IsEnum() && !p.methodOnly {
		if v, ok := adt.VariantByName(p.name); ok {
			if it, ok := c.hir.Item(v.Item); ok {
				out = append(out, candidate{kind: candVariant, item: it, variant: v})
			}
		}
	}
	for _, info := range c.impls {
		if info.item.Impl.Trait != nil || !c.implMatches(info, p.receiver) {
			continue
		}
		for _, it := range p.matching(info.item.Impl.Items) {
			out = append(out, candidate{kind: candImplItem, item: it, impl: info})
		}
	}
	return out
}

func (p *PathProbe) bounds() []candidate {
	c := p.c
	var (
		out      []candidate
		traits   []*TraitReference
		seen     = make(map[ids.IrID]bool)
		supplied = make(map[ids.IrID]bool)
	)
	addTrait := func(t *TraitReference) {
		if t != nil && !seen[t.Item.Ir()] {
			seen[t.Item.Ir()] = true
			traits = append(traits, t)
		}
	}
	for _, info := range c.impls {
		if info.trait == nil || !c.implMatches(info, p.receiver) {
			continue
		}
		for _, it := range p.matching(info.item.Impl.Items) {
			out = append(out, candidate{kind: candImplItem, item: it, impl: info, trait: info.trait})
			supplied[info.trait.Item.Ir()] = true
		}
		addTrait(info.trait)
	}
	if param, ok := c.types.ParamInfo(p.receiver); ok {
		for _, b := range param.Bounds {
			ref, _ := c.traits.Lookup(b)
			addTrait(ref)
		}
	}
	for _, ref := range c.inherited[c.types.Resolve(p.receiver)] {
		addTrait(ref)
	}
	for _, ref := range traits {
		if supplied[ref.Item.Ir()] {
			continue
		}
		for _, it := range p.filter(ref.Items()) {
			if p.ignoreMandatory && it.IsMandatoryTraitItem() {
				continue
			}
			out = append(out, candidate{kind: candTraitItem, item: it, trait: ref})
		}
	}
	return out
}

func (p *PathProbe) matching(items []ids.IrID) []*hir.Item {
	resolved := make([]*hir.Item, 0, len(items))
	for _, ir := range items {
		if it, ok := p.c.hir.Item(ir); ok {
			resolved = append(resolved, it)
		}
	}
	return p.filter(resolved)
}

// filter keeps the items named like the probed segment.
func (p *PathProbe) filter(items []*hir.Item) []*hir.Item {
	var out []*hir.Item
	for _, it := range items {
		if p.c.name(it.Name) != p.name {
			continue
		}
		if p.methodOnly && (it.Kind != hir.ItemFn || it.Fn.Self == nil) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// implMatches reports whether the Self type of an impl, with its params
// replaced by fresh variables, unifies with t. No binding survives.
func (c *Context) implMatches(info *implInfo, t types.TypeID) bool {
	self := c.implSelf(info.item)
	if c.types.IsError(self) {
		return false
	}
	if len(info.params) > 0 {
		self = c.types.Substitute(self, info.params, c.types.FreshArgs(info.params))
	}
	return c.types.CanUnify(self, t)
}

// bindImpl unifies the Self type of an impl with t and returns the impl
// arguments that unification inferred.
func (c *Context) bindImpl(info *implInfo, t types.TypeID, span source.Span) []types.TypeID {
	args := c.types.FreshArgs(info.params)
	self := c.types.Substitute(c.implSelf(info.item), info.params, args)
	c.unify(span, self, t)
	return args
}

// findTraitImpl returns the impl of trait whose Self type matches t.
func (c *Context) findTraitImpl(trait *TraitReference, t types.TypeID) *implInfo {
	for _, info := range c.impls {
		if info.trait == trait && c.implMatches(info, t) {
			return info
		}
	}
	return nil
}

// satisfiesBound reports whether t implements trait, through an impl, a
// declared bound or an inherited one.
func (c *Context) satisfiesBound(t types.TypeID, trait *TraitReference) bool {
	if param, ok := c.types.ParamInfo(t); ok {
		for _, b := range param.Bounds {
			if b == trait.Item.Ir() {
				return true
			}
		}
	}
	for _, ref := range c.inherited[c.types.Resolve(t)] {
		if ref == trait {
			return true
		}
	}
	return c.findTraitImpl(trait, t) != nil
}

// inherit attaches trait to t so that later probes on t see its items.
func (c *Context) inherit(t types.TypeID, trait *TraitReference) {
	t = c.types.Resolve(t)
	for _, ref := range c.inherited[t] {
		if ref == trait {
			return
		}
	}
	c.inherited[t] = append(c.inherited[t], trait)
}

// applyCandidate records what seg resolved to and returns its type with
// the receiver's arguments substituted in.
func (c *Context) applyCandidate(cand candidate, seg *ast.PathSegment, receiver types.TypeID, ir ids.IrID) (types.TypeID, bool) {
	c.resolvedNodes[ir] = cand.item.Node()
	switch cand.kind {
	case candVariant:
		return c.applyVariant(cand, seg, receiver, ir)
	case candImplItem:
		args := c.bindImpl(cand.impl, receiver, seg.Span)
		c.assocImpls[ir] = cand.impl.item.Ir()
		return c.instantiateItem(cand.item, args, seg)
	}
	if impl := c.findTraitImpl(cand.trait, receiver); impl != nil {
		c.bindImpl(impl, receiver, seg.Span)
		c.assocImpls[ir] = impl.item.Ir()
	}
	return c.instantiateItem(cand.item, []types.TypeID{receiver}, seg)
}

func (c *Context) applyVariant(cand candidate, seg *ast.PathSegment, receiver types.TypeID, ir ids.IrID) (types.TypeID, bool) {
	v := cand.variant
	c.variants[ir] = VariantRef{Adt: receiver, Variant: v}
	adt, _ := c.types.AdtInfo(receiver)
	if seg.HasGenerics() {
		args := c.explicitArgs(seg)
		if len(adt.Params) == 0 {
			c.errorf(diag.SemaSubstNotSupported, seg.Span,
				fmt.Sprintf("enum `%s` takes no generic arguments", adt.Name)).Emit()
			return c.errType(), false
		}
		if len(args) != len(adt.Params) {
			c.wrongCount(seg, adt.Name, len(adt.Params), len(args))
			return c.errType(), false
		}
		for i, arg := range args {
			if !c.types.CanUnify(adt.Args[i], arg) {
				c.errorf(diag.SemaSubstMismatch, seg.Span,
					fmt.Sprintf("generic arguments of `%s` conflict with `%s`", v.Name, c.types.String(receiver))).Emit()
				return c.errType(), false
			}
			c.types.Unify(adt.Args[i], arg)
		}
	}
	if v.Kind != types.VariantTuple {
		return receiver, true
	}
	ctor := c.ctorTypes[v.Item]
	if len(adt.Params) == 0 {
		return ctor, true
	}
	return c.types.InstantiateFn(ctor, adt.Args), true
}

// instantiateItem types an associated item given the arguments of its
// owner's params. Own params of a function come from the turbofish or are
// inferred.
func (c *Context) instantiateItem(it *hir.Item, outer []types.TypeID, seg *ast.PathSegment) (types.TypeID, bool) {
	t := c.nodeTypes[it.Ir()]
	if it.Kind == hir.ItemFn {
		fn, _ := c.types.FnInfo(t)
		own := fn.OwnParams()
		ownArgs := c.types.FreshArgs(own)
		if seg.HasGenerics() {
			args := c.explicitArgs(seg)
			if len(own) == 0 {
				c.errorf(diag.SemaSubstNotSupported, seg.Span,
					fmt.Sprintf("function `%s` takes no generic arguments", fn.Name)).Emit()
				return c.errType(), false
			}
			if len(args) != len(own) {
				c.wrongCount(seg, fn.Name, len(own), len(args))
				return c.errType(), false
			}
			ownArgs = args
		}
		if len(fn.Subst) == 0 {
			return t, true
		}
		return c.types.InstantiateFn(t, append(append([]types.TypeID(nil), outer...), ownArgs...)), true
	}
	if seg.HasGenerics() {
		c.errorf(diag.SemaSubstNotSupported, seg.Span,
			fmt.Sprintf("type arguments are not allowed on %s `%s`", it.Kind, c.name(it.Name))).Emit()
		return c.errType(), false
	}
	_, params := c.ownerSubst(it)
	return c.types.Substitute(t, params, outer), true
}
