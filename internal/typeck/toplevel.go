package typeck

import (
	"fmt"
	"math"
	"strings"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/types"
)

// declareItems allocates a type placeholder for every declaration: generic
// params, ADT templates, trait Self params and impl records. Nothing that
// needs another declaration's type happens here.
func (c *Context) declareItems() {
	for _, it := range c.hir.Items {
		for _, gp := range it.Generics() {
			c.record(gp.Mapping.Ir, c.types.RegisterParam(gp.Mapping.Ir, c.name(gp.Name), gp.Index))
		}
		switch it.Kind {
		case hir.ItemStruct:
			kind := types.AdtStruct
			switch it.Struct.Kind {
			case ast.StructTuple:
				kind = types.AdtTupleStruct
			case ast.StructUnit:
				kind = types.AdtUnitStruct
			}
			c.declareAdt(it, kind)
		case hir.ItemUnion:
			c.declareAdt(it, types.AdtUnion)
		case hir.ItemEnum:
			c.declareAdt(it, types.AdtEnum)
		case hir.ItemTrait:
			self := c.types.RegisterParam(it.Ir(), "Self", 0)
			c.types.AddParamBound(self, it.Ir())
			c.traitSelf[it.Ir()] = self
			c.traits.ResolveTrait(it)
			if len(it.Trait.Generics) > 0 {
				c.errorf(diag.SemaTraitGenericsUnsupported, it.Trait.Generics[0].Span,
					fmt.Sprintf("generic parameters on trait `%s` are not supported", c.name(it.Name))).Emit()
			}
		case hir.ItemImpl:
			info := &implInfo{item: it, params: c.paramTypes(it.Impl.Generics)}
			c.impls = append(c.impls, info)
			c.implByIr[it.Ir()] = info
			if self := c.ast.Types.Get(it.Impl.SelfType); self != nil {
				c.implSelfFor[self.Node] = it
			}
		}
	}
}

func (c *Context) declareAdt(it *hir.Item, kind types.AdtKind) {
	tmpl := c.types.RegisterAdt(it.Ir(), it.DefID(), c.name(it.Name), kind, c.paramTypes(it.Generics()))
	c.adtItems[it.Ir()] = tmpl
	c.record(it.Ir(), tmpl)
}

func (c *Context) paramTypes(params []*hir.GenericParam) []types.TypeID {
	if len(params) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(params))
	for i, gp := range params {
		out[i] = c.nodeTypes[gp.Mapping.Ir]
	}
	return out
}

// typeSignatures types fields, variants, fn signatures, consts, statics,
// aliases and impl headers. Aliases and impl headers are computed on first
// use, so declaration order does not matter.
func (c *Context) typeSignatures() {
	for _, it := range c.hir.Items {
		c.typeBounds(it.Generics())
		switch it.Kind {
		case hir.ItemStruct, hir.ItemUnion:
			c.typeStruct(it)
		case hir.ItemEnum:
			c.typeEnum(it)
		case hir.ItemFn:
			c.typeFn(it)
		case hir.ItemConst:
			c.record(it.Ir(), c.resolveTypeExpr(it.Const.Type))
		case hir.ItemStatic:
			c.record(it.Ir(), c.resolveTypeExpr(it.Static.Type))
		case hir.ItemTypeAlias:
			c.aliasType(it)
		case hir.ItemImpl:
			c.typeImpl(it)
		}
	}
	for _, info := range c.impls {
		if info.trait != nil {
			c.checkTraitImpl(info)
		}
	}
}

func (c *Context) typeBounds(params []*hir.GenericParam) {
	for _, gp := range params {
		self := c.nodeTypes[gp.Mapping.Ir]
		for i := range gp.Bounds {
			if trait, ok := c.traits.Resolve(&gp.Bounds[i]); ok {
				c.types.AddParamBound(self, trait.Item.Ir())
			}
		}
		if gp.Default.IsValid() {
			c.resolveTypeExpr(gp.Default)
		}
	}
}

func (c *Context) fieldDefs(fields []*hir.Field) []types.FieldDef {
	out := make([]types.FieldDef, len(fields))
	for i, f := range fields {
		t := c.record(f.Mapping.Ir, c.resolveTypeExpr(f.Type))
		out[i] = types.FieldDef{Name: c.name(f.Name), Type: t}
	}
	return out
}

func variantKind(k ast.StructKind) types.VariantKind {
	switch k {
	case ast.StructTuple:
		return types.VariantTuple
	case ast.StructUnit:
		return types.VariantUnit
	}
	return types.VariantNamed
}

func (c *Context) typeStruct(it *hir.Item) {
	tmpl := c.adtItems[it.Ir()]
	v := &types.VariantDef{
		Item:   it.Ir(),
		Name:   c.name(it.Name),
		Kind:   variantKind(it.Struct.Kind),
		Fields: c.fieldDefs(it.Struct.Fields),
	}
	c.types.SetVariants(tmpl, []*types.VariantDef{v})
	if v.Kind == types.VariantTuple {
		c.ctorTypes[it.Ir()] = c.registerCtor(it, tmpl, v)
	}
}

// registerCtor types the constructor fn of a tuple struct or variant. It is
// generic over the ADT's params.
func (c *Context) registerCtor(it *hir.Item, adt types.TypeID, v *types.VariantDef) types.TypeID {
	info, _ := c.types.AdtInfo(adt)
	params := make([]types.TypeID, len(v.Fields))
	for i, f := range v.Fields {
		params[i] = f.Type
	}
	self := adt
	if len(info.Params) > 0 {
		self = c.types.InstantiateAdt(adt, info.Params)
	}
	return c.types.RegisterFn(it.Ir(), v.Name, params, self, info.Params, len(info.Params))
}

// typeEnum types the variants of an enum. Discriminants start at 0 and
// continue from the last explicit value; a discriminant that cannot be
// evaluated or that would pass math.MaxInt64 is an error.
func (c *Context) typeEnum(it *hir.Item) {
	tmpl := c.adtItems[it.Ir()]
	variants := make([]*types.VariantDef, 0, len(it.Enum.Variants))
	var (
		next      int64
		exhausted bool
		prev      *hir.Item
	)
	for i, ir := range it.Enum.Variants {
		vi, ok := c.hir.Item(ir)
		if !ok {
			continue
		}
		v := &types.VariantDef{
			Item:   ir,
			Name:   c.name(vi.Name),
			Kind:   variantKind(vi.Variant.Kind),
			Index:  i,
			Fields: c.fieldDefs(vi.Variant.Fields),
		}
		if d := vi.Variant.Discriminant; d.IsValid() {
			span := c.ast.Exprs.Get(d).Span
			t := c.checkExpr(d)
			c.unify(span, c.types.Builtins().Isize, t)
			if val, ok := c.evalConst(d); ok {
				next, exhausted = val, false
			} else if !c.types.IsError(t) {
				c.errorf(diag.SemaNonConstant, span,
					fmt.Sprintf("could not evaluate the discriminant of `%s` as an isize constant", v.Name)).Emit()
			}
		} else if exhausted {
			c.errorf(diag.SemaDiscriminantOverflow, vi.Span,
				fmt.Sprintf("enum discriminant overflowed on variant `%s`", v.Name)).
				WithNote(prev.Span, fmt.Sprintf("previous variant has discriminant %d", int64(math.MaxInt64))).
				Emit()
		}
		v.Discriminant = next
		if next == math.MaxInt64 {
			exhausted = true
		} else {
			next++
		}
		prev = vi
		variants = append(variants, v)
		c.record(ir, tmpl)
	}
	c.types.SetVariants(tmpl, variants)
	for _, v := range variants {
		if v.Kind == types.VariantTuple {
			vi, _ := c.hir.Item(v.Item)
			c.ctorTypes[v.Item] = c.registerCtor(vi, tmpl, v)
		}
	}
}

// ownerSubst returns the Self type and the formal params an associated
// item's signature is generic over, besides its own.
func (c *Context) ownerSubst(it *hir.Item) (types.TypeID, []types.TypeID) {
	switch it.Owner {
	case hir.OwnerImpl:
		info := c.implByIr[it.Parent]
		if info == nil {
			return types.NoTypeID, nil
		}
		return c.implSelf(info.item), info.params
	case hir.OwnerTrait:
		self := c.traitSelf[it.Parent]
		return self, []types.TypeID{self}
	}
	return types.NoTypeID, nil
}

func (c *Context) typeFn(it *hir.Item) {
	fn := it.Fn
	self, outer := c.ownerSubst(it)
	var params []types.TypeID
	if sp := fn.Self; sp != nil {
		st := self
		if st == types.NoTypeID {
			st = c.errType()
		}
		switch sp.Kind {
		case ast.SelfRef:
			st = c.types.Intern(types.MakeReference(st, false))
		case ast.SelfRefMut:
			st = c.types.Intern(types.MakeReference(st, true))
		}
		params = append(params, c.record(sp.Mapping.Ir, st))
	}
	for _, p := range fn.Params {
		params = append(params, c.record(p.Mapping.Ir, c.resolveTypeExpr(p.Type)))
	}
	result := c.types.Builtins().Unit
	if fn.Result.IsValid() {
		result = c.resolveTypeExpr(fn.Result)
	}
	subst := append(append([]types.TypeID(nil), outer...), c.paramTypes(fn.Generics)...)
	c.record(it.Ir(), c.types.RegisterFn(it.Ir(), c.name(it.Name), params, result, subst, len(outer)))
}

// aliasType resolves a type alias on first use.
func (c *Context) aliasType(it *hir.Item) types.TypeID {
	if t, ok := c.nodeTypes[it.Ir()]; ok {
		return t
	}
	if c.inProgress[it.Ir()] {
		c.errorf(diag.SemaRecursiveType, it.Span, fmt.Sprintf("cycle detected when expanding type alias `%s`", c.name(it.Name))).Emit()
		return c.record(it.Ir(), c.errType())
	}
	c.inProgress[it.Ir()] = true
	t := c.resolveTypeExpr(it.Alias.Type)
	delete(c.inProgress, it.Ir())
	if prev, ok := c.nodeTypes[it.Ir()]; ok {
		return prev
	}
	return c.record(it.Ir(), t)
}

// implSelf resolves the Self type of an impl block on first use.
func (c *Context) implSelf(it *hir.Item) types.TypeID {
	info := c.implByIr[it.Ir()]
	if info == nil {
		return c.errType()
	}
	if info.self != types.NoTypeID {
		return info.self
	}
	if c.inProgress[it.Ir()] {
		c.errorf(diag.SemaRecursiveType, it.Span, "cycle detected when computing the Self type of an impl").Emit()
		info.self = c.errType()
		return info.self
	}
	c.inProgress[it.Ir()] = true
	t := c.resolveTypeExpr(it.Impl.SelfType)
	delete(c.inProgress, it.Ir())
	if info.self == types.NoTypeID {
		info.self = t
	}
	return info.self
}

func (c *Context) typeImpl(it *hir.Item) {
	info := c.implByIr[it.Ir()]
	c.record(it.Ir(), c.implSelf(it))
	if it.Impl.Trait == nil {
		return
	}
	trait, ok := c.traits.Resolve(it.Impl.Trait)
	if !ok {
		return
	}
	info.trait = trait
	c.traitImpls[it.Ir()] = trait.Item.Ir()
}

// checkTraitImpl reports impl items the trait does not declare and
// mandatory trait items the impl leaves out.
func (c *Context) checkTraitImpl(info *implInfo) {
	provided := make(map[string]bool)
	for _, ir := range info.item.Impl.Items {
		it, ok := c.hir.Item(ir)
		if !ok {
			continue
		}
		name := c.name(it.Name)
		provided[name] = true
		if len(info.trait.Lookup(c, name)) == 0 {
			c.errorf(diag.SemaUnknownAssociatedItem, it.Span,
				fmt.Sprintf("%s `%s` is not a member of trait `%s`", it.Kind, name, info.trait.Name)).Emit()
		}
	}
	var missing []string
	for _, it := range info.trait.Items() {
		if it.IsMandatoryTraitItem() && !provided[c.name(it.Name)] {
			missing = append(missing, "`"+c.name(it.Name)+"`")
		}
	}
	if len(missing) > 0 {
		c.errorf(diag.SemaMissingTraitItem, info.item.Span,
			fmt.Sprintf("not all trait items implemented, missing: %s", strings.Join(missing, ", "))).Emit()
	}
}
