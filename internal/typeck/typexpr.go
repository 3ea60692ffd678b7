package typeck

import (
	"fmt"

	"fortio.org/safecast"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/types"
)

// resolveTypeExpr turns a syntactic type into a TypeID and records it
// against the type's IrID. A missing type is the unit type.
func (c *Context) resolveTypeExpr(id ast.TypeID) types.TypeID {
	if !id.IsValid() {
		return c.types.Builtins().Unit
	}
	te := c.ast.Types.Get(id)
	ir := c.irOf(te.Node)
	var t types.TypeID
	switch te.Kind {
	case ast.TypePath:
		t = c.resolveTypePath(&te.Path, ir)
	case ast.TypeQualPath:
		t = c.resolveQualified(&te.Qual, ir, posType)
	case ast.TypeTuple:
		elems := make([]types.TypeID, len(te.Elems))
		for i, el := range te.Elems {
			elems[i] = c.resolveTypeExpr(el)
		}
		t = c.types.RegisterTuple(elems)
	case ast.TypeRef:
		t = c.types.Intern(types.MakeReference(c.resolveTypeExpr(te.Elem()), te.Mut))
	case ast.TypeArray:
		t = c.resolveArrayType(te)
	case ast.TypeInfer:
		if c.inBody {
			t = c.types.NewVar(types.InferGeneral)
		} else {
			c.errorf(diag.SemaCannotInfer, te.Span, "the placeholder `_` is not allowed within types on item signatures").Emit()
			t = c.errType()
		}
	case ast.TypeNever:
		t = c.types.Builtins().Never
	default:
		ice.Raise("typeck", "unknown type kind %d", te.Kind)
	}
	return c.record(ir, t)
}

func (c *Context) resolveArrayType(te *ast.TypeExpr) types.TypeID {
	elem := c.resolveTypeExpr(te.Elem())
	lenExpr := c.ast.Exprs.Get(te.Len)
	if lenExpr == nil {
		return c.errType()
	}
	c.unify(lenExpr.Span, c.types.Builtins().Usize, c.checkExpr(te.Len))
	n, ok := c.evalConst(te.Len)
	if !ok {
		c.errorf(diag.SemaNonConstant, lenExpr.Span, "array length must be a constant expression").Emit()
		return c.errType()
	}
	count, err := safecast.Conv[uint32](n)
	if err != nil {
		c.errorf(diag.SemaNonConstant, lenExpr.Span, fmt.Sprintf("array length %d is out of range", n)).Emit()
		return c.errType()
	}
	return c.types.Intern(types.MakeArray(elem, count))
}

// resolveTypePath resolves a path in type position. Only the root may
// denote a type; associated types do not exist.
func (c *Context) resolveTypePath(p *ast.Path, ir ids.IrID) types.TypeID {
	root, ok := c.resolveRootPath(p, ir, posType)
	if !ok {
		return c.errType()
	}
	if root.offset < len(p.Segments) {
		seg := &p.Segments[root.offset]
		c.errorf(diag.SemaUnknownAssociatedItem, seg.Span,
			fmt.Sprintf("associated type `%s` not found for `%s`", c.name(seg.Name), c.types.String(root.ty))).Emit()
		return c.errType()
	}
	if !root.isType {
		last := p.Last()
		c.errorf(diag.SemaExpectedTypeFoundValue, last.Span,
			fmt.Sprintf("expected type, found value `%s`", c.ast.PathString(p))).Emit()
		return c.errType()
	}
	return c.completeArgs(root.ty, p.Last())
}

// completeArgs fills in the arguments of a generic ADT named without
// explicit ones. Bodies infer them; signatures fall back to declared
// defaults or report the missing arguments.
func (c *Context) completeArgs(t types.TypeID, seg *ast.PathSegment) types.TypeID {
	info, ok := c.types.AdtInfo(t)
	if !ok || len(info.Params) == 0 || info.Args != nil {
		return t
	}
	if c.inBody {
		return c.types.InstantiateAdt(t, c.types.FreshArgs(info.Params))
	}
	it, _ := c.hir.Item(info.Item)
	if args, ok := c.defaultArgs(it, nil); ok {
		return c.types.InstantiateAdt(t, args)
	}
	c.errorf(diag.SemaWrongGenericCount, seg.Span,
		fmt.Sprintf("missing generics for `%s`: expected %d generic arguments", info.Name, len(info.Params))).Emit()
	return c.errType()
}

// defaultArgs extends explicit with the declared defaults of the remaining
// params of it. Defaults may mention earlier params.
func (c *Context) defaultArgs(it *hir.Item, explicit []types.TypeID) ([]types.TypeID, bool) {
	if it == nil {
		return nil, false
	}
	gps := it.Generics()
	if len(explicit) > len(gps) {
		return nil, false
	}
	params := c.paramTypes(gps)
	args := append([]types.TypeID(nil), explicit...)
	for _, gp := range gps[len(explicit):] {
		if !gp.Default.IsValid() {
			return nil, false
		}
		def := c.nodeTypes[c.irOf(c.ast.Types.Get(gp.Default).Node)]
		if def == types.NoTypeID {
			def = c.resolveTypeExpr(gp.Default)
		}
		args = append(args, c.types.Substitute(def, params[:len(args)], args))
	}
	return args, true
}

// typeDef is what a type-namespace definition denotes before generic
// arguments are applied.
type typeDef struct {
	ty   types.TypeID
	item *hir.Item
}

// typeOfTypeDef returns the type a type-namespace definition denotes.
func (c *Context) typeOfTypeDef(def ids.NodeID, seg *ast.PathSegment) (typeDef, bool) {
	if name, ok := c.res.LookupBuiltin(def); ok {
		if name == "()" {
			return typeDef{ty: c.types.Builtins().Unit}, true
		}
		if t, ok := c.types.Primitive(name); ok {
			return typeDef{ty: t}, true
		}
		ice.Raise("typeck", "builtin `%s` has no type", name)
	}
	if impl, ok := c.implSelfFor[def]; ok {
		return typeDef{ty: c.implSelf(impl)}, true
	}
	if it, ok := c.maps.LookupItemByNode(c.crate, def); ok {
		switch it.Kind {
		case hir.ItemStruct, hir.ItemUnion, hir.ItemEnum:
			return typeDef{ty: c.adtItems[it.Ir()], item: it}, true
		case hir.ItemTypeAlias:
			return typeDef{ty: c.aliasType(it), item: it}, true
		case hir.ItemTrait:
			if seg.Kind == ast.SegSelfType {
				return typeDef{ty: c.traitSelf[it.Ir()]}, true
			}
			c.errorf(diag.SemaExpectedTypeFoundValue, seg.Span,
				fmt.Sprintf("expected type, found trait `%s`", c.name(it.Name))).Emit()
			return typeDef{}, false
		}
		c.errorf(diag.SemaExpectedTypeFoundValue, seg.Span,
			fmt.Sprintf("expected type, found %s `%s`", it.Kind, c.name(it.Name))).Emit()
		return typeDef{}, false
	}
	if ir, ok := c.maps.LookupNodeToIr(c.crate, def); ok {
		if _, isParam := c.maps.LookupGenericParam(c.crate, ir); isParam {
			return typeDef{ty: c.nodeTypes[ir]}, true
		}
	}
	ice.Raise("typeck", "type definition %d has no declaration", def)
	return typeDef{}, false
}

// explicitArgs resolves the turbofish arguments of a segment.
func (c *Context) explicitArgs(seg *ast.PathSegment) []types.TypeID {
	if !seg.HasGenerics() {
		return nil
	}
	out := make([]types.TypeID, len(seg.Generics))
	for i, g := range seg.Generics {
		out[i] = c.resolveTypeExpr(g)
	}
	return out
}

// applyTypeArgs applies the explicit arguments of seg to a type definition.
func (c *Context) applyTypeArgs(td typeDef, seg *ast.PathSegment) types.TypeID {
	if !seg.HasGenerics() {
		return td.ty
	}
	args := c.explicitArgs(seg)
	if td.item == nil {
		c.errorf(diag.SemaSubstNotSupported, seg.Span,
			fmt.Sprintf("type arguments are not allowed on `%s`", c.types.String(td.ty))).Emit()
		return c.errType()
	}
	params := c.paramTypes(td.item.Generics())
	if len(params) == 0 {
		c.errorf(diag.SemaSubstNotSupported, seg.Span,
			fmt.Sprintf("%s `%s` takes no generic arguments", td.item.Kind, c.name(td.item.Name))).Emit()
		return c.errType()
	}
	if len(args) < len(params) {
		full, ok := c.defaultArgs(td.item, args)
		if ok {
			args = full
		}
	}
	if len(args) != len(params) {
		c.errorf(diag.SemaWrongGenericCount, seg.Span,
			fmt.Sprintf("%s `%s` takes %d generic arguments but %d were supplied",
				td.item.Kind, c.name(td.item.Name), len(params), len(seg.Generics))).Emit()
		return c.errType()
	}
	if td.item.Kind == hir.ItemTypeAlias {
		return c.types.Substitute(td.ty, params, args)
	}
	return c.types.InstantiateAdt(td.ty, args)
}
