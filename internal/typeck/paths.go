package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/types"
)

// position says whether a path is used as a value or as a type. It only
// changes how a definition that is both is treated and how errors read.
type position uint8

const (
	posValue position = iota
	posType
)

// pathRoot is the outcome of resolving the leading segments of a path:
// the type of the first non-module segment, the index of the segment after
// it and what it denotes.
type pathRoot struct {
	ty     types.TypeID
	offset int
	node   ids.NodeID
	item   *hir.Item
	isType bool
}

// resolveRootPath consumes module segments and types the first segment
// that denotes anything else, applying its explicit generic arguments.
// Failures are reported at the offending segment.
func (c *Context) resolveRootPath(p *ast.Path, ir ids.IrID, pos position) (pathRoot, bool) {
	segs := p.Segments
	for i := range segs {
		seg := &segs[i]
		if c.res.WasUnresolved(seg.Node) {
			return pathRoot{}, false
		}
		def, isValue := c.res.LookupResolvedName(seg.Node)
		if !isValue {
			var ok bool
			def, ok = c.res.LookupResolvedType(seg.Node)
			if !ok {
				c.errorf(diag.SemaUnresolvedName, seg.Span, fmt.Sprintf("failed to resolve `%s`", c.ast.PathString(p))).Emit()
				return pathRoot{}, false
			}
		}
		if c.res.IsModule(def) {
			if seg.HasGenerics() {
				c.errorf(diag.SemaSubstNotSupported, seg.Span, "type arguments are not allowed on modules").Emit()
				return pathRoot{}, false
			}
			if i == len(segs)-1 {
				c.moduleMisuse(p, pos)
				return pathRoot{}, false
			}
			continue
		}

		if isValue {
			// a value the resolver bound must have been declared to it
			if _, ok := c.res.LookupDefinition(def); !ok {
				ice.Raise("typeck", "`%s` resolved to node %d, which has no definition", c.name(seg.Name), def)
			}
		}

		root := pathRoot{offset: i + 1, node: def}
		last := i == len(segs)-1
		if isValue && pos == posValue && last || isValue && !c.isAdtDef(def) {
			t, it, ok := c.typeOfValueDef(def, seg)
			if !ok {
				return pathRoot{}, false
			}
			root.ty, root.item = c.applyValueArgs(t, it, seg), it
		} else {
			td, ok := c.typeOfTypeDef(def, seg)
			if !ok {
				return pathRoot{}, false
			}
			root.ty, root.item, root.isType = c.applyTypeArgs(td, seg), td.item, true
		}
		if c.types.IsError(root.ty) {
			return pathRoot{}, false
		}
		c.resolvedNodes[ir] = def
		return root, true
	}
	c.moduleMisuse(p, pos)
	return pathRoot{}, false
}

func (c *Context) moduleMisuse(p *ast.Path, pos position) {
	if pos == posType {
		c.errorf(diag.SemaExpectedTypeFoundValue, p.Span, fmt.Sprintf("expected type, found module `%s`", c.ast.PathString(p))).Emit()
		return
	}
	c.errorf(diag.SemaExpectedValueFoundModule, p.Span, fmt.Sprintf("expected value, found module `%s`", c.ast.PathString(p))).Emit()
}

// isAdtDef reports whether a value-namespace definition is a tuple or unit
// struct, which doubles as a type.
func (c *Context) isAdtDef(def ids.NodeID) bool {
	it, ok := c.maps.LookupItemByNode(c.crate, def)
	return ok && it.Kind == hir.ItemStruct
}

// typeOfValueDef returns the type of a value-namespace definition: an item,
// a constructor or a local binding of the body being checked.
func (c *Context) typeOfValueDef(def ids.NodeID, seg *ast.PathSegment) (types.TypeID, *hir.Item, bool) {
	if it, ok := c.maps.LookupItemByNode(c.crate, def); ok {
		switch it.Kind {
		case hir.ItemFn, hir.ItemConst, hir.ItemStatic:
			t, ok := c.nodeTypes[it.Ir()]
			if !ok {
				ice.Raise("typeck", "%s has no signature", it)
			}
			return t, it, true
		case hir.ItemStruct:
			switch it.Struct.Kind {
			case ast.StructTuple:
				return c.ctorTypes[it.Ir()], it, true
			case ast.StructUnit:
				return c.adtItems[it.Ir()], it, true
			}
		case hir.ItemVariant:
			adt := c.adtItems[it.Variant.Enum]
			if it.Variant.Kind == ast.StructTuple {
				return c.ctorTypes[it.Ir()], it, true
			}
			if it.Variant.Kind == ast.StructUnit {
				return adt, it, true
			}
		}
		c.errorf(diag.SemaExpectedValueFoundType, seg.Span,
			fmt.Sprintf("expected value, found %s `%s`", it.Kind, c.name(it.Name))).Emit()
		return types.NoTypeID, nil, false
	}
	if c.locals[def] {
		return c.nodeTypes[c.irOf(def)], nil, true
	}
	if _, ok := c.res.LookupDefinition(def); ok {
		c.errorf(diag.SemaCaptureInFnItem, seg.Span,
			fmt.Sprintf("can't capture dynamic environment in a fn item: `%s` belongs to an enclosing function", c.name(seg.Name))).Emit()
		return types.NoTypeID, nil, false
	}
	ice.Raise("typeck", "value definition %d was never registered", def)
	return types.NoTypeID, nil, false
}

// applyValueArgs applies a turbofish on the root segment of a value path.
// Functions, constructors and generic unit structs accept one.
func (c *Context) applyValueArgs(t types.TypeID, it *hir.Item, seg *ast.PathSegment) types.TypeID {
	if !seg.HasGenerics() {
		return t
	}
	args := c.explicitArgs(seg)
	if fn, ok := c.types.FnInfo(t); ok && len(fn.OwnParams()) > 0 {
		own := fn.OwnParams()
		if len(args) != len(own) {
			c.wrongCount(seg, fn.Name, len(own), len(args))
			return c.errType()
		}
		outer := c.types.FreshArgs(fn.Subst[:fn.OwnStart])
		return c.types.InstantiateFn(t, append(outer, args...))
	}
	if adt, ok := c.types.AdtInfo(t); ok && len(adt.Params) > 0 && adt.Args == nil {
		if len(args) != len(adt.Params) {
			c.wrongCount(seg, adt.Name, len(adt.Params), len(args))
			return c.errType()
		}
		return c.types.InstantiateAdt(t, args)
	}
	what := c.types.String(t)
	if it != nil {
		what = c.name(it.Name)
	}
	c.errorf(diag.SemaSubstNotSupported, seg.Span, fmt.Sprintf("type arguments are not allowed on `%s`", what)).Emit()
	return c.errType()
}

func (c *Context) wrongCount(seg *ast.PathSegment, name string, want, got int) {
	c.errorf(diag.SemaWrongGenericCount, seg.Span,
		fmt.Sprintf("`%s` takes %d generic arguments but %d were supplied", name, want, got)).Emit()
}

// instantiateFresh replaces the formal params of a generic template by new
// inference variables. Instances and non-generic types are returned as is.
func (c *Context) instantiateFresh(t types.TypeID) types.TypeID {
	if fn, ok := c.types.FnInfo(t); ok && fn.IsGeneric() {
		return c.types.InstantiateFn(t, c.types.FreshArgs(fn.Subst))
	}
	if adt, ok := c.types.AdtInfo(t); ok && len(adt.Params) > 0 && adt.Args == nil {
		return c.types.InstantiateAdt(t, c.types.FreshArgs(adt.Params))
	}
	return t
}

// resolveSegments resolves segments[from:] one at a time against the type
// produced by the previous segment. Only a type may be followed by another
// segment.
func (c *Context) resolveSegments(segs []ast.PathSegment, root pathRoot, ir ids.IrID) (types.TypeID, bool) {
	t, isType := root.ty, root.isType
	for i := root.offset; i < len(segs); i++ {
		seg := &segs[i]
		if !isType {
			c.errorf(diag.SemaExpectedTypeFoundValue, seg.Span,
				fmt.Sprintf("expected type, found value of type `%s`", c.types.String(t))).Emit()
			return c.errType(), false
		}
		receiver := c.instantiateFresh(t)
		name := c.name(seg.Name)
		cands := c.newProbe(receiver, name, false).run()
		switch len(cands) {
		case 0:
			c.errorf(diag.SemaUnknownAssociatedItem, seg.Span,
				fmt.Sprintf("no function or associated item named `%s` found for `%s`", name, c.types.String(receiver))).Emit()
			return c.errType(), false
		case 1:
		default:
			c.ambiguous(seg, name, cands)
			return c.errType(), false
		}
		c.receivers[ir] = receiver
		next, ok := c.applyCandidate(cands[0], seg, receiver, ir)
		if !ok {
			return c.errType(), false
		}
		t, isType = next, false
	}
	return t, true
}

func (c *Context) ambiguous(seg *ast.PathSegment, name string, cands []candidate) {
	b := c.errorf(diag.SemaAmbiguousCandidates, seg.Span, fmt.Sprintf("multiple applicable items in scope for `%s`", name))
	for i, cand := range cands {
		b.WithNote(cand.span(), fmt.Sprintf("candidate #%d is defined %s", i+1, cand.describe(c)))
	}
	b.Emit()
}

// resolveValuePath types a path expression and records what it denotes.
func (c *Context) resolveValuePath(p *ast.Path, ir ids.IrID) types.TypeID {
	root, ok := c.resolveRootPath(p, ir, posValue)
	if !ok {
		return c.errType()
	}
	t := root.ty
	if root.offset < len(p.Segments) {
		if t, ok = c.resolveSegments(p.Segments, root, ir); !ok {
			return t
		}
	} else if root.isType {
		c.errorf(diag.SemaExpectedValueFoundType, p.Span,
			fmt.Sprintf("expected value, found type `%s`", c.ast.PathString(p))).Emit()
		return c.errType()
	}
	return c.valueOf(p, ir, t)
}

// valueOf finishes a value path: struct variants are not values and
// generic templates get fresh arguments.
func (c *Context) valueOf(p *ast.Path, ir ids.IrID, t types.TypeID) types.TypeID {
	if v, ok := c.variants[ir]; ok && v.Variant.Kind == types.VariantNamed {
		c.errorf(diag.SemaExpectedValueFoundType, p.Span,
			fmt.Sprintf("expected value, found struct variant `%s`", c.ast.PathString(p))).Emit()
		return c.errType()
	}
	return c.instantiateFresh(t)
}

// resolveAdtPath resolves the path of a struct literal or a struct or
// tuple-struct pattern. It returns an instance of the ADT and the variant
// the path names.
func (c *Context) resolveAdtPath(p *ast.Path, ir ids.IrID) (types.TypeID, *types.VariantDef, bool) {
	root, ok := c.resolveRootPath(p, ir, posType)
	if !ok {
		return c.errType(), nil, false
	}
	if root.offset < len(p.Segments) {
		if _, ok := c.resolveSegments(p.Segments, root, ir); !ok {
			return c.errType(), nil, false
		}
		v, ok := c.variants[ir]
		if !ok {
			c.errorf(diag.SemaExpectedTypeFoundValue, p.Span,
				fmt.Sprintf("expected struct or variant, found associated item `%s`", c.ast.PathString(p))).Emit()
			return c.errType(), nil, false
		}
		return v.Adt, v.Variant, true
	}
	adt := c.instantiateFresh(root.ty)
	info, ok := c.types.AdtInfo(adt)
	if !ok || info.IsEnum() || len(info.Variants) == 0 {
		c.errorf(diag.SemaExpectedTypeFoundValue, p.Span,
			fmt.Sprintf("expected struct or variant, found `%s`", c.types.String(adt))).Emit()
		return c.errType(), nil, false
	}
	return adt, info.Variants[0], true
}
