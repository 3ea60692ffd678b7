// Package lower turns a resolved syntax tree into HIR declarations. It hands
// out IrIDs for every declaration and for every expression, pattern, type
// and statement node, LocalDefIDs for items, variants and fields, and fills
// the item, impl, trait, generic-param and lang-item tables of the registry.
package lower

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// LowerCrate lowers c and registers the result in maps.
func LowerCrate(maps *mappings.Mappings, c *ast.Crate, reporter diag.Reporter) *hir.Crate {
	l := &lowerer{
		maps:     maps,
		crate:    c.Num,
		ast:      c,
		reporter: reporter,
		langName: c.Strings.Intern("lang"),
	}
	root := c.Items.Get(c.Root)
	l.out = hir.NewCrate(ids.NodeMapping{Crate: c.Num, Node: root.Node}, c)
	rootItem := l.lowerItem(c.Root, ids.UnknownIrID, hir.OwnerFree)
	l.out.Root = rootItem.Ir()
	l.out.Mapping = rootItem.Mapping
	maps.InsertHirCrate(l.out)
	return l.out
}

type lowerer struct {
	maps     *mappings.Mappings
	crate    ids.CrateNum
	ast      *ast.Crate
	reporter diag.Reporter
	out      *hir.Crate
	langName source.StringID
	module   ids.IrID
}

func (l *lowerer) mapping(node ids.NodeID, span source.Span, def bool) ids.NodeMapping {
	mp := l.maps.NewMapping(l.crate, node, def)
	l.maps.InsertLocation(l.crate, mp.Ir, span)
	return mp
}

func (l *lowerer) lowerItem(id ast.ItemID, parent ids.IrID, owner hir.Owner) *hir.Item {
	src := l.ast.Items.Get(id)
	it := &hir.Item{
		Mapping: l.mapping(src.Node, src.Span, true),
		Name:    src.Name,
		Vis:     src.Vis,
		Span:    src.Span,
		AST:     id,
		Parent:  parent,
		Owner:   owner,
	}
	// parents precede their children in the crate's item list
	l.out.Add(it)

	switch src.Kind {
	case ast.ItemModule:
		it.Kind = hir.ItemModule
		m, _ := l.ast.Items.Module(id)
		it.Module = &hir.Module{}
		prev := l.module
		l.module = it.Ir()
		for _, child := range m.Items {
			it.Module.Items = append(it.Module.Items, l.lowerItem(child, it.Ir(), hir.OwnerFree).Ir())
		}
		l.module = prev

	case ast.ItemFn:
		it.Kind = hir.ItemFn
		fn, _ := l.ast.Items.Fn(id)
		it.Fn = l.lowerFn(fn)

	case ast.ItemStruct:
		it.Kind = hir.ItemStruct
		st, _ := l.ast.Items.Struct(id)
		it.Struct = &hir.Struct{
			Generics: l.lowerGenerics(&st.Generics),
			Kind:     st.Kind,
			Fields:   l.lowerFields(st.Fields),
		}

	case ast.ItemUnion:
		it.Kind = hir.ItemUnion
		un, _ := l.ast.Items.Union(id)
		it.Struct = &hir.Struct{
			Generics: l.lowerGenerics(&un.Generics),
			Kind:     ast.StructNamed,
			Fields:   l.lowerFields(un.Fields),
		}

	case ast.ItemEnum:
		it.Kind = hir.ItemEnum
		en, _ := l.ast.Items.Enum(id)
		it.Enum = &hir.Enum{Generics: l.lowerGenerics(&en.Generics)}
		for i := range en.Variants {
			v := l.lowerVariant(it, i, &en.Variants[i])
			it.Enum.Variants = append(it.Enum.Variants, v.Ir())
		}

	case ast.ItemTrait:
		it.Kind = hir.ItemTrait
		tr, _ := l.ast.Items.Trait(id)
		it.Trait = &hir.Trait{Generics: l.lowerGenerics(&tr.Generics)}
		for _, child := range tr.Items {
			sub := l.lowerItem(child, it.Ir(), hir.OwnerTrait)
			l.maps.InsertTraitItem(l.crate, it.Ir(), sub)
			it.Trait.Items = append(it.Trait.Items, sub.Ir())
		}

	case ast.ItemImpl:
		it.Kind = hir.ItemImpl
		im, _ := l.ast.Items.Impl(id)
		it.Impl = &hir.Impl{
			Generics: l.lowerGenerics(&im.Generics),
			Trait:    im.Trait,
			SelfType: im.SelfType,
		}
		l.lowerType(im.SelfType)
		if im.Trait != nil {
			l.lowerPathArgs(im.Trait)
		}
		// the item table indexes impl blocks, so the payload has to exist
		// before the block is registered
		l.maps.InsertImplBlock(it)
		for _, child := range im.Items {
			sub := l.lowerItem(child, it.Ir(), hir.OwnerImpl)
			l.maps.InsertImplItem(l.crate, it.Ir(), sub)
			it.Impl.Items = append(it.Impl.Items, sub.Ir())
		}

	case ast.ItemConst:
		it.Kind = hir.ItemConst
		c, _ := l.ast.Items.Const(id)
		l.lowerType(c.Type)
		l.lowerExpr(c.Value)
		it.Const = &hir.Const{Type: c.Type, Value: c.Value}

	case ast.ItemStatic:
		it.Kind = hir.ItemStatic
		s, _ := l.ast.Items.Static(id)
		l.lowerType(s.Type)
		l.lowerExpr(s.Value)
		it.Static = &hir.Static{Mut: s.Mut, Type: s.Type, Value: s.Value}

	case ast.ItemTypeAlias:
		it.Kind = hir.ItemTypeAlias
		a, _ := l.ast.Items.TypeAlias(id)
		it.Alias = &hir.TypeAlias{Generics: l.lowerGenerics(&a.Generics), Type: a.Type}
		l.lowerType(a.Type)

	case ast.ItemMacroRules:
		it.Kind = hir.ItemMacroRules
	}

	l.maps.InsertItem(it)
	l.langItem(src, it)
	return it
}

func (l *lowerer) lowerVariant(enum *hir.Item, index int, v *ast.Variant) *hir.Item {
	it := &hir.Item{
		Mapping: l.mapping(v.Node, v.Span, true),
		Kind:    hir.ItemVariant,
		Name:    v.Name,
		Vis:     ast.VisPublic,
		Span:    v.Span,
		Parent:  enum.Ir(),
		Variant: &hir.Variant{
			Enum:         enum.Ir(),
			Index:        index,
			Kind:         v.Kind,
			Fields:       l.lowerFields(v.Fields),
			Discriminant: v.Discriminant,
		},
	}
	l.lowerExpr(v.Discriminant)
	l.out.Add(it)
	l.maps.InsertItem(it)
	return it
}

func (l *lowerer) lowerFn(fn *ast.FnItem) *hir.Fn {
	out := &hir.Fn{
		Generics: l.lowerGenerics(&fn.Generics),
		Result:   fn.Result,
		Body:     fn.Body,
	}
	if sp := fn.Self; sp != nil {
		out.Self = &hir.SelfParam{
			Mapping: l.mapping(sp.Node, sp.Span, false),
			Kind:    sp.Kind,
			Mut:     sp.Mut,
			Span:    sp.Span,
		}
	}
	for i := range fn.Params {
		p := &fn.Params[i]
		out.Params = append(out.Params, &hir.Param{
			Mapping: l.mapping(p.Node, p.Span, false),
			Pat:     p.Pat,
			Type:    p.Type,
			Span:    p.Span,
		})
		l.lowerPat(p.Pat)
		l.lowerType(p.Type)
	}
	l.lowerType(fn.Result)
	l.lowerExpr(fn.Body)
	return out
}

func (l *lowerer) lowerGenerics(g *ast.Generics) []*hir.GenericParam {
	if g == nil || len(g.Params) == 0 {
		return nil
	}
	out := make([]*hir.GenericParam, 0, len(g.Params))
	for i := range g.Params {
		p := &g.Params[i]
		gp := &hir.GenericParam{
			Mapping: l.mapping(p.Node, p.Span, false),
			Name:    p.Name,
			Bounds:  p.Bounds,
			Default: p.Default,
			Span:    p.Span,
			Index:   i,
		}
		for j := range p.Bounds {
			l.lowerPathArgs(&p.Bounds[j])
		}
		l.lowerType(p.Default)
		l.maps.InsertGenericParam(l.crate, gp)
		out = append(out, gp)
	}
	return out
}

func (l *lowerer) lowerFields(fields []ast.Field) []*hir.Field {
	out := make([]*hir.Field, 0, len(fields))
	for i := range fields {
		f := &fields[i]
		out = append(out, &hir.Field{
			Mapping: l.mapping(f.Node, f.Span, true),
			Name:    f.Name,
			Type:    f.Type,
			Vis:     f.Vis,
			Span:    f.Span,
			Index:   i,
		})
		l.lowerType(f.Type)
	}
	return out
}

// langItem registers `#[lang = "..."]` attributes.
func (l *lowerer) langItem(src *ast.Item, it *hir.Item) {
	value, ok := src.AttrValue(l.langName)
	if !ok {
		return
	}
	name := l.ast.NameOf(value)
	lang, ok := mappings.LangItemFromString(name)
	if !ok {
		diag.ReportError(l.reporter, diag.SemaUnknownLangItem, src.Span, fmt.Sprintf("unknown lang item `%s`", name)).Emit()
		return
	}
	if !l.maps.InsertLangItem(l.crate, lang, it.DefID()) {
		prev, _ := l.maps.LookupLangItem(l.crate, lang)
		b := diag.ReportError(l.reporter, diag.SemaDuplicateLangItem, src.Span, fmt.Sprintf("duplicate lang item `%s`", name))
		if other, ok := l.maps.LookupDefID(prev); ok {
			b.WithNote(other.Span, "first defined here")
		}
		b.Emit()
	}
}
