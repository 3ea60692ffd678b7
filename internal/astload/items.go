package astload

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"oxbow/internal/ast"
)

func (l *loader) items(n *yaml.Node) []ast.ItemID {
	var out []ast.ItemID
	for _, in := range l.seq(n) {
		if id := l.item(in); id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}

func (l *loader) item(n *yaml.Node) ast.ItemID {
	m, ok := l.mapping(n)
	if !ok || len(m.keys) == 0 {
		l.errorf(n, "expected an item mapping such as `fn: name`")
		return ast.NoItemID
	}
	name := l.str(m.head())
	sp := l.span(n)
	vis := l.visibility(m.get("vis"))
	var id ast.ItemID
	switch m.kind() {
	case "fn":
		l.allow(m, "vis", "lang", "generics", "self", "params", "result", "body", "tail")
		id = l.b.Fn(sp, name, vis, l.fnItem(m))
	case "struct":
		l.allow(m, "vis", "lang", "generics", "fields")
		kind, fields := l.fields(m.get("fields"))
		id = l.b.Struct(sp, name, vis, ast.StructItem{Generics: l.generics(m.get("generics")), Kind: kind, Fields: fields})
	case "enum":
		l.allow(m, "vis", "lang", "generics", "variants")
		id = l.b.Enum(sp, name, vis, ast.EnumItem{Generics: l.generics(m.get("generics")), Variants: l.variants(m.get("variants"))})
	case "union":
		l.allow(m, "vis", "lang", "generics", "fields")
		kind, fields := l.fields(m.get("fields"))
		if kind != ast.StructNamed {
			l.errorf(n, "union `%s` needs named fields", name)
		}
		id = l.b.Union(sp, name, vis, ast.UnionItem{Generics: l.generics(m.get("generics")), Fields: fields})
	case "trait":
		l.allow(m, "vis", "lang", "generics", "items")
		id = l.b.Trait(sp, name, vis, ast.TraitItem{Generics: l.generics(m.get("generics")), Items: l.items(m.get("items"))})
	case "impl":
		l.allow(m, "trait", "generics", "items")
		id = l.impl(m)
	case "const":
		l.allow(m, "vis", "type", "value")
		id = l.b.Const(sp, name, vis, ast.ConstItem{Type: l.typ(m.get("type")), Value: l.optExpr(m.get("value"))})
	case "static":
		l.allow(m, "vis", "mut", "type", "value")
		id = l.b.Static(sp, name, vis, ast.StaticItem{Mut: l.flag(m.get("mut")), Type: l.typ(m.get("type")), Value: l.optExpr(m.get("value"))})
	case "type":
		l.allow(m, "vis", "generics", "target")
		id = l.b.TypeAlias(sp, name, vis, ast.TypeAliasItem{Generics: l.generics(m.get("generics")), Type: l.typ(m.get("target"))})
	case "mod":
		l.allow(m, "vis", "items")
		id = l.b.Module(sp, name, vis, l.items(m.get("items"))...)
	case "macro_rules":
		l.allow(m)
		id = l.b.MacroRules(sp, name)
	default:
		l.errorf(m.keyNodes[m.kind()], "unknown item kind `%s`", m.kind())
		return ast.NoItemID
	}
	if lang := m.get("lang"); lang != nil {
		l.b.AddAttr(id, l.span(lang), "lang", l.str(lang))
	}
	return id
}

func (l *loader) visibility(n *yaml.Node) ast.Visibility {
	switch v := l.str(n); v {
	case "", "priv":
		return ast.VisPrivate
	case "pub":
		return ast.VisPublic
	case "crate":
		return ast.VisCrate
	default:
		l.errorf(n, "unknown visibility `%s`", v)
		return ast.VisPrivate
	}
}

func (l *loader) fnItem(m mapping) ast.FnItem {
	fn := ast.FnItem{
		Generics: l.generics(m.get("generics")),
		Result:   ast.NoTypeID,
		Body:     ast.NoExprID,
	}
	if self := m.get("self"); self != nil {
		if p, ok := l.syntax(self); ok {
			sp, err := p.selfParam()
			if l.finish(self, p, err) {
				fn.Self = sp
			}
		}
	}
	for _, pn := range l.seq(m.get("params")) {
		p, ok := l.syntax(pn)
		if !ok {
			continue
		}
		pat, ty, err := p.binding()
		if err == nil && !ty.IsValid() {
			err = p.errorf("parameter needs a type")
		}
		if l.finish(pn, p, err) {
			fn.Params = append(fn.Params, l.b.Param(l.span(pn), pat, ty))
		}
	}
	if r := m.get("result"); r != nil {
		fn.Result = l.typ(r)
	}
	_, hasBody := m.vals["body"]
	_, hasTail := m.vals["tail"]
	if hasBody || hasTail {
		fn.Body = l.b.Block(l.span(m.node), l.stmts(m.get("body")), l.optExpr(m.get("tail")))
	}
	return fn
}

func (l *loader) generics(n *yaml.Node) ast.Generics {
	var g ast.Generics
	for _, gn := range l.seq(n) {
		p, ok := l.syntax(gn)
		if !ok {
			continue
		}
		gp, err := p.generic()
		if l.finish(gn, p, err) {
			g.Params = append(g.Params, gp)
		}
	}
	return g
}

// fields reads named fields from a mapping, tuple fields from a list and
// no fields at all as a unit struct.
func (l *loader) fields(n *yaml.Node) (ast.StructKind, []ast.Field) {
	if n == nil {
		return ast.StructUnit, nil
	}
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]ast.Field, 0, len(n.Content))
		for i, tn := range n.Content {
			out = append(out, l.b.Field(l.span(tn), strconv.Itoa(i), ast.VisPublic, l.typ(tn)))
		}
		return ast.StructTuple, out
	case yaml.MappingNode:
		m, _ := l.mapping(n)
		out := make([]ast.Field, 0, len(m.keys))
		for _, k := range m.keys {
			name, vis := k, ast.VisPublic
			if rest, ok := strings.CutPrefix(k, "priv "); ok {
				name, vis = strings.TrimSpace(rest), ast.VisPrivate
			}
			out = append(out, l.b.Field(l.span(m.keyNodes[k]), name, vis, l.typ(m.vals[k])))
		}
		return ast.StructNamed, out
	}
	l.errorf(n, "fields must be a mapping (named) or a list (tuple)")
	return ast.StructUnit, nil
}

// variants reads `Name`, `Name = 3`, `Name: [T]` or `Name: {x: T}`.
func (l *loader) variants(n *yaml.Node) []ast.Variant {
	var out []ast.Variant
	for _, vn := range l.seq(n) {
		switch vn.Kind {
		case yaml.ScalarNode:
			name, discr := vn.Value, ast.NoExprID
			if before, after, ok := strings.Cut(vn.Value, "="); ok {
				name = strings.TrimSpace(before)
				discr = l.scalarConst(vn, strings.TrimSpace(after))
			}
			out = append(out, l.b.Variant(l.span(vn), name, ast.StructUnit, nil, discr))
		case yaml.MappingNode:
			m, _ := l.mapping(vn)
			if len(m.keys) != 1 {
				l.errorf(vn, "a variant mapping has exactly one key")
				continue
			}
			kind, fields := l.fields(m.get(m.kind()))
			out = append(out, l.b.Variant(l.span(vn), m.kind(), kind, fields, ast.NoExprID))
		default:
			l.errorf(vn, "malformed variant")
		}
	}
	return out
}

func (l *loader) scalarConst(n *yaml.Node, text string) ast.ExprID {
	p, err := newSyntax(l.b, text, l.span(n))
	if err != nil {
		l.errorf(n, "%v", err)
		return ast.NoExprID
	}
	e, err := p.constExpr()
	if !l.finish(n, p, err) {
		return ast.NoExprID
	}
	return e
}

func (l *loader) impl(m mapping) ast.ItemID {
	im := ast.ImplItem{
		Generics: l.generics(m.get("generics")),
		SelfType: l.typ(m.head()),
		Items:    l.items(m.get("items")),
	}
	if tn := m.get("trait"); tn != nil {
		if p, ok := l.syntax(tn); ok {
			path, err := p.path()
			if l.finish(tn, p, err) {
				im.Trait = &path
			}
		}
	}
	return l.b.Impl(l.span(m.node), im)
}

// typ parses a type string; a missing node means unit.
func (l *loader) typ(n *yaml.Node) ast.TypeID {
	if n == nil {
		return ast.NoTypeID
	}
	p, ok := l.syntax(n)
	if !ok {
		return ast.NoTypeID
	}
	t, err := p.typ()
	if !l.finish(n, p, err) {
		return ast.NoTypeID
	}
	return t
}
