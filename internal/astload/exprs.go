package astload

import (
	"strings"

	"gopkg.in/yaml.v3"

	"oxbow/internal/ast"
)

var binaryOps = map[string]ast.BinaryOp{
	"+": ast.BinAdd, "add": ast.BinAdd,
	"-": ast.BinSub, "sub": ast.BinSub,
	"*": ast.BinMul, "mul": ast.BinMul,
	"/": ast.BinDiv, "div": ast.BinDiv,
	"%": ast.BinRem, "rem": ast.BinRem,
	"&&": ast.BinAnd, "and": ast.BinAnd,
	"||": ast.BinOr, "or": ast.BinOr,
	"==": ast.BinEq, "eq": ast.BinEq,
	"!=": ast.BinNe, "ne": ast.BinNe,
	"<": ast.BinLt, "lt": ast.BinLt,
	"<=": ast.BinLe, "le": ast.BinLe,
	">": ast.BinGt, "gt": ast.BinGt,
	">=": ast.BinGe, "ge": ast.BinGe,
}

var unaryOps = map[string]ast.UnaryOp{
	"neg":   ast.UnNeg,
	"not":   ast.UnNot,
	"deref": ast.UnDeref,
}

func (l *loader) stmts(n *yaml.Node) []ast.StmtID {
	var out []ast.StmtID
	for _, sn := range l.seq(n) {
		if id := l.stmt(sn); id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}

// stmt reads `let`, `item`, `expr` (no semicolon) entries; anything else
// is an expression statement terminated by a semicolon.
func (l *loader) stmt(n *yaml.Node) ast.StmtID {
	sp := l.span(n)
	m, ok := l.mapping(n)
	if !ok {
		return l.b.ExprStmt(sp, l.expr(n), true)
	}
	switch m.kind() {
	case "let":
		l.allow(m, "type", "init")
		pat, ty := l.letBinding(m.head())
		if tn := m.get("type"); tn != nil {
			if ty.IsValid() {
				l.errorf(tn, "type given twice")
			}
			ty = l.typ(tn)
		}
		return l.b.Let(sp, pat, ty, l.optExpr(m.get("init")))
	case "item":
		l.allow(m)
		it := l.item(m.head())
		if !it.IsValid() {
			return ast.NoStmtID
		}
		return l.b.ItemStmt(sp, it)
	case "expr":
		l.allow(m)
		return l.b.ExprStmt(sp, l.expr(m.head()), false)
	}
	return l.b.ExprStmt(sp, l.expr(n), true)
}

func (l *loader) letBinding(n *yaml.Node) (ast.PatID, ast.TypeID) {
	if n.Kind != yaml.ScalarNode || strings.Contains(n.Value, "::") {
		return l.pat(n), ast.NoTypeID
	}
	p, ok := l.syntax(n)
	if !ok {
		return ast.NoPatID, ast.NoTypeID
	}
	pat, ty, err := p.binding()
	if !l.finish(n, p, err) {
		return ast.NoPatID, ast.NoTypeID
	}
	return pat, ty
}

func (l *loader) optExpr(n *yaml.Node) ast.ExprID {
	if n == nil {
		return ast.NoExprID
	}
	return l.expr(n)
}

func (l *loader) exprs(n *yaml.Node) []ast.ExprID {
	var out []ast.ExprID
	for _, en := range l.seq(n) {
		out = append(out, l.expr(en))
	}
	return out
}

// block reads a list of statements or a single expression as a block.
func (l *loader) block(n *yaml.Node) ast.ExprID {
	if n == nil {
		return l.b.Block(l.span(n), nil, ast.NoExprID)
	}
	if n.Kind == yaml.SequenceNode {
		return l.b.Block(l.span(n), l.stmts(n), ast.NoExprID)
	}
	if m, ok := l.mapping(n); ok && m.kind() == "block" {
		return l.expr(n)
	}
	return l.b.Block(l.span(n), nil, l.expr(n))
}

func (l *loader) label(n *yaml.Node) ast.Label {
	if n == nil {
		return ast.Label{}
	}
	return l.b.Label(l.span(n), strings.TrimPrefix(l.str(n), "'"))
}

func (l *loader) expr(n *yaml.Node) ast.ExprID {
	sp := l.span(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return l.scalarExpr(n)
	case yaml.SequenceNode:
		l.errorf(n, "a list is not an expression; use `tuple`, `array` or `block`")
		return l.b.Tuple(sp)
	case yaml.AliasNode:
		l.errorf(n, "YAML aliases are not expressions; quote strings starting with `&` or `*`")
		return l.b.Tuple(sp)
	}
	m, ok := l.mapping(n)
	if !ok || len(m.keys) == 0 {
		l.errorf(n, "empty expression")
		return l.b.Tuple(sp)
	}
	head := m.head()
	if op, ok := binaryOps[m.kind()]; ok {
		l.allow(m)
		operands := l.exprs(head)
		if len(operands) != 2 {
			l.errorf(head, "`%s` takes two operands", m.kind())
			return l.b.Tuple(sp)
		}
		return l.b.Binary(sp, op, operands[0], operands[1])
	}
	if op, ok := unaryOps[m.kind()]; ok {
		l.allow(m)
		return l.b.Unary(sp, op, l.expr(head))
	}
	switch m.kind() {
	case "call":
		l.allow(m, "args")
		return l.b.Call(sp, l.expr(head), l.exprs(m.get("args"))...)
	case "method":
		l.allow(m, "recv", "args")
		recv := m.get("recv")
		if recv == nil {
			l.errorf(n, "method call needs `recv`")
			return l.b.Tuple(sp)
		}
		p, ok := l.syntax(head)
		if !ok {
			return l.b.Tuple(sp)
		}
		seg, err := p.segment()
		if !l.finish(head, p, err) {
			return l.b.Tuple(sp)
		}
		return l.b.MethodCall(sp, l.expr(recv), seg, l.exprs(m.get("args"))...)
	case "block":
		l.allow(m, "tail")
		return l.b.Block(sp, l.stmts(m.get("block")), l.optExpr(m.get("tail")))
	case "assign":
		l.allow(m)
		parts := l.exprs(head)
		if len(parts) != 2 {
			l.errorf(head, "`assign` takes a target and a value")
			return l.b.Tuple(sp)
		}
		return l.b.Assign(sp, parts[0], parts[1])
	case "if":
		l.allow(m, "then", "else")
		els := ast.NoExprID
		if en := m.get("else"); en != nil {
			if em, ok := l.mapping(en); ok && em.kind() == "if" {
				els = l.expr(en)
			} else {
				els = l.block(en)
			}
		}
		return l.b.If(sp, l.expr(head), l.block(m.get("then")), els)
	case "loop":
		l.allow(m, "label")
		return l.b.Loop(sp, l.label(m.get("label")), l.block(m.get("loop")))
	case "while":
		l.allow(m, "label", "do")
		return l.b.While(sp, l.label(m.get("label")), l.expr(head), l.block(m.get("do")))
	case "break":
		l.allow(m, "label")
		return l.b.Break(sp, l.label(m.get("label")), l.optExpr(m.get("break")))
	case "continue":
		l.allow(m)
		return l.b.Continue(sp, l.label(m.get("continue")))
	case "return":
		l.allow(m)
		return l.b.Return(sp, l.optExpr(m.get("return")))
	case "match":
		l.allow(m, "arms")
		return l.b.Match(sp, l.expr(head), l.arms(m.get("arms"))...)
	case "struct":
		l.allow(m, "fields")
		path, ok := l.path(head)
		if !ok {
			return l.b.Tuple(sp)
		}
		var inits []ast.FieldInit
		if fn := m.get("fields"); fn != nil {
			fm, ok := l.mapping(fn)
			if !ok {
				l.errorf(fn, "struct fields must be a mapping")
			}
			for _, k := range fm.keys {
				inits = append(inits, l.b.FieldInit(l.span(fm.keyNodes[k]), k, l.expr(fm.vals[k])))
			}
		}
		return l.b.StructLit(sp, path, inits...)
	case "field":
		l.allow(m, "of")
		of := m.get("of")
		if of == nil {
			l.errorf(n, "field access needs `of`")
			return l.b.Tuple(sp)
		}
		return l.b.FieldAccess(sp, l.expr(of), l.str(head))
	case "tuple":
		l.allow(m)
		return l.b.Tuple(sp, l.exprs(m.get("tuple"))...)
	case "array":
		l.allow(m)
		return l.b.Array(sp, l.exprs(m.get("array"))...)
	case "ref", "refmut":
		l.allow(m)
		return l.b.Ref(sp, m.kind() == "refmut", l.expr(head))
	case "str":
		l.allow(m)
		return l.b.Lit(sp, ast.LitStr, head.Value, "")
	case "char":
		l.allow(m)
		return l.b.Lit(sp, ast.LitChar, head.Value, "")
	case "macro":
		l.allow(m, "args")
		path, ok := l.path(head)
		if !ok {
			return l.b.Tuple(sp)
		}
		return l.b.MacroCall(sp, path, l.exprs(m.get("args"))...)
	}
	l.errorf(m.keyNodes[m.kind()], "unknown expression `%s`", m.kind())
	return l.b.Tuple(sp)
}

// scalarExpr reads literals and paths: `1`, `2u8`, `1.5`, `true`, `()`,
// `'c'`, `x`, `a::b`, `f::<i32>` and `<T as Tr>::f`.
func (l *loader) scalarExpr(n *yaml.Node) ast.ExprID {
	sp := l.span(n)
	switch n.Tag {
	case "!!int":
		value, suffix := splitSuffix(n.Value)
		return l.b.Lit(sp, ast.LitInt, value, suffix)
	case "!!float":
		return l.b.Lit(sp, ast.LitFloat, n.Value, "")
	case "!!bool":
		return l.b.Lit(sp, ast.LitBool, strings.ToLower(n.Value), "")
	case "!!null":
		return l.b.Tuple(sp)
	}
	v := n.Value
	switch {
	case v == "()":
		return l.b.Tuple(sp)
	case len(v) >= 3 && v[0] == '\'' && v[len(v)-1] == '\'':
		return l.b.Lit(sp, ast.LitChar, v[1:len(v)-1], "")
	case v != "" && v[0] >= '0' && v[0] <= '9':
		value, suffix := splitSuffix(v)
		kind := ast.LitInt
		if strings.ContainsAny(value, ".eE") && !strings.HasPrefix(value, "0x") || strings.HasPrefix(suffix, "f") {
			kind = ast.LitFloat
		}
		return l.b.Lit(sp, kind, value, suffix)
	case strings.HasPrefix(v, "<"):
		p, ok := l.syntax(n)
		if !ok {
			return l.b.Tuple(sp)
		}
		q, err := p.qualified()
		if !l.finish(n, p, err) {
			return l.b.Tuple(sp)
		}
		return l.b.QualPathExpr(q)
	}
	path, ok := l.path(n)
	if !ok {
		return l.b.Tuple(sp)
	}
	return l.b.PathExpr(path)
}

func (l *loader) path(n *yaml.Node) (ast.Path, bool) {
	p, ok := l.syntax(n)
	if !ok {
		return ast.Path{}, false
	}
	path, err := p.path()
	return path, l.finish(n, p, err)
}

func (l *loader) arms(n *yaml.Node) []ast.MatchArm {
	var out []ast.MatchArm
	for _, an := range l.seq(n) {
		m, ok := l.mapping(an)
		if !ok || m.kind() != "pat" {
			l.errorf(an, "a match arm is `pat: ...` with `body` and optional `guard`")
			continue
		}
		l.allow(m, "guard", "body")
		body := m.get("body")
		if body == nil {
			l.errorf(an, "match arm needs a `body`")
			continue
		}
		out = append(out, l.b.MatchArm(l.span(an), l.pat(m.head()), l.optExpr(m.get("guard")), l.expr(body)))
	}
	return out
}

// pat reads `_`, `x`, `mut x`, `A::B`, literals, and the mappings
// `tuple`, `tuple_struct` (+ `elems`), `struct` (+ `fields`), `ref`,
// `refmut` and `lit`.
func (l *loader) pat(n *yaml.Node) ast.PatID {
	sp := l.span(n)
	if n.Kind == yaml.ScalarNode {
		switch {
		case n.Tag == "!!int" || n.Tag == "!!bool" || n.Tag == "!!float" ||
			(n.Value != "" && (n.Value[0] == '\'' || n.Value[0] >= '0' && n.Value[0] <= '9')):
			return l.b.LitPat(sp, l.scalarExpr(n))
		case n.Value == "_":
			return l.b.WildPat(sp)
		case strings.Contains(n.Value, "::"):
			path, ok := l.path(n)
			if !ok {
				return l.b.WildPat(sp)
			}
			return l.b.PathPat(path)
		}
		p, ok := l.syntax(n)
		if !ok {
			return l.b.WildPat(sp)
		}
		pat, ty, err := p.binding()
		if err == nil && ty.IsValid() {
			err = p.errorf("patterns take no type; use `type` on the `let`")
		}
		if !l.finish(n, p, err) {
			return l.b.WildPat(sp)
		}
		return pat
	}
	m, ok := l.mapping(n)
	if !ok || len(m.keys) == 0 {
		l.errorf(n, "malformed pattern")
		return l.b.WildPat(sp)
	}
	head := m.head()
	switch m.kind() {
	case "tuple":
		l.allow(m)
		return l.b.TuplePat(sp, l.pats(head)...)
	case "tuple_struct":
		l.allow(m, "elems")
		path, ok := l.path(head)
		if !ok {
			return l.b.WildPat(sp)
		}
		return l.b.TupleStructPat(sp, path, l.pats(m.get("elems"))...)
	case "struct":
		l.allow(m, "fields")
		path, ok := l.path(head)
		if !ok {
			return l.b.WildPat(sp)
		}
		var fields []ast.PatField
		if fn := m.get("fields"); fn != nil {
			fm, ok := l.mapping(fn)
			if !ok {
				l.errorf(fn, "struct pattern fields must be a mapping")
			}
			for _, k := range fm.keys {
				fields = append(fields, l.b.PatField(l.span(fm.keyNodes[k]), k, l.pat(fm.vals[k])))
			}
		}
		return l.b.StructPat(sp, path, fields...)
	case "ref", "refmut":
		l.allow(m)
		return l.b.RefPat(sp, m.kind() == "refmut", l.pat(head))
	case "lit":
		l.allow(m)
		return l.b.LitPat(sp, l.scalarExpr(head))
	}
	l.errorf(m.keyNodes[m.kind()], "unknown pattern `%s`", m.kind())
	return l.b.WildPat(sp)
}

func (l *loader) pats(n *yaml.Node) []ast.PatID {
	var out []ast.PatID
	for _, pn := range l.seq(n) {
		out = append(out, l.pat(pn))
	}
	return out
}
