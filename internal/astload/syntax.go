package astload

import (
	"fmt"
	"strings"
	"unicode"

	"fortio.org/safecast"

	"oxbow/internal/ast"
	"oxbow/internal/source"
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokPunct
)

type token struct {
	kind tokKind
	text string
	off  int
}

var puncts = []string{"::", "->", "&", "[", "]", ";", "(", ")", ",", "!", "<", ">", "=", "+", ":", "'", "-"}

func lex(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		r := rune(s[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '_' || unicode.IsLetter(r):
			j := i + 1
			for j < len(s) && (s[j] == '_' || unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j]))) {
				j++
			}
			out = append(out, token{tokIdent, s[i:j], i})
			i = j
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(s) && (s[j] == '_' || unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j]))) {
				j++
			}
			out = append(out, token{tokInt, s[i:j], i})
			i = j
		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(s[i:], p) {
					out = append(out, token{tokPunct, p, i})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
			}
		}
	}
	return append(out, token{kind: tokEOF, off: len(s)}), nil
}

// syntax parses the path, type and binding strings embedded in a crate
// description. base is the span of the YAML scalar the text came from.
type syntax struct {
	b    *ast.Builder
	toks []token
	pos  int
	base source.Span
	src  string
}

func newSyntax(b *ast.Builder, text string, base source.Span) (*syntax, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	return &syntax{b: b, toks: toks, base: base, src: text}, nil
}

func (p *syntax) peek() token { return p.toks[p.pos] }

func (p *syntax) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *syntax) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *syntax) at(text string) bool {
	t := p.peek()
	return t.kind != tokEOF && t.kind != tokInt && t.text == text
}

func (p *syntax) accept(text string) bool {
	if p.at(text) {
		p.advance()
		return true
	}
	return false
}

func (p *syntax) expect(text string) error {
	if !p.accept(text) {
		return p.errorf("expected `%s`", text)
	}
	return nil
}

func (p *syntax) errorf(format string, args ...any) error {
	t := p.peek()
	found := t.text
	if t.kind == tokEOF {
		found = "end of input"
	}
	return fmt.Errorf("%s in %q, found %s", fmt.Sprintf(format, args...), p.src, found)
}

// span maps a token back into the YAML file. Quoted scalars shift by one
// column; the approximation is only used for diagnostics.
func (p *syntax) span(t token) source.Span {
	start, err := safecast.Conv[uint32](t.off)
	if err != nil {
		return p.base
	}
	n, err := safecast.Conv[uint32](len(t.text))
	if err != nil {
		n = 0
	}
	return source.Span{File: p.base.File, Start: p.base.Start + start, End: p.base.Start + start + n}
}

func (p *syntax) spanFrom(start token) source.Span {
	sp := p.span(start)
	if p.pos > 0 {
		sp = sp.Cover(p.span(p.toks[p.pos-1]))
	}
	return sp
}

func (p *syntax) done() error {
	if p.peek().kind != tokEOF {
		return p.errorf("unexpected trailing input")
	}
	return nil
}

func isIdent(t token) bool {
	return t.kind == tokIdent && t.text != "as" && t.text != "mut"
}

// path := ['::'] segment { '::' segment }
func (p *syntax) path() (ast.Path, error) {
	start := p.peek()
	var segs []ast.PathSegment
	for {
		seg, err := p.segment()
		if err != nil {
			return ast.Path{}, err
		}
		segs = append(segs, seg)
		if !p.at("::") || p.peekAt(1).text == "<" {
			break
		}
		p.advance()
	}
	return ast.Path{Segments: segs, Span: p.spanFrom(start)}, nil
}

// segment := ident [ ['::'] '<' type {',' type} '>' ]
func (p *syntax) segment() (ast.PathSegment, error) {
	t := p.peek()
	if !isIdent(t) {
		return ast.PathSegment{}, p.errorf("expected path segment")
	}
	p.advance()
	var generics []ast.TypeID
	if p.at("<") || (p.at("::") && p.peekAt(1).text == "<") {
		p.accept("::")
		p.advance()
		for !p.at(">") {
			ty, err := p.typ()
			if err != nil {
				return ast.PathSegment{}, err
			}
			generics = append(generics, ty)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(">"); err != nil {
			return ast.PathSegment{}, err
		}
	}
	return p.b.Segment(p.span(t), t.text, generics...), nil
}

// qualified := '<' type ['as' path] '>' '::' segment {'::' segment}
func (p *syntax) qualified() (ast.QualifiedPath, error) {
	start := p.peek()
	if err := p.expect("<"); err != nil {
		return ast.QualifiedPath{}, err
	}
	self, err := p.typ()
	if err != nil {
		return ast.QualifiedPath{}, err
	}
	q := ast.QualifiedPath{Self: self}
	if p.accept("as") {
		tr, err := p.path()
		if err != nil {
			return ast.QualifiedPath{}, err
		}
		q.Trait = &tr
	}
	if err := p.expect(">"); err != nil {
		return ast.QualifiedPath{}, err
	}
	for p.accept("::") {
		seg, err := p.segment()
		if err != nil {
			return ast.QualifiedPath{}, err
		}
		q.Segments = append(q.Segments, seg)
	}
	if len(q.Segments) == 0 {
		return ast.QualifiedPath{}, p.errorf("qualified path needs an associated item")
	}
	q.Span = p.spanFrom(start)
	return q, nil
}

func (p *syntax) typ() (ast.TypeID, error) {
	start := p.peek()
	switch {
	case p.accept("&"):
		mut := p.accept("mut")
		elem, err := p.typ()
		if err != nil {
			return ast.NoTypeID, err
		}
		return p.b.RefType(p.spanFrom(start), mut, elem), nil
	case p.accept("["):
		elem, err := p.typ()
		if err != nil {
			return ast.NoTypeID, err
		}
		if err := p.expect(";"); err != nil {
			return ast.NoTypeID, err
		}
		length, err := p.constExpr()
		if err != nil {
			return ast.NoTypeID, err
		}
		if err := p.expect("]"); err != nil {
			return ast.NoTypeID, err
		}
		return p.b.ArrayType(p.spanFrom(start), elem, length), nil
	case p.accept("("):
		var elems []ast.TypeID
		for !p.at(")") {
			ty, err := p.typ()
			if err != nil {
				return ast.NoTypeID, err
			}
			elems = append(elems, ty)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(")"); err != nil {
			return ast.NoTypeID, err
		}
		if len(elems) == 1 && p.toks[p.pos-2].text != "," {
			return elems[0], nil
		}
		return p.b.TupleType(p.spanFrom(start), elems...), nil
	case p.accept("!"):
		return p.b.NeverType(p.spanFrom(start)), nil
	case p.at("_"):
		p.advance()
		return p.b.InferType(p.spanFrom(start)), nil
	case p.at("<"):
		q, err := p.qualified()
		if err != nil {
			return ast.NoTypeID, err
		}
		return p.b.QualPathType(q), nil
	}
	path, err := p.path()
	if err != nil {
		return ast.NoTypeID, err
	}
	return p.b.PathType(path), nil
}

// constExpr := ['-'] int | path
func (p *syntax) constExpr() (ast.ExprID, error) {
	start := p.peek()
	neg := p.accept("-")
	if t := p.peek(); t.kind == tokInt {
		p.advance()
		lit := p.intLit(t)
		if neg {
			return p.b.Unary(p.spanFrom(start), ast.UnNeg, lit), nil
		}
		return lit, nil
	}
	if neg {
		return ast.NoExprID, p.errorf("expected integer after `-`")
	}
	path, err := p.path()
	if err != nil {
		return ast.NoExprID, err
	}
	return p.b.PathExpr(path), nil
}

func (p *syntax) intLit(t token) ast.ExprID {
	value, suffix := splitSuffix(t.text)
	return p.b.Lit(p.span(t), ast.LitInt, value, suffix)
}

var numericSuffixes = []string{"i8", "i16", "i32", "i64", "isize", "u8", "u16", "u32", "u64", "usize", "f32", "f64"}

// splitSuffix separates a type suffix from a numeric literal.
func splitSuffix(text string) (value, suffix string) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		// hex digits swallow `f32`/`f64`; only integer suffixes apply
		for _, s := range numericSuffixes[:10] {
			if strings.HasSuffix(text, s) && len(text) > len(s)+2 {
				return strings.TrimSuffix(strings.TrimSuffix(text, s), "_"), s
			}
		}
		return text, ""
	}
	for _, s := range numericSuffixes {
		if strings.HasSuffix(text, s) && len(text) > len(s) {
			return strings.TrimSuffix(strings.TrimSuffix(text, s), "_"), s
		}
	}
	return text, ""
}

// binding := ['mut'] (ident | '_') [':' type]
func (p *syntax) binding() (ast.PatID, ast.TypeID, error) {
	start := p.peek()
	mut := p.accept("mut")
	t := p.peek()
	if !isIdent(t) {
		return ast.NoPatID, ast.NoTypeID, p.errorf("expected binding name")
	}
	p.advance()
	var pat ast.PatID
	if t.text == "_" {
		pat = p.b.WildPat(p.spanFrom(start))
	} else {
		pat = p.b.IdentPat(p.spanFrom(start), t.text, mut)
	}
	ty := ast.NoTypeID
	if p.accept(":") {
		var err error
		if ty, err = p.typ(); err != nil {
			return ast.NoPatID, ast.NoTypeID, err
		}
	}
	return pat, ty, nil
}

// generic := ident [':' path {'+' path}] ['=' type]
func (p *syntax) generic() (ast.GenericParam, error) {
	start := p.peek()
	if !isIdent(start) {
		return ast.GenericParam{}, p.errorf("expected generic parameter name")
	}
	p.advance()
	var bounds []ast.Path
	if p.accept(":") {
		for {
			b, err := p.path()
			if err != nil {
				return ast.GenericParam{}, err
			}
			bounds = append(bounds, b)
			if !p.accept("+") {
				break
			}
		}
	}
	gp := p.b.GenericParam(p.span(start), start.text, bounds...)
	if p.accept("=") {
		def, err := p.typ()
		if err != nil {
			return ast.GenericParam{}, err
		}
		gp.Default = def
	}
	return gp, nil
}

// selfParam := ['&' ['mut']] ['mut'] 'self'
func (p *syntax) selfParam() (*ast.SelfParam, error) {
	start := p.peek()
	kind := ast.SelfValue
	if p.accept("&") {
		kind = ast.SelfRef
		if p.accept("mut") {
			kind = ast.SelfRefMut
		}
	}
	mut := p.accept("mut")
	if !p.accept("self") {
		return nil, p.errorf("expected `self`")
	}
	return p.b.SelfParam(p.spanFrom(start), kind, mut), nil
}
