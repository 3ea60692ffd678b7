package astload

import (
	"errors"
	"strings"
	"testing"

	"oxbow/internal/ast"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

const shapes = `
crate: shapes
items:
  - enum: Color
    vis: pub
    variants:
      - Red = 3
      - Green
      - Rgb: [u8, u8, u8]
      - Named: {name: "&str"}
  - struct: Point
    generics: ["T: Show + Clone = i32"]
    fields: {x: T, "priv y": T}
  - trait: Show
    lang: eq
    items:
      - fn: show
        self: "&self"
        result: i32
  - impl: Point<i32>
    trait: Show
    items:
      - fn: show
        self: "&self"
        result: i32
        tail: {field: x, of: self}
  - const: LEN
    type: usize
    value: {"+": [2, 1]}
  - fn: main
    params: ["mut n: [i32; LEN]", "_: &mut (i32, bool)"]
    body:
      - let: p
        type: Point<i32>
        init: {struct: Point, fields: {x: 1, y: 2u8}}
      - let: {tuple: [a, _]}
        init: {tuple: [1, true]}
      - method: show
        recv: p
      - call: "<Point<i32> as Show>::show"
        args: [{ref: p}]
      - match: a
        arms:
          - pat: 1
            body: ()
          - pat: Color::Red
            guard: {"==": [a, 2]}
            body: {block: [], tail: 0}
          - pat: {tuple_struct: Color::Rgb, elems: [r, _, _]}
            body: r
      - loop:
          - break: 5
            label: outer
        label: "'outer"
`

func load(t *testing.T, text string) (*ast.Crate, error) {
	t.Helper()
	return LoadString(source.NewFileSet(), mappings.New(), nil, "shapes.yaml", text)
}

func TestLoadBuildsItems(t *testing.T) {
	c, err := load(t, shapes)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.NameOf(c.Name); got != "shapes" {
		t.Fatalf("crate name %q", got)
	}
	root, _ := c.Items.Module(c.Root)
	if len(root.Items) != 6 {
		t.Fatalf("got %d items", len(root.Items))
	}

	enum, ok := c.Items.Enum(root.Items[0])
	if !ok || len(enum.Variants) != 4 {
		t.Fatalf("enum not loaded")
	}
	if enum.Variants[2].Kind != ast.StructTuple || len(enum.Variants[2].Fields) != 3 {
		t.Fatalf("tuple variant: %+v", enum.Variants[2])
	}
	if enum.Variants[3].Kind != ast.StructNamed {
		t.Fatalf("named variant kind %d", enum.Variants[3].Kind)
	}
	lit, ok := c.Exprs.Lit(enum.Variants[0].Discriminant)
	if !ok || c.NameOf(lit.Value) != "3" {
		t.Fatalf("discriminant not loaded")
	}

	st, _ := c.Items.Struct(root.Items[1])
	if st.Kind != ast.StructNamed || st.Fields[1].Vis != ast.VisPrivate || c.NameOf(st.Fields[1].Name) != "y" {
		t.Fatalf("struct fields: %+v", st.Fields)
	}
	gp := st.Generics.Params[0]
	if len(gp.Bounds) != 2 || !gp.Default.IsValid() {
		t.Fatalf("generic param: %+v", gp)
	}

	trait := c.Items.Get(root.Items[2])
	if len(trait.Attrs) != 1 || c.NameOf(trait.Attrs[0].Value) != "eq" {
		t.Fatalf("lang attribute missing")
	}

	impl, _ := c.Items.Impl(root.Items[3])
	if impl.Trait == nil || c.PathString(impl.Trait) != "Show" {
		t.Fatalf("impl trait not loaded")
	}
	self := c.Types.Get(impl.SelfType)
	if self.Kind != ast.TypePath || len(self.Path.Segments[0].Generics) != 1 {
		t.Fatalf("impl self type: %+v", self)
	}
}

func TestLoadFunctionBody(t *testing.T) {
	c, err := load(t, shapes)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	root, _ := c.Items.Module(c.Root)
	fn, _ := c.Items.Fn(root.Items[5])
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params", len(fn.Params))
	}
	arr := c.Types.Get(fn.Params[0].Type)
	if arr.Kind != ast.TypeArray {
		t.Fatalf("param type kind %d", arr.Kind)
	}
	if _, ok := c.Exprs.Path(arr.Len); !ok {
		t.Fatalf("array length must be a path to LEN")
	}
	if p := c.Pats.Get(fn.Params[0].Pat); p.Kind != ast.PatIdent || !p.Mut {
		t.Fatalf("first param pattern: %+v", p)
	}
	if ref := c.Types.Get(fn.Params[1].Type); ref.Kind != ast.TypeRef || !ref.Mut {
		t.Fatalf("second param type: %+v", ref)
	}

	body, _ := c.Exprs.Block(fn.Body)
	if len(body.Stmts) != 6 {
		t.Fatalf("got %d statements", len(body.Stmts))
	}
	let := c.Stmts.Get(body.Stmts[0])
	if let.Kind != ast.StmtLet || !let.Type.IsValid() {
		t.Fatalf("typed let: %+v", let)
	}
	call := c.Stmts.Get(body.Stmts[3])
	cd, ok := c.Exprs.Call(call.Init)
	if !ok {
		t.Fatalf("call statement not loaded: %+v", call)
	}
	q, ok := c.Exprs.QualPath(cd.Callee)
	if !ok || q.Qual.Trait == nil || len(q.Qual.Segments) != 1 {
		t.Fatalf("qualified callee not loaded")
	}
	m := c.Stmts.Get(body.Stmts[4])
	md, ok := c.Exprs.Match(m.Init)
	if !ok || len(md.Arms) != 3 || !md.Arms[1].Guard.IsValid() {
		t.Fatalf("match not loaded")
	}
	if c.Pats.Get(md.Arms[2].Pat).Kind != ast.PatTupleStruct {
		t.Fatalf("tuple struct pattern not loaded")
	}
	loop := c.Stmts.Get(body.Stmts[5])
	ld, ok := c.Exprs.Loop(loop.Init)
	if !ok || c.NameOf(ld.Label.Name) != "outer" {
		t.Fatalf("loop label not loaded")
	}
}

func TestLoadReportsEveryError(t *testing.T) {
	_, err := load(t, `
crate: bad
items:
  - fn: f
    params: ["x"]
  - widget: w
  - struct: S
    fields: {a: "&"}
    colour: red
`)
	if err == nil {
		t.Fatalf("malformed description accepted")
	}
	msg := err.Error()
	for _, want := range []string{"shapes.yaml:5:", "parameter needs a type", "unknown item kind `widget`", "unknown key `colour`"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q does not mention %q", msg, want)
		}
	}
	var le *Error
	if !errors.As(err, &le) || le.Line == 0 {
		t.Fatalf("errors must carry positions")
	}
}

func TestLoadRequiresCrateName(t *testing.T) {
	if _, err := load(t, "items: []\n"); err == nil {
		t.Fatalf("missing crate name accepted")
	}
}

func TestSplitSuffix(t *testing.T) {
	cases := []struct{ in, value, suffix string }{
		{"10", "10", ""},
		{"2u8", "2", "u8"},
		{"1_000_i64", "1_000", "i64"},
		{"0xffusize", "0xff", "usize"},
		{"0x1f32", "0x1f32", ""},
		{"1.5f32", "1.5", "f32"},
	}
	for _, tc := range cases {
		v, s := splitSuffix(tc.in)
		if v != tc.value || s != tc.suffix {
			t.Fatalf("splitSuffix(%q) = %q, %q", tc.in, v, s)
		}
	}
}
