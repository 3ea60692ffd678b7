package typeck

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
)

// constState memoizes the value of a const item used in a constant
// expression.
type constState struct {
	busy  bool
	done  bool
	ok    bool
	value int64
}

// evalConst folds an integer constant expression: literals, negation,
// arithmetic, blocks with only a tail and paths to const items.
func (c *Context) evalConst(id ast.ExprID) (int64, bool) {
	e := c.ast.Exprs.Get(id)
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprLit:
		d, _ := c.ast.Exprs.Lit(id)
		if d.Kind != ast.LitInt {
			return 0, false
		}
		return parseIntLit(c.name(d.Value))
	case ast.ExprUnary:
		d, _ := c.ast.Exprs.Unary(id)
		if d.Op != ast.UnNeg {
			return 0, false
		}
		v, ok := c.evalConst(d.Operand)
		if !ok || v == math.MinInt64 {
			return 0, false
		}
		return -v, true
	case ast.ExprBinary:
		d, _ := c.ast.Exprs.Binary(id)
		l, ok := c.evalConst(d.Left)
		if !ok {
			return 0, false
		}
		r, ok := c.evalConst(d.Right)
		if !ok {
			return 0, false
		}
		return foldBinary(d.Op, l, r)
	case ast.ExprBlock:
		d, _ := c.ast.Exprs.Block(id)
		if len(d.Stmts) != 0 || !d.Tail.IsValid() {
			return 0, false
		}
		return c.evalConst(d.Tail)
	case ast.ExprPath:
		d, _ := c.ast.Exprs.Path(id)
		def, ok := c.resolvedNodes[c.irOf(e.Node)]
		if !ok && d.Path.Len() == 1 {
			def, ok = c.res.LookupResolvedName(d.Path.Segments[0].Node)
		}
		if !ok {
			return 0, false
		}
		it, ok := c.maps.LookupItemByNode(c.crate, def)
		if !ok || it.Kind != hir.ItemConst || it.Const.IsMandatory() {
			return 0, false
		}
		return c.constValue(it, e)
	}
	return 0, false
}

func (c *Context) constValue(it *hir.Item, use *ast.Expr) (int64, bool) {
	st := c.consts[it.Ir()]
	if st.done {
		return st.value, st.ok
	}
	if st.busy {
		c.errorf(diag.SemaRecursiveType, use.Span,
			fmt.Sprintf("cycle detected when evaluating constant `%s`", c.name(it.Name))).
			WithNote(it.Span, "constant declared here").
			Emit()
		return 0, false
	}
	c.consts[it.Ir()] = constState{busy: true}
	v, ok := c.evalConst(it.Const.Value)
	c.consts[it.Ir()] = constState{done: true, ok: ok, value: v}
	return v, ok
}

func parseIntLit(text string) (int64, bool) {
	s := strings.ReplaceAll(text, "_", "")
	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			s = s[2:]
		}
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// foldBinary applies op, failing on overflow and division by zero.
func foldBinary(op ast.BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case ast.BinAdd:
		s := l + r
		if (s > l) != (r > 0) {
			return 0, false
		}
		return s, true
	case ast.BinSub:
		s := l - r
		if (s < l) != (r > 0) {
			return 0, false
		}
		return s, true
	case ast.BinMul:
		if l == 0 || r == 0 {
			return 0, true
		}
		p := l * r
		if p/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
			return 0, false
		}
		return p, true
	case ast.BinDiv, ast.BinRem:
		if r == 0 || (l == math.MinInt64 && r == -1) {
			return 0, false
		}
		if op == ast.BinDiv {
			return l / r, true
		}
		return l % r, true
	}
	return 0, false
}
