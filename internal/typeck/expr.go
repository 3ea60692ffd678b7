package typeck

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/source"
	"oxbow/internal/types"
)

// maxAutoderef bounds the references followed for method calls and field
// accesses.
const maxAutoderef = 8

// checkBodies types every function body and every const and static
// initializer.
func (c *Context) checkBodies() {
	for _, it := range c.hir.Items {
		switch it.Kind {
		case hir.ItemFn:
			if it.Fn.HasBody() {
				c.checkFnBody(it)
			}
		case hir.ItemConst:
			if it.Const.Value.IsValid() {
				c.checkInitializer(it, it.Const.Value)
			}
		case hir.ItemStatic:
			c.checkInitializer(it, it.Static.Value)
		}
	}
}

func (c *Context) beginBody(result types.TypeID) {
	c.inBody = true
	c.fnResult = result
	c.loops = nil
	c.locals = make(map[ids.NodeID]bool)
}

func (c *Context) endBody() {
	c.inBody = false
	c.fnResult = types.NoTypeID
	c.locals = make(map[ids.NodeID]bool)
}

func (c *Context) checkFnBody(it *hir.Item) {
	fn, ok := c.types.FnInfo(c.nodeTypes[it.Ir()])
	if !ok {
		ice.Raise("typeck", "%s has no fn type", it)
	}
	result := fn.Result
	c.beginBody(result)
	defer c.endBody()

	if sp := it.Fn.Self; sp != nil {
		c.locals[sp.Mapping.Node] = true
	}
	for _, p := range it.Fn.Params {
		c.checkPat(p.Pat, c.nodeTypes[p.Mapping.Ir])
	}
	c.unify(c.tailSpan(it.Fn.Body), result, c.checkExpr(it.Fn.Body))
}

func (c *Context) checkInitializer(it *hir.Item, value ast.ExprID) {
	if !value.IsValid() {
		return
	}
	c.beginBody(types.NoTypeID)
	defer c.endBody()
	c.unify(c.ast.Exprs.Get(value).Span, c.nodeTypes[it.Ir()], c.checkExpr(value))
}

// tailSpan is where a block's value comes from: its tail expression when
// there is one.
func (c *Context) tailSpan(id ast.ExprID) source.Span {
	e := c.ast.Exprs.Get(id)
	if b, ok := c.ast.Exprs.Block(id); ok && b.Tail.IsValid() {
		return c.ast.Exprs.Get(b.Tail).Span
	}
	return e.Span
}

// checkExpr types an expression and records the result against its IrID.
func (c *Context) checkExpr(id ast.ExprID) types.TypeID {
	if !id.IsValid() {
		return c.types.Builtins().Unit
	}
	e := c.ast.Exprs.Get(id)
	ir := c.irOf(e.Node)
	return c.record(ir, c.exprType(id, e, ir))
}

func (c *Context) exprType(id ast.ExprID, e *ast.Expr, ir ids.IrID) types.TypeID {
	exprs := c.ast.Exprs
	b := c.types.Builtins()
	switch e.Kind {
	case ast.ExprLit:
		d, _ := exprs.Lit(id)
		return c.checkLit(e, d)
	case ast.ExprPath:
		d, _ := exprs.Path(id)
		return c.resolveValuePath(&d.Path, ir)
	case ast.ExprQualPath:
		d, _ := exprs.QualPath(id)
		return c.resolveQualified(&d.Qual, ir, posValue)
	case ast.ExprCall:
		d, _ := exprs.Call(id)
		return c.checkCall(e, d)
	case ast.ExprMethodCall:
		d, _ := exprs.MethodCall(id)
		return c.checkMethodCall(e, d, ir)
	case ast.ExprBlock:
		d, _ := exprs.Block(id)
		return c.checkBlock(d)
	case ast.ExprAssign:
		d, _ := exprs.Assign(id)
		target := c.checkExpr(d.Target)
		c.unify(exprs.Get(d.Value).Span, target, c.checkExpr(d.Value))
		return b.Unit
	case ast.ExprBinary:
		d, _ := exprs.Binary(id)
		return c.checkBinary(e, d, ir)
	case ast.ExprUnary:
		d, _ := exprs.Unary(id)
		return c.checkUnary(e, d, ir)
	case ast.ExprIf:
		d, _ := exprs.If(id)
		return c.checkIf(e, d)
	case ast.ExprLoop, ast.ExprWhile:
		d, _ := exprs.Loop(id)
		return c.checkLoop(e, d)
	case ast.ExprBreak, ast.ExprContinue:
		d, _ := exprs.Break(id)
		return c.checkBreak(e, d)
	case ast.ExprReturn:
		d, _ := exprs.Return(id)
		v := c.checkExpr(d.Value)
		if c.fnResult != types.NoTypeID {
			c.unify(e.Span, c.fnResult, v)
		}
		return b.Never
	case ast.ExprMatch:
		d, _ := exprs.Match(id)
		return c.checkMatch(d)
	case ast.ExprStruct:
		d, _ := exprs.Struct(id)
		return c.checkStructLit(e, d, ir)
	case ast.ExprField:
		d, _ := exprs.Field(id)
		return c.checkField(d, ir)
	case ast.ExprTuple:
		d, _ := exprs.List(id)
		elems := make([]types.TypeID, len(d.Elems))
		for i, el := range d.Elems {
			elems[i] = c.checkExpr(el)
		}
		return c.types.RegisterTuple(elems)
	case ast.ExprArray:
		d, _ := exprs.List(id)
		return c.checkArray(d)
	case ast.ExprRef:
		d, _ := exprs.Ref(id)
		return c.types.Intern(types.MakeReference(c.checkExpr(d.Operand), d.Mut))
	case ast.ExprMacroCall:
		// unexpanded macros have no type; their arguments are still checked
		d, _ := exprs.MacroCall(id)
		for _, arg := range d.Args {
			c.checkExpr(arg)
		}
		return c.errType()
	}
	ice.Raise("typeck", "unknown expression kind %s", e.Kind)
	return c.errType()
}

func (c *Context) checkLit(e *ast.Expr, d *ast.ExprLitData) types.TypeID {
	b := c.types.Builtins()
	switch d.Kind {
	case ast.LitInt, ast.LitFloat:
		if d.Suffix != source.NoStringID {
			suffix := c.name(d.Suffix)
			t, ok := c.types.Primitive(suffix)
			if !ok || !c.types.MustLookup(t).IsNumeric() ||
				d.Kind == ast.LitFloat && c.types.KindOf(t) != types.KindFloat {
				c.errorf(diag.SemaTypeMismatch, e.Span, fmt.Sprintf("invalid suffix `%s` for number literal", suffix)).Emit()
				return c.errType()
			}
			return t
		}
		if d.Kind == ast.LitFloat {
			return c.types.NewVar(types.InferFloat)
		}
		return c.types.NewVar(types.InferInt)
	case ast.LitBool:
		return b.Bool
	case ast.LitChar:
		return b.Char
	case ast.LitStr:
		return c.types.Intern(types.MakeReference(b.Str, false))
	}
	return c.errType()
}

func (c *Context) checkCall(e *ast.Expr, d *ast.ExprCallData) types.TypeID {
	callee := c.checkExpr(d.Callee)
	if c.types.IsError(callee) {
		for _, arg := range d.Args {
			c.checkExpr(arg)
		}
		return c.errType()
	}
	fn, ok := c.types.FnInfo(callee)
	if !ok {
		c.errorf(diag.SemaNotCallable, c.ast.Exprs.Get(d.Callee).Span,
			fmt.Sprintf("expected function, found `%s`", c.types.String(callee))).Emit()
		for _, arg := range d.Args {
			c.checkExpr(arg)
		}
		return c.errType()
	}
	c.checkArgs(e.Span, fn.Name, fn.Params, d.Args)
	return fn.Result
}

// checkArgs checks call arguments against the parameter types.
func (c *Context) checkArgs(span source.Span, name string, params []types.TypeID, args []ast.ExprID) {
	if len(params) != len(args) {
		c.errorf(diag.SemaArgCount, span, fmt.Sprintf("`%s` takes %d arguments but %d were supplied", name, len(params), len(args))).Emit()
	}
	for i, arg := range args {
		t := c.checkExpr(arg)
		if i < len(params) {
			c.unify(c.ast.Exprs.Get(arg).Span, params[i], t)
		}
	}
}

// checkMethodCall probes the receiver for a method, following references
// until one is found.
func (c *Context) checkMethodCall(e *ast.Expr, d *ast.ExprMethodCallData, ir ids.IrID) types.TypeID {
	recv := c.checkExpr(d.Receiver)
	name := c.name(d.Method.Name)
	fail := func() types.TypeID {
		for _, arg := range d.Args {
			c.checkExpr(arg)
		}
		return c.errType()
	}
	t := c.types.Resolve(recv)
	var cands []candidate
	for depth := 0; ; depth++ {
		if c.types.IsError(t) {
			return fail()
		}
		if c.types.IsUnboundVar(t) {
			c.errorf(diag.SemaCannotInfer, d.Method.Span, fmt.Sprintf("type annotations needed before calling `%s`", name)).Emit()
			return fail()
		}
		cands = c.newProbe(t, name, true).run()
		if len(cands) > 0 || depth == maxAutoderef {
			break
		}
		tt := c.types.MustLookup(t)
		if tt.Kind != types.KindRef {
			break
		}
		t = c.types.Resolve(tt.Elem)
	}
	switch len(cands) {
	case 0:
		c.errorf(diag.SemaUnknownAssociatedItem, d.Method.Span,
			fmt.Sprintf("no method named `%s` found for `%s`", name, c.types.String(recv))).Emit()
		return fail()
	case 1:
	default:
		c.ambiguous(&d.Method, name, cands)
		return fail()
	}
	c.receivers[ir] = t
	mt, ok := c.applyCandidate(cands[0], &d.Method, t, ir)
	if !ok {
		return fail()
	}
	fn, ok := c.types.FnInfo(mt)
	if !ok || len(fn.Params) == 0 {
		ice.Raise("typeck", "method `%s` has no self parameter", name)
	}
	self := fn.Params[0]
	if st := c.types.MustLookup(c.types.Resolve(self)); st.Kind == types.KindRef && c.types.KindOf(t) != types.KindRef {
		// autoref
		self = st.Elem
	}
	c.unify(c.ast.Exprs.Get(d.Receiver).Span, self, t)
	c.checkArgs(e.Span, name, fn.Params[1:], d.Args)
	return fn.Result
}

// checkBlock types the statements of a block. A block whose statements
// diverge without a tail has type `!`.
func (c *Context) checkBlock(d *ast.ExprBlockData) types.TypeID {
	diverges := false
	for _, sid := range d.Stmts {
		if c.checkStmt(sid) {
			diverges = true
		}
	}
	if d.Tail.IsValid() {
		return c.checkExpr(d.Tail)
	}
	if diverges {
		return c.types.Builtins().Never
	}
	return c.types.Builtins().Unit
}

func (c *Context) isNever(t types.TypeID) bool {
	return c.types.KindOf(c.types.Resolve(t)) == types.KindNever
}

// join unifies the types of two branches. A diverging branch takes the
// type of the other.
func (c *Context) join(span source.Span, a, b types.TypeID) types.TypeID {
	switch {
	case a == types.NoTypeID || c.isNever(a):
		return b
	case c.isNever(b):
		return a
	}
	return c.unify(span, a, b)
}

func (c *Context) checkIf(e *ast.Expr, d *ast.ExprIfData) types.TypeID {
	cond := c.ast.Exprs.Get(d.Cond)
	c.unify(cond.Span, c.types.Builtins().Bool, c.checkExpr(d.Cond))
	then := c.checkExpr(d.Then)
	if !d.Else.IsValid() {
		c.unify(c.tailSpan(d.Then), c.types.Builtins().Unit, then)
		return c.types.Builtins().Unit
	}
	els := c.checkExpr(d.Else)
	return c.join(c.tailSpan(d.Else), then, els)
}

func (c *Context) checkLoop(e *ast.Expr, d *ast.ExprLoopData) types.TypeID {
	b := c.types.Builtins()
	frame := &loopFrame{node: e.Node, isLoop: e.Kind == ast.ExprLoop, result: c.types.NewVar(types.InferGeneral)}
	if d.Cond.IsValid() {
		c.unify(c.ast.Exprs.Get(d.Cond).Span, b.Bool, c.checkExpr(d.Cond))
	}
	c.loops = append(c.loops, frame)
	body := c.checkExpr(d.Body)
	c.loops = c.loops[:len(c.loops)-1]
	if !c.isNever(body) {
		c.unify(c.tailSpan(d.Body), b.Unit, body)
	}
	if !frame.isLoop {
		return b.Unit
	}
	if !frame.hasBreak {
		return b.Never
	}
	return frame.result
}

// loopTarget finds the loop a break or continue leaves. Labels name the
// loop through the label definition's parent.
func (c *Context) loopTarget(label ast.Label) *loopFrame {
	if label.IsSet() {
		def, ok := c.res.LookupResolvedLabel(label.Node)
		if !ok {
			return nil
		}
		d, ok := c.res.LookupDefinition(def)
		if !ok {
			ice.Raise("typeck", "label %d has no definition", def)
		}
		for i := len(c.loops) - 1; i >= 0; i-- {
			if c.loops[i].node == d.Parent {
				return c.loops[i]
			}
		}
		return nil
	}
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}

func (c *Context) checkBreak(e *ast.Expr, d *ast.ExprBreakData) types.TypeID {
	frame := c.loopTarget(d.Label)
	value := c.types.Builtins().Unit
	if d.Value.IsValid() {
		value = c.checkExpr(d.Value)
	}
	if frame == nil || e.Kind == ast.ExprContinue {
		return c.types.Builtins().Never
	}
	frame.hasBreak = true
	switch {
	case frame.isLoop:
		c.unify(e.Span, frame.result, value)
	case d.Value.IsValid():
		c.errorf(diag.SemaTypeMismatch, e.Span, "`break` with value from a `while` loop").Emit()
	}
	return c.types.Builtins().Never
}

func (c *Context) checkMatch(d *ast.ExprMatchData) types.TypeID {
	scrutinee := c.checkExpr(d.Scrutinee)
	result := types.NoTypeID
	for i := range d.Arms {
		arm := &d.Arms[i]
		c.checkPat(arm.Pat, scrutinee)
		if arm.Guard.IsValid() {
			c.unify(c.ast.Exprs.Get(arm.Guard).Span, c.types.Builtins().Bool, c.checkExpr(arm.Guard))
		}
		result = c.join(c.tailSpan(arm.Body), result, c.checkExpr(arm.Body))
	}
	if result == types.NoTypeID {
		return c.types.Builtins().Never
	}
	return result
}

func (c *Context) checkStructLit(e *ast.Expr, d *ast.ExprStructData, ir ids.IrID) types.TypeID {
	adt, variant, ok := c.resolveAdtPath(&d.Path, ir)
	if !ok {
		for i := range d.Fields {
			c.checkExpr(d.Fields[i].Value)
		}
		return c.errType()
	}
	info, _ := c.types.AdtInfo(adt)
	seen := make(map[int]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		name := c.name(f.Name)
		value := c.checkExpr(f.Value)
		idx, ok := c.fieldIndex(variant, name)
		if !ok {
			c.errorf(diag.SemaUnknownField, f.Span, fmt.Sprintf("`%s` has no field named `%s`", variant.Name, name)).Emit()
			continue
		}
		if seen[idx] {
			c.errorf(diag.SemaUnknownField, f.Span, fmt.Sprintf("field `%s` specified more than once", name)).Emit()
			continue
		}
		seen[idx] = true
		c.unify(c.ast.Exprs.Get(f.Value).Span, c.types.FieldType(adt, variant, idx), value)
	}
	if info.Kind == types.AdtUnion {
		if len(d.Fields) != 1 {
			c.errorf(diag.SemaMissingFields, e.Span, "union expressions should have exactly one field").Emit()
		}
		return adt
	}
	var missing []string
	for i, f := range variant.Fields {
		if !seen[i] {
			missing = append(missing, "`"+f.Name+"`")
		}
	}
	if len(missing) > 0 {
		c.errorf(diag.SemaMissingFields, e.Span, fmt.Sprintf("missing fields %s in initializer of `%s`", strings.Join(missing, ", "), variant.Name)).Emit()
	}
	return adt
}

// fieldIndex accepts field names and, for tuple variants, decimal indices.
func (c *Context) fieldIndex(v *types.VariantDef, name string) (int, bool) {
	if v.Kind == types.VariantTuple {
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(v.Fields) {
			return -1, false
		}
		return i, true
	}
	return v.FieldIndex(name)
}

func (c *Context) checkField(d *ast.ExprFieldData, ir ids.IrID) types.TypeID {
	target := c.checkExpr(d.Target)
	name := c.name(d.Name)
	t := c.types.Resolve(target)
	for depth := 0; depth <= maxAutoderef; depth++ {
		if c.types.IsError(t) {
			return t
		}
		tt := c.types.MustLookup(t)
		switch tt.Kind {
		case types.KindInfer:
			c.errorf(diag.SemaCannotInfer, d.Span, fmt.Sprintf("type annotations needed before accessing `%s`", name)).Emit()
			return c.errType()
		case types.KindAdt:
			info, _ := c.types.AdtInfo(t)
			if info.IsEnum() || len(info.Variants) == 0 {
				break
			}
			v := info.Variants[0]
			if idx, ok := c.fieldIndex(v, name); ok {
				c.receivers[ir] = t
				return c.types.FieldType(t, v, idx)
			}
		case types.KindTuple:
			info, _ := c.types.TupleInfo(t)
			if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(info.Elems) {
				c.receivers[ir] = t
				return info.Elems[i]
			}
		case types.KindRef:
			t = c.types.Resolve(tt.Elem)
			continue
		}
		break
	}
	c.errorf(diag.SemaUnknownField, d.Span, fmt.Sprintf("no field `%s` on type `%s`", name, c.types.String(target))).Emit()
	return c.errType()
}

func (c *Context) checkArray(d *ast.ExprListData) types.TypeID {
	elem := c.types.NewVar(types.InferGeneral)
	for _, el := range d.Elems {
		elem = c.unify(c.ast.Exprs.Get(el).Span, elem, c.checkExpr(el))
	}
	count, err := safecast.Conv[uint32](len(d.Elems))
	if err != nil {
		ice.Raise("typeck", "array literal too long: %v", err)
	}
	return c.types.Intern(types.MakeArray(elem, count))
}
