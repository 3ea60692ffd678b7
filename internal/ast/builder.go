package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

// NodeAllocator hands out crate-local NodeIDs; the identity registry
// implements it.
type NodeAllocator interface {
	NextNodeID(crate ids.CrateNum) ids.NodeID
}

type Hints struct{ Items, Exprs, Stmts, Pats, Types uint }

// Builder constructs a Crate, assigning a fresh NodeID to every node.
type Builder struct {
	crate *Crate
	alloc NodeAllocator
}

func NewBuilder(num ids.CrateNum, alloc NodeAllocator, strings *source.Interner, hints Hints) *Builder {
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		crate: &Crate{
			Num:     num,
			Strings: strings,
			Items:   NewItems(hints.Items),
			Exprs:   NewExprs(hints.Exprs),
			Stmts:   NewStmts(hints.Stmts),
			Pats:    NewPats(hints.Pats),
			Types:   NewTypes(hints.Types),
		},
		alloc: alloc,
	}
}

// Crate exposes the crate under construction.
func (b *Builder) Crate() *Crate {
	return b.crate
}

// Finish sets the root module and returns the crate.
func (b *Builder) Finish(name string, file source.FileID, root ItemID) *Crate {
	b.crate.Name = b.Name(name)
	b.crate.File = file
	b.crate.Root = root
	return b.crate
}

func (b *Builder) Node() ids.NodeID {
	return b.alloc.NextNodeID(b.crate.Num)
}

func (b *Builder) Name(s string) source.StringID {
	if s == "" {
		return source.NoStringID
	}
	return b.crate.Strings.Intern(s)
}

// Paths ---------------------------------------------------------------------

func (b *Builder) Segment(span source.Span, name string, generics ...TypeID) PathSegment {
	seg := PathSegment{Node: b.Node(), Span: span, Generics: generics}
	switch name {
	case "crate":
		seg.Kind = SegCrate
	case "self":
		seg.Kind = SegSelfMod
	case "super":
		seg.Kind = SegSuper
	case "Self":
		seg.Kind = SegSelfType
		seg.Name = b.Name(name)
	default:
		seg.Kind = SegIdent
		seg.Name = b.Name(name)
	}
	return seg
}

// SimplePath builds a path without generic arguments.
func (b *Builder) SimplePath(span source.Span, names ...string) Path {
	segs := make([]PathSegment, 0, len(names))
	for _, n := range names {
		segs = append(segs, b.Segment(span, n))
	}
	return Path{Segments: segs, Span: span}
}

// Items ---------------------------------------------------------------------

func (b *Builder) item(kind ItemKind, span source.Span, name string, vis Visibility, payload uint32) ItemID {
	id := b.crate.Items.new(b.Node(), kind, b.Name(name), span, payload)
	b.crate.Items.Get(id).Vis = vis
	return id
}

func (b *Builder) AddAttr(item ItemID, span source.Span, name, value string) {
	it := b.crate.Items.Get(item)
	it.Attrs = append(it.Attrs, Attr{Name: b.Name(name), Value: b.Name(value), Span: span})
}

func (b *Builder) Module(span source.Span, name string, vis Visibility, items ...ItemID) ItemID {
	p := b.crate.Items.Modules.Allocate(ModuleItem{Items: items})
	return b.item(ItemModule, span, name, vis, p)
}

// AppendToModule adds items to an existing module.
func (b *Builder) AppendToModule(mod ItemID, items ...ItemID) {
	m, ok := b.crate.Items.Module(mod)
	if !ok {
		return
	}
	m.Items = append(m.Items, items...)
}

func (b *Builder) Fn(span source.Span, name string, vis Visibility, fn FnItem) ItemID {
	p := b.crate.Items.Fns.Allocate(fn)
	return b.item(ItemFn, span, name, vis, p)
}

func (b *Builder) Struct(span source.Span, name string, vis Visibility, st StructItem) ItemID {
	p := b.crate.Items.Structs.Allocate(st)
	return b.item(ItemStruct, span, name, vis, p)
}

func (b *Builder) Enum(span source.Span, name string, vis Visibility, en EnumItem) ItemID {
	p := b.crate.Items.Enums.Allocate(en)
	return b.item(ItemEnum, span, name, vis, p)
}

func (b *Builder) Union(span source.Span, name string, vis Visibility, un UnionItem) ItemID {
	p := b.crate.Items.Unions.Allocate(un)
	return b.item(ItemUnion, span, name, vis, p)
}

func (b *Builder) Trait(span source.Span, name string, vis Visibility, tr TraitItem) ItemID {
	p := b.crate.Items.Traits.Allocate(tr)
	return b.item(ItemTrait, span, name, vis, p)
}

func (b *Builder) Impl(span source.Span, im ImplItem) ItemID {
	p := b.crate.Items.Impls.Allocate(im)
	return b.item(ItemImpl, span, "", VisPrivate, p)
}

func (b *Builder) Const(span source.Span, name string, vis Visibility, c ConstItem) ItemID {
	p := b.crate.Items.Consts.Allocate(c)
	return b.item(ItemConst, span, name, vis, p)
}

func (b *Builder) Static(span source.Span, name string, vis Visibility, s StaticItem) ItemID {
	p := b.crate.Items.Statics.Allocate(s)
	return b.item(ItemStatic, span, name, vis, p)
}

func (b *Builder) TypeAlias(span source.Span, name string, vis Visibility, a TypeAliasItem) ItemID {
	p := b.crate.Items.Aliases.Allocate(a)
	return b.item(ItemTypeAlias, span, name, vis, p)
}

func (b *Builder) MacroRules(span source.Span, name string) ItemID {
	return b.item(ItemMacroRules, span, name, VisPrivate, 0)
}

func (b *Builder) GenericParam(span source.Span, name string, bounds ...Path) GenericParam {
	return GenericParam{Node: b.Node(), Name: b.Name(name), Bounds: bounds, Span: span}
}

func (b *Builder) Field(span source.Span, name string, vis Visibility, ty TypeID) Field {
	return Field{Node: b.Node(), Name: b.Name(name), Type: ty, Vis: vis, Span: span}
}

func (b *Builder) Variant(span source.Span, name string, kind StructKind, fields []Field, discr ExprID) Variant {
	return Variant{Node: b.Node(), Name: b.Name(name), Kind: kind, Fields: fields, Discriminant: discr, Span: span}
}

func (b *Builder) Param(span source.Span, pat PatID, ty TypeID) Param {
	return Param{Node: b.Node(), Pat: pat, Type: ty, Span: span}
}

func (b *Builder) SelfParam(span source.Span, kind SelfParamKind, mut bool) *SelfParam {
	return &SelfParam{Node: b.Node(), Kind: kind, Mut: mut, Span: span}
}

// Expressions ---------------------------------------------------------------

func (b *Builder) expr(kind ExprKind, span source.Span, payload uint32) ExprID {
	return b.crate.Exprs.new(b.Node(), kind, span, payload)
}

func (b *Builder) Lit(span source.Span, kind LitKind, value, suffix string) ExprID {
	p := b.crate.Exprs.Lits.Allocate(ExprLitData{Kind: kind, Value: b.Name(value), Suffix: b.Name(suffix)})
	return b.expr(ExprLit, span, p)
}

func (b *Builder) PathExpr(path Path) ExprID {
	p := b.crate.Exprs.Paths.Allocate(ExprPathData{Path: path})
	return b.expr(ExprPath, path.Span, p)
}

func (b *Builder) QualPathExpr(q QualifiedPath) ExprID {
	p := b.crate.Exprs.QualPaths.Allocate(ExprQualPathData{Qual: q})
	return b.expr(ExprQualPath, q.Span, p)
}

func (b *Builder) Call(span source.Span, callee ExprID, args ...ExprID) ExprID {
	p := b.crate.Exprs.Calls.Allocate(ExprCallData{Callee: callee, Args: args})
	return b.expr(ExprCall, span, p)
}

func (b *Builder) MethodCall(span source.Span, recv ExprID, method PathSegment, args ...ExprID) ExprID {
	p := b.crate.Exprs.MethodCalls.Allocate(ExprMethodCallData{Receiver: recv, Method: method, Args: args})
	return b.expr(ExprMethodCall, span, p)
}

func (b *Builder) Block(span source.Span, stmts []StmtID, tail ExprID) ExprID {
	p := b.crate.Exprs.Blocks.Allocate(ExprBlockData{Stmts: stmts, Tail: tail})
	return b.expr(ExprBlock, span, p)
}

func (b *Builder) Assign(span source.Span, target, value ExprID) ExprID {
	p := b.crate.Exprs.Assigns.Allocate(ExprAssignData{Target: target, Value: value})
	return b.expr(ExprAssign, span, p)
}

func (b *Builder) Binary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	p := b.crate.Exprs.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return b.expr(ExprBinary, span, p)
}

func (b *Builder) Unary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	p := b.crate.Exprs.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand})
	return b.expr(ExprUnary, span, p)
}

func (b *Builder) If(span source.Span, cond, then, els ExprID) ExprID {
	p := b.crate.Exprs.Ifs.Allocate(ExprIfData{Cond: cond, Then: then, Else: els})
	return b.expr(ExprIf, span, p)
}

func (b *Builder) Label(span source.Span, name string) Label {
	if name == "" {
		return Label{}
	}
	return Label{Node: b.Node(), Name: b.Name(name), Span: span}
}

func (b *Builder) Loop(span source.Span, label Label, body ExprID) ExprID {
	p := b.crate.Exprs.Loops.Allocate(ExprLoopData{Label: label, Body: body})
	return b.expr(ExprLoop, span, p)
}

func (b *Builder) While(span source.Span, label Label, cond, body ExprID) ExprID {
	p := b.crate.Exprs.Loops.Allocate(ExprLoopData{Label: label, Cond: cond, Body: body})
	return b.expr(ExprWhile, span, p)
}

func (b *Builder) Break(span source.Span, label Label, value ExprID) ExprID {
	p := b.crate.Exprs.Breaks.Allocate(ExprBreakData{Label: label, Value: value})
	return b.expr(ExprBreak, span, p)
}

func (b *Builder) Continue(span source.Span, label Label) ExprID {
	p := b.crate.Exprs.Breaks.Allocate(ExprBreakData{Label: label})
	return b.expr(ExprContinue, span, p)
}

func (b *Builder) Return(span source.Span, value ExprID) ExprID {
	p := b.crate.Exprs.Returns.Allocate(ExprReturnData{Value: value})
	return b.expr(ExprReturn, span, p)
}

func (b *Builder) MatchArm(span source.Span, pat PatID, guard, body ExprID) MatchArm {
	return MatchArm{Node: b.Node(), Pat: pat, Guard: guard, Body: body, Span: span}
}

func (b *Builder) Match(span source.Span, scrutinee ExprID, arms ...MatchArm) ExprID {
	p := b.crate.Exprs.Matches.Allocate(ExprMatchData{Scrutinee: scrutinee, Arms: arms})
	return b.expr(ExprMatch, span, p)
}

func (b *Builder) FieldInit(span source.Span, name string, value ExprID) FieldInit {
	return FieldInit{Node: b.Node(), Name: b.Name(name), Value: value, Span: span}
}

func (b *Builder) StructLit(span source.Span, path Path, fields ...FieldInit) ExprID {
	p := b.crate.Exprs.Structs.Allocate(ExprStructData{Path: path, Fields: fields})
	return b.expr(ExprStruct, span, p)
}

func (b *Builder) FieldAccess(span source.Span, target ExprID, name string) ExprID {
	p := b.crate.Exprs.Fields.Allocate(ExprFieldData{Target: target, Name: b.Name(name), Span: span})
	return b.expr(ExprField, span, p)
}

func (b *Builder) Tuple(span source.Span, elems ...ExprID) ExprID {
	p := b.crate.Exprs.Lists.Allocate(ExprListData{Elems: elems})
	return b.expr(ExprTuple, span, p)
}

func (b *Builder) Array(span source.Span, elems ...ExprID) ExprID {
	p := b.crate.Exprs.Lists.Allocate(ExprListData{Elems: elems})
	return b.expr(ExprArray, span, p)
}

func (b *Builder) Ref(span source.Span, mut bool, operand ExprID) ExprID {
	p := b.crate.Exprs.Refs.Allocate(ExprRefData{Mut: mut, Operand: operand})
	return b.expr(ExprRef, span, p)
}

func (b *Builder) MacroCall(span source.Span, path Path, args ...ExprID) ExprID {
	p := b.crate.Exprs.Macros.Allocate(ExprMacroCallData{Path: path, Args: args})
	return b.expr(ExprMacroCall, span, p)
}

// Statements ----------------------------------------------------------------

func (b *Builder) Let(span source.Span, pat PatID, ty TypeID, init ExprID) StmtID {
	return StmtID(b.crate.Stmts.Arena.Allocate(Stmt{Node: b.Node(), Kind: StmtLet, Span: span, Pat: pat, Type: ty, Init: init}))
}

func (b *Builder) ExprStmt(span source.Span, e ExprID, semi bool) StmtID {
	return StmtID(b.crate.Stmts.Arena.Allocate(Stmt{Node: b.Node(), Kind: StmtExpr, Span: span, Init: e, Semi: semi}))
}

func (b *Builder) ItemStmt(span source.Span, item ItemID) StmtID {
	return StmtID(b.crate.Stmts.Arena.Allocate(Stmt{Node: b.Node(), Kind: StmtItem, Span: span, Item: item}))
}

// Patterns ------------------------------------------------------------------

func (b *Builder) pat(p Pat) PatID {
	p.Node = b.Node()
	return PatID(b.crate.Pats.Arena.Allocate(p))
}

func (b *Builder) IdentPat(span source.Span, name string, mut bool) PatID {
	return b.pat(Pat{Kind: PatIdent, Span: span, Name: b.Name(name), Mut: mut})
}

func (b *Builder) WildPat(span source.Span) PatID {
	return b.pat(Pat{Kind: PatWild, Span: span})
}

func (b *Builder) LitPat(span source.Span, lit ExprID) PatID {
	return b.pat(Pat{Kind: PatLit, Span: span, Lit: lit})
}

func (b *Builder) TuplePat(span source.Span, elems ...PatID) PatID {
	return b.pat(Pat{Kind: PatTuple, Span: span, Elems: elems})
}

func (b *Builder) TupleStructPat(span source.Span, path Path, elems ...PatID) PatID {
	return b.pat(Pat{Kind: PatTupleStruct, Span: span, Path: path, Elems: elems})
}

func (b *Builder) PatField(span source.Span, name string, pat PatID) PatField {
	return PatField{Node: b.Node(), Name: b.Name(name), Pat: pat, Span: span}
}

func (b *Builder) StructPat(span source.Span, path Path, fields ...PatField) PatID {
	return b.pat(Pat{Kind: PatStruct, Span: span, Path: path, Fields: fields})
}

func (b *Builder) PathPat(path Path) PatID {
	return b.pat(Pat{Kind: PatPath, Span: path.Span, Path: path})
}

func (b *Builder) RefPat(span source.Span, mut bool, inner PatID) PatID {
	return b.pat(Pat{Kind: PatRef, Span: span, Mut: mut, Elems: []PatID{inner}})
}

// Types ---------------------------------------------------------------------

func (b *Builder) typ(t TypeExpr) TypeID {
	t.Node = b.Node()
	return TypeID(b.crate.Types.Arena.Allocate(t))
}

func (b *Builder) PathType(path Path) TypeID {
	return b.typ(TypeExpr{Kind: TypePath, Span: path.Span, Path: path})
}

func (b *Builder) QualPathType(q QualifiedPath) TypeID {
	return b.typ(TypeExpr{Kind: TypeQualPath, Span: q.Span, Qual: q})
}

func (b *Builder) TupleType(span source.Span, elems ...TypeID) TypeID {
	return b.typ(TypeExpr{Kind: TypeTuple, Span: span, Elems: elems})
}

func (b *Builder) RefType(span source.Span, mut bool, elem TypeID) TypeID {
	return b.typ(TypeExpr{Kind: TypeRef, Span: span, Mut: mut, Elems: []TypeID{elem}})
}

func (b *Builder) ArrayType(span source.Span, elem TypeID, length ExprID) TypeID {
	return b.typ(TypeExpr{Kind: TypeArray, Span: span, Elems: []TypeID{elem}, Len: length})
}

func (b *Builder) InferType(span source.Span) TypeID {
	return b.typ(TypeExpr{Kind: TypeInfer, Span: span})
}

func (b *Builder) NeverType(span source.Span) TypeID {
	return b.typ(TypeExpr{Kind: TypeNever, Span: span})
}
