package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

type ExprKind uint8

const (
	ExprLit ExprKind = iota
	ExprPath
	ExprQualPath
	ExprCall
	ExprMethodCall
	ExprBlock
	ExprAssign
	ExprBinary
	ExprUnary
	ExprIf
	ExprLoop
	ExprWhile
	ExprBreak
	ExprContinue
	ExprReturn
	ExprMatch
	ExprStruct
	ExprField
	ExprTuple
	ExprArray
	ExprRef
	ExprMacroCall
)

func (k ExprKind) String() string {
	switch k {
	case ExprLit:
		return "literal"
	case ExprPath:
		return "path"
	case ExprQualPath:
		return "qualified path"
	case ExprCall:
		return "call"
	case ExprMethodCall:
		return "method call"
	case ExprBlock:
		return "block"
	case ExprAssign:
		return "assignment"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprIf:
		return "if"
	case ExprLoop:
		return "loop"
	case ExprWhile:
		return "while"
	case ExprBreak:
		return "break"
	case ExprContinue:
		return "continue"
	case ExprReturn:
		return "return"
	case ExprMatch:
		return "match"
	case ExprStruct:
		return "struct literal"
	case ExprField:
		return "field"
	case ExprTuple:
		return "tuple"
	case ExprArray:
		return "array"
	case ExprRef:
		return "reference"
	case ExprMacroCall:
		return "macro call"
	}
	return "expr"
}

type Expr struct {
	Node    ids.NodeID
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitChar
	LitStr
)

type ExprLitData struct {
	Kind   LitKind
	Value  source.StringID
	Suffix source.StringID // e.g. u8, f32
}

type ExprPathData struct {
	Path Path
}

type ExprQualPathData struct {
	Qual QualifiedPath
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprMethodCallData struct {
	Receiver ExprID
	Method   PathSegment
	Args     []ExprID
}

type ExprBlockData struct {
	Stmts []StmtID
	Tail  ExprID
}

type ExprAssignData struct {
	Target ExprID
	Value  ExprID
}

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd // &&
	BinOr  // ||
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

func (op BinaryOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinRem:
		return "%"
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	case BinEq:
		return "=="
	case BinNe:
		return "!="
	case BinLt:
		return "<"
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinGe:
		return ">="
	}
	return "?"
}

// IsComparison reports whether op yields bool from two operands of one type.
func (op BinaryOp) IsComparison() bool {
	return op >= BinEq
}

// IsLogical reports whether op is a short-circuit bool operator.
func (op BinaryOp) IsLogical() bool {
	return op == BinAnd || op == BinOr
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type UnaryOp uint8

const (
	UnNeg UnaryOp = iota
	UnNot
	UnDeref
)

func (op UnaryOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnNot:
		return "!"
	}
	return "*"
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type ExprIfData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

// Label is a loop label declaration or use. Name is NoStringID when absent.
type Label struct {
	Node ids.NodeID
	Name source.StringID
	Span source.Span
}

func (l Label) IsSet() bool { return l.Name != source.NoStringID }

type ExprLoopData struct {
	Label Label
	Cond  ExprID // while only
	Body  ExprID
}

type ExprBreakData struct {
	Label Label
	Value ExprID
}

type ExprReturnData struct {
	Value ExprID
}

type MatchArm struct {
	Node  ids.NodeID
	Pat   PatID
	Guard ExprID
	Body  ExprID
	Span  source.Span
}

type ExprMatchData struct {
	Scrutinee ExprID
	Arms      []MatchArm
}

type FieldInit struct {
	Node  ids.NodeID
	Name  source.StringID
	Value ExprID
	Span  source.Span
}

type ExprStructData struct {
	Path   Path
	Fields []FieldInit
}

type ExprFieldData struct {
	Target ExprID
	Name   source.StringID // tuple fields use the decimal index
	Span   source.Span
}

type ExprListData struct {
	Elems []ExprID
}

type ExprRefData struct {
	Mut     bool
	Operand ExprID
}

type ExprMacroCallData struct {
	Path Path
	Args []ExprID
}

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena       *Arena[Expr]
	Lits        *Arena[ExprLitData]
	Paths       *Arena[ExprPathData]
	QualPaths   *Arena[ExprQualPathData]
	Calls       *Arena[ExprCallData]
	MethodCalls *Arena[ExprMethodCallData]
	Blocks      *Arena[ExprBlockData]
	Assigns     *Arena[ExprAssignData]
	Binaries    *Arena[ExprBinaryData]
	Unaries     *Arena[ExprUnaryData]
	Ifs         *Arena[ExprIfData]
	Loops       *Arena[ExprLoopData]
	Breaks      *Arena[ExprBreakData]
	Returns     *Arena[ExprReturnData]
	Matches     *Arena[ExprMatchData]
	Structs     *Arena[ExprStructData]
	Fields      *Arena[ExprFieldData]
	Lists       *Arena[ExprListData]
	Refs        *Arena[ExprRefData]
	Macros      *Arena[ExprMacroCallData]
}

// NewExprs creates per-kind arenas; a zero capHint defaults to 1<<8.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint / 8
	return &Exprs{
		Arena:       NewArena[Expr](capHint),
		Lits:        NewArena[ExprLitData](capHint / 2),
		Paths:       NewArena[ExprPathData](capHint / 2),
		QualPaths:   NewArena[ExprQualPathData](small),
		Calls:       NewArena[ExprCallData](small),
		MethodCalls: NewArena[ExprMethodCallData](small),
		Blocks:      NewArena[ExprBlockData](small),
		Assigns:     NewArena[ExprAssignData](small),
		Binaries:    NewArena[ExprBinaryData](small),
		Unaries:     NewArena[ExprUnaryData](small),
		Ifs:         NewArena[ExprIfData](small),
		Loops:       NewArena[ExprLoopData](small),
		Breaks:      NewArena[ExprBreakData](small),
		Returns:     NewArena[ExprReturnData](small),
		Matches:     NewArena[ExprMatchData](small),
		Structs:     NewArena[ExprStructData](small),
		Fields:      NewArena[ExprFieldData](small),
		Lists:       NewArena[ExprListData](small),
		Refs:        NewArena[ExprRefData](small),
		Macros:      NewArena[ExprMacroCallData](0),
	}
}

func (e *Exprs) new(node ids.NodeID, kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Node:    node,
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) Lit(id ExprID) (*ExprLitData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Lits.Get(p), true
}

func (e *Exprs) Path(id ExprID) (*ExprPathData, bool) {
	p, ok := e.payload(id, ExprPath)
	if !ok {
		return nil, false
	}
	return e.Paths.Get(p), true
}

func (e *Exprs) QualPath(id ExprID) (*ExprQualPathData, bool) {
	p, ok := e.payload(id, ExprQualPath)
	if !ok {
		return nil, false
	}
	return e.QualPaths.Get(p), true
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) MethodCall(id ExprID) (*ExprMethodCallData, bool) {
	p, ok := e.payload(id, ExprMethodCall)
	if !ok {
		return nil, false
	}
	return e.MethodCalls.Get(p), true
}

func (e *Exprs) Block(id ExprID) (*ExprBlockData, bool) {
	p, ok := e.payload(id, ExprBlock)
	if !ok {
		return nil, false
	}
	return e.Blocks.Get(p), true
}

func (e *Exprs) Assign(id ExprID) (*ExprAssignData, bool) {
	p, ok := e.payload(id, ExprAssign)
	if !ok {
		return nil, false
	}
	return e.Assigns.Get(p), true
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

func (e *Exprs) If(id ExprID) (*ExprIfData, bool) {
	p, ok := e.payload(id, ExprIf)
	if !ok {
		return nil, false
	}
	return e.Ifs.Get(p), true
}

// Loop returns the payload of both `loop` and `while` expressions.
func (e *Exprs) Loop(id ExprID) (*ExprLoopData, bool) {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprLoop && expr.Kind != ExprWhile) {
		return nil, false
	}
	return e.Loops.Get(uint32(expr.Payload)), true
}

// Break returns the payload of both `break` and `continue` expressions.
func (e *Exprs) Break(id ExprID) (*ExprBreakData, bool) {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprBreak && expr.Kind != ExprContinue) {
		return nil, false
	}
	return e.Breaks.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Return(id ExprID) (*ExprReturnData, bool) {
	p, ok := e.payload(id, ExprReturn)
	if !ok {
		return nil, false
	}
	return e.Returns.Get(p), true
}

func (e *Exprs) Match(id ExprID) (*ExprMatchData, bool) {
	p, ok := e.payload(id, ExprMatch)
	if !ok {
		return nil, false
	}
	return e.Matches.Get(p), true
}

func (e *Exprs) Struct(id ExprID) (*ExprStructData, bool) {
	p, ok := e.payload(id, ExprStruct)
	if !ok {
		return nil, false
	}
	return e.Structs.Get(p), true
}

func (e *Exprs) Field(id ExprID) (*ExprFieldData, bool) {
	p, ok := e.payload(id, ExprField)
	if !ok {
		return nil, false
	}
	return e.Fields.Get(p), true
}

// List returns the elements of tuple and array expressions.
func (e *Exprs) List(id ExprID) (*ExprListData, bool) {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprTuple && expr.Kind != ExprArray) {
		return nil, false
	}
	return e.Lists.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Ref(id ExprID) (*ExprRefData, bool) {
	p, ok := e.payload(id, ExprRef)
	if !ok {
		return nil, false
	}
	return e.Refs.Get(p), true
}

func (e *Exprs) MacroCall(id ExprID) (*ExprMacroCallData, bool) {
	p, ok := e.payload(id, ExprMacroCall)
	if !ok {
		return nil, false
	}
	return e.Macros.Get(p), true
}
