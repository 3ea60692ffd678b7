package types

import (
	"oxbow/internal/ast"
	"oxbow/internal/mappings"
)

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint32

const (
	FamilyNone FamilyMask = 0
	FamilyAny  FamilyMask = 1 << iota
	FamilyBool
	FamilySignedInt
	FamilyUnsignedInt
	FamilyFloat
	FamilyChar
	FamilyReference
)

const (
	FamilyIntegral = FamilySignedInt | FamilyUnsignedInt
	FamilyNumeric  = FamilyIntegral | FamilyFloat
	FamilyOrdered  = FamilyNumeric | FamilyChar
)

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultLeft
	BinaryResultBool
)

// BinaryFlags annotate special handling for binary operators.
type BinaryFlags uint16

const (
	BinaryFlagNone         BinaryFlags = 0
	BinaryFlagShortCircuit BinaryFlags = 1 << iota
	BinaryFlagSameType
)

// BinarySpec lists operand families and expected result for an operation.
// Lang names the operator trait consulted when an operand is an ADT.
type BinarySpec struct {
	Left   FamilyMask
	Right  FamilyMask
	Result BinaryResult
	Flags  BinaryFlags
	Lang   mappings.LangItem
}

// UnaryResult indicates how to derive the resulting type.
type UnaryResult uint8

const (
	UnaryResultUnknown UnaryResult = iota
	UnaryResultSame
	UnaryResultDeref
)

// UnarySpec describes operand expectations for unary operators.
type UnarySpec struct {
	Operand FamilyMask
	Result  UnaryResult
	Lang    mappings.LangItem
}

var binarySpecTable = map[ast.BinaryOp]BinarySpec{
	ast.BinAdd: {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultLeft, Flags: BinaryFlagSameType, Lang: mappings.LangAdd},
	ast.BinSub: {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultLeft, Flags: BinaryFlagSameType, Lang: mappings.LangSub},
	ast.BinMul: {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultLeft, Flags: BinaryFlagSameType, Lang: mappings.LangMul},
	ast.BinDiv: {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultLeft, Flags: BinaryFlagSameType, Lang: mappings.LangDiv},
	ast.BinRem: {Left: FamilyIntegral, Right: FamilyIntegral, Result: BinaryResultLeft, Flags: BinaryFlagSameType, Lang: mappings.LangRem},
	ast.BinAnd: {Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool, Flags: BinaryFlagShortCircuit},
	ast.BinOr:  {Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool, Flags: BinaryFlagShortCircuit},
	ast.BinEq:  {Left: FamilyAny, Right: FamilyAny, Result: BinaryResultBool, Flags: BinaryFlagSameType, Lang: mappings.LangEq},
	ast.BinNe:  {Left: FamilyAny, Right: FamilyAny, Result: BinaryResultBool, Flags: BinaryFlagSameType, Lang: mappings.LangEq},
	ast.BinLt:  {Left: FamilyOrdered, Right: FamilyOrdered, Result: BinaryResultBool, Flags: BinaryFlagSameType, Lang: mappings.LangPartialOrd},
	ast.BinLe:  {Left: FamilyOrdered, Right: FamilyOrdered, Result: BinaryResultBool, Flags: BinaryFlagSameType, Lang: mappings.LangPartialOrd},
	ast.BinGt:  {Left: FamilyOrdered, Right: FamilyOrdered, Result: BinaryResultBool, Flags: BinaryFlagSameType, Lang: mappings.LangPartialOrd},
	ast.BinGe:  {Left: FamilyOrdered, Right: FamilyOrdered, Result: BinaryResultBool, Flags: BinaryFlagSameType, Lang: mappings.LangPartialOrd},
}

var unarySpecTable = map[ast.UnaryOp]UnarySpec{
	ast.UnNeg:   {Operand: FamilySignedInt | FamilyFloat, Result: UnaryResultSame, Lang: mappings.LangNeg},
	ast.UnNot:   {Operand: FamilyBool | FamilyIntegral, Result: UnaryResultSame, Lang: mappings.LangNot},
	ast.UnDeref: {Operand: FamilyReference, Result: UnaryResultDeref},
}

// BinarySpecFor returns operand rules for the given operator.
func BinarySpecFor(op ast.BinaryOp) (BinarySpec, bool) {
	spec, ok := binarySpecTable[op]
	return spec, ok
}

// UnarySpecFor returns operand/result hints for unary operators.
func UnarySpecFor(op ast.UnaryOp) (UnarySpec, bool) {
	spec, ok := unarySpecTable[op]
	return spec, ok
}

// FamilyOf classifies id. Integral and float inference variables count as
// their family; other unresolved types match only FamilyAny.
func (in *Interner) FamilyOf(id TypeID) FamilyMask {
	id = in.Resolve(id)
	tt, ok := in.Lookup(id)
	if !ok {
		return FamilyNone
	}
	switch tt.Kind {
	case KindBool:
		return FamilyAny | FamilyBool
	case KindChar:
		return FamilyAny | FamilyChar
	case KindInt:
		return FamilyAny | FamilySignedInt
	case KindUint:
		return FamilyAny | FamilyUnsignedInt
	case KindFloat:
		return FamilyAny | FamilyFloat
	case KindRef:
		return FamilyAny | FamilyReference
	case KindInfer:
		switch tt.Infer {
		case InferInt:
			return FamilyAny | FamilyIntegral
		case InferFloat:
			return FamilyAny | FamilyFloat
		}
	}
	return FamilyAny
}
