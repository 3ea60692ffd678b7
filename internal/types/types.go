package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindError
	KindUnit
	KindNever
	KindBool
	KindChar
	KindStr
	KindInt
	KindUint
	KindFloat
	KindRef
	KindArray
	KindTuple
	KindFn
	KindAdt
	KindParam
	KindInfer
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindError:
		return "error"
	case KindUnit:
		return "unit"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindStr:
		return "str"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindRef:
		return "reference"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindFn:
		return "fn"
	case KindAdt:
		return "adt"
	case KindParam:
		return "param"
	case KindInfer:
		return "infer"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats. WidthSize is the
// pointer-sized isize/usize.
type Width uint8

const (
	WidthSize Width = 0
	Width8    Width = 8
	Width16   Width = 16
	Width32   Width = 32
	Width64   Width = 64
)

// InferKind restricts what an inference variable may be bound to.
type InferKind uint8

const (
	InferGeneral InferKind = iota
	InferInt
	InferFloat
)

// Type is a compact descriptor for any supported type. Compound kinds keep
// their details in side tables addressed by Payload.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32 // array length
	Width   Width  // numeric primitives
	Mutable bool   // references
	Infer   InferKind
	Payload uint32
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes [elem; count].
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeReference describes &T or &mut T depending on the mutable flag.
func MakeReference(elem TypeID, mutable bool) Type {
	return Type{Kind: KindRef, Elem: elem, Mutable: mutable}
}

// IsNumeric reports integer and float kinds.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindUint || t.Kind == KindFloat
}

// IsIntegral reports signed and unsigned integers.
func (t Type) IsIntegral() bool {
	return t.Kind == KindInt || t.Kind == KindUint
}
