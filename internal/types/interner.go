package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Error TypeID
	Unit  TypeID
	Never TypeID
	Bool  TypeID
	Char  TypeID
	Str   TypeID
	I8    TypeID
	I16   TypeID
	I32   TypeID
	I64   TypeID
	Isize TypeID
	U8    TypeID
	U16   TypeID
	U32   TypeID
	U64   TypeID
	Usize TypeID
	F32   TypeID
	F64   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Compound types keep their metadata in per-kind side tables; generic
// instances are deduplicated by template and argument list.
type Interner struct {
	types      []Type
	index      map[typeKey]TypeID
	builtins   Builtins
	primitives map[string]TypeID

	tuples    []TupleInfo
	tupleIdx  map[string]TypeID
	fns       []FnInfo
	adts      []AdtInfo
	params    []ParamInfo
	paramIdx  map[uint32]TypeID
	vars      []inferVar
	trail     []TypeID
	instances map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:      make(map[typeKey]TypeID, 64),
		primitives: make(map[string]TypeID, 16),
		tupleIdx:   make(map[string]TypeID),
		paramIdx:   make(map[uint32]TypeID),
		instances:  make(map[string]TypeID),
	}
	// slot 0 of every side table is reserved as the invalid sentinel
	in.tuples = append(in.tuples, TupleInfo{})
	in.fns = append(in.fns, FnInfo{})
	in.adts = append(in.adts, AdtInfo{})
	in.params = append(in.params, ParamInfo{})
	in.vars = append(in.vars, inferVar{})

	in.internRaw(Type{Kind: KindInvalid})
	b := &in.builtins
	b.Error = in.Intern(Type{Kind: KindError})
	b.Unit = in.Intern(Type{Kind: KindUnit})
	b.Never = in.Intern(Type{Kind: KindNever})
	b.Bool = in.primitive("bool", Type{Kind: KindBool})
	b.Char = in.primitive("char", Type{Kind: KindChar})
	b.Str = in.primitive("str", Type{Kind: KindStr})
	b.I8 = in.primitive("i8", MakeInt(Width8))
	b.I16 = in.primitive("i16", MakeInt(Width16))
	b.I32 = in.primitive("i32", MakeInt(Width32))
	b.I64 = in.primitive("i64", MakeInt(Width64))
	b.Isize = in.primitive("isize", MakeInt(WidthSize))
	b.U8 = in.primitive("u8", MakeUint(Width8))
	b.U16 = in.primitive("u16", MakeUint(Width16))
	b.U32 = in.primitive("u32", MakeUint(Width32))
	b.U64 = in.primitive("u64", MakeUint(Width64))
	b.Usize = in.primitive("usize", MakeUint(WidthSize))
	b.F32 = in.primitive("f32", MakeFloat(Width32))
	b.F64 = in.primitive("f64", MakeFloat(Width64))
	return in
}

func (in *Interner) primitive(name string, t Type) TypeID {
	id := in.Intern(t)
	in.primitives[name] = id
	return id
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Primitive returns the builtin type spelled name (i32, bool, ...).
func (in *Interner) Primitive(name string) (TypeID, bool) {
	id, ok := in.primitives[name]
	return id, ok
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id after following inference bindings.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(in.Resolve(id))
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// IsError reports the error sentinel.
func (in *Interner) IsError(id TypeID) bool {
	return in.KindOf(id) == KindError
}

// Len reports how many types are interned.
func (in *Interner) Len() int {
	return len(in.types)
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Mutable bool
	Infer   InferKind
	Payload uint32
}

func slotOf(n int, what string) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return slot
}

func cloneTypeArgs(args []TypeID) []TypeID {
	if len(args) == 0 {
		return nil
	}
	out := make([]TypeID, len(args))
	copy(out, args)
	return out
}

func argsKey(prefix string, head uint32, args []TypeID) string {
	return fmt.Sprintf("%s%d%v", prefix, head, args)
}
