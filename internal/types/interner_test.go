package types

import (
	"testing"

	"oxbow/internal/ids"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
	if id, ok := in.Primitive("usize"); !ok || id != b.Usize {
		t.Fatalf("usize primitive lookup failed")
	}
	if in.String(b.Isize) != "isize" || in.String(b.U8) != "u8" {
		t.Fatalf("unexpected names %s %s", in.String(b.Isize), in.String(b.U8))
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Char
	arr1 := in.Intern(MakeArray(elem, 4))
	arr2 := in.Intern(MakeArray(elem, 4))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Intern(MakeArray(elem, 5)) == arr1 {
		t.Fatalf("array length is part of the identity")
	}
	b := in.Builtins()
	if in.RegisterTuple([]TypeID{b.I32, b.Bool}) != in.RegisterTuple([]TypeID{b.I32, b.Bool}) {
		t.Fatalf("tuples should be deduplicated")
	}
	if in.RegisterTuple(nil) != b.Unit {
		t.Fatalf("empty tuple must be unit")
	}
}

func TestReferenceMutabilityAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().I32
	mut := in.Intern(MakeReference(elem, true))
	imm := in.Intern(MakeReference(elem, false))
	if mut == imm {
		t.Fatalf("mutable and immutable references must differ")
	}
	if in.String(mut) != "&mut i32" {
		t.Fatalf("got %s", in.String(mut))
	}
}

func TestGenericFnInstantiation(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	param := in.RegisterParam(ids.IrID(7), "T", 0)
	tmpl := in.RegisterFn(ids.IrID(3), "identity", []TypeID{param}, param, []TypeID{param}, 0)
	if in.String(tmpl) != "fn(T) -> T" {
		t.Fatalf("template renders as %s", in.String(tmpl))
	}
	inst := in.InstantiateFn(tmpl, []TypeID{b.I32})
	if in.String(inst) != "fn(i32) -> i32" {
		t.Fatalf("instance renders as %s", in.String(inst))
	}
	if again := in.InstantiateFn(tmpl, []TypeID{b.I32}); again != inst {
		t.Fatalf("instances should be deduplicated")
	}
	info, _ := in.FnInfo(tmpl)
	if info.Params[0] != param || !info.IsGeneric() {
		t.Fatalf("template must not be mutated by instantiation")
	}
	if in.HasParams(inst) || !in.HasParams(tmpl) {
		t.Fatalf("HasParams mismatch")
	}
}

func TestAdtInstancesShareVariants(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	param := in.RegisterParam(ids.IrID(2), "T", 0)
	tmpl := in.RegisterAdt(ids.IrID(1), ids.DefID{}, "Wrapper", AdtStruct, []TypeID{param})
	inst := in.InstantiateAdt(tmpl, []TypeID{b.Bool})
	in.SetVariants(tmpl, []*VariantDef{{Item: ids.IrID(1), Name: "Wrapper", Fields: []FieldDef{{Name: "inner", Type: param}}}})

	info, _ := in.AdtInfo(inst)
	if len(info.Variants) != 1 {
		t.Fatalf("instance created before SetVariants must see the variants")
	}
	if ft := in.FieldType(inst, info.Variants[0], 0); ft != b.Bool {
		t.Fatalf("field type should be substituted, got %s", in.String(ft))
	}
	if in.String(inst) != "Wrapper<bool>" {
		t.Fatalf("got %s", in.String(inst))
	}
}

func TestUnifyBindsInferenceVariables(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	v := in.NewVar(InferGeneral)
	if got, ok := in.Unify(v, b.Bool); !ok || got != b.Bool {
		t.Fatalf("general var should unify with bool")
	}
	if in.Resolve(v) != b.Bool {
		t.Fatalf("var not bound")
	}

	iv := in.NewVar(InferInt)
	if _, ok := in.Unify(iv, b.F32); ok {
		t.Fatalf("integer var must not unify with f32")
	}
	if _, ok := in.Unify(iv, b.U16); !ok || in.Resolve(iv) != b.U16 {
		t.Fatalf("integer var should unify with u16")
	}

	fv := in.NewVar(InferFloat)
	lit := in.NewVar(InferInt)
	in.ApplyDefaults()
	if in.Resolve(fv) != b.F64 || in.Resolve(lit) != b.I32 {
		t.Fatalf("defaults: got %s and %s", in.String(fv), in.String(lit))
	}
}

func TestUnifyStructural(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	v := in.NewVar(InferGeneral)
	left := in.RegisterTuple([]TypeID{v, in.Intern(MakeReference(b.Char, false))})
	right := in.RegisterTuple([]TypeID{b.I64, in.Intern(MakeReference(b.Char, false))})
	if _, ok := in.Unify(left, right); !ok {
		t.Fatalf("tuples should unify")
	}
	if in.Deep(left) != right {
		t.Fatalf("deep resolution should yield %s, got %s", in.String(right), in.String(in.Deep(left)))
	}

	if _, ok := in.Unify(in.Intern(MakeReference(b.I32, true)), in.Intern(MakeReference(b.I32, false))); ok {
		t.Fatalf("reference mutability must match")
	}
	if _, ok := in.Unify(b.Never, b.Str); !ok {
		t.Fatalf("never coerces to anything")
	}
	if _, ok := in.Unify(b.Error, b.Str); !ok {
		t.Fatalf("error type unifies with everything")
	}

	occurs := in.NewVar(InferGeneral)
	if _, ok := in.Unify(occurs, in.Intern(MakeReference(occurs, false))); ok {
		t.Fatalf("occurs check should reject a cyclic binding")
	}
}

func TestUnifyGenericAdtArgs(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	param := in.RegisterParam(ids.IrID(2), "T", 0)
	tmpl := in.RegisterAdt(ids.IrID(1), ids.DefID{}, "Box", AdtStruct, []TypeID{param})
	v := in.NewVar(InferGeneral)
	open := in.InstantiateAdt(tmpl, []TypeID{v})
	closed := in.InstantiateAdt(tmpl, []TypeID{b.U8})
	if _, ok := in.Unify(open, closed); !ok {
		t.Fatalf("instances of the same template should unify")
	}
	if in.Resolve(v) != b.U8 {
		t.Fatalf("argument var should be bound to u8")
	}
	other := in.RegisterAdt(ids.IrID(5), ids.DefID{}, "Other", AdtStruct, nil)
	if _, ok := in.Unify(other, closed); ok {
		t.Fatalf("different templates must not unify")
	}
}

func TestCanUnifyLeavesBindingsAlone(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	v := in.NewVar(InferGeneral)
	if !in.CanUnify(v, b.Char) {
		t.Fatalf("var should be able to unify with char")
	}
	if !in.IsUnboundVar(v) {
		t.Fatalf("CanUnify must roll its bindings back")
	}
}
