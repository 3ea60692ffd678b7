package types

import (
	"testing"

	"oxbow/internal/ast"
	"oxbow/internal/mappings"
)

func TestBinarySpecsLogicalAnd(t *testing.T) {
	spec, ok := BinarySpecFor(ast.BinAnd)
	if !ok {
		t.Fatalf("expected spec for logical and")
	}
	if spec.Left&FamilyBool == 0 || spec.Right&FamilyBool == 0 {
		t.Fatalf("logical and expects bool operands, got %+v", spec)
	}
	if spec.Result != BinaryResultBool || spec.Flags&BinaryFlagShortCircuit == 0 {
		t.Fatalf("expected short-circuit bool result, got %+v", spec)
	}
}

func TestOperatorLangItems(t *testing.T) {
	cases := []struct {
		op   ast.BinaryOp
		lang mappings.LangItem
	}{
		{ast.BinAdd, mappings.LangAdd},
		{ast.BinRem, mappings.LangRem},
		{ast.BinNe, mappings.LangEq},
		{ast.BinGe, mappings.LangPartialOrd},
	}
	for _, tc := range cases {
		spec, _ := BinarySpecFor(tc.op)
		if spec.Lang != tc.lang {
			t.Fatalf("%s: expected lang %s, got %s", tc.op, tc.lang, spec.Lang)
		}
	}
	if spec, _ := UnarySpecFor(ast.UnNeg); spec.Lang != mappings.LangNeg {
		t.Fatalf("negation dispatches to neg")
	}
}

func TestFamilyOfInferenceVars(t *testing.T) {
	in := NewInterner()
	iv := in.NewVar(InferInt)
	if in.FamilyOf(iv)&FamilyIntegral == 0 {
		t.Fatalf("integer literal var should be integral")
	}
	if in.FamilyOf(in.Builtins().Char)&FamilyOrdered == 0 {
		t.Fatalf("char is ordered")
	}
	if in.FamilyOf(in.Builtins().Bool)&FamilyNumeric != 0 {
		t.Fatalf("bool is not numeric")
	}
}
