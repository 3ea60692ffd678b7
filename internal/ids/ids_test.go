package ids

import "testing"

func TestNodeMappingDefID(t *testing.T) {
	m := NodeMapping{Crate: 2, Node: 10, Ir: 7, LocalDef: 3}
	def := m.DefID()
	if def.Crate != 2 || def.Local != 3 {
		t.Fatalf("unexpected def id %v", def)
	}
	if !def.IsValid() {
		t.Fatalf("expected valid def id")
	}
	if m.IsError() {
		t.Fatalf("mapping must not be the error mapping")
	}
	if !ErrorMapping().IsError() {
		t.Fatalf("error mapping must report IsError")
	}
	if got := m.String(); got != "[C:2 Nid:10 Hid:7 Lid:3]" {
		t.Fatalf("unexpected string form %q", got)
	}
}

func TestUnknownSentinels(t *testing.T) {
	if UnknownNodeID.IsValid() || UnknownIrID.IsValid() || UnknownCrateNum.IsValid() || UnknownLocalDefID.IsValid() {
		t.Fatalf("sentinels must be invalid")
	}
	if UnknownDefID.IsValid() {
		t.Fatalf("unknown def id must be invalid")
	}
}
