package hir_test

import (
	"bytes"
	"strings"
	"testing"

	"oxbow/internal/astload"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/lower"
	"oxbow/internal/mappings"
	"oxbow/internal/resolve"
	"oxbow/internal/source"
)

const shapes = `
crate: shapes
items:
  - mod: geo
    vis: pub
    items:
      - enum: Color
        variants:
          - Red
          - Green
      - trait: Area
        items:
          - fn: area
            self: "&self"
            result: i32
      - struct: Square
        fields: {side: i32}
      - impl: Square
        trait: Area
        items:
          - fn: area
            self: "&self"
            result: i32
            tail: 0
`

func TestDumpListsItemsInOrder(t *testing.T) {
	fs := source.NewFileSet()
	maps := mappings.New()
	c, err := astload.LoadString(fs, maps, nil, "shapes.yaml", shapes)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	resolve.ResolveCrate(maps, c, resolve.Options{Reporter: rep})
	crate := lower.LowerCrate(maps, c, rep)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	var buf bytes.Buffer
	named := func(it *hir.Item) string {
		if it.Kind == hir.ItemStruct {
			return "T"
		}
		return ""
	}
	if err := hir.Dump(&buf, crate, named); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	want := []string{
		"crate shapes",
		"  module geo",
		"    enum Color",
		"      variant Red",
		"      variant Green",
		"    trait Area",
		"      fn area",
		"    struct Square",
		"    impl <Area>",
	}
	pos := 0
	for _, w := range want {
		i := strings.Index(out[pos:], w)
		if i < 0 {
			t.Fatalf("%q missing or out of order in:\n%s", w, out)
		}
		pos += i + len(w)
	}
	if !strings.Contains(out, "#1") {
		t.Fatalf("variant index not printed:\n%s", out)
	}
	if !strings.Contains(out, "struct Square") || !strings.Contains(out, " : T\n") {
		t.Fatalf("type namer ignored:\n%s", out)
	}
}
