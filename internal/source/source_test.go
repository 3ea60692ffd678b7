package source

import "testing"

func TestInternerNormalizesIdentifiers(t *testing.T) {
	in := NewInterner()
	composed := in.Intern("café")
	decomposed := in.Intern("café")
	if composed != decomposed {
		t.Fatalf("expected NFC-equivalent identifiers to share an id, got %d and %d", composed, decomposed)
	}
	if s := in.MustLookup(decomposed); s != "café" {
		t.Fatalf("expected composed form, got %q", s)
	}
	if in.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", in.Len())
	}
}

func TestInternerStableIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("alpha")
	b := in.Intern("beta")
	if a == b || a == NoStringID {
		t.Fatalf("unexpected ids %d %d", a, b)
	}
	if again := in.Intern("alpha"); again != a {
		t.Fatalf("expected stable id, got %d want %d", again, a)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatalf("lookup of unknown id must fail")
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("demo.yaml", []byte("one\ntwo\nthree"))
	start, end := fs.Resolve(Span{File: id, Start: 4, End: 7})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("unexpected start %+v", start)
	}
	if end.Line != 2 || end.Col != 4 {
		t.Fatalf("unexpected end %+v", end)
	}
	f := fs.Get(id)
	if got := f.Line(3); got != "three" {
		t.Fatalf("unexpected line %q", got)
	}
	if got := f.Line(9); got != "" {
		t.Fatalf("expected empty line, got %q", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	if !changed || string(out) != "a\nb\rc" {
		t.Fatalf("unexpected normalisation %q (changed=%v)", out, changed)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got.Start != 2 || got.End != 8 {
		t.Fatalf("unexpected cover %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cover across files must be a no-op, got %v", got)
	}
}

func TestFileOffsetInvertsResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.yaml", []byte("crate: app\nitems:\n  - fn: main\n"))
	f := fs.Get(id)
	off := f.Offset(3, 5)
	start, _ := fs.Resolve(Span{File: id, Start: off, End: off})
	if start.Line != 3 || start.Col != 5 {
		t.Fatalf("round trip gave %d:%d", start.Line, start.Col)
	}
	if got := f.Offset(99, 1); got != uint32(len(f.Content)) {
		t.Fatalf("past-the-end line gave %d", got)
	}
}
