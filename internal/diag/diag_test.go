package diag

import (
	"testing"

	"oxbow/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Add("/workspace/crates/app.yaml", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaUnusedBinding,
			Message:  "unused variable `x`",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     SemaUnresolvedName,
			Message:  "cannot find value `y`\nin this scope",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "similar name here"},
			},
		},
	}

	want := "error SEM3001 crates/app.yaml:1:1 cannot find value `y` in this scope\n" +
		"note SEM3001 crates/app.yaml:2:1 similar name here\n" +
		"warning SEM3030 crates/app.yaml:2:1 unused variable `x`"
	if got := FormatShortDiagnostics(diags, fs, "/workspace", true); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestDedupReporterDropsRepeats(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Start: 3, End: 5}
	for range 3 {
		ReportError(r, SemaUnresolvedName, sp, "cannot find `x`").Emit()
	}
	ReportError(r, SemaUnresolvedName, sp, "cannot find `y`").Emit()
	if bag.Len() != 2 || r.Suppressed() != 2 {
		t.Fatalf("expected 2 diagnostics and 2 repeats, got %d and %d", bag.Len(), r.Suppressed())
	}
}

func TestBagLimitAndMerge(t *testing.T) {
	a := NewBag(1)
	if !a.Add(NewError(SemaTypeMismatch, source.NoSpan, "first")) {
		t.Fatalf("first add must succeed")
	}
	if a.Add(NewError(SemaTypeMismatch, source.NoSpan, "second")) {
		t.Fatalf("add beyond limit must fail")
	}
	b := NewBag(0)
	b.Add(New(SevWarning, SemaUnusedBinding, source.NoSpan, "w"))
	a.Merge(b)
	if a.Len() != 2 || !a.HasErrors() || !a.HasWarnings() {
		t.Fatalf("unexpected merged bag: len=%d", a.Len())
	}
	if a.Count(SemaTypeMismatch) != 1 {
		t.Fatalf("expected one type mismatch")
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, SemaAmbiguousCandidates, source.NoSpan, "ambiguous").
		WithNote(source.NoSpan, "candidate #1").
		WithNote(source.NoSpan, "candidate #2")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 || len(bag.Items()[0].Notes) != 2 {
		t.Fatalf("unexpected bag contents %+v", bag.Items())
	}
}

func TestCodeIDs(t *testing.T) {
	if got := SemaExpectedValueFoundModule.ID(); got != "SEM3004" {
		t.Fatalf("unexpected id %s", got)
	}
	if got := ProjManifestInvalid.ID(); got != "PRJ5001" {
		t.Fatalf("unexpected id %s", got)
	}
	if got := Code(42).Title(); got != "Unknown error" {
		t.Fatalf("unexpected title %s", got)
	}
}

func TestSeverityParseAndFilter(t *testing.T) {
	if s, err := ParseSeverity("warn"); err != nil || s != SevWarning {
		t.Fatalf("warn: %v %v", s, err)
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatalf("unknown severity accepted")
	}
	b := NewBag(0)
	b.Add(New(SevInfo, SemaInfo, source.NoSpan, "info"))
	b.Add(New(SevInfo, ObsTimings, source.NoSpan, "timings"))
	b.Add(New(SevWarning, SemaUnusedBinding, source.NoSpan, "unused"))
	b.Add(NewError(SemaUnresolvedName, source.NoSpan, "missing"))
	got := b.Filter(SevWarning)
	if got.Len() != 3 || got.Count(SemaInfo) != 0 || got.Count(ObsTimings) != 1 {
		t.Fatalf("filtered: %+v", got.Items())
	}
	if SevError.Label() != "error" || SevWarning.String() != "WARNING" {
		t.Fatalf("labels")
	}
}
