package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"oxbow/internal/diag"
	"oxbow/internal/source"
)

func decode(t *testing.T, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	t.Helper()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	return out
}

func TestJSONLocation(t *testing.T) {
	fs := source.NewFileSet()
	bag, _ := unresolvedBag(fs, "main.yaml")
	out := decode(t, bag, fs, JSONOpts{IncludePositions: true})
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count: %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "SEM3001" {
		t.Fatalf("header: %+v", d)
	}
	loc := d.Location
	if loc.File != "main.yaml" || loc.StartByte != 24 || loc.EndByte != 31 {
		t.Fatalf("location: %+v", loc)
	}
	if loc.StartLine != 2 || loc.StartCol != 13 || loc.EndCol != 20 {
		t.Fatalf("positions: %+v", loc)
	}

	out = decode(t, bag, fs, JSONOpts{})
	if out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("positions emitted without IncludePositions")
	}
}

func TestJSONFixesAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.yaml", []byte(program))
	xs := source.Span{File: id, Start: 20, End: 21}
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.SemaUnusedBinding, xs, "unused variable `x`").
		WithNote(xs, "bound here").
		WithFix("prefix with an underscore", diag.FixEdit{Span: xs, NewText: "_x"}))

	out := decode(t, bag, fs, JSONOpts{IncludeFixes: true, IncludePreviews: true})
	d := out.Diagnostics[0]
	if len(d.Notes) != 0 {
		t.Fatalf("notes emitted without IncludeNotes: %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes: %+v", d.Fixes)
	}
	e := d.Fixes[0].Edits[0]
	if e.OldText != "x" || e.NewText != "_x" {
		t.Fatalf("edit: %+v", e)
	}
	if len(e.AfterLines) != 1 || e.AfterLines[0] != "    let _x = missing;" {
		t.Fatalf("preview: %+v", e)
	}

	out = decode(t, bag, fs, JSONOpts{IncludeNotes: true})
	if n := out.Diagnostics[0].Notes; len(n) != 1 || n[0].Message != "bound here" {
		t.Fatalf("notes: %+v", n)
	}
}

func TestJSONTimingNotesAlwaysIncluded(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, "Pipeline timings").
		WithNote(source.NoSpan, `{"kind":"crate"}`))
	out := decode(t, bag, fs, JSONOpts{})
	if n := out.Diagnostics[0].Notes; len(n) != 1 || n[0].Message != `{"kind":"crate"}` {
		t.Fatalf("timing payload dropped: %+v", out.Diagnostics[0])
	}
	if out.Diagnostics[0].Location.File != "" {
		t.Fatalf("spanless diagnostic got a file")
	}
}

func TestJSONMax(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.yaml", []byte(program))
	bag := diag.NewBag(10)
	for i := range 4 {
		bag.Add(diag.NewError(diag.SemaUnresolvedName, source.Span{File: id, Start: uint32(i), End: uint32(i + 1)}, "x"))
	}
	out := decode(t, bag, fs, JSONOpts{Max: 3})
	if out.Count != 3 || out.Truncated != 1 {
		t.Fatalf("count=%d truncated=%d", out.Count, out.Truncated)
	}
	if bag.Len() != 4 {
		t.Fatalf("bag was modified")
	}
}
