package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTaggedRingKeepsCrateEvents(t *testing.T) {
	ring := NewRingTracer(8, LevelPass)
	app := Tagged(ring, "sess-1", "app")
	core := Tagged(ring, "sess-1", "core")

	s := Begin(app, ScopeCrate, "crate", 0)
	Begin(core, ScopePass, "resolve", 0).End("")
	Begin(app, ScopePass, "typeck", s.ID()).WithExtra("items", "3").End("")
	s.End("ok")

	got := ring.Crate("app")
	if len(got) != 4 {
		t.Fatalf("app events: got %d, want 4", len(got))
	}
	for _, ev := range got {
		if ev.Session != "sess-1" {
			t.Fatalf("event %q lost its session", ev.Name)
		}
	}
	if got[2].Extra["items"] != "3" || got[2].ParentID != s.ID() {
		t.Fatalf("typeck end event: %+v", got[2])
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	ring := NewRingTracer(8, LevelCrate)
	Begin(ring, ScopeCrate, "crate", 0).End("")
	Begin(ring, ScopePass, "resolve", 0).End("")
	Point(ring, ScopeItem, "item", "", 0)
	if n := len(ring.Snapshot()); n != 2 {
		t.Fatalf("got %d events, want only the crate span", n)
	}
	if Begin(Nop, ScopeSession, "x", 0).End("") != 0 {
		t.Fatalf("nop span must not measure time")
	}
}

func TestRingWrapsInOrder(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopePass, name, "", 0)
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "bcd" {
		t.Fatalf("snapshot order %v", names)
	}
}

func TestStreamFormats(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPass, FormatNDJSON)
	Begin(Tagged(st, "s", "app"), ScopePass, "lower", 0).End("done")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "end" || ev.Crate != "app" || ev.Detail != "done" {
		t.Fatalf("decoded %+v", ev)
	}

	text := string(FormatEvent(&Event{Kind: KindSpanBegin, Scope: ScopeCrate, Crate: "app", Name: "crate",
		Extra: map[string]string{"b": "2", "a": "1"}}, FormatText))
	if !strings.Contains(text, "[app]   > crate {a=1, b=2}") {
		t.Fatalf("text format %q", text)
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLevel("PASS"); err != nil || l != LevelPass {
		t.Fatalf("ParseLevel: %v %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("bad level accepted")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode: %v %v", m, err)
	}
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must yield a disabled tracer")
	}
}
