package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"oxbow/internal/driver"
)

func TestProgressTracksCrates(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	m := NewProgressModel("checking", []string{"app", "lib"}, 60, events).(*progressModel)

	m.Update(eventMsg(driver.PhaseEvent{Crate: "app", Name: "resolve", Status: driver.PhaseStart}))
	if m.items[0].status != "resolve" {
		t.Fatalf("status %q", m.items[0].status)
	}
	m.Update(eventMsg(driver.PhaseEvent{Crate: "app", Name: "resolve", Status: driver.PhaseEnd}))
	if got := m.fraction(); got <= 0.16 || got >= 0.17 {
		t.Fatalf("fraction after one pass: %v", got)
	}
	m.Update(eventMsg(driver.PhaseEvent{Crate: "lib", Status: driver.CrateDone, Cached: true}))
	m.Update(eventMsg(driver.PhaseEvent{Crate: "app", Status: driver.CrateDone, Failed: true}))
	m.Update(eventMsg(driver.PhaseEvent{Crate: "ghost", Status: driver.CrateDone}))
	if m.fraction() != 1 {
		t.Fatalf("fraction %v", m.fraction())
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatalf("done did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("done returned %T", cmd())
	}
	view := m.View()
	for _, want := range []string{"done: checking", "failed", "cached", "app", "lib"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("a-very-long-crate-name", 10); got != "a-very-..." {
		t.Fatalf("got %q", got)
	}
}
