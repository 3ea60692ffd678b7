package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"oxbow/internal/driver"
	"oxbow/internal/ui"
)

type checkOutcome struct {
	results []*driver.CrateResult
	err     error
}

// runWithUI checks the session while a Bubble Tea program renders the
// events the session's observer sends on events.
func runWithUI(ctx context.Context, s *driver.Session, events chan driver.PhaseEvent, width int) ([]*driver.CrateResult, error) {
	outcome := make(chan checkOutcome, 1)
	go func() {
		results, err := s.ResolveAll(ctx)
		outcome <- checkOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("checking crates", s.Crates(), width, events)
	_, uiErr := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx)).Run()
	// the view may quit before the session is done; keep the observer from blocking
	go func() {
		for range events {
		}
	}()
	res := <-outcome
	if res.err != nil {
		return res.results, res.err
	}
	if uiErr != nil && ctx.Err() == nil {
		return res.results, uiErr
	}
	return res.results, nil
}
