package driver

import "time"

// PhaseStatus reports whether a pass started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// CrateDone closes a crate; Name is empty and Failed and Cached are set.
	CrateDone
)

// PhaseEvent describes a pass boundary within one crate.
type PhaseEvent struct {
	Crate   string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Failed  bool
	Cached  bool
}

// PhaseObserver receives pass events. Crates run in parallel, so an
// observer must be safe for concurrent use.
type PhaseObserver func(PhaseEvent)
