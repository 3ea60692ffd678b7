package trace

import "time"

type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeSession Scope = iota + 1 // one CLI invocation or driver session
	ScopeCrate                    // one compilation unit
	ScopePass                     // resolve, lower, typeck and their phases
	ScopeItem                     // per-item work, debug only
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeCrate:
		return "crate"
	case ScopePass:
		return "pass"
	case ScopeItem:
		return "item"
	}
	return "unknown"
}

// Event is one trace record. Session and Crate are stamped by Tagged.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Session  string
	Crate    string
	Name     string
	Detail   string
	Extra    map[string]string
}
