package trace

import "errors"

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

// Emit hands each tracer its own copy since tracers stamp Seq.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }

// Ring returns the first ring tracer among the fan-out targets.
func (t *MultiTracer) Ring() (*RingTracer, bool) {
	for _, tr := range t.tracers {
		if r, ok := tr.(*RingTracer); ok {
			return r, true
		}
	}
	return nil, false
}

// tagged stamps session and crate names on events.
type tagged struct {
	Tracer
	session string
	crate   string
}

// Tagged wraps t so that every event carries the session id and crate
// name. Disabled tracers are returned as is.
func Tagged(t Tracer, session, crate string) Tracer {
	if t == nil || !t.Enabled() {
		return Nop
	}
	if inner, ok := t.(*tagged); ok {
		t = inner.Tracer
		if session == "" {
			session = inner.session
		}
	}
	return &tagged{Tracer: t, session: session, crate: crate}
}

func (t *tagged) Emit(ev *Event) {
	ev.Session = t.session
	if ev.Crate == "" {
		ev.Crate = t.crate
	}
	t.Tracer.Emit(ev)
}
