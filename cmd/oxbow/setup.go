package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"oxbow/internal/prof"
	"oxbow/internal/trace"
)

// setupTracing builds the tracer described by the trace flags. The
// returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command) (trace.Tracer, func(), error) {
	pf := cmd.Root().PersistentFlags()
	output, err := pf.GetString("trace")
	if err != nil {
		return nil, nil, err
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return nil, nil, err
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, nil, err
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, err
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	// --trace alone asks for crate spans
	if level == trace.LevelOff && output != "" {
		level = trace.LevelCrate
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, err
	}
	tr, err := trace.New(trace.Config{Level: level, Mode: mode, OutputPath: output, RingSize: ringSize})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cleanup := func() {
		if err := tr.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tr.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tr, cleanup, nil
}

// dumpRing prints the buffered events of one crate, used after an internal
// compiler error.
func dumpRing(w io.Writer, tr trace.Tracer, crate string) {
	var ring *trace.RingTracer
	switch t := tr.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring, _ = t.Ring()
	}
	if ring == nil {
		return
	}
	events := ring.Crate(crate)
	if len(events) == 0 {
		return
	}
	fmt.Fprintf(w, "trace of crate %s before the internal error:\n", crate)
	for i := range events {
		_, _ = w.Write(trace.FormatEvent(&events[i], trace.FormatText))
	}
}

func setupProfiling(cmd *cobra.Command) (*prof.Profiler, error) {
	pf := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = pf.GetString("cpu-profile"); err != nil {
		return nil, err
	}
	if opts.Mem, err = pf.GetString("mem-profile"); err != nil {
		return nil, err
	}
	if opts.Trace, err = pf.GetString("runtime-trace"); err != nil {
		return nil, err
	}
	return prof.Start(opts)
}
