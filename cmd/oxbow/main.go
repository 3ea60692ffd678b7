// Command oxbow checks crate descriptions: it resolves names, lowers to HIR
// and type-checks every crate of a project.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"oxbow/internal/version"
)

// errFailed makes the process exit non-zero after diagnostics were printed.
var errFailed = errors.New("check failed")

var rootCmd = &cobra.Command{
	Use:           "oxbow",
	Short:         "Name resolution and type checking for crate descriptions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.AddCommand(checkCmd, dumpCmd, cacheCmd, versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "report per-pass timings")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics kept per crate (0 = unlimited)")
	pf.IntP("jobs", "j", 0, "crates checked in parallel (0 = GOMAXPROCS)")
	pf.String("trace", "", "write trace events to this file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|crate|pass|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "oxbow:", err)
		}
		os.Exit(1)
	}
}
