// Command irkit builds, validates and materializes IR modules.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"irkit/internal/project"
	"irkit/internal/version"
)

// app is the per-invocation state shared by the subcommands.
type app struct {
	project    project.Config
	hasProject bool
	log        *zap.SugaredLogger
	color      bool
	quiet      bool
	timings    bool
	cleanup    []func()
}

func newApp() *app {
	return &app{log: zap.NewNop().Sugar()}
}

// rootCmd builds the command tree. Callers run a.close after Execute so the
// tracer and profilers are flushed even when a command fails.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "irkit",
		Short:         "Deferred-lowering IR toolkit",
		Long:          `irkit builds IR modules, validates them and materializes them through a backend`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("log-level", "off", "structured log level (off|debug|info|warn|error)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "ring buffer size for --trace-mode=ring")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat trace events at this interval")
	pf.String("ui", "auto", "progress UI (auto|on|off)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")

	root.AddCommand(
		newSamplesCmd(a),
		newValidateCmd(a),
		newDumpCmd(a),
		newEmitCmd(a),
		newCallsCmd(a),
		newBuildCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	a.quiet, _ = flags.GetBool("quiet")
	a.timings, _ = flags.GetBool("timings")
	colorValue, _ := flags.GetString("color")
	mode, err := readToggle("--color", colorValue)
	if err != nil {
		return err
	}
	a.color = toggleOn(mode, os.Stderr)

	cfg, ok, err := project.Discover(".")
	if err != nil {
		return err
	}
	a.project, a.hasProject = cfg, ok

	levelValue, _ := flags.GetString("log-level")
	log, err := newLogger(levelValue, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	a.cleanup = append(a.cleanup, func() { _ = log.Sync() })
	if ok {
		a.log.Debugw("project loaded", "path", cfg.Path)
	}

	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	stop, err := setupTracing(cmd, a.project.Trace)
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, stop)

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, stopProfiling)
	return nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// main executes the root command and exits with status 1 on error.
func main() {
	a := newApp()
	err := a.rootCmd().Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "irkit:", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
