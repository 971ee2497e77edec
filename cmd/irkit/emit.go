package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irkit/internal/layout"
	"irkit/internal/pipeline"
)

type emitOptions struct {
	outDir     string
	triple     string
	dataLayout string
}

func (o *emitOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "", "write artifacts into this directory instead of stdout")
	cmd.Flags().StringVar(&o.triple, "target", "", "override the target triple")
	cmd.Flags().StringVar(&o.dataLayout, "data-layout", "", "override the data layout (derived from --target when empty)")
}

func (o *emitOptions) target() (*pipeline.Target, error) {
	if o.triple == "" {
		return nil, nil
	}
	t, err := layout.TargetFor(o.triple, o.dataLayout)
	if err != nil {
		return nil, fmt.Errorf("--data-layout: %w", err)
	}
	return &pipeline.Target{Triple: o.triple, DataLayout: t.DataLayout()}, nil
}

func newEmitCmd(a *app) *cobra.Command {
	var opts emitOptions
	cmd := &cobra.Command{
		Use:   "emit [sample...]",
		Short: "Materialize sample modules as LLVM IR text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.materializeSamples(cmd, args, pipeline.BackendLLVM, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func newCallsCmd(a *app) *cobra.Command {
	var opts emitOptions
	cmd := &cobra.Command{
		Use:   "calls [sample...]",
		Short: "Show the backend calls the materializer makes for sample modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.materializeSamples(cmd, args, pipeline.BackendCalls, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (a *app) materializeSamples(cmd *cobra.Command, args []string, backend pipeline.Backend, opts emitOptions) error {
	list, err := selectSamples(args)
	if err != nil {
		return err
	}
	target, err := opts.target()
	if err != nil {
		return err
	}
	report, err := a.runPipeline(cmd, pipeline.Request{
		Jobs:    sampleJobs(list),
		Backend: backend,
		Target:  target,
		OutDir:  opts.outDir,
	}, string(backend), false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, res := range report.Results {
		if opts.outDir != "" {
			if !a.quiet {
				cmd.PrintErrf("wrote %s\n", res.OutputPath)
			}
			continue
		}
		if i > 0 {
			_, _ = out.Write([]byte("\n"))
		}
		if _, err := out.Write(res.Artifact.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
