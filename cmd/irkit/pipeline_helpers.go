package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"irkit/internal/diagfmt"
	"irkit/internal/pipeline"
	"irkit/internal/samples"
	"irkit/internal/ui"
	"irkit/internal/version"
)

const maxDiagnostics = 100

func sampleJobs(list []samples.Sample) []pipeline.Job {
	jobs := make([]pipeline.Job, len(list))
	for i, s := range list {
		jobs[i] = pipeline.Job{Name: s.Name, Build: s.Build}
	}
	return jobs
}

// runPipeline fills in the shared request fields, runs the jobs and prints
// diagnostics and timings. showUI selects the Bubble Tea progress view.
func (a *app) runPipeline(cmd *cobra.Command, req pipeline.Request, title string, showUI bool) (*pipeline.Report, error) {
	req.Logger = a.log
	req.ToolVersion = version.Version

	var (
		report *pipeline.Report
		err    error
	)
	if showUI {
		report, err = runWithUI(cmd.Context(), cmd.OutOrStdout(), title, req)
	} else {
		report, err = pipeline.Run(cmd.Context(), req)
	}
	if report == nil {
		return nil, err
	}

	bag := report.Bag(maxDiagnostics)
	diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{Color: a.color, ShowNotes: true})
	if a.timings {
		for _, res := range report.Results {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s", res.Module, res.Timings.Summary())
		}
	}
	if err != nil {
		return report, err
	}
	if failed := report.Failed(); failed > 0 {
		return report, fmt.Errorf("%d of %d module(s) failed", failed, len(report.Results))
	}
	return report, nil
}

func runWithUI(ctx context.Context, out io.Writer, title string, req pipeline.Request) (*pipeline.Report, error) {
	events := make(chan pipeline.Event, 256)
	type outcome struct {
		report *pipeline.Report
		err    error
	}
	outcomeCh := make(chan outcome, 1)

	names := make([]string, len(req.Jobs))
	for i, job := range req.Jobs {
		names[i] = job.Name
	}
	go func() {
		req.Progress = pipeline.ChannelSink{Ch: events}
		report, err := pipeline.Run(ctx, req)
		outcomeCh <- outcome{report: report, err: err}
		close(events)
	}()

	uiErr := ui.Run(out, title, names, events)
	if uiErr != nil {
		// drain so the pipeline can finish
		for range events {
		}
	}
	res := <-outcomeCh
	if uiErr != nil {
		return res.report, uiErr
	}
	return res.report, res.err
}
