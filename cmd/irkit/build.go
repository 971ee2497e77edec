package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"irkit/internal/cache"
	"irkit/internal/pipeline"
	"irkit/internal/ui"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		jobs     int
		noCache  bool
		cacheDir string
		clean    bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Materialize the project's samples in parallel",
		Long:  "Build every sample listed in irkit.toml (or irkit.yaml) into the configured output directory, reusing cached artifacts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.project
			list, err := selectSamples(cfg.Build.Samples)
			if err != nil {
				return err
			}
			uiValue, err := cmd.Root().PersistentFlags().GetString("ui")
			if err != nil {
				return err
			}
			uiMode, err := readToggle("--ui", uiValue)
			if err != nil {
				return err
			}

			req := pipeline.Request{
				Jobs:    sampleJobs(list),
				Backend: pipeline.Backend(cfg.Build.Backend),
				OutDir:  cfg.OutDir(),
				Workers: cfg.Jobs(),
			}
			if jobs > 0 {
				req.Workers = jobs
			}
			if cfg.Target.Triple != "" {
				req.Target = &pipeline.Target{Triple: cfg.Target.Triple, DataLayout: cfg.DataLayout()}
			}
			if cfg.CacheEnabled() && !noCache {
				var c *cache.DiskCache
				if cacheDir != "" {
					c, err = cache.Open(cacheDir)
				} else {
					c, err = cache.OpenDefault("irkit")
				}
				if err != nil {
					return err
				}
				if clean {
					if err := c.DropAll(); err != nil {
						return err
					}
				}
				req.Cache = c
			}

			showUI := !a.quiet && toggleOn(uiMode, os.Stdout)
			if !showUI && !a.quiet {
				req.Progress = ui.NewLineSink(cmd.OutOrStdout())
			}
			report, err := a.runPipeline(cmd, req, "irkit build", showUI)
			if report != nil && !a.quiet {
				cached := 0
				for _, res := range report.Results {
					if res.Cached {
						cached++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "built %d module(s), %d cached, %d failed in %s -> %s\n",
					len(report.Results), cached, report.Failed(), report.Elapsed.Round(time.Millisecond), req.OutDir)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel workers (overrides build.jobs)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not read or write the artifact cache")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default $XDG_CACHE_HOME/irkit)")
	cmd.Flags().BoolVar(&clean, "clean", false, "drop every cached artifact before building")
	return cmd
}
