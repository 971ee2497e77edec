package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"irkit/internal/samples"
)

func newSamplesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "List the built-in sample modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, s := range samples.All() {
				if a.quiet {
					fmt.Fprintln(out, s.Name)
					continue
				}
				fmt.Fprintf(out, "%-10s %s\n", s.Name, s.Summary)
			}
			return nil
		},
	}
}

// selectSamples resolves sample names; no names means every sample.
func selectSamples(names []string) ([]samples.Sample, error) {
	if len(names) == 0 {
		return samples.All(), nil
	}
	out := make([]samples.Sample, 0, len(names))
	var unknown []string
	for _, name := range names {
		s, ok := samples.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, s)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown sample(s) %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(samples.Names(), ", "))
	}
	return out, nil
}
