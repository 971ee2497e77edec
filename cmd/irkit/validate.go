package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irkit/internal/diag"
	"irkit/internal/diagfmt"
	"irkit/internal/ir"
)

func newValidateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate [sample...]",
		Short: "Build sample modules and check their structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "pretty", "short", "json":
			default:
				return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
			}
			list, err := selectSamples(args)
			if err != nil {
				return err
			}

			bag := diag.NewBag(maxDiagnostics)
			failed := 0
			for _, s := range list {
				m, err := s.Build()
				if err == nil {
					err = ir.Validate(m)
				}
				if err != nil {
					failed++
					bag.AddAll(diag.FromError(s.Name, err))
					continue
				}
				if !a.quiet && format != "json" {
					fmt.Fprintf(cmd.OutOrStdout(), "ok  %s\n", s.Name)
				}
			}
			bag.Sort()

			switch format {
			case "json":
				if err := diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{IncludeNotes: true}); err != nil {
					return err
				}
			case "short":
				diagfmt.Short(cmd.ErrOrStderr(), bag)
			default:
				diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{Color: a.color, ShowNotes: true})
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d module(s) failed validation", failed, len(list))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "diagnostic format (pretty|short|json)")
	return cmd
}
