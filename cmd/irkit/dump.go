package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irkit/internal/ir"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [sample...]",
		Short: "Print sample modules in the builder's textual form",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := selectSamples(args)
			if err != nil {
				return err
			}
			for i, s := range list {
				m, err := s.Build()
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := ir.Fprint(cmd.OutOrStdout(), m); err != nil {
					return err
				}
				a.log.Debugw("dumped module", "module", s.Name)
			}
			return nil
		},
	}
}
