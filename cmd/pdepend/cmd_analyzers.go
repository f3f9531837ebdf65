package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/pdepend/metrics"
)

func newAnalyzersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyzers",
		Short: "List the analyzers and the order they run in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := newPipeline(a)
			if err != nil {
				return err
			}
			layers, err := pipeline.Plan()
			if err != nil {
				return err
			}

			analyzers := make(map[string]metrics.Analyzer)
			for _, d := range pipeline.Registry().Descriptors() {
				analyzers[d.Name] = d.New()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LAYER\tANALYZER\tPROVIDES\tREQUIRES")
			for i, layer := range layers {
				for _, name := range layer {
					an := analyzers[name]
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, name, list(an.Provides()), list(an.Requires()))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSlice("analyzers", nil, "analyzers to list (default all)")
	return cmd
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
