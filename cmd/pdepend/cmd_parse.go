package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/pdepend/format"
	"github.com/dhamidi/pdepend/php/codebase"
)

func newParseCmd(a *app) *cobra.Command {
	var outputFormat string
	var includePositions bool

	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse PHP files and dump their syntax trees",
		Long: `Parse PHP files and dump their syntax trees.

The files are merged into one code model first, so names that resolve to a
declared class, interface, trait, enum or function carry its symbol.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "json" && outputFormat != "tree" {
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			var sources []codebase.Source
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				sources = append(sources, codebase.Source{Path: path, Text: data})
			}

			opts := append(a.cfg.codebaseOptions(), codebase.WithTracerProvider(a.tracer))
			result := codebase.Build(cmd.Context(), sources, opts...)

			out := cmd.OutOrStdout()
			var errs []error
			for _, f := range result.Files {
				if f.Err != nil {
					errs = append(errs, fmt.Errorf("parse %s: %w", f.Path, f.Err))
					continue
				}
				switch outputFormat {
				case "json":
					var encOpts []format.ASTOption
					if includePositions {
						encOpts = append(encOpts, format.WithPositions())
					}
					if err := format.NewASTJSONEncoder(out, encOpts...).Encode(f.AST); err != nil {
						return fmt.Errorf("encode json: %w", err)
					}
				case "tree":
					if includePositions {
						fmt.Fprintln(out, f.AST.StringWithPositions())
					} else {
						fmt.Fprintln(out, f.AST.String())
					}
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, tree)")
	cmd.Flags().BoolVar(&includePositions, "positions", false, "include source positions")

	return cmd
}
