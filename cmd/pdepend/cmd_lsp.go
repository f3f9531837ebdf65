package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/pdepend/php/codebase"
)

func newLSPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(a.cfg.codebaseOptions(), codebase.WithTracerProvider(a.tracer))
			server := codebase.NewLSPServer(version, opts...)
			return server.RunStdio()
		},
	}
}
