package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/pdepend/format"
	"github.com/dhamidi/pdepend/metrics"
	"github.com/dhamidi/pdepend/metrics/builtin"
	"github.com/dhamidi/pdepend/php/codebase"
)

// errIncomplete is returned when a timeout stopped the build early. The
// partial report is still written.
var errIncomplete = errors.New("analysis incomplete")

func newAnalyzeCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Build the code model and compute metrics",
		Long: `Build the code model of the given files and directories and compute
metrics over it. Directories are searched recursively for files with one of
the configured suffixes; hidden directories and excluded paths are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			cfg := a.cfg
			enc := format.New(cfg.Format, cmd.OutOrStdout())
			if enc == nil {
				return fmt.Errorf("unknown format: %s (expected one of %s)", cfg.Format, strings.Join(format.Names, ", "))
			}
			pipeline, err := newPipeline(a)
			if err != nil {
				return err
			}

			if watch {
				return runWatch(cmd.Context(), a, pipeline, enc, args)
			}

			sources, err := collectSources(cfg, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}
			opts := append(cfg.codebaseOptions(), codebase.WithTracerProvider(a.tracer))
			result := codebase.Build(ctx, sources, opts...)
			return report(cmd.Context(), pipeline, enc, result)
		},
	}

	cmd.Flags().StringP("format", "f", "json", "report format ("+strings.Join(format.Names, ", ")+")")
	cmd.Flags().StringSlice("analyzers", nil, "analyzers to run (default all)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild and report again when files change")

	return cmd
}

func newPipeline(a *app) (*metrics.Pipeline, error) {
	registry := builtin.DefaultRegistry()
	if len(a.cfg.Analyzers) > 0 {
		selected, err := registry.Select(a.cfg.Analyzers...)
		if err != nil {
			return nil, err
		}
		registry = selected
	}
	pipeline := metrics.NewPipeline(registry,
		metrics.WithConcurrency(a.cfg.Workers),
		metrics.WithTracerProvider(a.tracer),
	)
	if _, err := pipeline.Plan(); err != nil {
		return nil, err
	}
	return pipeline, nil
}

// collectSources reads the files named by args, searching directories.
func collectSources(cfg *config, args []string) ([]codebase.Source, error) {
	var sources []codebase.Source
	seen := make(map[string]bool)
	add := func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sources = append(sources, codebase.Source{Path: path, Text: data})
		return nil
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}
		c, err := codebase.New(arg, cfg.codebaseOptions()...)
		if err != nil {
			return nil, err
		}
		paths, err := c.Discover()
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		for _, path := range paths {
			if err := add(path); err != nil {
				return nil, err
			}
		}
	}
	return sources, nil
}

func report(ctx context.Context, pipeline *metrics.Pipeline, enc format.Encoder, result *codebase.Result) error {
	rep, err := pipeline.Run(ctx, result.Model)
	if err != nil && rep == nil {
		return fmt.Errorf("run analyzers: %w", err)
	}

	analysis := &format.Analysis{Model: result.Model, Report: rep}
	for _, f := range result.Failed() {
		analysis.Failures = append(analysis.Failures, format.Failure{Path: f.Path, Err: f.Err})
	}
	if encErr := enc.Encode(analysis); encErr != nil {
		return fmt.Errorf("encode report: %w", encErr)
	}

	if err != nil {
		return fmt.Errorf("run analyzers: %w", err)
	}
	if rep.Incomplete {
		return errIncomplete
	}
	return nil
}

func runWatch(ctx context.Context, a *app, pipeline *metrics.Pipeline, enc format.Encoder, args []string) error {
	if len(args) != 1 {
		return errors.New("--watch takes exactly one directory")
	}
	log := commonlog.GetLogger("pdepend.cmd")
	opts := append(a.cfg.codebaseOptions(), codebase.WithTracerProvider(a.tracer))
	c, err := codebase.New(args[0], opts...)
	if err != nil {
		return err
	}
	result, err := c.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("scan %s: %w", args[0], err)
	}
	if err := report(ctx, pipeline, enc, result); err != nil {
		log.Warningf("%s", err)
	}

	w, err := codebase.NewFileWatcher(c, codebase.DefaultDebounce, func(result *codebase.Result, err error) {
		if err != nil {
			log.Errorf("reload: %s", err)
			return
		}
		if err := report(ctx, pipeline, enc, result); err != nil {
			log.Warningf("%s", err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", args[0], err)
	}
	return w.Watch(ctx)
}
