package codebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/pdepend/php"
	"github.com/dhamidi/pdepend/php/parser"
)

const tracerName = "pdepend.codebase"

// ErrNotProcessed marks files that a canceled build never reached.
var ErrNotProcessed = errors.New("file not processed")

// Source is one input file.
type Source struct {
	Path string
	Text []byte
}

type FileResult struct {
	Path string
	AST  *parser.Node
	Err  error
}

// Result is the outcome of a batch build. Model is always resolved, even
// when the build was canceled.
type Result struct {
	Model       *php.Model
	Files       []FileResult
	ModelErrors []*php.ModelError
	Warnings    []*php.UnresolvedReferenceWarning
	Incomplete  bool
}

// Failed lists the files that could not be parsed or were never reached.
func (r *Result) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

type config struct {
	workers       int
	log           commonlog.Logger
	tracer        trace.Tracer
	parserOptions []parser.Option
	suffixes      []string
	exclude       []string
}

type Option func(*config)

// WithWorkers bounds the number of files parsed at once. A value <= 0
// leaves parsing unbounded.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithParserOptions passes options to every file parse. WithFile is
// always set from the source path.
func WithParserOptions(opts ...parser.Option) Option {
	return func(c *config) {
		c.parserOptions = append(c.parserOptions, opts...)
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		log:      commonlog.GetLogger("pdepend.codebase"),
		tracer:   otel.Tracer(tracerName),
		suffixes: []string{".php"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type parsed struct {
	ast *parser.Node
	err error
}

// Build parses sources in parallel and merges them into one code model in
// input order. When ctx ends first, the files merged so far are resolved
// and the result is marked incomplete.
func Build(ctx context.Context, sources []Source, opts ...Option) *Result {
	return build(ctx, sources, newConfig(opts))
}

func build(ctx context.Context, sources []Source, cfg *config) *Result {
	ctx, span := cfg.tracer.Start(ctx, "codebase.Build",
		trace.WithAttributes(attribute.Int("pdepend.files", len(sources))),
	)
	defer span.End()
	start := time.Now()

	done := make([]chan parsed, len(sources))
	for i := range done {
		done[i] = make(chan parsed, 1)
	}

	var g errgroup.Group
	if cfg.workers > 0 {
		g.SetLimit(cfg.workers)
	}
	go func() {
		for i, src := range sources {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					done[i] <- parsed{err: err}
					return nil
				}
				opts := append([]parser.Option{parser.WithFile(src.Path)}, cfg.parserOptions...)
				root, err := parser.Parse(src.Text, opts...)
				done[i] <- parsed{ast: root, err: err}
				return nil
			})
		}
		g.Wait()
	}()

	builder := php.NewBuilder(php.WithLogger(cfg.log))
	result := &Result{Files: make([]FileResult, len(sources))}

	next := 0
	for ; next < len(sources); next++ {
		path := sources[next].Path
		var p parsed
		select {
		case p = <-done[next]:
		case <-ctx.Done():
			p.err = ctx.Err()
		}
		if ctxErr := ctx.Err(); ctxErr != nil && p.ast == nil && errors.Is(p.err, ctxErr) {
			break
		}
		result.Files[next] = FileResult{Path: path, AST: p.ast, Err: p.err}
		if p.err != nil {
			cfg.log.Debugf("%s", p.err)
			continue
		}
		result.ModelErrors = append(result.ModelErrors, builder.Merge(path, p.ast)...)
	}

	if next < len(sources) {
		cause := ctx.Err()
		for i := next; i < len(sources); i++ {
			result.Files[i] = FileResult{
				Path: sources[i].Path,
				Err:  fmt.Errorf("%w: %w", ErrNotProcessed, cause),
			}
		}
		builder.MarkIncomplete()
		result.Incomplete = true
		span.RecordError(cause)
		span.SetStatus(codes.Error, "build canceled")
		cfg.log.Warningf("build stopped after %d of %d files: %s", next, len(sources), cause)
	}

	result.Warnings = builder.Resolve()
	result.Model = builder.Model()

	failed := len(result.Failed())
	span.SetAttributes(
		attribute.Int("pdepend.failed", failed),
		attribute.Int("pdepend.warnings", len(result.Warnings)),
	)
	if !result.Incomplete {
		span.SetStatus(codes.Ok, "")
	}
	cfg.log.Infof("built %d files (%d failed, %d model errors, %d warnings) in %s",
		len(sources), failed, len(result.ModelErrors), len(result.Warnings), time.Since(start))
	return result
}
