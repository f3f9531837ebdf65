package metrics

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/pdepend/php"
)

const tracerName = "pdepend.metrics"

// Report is the outcome of a pipeline run.
type Report struct {
	RunID        string
	Results      []Result
	Dependencies []php.Dependency
	Errors       []*AnalyzerError
	Incomplete   bool
}

// Value looks up a computed metric.
func (r *Report) Value(unit php.UnitID, metric string) (float64, bool) {
	i := sort.Search(len(r.Results), func(i int) bool {
		res := r.Results[i]
		if res.Unit != unit {
			return res.Unit >= unit
		}
		return res.Metric >= metric
	})
	if i < len(r.Results) && r.Results[i].Unit == unit && r.Results[i].Metric == metric {
		return r.Results[i].Value, true
	}
	return 0, false
}

// Pipeline runs the analyzers of a registry in dependency order.
type Pipeline struct {
	registry    *Registry
	log         commonlog.Logger
	tracer      trace.Tracer
	concurrency int
}

type Option func(*Pipeline)

func WithLogger(log commonlog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		p.tracer = tp.Tracer(tracerName)
	}
}

// WithConcurrency limits how many analyzers of a layer run at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

func NewPipeline(registry *Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		log:      commonlog.GetLogger("pdepend.metrics"),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Registry() *Registry {
	return p.registry
}

type plannedAnalyzer struct {
	analyzer Analyzer
	// order is the registration index, used for stable ordering.
	order int
	// after holds the names of analyzers providing required metrics.
	after []string
}

// Plan returns analyzer names grouped into layers. Every analyzer comes
// after the providers of its required metrics; within a layer analyzers
// keep registration order.
func (p *Pipeline) Plan() ([][]string, error) {
	layers, err := p.plan()
	if err != nil {
		return nil, err
	}
	names := make([][]string, len(layers))
	for i, layer := range layers {
		for _, pa := range layer {
			names[i] = append(names[i], pa.analyzer.Name())
		}
	}
	return names, nil
}

func (p *Pipeline) plan() ([][]*plannedAnalyzer, error) {
	descriptors := p.registry.Descriptors()
	planned := make(map[string]*plannedAnalyzer, len(descriptors))
	providers := make(map[string]string)

	for i, d := range descriptors {
		a := d.New()
		planned[d.Name] = &plannedAnalyzer{analyzer: a, order: i}
		for _, metric := range a.Provides() {
			if other, ok := providers[metric]; ok {
				return nil, fmt.Errorf("%w: %s by %s and %s", ErrDuplicateProvider, metric, other, d.Name)
			}
			providers[metric] = d.Name
		}
	}

	for _, d := range descriptors {
		pa := planned[d.Name]
		seen := make(map[string]bool)
		for _, metric := range pa.analyzer.Requires() {
			provider, ok := providers[metric]
			if !ok {
				return nil, fmt.Errorf("%w: %s required by %s", ErrMissingProvider, metric, d.Name)
			}
			if !seen[provider] {
				seen[provider] = true
				pa.after = append(pa.after, provider)
			}
		}
	}

	if err := detectCycles(descriptors, planned); err != nil {
		return nil, err
	}

	depth := make(map[string]int, len(planned))
	var level func(name string) int
	level = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		d := 0
		for _, dep := range planned[name].after {
			if l := level(dep) + 1; l > d {
				d = l
			}
		}
		depth[name] = d
		return d
	}

	var layers [][]*plannedAnalyzer
	for _, d := range descriptors {
		l := level(d.Name)
		for len(layers) <= l {
			layers = append(layers, nil)
		}
		layers[l] = append(layers[l], planned[d.Name])
	}
	return layers, nil
}

// detectCycles walks the provider graph depth first in registration
// order so the reported cycle is deterministic.
func detectCycles(descriptors []Descriptor, planned map[string]*plannedAnalyzer) error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string

	var dfs func(name string) error
	dfs = func(name string) error {
		visited[name] = true
		onPath[name] = true
		path = append(path, name)
		for _, dep := range planned[name].after {
			if onPath[dep] {
				start := 0
				for i, n := range path {
					if n == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), path[start:]...), dep)
				return &CycleError{Path: cycle}
			}
			if !visited[dep] {
				if err := dfs(dep); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		onPath[name] = false
		return nil
	}

	for _, d := range descriptors {
		if !visited[d.Name] {
			if err := dfs(d.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

type outcome struct {
	pass *Pass
	err  *AnalyzerError
}

// Run executes every analyzer against a resolved model. Configuration
// errors are returned before anything runs. A failing analyzer is recorded
// in the report and only the analyzers that depend on it are skipped.
func (p *Pipeline) Run(ctx context.Context, model *php.Model) (*Report, error) {
	if !model.Frozen() {
		return nil, ErrModelNotFrozen
	}
	layers, err := p.plan()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "metrics.Pipeline",
		trace.WithAttributes(
			attribute.String("pdepend.run_id", runID),
			attribute.Int("pdepend.layers", len(layers)),
		),
	)
	defer span.End()

	start := time.Now()
	p.log.Infof("run %s: %d analyzers in %d layers", runID, len(p.registry.Descriptors()), len(layers))

	report := &Report{RunID: runID, Incomplete: model.Incomplete()}
	values := make(map[resultKey]float64)
	failed := make(map[string]bool)
	var deps []php.Dependency

	for i, layer := range layers {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context canceled")
			report.Incomplete = true
			p.finish(report, model, deps)
			return report, err
		}

		outcomes := make([]outcome, len(layer))
		var g errgroup.Group
		if p.concurrency > 0 {
			g.SetLimit(p.concurrency)
		}
		for j, pa := range layer {
			if dep := failedDependency(pa, failed); dep != "" {
				outcomes[j].err = &AnalyzerError{
					Analyzer: pa.analyzer.Name(),
					Err:      fmt.Errorf("%w: %s", ErrDependencyFailed, dep),
				}
				continue
			}
			g.Go(func() error {
				outcomes[j] = p.runAnalyzer(ctx, pa.analyzer, model, values)
				return nil
			})
		}
		g.Wait()

		for j, out := range outcomes {
			name := layer[j].analyzer.Name()
			if out.err != nil {
				failed[name] = true
				report.Errors = append(report.Errors, out.err)
				p.log.Warningf("run %s: %s", runID, out.err)
				continue
			}
			for _, res := range out.pass.results {
				values[resultKey{res.Unit, res.Metric}] = res.Value
				report.Results = append(report.Results, res)
			}
			deps = append(deps, out.pass.deps...)
		}
		p.log.Debugf("run %s: layer %d done", runID, i)
	}

	p.finish(report, model, deps)
	if len(report.Errors) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d analyzers failed", len(report.Errors)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	p.log.Infof("run %s: %d results in %s", runID, len(report.Results), time.Since(start))
	return report, nil
}

func failedDependency(pa *plannedAnalyzer, failed map[string]bool) string {
	for _, dep := range pa.after {
		if failed[dep] {
			return dep
		}
	}
	return ""
}

func (p *Pipeline) runAnalyzer(ctx context.Context, a Analyzer, model *php.Model, values map[resultKey]float64) (out outcome) {
	ctx, span := p.tracer.Start(ctx, "metrics.Analyzer",
		trace.WithAttributes(attribute.String("pdepend.analyzer", a.Name())),
	)
	defer span.End()

	pass := newPass(a, model, values)
	defer func() {
		if r := recover(); r != nil {
			p.log.Debugf("analyzer %s panicked: %v\n%s", a.Name(), r, debug.Stack())
			out = outcome{err: &AnalyzerError{Analyzer: a.Name(), Err: fmt.Errorf("panic: %v", r)}}
		}
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
		}
	}()

	err := a.Analyze(ctx, pass)
	if err == nil {
		err = pass.err
	}
	if err != nil {
		return outcome{err: &AnalyzerError{Analyzer: a.Name(), Err: err}}
	}
	span.SetAttributes(attribute.Int("pdepend.results", len(pass.results)))
	return outcome{pass: pass}
}

// finish sorts the results and merges analyzer edges with the model's.
func (p *Pipeline) finish(report *Report, model *php.Model, deps []php.Dependency) {
	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Metric < b.Metric
	})

	seen := make(map[php.Dependency]bool)
	all := model.Dependencies()
	for _, d := range all {
		seen[d] = true
	}
	for _, d := range deps {
		if !seen[d] {
			seen[d] = true
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	report.Dependencies = all
}
