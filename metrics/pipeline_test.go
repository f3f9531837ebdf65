package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dhamidi/pdepend/php"
	"github.com/dhamidi/pdepend/php/parser"
)

type testAnalyzer struct {
	name     string
	requires []string
	provides []string
	run      func(ctx context.Context, pass *Pass) error
}

func (a *testAnalyzer) Name() string       { return a.name }
func (a *testAnalyzer) Requires() []string { return a.requires }
func (a *testAnalyzer) Provides() []string { return a.provides }

func (a *testAnalyzer) Analyze(ctx context.Context, pass *Pass) error {
	if a.run == nil {
		return nil
	}
	return a.run(ctx, pass)
}

func register(t *testing.T, r *Registry, a *testAnalyzer) {
	t.Helper()
	require.NoError(t, r.Register(a.name, func() Analyzer { return a }))
}

func testModel(t *testing.T) *php.Model {
	t.Helper()
	root, err := parser.Parse([]byte(`<?php
class A {}
class B extends A {}
`), parser.WithFile("a.php"))
	require.NoError(t, err)
	b := php.NewBuilder()
	require.Empty(t, b.Merge("a.php", root))
	b.Resolve()
	return b.Model()
}

// reportEach writes value for every unit under metric.
func reportEach(metric string, value float64) func(context.Context, *Pass) error {
	return func(_ context.Context, pass *Pass) error {
		for _, u := range pass.Model.Units() {
			pass.Report(u.ID, metric, value)
		}
		return nil
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "a"})
	register(t, r, &testAnalyzer{name: "b"})
	register(t, r, &testAnalyzer{name: "c"})

	err := r.Register("a", func() Analyzer { return &testAnalyzer{name: "a"} })
	assert.ErrorIs(t, err, ErrDuplicateAnalyzer)

	var names []string
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	selected, err := r.Select("c", "a")
	require.NoError(t, err)
	require.Len(t, selected.Descriptors(), 2)
	assert.Equal(t, "a", selected.Descriptors()[0].Name)
	assert.Equal(t, "c", selected.Descriptors()[1].Name)

	_, err = r.Select("missing")
	assert.ErrorIs(t, err, ErrUnknownAnalyzer)
}

func TestPlanLayers(t *testing.T) {
	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "d", requires: []string{"x", "y"}})
	register(t, r, &testAnalyzer{name: "a", provides: []string{"x"}})
	register(t, r, &testAnalyzer{name: "b", requires: []string{"x"}, provides: []string{"y"}})
	register(t, r, &testAnalyzer{name: "c"})

	layers, err := NewPipeline(r).Plan()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "c"}, {"b"}, {"d"}}, layers)
}

func TestPlanErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		r := NewRegistry()
		register(t, r, &testAnalyzer{name: "a", requires: []string{"y"}, provides: []string{"x"}})
		register(t, r, &testAnalyzer{name: "b", requires: []string{"x"}, provides: []string{"y"}})

		_, err := NewPipeline(r).Plan()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
		assert.Equal(t, "analyzer dependency cycle: a -> b -> a", err.Error())
	})

	t.Run("missing provider", func(t *testing.T) {
		r := NewRegistry()
		register(t, r, &testAnalyzer{name: "a", requires: []string{"x"}})
		_, err := NewPipeline(r).Plan()
		assert.ErrorIs(t, err, ErrMissingProvider)
	})

	t.Run("duplicate provider", func(t *testing.T) {
		r := NewRegistry()
		register(t, r, &testAnalyzer{name: "a", provides: []string{"x"}})
		register(t, r, &testAnalyzer{name: "b", provides: []string{"x"}})
		_, err := NewPipeline(r).Plan()
		assert.ErrorIs(t, err, ErrDuplicateProvider)
	})

	t.Run("nothing runs", func(t *testing.T) {
		ran := false
		r := NewRegistry()
		register(t, r, &testAnalyzer{name: "a", provides: []string{"x"}, run: func(context.Context, *Pass) error {
			ran = true
			return nil
		}})
		register(t, r, &testAnalyzer{name: "b", requires: []string{"x", "z"}})
		_, err := NewPipeline(r).Run(context.Background(), testModel(t))
		assert.ErrorIs(t, err, ErrMissingProvider)
		assert.False(t, ran)
	})
}

func TestRunIsolation(t *testing.T) {
	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "broken", provides: []string{"x"}, run: func(context.Context, *Pass) error {
		return errors.New("boom")
	}})
	register(t, r, &testAnalyzer{name: "panics", provides: []string{"p"}, run: func(context.Context, *Pass) error {
		panic("bad analyzer")
	}})
	register(t, r, &testAnalyzer{name: "dependent", requires: []string{"x"}, provides: []string{"y"}})
	register(t, r, &testAnalyzer{name: "healthy", provides: []string{"ok"}, run: reportEach("ok", 1)})

	report, err := NewPipeline(r).Run(context.Background(), testModel(t))
	require.NoError(t, err)

	require.Len(t, report.Errors, 3)
	assert.Equal(t, "broken", report.Errors[0].Analyzer)
	assert.EqualError(t, report.Errors[0], "analyzer broken: boom")
	assert.Equal(t, "panics", report.Errors[1].Analyzer)
	assert.Contains(t, report.Errors[1].Error(), "panic: bad analyzer")
	assert.Equal(t, "dependent", report.Errors[2].Analyzer)
	assert.ErrorIs(t, report.Errors[2], ErrDependencyFailed)

	assert.Equal(t, []Result{
		{Unit: "A", Metric: "ok", Value: 1},
		{Unit: "B", Metric: "ok", Value: 1},
	}, report.Results)
}

func TestRunWriteRules(t *testing.T) {
	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "undeclared", provides: []string{"x"}, run: reportEach("other", 1)})
	register(t, r, &testAnalyzer{name: "twice", provides: []string{"t"}, run: func(_ context.Context, pass *Pass) error {
		pass.Report("A", "t", 1)
		pass.Report("A", "t", 2)
		return nil
	}})
	register(t, r, &testAnalyzer{name: "reader", run: func(_ context.Context, pass *Pass) error {
		pass.Value("A", "t")
		return nil
	}})

	report, err := NewPipeline(r).Run(context.Background(), testModel(t))
	require.NoError(t, err)
	require.Len(t, report.Errors, 3)
	assert.ErrorIs(t, report.Errors[0], ErrUndeclaredMetric)
	assert.ErrorIs(t, report.Errors[1], ErrDuplicateResult)
	assert.ErrorIs(t, report.Errors[2], ErrUndeclaredMetric)
	assert.Empty(t, report.Results)
}

func TestRunValuesAndIdempotence(t *testing.T) {
	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "base", provides: []string{"x"}, run: reportEach("x", 2)})
	register(t, r, &testAnalyzer{name: "double", requires: []string{"x"}, provides: []string{"y"}, run: func(_ context.Context, pass *Pass) error {
		for _, u := range pass.Model.Units() {
			v, ok := pass.Value(u.ID, "x")
			if !ok {
				return errors.New("missing x")
			}
			pass.Report(u.ID, "y", v*2)
			pass.Depend(u.ID, "External", "uses")
		}
		return nil
	}})

	model := testModel(t)
	pipeline := NewPipeline(r, WithConcurrency(1))
	first, err := pipeline.Run(context.Background(), model)
	require.NoError(t, err)
	second, err := pipeline.Run(context.Background(), model)
	require.NoError(t, err)

	assert.Empty(t, first.Errors)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Dependencies, second.Dependencies)
	assert.NotEqual(t, first.RunID, second.RunID)

	v, ok := first.Value("B", "y")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
	_, ok = first.Value("B", "z")
	assert.False(t, ok)

	assert.Equal(t, []php.Dependency{
		{From: "A", To: "External", Kind: php.DependencyUses},
		{From: "B", To: "A", Kind: php.DependencyInherits},
		{From: "B", To: "External", Kind: php.DependencyUses},
	}, first.Dependencies)
}

func TestRunRequiresResolvedModel(t *testing.T) {
	b := php.NewBuilder()
	_, err := NewPipeline(NewRegistry()).Run(context.Background(), b.Model())
	assert.ErrorIs(t, err, ErrModelNotFrozen)
}

func TestRunCanceled(t *testing.T) {
	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "a", provides: []string{"x"}, run: reportEach("x", 1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewPipeline(r).Run(ctx, testModel(t))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.True(t, report.Incomplete)
	assert.Empty(t, report.Results)
}

func TestRunSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := NewRegistry()
	register(t, r, &testAnalyzer{name: "a", provides: []string{"x"}, run: reportEach("x", 1)})
	register(t, r, &testAnalyzer{name: "b", requires: []string{"x"}})

	_, err := NewPipeline(r, WithTracerProvider(tp)).Run(context.Background(), testModel(t))
	require.NoError(t, err)

	counts := map[string]int{}
	for _, span := range recorder.Ended() {
		counts[span.Name()]++
	}
	assert.Equal(t, map[string]int{"metrics.Pipeline": 1, "metrics.Analyzer": 2}, counts)
}
